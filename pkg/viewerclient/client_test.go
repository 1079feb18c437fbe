package viewerclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-viewer/internal/config"
	"github.com/joeblew999/plat-viewer/internal/server"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/testutil"
	"github.com/joeblew999/plat-viewer/pkg/viewerclient"
)

func newClient(t *testing.T) viewerclient.PlatViewerAPIClient {
	t.Helper()
	log, _ := testutil.Logger(t)
	app := &config.AppConfig{}
	require.NoError(t, app.Validate())
	srv, err := server.New(server.Config{Logger: log, Bus: service.NewEventBus()}, app, config.Prepared{Layers: testutil.LayersDef()})
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return viewerclient.NewWithClient(ts.URL, ts.Client())
}

func TestClientRoundTrip(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)

	_, sess, err := c.CreateSession(ctx, viewerclient.WithQuery("layers", "grey,roads"))
	require.NoError(t, err)
	assert.Equal(t, "grey", sess.State.ActiveBackground)
	assert.Equal(t, []string{"grey", "roads"}, sess.State.VisibleLayers)

	_, sess, err = c.ToggleLayer(ctx, sess.ID, "parks")
	require.NoError(t, err)
	assert.Equal(t, []string{"grey", "roads", "parks"}, sess.State.VisibleLayers)

	opacity := 0.25
	_, _, err = c.PutLayer(ctx, sess.ID, "parks", viewerclient.LayerPatch{Opacity: &opacity})
	require.NoError(t, err)
	_, _, err = c.PutBackground(ctx, sess.ID, viewerclient.BackgroundBody{Name: "osm"})
	require.NoError(t, err)
	_, _, err = c.PutGroupOrder(ctx, sess.ID, viewerclient.OrderBody{Groups: []string{"nature"}})
	require.NoError(t, err)

	_, u, err := c.GetURL(ctx, sess.ID, viewerclient.WithQuery("mode", "map"))
	require.NoError(t, err)
	assert.Equal(t, "map", u.Mode)
	assert.Equal(t, "groups=nature,traffic,poi&layers=osm,parks:25,roads", u.Query)

	_, other, err := c.CreateSession(ctx)
	require.NoError(t, err)
	_, other, err = c.ApplyURL(ctx, other.ID, viewerclient.ApplyURLBody{Query: u.Query})
	require.NoError(t, err)
	assert.Equal(t, []string{"osm", "parks", "roads"}, other.State.VisibleLayers)
	assert.Equal(t, "nature", other.State.Groups[0].Name)

	_, page, err := c.ListSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	_, _, err = c.DeleteSession(ctx, sess.ID)
	require.NoError(t, err)
	resp, _, err := c.GetSession(ctx, sess.ID)
	var apiErr *viewerclient.ErrorModel
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientRejectsOverlayAsBackground(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, sess, err := c.CreateSession(ctx)
	require.NoError(t, err)
	_, _, err = c.PutBackground(ctx, sess.ID, viewerclient.BackgroundBody{Name: "roads"})
	var apiErr *viewerclient.ErrorModel
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
