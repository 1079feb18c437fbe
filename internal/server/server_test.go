package server_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-viewer/internal/config"
	"github.com/joeblew999/plat-viewer/internal/layer"
	"github.com/joeblew999/plat-viewer/internal/server"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/testutil"
)

func newServer(t *testing.T, configDir string) *httptest.Server {
	t.Helper()
	log, _ := testutil.Logger(t)
	app := &config.AppConfig{
		Map:        config.MapConfig{Center: []float64{467000, 5763000}, Zoom: 10},
		Components: config.Components{Catalog: true},
	}
	require.NoError(t, app.Validate())
	prepared := config.Prepared{
		Layers: testutil.LayersDef(),
		Catalog: []layer.GroupConfig{
			{Name: "bikes", Title: "Bikes", Catalog: true, Layers: []layer.LayerConfig{testutil.WMS("lanes")}},
		},
	}
	srv, err := server.New(server.Config{
		Host:      "localhost",
		Port:      "0",
		ConfigDir: configDir,
		Logger:    log,
		Bus:       service.NewEventBus(),
	}, app, prepared)
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp, out
}

func createSession(t *testing.T, base string) string {
	t.Helper()
	resp, body := do(t, http.MethodPost, base+"/api/v1/sessions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func visible(body map[string]any) []string {
	state, _ := body["state"].(map[string]any)
	raw, _ := state["visibleLayers"].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, v.(string))
	}
	return out
}

func TestHealthLinks(t *testing.T) {
	ts := newServer(t, "")

	resp, body := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, resp.Header.Values("Link"), `</api/v1/sessions>; rel="sessions"`)
}

func TestInfoAndCatalog(t *testing.T) {
	ts := newServer(t, "")
	createSession(t, ts.URL)

	_, info := do(t, http.MethodGet, ts.URL+"/api/v1/info", "")
	assert.Equal(t, server.Name, info["name"])
	assert.Equal(t, "full", info["urlSync"])
	assert.Equal(t, float64(1), info["sessions"])
	assert.Equal(t, []any{"catalog"}, info["features"])

	_, cat := do(t, http.MethodGet, ts.URL+"/api/v1/catalog", "")
	items, _ := cat["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "bikes", items[0].(map[string]any)["name"])
}

func TestSessionLifecycle(t *testing.T) {
	ts := newServer(t, "")
	id := createSession(t, ts.URL)
	base := ts.URL + "/api/v1/sessions/" + id

	resp, body := do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"osm"}, visible(body))
	assert.Contains(t, resp.Header.Values("Link"), `<`+"/api/v1/sessions/"+id+`>; rel="delete"; method="DELETE"; title="Close session"`)

	_, body = do(t, http.MethodPost, base+"/layers/roads/toggle", "")
	assert.Equal(t, []string{"osm", "roads"}, visible(body))

	_, body = do(t, http.MethodPut, base+"/layers/roads", `{"opacity": 0.4}`)
	assert.Equal(t, []string{"osm", "roads"}, visible(body))

	_, body = do(t, http.MethodPut, base+"/background", `{"name": "grey"}`)
	assert.Equal(t, []string{"grey", "roads"}, visible(body))

	_, body = do(t, http.MethodPut, base+"/groups/order", `{"groups": ["nature"]}`)
	groups := body["state"].(map[string]any)["groups"].([]any)
	assert.Equal(t, "nature", groups[0].(map[string]any)["name"])

	_, body = do(t, http.MethodGet, base+"/url?mode=full", "")
	assert.Equal(t, "grey,nature(0,0,0),traffic(1:40,0),poi(0)", body["layers"])
	assert.Equal(t, "10,467000,5763000", body["map"])

	_, body = do(t, http.MethodPost, base+"/url", `{"query": "layers=osm,poi(1)"}`)
	assert.Equal(t, []string{"osm", "stations"}, visible(body))

	resp, _ = do(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionErrors(t *testing.T) {
	ts := newServer(t, "")
	id := createSession(t, ts.URL)
	base := ts.URL + "/api/v1/sessions/" + id

	resp, _ := do(t, http.MethodPost, base+"/layers/osm/toggle", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, base+"/layers/missing/toggle", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, base+"/background", `{"name": "roads"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, base+"/url?mode=hash", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/sessions/nope/render", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSessionFromURL(t *testing.T) {
	ts := newServer(t, "")

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/sessions?layers=ortho,parks:50&map=12,1,2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"ortho", "parks"}, visible(body))
	view := body["view"].(map[string]any)
	assert.Equal(t, "12,1,2", view["map"])
}

func TestCatalogToggle(t *testing.T) {
	ts := newServer(t, "")
	id := createSession(t, ts.URL)
	base := ts.URL + "/api/v1/sessions/" + id

	_, body := do(t, http.MethodPost, base+"/catalog/bikes/toggle", "")
	assert.Equal(t, "added", body["action"])

	_, body = do(t, http.MethodGet, base+"/catalog", "")
	items := body["items"].([]any)
	assert.Equal(t, true, items[0].(map[string]any)["active"])

	resp, _ := do(t, http.MethodPost, base+"/catalog/unknown/toggle", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListSessionsPaginates(t *testing.T) {
	ts := newServer(t, "")
	for i := 0; i < 3; i++ {
		createSession(t, ts.URL)
	}

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/sessions?limit=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["total"])
	assert.Len(t, body["data"], 2)
	assert.Contains(t, resp.Header.Values("Link"), `</api/v1/sessions?offset=2&limit=2>; rel="next"`)
}

func TestEventsStream(t *testing.T) {
	ts := newServer(t, "")
	id := createSession(t, ts.URL)
	base := ts.URL + "/api/v1/sessions/" + id

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	next := func(contains string) string {
		t.Helper()
		timeout := time.After(5 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream ended")
				if strings.HasPrefix(line, "data: signals") && strings.Contains(line, contains) {
					return line
				}
			case <-timeout:
				t.Fatalf("no signals containing %q", contains)
			}
		}
	}

	first := next("visibleLayers")
	assert.Contains(t, first, `"osm"`)

	do(t, http.MethodPost, base+"/layers/roads/toggle", "")
	assert.Contains(t, next("roads"), "layersUrl")

	do(t, http.MethodDelete, base, "")
	assert.Contains(t, next("closed"), "true")
}

func TestEventsUnknownSession(t *testing.T) {
	ts := newServer(t, "")
	resp, _ := do(t, http.MethodGet, ts.URL+"/api/v1/sessions/nope/events", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStaticGeoJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "geojson"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geojson", "parks.geojson"), []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))
	ts := newServer(t, dir)

	resp, err := http.Get(ts.URL + config.StaticGeoJSONPath + "parks.geojson")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestOperationIDs(t *testing.T) {
	log, _ := testutil.Logger(t)
	app := &config.AppConfig{}
	require.NoError(t, app.Validate())
	srv, err := server.New(server.Config{Logger: log, Bus: service.NewEventBus()}, app, config.Prepared{Layers: testutil.LayersDef()})
	require.NoError(t, err)
	defer srv.Close()

	ids := map[string]bool{}
	for _, item := range srv.OpenAPI().Paths {
		for _, op := range []*huma.Operation{item.Get, item.Post, item.Put, item.Delete} {
			if op != nil {
				ids[op.OperationID] = true
			}
		}
	}
	for _, id := range []string{
		"health", "get-info", "list-sessions", "create-session", "get-session",
		"delete-session", "get-url", "apply-url", "toggle-layer", "put-layer",
		"put-background", "put-group-order", "toggle-catalog", "live-events",
	} {
		assert.True(t, ids[id], id)
	}
}
