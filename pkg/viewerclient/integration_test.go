//go:build integration

// Integration test against a running server: task run
//
// Run: go test -tags=integration ./pkg/viewerclient/
package viewerclient_test

import (
	"context"
	"os"
	"testing"

	"github.com/joeblew999/plat-viewer/pkg/viewerclient"
)

func baseURL() string {
	if u := os.Getenv("VIEWER_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8086"
}

func client() viewerclient.PlatViewerAPIClient {
	return viewerclient.New(baseURL())
}

func TestLiveHealth(t *testing.T) {
	_, body, err := client().Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Fatalf("status=%q, want ok", body.Status)
	}
}

func TestLiveInfo(t *testing.T) {
	_, body, err := client().GetInfo(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if body.Name != "plat-viewer" {
		t.Fatalf("name=%q, want plat-viewer", body.Name)
	}
}

func TestLiveSession(t *testing.T) {
	ctx := context.Background()
	c := client()

	_, sess, err := c.CreateSession(ctx)
	if err != nil {
		t.Fatal("create:", err)
	}
	defer c.DeleteSession(ctx, sess.ID)

	if sess.State.ActiveBackground == "" && len(sess.State.Backgrounds) > 0 {
		t.Fatal("no active background")
	}
	_, u, err := c.GetURL(ctx, sess.ID, viewerclient.WithQuery("mode", "full"))
	if err != nil {
		t.Fatal("url:", err)
	}
	t.Logf("query: %s", u.Query)

	_, again, err := c.ApplyURL(ctx, sess.ID, viewerclient.ApplyURLBody{Query: u.Query})
	if err != nil {
		t.Fatal("apply:", err)
	}
	if len(again.State.VisibleLayers) != len(sess.State.VisibleLayers) {
		t.Fatalf("visible=%v, want %v", again.State.VisibleLayers, sess.State.VisibleLayers)
	}
}
