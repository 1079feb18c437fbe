package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-viewer/internal/config"
	"github.com/joeblew999/plat-viewer/internal/humastar"
	"github.com/joeblew999/plat-viewer/internal/service"
)

type InfoHandler struct {
	name     string
	version  string
	app      *config.AppConfig
	sessions *service.SessionService
}

func NewInfoHandler(name, version string, app *config.AppConfig, sessions *service.SessionService) *InfoHandler {
	return &InfoHandler{name: name, version: version, app: app, sessions: sessions}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"), humastar.OperationID("get-info"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	Title    string   `json:"title,omitempty" doc:"Application title"`
	URLSync  string   `json:"urlSync" doc:"Default URL sync mode"`
	Sessions int      `json:"sessions" doc:"Number of open sessions"`
	Features []string `json:"features" doc:"Enabled viewer components"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:     h.name,
		Version:  h.version,
		Features: []string{},
	}
	if h.app != nil {
		body.Title = h.app.App.Title
		body.URLSync = h.app.URLSync.Mode
		body.Features = features(h.app.Components)
	}
	if h.sessions != nil {
		body.Sessions = len(h.sessions.List())
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}

func features(c config.Components) []string {
	out := []string{}
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"search", c.Search},
		{"catalog", c.Catalog},
		{"legend", c.Legend},
		{"layerswitcher", c.LayerSwitcher},
		{"measure", c.Measure},
		{"print", c.Print},
		{"draw", c.Draw},
	} {
		if f.on {
			out = append(out, f.name)
		}
	}
	return out
}
