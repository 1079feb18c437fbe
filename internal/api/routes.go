// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-viewer/internal/apperr"
	"github.com/joeblew999/plat-viewer/internal/catalog"
	"github.com/joeblew999/plat-viewer/internal/config"
	"github.com/joeblew999/plat-viewer/internal/humastar"
	"github.com/joeblew999/plat-viewer/internal/layer"
	"github.com/joeblew999/plat-viewer/internal/service"
)

// Version is the API version.
const Version = "1.0.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Sessions *service.SessionService
	App      *config.AppConfig
	Prepared config.Prepared
}

// Types

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type ConfigBody struct {
	App    *config.AppConfig `json:"app" doc:"Application configuration"`
	Layers layer.LayersDef   `json:"layers" doc:"Prepared layer definition"`
}

type CatalogBody struct {
	Items []catalog.Item `json:"items" doc:"Catalog groups"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"), humastar.OperationID("health"))
}

// RegisterConfig registers the configuration routes.
func (h *APIHandler) RegisterConfig(api huma.API) {
	huma.Get(api, "/api/v1/config", h.GetConfig, huma.OperationTags("config"), humastar.OperationID("get-config"))
	huma.Get(api, "/api/v1/catalog", h.GetCatalog, huma.OperationTags("config"), humastar.OperationID("get-catalog"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetConfig(ctx context.Context, input *struct{}) (*struct{ Body ConfigBody }, error) {
	if h.svc == nil || h.svc.App == nil {
		return nil, huma.Error404NotFound("configuration not loaded")
	}
	return &struct{ Body ConfigBody }{Body: ConfigBody{App: h.svc.App, Layers: h.svc.Prepared.Layers}}, nil
}

func (h *APIHandler) GetCatalog(ctx context.Context, input *struct{}) (*struct{ Body CatalogBody }, error) {
	if h.svc == nil || h.svc.Sessions == nil {
		return &struct{ Body CatalogBody }{Body: CatalogBody{Items: []catalog.Item{}}}, nil
	}
	return &struct{ Body CatalogBody }{Body: CatalogBody{Items: h.svc.Sessions.Catalog().Items(nil)}}, nil
}

// httpError maps service errors to Huma status errors.
func httpError(err error) error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, apperr.ErrInFlight):
		return huma.Error409Conflict(err.Error())
	default:
		return huma.Error400BadRequest(err.Error())
	}
}
