// Package live streams viewer session state to Datastar UIs via SSE and
// accepts Datastar actions.
package live

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-viewer/internal/humastar"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/urlstate"
)

// Signal names patched into the page.
const (
	SignalVisibleLayers = "visibleLayers"
	SignalLayersURL     = "layersUrl"
	SignalClosed        = "closed"
)

// ChangedEvent is the DOM event dispatched after every session change.
const ChangedEvent = "viewer-changed"

// SessionInput selects a session.
type SessionInput struct {
	ID string `path:"id" doc:"Session ID"`
}

// Handler streams session changes and handles Datastar actions.
type Handler struct {
	sessions *service.SessionService
}

// NewHandler creates a live handler.
func NewHandler(sessions *service.SessionService) *Handler {
	return &Handler{sessions: sessions}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags("live")
	huma.Get(api, "/api/v1/sessions/{id}/events", h.Events, tags, humastar.OperationID("live-events"))
	huma.Post(api, "/api/v1/sessions/{id}/live/url", h.ApplyURL, tags, humastar.OperationID("live-apply-url"))
	huma.Post(api, "/api/v1/sessions/{id}/live/layers/{name}/toggle", h.ToggleLayer, tags, humastar.OperationID("live-toggle-layer"))
}

// Events pushes the visible layers and the encoded URL once on connect and
// again after every change of the session, until the client leaves or the
// session is closed.
func (h *Handler) Events(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	sess, err := h.sessions.Get(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	bus := h.sessions.Bus()

	return humastar.Stream(func(sse humastar.SSE) {
		sub := bus.Subscribe(sess.ID())
		defer bus.Unsubscribe(sub)

		if _, err := h.sessions.Get(sess.ID()); err != nil {
			_ = sse.Signals(map[string]any{SignalClosed: true})
			return
		}
		if err := h.push(sse, sess); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if ev.Resource == service.ResourceSession && ev.Action == service.ActionDeleted {
					_ = sse.Signals(map[string]any{SignalClosed: true})
					return
				}
				if err := h.push(sse, sess); err != nil {
					return
				}
				_ = sse.Event(ChangedEvent, map[string]any{
					"resource": ev.Resource,
					"action":   ev.Action,
					"name":     ev.Name,
				})
			}
		}
	}), nil
}

func (h *Handler) push(sse humastar.SSE, sess *service.Session) error {
	return sse.Signals(map[string]any{
		SignalVisibleLayers: sess.VisibleLayers(),
		SignalLayersURL:     urlstate.QueryString(sess.Encode(h.sessions.Mode())),
	})
}
