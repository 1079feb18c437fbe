package live

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-viewer/internal/apperr"
	"github.com/joeblew999/plat-viewer/internal/humastar"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/store"
)

type ApplyURLInput struct {
	SessionInput
	humastar.SignalsInput
}

type ToggleLayerInput struct {
	SessionInput
	Name string `path:"name" doc:"Overlay layer name" example:"roads"`
}

// ApplyURL applies the layersUrl signal, a query string as pushed by
// Events, to the session and answers with the resulting signals.
func (h *Handler) ApplyURL(ctx context.Context, input *ApplyURLInput) (*huma.StreamResponse, error) {
	signals, err := input.Parse()
	if err != nil {
		return nil, err
	}
	raw, ok := signals.String(SignalLayersURL)
	if !ok {
		return nil, huma.Error400BadRequest("missing " + SignalLayersURL + " signal")
	}
	sess, err := h.sessions.Get(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, huma.Error400BadRequest("invalid " + SignalLayersURL + ": " + err.Error())
	}
	return h.respond(sess, sess.Apply(values)), nil
}

// ToggleLayer toggles one overlay layer. Inside a single-select group the
// other members are hidden.
func (h *Handler) ToggleLayer(ctx context.Context, input *ToggleLayerInput) (*huma.StreamResponse, error) {
	sess, err := h.sessions.Get(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	err = sess.Update(func(st *store.Store) error {
		if _, ok := st.GetGroupByLayerName(input.Name); !ok {
			return fmt.Errorf("layer %q: %w", input.Name, apperr.ErrNotFound)
		}
		st.ToggleGroupLayer(input.Name)
		return nil
	})
	return h.respond(sess, err), nil
}

func (h *Handler) respond(sess *service.Session, err error) *huma.StreamResponse {
	return humastar.Stream(func(sse humastar.SSE) {
		if err != nil {
			_ = sse.Error(err)
			return
		}
		_ = h.push(sse, sess)
	})
}
