// Package humastar connects Huma operations to Datastar.
//
// Streaming operations return [Stream], which hands the body an [SSE] bound
// to the request. Datastar actions post their signals as one JSON object;
// embed [SignalsInput] to receive them.
//
//	func (h *Handler) Events(ctx context.Context, in *SessionInput) (*huma.StreamResponse, error) {
//		return humastar.Stream(func(sse humastar.SSE) {
//			sse.Signals(map[string]any{"visibleLayers": names})
//		}), nil
//	}
//
// Hypermedia helpers live next to it: [Action] links for state-dependent
// operations and [PageBody] for paginated lists.
package humastar

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
)

// SignalError is the signal carrying a failed action's message.
const SignalError = "error"

// Stream wraps fn as a streaming response.
func Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			fn(NewSSE(ctx))
		},
	}
}

// SSE is a Datastar event stream on a Huma response.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE starts the event stream. Only the humago adapter is supported.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Signals patches signals into the page.
func (s SSE) Signals(signals map[string]any) error {
	return s.MarshalAndPatchSignals(signals)
}

// Error patches the error signal with err's message.
func (s SSE) Error(err error) error {
	return s.MarshalAndPatchSignals(map[string]any{SignalError: err.Error()})
}

// Event dispatches a DOM CustomEvent with detail.
func (s SSE) Event(name string, detail any) error {
	return s.DispatchCustomEvent(name, detail)
}

// OperationID sets the operation ID. Generated clients name their methods
// after it.
func OperationID(id string) func(o *huma.Operation) {
	return func(o *huma.Operation) { o.OperationID = id }
}

// Signals is the flat signal object of a Datastar action.
type Signals map[string]any

// ParseSignals decodes body. An empty body has no signals.
func ParseSignals(body []byte) (Signals, error) {
	signals := Signals{}
	if len(bytes.TrimSpace(body)) == 0 {
		return signals, nil
	}
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, fmt.Errorf("parse signals: %w", err)
	}
	return signals, nil
}

// String returns the named signal if it holds a string.
func (s Signals) String(key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok
}

// SignalsInput receives the raw signals of a Datastar action.
type SignalsInput struct {
	RawBody []byte
}

// Parse decodes the signals, reporting malformed JSON as 400.
func (i *SignalsInput) Parse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return signals, nil
}
