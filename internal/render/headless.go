package render

import (
	"maps"
	"slices"
	"sort"
)

// HandleState is a snapshot of a headless handle.
type HandleState struct {
	Name     string            `json:"name" doc:"Layer name"`
	Kind     string            `json:"kind" doc:"Layer kind"`
	URL      string            `json:"url,omitempty" doc:"Source URL or URL template"`
	Visible  bool              `json:"visible" doc:"Whether the engine draws the layer"`
	Opacity  float64           `json:"opacity" doc:"Layer opacity (0-1)"`
	ZIndex   int               `json:"zIndex" doc:"Draw order, higher paints on top"`
	Params   map[string]string `json:"params,omitempty" doc:"Current request parameters"`
	Disposed bool              `json:"disposed,omitempty" doc:"Whether the handle was disposed"`
}

// HeadlessHandle records the state pushed into it. It never draws.
type HeadlessHandle struct {
	spec     Spec
	visible  bool
	opacity  float64
	zIndex   int
	params   map[string]string
	disposed bool
	disposes int
}

var (
	_ Handle       = (*HeadlessHandle)(nil)
	_ ParamUpdater = (*HeadlessHandle)(nil)
)

func (h *HeadlessHandle) SetVisible(visible bool) { h.visible = visible }

func (h *HeadlessHandle) SetOpacity(opacity float64) { h.opacity = opacity }

func (h *HeadlessHandle) SetZIndex(z int) { h.zIndex = z }

// Dispose marks the handle as released. DisposeCount reports how often it
// was called.
func (h *HeadlessHandle) Dispose() {
	h.disposed = true
	h.disposes++
}

// DisposeCount returns the number of Dispose calls.
func (h *HeadlessHandle) DisposeCount() int { return h.disposes }

// Params returns a copy of the request parameters.
func (h *HeadlessHandle) Params() map[string]string {
	return maps.Clone(h.params)
}

// UpdateParams merges params into the request parameters.
func (h *HeadlessHandle) UpdateParams(params map[string]string) {
	if h.params == nil {
		h.params = make(map[string]string, len(params))
	}
	maps.Copy(h.params, params)
}

// State returns a snapshot of the handle.
func (h *HeadlessHandle) State() HandleState {
	return HandleState{
		Name:     h.spec.Name,
		Kind:     h.spec.Kind,
		URL:      h.spec.URL,
		Visible:  h.visible,
		Opacity:  h.opacity,
		ZIndex:   h.zIndex,
		Params:   h.Params(),
		Disposed: h.disposed,
	}
}

// Headless is an in-process Engine that keeps the render list in memory.
// It is not safe for concurrent use; callers serialise access.
type Headless struct {
	attached []Handle
	created  int
}

var _ Engine = (*Headless)(nil)

// NewHeadless creates an empty headless engine.
func NewHeadless() *Headless {
	return &Headless{}
}

// NewHandle builds a handle for spec. The handle starts hidden at full
// opacity until the owning layer pushes its state.
func (e *Headless) NewHandle(spec Spec) Handle {
	e.created++
	return &HeadlessHandle{
		spec:    spec,
		opacity: 1,
		params:  maps.Clone(spec.Params),
	}
}

// Attach adds h to the render list unless it is already there.
func (e *Headless) Attach(h Handle) {
	if e.Attached(h) {
		return
	}
	e.attached = append(e.attached, h)
}

// Detach removes h from the render list.
func (e *Headless) Detach(h Handle) {
	e.attached = slices.DeleteFunc(e.attached, func(a Handle) bool { return a == h })
}

// Attached reports whether h is in the render list.
func (e *Headless) Attached(h Handle) bool {
	return slices.Contains(e.attached, h)
}

// Len returns the number of attached handles.
func (e *Headless) Len() int { return len(e.attached) }

// Created returns the number of handles built so far.
func (e *Headless) Created() int { return e.created }

// Layers returns the render list, topmost first.
func (e *Headless) Layers() []HandleState {
	out := make([]HandleState, 0, len(e.attached))
	for _, h := range e.attached {
		if hh, ok := h.(*HeadlessHandle); ok {
			out = append(out, hh.State())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex > out[j].ZIndex })
	return out
}
