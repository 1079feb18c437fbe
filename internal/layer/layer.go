package layer

import (
	"math"

	"github.com/joeblew999/plat-viewer/internal/render"
)

// DefaultOpacity is the opacity a layer has unless configured otherwise.
const DefaultOpacity = 1.0

// Metadata is descriptive layer information that never changes after
// construction.
type Metadata struct {
	MetadataURL  string             `json:"metadataUrl,omitempty"`
	Legend       *Legend            `json:"legend,omitempty"`
	Attribution  string             `json:"attribution,omitempty"`
	Abstract     string             `json:"abstract,omitempty"`
	PreviewImage string             `json:"previewImage,omitempty"`
	FeatureInfo  *FeatureInfoConfig `json:"featureinfo,omitempty"`
}

// Layer is a single map layer. It owns its render handle, which is built
// on first access and disposed exactly once. State changes made before the
// handle exists are applied when it is built.
//
// A Layer is not safe for concurrent use.
type Layer struct {
	name       string
	title      string
	kind       Kind
	background bool
	meta       Metadata
	source     Source

	visible bool
	opacity float64
	zIndex  int

	handle   render.Handle
	disposed bool

	onDisplayChange func(*Layer)
}

func newLayer(cfg LayerConfig, src Source) *Layer {
	return &Layer{
		name:       cfg.Name,
		title:      cfg.Title,
		kind:       cfg.Type,
		background: cfg.IsBackground,
		source:     src,
		visible:    cfg.initialVisible(),
		opacity:    clampOpacity(cfg.initialOpacity()),
		meta: Metadata{
			MetadataURL:  cfg.MetadataURL,
			Legend:       cfg.Legend,
			Attribution:  cfg.Attribution,
			Abstract:     cfg.Abstract,
			PreviewImage: cfg.PreviewImage,
			FeatureInfo:  cfg.FeatureInfo,
		},
	}
}

func (l *Layer) Name() string { return l.name }
func (l *Layer) Title() string { return l.title }
func (l *Layer) Kind() Kind { return l.kind }
func (l *Layer) IsBackground() bool { return l.background }
func (l *Layer) Metadata() Metadata { return l.meta }
func (l *Layer) Source() Source { return l.source }
func (l *Layer) Visible() bool { return l.visible }
func (l *Layer) Opacity() float64 { return l.opacity }
func (l *Layer) ZIndex() int { return l.zIndex }
func (l *Layer) Disposed() bool { return l.disposed }
func (l *Layer) HasRenderHandle() bool { return l.handle != nil }

// RenderHandle returns the layer's handle, building it through e on first
// access. It returns nil once the layer is disposed.
func (l *Layer) RenderHandle(e render.Engine) render.Handle {
	if l.disposed {
		return nil
	}
	if l.handle == nil {
		l.handle = e.NewHandle(l.source.spec(l))
		l.handle.SetVisible(l.visible)
		l.handle.SetOpacity(l.opacity)
		l.handle.SetZIndex(l.zIndex)
	}
	return l.handle
}

// Handle returns the render handle if it was built, without building it.
func (l *Layer) Handle() render.Handle {
	return l.handle
}

// OnDisplayChange installs the single display-change callback, replacing
// any previous one. Pass nil to clear it. The callback fires synchronously
// after every visibility or opacity mutation.
func (l *Layer) OnDisplayChange(fn func(*Layer)) {
	l.onDisplayChange = fn
}

// SetVisible sets visibility and pushes it into the handle if built.
func (l *Layer) SetVisible(visible bool) {
	l.visible = visible
	if l.handle != nil {
		l.handle.SetVisible(visible)
		l.source.visibilityChanged(l.handle, visible)
	}
	l.notify()
}

// SetOpacity clamps opacity to [0,1] and pushes it into the handle if built.
// NaN is ignored.
func (l *Layer) SetOpacity(opacity float64) {
	if math.IsNaN(opacity) {
		return
	}
	l.opacity = clampOpacity(opacity)
	if l.handle != nil {
		l.handle.SetOpacity(l.opacity)
	}
	l.notify()
}

// SetZIndex sets the draw order and pushes it into the handle if built.
func (l *Layer) SetZIndex(z int) {
	l.zIndex = z
	if l.handle != nil {
		l.handle.SetZIndex(z)
	}
}

// LegendURL returns the legend graphic URL when the source supports one.
func (l *Layer) LegendURL() (string, bool) {
	ls, ok := l.source.(LegendSource)
	if !ok {
		return "", false
	}
	return ls.LegendURL(l.meta.Legend)
}

// Dispose releases the render handle. Calling it again is a no-op.
func (l *Layer) Dispose() {
	if l.disposed {
		return
	}
	l.disposed = true
	if l.handle != nil {
		l.handle.Dispose()
		l.handle = nil
	}
}

func (l *Layer) notify() {
	if l.onDisplayChange != nil {
		l.onDisplayChange(l)
	}
}

func clampOpacity(o float64) float64 {
	if math.IsNaN(o) {
		return DefaultOpacity
	}
	return math.Max(0, math.Min(1, o))
}
