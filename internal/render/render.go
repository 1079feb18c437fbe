// Package render describes the boundary to the map rendering engine.
//
// The engine owns drawing, tiling and request issuing. This package only
// defines what the rest of the viewer needs from it: a per-layer [Handle]
// that mirrors visibility, opacity and draw order, and an [Engine] that
// builds handles and keeps the active render list.
package render

import "github.com/paulmach/orb"

// TileGrid describes a fixed tile matrix set (WMTS).
type TileGrid struct {
	Origin      orb.Point `json:"origin"`
	Extent      orb.Bound `json:"-"`
	Resolutions []float64 `json:"resolutions"`
	MatrixIDs   []string  `json:"matrixIds"`
	TileSize    int       `json:"tileSize"`
	MatrixSet   string    `json:"matrixSet"`
}

// Spec is everything the engine needs to build a layer handle.
type Spec struct {
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	URL        string            `json:"url"`
	Params     map[string]string `json:"params,omitempty"`
	Projection string            `json:"projection,omitempty"`
	Format     string            `json:"format,omitempty"`
	Tiled      bool              `json:"tiled"`
	Grid       *TileGrid         `json:"grid,omitempty"`
}

// Handle is the engine-side object that draws one layer.
type Handle interface {
	SetVisible(visible bool)
	SetOpacity(opacity float64)
	SetZIndex(z int)
	Dispose()
}

// ParamUpdater is implemented by handles whose request parameters can be
// changed after construction (WMS).
type ParamUpdater interface {
	Params() map[string]string
	UpdateParams(params map[string]string)
}

// Engine builds handles and maintains the active render list.
// Attach and Detach must be idempotent.
type Engine interface {
	NewHandle(spec Spec) Handle
	Attach(h Handle)
	Detach(h Handle)
	Attached(h Handle) bool
}
