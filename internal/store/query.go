package store

import (
	"github.com/joeblew999/plat-viewer/internal/layer"
)

// GetLayerByName returns the layer named name.
func (s *Store) GetLayerByName(name string) (*layer.Layer, bool) {
	l, ok := s.layersByName[name]
	return l, ok
}

// GetGroupByName returns the group named name.
func (s *Store) GetGroupByName(name string) (*layer.Group, bool) {
	g, ok := s.groupsByName[name]
	return g, ok
}

// GetGroupByLayerName returns the group owning the overlay layer named name.
func (s *Store) GetGroupByLayerName(name string) (*layer.Group, bool) {
	g, ok := s.groupOfLayer[name]
	return g, ok
}

// GetAllLayers returns the background layers followed by all overlay
// layers in group order.
func (s *Store) GetAllLayers() []*layer.Layer {
	return s.allLayers()
}

// GetVisibleOverlayLayers returns the visible overlay layers top to bottom.
func (s *Store) GetVisibleOverlayLayers() []*layer.Layer {
	var out []*layer.Layer
	for _, g := range s.groups {
		out = append(out, g.VisibleLayers()...)
	}
	return out
}

// GetVisibleLayerNames returns the active background name, if any,
// followed by the visible overlay layer names top to bottom.
func (s *Store) GetVisibleLayerNames() []string {
	names := []string{}
	if s.active != nil {
		names = append(names, s.active.Name())
	}
	for _, l := range s.GetVisibleOverlayLayers() {
		names = append(names, l.Name())
	}
	return names
}

// GetLayerOpacities returns the opacity of every layer whose opacity is
// not the default.
func (s *Store) GetLayerOpacities() map[string]float64 {
	out := make(map[string]float64)
	for _, l := range s.allLayers() {
		if l.Opacity() != layer.DefaultOpacity {
			out[l.Name()] = l.Opacity()
		}
	}
	return out
}

// LayerSnapshot is the serialisable state of one layer.
type LayerSnapshot struct {
	Name       string          `json:"name" doc:"Layer name"`
	Title      string          `json:"title" doc:"Display title"`
	Kind       layer.Kind      `json:"kind" doc:"Source protocol"`
	Background bool            `json:"background,omitempty" doc:"Whether the layer is a background layer"`
	Visible    bool            `json:"visible" doc:"Whether the layer is visible"`
	Opacity    float64         `json:"opacity" doc:"Layer opacity (0-1)"`
	ZIndex     int             `json:"zIndex" doc:"Draw order, higher paints on top"`
	LegendURL  string          `json:"legendUrl,omitempty" doc:"Legend graphic URL"`
	Metadata   *layer.Metadata `json:"metadata,omitempty"`
}

// GroupSnapshot is the serialisable state of one overlay group.
type GroupSnapshot struct {
	Name         string              `json:"name" doc:"Group name"`
	Title        string              `json:"title" doc:"Display title"`
	Visible      bool                `json:"visible" doc:"Whether any member layer is visible"`
	SingleSelect bool                `json:"singleSelect,omitempty" doc:"Only one member layer visible at a time"`
	Collapsed    bool                `json:"collapsed" doc:"Whether the group is collapsed in the layer tree"`
	Metadata     layer.GroupMetadata `json:"metadata"`
	Layers       []LayerSnapshot     `json:"layers"`
}

// Snapshot is the serialisable state of the whole store.
type Snapshot struct {
	Initialized      bool            `json:"initialized"`
	ActiveBackground string          `json:"activeBackground,omitempty" doc:"Name of the visible background layer"`
	Backgrounds      []LayerSnapshot `json:"backgrounds"`
	Groups           []GroupSnapshot `json:"groups" doc:"Overlay groups, topmost first"`
	VisibleLayers    []string        `json:"visibleLayers" doc:"Background name followed by visible overlay names"`
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Initialized:   s.initialized,
		Backgrounds:   make([]LayerSnapshot, 0, len(s.backgrounds)),
		Groups:        make([]GroupSnapshot, 0, len(s.groups)),
		VisibleLayers: s.GetVisibleLayerNames(),
	}
	if s.active != nil {
		snap.ActiveBackground = s.active.Name()
	}
	for _, l := range s.backgrounds {
		snap.Backgrounds = append(snap.Backgrounds, snapshotLayer(l))
	}
	for _, g := range s.groups {
		gs := GroupSnapshot{
			Name:         g.Name(),
			Title:        g.Title(),
			Visible:      g.Visible(),
			SingleSelect: g.SingleSelect(),
			Collapsed:    g.Collapsed(),
			Metadata:     g.Metadata(),
			Layers:       make([]LayerSnapshot, 0, g.Len()),
		}
		for _, l := range g.Layers() {
			gs.Layers = append(gs.Layers, snapshotLayer(l))
		}
		snap.Groups = append(snap.Groups, gs)
	}
	return snap
}

func snapshotLayer(l *layer.Layer) LayerSnapshot {
	meta := l.Metadata()
	ls := LayerSnapshot{
		Name:       l.Name(),
		Title:      l.Title(),
		Kind:       l.Kind(),
		Background: l.IsBackground(),
		Visible:    l.Visible(),
		Opacity:    l.Opacity(),
		ZIndex:     l.ZIndex(),
		Metadata:   &meta,
	}
	if u, ok := l.LegendURL(); ok {
		ls.LegendURL = u
	}
	return ls
}
