package layer

import "slices"

// GroupMetadata is descriptive group information.
type GroupMetadata struct {
	MetadataURL       string  `json:"metadataUrl,omitempty"`
	Abstract          string  `json:"abstract,omitempty"`
	ShowGroup         bool    `json:"showGroup"`
	SingleSelectGroup bool    `json:"singleSelectGroup,omitempty"`
	Legend            *Legend `json:"legend,omitempty"`
}

// Group is an ordered set of overlay layers. The group owns its layers;
// its visibility is derived from them and never stored.
type Group struct {
	name           string
	title          string
	layers         []*Layer
	singleSelect   bool
	defaultVisible []string
	collapsed      bool
	meta           GroupMetadata
}

// NewGroup creates a group over layers. The order of layers is kept; the
// first layer is the primary layer in single-select mode.
func NewGroup(cfg GroupConfig, layers []*Layer) *Group {
	g := &Group{
		name:           cfg.Name,
		title:          cfg.Title,
		layers:         slices.Clone(layers),
		singleSelect:   cfg.SingleSelect,
		defaultVisible: slices.Clone(cfg.DefaultVisibleLayers),
		collapsed:      true,
		meta: GroupMetadata{
			MetadataURL:       cfg.MetadataURL,
			Abstract:          cfg.Abstract,
			ShowGroup:         true,
			SingleSelectGroup: cfg.SingleSelectGroup,
			Legend:            cfg.Legend,
		},
	}
	if cfg.ShowGroup != nil {
		g.meta.ShowGroup = *cfg.ShowGroup
	}
	if cfg.Collapsed != nil {
		g.collapsed = *cfg.Collapsed
	}
	return g
}

func (g *Group) Name() string { return g.name }

func (g *Group) Title() string { return g.title }

func (g *Group) SingleSelect() bool { return g.singleSelect }

func (g *Group) Metadata() GroupMetadata { return g.meta }

func (g *Group) Collapsed() bool { return g.collapsed }

func (g *Group) SetCollapsed(collapsed bool) { g.collapsed = collapsed }

// DefaultVisibleLayers returns the names shown when the group is switched on.
func (g *Group) DefaultVisibleLayers() []string { return slices.Clone(g.defaultVisible) }

// Layers returns the member layers in order.
func (g *Group) Layers() []*Layer { return slices.Clone(g.layers) }

// Len returns the number of member layers.
func (g *Group) Len() int { return len(g.layers) }

// LayerAt returns the member at index i.
func (g *Group) LayerAt(i int) (*Layer, bool) {
	if i < 0 || i >= len(g.layers) {
		return nil, false
	}
	return g.layers[i], true
}

// Layer returns the member named name.
func (g *Group) Layer(name string) (*Layer, bool) {
	for _, l := range g.layers {
		if l.name == name {
			return l, true
		}
	}
	return nil, false
}

// Visible reports whether any member layer is visible.
func (g *Group) Visible() bool {
	return slices.ContainsFunc(g.layers, (*Layer).Visible)
}

// SetVisible switches the group on or off. Switching on shows exactly the
// default visible layers if configured, otherwise only the first layer in
// single-select mode, otherwise all layers.
func (g *Group) SetVisible(visible bool) {
	switch {
	case !visible:
		for _, l := range g.layers {
			l.SetVisible(false)
		}
	case len(g.defaultVisible) > 0:
		for _, l := range g.layers {
			l.SetVisible(slices.Contains(g.defaultVisible, l.name))
		}
	case g.singleSelect:
		for i, l := range g.layers {
			l.SetVisible(i == 0)
		}
	default:
		for _, l := range g.layers {
			l.SetVisible(true)
		}
	}
}

// ToggleLayer flips one member layer. In single-select mode the clicked
// layer is shown and all siblings hidden; clicking the visible layer hides
// it. It reports false if no member is named name.
func (g *Group) ToggleLayer(name string) bool {
	target, ok := g.Layer(name)
	if !ok {
		return false
	}
	if !g.singleSelect {
		target.SetVisible(!target.visible)
		return true
	}
	show := !target.visible
	for _, l := range g.layers {
		l.SetVisible(l == target && show)
	}
	return true
}

// VisibleLayers returns the visible member layers in order.
func (g *Group) VisibleLayers() []*Layer {
	var out []*Layer
	for _, l := range g.layers {
		if l.visible {
			out = append(out, l)
		}
	}
	return out
}

// IsLayerVisible reports whether the member named name is visible.
func (g *Group) IsLayerVisible(name string) bool {
	l, ok := g.Layer(name)
	return ok && l.visible
}

// Dispose disposes every member layer.
func (g *Group) Dispose() {
	for _, l := range g.layers {
		l.Dispose()
	}
}
