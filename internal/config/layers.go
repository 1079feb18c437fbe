package config

import (
	"maps"
	"path/filepath"
	"slices"

	"github.com/joeblew999/plat-viewer/internal/layer"
	pkgconfig "github.com/joeblew999/plat-viewer/pkg/config"
)

// StaticGeoJSONPath is the URL prefix static GeoJSON files are served under.
const StaticGeoJSONPath = "/static_geojson/"

// SourceOverride replaces the service URL of a layer.
type SourceOverride struct {
	URL string `json:"url" yaml:"url"`
}

// RawLayers is the unfiltered layer file.
type RawLayers struct {
	layer.LayersDef `yaml:",inline"`
	Sources         map[string]SourceOverride `json:"sources,omitempty" yaml:"sources"`
}

// LoadLayers loads <dir>/layers.yaml.
func LoadLayers(dir string) (*RawLayers, error) {
	var raw RawLayers
	if err := pkgconfig.Load(filepath.Join(dir, "layers.yaml"), &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// Prepared is the layer definition for one application.
type Prepared struct {
	Layers  layer.LayersDef     `json:"layers"`
	Catalog []layer.GroupConfig `json:"catalog" doc:"Groups offered through the catalog"`
}

// Prepare filters and decorates raw for app. Background visibility follows
// map.defaultBackground, overlay visibility follows map.defaultOverlays.
// Groups marked catalog go to the catalog when the catalog component is
// enabled and are dropped otherwise. Groups without remaining layers are
// dropped.
func Prepare(app *AppConfig, raw *RawLayers) Prepared {
	var out Prepared
	out.Layers.BackgroundLayer = prepareBackgrounds(app, raw)
	out.Layers.Overlays = []layer.GroupConfig{}
	out.Catalog = []layer.GroupConfig{}

	for _, g := range prepareOverlays(app, raw) {
		switch {
		case !g.Catalog:
			out.Layers.Overlays = append(out.Layers.Overlays, g)
		case app.Components.Catalog:
			out.Catalog = append(out.Catalog, g)
		}
	}
	return out
}

// IsActive decides whether an entry survives a filter.
func IsActive(name string, active bool, f Filter) bool {
	if len(f.Explicit) > 0 {
		return slices.Contains(f.Explicit, name)
	}
	if active {
		return !slices.Contains(f.Exclude, name)
	}
	return slices.Contains(f.Include, name)
}

func prepareBackgrounds(app *AppConfig, raw *RawLayers) []layer.LayerConfig {
	out := []layer.LayerConfig{}
	for _, src := range raw.BackgroundLayer {
		if !IsActive(src.Name, isActiveStatus(src.Status), app.Backgrounds) {
			continue
		}
		l := cloneLayer(src)
		l.IsBackground = true
		applySource(&l, raw.Sources)
		visible := l.Name == app.Map.DefaultBackground
		l.Visible = &visible
		out = append(out, l)
	}
	return sortExplicit(out, app.Backgrounds.Explicit, func(l layer.LayerConfig) string { return l.Name })
}

func prepareOverlays(app *AppConfig, raw *RawLayers) []layer.GroupConfig {
	out := []layer.GroupConfig{}
	for _, src := range raw.Overlays {
		if len(src.Layers) == 0 {
			continue
		}
		groupActive := IsActive(src.Name, isActiveStatus(src.Status), app.Groups.Filter)

		g := src
		g.Layers = nil
		g.DefaultVisibleLayers = slices.Clone(src.DefaultVisibleLayers)
		g.SingleSelectGroup = slices.Contains(app.Groups.SingleSelect, src.Name)
		for _, ls := range src.Layers {
			if !IsActive(ls.Name, groupActive && isActiveStatus(ls.Status), app.Layers) {
				continue
			}
			l := cloneLayer(ls)
			applySource(&l, raw.Sources)
			visible := slices.Contains(app.Map.DefaultOverlays, l.Name)
			l.Visible = &visible
			if l.Type == layer.KindStaticGeoJSON {
				staticGeoJSON(&l)
			}
			g.Layers = append(g.Layers, l)
		}
		if len(g.Layers) > 0 {
			out = append(out, g)
		}
	}
	return sortExplicit(out, app.Groups.Explicit, func(g layer.GroupConfig) string { return g.Name })
}

func isActiveStatus(status string) bool {
	return status == "" || status == "active"
}

func applySource(l *layer.LayerConfig, overrides map[string]SourceOverride) {
	o, ok := overrides[l.Name]
	if !ok || o.URL == "" {
		return
	}
	ensureSource(l).URL = o.URL
}

func staticGeoJSON(l *layer.LayerConfig) {
	src := ensureSource(l)
	if src.File != "" {
		src.URL = StaticGeoJSONPath + src.File
		src.File = ""
	}
}

func ensureSource(l *layer.LayerConfig) *layer.SourceConfig {
	if l.OlLayer == nil {
		l.OlLayer = &layer.OlLayerConfig{}
	}
	if l.OlLayer.Source == nil {
		l.OlLayer.Source = &layer.SourceConfig{}
	}
	return l.OlLayer.Source
}

// cloneLayer copies the parts of a layer config that preparation mutates.
func cloneLayer(src layer.LayerConfig) layer.LayerConfig {
	l := src
	if src.OlLayer != nil {
		ol := *src.OlLayer
		if ol.Source != nil {
			s := *ol.Source
			s.Params = maps.Clone(s.Params)
			s.Extent = slices.Clone(s.Extent)
			s.TileSize = slices.Clone(s.TileSize)
			ol.Source = &s
		}
		l.OlLayer = &ol
	}
	return l
}

// sortExplicit returns only the items named in explicit, in that order.
// An empty explicit list keeps items as they are.
func sortExplicit[T any](items []T, explicit []string, name func(T) string) []T {
	if len(explicit) == 0 {
		return items
	}
	out := make([]T, 0, len(explicit))
	for _, n := range explicit {
		if i := slices.IndexFunc(items, func(it T) bool { return name(it) == n }); i >= 0 {
			out = append(out, items[i])
		}
	}
	return out
}
