// Package testutil provides shared fixtures for layer definitions and stores.
package testutil

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/joeblew999/plat-viewer/internal/layer"
	"github.com/joeblew999/plat-viewer/internal/render"
	"github.com/joeblew999/plat-viewer/internal/store"
)

// WMS returns a tiled WMS layer config.
func WMS(name string) layer.LayerConfig {
	return layer.LayerConfig{
		Name:  name,
		Title: name,
		Type:  layer.KindTiledWMS,
		OlLayer: &layer.OlLayerConfig{Source: &layer.SourceConfig{
			URL:    "https://maps.example.org/wms",
			Params: map[string]string{"LAYERS": name},
		}},
	}
}

// Visible marks cfg as initially visible.
func Visible(cfg layer.LayerConfig) layer.LayerConfig {
	v := true
	cfg.Visible = &v
	return cfg
}

// LayersDef returns a definition with three backgrounds and three groups:
//
//	backgrounds: osm, ortho, grey
//	traffic:     roads, rail
//	nature:      parks, forest, water (single select)
//	poi:         stations
func LayersDef() layer.LayersDef {
	return layer.LayersDef{
		BackgroundLayer: []layer.LayerConfig{
			WMS("osm"),
			{
				Name: "ortho", Title: "Orthophoto", Type: layer.KindWMTS,
				OlLayer: &layer.OlLayerConfig{Source: &layer.SourceConfig{
					URL: "https://tiles.example.org/wmts/", Layer: "ortho",
				}},
			},
			{
				Name: "grey", Title: "Grey", Type: layer.KindWMS,
				OlLayer: &layer.OlLayerConfig{Source: &layer.SourceConfig{
					URL: "https://maps.example.org/wms", Params: map[string]string{"LAYERS": "grey"},
				}},
			},
		},
		Overlays: []layer.GroupConfig{
			{Name: "traffic", Title: "Traffic", Layers: []layer.LayerConfig{WMS("roads"), WMS("rail")}},
			{
				Name: "nature", Title: "Nature", SingleSelect: true,
				Layers: []layer.LayerConfig{WMS("parks"), WMS("forest"), WMS("water")},
			},
			{
				Name: "poi", Title: "Points of interest",
				Layers: []layer.LayerConfig{{
					Name: "stations", Title: "Stations", Type: layer.KindDynamicGeoJSON,
					OlLayer: &layer.OlLayerConfig{Source: &layer.SourceConfig{URL: "/data/stations.geojson"}},
				}},
			},
		},
	}
}

// Logger returns a logger that records entries instead of printing them.
func Logger(t *testing.T) (*logrus.Logger, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

// Store builds def into a fresh store on a headless engine.
func Store(t *testing.T, def layer.LayersDef) (*store.Store, *render.Headless) {
	t.Helper()
	log, _ := Logger(t)
	engine := render.NewHeadless()
	s := store.New(store.WithEngine(engine), store.WithLogger(log))
	bgs, groups := layer.NewFactory(layer.WithFactoryLogger(log)).InitializeLayers(def)
	s.Initialize(bgs, groups)
	t.Cleanup(s.Close)
	return s, engine
}

// Group builds a group from cfg.
func Group(t *testing.T, cfg layer.GroupConfig) *layer.Group {
	t.Helper()
	log, _ := Logger(t)
	return layer.NewFactory(layer.WithFactoryLogger(log)).CreateGroup(cfg)
}
