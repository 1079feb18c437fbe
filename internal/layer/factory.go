package layer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-viewer/internal/apperr"
)

type sourceBuilder func(LayerConfig) (Source, error)

// builders maps each supported kind to its variant constructor.
var builders = map[Kind]sourceBuilder{
	KindTiledWMS:       newTiledWMS,
	KindWMS:            newSingleTileWMS,
	KindWMTS:           newWMTS,
	KindStaticGeoJSON:  newGeoJSON,
	KindDynamicGeoJSON: newGeoJSON,
	KindPostGIS:        newGeoJSON,
	KindDigitize:       newGeoJSON,
}

// Factory builds layers and groups from configuration records. Failures are
// isolated per item and logged; they never abort a whole load.
type Factory struct {
	log logrus.FieldLogger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithFactoryLogger sets the logger used for skipped items.
func WithFactoryLogger(log logrus.FieldLogger) FactoryOption {
	return func(f *Factory) {
		if log != nil {
			f.log = log
		}
	}
}

// NewFactory creates a factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Build constructs a layer or returns an error. Unsupported kinds wrap
// apperr.ErrUnsupportedKind.
func Build(cfg LayerConfig) (*Layer, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: layer without name", apperr.ErrInvalidConfig)
	}
	build, ok := builders[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedKind, cfg.Type)
	}
	src, err := build(cfg)
	if err != nil {
		return nil, err
	}
	return newLayer(cfg, src), nil
}

// CreateLayer builds a layer, or returns nil when no layer is produced
// (unknown or unsupported kind, or a malformed record).
func (f *Factory) CreateLayer(cfg LayerConfig) (l *Layer) {
	entry := f.log.WithFields(logrus.Fields{"layer": cfg.Name, "kind": cfg.Type})
	defer func() {
		if r := recover(); r != nil {
			entry.WithField("panic", r).Error("layer construction panicked")
			l = nil
		}
	}()

	l, err := Build(cfg)
	if err != nil {
		entry.WithError(err).Warn("layer skipped")
		return nil
	}
	return l
}

// CreateGroup builds all member layers and a group over the ones that
// succeeded. A group whose layers all failed is still returned, empty.
func (f *Factory) CreateGroup(cfg GroupConfig) *Group {
	layers := make([]*Layer, 0, len(cfg.Layers))
	for _, lc := range cfg.Layers {
		if l := f.CreateLayer(lc); l != nil {
			layers = append(layers, l)
		}
	}
	if len(layers) < len(cfg.Layers) {
		f.log.WithFields(logrus.Fields{
			"group":   cfg.Name,
			"built":   len(layers),
			"skipped": len(cfg.Layers) - len(layers),
		}).Warn("group built with fewer layers than configured")
	}
	return NewGroup(cfg, layers)
}

// InitializeLayers builds background layers and overlay groups from a
// layers definition. Background records are forced into the background band.
func (f *Factory) InitializeLayers(def LayersDef) ([]*Layer, []*Group) {
	backgrounds := make([]*Layer, 0, len(def.BackgroundLayer))
	for _, cfg := range def.BackgroundLayer {
		cfg.IsBackground = true
		if l := f.CreateLayer(cfg); l != nil {
			backgrounds = append(backgrounds, l)
		}
	}
	groups := make([]*Group, 0, len(def.Overlays))
	for _, gc := range def.Overlays {
		groups = append(groups, f.CreateGroup(gc))
	}
	return backgrounds, groups
}
