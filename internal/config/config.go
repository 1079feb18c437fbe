// Package config holds the viewer application configuration and prepares
// layer definitions from it.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-viewer/internal/apperr"
	pkgconfig "github.com/joeblew999/plat-viewer/pkg/config"
)

// URL sync modes.
const (
	URLSyncXYZ  = "xyz"
	URLSyncMap  = "map"
	URLSyncFull = "full"
)

// DefaultApp is the name of the base application config.
const DefaultApp = "default"

// AppConfig is one viewer application.
type AppConfig struct {
	App         AppHeader     `json:"app" yaml:"app"`
	Map         MapConfig     `json:"map" yaml:"map"`
	Components  Components    `json:"components" yaml:"components"`
	URLSync     URLSyncConfig `json:"urlSync" yaml:"urlSync"`
	Backgrounds Filter        `json:"backgrounds" yaml:"backgrounds"`
	Layers      Filter        `json:"layers" yaml:"layers"`
	Groups      GroupFilter   `json:"groups" yaml:"groups"`
	Logging     LoggingConfig `json:"logging" yaml:"logging"`
}

// Validate validates the application configuration.
func (c *AppConfig) Validate() error {
	if err := c.Map.Validate(); err != nil {
		return fmt.Errorf("map: %w", err)
	}
	if err := c.URLSync.Validate(); err != nil {
		return fmt.Errorf("urlSync: %w", err)
	}
	return c.Logging.Validate()
}

// AppHeader is the page header configuration.
type AppHeader struct {
	Title            string `json:"title,omitempty" yaml:"title"`
	HeaderLogo       string `json:"headerLogo,omitempty" yaml:"headerLogo"`
	HeaderLogoLink   string `json:"headerLogoLink,omitempty" yaml:"headerLogoLink"`
	ShowNoBackground bool   `json:"showNoBackground,omitempty" yaml:"showNoBackground"`
}

// MapConfig holds the initial view and default layers.
type MapConfig struct {
	Center            []float64 `json:"center,omitempty" yaml:"center" doc:"Initial center (x, y)"`
	CenterProjection  string    `json:"centerProjection,omitempty" yaml:"centerProjection"`
	Zoom              float64   `json:"zoom,omitempty" yaml:"zoom"`
	Projection        string    `json:"projection,omitempty" yaml:"projection"`
	MinZoom           float64   `json:"minZoom,omitempty" yaml:"minZoom"`
	MaxZoom           float64   `json:"maxZoom,omitempty" yaml:"maxZoom"`
	DefaultBackground string    `json:"defaultBackground,omitempty" yaml:"defaultBackground"`
	DefaultOverlays   []string  `json:"defaultOverlays,omitempty" yaml:"defaultOverlays"`
}

// Validate validates the map configuration.
func (c *MapConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Center, validation.When(len(c.Center) > 0, validation.Length(2, 2))),
		validation.Field(&c.Zoom, validation.Min(0.0), validation.Max(30.0)),
		validation.Field(&c.MinZoom, validation.Min(0.0)),
		validation.Field(&c.MaxZoom, validation.Max(30.0)),
	)
	if err != nil {
		return err
	}
	if c.MaxZoom > 0 && c.MinZoom > c.MaxZoom {
		return errors.New("minZoom is greater than maxZoom")
	}
	return nil
}

// CenterPoint returns the configured center.
func (c MapConfig) CenterPoint() (orb.Point, bool) {
	if len(c.Center) != 2 {
		return orb.Point{}, false
	}
	return orb.Point{c.Center[0], c.Center[1]}, true
}

// Components switches optional viewer features.
type Components struct {
	Search        bool `json:"search,omitempty" yaml:"search"`
	Catalog       bool `json:"catalog,omitempty" yaml:"catalog"`
	Legend        bool `json:"legend,omitempty" yaml:"legend"`
	LayerSwitcher bool `json:"layerswitcher,omitempty" yaml:"layerswitcher"`
	Measure       bool `json:"measure,omitempty" yaml:"measure"`
	Print         bool `json:"print,omitempty" yaml:"print"`
	Draw          bool `json:"draw,omitempty" yaml:"draw"`
}

// URLSyncConfig selects how state is written to the address.
type URLSyncConfig struct {
	Mode string `json:"mode,omitempty" yaml:"mode" enum:"xyz,map,full"`
}

// Validate validates the sync mode; empty means full.
func (c *URLSyncConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = URLSyncFull
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In(URLSyncXYZ, URLSyncMap, URLSyncFull)),
	)
}

// Filter selects entries by name. A non-empty Explicit list alone decides
// and also fixes the order.
type Filter struct {
	Include  []string `json:"include,omitempty" yaml:"include"`
	Exclude  []string `json:"exclude,omitempty" yaml:"exclude"`
	Explicit []string `json:"explicit,omitempty" yaml:"explicit"`
}

// GroupFilter is a Filter with the groups marked single-select at app level.
type GroupFilter struct {
	Filter       `yaml:",inline"`
	SingleSelect []string `json:"singleSelect,omitempty" yaml:"singleSelect"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level"`
	Format string `json:"format,omitempty" yaml:"format"`
}

// Validate validates the logging configuration.
func (c *LoggingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("trace", "debug", "info", "warn", "warning", "error")),
		validation.Field(&c.Format, validation.In("text", "json")),
	)
}

// LoadApp loads <dir>/app/default.yaml merged with <dir>/app/<name>.yaml.
func LoadApp(dir, name string) (*AppConfig, error) {
	files := []string{filepath.Join(dir, "app", DefaultApp+".yaml")}
	if name != "" && name != DefaultApp {
		if filepath.Base(name) != name {
			return nil, fmt.Errorf("%w: app name %q", apperr.ErrInvalidConfig, name)
		}
		files = append(files, filepath.Join(dir, "app", name+".yaml"))
	}
	var cfg AppConfig
	if err := pkgconfig.LoadMerged(&cfg, files...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
