// Package layer contains the map layer and group model and the factory that
// builds it from configuration records.
package layer

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the data source protocol of a layer.
type Kind string

const (
	KindTiledWMS       Kind = "tiledwms"
	KindWMS            Kind = "wms"
	KindWMTS           Kind = "wmts"
	KindStaticGeoJSON  Kind = "static_geojson"
	KindDynamicGeoJSON Kind = "dynamic_geojson"
	KindPostGIS        Kind = "postgis"
	KindDigitize       Kind = "digitize"
	KindSensorThings   Kind = "sensorthings"
)

// SourceConfig holds the source parameters of a layer. Which fields matter
// depends on the layer kind.
type SourceConfig struct {
	URL            string            `json:"url,omitempty" yaml:"url,omitempty" doc:"Service URL"`
	Format         string            `json:"format,omitempty" yaml:"format,omitempty" doc:"Image format" example:"image/png"`
	Params         map[string]string `json:"params,omitempty" yaml:"params,omitempty" doc:"WMS request parameters (LAYERS, SRS, STYLES, TRANSPARENT)"`
	Projection     string            `json:"projection,omitempty" yaml:"projection,omitempty" doc:"Projection code" example:"EPSG:25832"`
	Layer          string            `json:"layer,omitempty" yaml:"layer,omitempty" doc:"WMTS layer identifier"`
	MatrixSet      string            `json:"matrixSet,omitempty" yaml:"matrixSet,omitempty" doc:"WMTS tile matrix set"`
	Extent         []float64         `json:"extent,omitempty" yaml:"extent,omitempty" doc:"Tile grid extent (minx, miny, maxx, maxy)"`
	Levels         int               `json:"levels,omitempty" yaml:"levels,omitempty" doc:"Number of WMTS zoom levels"`
	TileSize       []int             `json:"tileSize,omitempty" yaml:"tileSize,omitempty" doc:"Tile size in pixels"`
	DataProjection string            `json:"dataProjection,omitempty" yaml:"dataProjection,omitempty" doc:"GeoJSON data projection"`
	File           string            `json:"file,omitempty" yaml:"file,omitempty" doc:"Static GeoJSON file name"`
}

// OlLayerConfig is the engine-level part of a layer configuration.
type OlLayerConfig struct {
	Source  *SourceConfig `json:"source,omitempty" yaml:"source,omitempty"`
	Visible *bool         `json:"visible,omitempty" yaml:"visible,omitempty"`
	Opacity *float64      `json:"opacity,omitempty" yaml:"opacity,omitempty"`
}

// LegendConfig describes how a legend is produced.
type LegendConfig struct {
	Type       string `json:"type,omitempty" yaml:"type,omitempty" enum:"GetLegendGraphic,link,text" doc:"Legend type"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	Href       string `json:"href,omitempty" yaml:"href,omitempty"`
	Text       string `json:"text,omitempty" yaml:"text,omitempty"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	SLDVersion string `json:"sldVersion,omitempty" yaml:"sldVersion,omitempty"`
	Format     string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Legend is either a plain on/off switch or a LegendConfig object.
// An object implies Enabled.
type Legend struct {
	Enabled bool
	Config  *LegendConfig
}

func (l Legend) MarshalJSON() ([]byte, error) {
	if l.Config != nil {
		return json.Marshal(l.Config)
	}
	return json.Marshal(l.Enabled)
}

func (l *Legend) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*l = Legend{Enabled: b}
		return nil
	}
	var cfg LegendConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return err
	}
	*l = Legend{Enabled: true, Config: &cfg}
	return nil
}

func (l *Legend) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var b bool
		if err := value.Decode(&b); err != nil {
			return err
		}
		*l = Legend{Enabled: b}
		return nil
	}
	var cfg LegendConfig
	if err := value.Decode(&cfg); err != nil {
		return err
	}
	*l = Legend{Enabled: true, Config: &cfg}
	return nil
}

// FeatureInfoConfig controls GetFeatureInfo popups.
type FeatureInfoConfig struct {
	Target       string `json:"target,omitempty" yaml:"target,omitempty" doc:"_popup, _blank or a target element"`
	Width        int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height       int    `json:"height,omitempty" yaml:"height,omitempty"`
	FeatureCount int    `json:"featureCount,omitempty" yaml:"featureCount,omitempty"`
	GML          bool   `json:"gml,omitempty" yaml:"gml,omitempty"`
}

// LayerConfig is the declarative record for one layer.
type LayerConfig struct {
	Name         string             `json:"name" yaml:"name" required:"true" minLength:"1" doc:"Unique layer name" example:"stadtplan"`
	Title        string             `json:"title" yaml:"title" doc:"Display title" example:"City map"`
	Type         Kind               `json:"type" yaml:"type" doc:"Source protocol" example:"wmts"`
	IsBackground bool               `json:"isBackground,omitempty" yaml:"isBackground,omitempty" doc:"Whether the layer belongs to the background band"`
	Status       string             `json:"status,omitempty" yaml:"status,omitempty" enum:"active,inactive" doc:"Inactive layers are dropped unless explicitly included"`
	Catalog      bool               `json:"catalog,omitempty" yaml:"catalog,omitempty" doc:"Whether the layer is offered in the catalog"`
	Visible      *bool              `json:"visible,omitempty" yaml:"visible,omitempty" doc:"Initial visibility"`
	Opacity      *float64           `json:"opacity,omitempty" yaml:"opacity,omitempty" minimum:"0" maximum:"1" doc:"Initial opacity (0-1)"`
	OlLayer      *OlLayerConfig     `json:"olLayer,omitempty" yaml:"olLayer,omitempty"`
	MetadataURL  string             `json:"metadataUrl,omitempty" yaml:"metadataUrl,omitempty"`
	Legend       *Legend            `json:"legend,omitempty" yaml:"legend,omitempty"`
	Attribution  string             `json:"attribution,omitempty" yaml:"attribution,omitempty"`
	Abstract     string             `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	PreviewImage string             `json:"previewImage,omitempty" yaml:"previewImage,omitempty"`
	FeatureInfo  *FeatureInfoConfig `json:"featureinfo,omitempty" yaml:"featureinfo,omitempty"`
}

// source returns the configured source or an empty one.
func (c LayerConfig) source() SourceConfig {
	if c.OlLayer != nil && c.OlLayer.Source != nil {
		return *c.OlLayer.Source
	}
	return SourceConfig{}
}

// initialVisible resolves visible, falling back to olLayer.visible.
func (c LayerConfig) initialVisible() bool {
	if c.Visible != nil {
		return *c.Visible
	}
	if c.OlLayer != nil && c.OlLayer.Visible != nil {
		return *c.OlLayer.Visible
	}
	return false
}

// initialOpacity resolves opacity, falling back to olLayer.opacity and 1.
func (c LayerConfig) initialOpacity() float64 {
	if c.Opacity != nil {
		return *c.Opacity
	}
	if c.OlLayer != nil && c.OlLayer.Opacity != nil {
		return *c.OlLayer.Opacity
	}
	return 1
}

// GroupConfig is the declarative record for an overlay group.
type GroupConfig struct {
	Name                 string        `json:"name" yaml:"name" required:"true" minLength:"1" doc:"Unique group name" example:"traffic"`
	Title                string        `json:"title" yaml:"title" doc:"Display title" example:"Traffic"`
	Layers               []LayerConfig `json:"layers" yaml:"layers" doc:"Member layers, first is the primary layer"`
	Status               string        `json:"status,omitempty" yaml:"status,omitempty" enum:"active,inactive"`
	Catalog              bool          `json:"catalog,omitempty" yaml:"catalog,omitempty" doc:"Offered through the catalog instead of the default overlays"`
	MetadataURL          string        `json:"metadataUrl,omitempty" yaml:"metadataUrl,omitempty"`
	ShowGroup            *bool         `json:"showGroup,omitempty" yaml:"showGroup,omitempty"`
	Abstract             string        `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	SingleSelect         bool          `json:"singleSelect,omitempty" yaml:"singleSelect,omitempty" doc:"Only one member layer visible at a time"`
	SingleSelectGroup    bool          `json:"singleSelectGroup,omitempty" yaml:"singleSelectGroup,omitempty"`
	Legend               *Legend       `json:"legend,omitempty" yaml:"legend,omitempty"`
	DefaultVisibleLayers []string      `json:"defaultVisibleLayers,omitempty" yaml:"defaultVisibleLayers,omitempty" doc:"Layers shown when the group is switched on"`
	Collapsed            *bool         `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
}

// LayersDef is the full layer definition handed to the viewer.
type LayersDef struct {
	BackgroundLayer []LayerConfig `json:"backgroundLayer" yaml:"backgroundLayer" doc:"Background layer configurations"`
	Overlays        []GroupConfig `json:"overlays" yaml:"overlays" doc:"Overlay group configurations, topmost first"`
}
