package layer

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-viewer/internal/render"
)

// Source is the closed set of layer source variants. Only this package
// implements it: TiledWMS, SingleTileWMS, WMTS and GeoJSON.
type Source interface {
	Kind() Kind
	// spec describes the handle the engine should build for l.
	spec(l *Layer) render.Spec
	// visibilityChanged runs after the handle's visibility was updated.
	visibilityChanged(h render.Handle, visible bool)
}

// LegendSource is implemented by sources that can produce a legend image URL.
type LegendSource interface {
	LegendURL(legend *Legend) (string, bool)
}

var (
	_ Source       = (*TiledWMS)(nil)
	_ Source       = (*SingleTileWMS)(nil)
	_ Source       = (*WMTS)(nil)
	_ Source       = (*GeoJSON)(nil)
	_ LegendSource = (*TiledWMS)(nil)
	_ LegendSource = (*SingleTileWMS)(nil)
)

// DefaultProjection is the map projection used when a source names none.
const DefaultProjection = "EPSG:25832"

// projectionExtents are the extents of the projections known without a
// projection registry.
var projectionExtents = map[string]orb.Bound{
	"EPSG:25832": {Min: orb.Point{-1877994.66, 3932281.56}, Max: orb.Point{836715.13, 9440581.95}},
	"EPSG:3857":  {Min: orb.Point{-20037508.342789244, -20037508.342789244}, Max: orb.Point{20037508.342789244, 20037508.342789244}},
	"EPSG:4326":  {Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}},
}

// wms holds what both WMS variants share.
type wms struct {
	url    string
	format string
	layers string
	params map[string]string
}

func newWMS(cfg LayerConfig) wms {
	src := cfg.source()
	w := wms{
		url:    src.URL,
		format: src.Format,
		layers: src.Params["LAYERS"],
	}
	if w.format == "" {
		w.format = "image/png"
	}
	w.params = map[string]string{
		"FORMAT":      w.format,
		"TRANSPARENT": "TRUE",
	}
	if srs := src.Params["SRS"]; srs != "" {
		w.params["SRS"] = srs
	}
	if styles := src.Params["STYLES"]; styles != "" {
		w.params["STYLES"] = styles
	}
	if t := src.Params["TRANSPARENT"]; t != "" {
		w.params["TRANSPARENT"] = t
	}
	return w
}

// requestParams returns the request parameters. LAYERS is blanked while the
// layer is hidden so the engine issues no requests for it.
func (w wms) requestParams(visible bool) map[string]string {
	p := make(map[string]string, len(w.params)+1)
	for k, v := range w.params {
		p[k] = v
	}
	p["LAYERS"] = ""
	if visible {
		p["LAYERS"] = w.layers
	}
	return p
}

func (w wms) visibilityChanged(h render.Handle, visible bool) {
	if pu, ok := h.(render.ParamUpdater); ok {
		lp := ""
		if visible {
			lp = w.layers
		}
		pu.UpdateParams(map[string]string{"LAYERS": lp})
	}
}

// LegendURL builds a WMS GetLegendGraphic request. It reports false when
// the legend is switched off, is a link or text legend, or no URL is known.
func (w wms) LegendURL(legend *Legend) (string, bool) {
	var cfg LegendConfig
	if legend != nil {
		if !legend.Enabled {
			return "", false
		}
		if legend.Config != nil {
			cfg = *legend.Config
		}
	}
	if cfg.Type == "link" || cfg.Type == "text" {
		return "", false
	}
	if w.url == "" {
		return "", false
	}

	q := url.Values{}
	q.Set("SERVICE", "WMS")
	q.Set("VERSION", orDefault(cfg.Version, "1.3.0"))
	q.Set("SLD_VERSION", orDefault(cfg.SLDVersion, "1.1.0"))
	q.Set("REQUEST", "GetLegendGraphic")
	q.Set("FORMAT", orDefault(cfg.Format, "image/png"))
	q.Set("LAYER", w.layers)

	u := w.url
	switch {
	case !strings.Contains(u, "?"):
		u += "?"
	case !strings.HasSuffix(u, "&") && !strings.HasSuffix(u, "?"):
		u += "&"
	}
	return u + q.Encode(), true
}

// TiledWMS is a WMS source requested in tiles.
type TiledWMS struct{ wms }

func newTiledWMS(cfg LayerConfig) (Source, error) {
	return &TiledWMS{newWMS(cfg)}, nil
}

func (s *TiledWMS) Kind() Kind { return KindTiledWMS }

func (s *TiledWMS) spec(l *Layer) render.Spec {
	return render.Spec{
		Name:   l.name,
		Kind:   string(KindTiledWMS),
		URL:    s.url,
		Params: s.requestParams(l.visible),
		Format: s.format,
		Tiled:  true,
	}
}

// SingleTileWMS is a WMS source requested as one image per view.
type SingleTileWMS struct {
	wms
	projection string
}

func newSingleTileWMS(cfg LayerConfig) (Source, error) {
	return &SingleTileWMS{wms: newWMS(cfg), projection: cfg.source().Projection}, nil
}

func (s *SingleTileWMS) Kind() Kind { return KindWMS }

func (s *SingleTileWMS) spec(l *Layer) render.Spec {
	return render.Spec{
		Name:       l.name,
		Kind:       string(KindWMS),
		URL:        s.url,
		Params:     s.requestParams(l.visible),
		Projection: s.projection,
		Format:     s.format,
	}
}

// WMTS is a REST-encoded WMTS source on a fixed tile grid.
type WMTS struct {
	url        string
	layer      string
	format     string
	projection string
	grid       render.TileGrid
}

const defaultWMTSLevels = 22

func newWMTS(cfg LayerConfig) (Source, error) {
	src := cfg.source()
	s := &WMTS{
		url:        src.URL,
		layer:      orDefault(src.Layer, cfg.Name),
		format:     orDefault(src.Format, "image/png"),
		projection: orDefault(src.Projection, DefaultProjection),
	}

	extent, err := wmtsExtent(src.Extent, s.projection)
	if err != nil {
		return nil, fmt.Errorf("wmts layer %q: %w", cfg.Name, err)
	}

	levels := src.Levels
	if levels <= 0 {
		levels = defaultWMTSLevels
	}
	tileSize := 256
	if len(src.TileSize) > 0 && src.TileSize[0] > 0 {
		tileSize = src.TileSize[0]
	}

	s.grid = render.TileGrid{
		Origin:      orb.Point{extent.Min.X(), extent.Max.Y()},
		Extent:      extent,
		Resolutions: Resolutions(extent, tileSize, levels),
		MatrixIDs:   matrixIDs(levels),
		TileSize:    tileSize,
		MatrixSet:   orDefault(src.MatrixSet, s.projection),
	}
	return s, nil
}

func wmtsExtent(raw []float64, projection string) (orb.Bound, error) {
	if len(raw) == 4 {
		b := orb.Bound{Min: orb.Point{raw[0], raw[1]}, Max: orb.Point{raw[2], raw[3]}}
		if b.Max.X() <= b.Min.X() || b.Max.Y() <= b.Min.Y() {
			return orb.Bound{}, errors.New("extent must be minx, miny, maxx, maxy")
		}
		return b, nil
	}
	if len(raw) != 0 {
		return orb.Bound{}, fmt.Errorf("extent needs 4 values, got %d", len(raw))
	}
	b, ok := projectionExtents[projection]
	if !ok {
		return orb.Bound{}, fmt.Errorf("no extent defined and projection %s is unknown", projection)
	}
	return b, nil
}

// Resolutions returns the resolution of each zoom level of a square tile
// grid covering extent, halving per level.
func Resolutions(extent orb.Bound, tileSize, levels int) []float64 {
	maxRes := (extent.Max.X() - extent.Min.X()) / float64(tileSize)
	res := make([]float64, levels)
	for z := range levels {
		res[z] = maxRes / math.Pow(2, float64(z))
	}
	return res
}

func matrixIDs(levels int) []string {
	ids := make([]string, levels)
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}
	return ids
}

// URLTemplate returns the REST tile URL template.
func (s *WMTS) URLTemplate() string {
	ext := "png"
	if _, sub, ok := strings.Cut(s.format, "/"); ok && sub != "" {
		ext = sub
	}
	return s.url + s.layer + "/{TileMatrixSet}/{TileMatrix}/{TileCol}/{TileRow}." + ext
}

// Grid returns the tile grid.
func (s *WMTS) Grid() render.TileGrid { return s.grid }

func (s *WMTS) Kind() Kind { return KindWMTS }

func (s *WMTS) spec(l *Layer) render.Spec {
	grid := s.grid
	return render.Spec{
		Name:       l.name,
		Kind:       string(KindWMTS),
		URL:        s.URLTemplate(),
		Projection: s.projection,
		Format:     s.format,
		Tiled:      true,
		Grid:       &grid,
	}
}

func (s *WMTS) visibilityChanged(render.Handle, bool) {}

// GeoJSON is a vector source loaded from a URL. Static, dynamic, PostGIS
// and digitize layers all use it.
type GeoJSON struct {
	kind           Kind
	url            string
	dataProjection string
}

func newGeoJSON(cfg LayerConfig) (Source, error) {
	src := cfg.source()
	return &GeoJSON{
		kind:           cfg.Type,
		url:            src.URL,
		dataProjection: orDefault(src.DataProjection, "EPSG:4326"),
	}, nil
}

func (s *GeoJSON) Kind() Kind { return s.kind }

func (s *GeoJSON) spec(l *Layer) render.Spec {
	return render.Spec{
		Name:       l.name,
		Kind:       string(s.kind),
		URL:        s.url,
		Projection: s.dataProjection,
		Format:     "application/geo+json",
	}
}

func (s *GeoJSON) visibilityChanged(render.Handle, bool) {}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
