// Package urlstate encodes layer store state into URL query parameters and
// applies such parameters back onto a store.
//
// Two layers formats exist. The flat format lists layer names with an
// optional opacity percentage:
//
//	layers=osm,roads,parks:80&groups=traffic,nature
//
// The compact format names the background and gives every overlay group a
// positional state list, one entry per member layer:
//
//	layers=osm,traffic(1,0),nature(1:80,0,0)
//
// A parameter containing a parenthesis is read as compact.
package urlstate

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-viewer/internal/layer"
	"github.com/joeblew999/plat-viewer/internal/store"
)

// Query parameter names.
const (
	ParamLayers = "layers"
	ParamGroups = "groups"
	ParamMap    = "map"
)

// Mode selects what Encode writes.
type Mode string

const (
	// ModeXYZ writes the view only.
	ModeXYZ Mode = "xyz"
	// ModeMap writes the view and the flat layers and groups parameters.
	ModeMap Mode = "map"
	// ModeFull writes the view and the compact layers parameter.
	ModeFull Mode = "full"
)

// Modes lists the valid sync modes.
var Modes = []Mode{ModeXYZ, ModeMap, ModeFull}

// ParseMode validates a sync mode name. Empty selects ModeFull.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeFull, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown url sync mode %q", s)
}

// Codec reads and writes URL state. Stale names in a URL are logged and
// skipped; decoding never fails.
type Codec struct {
	log logrus.FieldLogger
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger for skipped URL entries.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Codec) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a codec.
func New(opts ...Option) *Codec {
	c := &Codec{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode writes the store state and view for mode. view may be nil.
func (c *Codec) Encode(s *store.Store, view *MapState, mode Mode) url.Values {
	v := url.Values{}
	if view != nil {
		v.Set(ParamMap, view.String())
	}
	switch mode {
	case ModeMap:
		layers, groups := c.EncodeFlat(s)
		if layers != "" {
			v.Set(ParamLayers, layers)
		}
		if groups != "" {
			v.Set(ParamGroups, groups)
		}
	case ModeFull:
		if layers := c.EncodeCompact(s); layers != "" {
			v.Set(ParamLayers, layers)
		}
	}
	return v
}

// EncodeFlat returns the flat layers parameter and the group order.
func (c *Codec) EncodeFlat(s *store.Store) (layers, groups string) {
	var entries []string
	if bg := s.ActiveBackground(); bg != nil {
		entries = append(entries, bg.Name())
	}
	for _, l := range s.GetVisibleOverlayLayers() {
		entries = append(entries, l.Name()+opacitySuffix(l.Opacity()))
	}
	names := make([]string, 0, len(s.Groups()))
	for _, g := range s.Groups() {
		names = append(names, g.Name())
	}
	return strings.Join(entries, ","), strings.Join(names, ",")
}

// EncodeCompact returns the compact layers parameter.
func (c *Codec) EncodeCompact(s *store.Store) string {
	var tokens []string
	if bg := s.ActiveBackground(); bg != nil {
		tokens = append(tokens, bg.Name())
	}
	for _, g := range s.Groups() {
		states := make([]string, 0, g.Len())
		for _, l := range g.Layers() {
			state := "0"
			if l.Visible() {
				state = "1"
			}
			states = append(states, state+opacitySuffix(l.Opacity()))
		}
		tokens = append(tokens, Token{Name: g.Name(), Content: strings.Join(states, ","), Grouped: true}.String())
	}
	return strings.Join(tokens, ",")
}

// Apply applies the groups and layers parameters to s and returns the
// parsed map parameter, which is left for the caller to apply.
func (c *Codec) Apply(values url.Values, s *store.Store) *MapState {
	var view *MapState
	if raw := values.Get(ParamMap); raw != "" {
		if m, ok := ParseMap(raw); ok {
			view = &m
		} else {
			c.log.WithField("map", raw).Warn("ignoring malformed map parameter")
		}
	}

	groups := splitList(values.Get(ParamGroups))
	layers := values.Get(ParamLayers)
	s.Batch(func() {
		if len(groups) > 0 {
			s.ReorderGroups(groups)
		}
		switch {
		case strings.TrimSpace(layers) == "":
		case strings.ContainsAny(layers, "()"):
			c.applyCompact(s, layers)
		default:
			c.applyFlat(s, layers, len(groups) > 0)
		}
	})
	return view
}

// ApplyLayers applies a layers parameter on its own.
func (c *Codec) ApplyLayers(s *store.Store, layers string) {
	c.Apply(url.Values{ParamLayers: {layers}}, s)
}

func (c *Codec) applyFlat(s *store.Store, raw string, explicitOrder bool) {
	entries := splitList(raw)
	if len(entries) == 0 {
		return
	}

	if first, ok := s.GetLayerByName(entryName(entries[0])); ok && first.IsBackground() {
		s.SetActiveBackground(first)
	}
	for _, l := range s.GetAllLayers() {
		if !l.IsBackground() {
			s.SetLayerVisibility(l.Name(), false)
		}
	}

	var order []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		name, pct := parseEntry(entry)
		l, ok := s.GetLayerByName(name)
		if !ok {
			c.log.WithField("layer", name).Warn("unknown layer in url")
			continue
		}
		if l.IsBackground() {
			continue
		}
		s.SetLayerVisibility(name, true)
		s.SetLayerOpacity(name, float64(pct)/100)

		if g, ok := s.GetGroupByLayerName(name); ok && !seen[g.Name()] {
			seen[g.Name()] = true
			order = append(order, g.Name())
		}
	}
	if !explicitOrder && len(order) > 0 {
		s.ReorderGroups(order)
	}
}

func (c *Codec) applyCompact(s *store.Store, raw string) {
	listed := make(map[string]bool)
	var order []string

	for _, tok := range Tokenize(raw) {
		if !tok.Grouped {
			l, ok := s.GetLayerByName(tok.Name)
			switch {
			case !ok:
				c.log.WithField("layer", tok.Name).Warn("unknown background in url")
			case !l.IsBackground():
				c.log.WithField("layer", tok.Name).Warn("plain entry is not a background layer")
			default:
				s.SetActiveBackground(l)
			}
			continue
		}

		g, ok := s.GetGroupByName(tok.Name)
		if !ok {
			c.log.WithField("group", tok.Name).Warn("unknown group in url")
			continue
		}
		if listed[g.Name()] {
			continue
		}
		listed[g.Name()] = true
		order = append(order, g.Name())
		c.applyGroupStates(s, g, tok.Content)
	}

	for _, g := range s.Groups() {
		if !listed[g.Name()] {
			s.SetGroupVisibility(g.Name(), false)
		}
	}
	if len(order) > 0 {
		s.ReorderGroups(order)
	}
}

// applyGroupStates maps the i-th entry to the i-th member layer. Members
// without an entry are hidden.
func (c *Codec) applyGroupStates(s *store.Store, g *layer.Group, content string) {
	var entries []string
	if strings.TrimSpace(content) != "" {
		entries = strings.Split(content, ",")
	}
	for i, entry := range entries {
		l, ok := g.LayerAt(i)
		if !ok {
			c.log.WithFields(logrus.Fields{"group": g.Name(), "index": i}).Warn("state index beyond group members")
			continue
		}
		state, pct := parseEntry(entry)
		s.SetLayerVisibility(l.Name(), state == "1")
		s.SetLayerOpacity(l.Name(), float64(pct)/100)
	}
	for i := len(entries); i < g.Len(); i++ {
		l, _ := g.LayerAt(i)
		s.SetLayerVisibility(l.Name(), false)
	}
}

// parseEntry splits "value" or "value:percent". A missing or malformed
// percentage is 100.
func parseEntry(entry string) (string, int) {
	name, pct, found := strings.Cut(strings.TrimSpace(entry), ":")
	if !found {
		return name, 100
	}
	return name, parsePercent(pct)
}

func entryName(entry string) string {
	name, _ := parseEntry(entry)
	return name
}

// percentLimit bounds parsed percentages so that out-of-range input still
// converts to an int and clamps to a full or empty opacity.
const percentLimit = 1000

func parsePercent(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return max(min(n, percentLimit), -percentLimit)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		return int(math.Trunc(max(min(f, percentLimit), -percentLimit)))
	}
	return 100
}

func opacitySuffix(opacity float64) string {
	pct := int(math.Round(opacity * 100))
	if pct == 100 {
		return ""
	}
	return ":" + strconv.Itoa(pct)
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// QueryString encodes values like url.Values.Encode but keeps the
// separators of the layers formats readable.
func QueryString(values url.Values) string {
	return readable.Replace(values.Encode())
}

var readable = strings.NewReplacer("%2C", ",", "%28", "(", "%29", ")", "%3A", ":")
