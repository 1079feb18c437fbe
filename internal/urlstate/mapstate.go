package urlstate

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// MapState is the view encoded in the map parameter.
type MapState struct {
	Zoom   float64   `json:"zoom" doc:"Zoom level"`
	Center orb.Point `json:"center" doc:"View center in map coordinates (x, y)"`
}

// ParseMap parses "zoom,x,y". Extra values are ignored; anything that is
// not three numbers yields false.
func ParseMap(raw string) (MapState, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) < 3 {
		return MapState{}, false
	}
	var v [3]float64
	for i := range v {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return MapState{}, false
		}
		v[i] = f
	}
	return MapState{Zoom: v[0], Center: orb.Point{v[1], v[2]}}, true
}

// String encodes the view as "zoom,x,y" with at most two decimals.
func (m MapState) String() string {
	return formatNumber(m.Zoom) + "," + formatNumber(m.Center.X()) + "," + formatNumber(m.Center.Y())
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
