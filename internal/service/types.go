// Package service runs viewer sessions: one layer store per session,
// serialised behind a mutex, with store changes published on an EventBus.
package service

import (
	"time"

	"github.com/joeblew999/plat-viewer/internal/store"
	"github.com/joeblew999/plat-viewer/internal/urlstate"
)

// SessionInfo describes a session and its current state.
type SessionInfo struct {
	ID      string         `json:"id" doc:"Session identifier" example:"3f0c1a52-6b55-4d4e-9d9a-6a3f0d3b2e11"`
	Created time.Time      `json:"created" doc:"Creation time"`
	View    *ViewState     `json:"view,omitempty" doc:"Current map view"`
	State   store.Snapshot `json:"state" doc:"Layer store state"`
}

// ViewState is the serialisable map view.
type ViewState struct {
	Zoom float64 `json:"zoom" doc:"Zoom level" example:"10"`
	X    float64 `json:"x" doc:"Center x in the map projection" example:"467000"`
	Y    float64 `json:"y" doc:"Center y in the map projection" example:"5763000"`
	Map  string  `json:"map" doc:"Encoded map parameter" example:"10,467000,5763000"`
}

func viewState(m *urlstate.MapState) *ViewState {
	if m == nil {
		return nil
	}
	return &ViewState{
		Zoom: m.Zoom,
		X:    m.Center.X(),
		Y:    m.Center.Y(),
		Map:  m.String(),
	}
}

// LayerPatch changes the display state of one overlay layer. Nil fields
// are left alone.
type LayerPatch struct {
	Visible *bool    `json:"visible,omitempty" doc:"Show or hide the layer"`
	Opacity *float64 `json:"opacity,omitempty" minimum:"0" maximum:"1" doc:"Layer opacity (0-1)"`
}
