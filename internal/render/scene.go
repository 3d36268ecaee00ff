package render

import (
	"time"

	"github.com/couchcryptid/storm-track-map/internal/domain"
)

// Stroke and marker styling that does not depend on intensity.
const (
	OverviewWeight = 3
	DetailedWeight = 2

	NeutralColor   = "#666666"
	NeutralOpacity = 0.6

	MarkerFillOpacity = 0.6

	OverlayRadius  = 2.0
	OverlayColor   = "#000000"
	OverlayOpacity = 1.0
)

// MarkerKind distinguishes intensity circles from the fixed-size position dots.
type MarkerKind string

const (
	MarkerIntensity MarkerKind = "intensity"
	MarkerOverlay   MarkerKind = "overlay"
)

// Scene is everything a map surface needs to draw one render pass.
type Scene struct {
	Mode       Mode                `json:"mode"`
	SelectedID string              `json:"selected_id,omitempty"`
	Groups     []StyleGroup        `json:"groups"`
	Markers    []Marker            `json:"markers,omitempty"`
	Bounds     *domain.BoundingBox `json:"bounds"`
	RenderedAt time.Time           `json:"rendered_at"`
}

// StyleGroup is one storm's polylines, all sharing a single style.
type StyleGroup struct {
	StormID   string       `json:"storm_id"`
	Name      string       `json:"name"`
	Style     domain.Style `json:"style"`
	Polylines []Polyline   `json:"polylines"`
}

// Polyline is one anti-meridian-safe segment of a track.
type Polyline struct {
	StormID string         `json:"storm_id"`
	Points  []domain.Point `json:"points"`
	Color   string         `json:"color"`
	Opacity float64        `json:"opacity"`
	Weight  int            `json:"weight"`
	Popup   string         `json:"popup"`
}

// Marker is a circle drawn at one observation.
type Marker struct {
	Kind        MarkerKind   `json:"kind"`
	StormID     string       `json:"storm_id"`
	Observation int          `json:"observation"`
	Center      domain.Point `json:"center"`
	Radius      float64      `json:"radius"`
	FillColor   string       `json:"fill_color"`
	FillOpacity float64      `json:"fill_opacity"`
	Popup       string       `json:"popup,omitempty"`
}

// PolylineCount returns the number of polylines across all groups.
func (s *Scene) PolylineCount() int {
	n := 0
	for _, g := range s.Groups {
		n += len(g.Polylines)
	}
	return n
}

// Group returns the style group for stormID.
func (s *Scene) Group(stormID string) (StyleGroup, bool) {
	for _, g := range s.Groups {
		if g.StormID == stormID {
			return g, true
		}
	}
	return StyleGroup{}, false
}
