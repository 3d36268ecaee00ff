package render

import (
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-track-map/internal/domain"
	"github.com/couchcryptid/storm-track-map/internal/observability"
)

// Renderer turns a storm batch and a View into a Scene. It holds no state of
// its own and is safe for concurrent use.
type Renderer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRenderer creates a Renderer with the given observability.
func NewRenderer(logger *slog.Logger, metrics *observability.Metrics) *Renderer {
	return &Renderer{logger: logger, metrics: metrics}
}

// Render builds the scene for view. A detailed view whose storm is not in the
// batch degrades to the overview.
func (r *Renderer) Render(storms []domain.StormTrack, view View) *Scene {
	start := time.Now()

	var scene *Scene
	if id, ok := view.Selected(); ok {
		if idx, found := findStorm(storms, id); found {
			scene = r.detailed(&storms[idx], id)
		} else {
			r.logger.Warn("selected storm not in batch, showing overview", "storm_id", id, "storms", len(storms))
		}
	}
	if scene == nil {
		scene = r.overview(storms)
		r.metrics.StormsRendered.Set(float64(len(scene.Groups)))
	}

	scene.RenderedAt = domain.Now()
	r.metrics.RenderDuration.WithLabelValues(string(scene.Mode)).Observe(time.Since(start).Seconds())
	return scene
}

func (r *Renderer) overview(storms []domain.StormTrack) *Scene {
	scene := &Scene{
		Mode:   ModeOverview,
		Groups: make([]StyleGroup, 0, len(storms)),
	}

	for i := range storms {
		s := &storms[i]
		id := s.Key(i)
		style := domain.StyleFromWind(s.WindSeries())
		segments := domain.SegmentTrack(s.Lat, s.Lon)
		if len(segments) == 0 {
			r.logger.Debug("storm has no track points", "storm_id", id)
		}

		scene.Groups = append(scene.Groups, StyleGroup{
			StormID:   id,
			Name:      s.DisplayName(),
			Style:     style,
			Polylines: polylines(id, segments, style, OverviewWeight, s.Summary()),
		})
	}
	return scene
}

func (r *Renderer) detailed(s *domain.StormTrack, id string) *Scene {
	style := domain.Style{Color: NeutralColor, Opacity: NeutralOpacity}
	segments := domain.SegmentTrack(s.Lat, s.Lon)

	scene := &Scene{
		Mode:       ModeDetailed,
		SelectedID: id,
		Groups: []StyleGroup{{
			StormID:   id,
			Name:      s.DisplayName(),
			Style:     style,
			Polylines: polylines(id, segments, style, DetailedWeight, s.Summary()),
		}},
		Bounds: domain.Bounds(s.Lat, s.Lon),
	}

	points := domain.ProjectPoints(s.Lat, s.Lon)
	scene.Markers = make([]Marker, 0, 2*len(points))
	for i, p := range points {
		wind, _ := s.WindAt(i) // missing wind reads as 0, the smallest marker
		popup := s.ObservationPopup(i)
		scene.Markers = append(scene.Markers,
			Marker{
				Kind:        MarkerIntensity,
				StormID:     id,
				Observation: i,
				Center:      p,
				Radius:      domain.RadiusFromWind(wind),
				FillColor:   domain.IntensityColor,
				FillOpacity: MarkerFillOpacity,
				Popup:       popup,
			},
			Marker{
				Kind:        MarkerOverlay,
				StormID:     id,
				Observation: i,
				Center:      p,
				Radius:      OverlayRadius,
				FillColor:   OverlayColor,
				FillOpacity: OverlayOpacity,
			},
		)
	}

	r.logger.Debug("rendered storm detail", "storm_id", id, "observations", len(points), "segments", len(segments))
	return scene
}

func polylines(stormID string, segments []domain.Segment, style domain.Style, weight int, popup string) []Polyline {
	out := make([]Polyline, 0, len(segments))
	for _, seg := range segments {
		out = append(out, Polyline{
			StormID: stormID,
			Points:  seg,
			Color:   style.Color,
			Opacity: style.Opacity,
			Weight:  weight,
			Popup:   popup,
		})
	}
	return out
}

// findStorm returns the batch index of the storm whose key is id.
func findStorm(storms []domain.StormTrack, id string) (int, bool) {
	for i := range storms {
		if storms[i].Key(i) == id {
			return i, true
		}
	}
	return 0, false
}
