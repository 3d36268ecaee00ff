// Package geojson encodes rendered scenes as GeoJSON feature collections.
// Styling follows the simplestyle property names (stroke, stroke-opacity,
// stroke-width, marker fill) so the output previews directly in common viewers.
package geojson

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/storm-track-map/internal/domain"
	"github.com/couchcryptid/storm-track-map/internal/render"
)

// FromScene converts a scene to a feature collection. Each style group becomes
// one line feature (a MultiLineString when the track crosses the date line) and
// each marker becomes a point feature, in scene order.
func FromScene(scene *render.Scene) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{
		"mode":        string(scene.Mode),
		"rendered_at": scene.RenderedAt.UTC().Format(time.RFC3339),
	}
	if scene.SelectedID != "" {
		fc.ExtraMembers["selected_id"] = scene.SelectedID
	}
	if scene.Bounds != nil {
		fc.BBox = geojson.NewBBox(bound(*scene.Bounds))
	}

	for _, g := range scene.Groups {
		if f := groupFeature(g); f != nil {
			fc.Append(f)
		}
	}
	for _, m := range scene.Markers {
		fc.Append(markerFeature(m))
	}
	return fc
}

// Marshal encodes the scene as GeoJSON.
func Marshal(scene *render.Scene) ([]byte, error) {
	return FromScene(scene).MarshalJSON()
}

func groupFeature(g render.StyleGroup) *geojson.Feature {
	lines := make(orb.MultiLineString, 0, len(g.Polylines))
	for _, p := range g.Polylines {
		lines = append(lines, lineString(p.Points))
	}

	var f *geojson.Feature
	switch len(lines) {
	case 0:
		return nil
	case 1:
		f = geojson.NewFeature(lines[0])
	default:
		f = geojson.NewFeature(lines)
	}

	f.ID = g.StormID
	f.Properties["storm_id"] = g.StormID
	f.Properties["name"] = g.Name
	f.Properties["stroke"] = g.Style.Color
	f.Properties["stroke-opacity"] = g.Style.Opacity
	f.Properties["stroke-width"] = g.Polylines[0].Weight
	f.Properties["popup"] = g.Polylines[0].Popup
	return f
}

func markerFeature(m render.Marker) *geojson.Feature {
	f := geojson.NewFeature(point(m.Center))
	f.Properties["storm_id"] = m.StormID
	f.Properties["kind"] = string(m.Kind)
	f.Properties["observation"] = m.Observation
	f.Properties["radius"] = m.Radius
	f.Properties["fill"] = m.FillColor
	f.Properties["fill-opacity"] = m.FillOpacity
	if m.Popup != "" {
		f.Properties["popup"] = m.Popup
	}
	return f
}

func lineString(points []domain.Point) orb.LineString {
	ls := make(orb.LineString, 0, len(points))
	for _, p := range points {
		ls = append(ls, point(p))
	}
	return ls
}

// point converts to GeoJSON axis order, longitude first.
func point(p domain.Point) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func bound(b domain.BoundingBox) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}
