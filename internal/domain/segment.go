package domain

import "math"

// antimeridianJump is the projected longitude delta above which two
// consecutive fixes are assumed to straddle the date line.
const antimeridianJump = 180.0

// Segment is one visually contiguous polyline of a track.
type Segment []Point

// SegmentTrack splits a track into polylines wherever it crosses the ±180°
// anti-meridian. Each returned segment is non-empty, segments keep the input
// order, and their concatenation is exactly the projected input. Mismatched
// lat/lon lengths are truncated to the shorter one.
func SegmentTrack(lat, lon []float64) []Segment {
	points := ProjectPoints(lat, lon)
	if len(points) == 0 {
		return nil
	}

	var segments []Segment
	var current Segment

	for _, p := range points {
		if len(current) == 0 {
			current = append(current, p)
			continue
		}

		last := current[len(current)-1]
		if math.Abs(p.Lon-last.Lon) > antimeridianJump {
			segments = append(segments, current)
			current = Segment{p}
			continue
		}
		current = append(current, p)
	}

	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}

// PointCount returns the total number of points across segments.
func PointCount(segments []Segment) int {
	n := 0
	for _, s := range segments {
		n += len(s)
	}
	return n
}
