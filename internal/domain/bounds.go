package domain

import "gonum.org/v1/gonum/floats"

// BoundingBox is the coordinate-wise extent of a track in projected degrees.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether p lies inside the box, edges included.
func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Bounds returns the box around a track's projected points, or nil when either
// series is empty. The box is not adjusted for the anti-meridian, so a track
// crossing the date line spans nearly the full longitude range.
func Bounds(lat, lon []float64) *BoundingBox {
	n := min(len(lat), len(lon))
	if n == 0 {
		return nil
	}

	projected := make([]float64, n)
	for i := range n {
		projected[i] = ProjectLon(lon[i])
	}
	lats := lat[:n]

	return &BoundingBox{
		MinLat: floats.Min(lats),
		MinLon: floats.Min(projected),
		MaxLat: floats.Max(lats),
		MaxLon: floats.Max(projected),
	}
}
