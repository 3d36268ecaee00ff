package domain

// Point is a map position with the longitude already projected into [-180, 180].
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ProjectLon maps a 0–360° longitude into the [-180, 180] range used by map
// libraries. Values up to and including 180 are returned unchanged.
func ProjectLon(lon float64) float64 {
	if lon > 180 {
		return lon - 360
	}
	return lon
}

// ProjectPoints pairs lat with projected lon, up to the shorter of the two slices.
func ProjectPoints(lat, lon []float64) []Point {
	n := min(len(lat), len(lon))
	if n == 0 {
		return nil
	}
	pts := make([]Point, n)
	for i := range n {
		pts[i] = Point{Lat: lat[i], Lon: ProjectLon(lon[i])}
	}
	return pts
}
