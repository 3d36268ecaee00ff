package domain

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Overview styling. Intensity is encoded in opacity only; the hue never changes.
const (
	IntensityColor = "#FF0000"
	MinOpacity     = 0.3
	MaxOpacity     = 1.0

	// maxAverageWind is the mean wind (kt) that maps to MaxOpacity.
	maxAverageWind = 150.0
)

// Style is the stroke styling for a storm's overview polylines.
type Style struct {
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

// StyleFromWind derives the overview style from a storm's wind series. Null and
// NaN entries are ignored; with no usable values the floor opacity signals
// "no data". The mean wind is clamped into [0, 150] kt and mapped linearly onto
// [MinOpacity, MaxOpacity].
func StyleFromWind(wind []NullFloat) Style {
	valid := make([]float64, 0, len(wind))
	for _, w := range wind {
		if v, ok := w.Float(); ok {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return Style{Color: IntensityColor, Opacity: MinOpacity}
	}

	mean := clamp(stat.Mean(valid, nil), 0, maxAverageWind)
	return Style{
		Color:   IntensityColor,
		Opacity: MinOpacity + (mean/maxAverageWind)*(MaxOpacity-MinOpacity),
	}
}

// RadiusFromWind maps an observation's wind speed (kt) to a marker radius in
// pixels, piecewise-linear over four bands:
//
//	[0, 20]    3–8
//	(20, 50]   8–15
//	(50, 100]  15–25
//	(100, ∞)   25–40, capped at 40
//
// Negative or NaN wind is treated as 0.
func RadiusFromWind(wind float64) float64 {
	if math.IsNaN(wind) || wind < 0 {
		wind = 0
	}
	switch {
	case wind <= 20:
		return 3 + (wind/20)*5
	case wind <= 50:
		return 8 + ((wind-20)/30)*7
	case wind <= 100:
		return 15 + ((wind-50)/50)*10
	default:
		return 25 + math.Min(((wind-100)/50)*15, 15)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
