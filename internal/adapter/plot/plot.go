// Package plot draws static previews of rendered scenes with gonum/plot.
// Longitude is the X axis and latitude the Y axis; no base map is drawn.
package plot

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/storm-track-map/internal/domain"
	"github.com/couchcryptid/storm-track-map/internal/render"
)

// Default preview size.
const (
	Width  = 12 * vg.Inch
	Height = 6 * vg.Inch
)

// framePadding is the margin in degrees around a detailed view's bounds.
const framePadding = 2.0

// Draw builds a plot of the scene: one line per polyline, and in detailed mode
// the intensity markers with their overlay dots on top.
func Draw(scene *render.Scene, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.Add(plotter.NewGrid())
	frame(p, scene.Bounds)

	for _, g := range scene.Groups {
		for i, pl := range g.Polylines {
			line, err := plotter.NewLine(xys(pl.Points))
			if err != nil {
				return nil, fmt.Errorf("storm %s line: %w", g.StormID, err)
			}
			line.Color = parseColor(pl.Color, pl.Opacity)
			line.Width = vg.Points(float64(pl.Weight))
			p.Add(line)
			if i == 0 && scene.Mode == render.ModeOverview {
				p.Legend.Add(g.Name, line)
			}
		}
	}

	if err := addMarkers(p, scene.Markers, render.MarkerIntensity); err != nil {
		return nil, err
	}
	if err := addMarkers(p, scene.Markers, render.MarkerOverlay); err != nil {
		return nil, err
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// Encode draws the scene and writes it in format ("png" or "svg").
func Encode(w io.Writer, scene *render.Scene, title, format string) error {
	p, err := Draw(scene, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return fmt.Errorf("create %s writer: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

// Save draws the scene to file; the format follows the extension.
func Save(scene *render.Scene, title, file string) error {
	p, err := Draw(scene, title)
	if err != nil {
		return err
	}
	if err := p.Save(Width, Height, file); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

func addMarkers(p *plot.Plot, markers []render.Marker, kind render.MarkerKind) error {
	var selected []render.Marker
	for _, m := range markers {
		if m.Kind == kind {
			selected = append(selected, m)
		}
	}
	if len(selected) == 0 {
		return nil
	}

	pts := make(plotter.XYs, len(selected))
	for i, m := range selected {
		pts[i] = plotter.XY{X: m.Center.Lon, Y: m.Center.Lat}
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("%s markers: %w", kind, err)
	}
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		m := selected[i]
		return draw.GlyphStyle{
			Color:  parseColor(m.FillColor, m.FillOpacity),
			Radius: vg.Points(m.Radius),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(s)
	return nil
}

// frame fixes the axes to the whole world, or to padded bounds when present.
func frame(p *plot.Plot, b *domain.BoundingBox) {
	if b == nil {
		p.X.Min, p.X.Max = -180, 180
		p.Y.Min, p.Y.Max = -90, 90
		return
	}
	p.X.Min = max(b.MinLon-framePadding, -180)
	p.X.Max = min(b.MaxLon+framePadding, 180)
	p.Y.Min = max(b.MinLat-framePadding, -90)
	p.Y.Max = min(b.MaxLat+framePadding, 90)
}

func xys(points []domain.Point) plotter.XYs {
	out := make(plotter.XYs, len(points))
	for i, pt := range points {
		out[i] = plotter.XY{X: pt.Lon, Y: pt.Lat}
	}
	return out
}

// parseColor reads "#RRGGBB" and applies opacity as alpha. Malformed input is drawn black.
func parseColor(hex string, opacity float64) color.NRGBA {
	c := color.NRGBA{A: uint8(math.Round(min(max(opacity, 0), 1) * 255))}
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return c
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return c
	}
	c.R = uint8(v >> 16)
	c.G = uint8(v >> 8)
	c.B = uint8(v)
	return c
}
