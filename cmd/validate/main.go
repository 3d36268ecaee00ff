// Command validate checks a storm-month JSON fixture against the invariants the
// map core relies on: aligned series, complete segment coverage, bounds that
// contain every drawn point, and style values within their documented ranges.
// It then renders the batch in both modes and checks the scene shape.
//
// Usage:
//
//	go run ./cmd/validate -storms data/mock/storms_2025_08.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-track-map/internal/domain"
	"github.com/couchcryptid/storm-track-map/internal/observability"
	"github.com/couchcryptid/storm-track-map/internal/render"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	stormsJSON := flag.String("storms", "", "path to a storms JSON fixture ({\"storms\": [...]})")
	flag.Parse()

	if *stormsJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*stormsJSON); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	// Fixed clock so rendered scenes are reproducible between runs.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Storm Track Fixture Validation ===")
	fmt.Println()

	storms, err := loadStorms(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load storms: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateAlignment(storms),
		validateSegments(storms),
		validateBounds(storms),
		validateStyles(storms),
		validateScenes(storms),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Storms: %d, observations: %d\n", len(storms), countObservations(storms))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadStorms(path string) ([]domain.StormTrack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c domain.StormCollection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c.Storms, nil
}

// ── Phase 1: series alignment ──

func validateAlignment(storms []domain.StormTrack) *phase {
	p := &phase{name: "Phase 1: Series alignment"}
	fmt.Println("Phase 1: Checking that per-observation series line up...")

	seen := make(map[string]int, len(storms))
	for i := range storms {
		s := &storms[i]
		label := s.Key(i)
		pf := func(format string, args ...any) {
			p.errorf("storm %s: "+format, append([]any{label}, args...)...)
		}

		if strings.TrimSpace(s.ID) == "" {
			pf("missing ID")
		} else if prev, dup := seen[strings.ToUpper(s.ID)]; dup {
			pf("duplicate ID (also storm #%d)", prev)
		} else {
			seen[strings.ToUpper(s.ID)] = i
		}

		n := len(s.Lat)
		if len(s.Lon) != n {
			pf("lat has %d values, lon has %d", n, len(s.Lon))
		}
		checkLen(pf, "wind", len(s.Wind), n)
		checkLen(pf, "mslp", len(s.MSLP), n)
		checkLen(pf, "speed", len(s.Speed), n)
		checkLen(pf, "rmw", len(s.RMW), n)
		checkLen(pf, "classification", len(s.Classification), n)
		checkLen(pf, "time", len(s.Time), n)

		for j := range s.Len() {
			if math.IsNaN(s.Lat[j]) || s.Lat[j] < -90 || s.Lat[j] > 90 {
				pf("lat[%d] = %g out of range", j, s.Lat[j])
			}
			if math.IsNaN(s.Lon[j]) || s.Lon[j] < -180 || s.Lon[j] > 360 {
				pf("lon[%d] = %g out of range", j, s.Lon[j])
			}
		}

		for j := 1; j < len(s.Time); j++ {
			prev, cur := s.Time[j-1].Time, s.Time[j].Time
			if !prev.IsZero() && !cur.IsZero() && cur.Before(prev) {
				pf("time[%d] %s precedes time[%d] %s", j, cur.Format(time.RFC3339), j-1, prev.Format(time.RFC3339))
			}
		}
	}

	return p
}

// checkLen accepts an absent series or one matching the coordinate count.
func checkLen(pf func(string, ...any), name string, got, want int) {
	if got != 0 && got != want {
		pf("%s has %d values, expected %d", name, got, want)
	}
}

// ── Phase 2: segment coverage ──

func validateSegments(storms []domain.StormTrack) *phase {
	p := &phase{name: "Phase 2: Segment coverage"}
	fmt.Println("Phase 2: Checking date-line segmentation...")

	for i := range storms {
		s := &storms[i]
		label := s.Key(i)
		segments := domain.SegmentTrack(s.Lat, s.Lon)

		if got, want := domain.PointCount(segments), s.Len(); got != want {
			p.errorf("storm %s: segments cover %d points, track has %d", label, got, want)
		}

		projected := domain.ProjectPoints(s.Lat, s.Lon)
		k := 0
		for si, seg := range segments {
			if len(seg) == 0 {
				p.errorf("storm %s: segment %d is empty", label, si)
				continue
			}
			for j, pt := range seg {
				if k < len(projected) && pt != projected[k] {
					p.errorf("storm %s: segment %d point %d out of order", label, si, j)
				}
				k++
				if pt.Lon < -180 || pt.Lon > 180 {
					p.errorf("storm %s: segment %d point %d lon %g not projected", label, si, j, pt.Lon)
				}
				if j > 0 && math.Abs(pt.Lon-seg[j-1].Lon) > 180 {
					p.errorf("storm %s: segment %d jumps %g° between points %d and %d",
						label, si, math.Abs(pt.Lon-seg[j-1].Lon), j-1, j)
				}
			}
		}
	}

	return p
}

// ── Phase 3: bounds containment ──

func validateBounds(storms []domain.StormTrack) *phase {
	p := &phase{name: "Phase 3: Bounds containment"}
	fmt.Println("Phase 3: Checking bounding boxes...")

	for i := range storms {
		s := &storms[i]
		label := s.Key(i)
		b := domain.Bounds(s.Lat, s.Lon)

		if s.Len() == 0 {
			if b != nil {
				p.errorf("storm %s: empty track has bounds %+v", label, *b)
			}
			continue
		}
		if b == nil {
			p.errorf("storm %s: %d points but no bounds", label, s.Len())
			continue
		}
		if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
			p.errorf("storm %s: inverted bounds %+v", label, *b)
		}
		for j, pt := range domain.ProjectPoints(s.Lat, s.Lon) {
			if !b.Contains(pt) {
				p.errorf("storm %s: point %d (%g, %g) outside bounds", label, j, pt.Lat, pt.Lon)
			}
		}
	}

	return p
}

// ── Phase 4: style ranges ──

func validateStyles(storms []domain.StormTrack) *phase {
	p := &phase{name: "Phase 4: Style ranges"}
	fmt.Println("Phase 4: Checking intensity styling...")

	for i := range storms {
		s := &storms[i]
		label := s.Key(i)

		style := domain.StyleFromWind(s.WindSeries())
		if style.Color != domain.IntensityColor {
			p.errorf("storm %s: color %s, expected %s", label, style.Color, domain.IntensityColor)
		}
		if style.Opacity < domain.MinOpacity || style.Opacity > domain.MaxOpacity {
			p.errorf("storm %s: opacity %g outside [%g, %g]", label, style.Opacity, domain.MinOpacity, domain.MaxOpacity)
		}

		for j := range s.Len() {
			wind, _ := s.WindAt(j)
			if r := domain.RadiusFromWind(wind); r < 3 || r > 40 {
				p.errorf("storm %s: observation %d radius %g outside [3, 40]", label, j, r)
			}
		}
	}

	return p
}

// ── Phase 5: rendered scenes ──

func validateScenes(storms []domain.StormTrack) *phase {
	p := &phase{name: "Phase 5: Rendered scenes"}
	fmt.Println("Phase 5: Rendering overview and detailed scenes...")

	renderer := render.NewRenderer(slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetrics())

	overview := renderer.Render(storms, render.Overview())
	if len(overview.Groups) != len(storms) {
		p.errorf("overview: %d groups for %d storms", len(overview.Groups), len(storms))
	}
	if overview.Bounds != nil {
		p.errorf("overview: bounds set")
	}

	for i := range storms {
		s := &storms[i]
		id := s.Key(i)
		if s.Len() == 0 {
			continue
		}

		scene := renderer.Render(storms, render.Detailed(id))
		if scene.Mode != render.ModeDetailed {
			p.errorf("storm %s: detailed view fell back to %s", id, scene.Mode)
			continue
		}
		if len(scene.Groups) != 1 || scene.Groups[0].StormID != id {
			p.errorf("storm %s: detailed scene has %d groups", id, len(scene.Groups))
		}
		if got, want := len(scene.Markers), 2*s.Len(); got != want {
			p.errorf("storm %s: %d markers, expected %d", id, got, want)
		}
		for _, g := range scene.Groups {
			for _, pl := range g.Polylines {
				if pl.Color != render.NeutralColor || pl.Weight != render.DetailedWeight {
					p.errorf("storm %s: detailed polyline styled %s/%d", id, pl.Color, pl.Weight)
				}
			}
		}
	}

	return p
}

func countObservations(storms []domain.StormTrack) int {
	n := 0
	for i := range storms {
		n += storms[i].Len()
	}
	return n
}
