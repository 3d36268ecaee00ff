// Command stormplot renders one month of storm tracks to a file. The output
// format follows the extension: .png or .svg for a static preview, .geojson
// for a feature collection, .json for the raw scene.
//
// Usage:
//
//	go run ./cmd/stormplot -month 2025-08 -out storms.png
//	go run ./cmd/stormplot -month 2025-08 -selected 2025223N16334 -out erin.geojson
//	go run ./cmd/stormplot -storms data/mock/storms_2025_08.json -out fixture.svg
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	geojsonadapter "github.com/couchcryptid/storm-track-map/internal/adapter/geojson"
	plotadapter "github.com/couchcryptid/storm-track-map/internal/adapter/plot"
	"github.com/couchcryptid/storm-track-map/internal/adapter/stormapi"
	"github.com/couchcryptid/storm-track-map/internal/config"
	"github.com/couchcryptid/storm-track-map/internal/domain"
	"github.com/couchcryptid/storm-track-map/internal/observability"
	"github.com/couchcryptid/storm-track-map/internal/render"
	"github.com/couchcryptid/storm-track-map/internal/session"
)

// fileSource serves a local fixture for any month.
type fileSource struct {
	path string
}

func (f fileSource) FetchMonth(context.Context, int, time.Month) ([]domain.StormTrack, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	var c domain.StormCollection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return c.Storms, nil
}

func main() {
	month := flag.String("month", "", "month to plot as YYYY-MM (default: current month)")
	selected := flag.String("selected", "", "storm ID to draw in detail")
	stormsJSON := flag.String("storms", "", "read storms from this JSON file instead of the storm API")
	out := flag.String("out", "", "output file (.png, .svg, .geojson, .json)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*month, *selected, *stormsJSON, *out); err != nil {
		fmt.Fprintf(os.Stderr, "stormplot: %v\n", err)
		os.Exit(1)
	}
}

func run(monthArg, selected, stormsJSON, out string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	m, err := session.ParseMonth(monthArg)
	if err != nil {
		return err
	}

	var source session.StormSource = fileSource{path: stormsJSON}
	if stormsJSON == "" {
		source = stormapi.NewClient(cfg.StormAPIURL, cfg.StormAPITimeout, metrics, logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StormAPITimeout+5*time.Second)
	defer cancel()

	snap, err := session.New(source, logger).Plot(ctx, m)
	if err != nil {
		return err
	}
	if snap.Status != session.StatusSuccess {
		return errors.New(snap.Message)
	}
	fmt.Println(snap.Message)

	scene := render.NewRenderer(logger, metrics).Render(snap.Storms, render.Detailed(selected))
	if err := write(scene, title(m, scene), out); err != nil {
		return err
	}
	logger.Info("scene written", "file", out, "mode", scene.Mode, "storms", len(scene.Groups), "markers", len(scene.Markers))
	return nil
}

func title(m session.Month, scene *render.Scene) string {
	if g, ok := scene.Group(scene.SelectedID); ok && scene.Mode == render.ModeDetailed {
		return fmt.Sprintf("%s (%s)", g.Name, m)
	}
	return "Storms " + m.String()
}

func write(scene *render.Scene, title, out string) error {
	switch ext := strings.ToLower(filepath.Ext(out)); ext {
	case ".png", ".svg":
		return plotadapter.Save(scene, title, out)
	case ".geojson":
		data, err := geojsonadapter.Marshal(scene)
		if err != nil {
			return fmt.Errorf("encode geojson: %w", err)
		}
		return os.WriteFile(out, data, 0o644)
	case ".json":
		data, err := json.MarshalIndent(scene, "", "  ")
		if err != nil {
			return fmt.Errorf("encode scene: %w", err)
		}
		return os.WriteFile(out, data, 0o644)
	default:
		return fmt.Errorf("unsupported output extension %q", ext)
	}
}
