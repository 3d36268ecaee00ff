// Command genmock generates the synthetic storm-month fixture used by the
// render, session, and HTTP test suites. Tracks are produced from a fixed table
// of storm definitions so the output is reproducible, and the summary printed
// at the end is computed with the same domain package the service uses.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/storms_2025_08.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/storm-track-map/internal/domain"
)

// fixInterval is the IBTrACS synoptic interval between observations.
const fixInterval = 6 * time.Hour

// stormDef describes one synthetic track. Longitudes use the 0-360 convention
// and wrap, so a westbound storm starting at 190 crosses the date line.
type stormDef struct {
	sid      string
	atcf     string
	name     string
	basin    string
	subbasin string
	genesis  time.Time

	lat0, lon0 float64
	dlat, dlon float64 // degrees per fix
	recurve    float64 // added to dlat per fix squared
	fixes      int
	peakWind   float64

	nullWindEvery int  // every nth wind value is null; 0 keeps all
	noWind        bool // whole wind series null
}

func genesis(day, hour int) time.Time {
	return time.Date(2025, time.August, day, hour, 0, 0, 0, time.UTC)
}

var defs = []stormDef{
	{sid: "2025213N33286", atcf: "AL042025", name: "DEXTER", basin: "NA", subbasin: "MM", genesis: genesis(3, 0),
		lat0: 33.5, lon0: 286.2, dlat: 0.6, dlon: 1.4, fixes: 20, peakWind: 45},
	{sid: "2025223N16334", atcf: "AL052025", name: "ERIN", basin: "NA", subbasin: "MM", genesis: genesis(11, 6),
		lat0: 16.2, lon0: 333.8, dlat: 0.15, dlon: -1.6, recurve: 0.012, fixes: 48, peakWind: 140},
	{sid: "2025235N22302", atcf: "AL062025", name: "FERNAND", basin: "NA", subbasin: "MM", genesis: genesis(23, 12),
		lat0: 22.8, lon0: 302.1, dlat: 0.9, dlon: 0.3, fixes: 16, peakWind: 55, nullWindEvery: 5},
	{sid: "2025211N15253", atcf: "EP082025", name: "GIL", basin: "EP", subbasin: "MM", genesis: genesis(1, 0),
		lat0: 15.1, lon0: 253.4, dlat: 0.25, dlon: -1.1, fixes: 18, peakWind: 70},
	{sid: "2025214N16242", atcf: "EP092025", name: "HENRIETTE", basin: "EP", subbasin: "CP", genesis: genesis(4, 18),
		lat0: 16.4, lon0: 242.0, dlat: 0.22, dlon: -2.0, fixes: 44, peakWind: 75},
	{sid: "2025219N17255", atcf: "EP102025", name: "IVO", basin: "EP", subbasin: "MM", genesis: genesis(7, 12),
		lat0: 17.0, lon0: 255.6, dlat: 0.1, dlon: -0.9, fixes: 22, peakWind: 60},
	{sid: "2025225N17250", atcf: "EP112025", name: "JULIETTE", basin: "EP", subbasin: "MM", genesis: genesis(25, 0),
		lat0: 17.3, lon0: 250.1, dlat: 0.4, dlon: -0.8, fixes: 20, peakWind: 90},
	{sid: "2025217N20150", atcf: "WP122025", name: "PODUL", basin: "WP", subbasin: "MM", genesis: genesis(8, 0),
		lat0: 20.3, lon0: 150.2, dlat: 0.05, dlon: -1.3, fixes: 30, peakWind: 110},
	{sid: "2025226N27135", atcf: "WP152025", name: "LINGLING", basin: "WP", subbasin: "MM", genesis: genesis(21, 6),
		lat0: 27.4, lon0: 135.7, dlat: 0.5, dlon: -0.2, fixes: 12, peakWind: 35},
	{sid: "2025234N17115", atcf: "WP162025", name: "KAJIKI", basin: "WP", subbasin: "SCS", genesis: genesis(22, 18),
		lat0: 17.6, lon0: 115.2, dlat: 0.12, dlon: -0.95, fixes: 20, peakWind: 100, nullWindEvery: 4},
	{sid: "2025240N18112", atcf: "WP172025", name: "NONGFA", basin: "WP", subbasin: "SCS", genesis: genesis(28, 0),
		lat0: 18.1, lon0: 112.9, dlat: 0.05, dlon: -0.7, fixes: 10, peakWind: 40},
	{sid: "2025236N30140", atcf: "WP182025", name: "PEIPAH", basin: "WP", subbasin: "MM", genesis: genesis(24, 12),
		lat0: 30.2, lon0: 140.4, dlat: 0.45, dlon: 0.9, fixes: 14, peakWind: 45},
	{sid: "2025228N24176", name: "NOT_NAMED", basin: "WP", subbasin: "MM", genesis: genesis(16, 6),
		lat0: 24.0, lon0: 176.5, dlat: 0.3, dlon: 1.1, fixes: 9, noWind: true},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the storm-month JSON fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	storms := make([]domain.StormTrack, 0, len(defs))
	for _, d := range defs {
		storms = append(storms, buildTrack(d))
	}

	if err := writeJSON(*out, domain.StormCollection{Storms: storms}); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s (%d storms)", *out, len(storms))

	printStats(storms)
	return nil
}

func buildTrack(d stormDef) domain.StormTrack {
	s := domain.StormTrack{
		ID:       d.sid,
		ATCFID:   d.atcf,
		Name:     d.name,
		Basin:    d.basin,
		Subbasin: d.subbasin,
		Season:   domain.Season("2025"),
		Genesis:  domain.Timestamp{Time: d.genesis},
	}

	for i := range d.fixes {
		fi := float64(i)
		lat := round1(d.lat0 + d.dlat*fi + d.recurve*fi*fi)
		lon := round1(math.Mod(d.lon0+d.dlon*fi+360, 360))
		wind := windAt(d, i)

		s.Lat = append(s.Lat, lat)
		s.Lon = append(s.Lon, lon)
		s.Time = append(s.Time, domain.Timestamp{Time: d.genesis.Add(time.Duration(i) * fixInterval)})
		s.Speed = append(s.Speed, valid(math.Round(math.Hypot(d.dlat, d.dlon)*60/6)))
		s.Dist2Land = append(s.Dist2Land, valid(float64(200+37*i%900)))

		if d.noWind || (d.nullWindEvery > 0 && i%d.nullWindEvery == d.nullWindEvery-1) {
			s.Wind = append(s.Wind, domain.NullFloat{})
			s.MSLP = append(s.MSLP, domain.NullFloat{})
			s.RMW = append(s.RMW, domain.NullFloat{})
			s.Classification = append(s.Classification, nil)
			continue
		}
		s.Wind = append(s.Wind, valid(wind))
		s.MSLP = append(s.MSLP, valid(math.Round(1012-0.75*(wind-20))))
		s.RMW = append(s.RMW, valid(math.Round(60-wind/4)))
		class := classify(d.basin, wind)
		s.Classification = append(s.Classification, &class)
	}
	return s
}

// windAt follows a half-sine intensity life cycle, rounded to 5 kt like best-track data.
func windAt(d stormDef, i int) float64 {
	if d.fixes < 2 {
		return 25
	}
	phase := math.Sin(math.Pi * float64(i) / float64(d.fixes-1))
	return math.Round((25+(d.peakWind-25)*phase)/5) * 5
}

func classify(basin string, wind float64) string {
	switch {
	case wind < 34:
		return "TD"
	case wind < 64:
		return "TS"
	case basin == "WP":
		return "TY"
	default:
		return "HU"
	}
}

func valid(v float64) domain.NullFloat {
	return domain.NullFloat{Value: v, Valid: true}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type basinCount struct {
	basin string
	count int
}

func printStats(storms []domain.StormTrack) {
	basins := map[string]int{}
	var crossers, fixes int
	for i := range storms {
		s := &storms[i]
		basins[s.Basin]++
		fixes += s.Len()
		if len(domain.SegmentTrack(s.Lat, s.Lon)) > 1 {
			crossers++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Storms: %d\n", len(storms))
	fmt.Printf("Fixes: %d\n", fixes)
	fmt.Printf("Date-line crossers: %d\n", crossers)

	bc := make([]basinCount, 0, len(basins))
	for b, c := range basins {
		bc = append(bc, basinCount{b, c})
	}
	sort.Slice(bc, func(i, j int) bool { return bc[i].basin < bc[j].basin })
	fmt.Print("By basin: ")
	for _, b := range bc {
		fmt.Printf("%s=%d ", b.basin, b.count)
	}
	fmt.Println()

	fmt.Println("\nOverview opacity per storm:")
	for i := range storms {
		s := &storms[i]
		style := domain.StyleFromWind(s.WindSeries())
		fmt.Printf("  %-10s %-14s segments=%d opacity=%.3f\n",
			s.DisplayName(), s.Key(i), len(domain.SegmentTrack(s.Lat, s.Lon)), style.Opacity)
	}
}
