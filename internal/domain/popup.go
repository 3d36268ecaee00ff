package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// NotAvailable is shown in place of a missing observation value.
const NotAvailable = "N/A"

// DisplayName returns the storm name, or "NOT_NAMED" as IBTrACS spells it.
func (s *StormTrack) DisplayName() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return "NOT_NAMED"
}

// Summary is the one-line hover text for a storm in the overview.
func (s *StormTrack) Summary() string {
	var meta []string
	if s.Basin != "" {
		meta = append(meta, s.Basin)
	}
	if season := s.Season.String(); season != "" {
		meta = append(meta, season)
	}
	if len(meta) == 0 {
		return s.DisplayName()
	}
	return fmt.Sprintf("%s (%s)", s.DisplayName(), strings.Join(meta, " "))
}

// ObservationPopup is the multi-line popup text for observation i.
func (s *StormTrack) ObservationPopup(i int) string {
	wind, windOK := s.WindAt(i)
	mslp, mslpOK := s.MSLPAt(i)
	speed, speedOK := s.SpeedAt(i)

	lines := []string{
		s.DisplayName(),
		"Time: " + s.timeText(i),
		"Wind: " + valueText(wind, windOK, "kt"),
		"Pressure: " + valueText(mslp, mslpOK, "hPa"),
		"Speed: " + valueText(speed, speedOK, "kt"),
		"Classification: " + s.classificationText(i),
	}
	return strings.Join(lines, "\n")
}

func (s *StormTrack) timeText(i int) string {
	t, ok := s.TimeAt(i)
	if !ok {
		return NotAvailable
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func (s *StormTrack) classificationText(i int) string {
	c, ok := s.ClassificationAt(i)
	if !ok {
		return NotAvailable
	}
	return c
}

func valueText(v float64, ok bool, unit string) string {
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + unit
}
