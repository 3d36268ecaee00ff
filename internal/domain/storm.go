package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// StormCollection is the response body of the storm API.
type StormCollection struct {
	Storms []StormTrack `json:"storms"`
}

// StormTrack is one tropical cyclone with its per-observation series.
// Lat and Lon define the track length; every other series is optional.
type StormTrack struct {
	ID       string      `json:"ID"`
	ATCFID   string      `json:"ATCF_ID,omitempty"`
	Name     string      `json:"name,omitempty"`
	Basin    string      `json:"basin,omitempty"`
	Subbasin string      `json:"subbasin,omitempty"`
	Season   Season      `json:"season,omitempty"`
	Genesis  Timestamp   `json:"genesis"`

	Lat []float64 `json:"lat"`
	Lon []float64 `json:"lon"`

	Wind           []NullFloat `json:"wind,omitempty"`
	MSLP           []NullFloat `json:"mslp,omitempty"`
	Speed          []NullFloat `json:"speed,omitempty"`
	Dist2Land      []NullFloat `json:"dist2land,omitempty"`
	RMW            []NullFloat `json:"rmw,omitempty"`
	Classification []*string   `json:"classification,omitempty"`
	Time           []Timestamp `json:"time,omitempty"`
}

// Key returns the storm ID, or the positional index within its batch when the
// upstream record has none.
func (s *StormTrack) Key(index int) string {
	if id := strings.TrimSpace(s.ID); id != "" {
		return id
	}
	return strconv.Itoa(index)
}

// Len is the number of observations, bounded by the shorter of Lat and Lon.
func (s *StormTrack) Len() int {
	return min(len(s.Lat), len(s.Lon))
}

// WindSeries returns the wind series if it covers the whole track, nil otherwise.
func (s *StormTrack) WindSeries() []NullFloat {
	if len(s.Wind) < s.Len() {
		return nil
	}
	return s.Wind[:s.Len()]
}

// WindAt returns the wind speed (kt) at observation i.
func (s *StormTrack) WindAt(i int) (float64, bool) {
	return floatAt(s.Wind, s.Len(), i)
}

// MSLPAt returns the central pressure (hPa) at observation i.
func (s *StormTrack) MSLPAt(i int) (float64, bool) {
	return floatAt(s.MSLP, s.Len(), i)
}

// SpeedAt returns the forward speed (kt) at observation i.
func (s *StormTrack) SpeedAt(i int) (float64, bool) {
	return floatAt(s.Speed, s.Len(), i)
}

// ClassificationAt returns the storm classification (e.g. "TS", "HU") at observation i.
func (s *StormTrack) ClassificationAt(i int) (string, bool) {
	n := s.Len()
	if i < 0 || i >= n || len(s.Classification) < n {
		return "", false
	}
	c := s.Classification[i]
	if c == nil || strings.TrimSpace(*c) == "" {
		return "", false
	}
	return *c, true
}

// TimeAt returns the observation time at index i.
func (s *StormTrack) TimeAt(i int) (time.Time, bool) {
	n := s.Len()
	if i < 0 || i >= n || len(s.Time) < n || s.Time[i].IsZero() {
		return time.Time{}, false
	}
	return s.Time[i].Time, true
}

func floatAt(series []NullFloat, n, i int) (float64, bool) {
	if i < 0 || i >= n || len(series) < n {
		return 0, false
	}
	return series[i].Float()
}

// Season is a storm's season year. It decodes from a number or a numeric
// string; blank or non-numeric input decodes as empty.
type Season string

func (s Season) String() string { return string(s) }

// UnmarshalJSON never fails: anything that is not an integer year is empty.
func (s *Season) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			*s = ""
			return nil
		}
		raw = strings.TrimSpace(str)
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		*s = ""
		return nil
	}
	*s = Season(strconv.Itoa(year))
	return nil
}

// MarshalJSON writes the year as a number, or null when empty.
func (s Season) MarshalJSON() ([]byte, error) {
	if _, err := strconv.Atoi(string(s)); err != nil {
		return []byte("null"), nil
	}
	return []byte(s), nil
}

// NullFloat is a JSON number that may be null. NaN and infinities count as missing.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float returns the value and whether it is usable.
func (n NullFloat) Float() (float64, bool) {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return 0, false
	}
	return n.Value, true
}

// UnmarshalJSON accepts numbers, null, and numeric strings. "NaN" and
// "Infinity" decode as missing.
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = NullFloat{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("parse nullable float: %w", err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			*n = NullFloat{}
			return nil
		}
		*n = NullFloat{Value: v, Valid: true}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parse nullable float: %w", err)
	}
	*n = NullFloat{Value: v, Valid: true}
	return nil
}

// MarshalJSON writes null for missing values.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	v, ok := n.Float()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Timestamp decodes ISO-8601 strings (zone optional, UTC assumed) and epoch
// numbers. Epoch values above 1e11 are taken as milliseconds.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// UnmarshalJSON parses null, an epoch number, or an ISO-8601 string.
// Unrecognised values decode as the zero time, which renders as "N/A".
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		return nil
	}

	if data[0] != '"' {
		var epoch float64
		if err := json.Unmarshal(data, &epoch); err == nil {
			t.Time = fromEpoch(epoch)
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if parsed, err := ParseTimestamp(s); err == nil {
		t.Time = parsed
	}
	return nil
}

// MarshalJSON writes RFC 3339 in UTC, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// ParseTimestamp parses an ISO-8601 or epoch string. Empty input yields the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return parsed.UTC(), nil
		}
	}
	if epoch, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(epoch), nil
	}
	return time.Time{}, fmt.Errorf("parse timestamp: unrecognized format %q", s)
}

func fromEpoch(v float64) time.Time {
	if math.Abs(v) > 1e11 {
		return time.UnixMilli(int64(v)).UTC()
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
