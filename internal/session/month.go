package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-track-map/internal/domain"
)

// MinYear is the first season offered for selection.
const MinYear = 1950

// ErrInvalidMonth is wrapped by every Month validation failure.
var ErrInvalidMonth = errors.New("invalid month")

// Month is a calendar month selected for plotting.
type Month struct {
	Year  int
	Month time.Month
}

// CurrentMonth returns the month containing the current UTC time.
func CurrentMonth() Month {
	now := domain.Now().UTC()
	return Month{Year: now.Year(), Month: now.Month()}
}

// NewMonth validates year and month.
func NewMonth(year int, month time.Month) (Month, error) {
	m := Month{Year: year, Month: month}
	if err := m.Validate(); err != nil {
		return Month{}, err
	}
	return m, nil
}

// ParseMonth parses "YYYY-MM". A blank value yields the current month.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CurrentMonth(), nil
	}

	y, mo, ok := strings.Cut(s, "-")
	if !ok || len(y) != 4 || len(mo) != 2 {
		return Month{}, fmt.Errorf("%w: %q is not YYYY-MM", ErrInvalidMonth, s)
	}
	return parseParts(y, mo)
}

// ParsePath parses the year and month path segments of /{YYYY}/{MM}.
func ParsePath(year, month string) (Month, error) {
	return parseParts(year, month)
}

func parseParts(year, month string) (Month, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return Month{}, fmt.Errorf("%w: year %q", ErrInvalidMonth, year)
	}
	mo, err := strconv.Atoi(month)
	if err != nil {
		return Month{}, fmt.Errorf("%w: month %q", ErrInvalidMonth, month)
	}
	return NewMonth(y, time.Month(mo))
}

// Validate checks the month is 01–12 and the year is within [MinYear, MaxYear()].
func (m Month) Validate() error {
	if m.Month < time.January || m.Month > time.December {
		return fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidMonth, int(m.Month))
	}
	if m.Year < MinYear || m.Year > MaxYear() {
		return fmt.Errorf("%w: year %d out of range %d-%d", ErrInvalidMonth, m.Year, MinYear, MaxYear())
	}
	return nil
}

// String formats the month as "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Path formats the month as the "YYYY/MM" storm API path suffix.
func (m Month) Path() string {
	return fmt.Sprintf("%04d/%02d", m.Year, int(m.Month))
}

// MaxYear is the last selectable year: next year, so early-season storms are reachable.
func MaxYear() int {
	return domain.Now().UTC().Year() + 1
}

// YearOptions lists the selectable years in ascending order.
func YearOptions() []int {
	years := make([]int, 0, MaxYear()-MinYear+1)
	for y := MinYear; y <= MaxYear(); y++ {
		years = append(years, y)
	}
	return years
}
