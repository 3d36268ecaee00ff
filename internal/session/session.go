// Package session holds the month-fetch state machine behind the map: which
// month is plotted, whether a fetch is in flight, and the resulting batch.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/storm-track-map/internal/adapter/stormapi"
	"github.com/couchcryptid/storm-track-map/internal/domain"
)

// User-facing status messages.
const (
	MessageLoading  = "Loading storms data..."
	MessageNoStorms = "No storms found for this month"
)

// Status is the fetch lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return "idle"
	}
}

// StormSource fetches one month of storms.
type StormSource interface {
	FetchMonth(ctx context.Context, year int, month time.Month) ([]domain.StormTrack, error)
}

// Snapshot is a copy of the session state at one point in time.
type Snapshot struct {
	Month     Month
	Status    Status
	Message   string
	Storms    []domain.StormTrack
	FetchedAt time.Time
}

// Session serializes month fetches: a Plot issued while another is in flight
// waits for it to finish. Nothing is retried or cancelled.
type Session struct {
	source StormSource
	logger *slog.Logger

	fetchMu sync.Mutex // held for the duration of a fetch

	mu    sync.RWMutex
	state Snapshot
}

// New creates an idle session starting at the current month.
func New(source StormSource, logger *slog.Logger) *Session {
	return &Session{
		source: source,
		logger: logger,
		state:  Snapshot{Month: CurrentMonth(), Status: StatusIdle},
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Plot fetches m and replaces the session's batch. The returned error is the
// upstream failure, if any; an empty month is reported through the snapshot
// status, not as an error. The previous batch stays visible while loading and
// is cleared on failure.
func (s *Session) Plot(ctx context.Context, m Month) (Snapshot, error) {
	if err := m.Validate(); err != nil {
		return s.Snapshot(), err
	}

	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	s.update(func(st *Snapshot) {
		st.Month = m
		st.Status = StatusLoading
		st.Message = MessageLoading
	})
	s.logger.Info("fetching storms", "month", m.String())

	storms, err := s.source.FetchMonth(ctx, m.Year, m.Month)
	if err != nil {
		msg := FailureMessage(err)
		s.logger.Error("fetch storms failed", "month", m.String(), "error", err)
		return s.update(func(st *Snapshot) {
			st.Status = StatusError
			st.Message = msg
			st.Storms = nil
			st.FetchedAt = domain.Now()
		}), err
	}

	if len(storms) == 0 {
		s.logger.Info("no storms for month", "month", m.String())
		return s.update(func(st *Snapshot) {
			st.Status = StatusError
			st.Message = MessageNoStorms
			st.Storms = []domain.StormTrack{}
			st.FetchedAt = domain.Now()
		}), nil
	}

	s.logger.Info("storms fetched", "month", m.String(), "storms", len(storms))
	return s.update(func(st *Snapshot) {
		st.Status = StatusSuccess
		st.Message = FoundMessage(len(storms))
		st.Storms = storms
		st.FetchedAt = domain.Now()
	}), nil
}

func (s *Session) update(fn func(*Snapshot)) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	return s.state
}

// FoundMessage is the success message for n storms.
func FoundMessage(n int) string {
	if n == 1 {
		return "Found 1 storm"
	}
	return fmt.Sprintf("Found %d storms", n)
}

// FailureMessage turns a fetch error into the message shown to the user.
func FailureMessage(err error) string {
	var statusErr *stormapi.StatusError
	if errors.As(err, &statusErr) {
		return "Failed to fetch data: " + statusErr.Status
	}
	return "Failed to fetch data: " + err.Error()
}
