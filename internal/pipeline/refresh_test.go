package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-track-map/internal/domain"
	"github.com/couchcryptid/storm-track-map/internal/observability"
	"github.com/couchcryptid/storm-track-map/internal/render"
)

var twoStorms = []domain.StormTrack{
	{ID: "A", Lat: []float64{10, 11}, Lon: []float64{-40, -41}},
	{ID: "B", Lat: []float64{20}, Lon: []float64{170}},
}

// scriptedSource returns errs in order, then storms.
type scriptedSource struct {
	mu     sync.Mutex
	errs   []error
	storms []domain.StormTrack
	calls  atomic.Int32
	year   int
	month  time.Month
}

func (s *scriptedSource) FetchMonth(_ context.Context, year int, month time.Month) ([]domain.StormTrack, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.year, s.month = year, month
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return s.storms, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	months    []string
	scenes    []*render.Scene
	err       error
	published chan struct{}
}

func (p *recordingPublisher) Publish(_ context.Context, month string, scene *render.Scene) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.months = append(p.months, month)
	p.scenes = append(p.scenes, scene)
	if p.published != nil {
		select {
		case p.published <- struct{}{}:
		default:
		}
	}
	return nil
}

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.August, 20, 6, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func newTestRefresher(src *scriptedSource, pub *recordingPublisher) (*Refresher, *observability.Metrics) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := observability.NewMetricsForTesting()
	return New(src, render.NewRenderer(logger, m), pub, time.Hour, logger, m), m
}

func TestRunOnce_PublishesCurrentMonthOverview(t *testing.T) {
	freezeClock(t)
	src := &scriptedSource{storms: twoStorms}
	pub := &recordingPublisher{}
	r, m := newTestRefresher(src, pub)

	require.Error(t, r.CheckReadiness(context.Background()))
	require.NoError(t, r.RunOnce(context.Background()))

	assert.Equal(t, 2025, src.year)
	assert.Equal(t, time.August, src.month)
	require.Equal(t, []string{"2025-08"}, pub.months)
	assert.Equal(t, render.ModeOverview, pub.scenes[0].Mode)
	assert.Len(t, pub.scenes[0].Groups, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshRuns.WithLabelValues("published")))
	assert.NoError(t, r.CheckReadiness(context.Background()))
}

func TestRunOnce_EmptyMonthPublishesNothing(t *testing.T) {
	freezeClock(t)
	pub := &recordingPublisher{}
	r, m := newTestRefresher(&scriptedSource{}, pub)

	require.NoError(t, r.RunOnce(context.Background()))
	assert.Empty(t, pub.months)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshRuns.WithLabelValues("empty")))
	assert.NoError(t, r.CheckReadiness(context.Background()))
}

func TestRunOnce_Failures(t *testing.T) {
	freezeClock(t)
	boom := errors.New("boom")

	tests := []struct {
		name string
		src  *scriptedSource
		pub  *recordingPublisher
	}{
		{"fetch error", &scriptedSource{errs: []error{boom}}, &recordingPublisher{}},
		{"publish error", &scriptedSource{storms: twoStorms}, &recordingPublisher{err: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := newTestRefresher(tt.src, tt.pub)

			err := r.RunOnce(context.Background())
			require.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), "2025-08")
			assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshRuns.WithLabelValues("error")))
			assert.Error(t, r.CheckReadiness(context.Background()))
		})
	}
}

func TestRun_RetriesThenPublishesUntilCancelled(t *testing.T) {
	freezeClock(t)
	src := &scriptedSource{errs: []error{errors.New("upstream down")}, storms: twoStorms}
	pub := &recordingPublisher{published: make(chan struct{}, 1)}
	r, m := newTestRefresher(src, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case <-pub.published:
	case <-time.After(5 * time.Second):
		t.Fatal("refresher did not publish after retrying")
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshRunning))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("refresher did not stop after cancel")
	}

	assert.Equal(t, int32(2), src.calls.Load())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RefreshRunning))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshRuns.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshRuns.WithLabelValues("published")))
}
