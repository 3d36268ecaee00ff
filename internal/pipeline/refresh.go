// Package pipeline keeps downstream consumers current: it periodically
// re-fetches the open month, renders its overview, and publishes the scene.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/storm-track-map/internal/observability"
	"github.com/couchcryptid/storm-track-map/internal/render"
	"github.com/couchcryptid/storm-track-map/internal/session"
)

const initialBackoff = 200 * time.Millisecond

// Publisher forwards a rendered scene downstream.
type Publisher interface {
	Publish(ctx context.Context, month string, scene *render.Scene) error
}

// Refresher runs the fetch-render-publish cycle for the current month.
type Refresher struct {
	source    session.StormSource
	renderer  *render.Renderer
	publisher Publisher
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Refresher that runs one cycle every interval.
func New(source session.StormSource, renderer *render.Renderer, publisher Publisher, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	return &Refresher{
		source:    source,
		renderer:  renderer,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a cycle has completed successfully.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("refresher has not completed a cycle yet")
	}
	return nil
}

// Run executes refresh cycles until the context is cancelled. A failed cycle
// is retried with exponential backoff, capped at the refresh interval.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started", "interval", r.interval)
	r.metrics.RefreshRunning.Set(1)
	defer r.metrics.RefreshRunning.Set(0)

	backoff := initialBackoff
	for {
		wait := r.interval
		if err := r.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("refresher stopping", "reason", ctx.Err())
				return nil
			}
			r.logger.Error("refresh cycle failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = sharedretry.NextBackoff(backoff, r.interval)
		} else {
			backoff = initialBackoff
		}

		if !sharedretry.SleepWithContext(ctx, wait) {
			r.logger.Info("refresher stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce fetches the month containing domain.Now, renders its overview, and
// publishes it. An empty month publishes nothing and is not an error.
func (r *Refresher) RunOnce(ctx context.Context) error {
	m := session.CurrentMonth()

	storms, err := r.source.FetchMonth(ctx, m.Year, m.Month)
	if err != nil {
		r.metrics.RefreshRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("fetch %s: %w", m, err)
	}
	if len(storms) == 0 {
		r.metrics.RefreshRuns.WithLabelValues("empty").Inc()
		r.logger.Debug("no storms to publish", "month", m.String())
		r.ready.Store(true)
		return nil
	}

	scene := r.renderer.Render(storms, render.Overview())
	if err := r.publisher.Publish(ctx, m.String(), scene); err != nil {
		r.metrics.RefreshRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("publish %s: %w", m, err)
	}

	r.metrics.RefreshRuns.WithLabelValues("published").Inc()
	r.logger.Info("month refreshed", "month", m.String(), "storms", len(scene.Groups), "rendered_at", scene.RenderedAt)
	r.ready.Store(true)
	return nil
}
