package stormapi

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/storm-track-map/internal/domain"
	"github.com/couchcryptid/storm-track-map/internal/observability"
)

// Source fetches one month of storms.
type Source interface {
	FetchMonth(ctx context.Context, year int, month time.Month) ([]domain.StormTrack, error)
}

// CachedSource wraps a Source with an in-memory LRU cache keyed by month.
// Cached batches are shared between callers and must not be modified.
type CachedSource struct {
	inner   Source
	cache   *lru.Cache[string, []domain.StormTrack]
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator holding up to maxMonths batches.
func NewCachedSource(inner Source, maxMonths int, metrics *observability.Metrics) (*CachedSource, error) {
	cache, err := lru.New[string, []domain.StormTrack](maxMonths)
	if err != nil {
		return nil, fmt.Errorf("create month cache: %w", err)
	}
	return &CachedSource{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedSource) FetchMonth(ctx context.Context, year int, month time.Month) ([]domain.StormTrack, error) {
	key := fmt.Sprintf("%04d-%02d", year, int(month))
	if storms, ok := c.cache.Get(key); ok {
		c.metrics.StormCache.WithLabelValues("hit").Inc()
		return storms, nil
	}
	c.metrics.StormCache.WithLabelValues("miss").Inc()

	storms, err := c.inner.FetchMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	// Empty and still-open months can change upstream, so only settled batches are kept.
	if len(storms) > 0 && monthClosed(year, month) {
		c.cache.Add(key, storms)
	}
	return storms, nil
}

// Len returns the number of cached months.
func (c *CachedSource) Len() int {
	return c.cache.Len()
}

// monthClosed reports whether the month ended before the current time.
func monthClosed(year int, month time.Month) bool {
	end := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return !domain.Now().Before(end)
}
