// Package stormapi fetches monthly storm collections from the upstream storm API.
package stormapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-track-map/internal/domain"
	"github.com/couchcryptid/storm-track-map/internal/observability"
)

// maxErrorBody caps how much of a failed response body is kept for logs.
const maxErrorBody = 512

// StatusError is returned when the storm API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string // reason phrase, e.g. "Not Found"
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("storm API error: status %d %s", e.StatusCode, e.Status)
}

// Client calls GET {baseURL}/storms/{YYYY}/{MM}.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a storm API client. baseURL must not end in a slash.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// FetchMonth returns the storms whose genesis falls in the given month. A
// missing or null "storms" field yields an empty batch.
func (c *Client) FetchMonth(ctx context.Context, year int, month time.Month) ([]domain.StormTrack, error) {
	u := fmt.Sprintf("%s/storms/%04d/%02d", c.baseURL, year, int(month))

	start := time.Now()
	storms, err := c.doRequest(ctx, u)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		c.logger.Warn("storm API request failed", "year", year, "month", int(month), "error", err)
		return nil, err
	case len(storms) == 0:
		c.metrics.FetchRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.FetchRequests.WithLabelValues("success").Inc()
	}

	c.logger.Debug("storm API month fetched", "year", year, "month", int(month), "storms", len(storms))
	return storms, nil
}

// CheckReadiness pings the storm API root, which serves its health check.
func (c *Client) CheckReadiness(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storm API health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.StormTrack, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storm API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp)
	}

	var collection domain.StormCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return collection.Storms, nil
}

func newStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	// resp.Status is "404 Not Found"; keep only the reason phrase.
	status := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if status == "" {
		status = http.StatusText(resp.StatusCode)
	}
	return &StatusError{StatusCode: resp.StatusCode, Status: status, Body: string(body)}
}
