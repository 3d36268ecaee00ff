package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_map"

// Metrics holds the Prometheus counters, histograms, and gauges for the track map service.
type Metrics struct {
	// Upstream storm API metrics.
	FetchRequests *prometheus.CounterVec // labels: outcome={success,empty,error}
	FetchDuration prometheus.Histogram
	StormCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Rendering metrics.
	RenderDuration *prometheus.HistogramVec // labels: mode={overview,detailed}
	StormsRendered prometheus.Gauge

	// Scene publication metrics.
	ScenesPublished prometheus.Counter
	PublishEnabled  prometheus.Gauge

	// Background refresh metrics.
	RefreshRuns    *prometheus.CounterVec // labels: outcome={published,empty,error}
	RefreshRunning prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Storm API month requests by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Storm API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StormCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      "Month cache lookups by result.",
		}, []string{"result"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of a scene render pass by view mode.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"mode"}),
		StormsRendered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "storms_rendered",
			Help:      "Number of storms in the most recent overview scene.",
		}),
		ScenesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenes_published_total",
			Help:      "Total overview scenes published to the scene topic.",
		}),
		PublishEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publish_enabled",
			Help:      "1 when scene publication to Kafka is enabled, 0 otherwise.",
		}),
		RefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      "Current-month refresh cycles by outcome.",
		}, []string{"outcome"}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_running",
			Help:      "1 while the current-month refresher is running, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.StormCache,
		m.RenderDuration,
		m.StormsRendered,
		m.ScenesPublished,
		m.PublishEnabled,
		m.RefreshRuns,
		m.RefreshRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "fetch_requests_total"}, []string{"outcome"}),
		FetchDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "fetch_duration_seconds"}),
		StormCache:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "cache_total"}, []string{"result"}),
		RenderDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "render_duration_seconds"}, []string{"mode"}),
		StormsRendered:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "storms_rendered"}),
		ScenesPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "scenes_published_total"}),
		PublishEnabled:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "publish_enabled"}),
		RefreshRuns:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "refresh_runs_total"}, []string{"outcome"}),
		RefreshRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "refresh_running"}),
	}
}
