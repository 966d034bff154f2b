package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "incident_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the feed pipelines.
type Metrics struct {
	// Feed polling metrics.
	FeedFetches   *prometheus.CounterVec   // labels: feed, outcome={success,error}
	FetchDuration *prometheus.HistogramVec // labels: feed
	RecordsRead   *prometheus.CounterVec   // labels: feed

	// Normalization and validation metrics.
	NormalizeErrors   *prometheus.CounterVec // labels: feed, kind
	IncidentsRejected *prometheus.CounterVec // labels: feed, reason
	ZoneFallbacks     prometheus.Counter

	// Publication metrics.
	IncidentsPublished *prometheus.CounterVec // labels: feed
	PublishErrors      *prometheus.CounterVec // labels: sink

	PipelineRunning  *prometheus.GaugeVec // labels: feed
	CycleDuration    prometheus.Histogram
	WebSocketClients prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetches_total",
			Help:      "Feed fetches by feed and outcome.",
		}, []string{"feed", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of a feed fetch and decode.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"feed"}),
		RecordsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Raw records read from each feed.",
		}, []string{"feed"}),
		NormalizeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalize_errors_total",
			Help:      "Records skipped because normalization failed, by error kind.",
		}, []string{"feed", "kind"}),
		IncidentsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_rejected_total",
			Help:      "Normalized incidents rejected by validation, by reason.",
		}, []string{"feed", "reason"}),
		ZoneFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "survey_zone_fallbacks_total",
			Help:      "Survey coordinates converted with the default zone because the dispatch center was unmapped.",
		}),
		IncidentsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_published_total",
			Help:      "Accepted incidents forwarded to subscribers.",
		}, []string{"feed"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed publish attempts by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the feed pipeline is active, 0 when shut down.",
		}, []string{"feed"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-validate-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		WebSocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected WebSocket subscribers.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FeedFetches,
		m.FetchDuration,
		m.RecordsRead,
		m.NormalizeErrors,
		m.IncidentsRejected,
		m.ZoneFallbacks,
		m.IncidentsPublished,
		m.PublishErrors,
		m.PipelineRunning,
		m.CycleDuration,
		m.WebSocketClients,
	}
}
