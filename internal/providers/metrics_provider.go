package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
	"wayfarer/internal/models"
	"wayfarer/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncGenerations()
	IncGenerationFailures()
	ObserveGenerationDuration(duration time.Duration)
	IncDiariesGenerated()
	IncDailySummaries()
	IncTasksDropped()
	IncTaskFailures()
	SetQueueDepth(depth int)
	ObservePersistenceDuration(duration time.Duration)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	generations         prometheus.Counter
	generationFailures  prometheus.Counter
	generationDuration  prometheus.Histogram
	diariesGenerated    prometheus.Counter
	dailySummaries      prometheus.Counter
	tasksDropped        prometheus.Counter
	taskFailures        prometheus.Counter
	queueDepth          prometheus.Gauge
	persistenceDuration prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncGenerations() {
	m.generations.Inc()
}

func (m *MetricsProvider) IncGenerationFailures() {
	m.generationFailures.Inc()
}

func (m *MetricsProvider) ObserveGenerationDuration(duration time.Duration) {
	m.generationDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncDiariesGenerated() {
	m.diariesGenerated.Inc()
}

func (m *MetricsProvider) IncDailySummaries() {
	m.dailySummaries.Inc()
}

func (m *MetricsProvider) IncTasksDropped() {
	m.tasksDropped.Inc()
}

func (m *MetricsProvider) IncTaskFailures() {
	m.taskFailures.Inc()
}

func (m *MetricsProvider) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, sessions *models.SessionStore) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfarer_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wayfarer_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wayfarer_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wayfarer_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		generations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wayfarer_generations_total",
			Help: "Total number of text generation calls",
		}),

		generationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wayfarer_generation_failures_total",
			Help: "Total number of failed text generation calls",
		}),

		generationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wayfarer_generation_duration_seconds",
			Help:    "Text generation duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 45, 90},
		}),

		diariesGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wayfarer_diaries_generated_total",
			Help: "Total number of diary entries attached to turns",
		}),

		dailySummaries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wayfarer_daily_summaries_total",
			Help: "Total number of daily summaries written",
		}),

		tasksDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wayfarer_tasks_dropped_total",
			Help: "Total number of background tasks dropped due to a full queue",
		}),

		taskFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wayfarer_task_failures_total",
			Help: "Total number of background tasks that finished with an error",
		}),

		queueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wayfarer_task_queue_depth",
			Help: "Current number of queued background tasks",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wayfarer_persistence_duration_seconds",
			Help:    "Duration of persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "wayfarer_sessions_active",
		Help: "Current number of live chat sessions",
	}, func() float64 {
		return float64(sessions.Sessions())
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncGenerations()                                  {}
func (n *noopMetrics) IncGenerationFailures()                           {}
func (n *noopMetrics) ObserveGenerationDuration(_ time.Duration)        {}
func (n *noopMetrics) IncDiariesGenerated()                             {}
func (n *noopMetrics) IncDailySummaries()                               {}
func (n *noopMetrics) IncTasksDropped()                                 {}
func (n *noopMetrics) IncTaskFailures()                                 {}
func (n *noopMetrics) SetQueueDepth(_ int)                              {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
