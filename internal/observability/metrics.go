package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace is the metric namespace used when none is given.
const DefaultNamespace = "avaroute"

// Label values for the opens_total counter.
const (
	OpenMatched   = "matched"
	OpenNoMatch   = "no_match"
	OpenMalformed = "malformed"
	OpenClosed    = "closed"
)

// Label values for the resolutions_total counter.
const (
	OutcomeCompleted = "completed"
	OutcomeDropped   = "dropped"
	OutcomeAborted   = "aborted"
	OutcomeTimeout   = "timeout"
)

// Label values for the proxy_invocations_total counter.
const (
	ProxyPass     = "pass"
	ProxyOverride = "override"
	ProxyPanic    = "panic"
	ProxyTimeout  = "timeout"
)

// RouterMetrics holds the Prometheus metrics of one router instance.
// Each instance owns its registry so independent routers never collide
// on registration.
type RouterMetrics struct {
	opensTotal         *prometheus.CounterVec
	resolutionsTotal   *prometheus.CounterVec
	proxyInvocations   *prometheus.CounterVec
	resolutionDuration prometheus.Histogram
	queueDepth         prometheus.Gauge
	registrations      *prometheus.GaugeVec
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheEvictions     prometheus.Counter
	cacheSize          prometheus.Gauge
	registry           *prometheus.Registry
}

// NewRouterMetrics creates a new RouterMetrics instance backed by a
// fresh registry.
func NewRouterMetrics(namespace string) *RouterMetrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &RouterMetrics{
		registry: prometheus.NewRegistry(),
	}

	m.opensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "opens_total",
			Help:      "Total number of open calls by decision",
		},
		[]string{"result"},
	)

	m.resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "resolutions_total",
			Help:      "Total number of finished resolutions by outcome",
		},
		[]string{"outcome"},
	)

	m.proxyInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "proxy_invocations_total",
			Help:      "Total number of proxy invocations by action",
		},
		[]string{"action"},
	)

	m.resolutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "resolution_duration_seconds",
			Help:      "Time from dequeue to completion of a resolution",
			Buckets: []float64{
				.0005, .001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
	)

	m.queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "routing_queue_depth",
			Help:      "Number of accepted resolutions waiting to run",
		},
	)

	m.registrations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "registrations",
			Help:      "Number of registrations in the route table by kind",
		},
		[]string{"kind"},
	)

	m.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pattern",
			Name:      "cache_hits_total",
			Help:      "Total number of compiled pattern cache hits",
		},
	)

	m.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pattern",
			Name:      "cache_misses_total",
			Help:      "Total number of compiled pattern cache misses",
		},
	)

	m.cacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pattern",
			Name:      "cache_evictions_total",
			Help:      "Total number of compiled pattern cache evictions",
		},
	)

	m.cacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pattern",
			Name:      "cache_size",
			Help:      "Current number of entries in the compiled pattern cache",
		},
	)

	m.registry.MustRegister(
		m.opensTotal,
		m.resolutionsTotal,
		m.proxyInvocations,
		m.resolutionDuration,
		m.queueDepth,
		m.registrations,
		m.cacheHits,
		m.cacheMisses,
		m.cacheEvictions,
		m.cacheSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordOpen counts one open call with its synchronous decision.
func (m *RouterMetrics) RecordOpen(result string) {
	m.opensTotal.WithLabelValues(result).Inc()
}

// RecordResolution counts one finished resolution.
func (m *RouterMetrics) RecordResolution(outcome string, duration time.Duration) {
	m.resolutionsTotal.WithLabelValues(outcome).Inc()
	m.resolutionDuration.Observe(duration.Seconds())
}

// RecordProxy counts one proxy invocation.
func (m *RouterMetrics) RecordProxy(action string) {
	m.proxyInvocations.WithLabelValues(action).Inc()
}

// SetQueueDepth sets the routing queue depth gauge.
func (m *RouterMetrics) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

// AddRegistration increments the registration gauge for kind.
func (m *RouterMetrics) AddRegistration(kind string) {
	m.registrations.WithLabelValues(kind).Inc()
}

// CacheHit implements pattern.CacheObserver.
func (m *RouterMetrics) CacheHit() {
	m.cacheHits.Inc()
}

// CacheMiss implements pattern.CacheObserver.
func (m *RouterMetrics) CacheMiss() {
	m.cacheMisses.Inc()
}

// CacheEviction implements pattern.CacheObserver.
func (m *RouterMetrics) CacheEviction() {
	m.cacheEvictions.Inc()
}

// CacheSize implements pattern.CacheObserver.
func (m *RouterMetrics) CacheSize(size int) {
	m.cacheSize.Set(float64(size))
}

// Registry returns the Prometheus registry.
func (m *RouterMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *RouterMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
