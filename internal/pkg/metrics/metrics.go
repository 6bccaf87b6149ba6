package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "cancensus"

// Collector is a prometheus.Collector for cache and upstream activity.
// A nil *Collector is valid and records nothing.
type Collector struct {
	cacheLookups     *prometheus.CounterVec
	cacheWriteErrors prometheus.Counter
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

func NewCollector() *Collector {
	return &Collector{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by kind and result.",
			}, []string{"kind", "result"},
		),
		cacheWriteErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "cache_write_errors_total",
				Help:      "Cache writes that failed and were skipped.",
			},
		),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "upstream_requests_total",
				Help:      "CensusMapper requests by endpoint and status code.",
			}, []string{"endpoint", "code"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "upstream_request_seconds",
				Help:      "CensusMapper request latency.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			}, []string{"endpoint"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.cacheLookups.Describe(ch)
	c.cacheWriteErrors.Describe(ch)
	c.upstreamRequests.Describe(ch)
	c.upstreamDuration.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.cacheLookups.Collect(ch)
	c.cacheWriteErrors.Collect(ch)
	c.upstreamRequests.Collect(ch)
	c.upstreamDuration.Collect(ch)
}

func (c *Collector) CacheLookup(kind string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(kind, result).Inc()
}

func (c *Collector) CacheWriteError() {
	if c == nil {
		return
	}
	c.cacheWriteErrors.Inc()
}

// Upstream records one CensusMapper call. code is "error" when no response
// was received.
func (c *Collector) Upstream(endpoint, code string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.upstreamRequests.WithLabelValues(endpoint, code).Inc()
	c.upstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
