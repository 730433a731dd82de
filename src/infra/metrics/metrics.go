// Package metrics exposes Prometheus collectors for HTTP traffic and the
// connection pool.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"budgettool/src/infra/db"
)

const namespace = "budget_tool"

// NewRegistry returns a registry preloaded with process and Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// HTTP records request counts, latencies and in-flight requests.
type HTTP struct {
	inFlight prometheus.Gauge
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTP creates and registers the HTTP collectors.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.inFlight, m.requests, m.duration)
	return m
}

// Begin marks a request as in flight and returns the function that records it.
func (m *HTTP) Begin() func(method, route string, status int) {
	start := time.Now()
	m.inFlight.Inc()
	return func(method, route string, status int) {
		m.inFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// StatsSource reports pool lease counters. *db.Pool satisfies it.
type StatsSource interface {
	Stats() db.Stats
}

// PoolCollector turns pool stats into metrics at scrape time.
type PoolCollector struct {
	src StatsSource

	maxSize  *prometheus.Desc
	inUse    *prometheus.Desc
	acquired *prometheus.Desc
	released *prometheus.Desc
	timeouts *prometheus.Desc
}

// NewPoolCollector creates a collector for src.
func NewPoolCollector(src StatsSource) *PoolCollector {
	name := func(n string) string { return prometheus.BuildFQName(namespace, "db_pool", n) }
	return &PoolCollector{
		src:      src,
		maxSize:  prometheus.NewDesc(name("max_size"), "Maximum number of concurrent leases.", nil, nil),
		inUse:    prometheus.NewDesc(name("leases_in_use"), "Leases currently outstanding.", nil, nil),
		acquired: prometheus.NewDesc(name("leases_acquired_total"), "Leases handed out.", nil, nil),
		released: prometheus.NewDesc(name("leases_released_total"), "Leases returned.", nil, nil),
		timeouts: prometheus.NewDesc(name("acquire_timeouts_total"), "Acquisitions that gave up on a saturated pool.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.maxSize
	ch <- c.inUse
	ch <- c.acquired
	ch <- c.released
	ch <- c.timeouts
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.maxSize, prometheus.GaugeValue, float64(s.MaxSize))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(s.InUse))
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.CounterValue, float64(s.Acquired))
	ch <- prometheus.MustNewConstMetric(c.released, prometheus.CounterValue, float64(s.Released))
	ch <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue, float64(s.Timeouts))
}
