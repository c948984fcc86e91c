// Package metrics exposes Prometheus metrics for the editor and its API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. Each
// collector has its own registry, so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Editing metrics
	Mutations  *prometheus.CounterVec
	PatchOps   *prometheus.CounterVec
	Imports    *prometheus.CounterVec
	Proposals  *prometheus.CounterVec
	OpenEngine prometheus.Gauge

	// Storage metrics
	Saves        *prometheus.CounterVec
	SaveDuration prometheus.Histogram
}

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_mutations_total",
			Help:      "Committed graph changes by source",
		}, []string{"source"}),
		PatchOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patch_operations_total",
			Help:      "Patch operations by outcome",
		}, []string{"outcome"}),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Imported files by format and status",
		}, []string{"format", "status"}),
		Proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_total",
			Help:      "Assistant proposals by status",
		}, []string{"status"}),
		OpenEngine: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_maps",
			Help:      "Maps currently held open for editing",
		}),
		Saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Background saves by status",
		}, []string{"status"}),
		SaveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "save_duration_seconds",
			Help:      "Background save duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Mutations,
		c.PatchOps,
		c.Imports,
		c.Proposals,
		c.OpenEngine,
		c.Saves,
		c.SaveDuration,
	)
	return c
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Mutation counts a committed graph change.
func (c *Collector) Mutation(source string) {
	c.Mutations.WithLabelValues(source).Inc()
}

// PatchApplied counts patch operations.
func (c *Collector) PatchApplied(applied, skipped int) {
	c.PatchOps.WithLabelValues("applied").Add(float64(applied))
	c.PatchOps.WithLabelValues("skipped").Add(float64(skipped))
}

// ObserveSave records a background save. Its signature matches
// persistence.SaveObserver.
func (c *Collector) ObserveSave(_ string, took time.Duration, err error) {
	c.Saves.WithLabelValues(status(err)).Inc()
	c.SaveDuration.Observe(took.Seconds())
}

// ObserveHTTP records a served request.
func (c *Collector) ObserveHTTP(method, route string, code int, took time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// Import counts an import attempt.
func (c *Collector) Import(format string, err error) {
	if format == "" {
		format = "unknown"
	}
	c.Imports.WithLabelValues(format, status(err)).Inc()
}

// Proposal counts a request to the assistant.
func (c *Collector) Proposal(err error) {
	c.Proposals.WithLabelValues(status(err)).Inc()
}

// SetOpenMaps reports how many maps are open.
func (c *Collector) SetOpenMaps(n int) {
	c.OpenEngine.Set(float64(n))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
