// Package metrics exposes Prometheus metrics for the proxy: request
// outcomes, cache effectiveness, savings, routing decisions, and backend
// health.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns every metric the proxy records. All methods are safe for
// concurrent use.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge

	cacheLookupsTotal *prometheus.CounterVec
	cacheEntries      prometheus.Gauge
	savingsTotal      *prometheus.CounterVec

	routingDecisionsTotal *prometheus.CounterVec
	routingFailuresTotal  *prometheus.CounterVec

	backendRequestsTotal *prometheus.CounterVec
	backendLatency       *prometheus.HistogramVec

	tokensTotal *prometheus.CounterVec
	costTotal   *prometheus.CounterVec

	embeddingRequestsTotal *prometheus.CounterVec
	storeErrorsTotal       *prometheus.CounterVec
}

// NewCollector creates a collector with all metrics registered under the
// vesta namespace. If registry is nil a fresh one is created.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	const ns = "vesta"

	c := &Collector{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "requests_total",
			Help:      "Completed proxy requests by model, cache outcome, and status.",
		}, []string{"model", "cache_outcome", "status"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "request_duration_seconds",
			Help:      "End-to-end request duration.",
			// LLM-shaped buckets: cache hits land in the first two, backend
			// calls spread across the rest.
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}, []string{"model"}),

		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "active_requests",
			Help:      "Requests currently in flight.",
		}),

		cacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by outcome (exact, semantic, miss).",
		}, []string{"outcome"}),

		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "cache_entries",
			Help:      "Live cached responses.",
		}),

		savingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_savings_usd_total",
			Help:      "Accumulated cache savings in USD (gross and net).",
		}, []string{"kind"}),

		routingDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "routing_decisions_total",
			Help:      "Router decisions by strategy and selected model.",
		}, []string{"strategy", "model"}),

		routingFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "routing_failures_total",
			Help:      "Router selection failures by strategy.",
		}, []string{"strategy"}),

		backendRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "backend_requests_total",
			Help:      "Backend invocations by model and status.",
		}, []string{"model", "status"}),

		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "backend_latency_seconds",
			Help:      "Backend invocation latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}, []string{"model"}),

		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "tokens_total",
			Help:      "Tokens processed by model and direction (input, output).",
		}, []string{"model", "type"}),

		costTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cost_usd_total",
			Help:      "Accumulated inference spend in USD by model.",
		}, []string{"model"}),

		embeddingRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "embedding_requests_total",
			Help:      "Embedding service calls by status (ok, error).",
		}, []string{"status"}),

		storeErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "store_errors_total",
			Help:      "Cache store failures by operation.",
		}, []string{"op"}),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.activeRequests,
		c.cacheLookupsTotal,
		c.cacheEntries,
		c.savingsTotal,
		c.routingDecisionsTotal,
		c.routingFailuresTotal,
		c.backendRequestsTotal,
		c.backendLatency,
		c.tokensTotal,
		c.costTotal,
		c.embeddingRequestsTotal,
		c.storeErrorsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Handler returns the scrape endpoint handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRequest records one completed proxy request.
func (c *Collector) RecordRequest(model, cacheOutcome, status string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(model, cacheOutcome, status).Inc()
	c.requestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RequestStarted and RequestFinished maintain the in-flight gauge.
func (c *Collector) RequestStarted()  { c.activeRequests.Inc() }
func (c *Collector) RequestFinished() { c.activeRequests.Dec() }

// RecordCacheLookup records one cache lookup outcome.
func (c *Collector) RecordCacheLookup(outcome string) {
	c.cacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// SetCacheEntries updates the live entry gauge.
func (c *Collector) SetCacheEntries(n int) {
	c.cacheEntries.Set(float64(n))
}

// RecordSavings adds a hit's savings to the counters.
func (c *Collector) RecordSavings(gross, net float64) {
	if gross > 0 {
		c.savingsTotal.WithLabelValues("gross").Add(gross)
	}
	if net > 0 {
		c.savingsTotal.WithLabelValues("net").Add(net)
	}
}

// RecordRoutingDecision records which strategy picked which model.
func (c *Collector) RecordRoutingDecision(strategy, model string) {
	c.routingDecisionsTotal.WithLabelValues(strategy, model).Inc()
}

// RecordBackendRequest records one backend invocation.
func (c *Collector) RecordBackendRequest(model, status string, latency time.Duration) {
	c.backendRequestsTotal.WithLabelValues(model, status).Inc()
	c.backendLatency.WithLabelValues(model).Observe(latency.Seconds())
}

// RecordCost adds spend to the per-model cost counter.
func (c *Collector) RecordCost(model string, usd float64) {
	if usd > 0 {
		c.costTotal.WithLabelValues(model).Add(usd)
	}
}

// RecordTokens adds input and output token counts for a model.
func (c *Collector) RecordTokens(model string, input, output int) {
	if input > 0 {
		c.tokensTotal.WithLabelValues(model, "input").Add(float64(input))
	}
	if output > 0 {
		c.tokensTotal.WithLabelValues(model, "output").Add(float64(output))
	}
}

// RecordRoutingFailure records a strategy that produced no eligible model.
func (c *Collector) RecordRoutingFailure(strategy string) {
	c.routingFailuresTotal.WithLabelValues(strategy).Inc()
}

// RecordEmbeddingRequest records one embedding service call.
func (c *Collector) RecordEmbeddingRequest(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	c.embeddingRequestsTotal.WithLabelValues(status).Inc()
}

// RecordStoreError records a cache store failure for an operation.
func (c *Collector) RecordStoreError(op string) {
	c.storeErrorsTotal.WithLabelValues(op).Inc()
}
