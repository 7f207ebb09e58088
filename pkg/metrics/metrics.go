// Package metrics exports layout, cache, store and HTTP activity as
// Prometheus metrics by implementing the observability hooks.
//
// Register the hooks once at startup and serve [Handler] on /metrics:
//
//	metrics.Register()
//	r.Handle("/metrics", metrics.Handler())
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/mindlayout/pkg/observability"
)

var (
	LayoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindlayout_layouts_total",
			Help: "Total number of layout computations",
		},
		[]string{"engine", "status"},
	)

	LayoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindlayout_layout_duration_seconds",
			Help:    "Duration of layout computations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"engine"},
	)

	LayoutIterations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindlayout_layout_iterations",
			Help:    "Iterations run per layout computation",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"engine"},
	)

	LayoutNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindlayout_layout_nodes",
			Help: "Node count of the most recent layout input",
		},
	)

	CacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindlayout_cache_events_total",
			Help: "Cache hits, misses and writes",
		},
		[]string{"key_type", "event"},
	)

	StoreOps = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindlayout_store_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindlayout_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindlayout_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)
)

// Register installs the Prometheus hooks in the observability registry.
func Register() {
	observability.SetPipelineHooks(PipelineHooks{})
	observability.SetCacheHooks(CacheHooks{})
	observability.SetStoreHooks(StoreHooks{})
	observability.SetHTTPHooks(HTTPHooks{})
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// PipelineHooks records layout runs.
type PipelineHooks struct {
	observability.NoopPipelineHooks
}

func (PipelineHooks) OnLayoutStart(_ context.Context, _ string, nodeCount int) {
	LayoutNodes.Set(float64(nodeCount))
}

func (PipelineHooks) OnLayoutComplete(_ context.Context, engine string, iterations int, _ bool, d time.Duration, err error) {
	LayoutsTotal.WithLabelValues(engine, status(err)).Inc()
	if err != nil {
		return
	}
	LayoutDuration.WithLabelValues(engine).Observe(d.Seconds())
	LayoutIterations.WithLabelValues(engine).Observe(float64(iterations))
}

// CacheHooks counts cache events.
type CacheHooks struct{}

func (CacheHooks) OnCacheHit(_ context.Context, keyType string) {
	CacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (CacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	CacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (CacheHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	CacheEvents.WithLabelValues(keyType, "set").Inc()
}

// StoreHooks times store reads and writes.
type StoreHooks struct{}

func (StoreHooks) OnStoreLoad(_ context.Context, backend string, _ int, d time.Duration, err error) {
	StoreOps.WithLabelValues(backend, "load", status(err)).Observe(d.Seconds())
}

func (StoreHooks) OnStoreSave(_ context.Context, backend string, _ int, d time.Duration, err error) {
	StoreOps.WithLabelValues(backend, "save", status(err)).Observe(d.Seconds())
}

// HTTPHooks records served requests.
type HTTPHooks struct{}

func (HTTPHooks) OnRequest(_ context.Context, method, route string, code int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
