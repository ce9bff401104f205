// Package metrics exposes Prometheus instrumentation for the HTTP layer and domain writes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so tests and multiple servers never collide on registration
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	RecipeWrites     *prometheus.CounterVec
	RelationChanges  *prometheus.CounterVec
	RateLimited      prometheus.Counter
	ShoppingDownload prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodgram_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foodgram_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RecipeWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodgram_recipe_writes_total",
				Help: "Recipe aggregate writes by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		RelationChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodgram_relation_changes_total",
				Help: "Follow, favorite and shopping cart toggles by outcome",
			},
			[]string{"relation", "action", "outcome"},
		),
		RateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "foodgram_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
		ShoppingDownload: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "foodgram_shopping_list_downloads_total",
				Help: "Shopping lists rendered",
			},
		),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Outcome labels an operation result
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveRecipeWrite is nil-safe so services can run without instrumentation
func (m *Metrics) ObserveRecipeWrite(operation string, err error) {
	if m == nil {
		return
	}
	m.RecipeWrites.WithLabelValues(operation, Outcome(err)).Inc()
}

func (m *Metrics) ObserveRelation(relation, action string, err error) {
	if m == nil {
		return
	}
	m.RelationChanges.WithLabelValues(relation, action, Outcome(err)).Inc()
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

func (m *Metrics) IncShoppingDownload() {
	if m == nil {
		return
	}
	m.ShoppingDownload.Inc()
}
