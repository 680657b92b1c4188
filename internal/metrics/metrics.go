// Package metrics exposes Prometheus instrumentation for matching and HTTP traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lostfound"

// Match outcomes
const (
	OutcomeMatched     = "matched"
	OutcomeEmptyCorpus = "empty_corpus"
	OutcomeInvalid     = "invalid"
	OutcomeStoreError  = "store_error"
	OutcomeError       = "error"
)

// Metrics holds every collector the service reports. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	MatchRequestsTotal  *prometheus.CounterVec
	MatchDuration       *prometheus.HistogramVec
	CorpusSize          *prometheus.GaugeVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
// Passing a fresh prometheus.NewRegistry() keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		MatchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_requests_total",
				Help:      "Total number of match requests",
			},
			[]string{"strategy", "outcome"},
		),
		MatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "match_duration_seconds",
				Help:      "Time spent producing one match set",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"strategy"},
		),
		CorpusSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "corpus_size",
				Help:      "Number of records in the corpus last matched against",
			},
			[]string{"type"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.MatchRequestsTotal,
		m.MatchDuration,
		m.CorpusSize,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// ObserveMatch records one FindMatches call.
func (m *Metrics) ObserveMatch(strategy, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.MatchRequestsTotal.WithLabelValues(strategy, outcome).Inc()
	m.MatchDuration.WithLabelValues(strategy).Observe(took.Seconds())
}

// SetCorpusSize records the size of the corpus of the given type.
func (m *Metrics) SetCorpusSize(itemType string, n int) {
	if m == nil {
		return
	}
	m.CorpusSize.WithLabelValues(itemType).Set(float64(n))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
