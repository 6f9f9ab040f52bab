// Package metrics exposes relay queue activity as Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	relaymodel "game-relayer/go-backend/internal/domains/relay/model"
)

const namespace = "relayer"

// Relay implements the queue observer on its own registry.
type Relay struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	attempts      *prometheus.CounterVec
	conflicts     prometheus.Counter
	depth         prometheus.Gauge
	duration      *prometheus.HistogramVec
	rateLimited   prometheus.Counter
	httpResponses *prometheus.CounterVec
}

// New registers the relay collectors plus the Go and process collectors.
func New() *Relay {
	r := &Relay{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Relay requests resolved, by action and outcome.",
		}, []string{"action", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_attempts_total",
			Help:      "Transactions handed to the chain, by operation and whether it was the nonce retry.",
		}, []string{"operation", "retry"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nonce_conflicts_total",
			Help:      "Submissions rejected because the nonce was already used.",
		}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Requests waiting behind the one being submitted.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from enqueue to terminal outcome.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "HTTP requests rejected by the per-client limiter.",
		}),
		httpResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_responses_total",
			Help:      "Relay endpoint responses by status code.",
		}, []string{"code"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.requests,
		r.attempts,
		r.conflicts,
		r.depth,
		r.duration,
		r.rateLimited,
		r.httpResponses,
	)
	return r
}

func (r *Relay) QueueDepth(depth int) {
	r.depth.Set(float64(depth))
}

func (r *Relay) SubmissionAttempt(operation relaymodel.Operation, retry bool) {
	r.attempts.WithLabelValues(string(operation), strconv.FormatBool(retry)).Inc()
}

func (r *Relay) NonceConflict() {
	r.conflicts.Inc()
}

func (r *Relay) RequestCompleted(action, outcome string, elapsed time.Duration) {
	r.requests.WithLabelValues(action, outcome).Inc()
	r.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (r *Relay) RateLimited() {
	r.rateLimited.Inc()
}

func (r *Relay) HTTPResponse(code int) {
	r.httpResponses.WithLabelValues(strconv.Itoa(code)).Inc()
}

// Registry is exposed for tests and additional collectors.
func (r *Relay) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Relay) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
