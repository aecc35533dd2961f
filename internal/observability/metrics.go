package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ivd-portal/inscription-service/internal/domain"
)

const namespace = "ivd"

// Metrics holds the service's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec

	registrations   *prometheus.CounterVec
	validations     prometheus.Counter
	reconcileRuns   prometheus.Counter
	reconcileFlags  *prometheus.CounterVec
	reconcileLength prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "API errors by route and error code",
		}, []string{"method", "route", "code"}),
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inscriptions",
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome",
		}, []string{"result"}),
		validations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inscriptions",
			Name:      "validations_total",
			Help:      "Inscriptions transitioned to validated",
		}),
		reconcileRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Reconciliation runs",
		}),
		reconcileFlags: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "flag_changes_total",
			Help:      "Review flag changes by direction and reason",
		}, []string{"change", "reason"}),
		reconcileLength: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "inscriptions_evaluated",
			Help:      "Inscriptions evaluated per reconciliation run",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 7),
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Convocatoria rule cache lookups by outcome",
		}, []string{"outcome"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, route, code).Inc()
}

// RecordRegistration counts a registration attempt; result is an eligibility
// result, "REGISTERED" or an error code.
func (m *Metrics) RecordRegistration(result string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(result).Inc()
}

// RecordValidation counts a first-time validation.
func (m *Metrics) RecordValidation() {
	if m == nil {
		return
	}
	m.validations.Inc()
}

// RecordReconcile counts one reconciliation run and its flag changes.
func (m *Metrics) RecordReconcile(evaluated int, flagged map[domain.EligibilityResult]int, cleared int) {
	if m == nil {
		return
	}
	m.reconcileRuns.Inc()
	m.reconcileLength.Observe(float64(evaluated))
	for reason, n := range flagged {
		m.reconcileFlags.WithLabelValues("flagged", string(reason)).Add(float64(n))
	}
	if cleared > 0 {
		m.reconcileFlags.WithLabelValues("cleared", string(domain.Eligible)).Add(float64(cleared))
	}
}

// RecordCacheLookup counts a rule cache hit, miss or error.
func (m *Metrics) RecordCacheLookup(outcome string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}
