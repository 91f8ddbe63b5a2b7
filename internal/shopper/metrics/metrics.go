package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a unit-of-work save.
const (
	OutcomeCommitted = "committed"
	OutcomeConflict  = "conflict"
	OutcomeFailed    = "failed"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics provides observability for the shopper service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SaveDuration       *prometheus.HistogramVec
	StagedOperations   *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec
}

// New registers every shopper metric with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SaveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shopper_session_save_duration_seconds",
			Help:    "Duration of unit-of-work saves by outcome",
			Buckets: latencyBuckets,
		}, []string{"outcome"}),
		StagedOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shopper_staged_operations_total",
			Help: "Operations staged in a unit of work, by kind and entity",
		}, []string{"op", "entity"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shopper_validation_failures_total",
			Help: "Rejected writes by aggregate",
		}, []string{"entity"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shopper_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shopper_events_published_total",
			Help: "Domain events handed to the broker, by type and result",
		}, []string{"type", "result"}),
	}
}

// ObserveSave records a save that started at start.
func (m *Metrics) ObserveSave(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.SaveDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncStaged(op, entity string) {
	if m == nil {
		return
	}
	m.StagedOperations.WithLabelValues(op, entity).Inc()
}

func (m *Metrics) IncValidationFailure(entity string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(entity).Inc()
}

func (m *Metrics) IncHTTPRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// IncEventPublished counts a publish attempt; err decides the result label.
func (m *Metrics) IncEventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(eventType, result).Inc()
}
