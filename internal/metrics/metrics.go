// Package metrics holds the Prometheus instruments for the registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ParticipantsCreated prometheus.Counter
	ParticipantsUpdated prometheus.Counter
	ParticipantsDeleted prometheus.Counter
	EmailConflicts      prometheus.Counter
	RequestDuration     *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the metrics and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ParticipantsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "participant_registry_participants_created_total",
			Help: "Total number of participants registered",
		}),
		ParticipantsUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "participant_registry_participants_updated_total",
			Help: "Total number of participant updates applied",
		}),
		ParticipantsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "participant_registry_participants_deleted_total",
			Help: "Total number of participants deleted",
		}),
		EmailConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "participant_registry_email_conflicts_total",
			Help: "Writes rejected because the email was already registered",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "participant_registry_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.ParticipantsCreated.Inc()
	}
}

func (m *Metrics) IncrementUpdated() {
	if m != nil {
		m.ParticipantsUpdated.Inc()
	}
}

func (m *Metrics) IncrementDeleted() {
	if m != nil {
		m.ParticipantsDeleted.Inc()
	}
}

func (m *Metrics) IncrementConflicts() {
	if m != nil {
		m.EmailConflicts.Inc()
	}
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, method, status).Observe(seconds)
	}
}
