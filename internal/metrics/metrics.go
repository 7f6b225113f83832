// Package metrics holds the console's prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "admin_console"

type Metrics struct {
	registry *prometheus.Registry

	logins          *prometheus.CounterVec
	sessionsEnded   *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	guardDecisions  *prometheus.CounterVec
	backendRequests *prometheus.HistogramVec
	smsFailures     prometheus.Counter
	newItems        *prometheus.CounterVec
	transitions     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions ended by reason.",
		}, []string{"reason"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held by the session store.",
		}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions by outcome.",
		}, []string{"decision"}),
		backendRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of Diamond Host backend calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "outcome"}),
		smsFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sms_failures_total",
			Help:      "Decision SMS notifications that could not be delivered.",
		}),
		newItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_new_items_total",
			Help:      "Items first seen by the pollers, by resource.",
		}, []string{"resource"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Estate and post decisions applied, by entity and target state.",
		}, []string{"entity", "state"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.logins,
		m.sessionsEnded,
		m.activeSessions,
		m.guardDecisions,
		m.backendRequests,
		m.smsFailures,
		m.newItems,
		m.transitions,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionEnded(reason string) {
	if m == nil {
		return
	}
	m.sessionsEnded.WithLabelValues(reason).Inc()
}

func (m *Metrics) ActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) GuardDecision(decision string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) BackendRequest(endpoint string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.backendRequests.WithLabelValues(endpoint, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) SMSFailure() {
	if m == nil {
		return
	}
	m.smsFailures.Inc()
}

func (m *Metrics) NewItems(resource string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.newItems.WithLabelValues(resource).Add(float64(n))
}

func (m *Metrics) Transition(entity, state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(entity, state).Inc()
}
