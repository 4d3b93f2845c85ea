package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "paintdesk"

// LifecycleMetrics counts paint request lifecycle events.
type LifecycleMetrics struct {
	created              prometheus.Counter
	transitions          *prometheus.CounterVec
	codeCollisions       prometheus.Counter
	notificationFailures prometheus.Counter
}

// NewLifecycleMetrics registers the lifecycle counters on reg. A nil registerer
// yields a no-op recorder.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_created_total",
		Help:      "Paint requests created.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_transitions_total",
		Help:      "Applied paint request status transitions.",
	}, []string{"from", "to"})
	collisions := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_code_collisions_total",
		Help:      "Request code allocations rejected as duplicates.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_persist_failures_total",
		Help:      "Notifications that could not be stored after a lifecycle event.",
	})
	reg.MustRegister(created, transitions, collisions, failures)
	return &LifecycleMetrics{
		created:              created,
		transitions:          transitions,
		codeCollisions:       collisions,
		notificationFailures: failures,
	}
}

func (m *LifecycleMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

func (m *LifecycleMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *LifecycleMetrics) IncCodeCollision() {
	if m == nil || m.codeCollisions == nil {
		return
	}
	m.codeCollisions.Inc()
}

func (m *LifecycleMetrics) IncNotificationFailure() {
	if m == nil || m.notificationFailures == nil {
		return
	}
	m.notificationFailures.Inc()
}

// StatusGauge publishes the current number of requests per status.
type StatusGauge struct {
	gauge *prometheus.GaugeVec
}

func NewStatusGauge(reg prometheus.Registerer) *StatusGauge {
	if reg == nil {
		return &StatusGauge{}
	}
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "requests_by_status",
		Help:      "Paint requests currently in each status.",
	}, []string{"status"})
	reg.MustRegister(gauge)
	return &StatusGauge{gauge: gauge}
}

// Set replaces the published counts. Statuses missing from counts drop to zero.
func (g *StatusGauge) Set(statuses []string, counts map[string]int64) {
	if g == nil || g.gauge == nil {
		return
	}
	for _, status := range statuses {
		g.gauge.WithLabelValues(normalizeLabel(status)).Set(float64(counts[status]))
	}
}
