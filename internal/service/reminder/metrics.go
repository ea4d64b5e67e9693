package reminder

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zhouzirui/reminder-bot/backend/internal/model/intent"
)

// Metrics holds the Prometheus collectors of the reminder service. Each
// instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	Messages         *prometheus.CounterVec
	RemindersAdded   prometheus.Counter
	RemindersFired   prometheus.Counter
	RemindersCleared prometheus.Counter
	ActiveSessions   prometheus.Gauge
	PendingReminders prometheus.Gauge
}

// NewMetrics creates and registers the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Inbound chat lines by parsed intent",
			},
			[]string{"kind"},
		),
		RemindersAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_scheduled_total",
			Help:      "Reminders scheduled",
		}),
		RemindersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Due notifications sent",
		}),
		RemindersCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_cancelled_total",
			Help:      "Reminders cancelled before firing",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Open chat sessions",
		}),
		PendingReminders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_reminders",
			Help:      "Reminders waiting to fire across all sessions",
		}),
	}

	m.registry.MustRegister(
		m.Messages,
		m.RemindersAdded,
		m.RemindersFired,
		m.RemindersCleared,
		m.ActiveSessions,
		m.PendingReminders,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeMessage(kind intent.Kind) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) scheduled() {
	if m == nil {
		return
	}
	m.RemindersAdded.Inc()
	m.PendingReminders.Inc()
}

func (m *Metrics) fired() {
	if m == nil {
		return
	}
	m.RemindersFired.Inc()
	m.PendingReminders.Dec()
}

func (m *Metrics) cancelled(n int) {
	if m == nil || n == 0 {
		return
	}
	m.RemindersCleared.Add(float64(n))
	m.PendingReminders.Sub(float64(n))
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}
