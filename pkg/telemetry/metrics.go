package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "nao"

// Metrics holds the session metrics.
type Metrics struct {
	Turns          *prometheus.CounterVec
	Intents        *prometheus.CounterVec
	Actions        *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
	Scene          prometheus.Gauge
	Sessions       *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	Notices        *prometheus.CounterVec
}

// NewMetrics registers the metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "turns_total",
			Help:      "Turns taken, by routing result (matched, unhandled, none).",
		}, []string{"result"}),

		Intents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "intents_total",
			Help:      "Detected intents.",
		}, []string{"intent"}),

		Actions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "actions_total",
			Help:      "Executed actions, by channel and status.",
		}, []string{"channel", "status"}),

		ActionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "action_duration_seconds",
			Help:      "Action execution time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),

		Scene: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "scene",
			Help:      "Current scene of the running session.",
		}),

		Sessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sessions_total",
			Help:      "Finished sessions, by result (ok, error).",
		}, []string{"result"}),

		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently running.",
		}),

		Notices: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "recognition_notices_total",
			Help:      "Recognition notices, by finality.",
		}, []string{"final"}),
	}
}
