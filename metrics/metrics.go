package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pushci",
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries received, by event type.",
		},
		[]string{"event"},
	)
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pushci",
			Name:      "runs_total",
			Help:      "Completed push runs, by final commit status.",
		},
		[]string{"state"},
	)
	stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pushci",
			Name:      "step_duration_seconds",
			Help:      "Duration of each pipeline step.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"step"},
	)
	statusUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pushci",
			Name:      "status_updates_total",
			Help:      "Commit status updates sent to the host, by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Register()
}

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			webhookEventsTotal,
			runsTotal,
			stepDuration,
			statusUpdatesTotal,
		)
	})
}

// ObserveWebhookEvent counts a delivery. Event types outside push and ping
// are folded into "other" so the label set stays bounded.
func ObserveWebhookEvent(event string) {
	webhookEventsTotal.WithLabelValues(eventLabel(event)).Inc()
}

func eventLabel(event string) string {
	switch event {
	case "push", "ping":
		return event
	case "":
		return "unknown"
	default:
		return "other"
	}
}

func ObserveRun(state string) {
	runsTotal.WithLabelValues(state).Inc()
}

func ObserveStep(step string, duration time.Duration) {
	stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

func ObserveStatusUpdate(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	statusUpdatesTotal.WithLabelValues(result).Inc()
}
