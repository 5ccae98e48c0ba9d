package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrderTransitions counts successful order mutations by kind and resulting status.
	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Successful order mutations",
		},
		[]string{"action", "status"},
	)

	// NotificationsTotal counts notification attempts by channel and outcome.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification delivery attempts",
		},
		[]string{"channel", "outcome"},
	)

	// RemindersTotal counts reminder batch results per order.
	RemindersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_reminders_total",
			Help: "Delivery reminders processed by the daily batch",
		},
		[]string{"outcome"},
	)

	// ReminderRuns counts reminder batch executions.
	ReminderRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_reminder_runs_total",
			Help: "Delivery reminder batch runs",
		},
		[]string{"outcome"},
	)

	// MailBreakerState tracks the SMTP circuit breaker (0=closed, 1=open, 2=half-open).
	MailBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mail_circuit_breaker_state",
			Help: "SMTP circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
	)
)

// Handler exposes the default registry on a Fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
