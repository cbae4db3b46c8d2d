package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		webhookRejectedTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment transitions by channel and resulting status.",
		},
		[]string{"channel", "status"},
	)

	webhookRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_webhook_rejected_total",
			Help: "Card webhook deliveries rejected for a bad signature.",
		},
	)
)

func IncPayment(channel, status string) {
	paymentsTotal.WithLabelValues(norm(channel), norm(status)).Inc()
}

func IncWebhookRejected() {
	webhookRejectedTotal.Inc()
}
