package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the subscription relay.
type BusinessMetrics struct {
	// Intake
	IntakeRequests        *prometheus.CounterVec
	SubscriptionsCreated  *prometheus.CounterVec
	SubscriptionsCanceled *prometheus.CounterVec
	OrphanCustomers       prometheus.Counter

	// Webhooks
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookFailed    *prometheus.CounterVec
	WebhookLatency   *prometheus.HistogramVec

	// Side effects that never fail an event
	LedgerErrors  *prometheus.CounterVec
	PublishErrors prometheus.Counter

	// External API performance
	StripeAPILatency *prometheus.HistogramVec
}

// NewBusinessMetrics creates the metrics and registers them on reg.
// Tests pass prometheus.NewRegistry(); production passes the default registerer.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "paysync"
	}

	subsystem := "business"
	factory := promauto.With(reg)

	return &BusinessMetrics{
		// =======================================================================
		// Intake
		// =======================================================================
		IntakeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "intake_requests_total",
				Help:      "Subscription intake requests by result",
			},
			[]string{"result"}, // result: success, processor_error
		),
		SubscriptionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "subscriptions_created_total",
				Help:      "Subscriptions created, by source",
			},
			[]string{"source"}, // source: intake, webhook
		),
		SubscriptionsCanceled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "subscriptions_canceled_total",
				Help:      "Subscriptions moved to canceled by a webhook",
			},
			[]string{"previous_status"},
		),
		OrphanCustomers: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orphan_customers_total",
				Help:      "Processor customers left without a subscription after a failed intake",
			},
		),

		// =======================================================================
		// Webhooks
		// =======================================================================
		WebhookReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Total webhooks received",
			},
			[]string{"provider", "event_type"},
		),
		WebhookProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processed_total",
				Help:      "Webhooks handled without error, by outcome",
			},
			[]string{"provider", "event_type", "outcome"},
		),
		WebhookFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Webhooks rejected or failed, by reason",
			},
			[]string{"provider", "event_type", "reason"}, // reason: signature, payload, store
		),
		WebhookLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_latency_seconds",
				Help:      "Webhook processing time",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"provider", "event_type"},
		),

		LedgerErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "ledger_errors_total",
				Help:      "Event ledger lookups or writes that failed",
			},
			[]string{"op"}, // op: seen, record
		),
		PublishErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "status_publish_errors_total",
				Help:      "Status change notifications that could not be published",
			},
		),

		// =======================================================================
		// External APIs
		// =======================================================================
		StripeAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stripe_api_latency_seconds",
				Help:      "Stripe API call latency",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
	}
}

// ObserveStripeLatency matches billing.WithLatencyObserver.
func (m *BusinessMetrics) ObserveStripeLatency(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.StripeAPILatency.WithLabelValues(operation).Observe(d.Seconds())
}
