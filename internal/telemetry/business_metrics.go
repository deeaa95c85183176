package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for billing observability.
type BusinessMetrics struct {
	// Checkout funnel
	CheckoutStarted *prometheus.CounterVec
	CheckoutCreated *prometheus.CounterVec
	CheckoutFailed  *prometheus.CounterVec
	PortalSessions  prometheus.Counter

	// Webhooks
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookFailed    *prometheus.CounterVec
	WebhookLatency   *prometheus.HistogramVec

	// Subscriptions
	SubscriptionTransitions *prometheus.CounterVec
	SubscriptionSkipped     *prometheus.CounterVec
	MappingMissing          *prometheus.CounterVec

	// Revenue tracking
	PaymentsRecorded *prometheus.CounterVec
	PaymentsOrphaned prometheus.Counter
	PaymentFailed    *prometheus.CounterVec
	RevenueCollected *prometheus.CounterVec

	// External API performance
	StripeAPILatency *prometheus.HistogramVec
}

// NewBusinessMetrics creates the billing metrics and registers them with reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate
// registration against the default registry.
func NewBusinessMetrics(reg prometheus.Registerer, namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "qrprime"
	}
	factory := promauto.With(reg)

	subsystem := "billing"

	return &BusinessMetrics{
		// =======================================================================
		// Checkout Funnel
		// =======================================================================
		CheckoutStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Total checkout session requests",
			},
			[]string{"plan_id"},
		),
		CheckoutCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_created_total",
				Help:      "Total checkout sessions created at the provider",
			},
			[]string{"plan_id"},
		),
		CheckoutFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_failed_total",
				Help:      "Total checkout requests that did not produce a session",
			},
			[]string{"reason"}, // reason: plan_not_found, plan_inactive, free_plan, not_billable, provider
		),
		PortalSessions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "portal_sessions_total",
				Help:      "Total billing portal sessions created",
			},
		),

		// =======================================================================
		// Webhooks (Stripe)
		// =======================================================================
		WebhookReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Total webhooks received with a valid signature",
			},
			[]string{"event_type"},
		),
		WebhookProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processed_total",
				Help:      "Total webhooks acknowledged",
			},
			[]string{"event_type"},
		),
		WebhookFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Total webhook deliveries rejected",
			},
			[]string{"event_type", "error_type"}, // error_type: signature, malformed, storage
		),
		WebhookLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processing_seconds",
				Help:      "Webhook processing duration",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"event_type"},
		),

		// =======================================================================
		// Subscriptions
		// =======================================================================
		SubscriptionTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "subscription_transitions_total",
				Help:      "Subscription status changes applied to local state",
			},
			[]string{"from", "to"}, // from is "new" for first writes, "unknown" when a concurrent write created the row
		),
		SubscriptionSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "subscription_events_skipped_total",
				Help:      "Subscription events that left stored state unchanged",
			},
			[]string{"reason"}, // reason: duplicate, stale
		),
		MappingMissing: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "customer_mapping_missing_total",
				Help:      "Events referencing a provider customer with no local account",
			},
			[]string{"event_type"},
		),

		// =======================================================================
		// Revenue Tracking
		// =======================================================================
		PaymentsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payments_recorded_total",
				Help:      "Payments appended to the ledger",
			},
			[]string{"currency"},
		),
		PaymentsOrphaned: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payments_orphaned_total",
				Help:      "Payments recorded without a resolved account",
			},
		),
		PaymentFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_failed_total",
				Help:      "Invoice payment failures reported by the provider",
			},
			[]string{"currency"},
		),
		RevenueCollected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "revenue_collected_minor_total",
				Help:      "Revenue collected in the currency's minor units",
			},
			[]string{"currency"},
		),

		// =======================================================================
		// External API Performance
		// =======================================================================
		StripeAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stripe_api_duration_seconds",
				Help:      "Stripe API call duration (helps differentiate app slowness from Stripe issues)",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"}, // operation: create_customer, create_checkout_session, create_portal_session
		),
	}
}
