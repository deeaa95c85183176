package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dukerupert/qrprime/internal/billing"
	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/dukerupert/qrprime/internal/events"
	"github.com/dukerupert/qrprime/internal/repository"
	"github.com/dukerupert/qrprime/internal/telemetry"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

// WebhookConfig controls how subscription events are applied.
type WebhookConfig struct {
	// StrictOrdering drops events older than the stored state and never
	// reopens a canceled subscription. Off, the latest delivery wins.
	StrictOrdering bool
}

// WebhookProcessor turns verified provider events into subscription and
// payment state.
//
// Every handler is safe to run more than once for the same event and
// concurrently with deliveries of other events: writes are single-statement
// upserts or dedup-inserts keyed on provider ids.
type WebhookProcessor struct {
	verifier      billing.WebhookVerifier
	customers     *CustomerDirectory
	subscriptions SubscriptionStore
	payments      PaymentStore
	publisher     events.Publisher
	config        WebhookConfig
	metrics       *telemetry.BusinessMetrics
	logger        *slog.Logger
}

// NewWebhookProcessor creates a WebhookProcessor.
func NewWebhookProcessor(
	verifier billing.WebhookVerifier,
	customers *CustomerDirectory,
	subscriptions SubscriptionStore,
	payments PaymentStore,
	publisher events.Publisher,
	config WebhookConfig,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) *WebhookProcessor {
	return &WebhookProcessor{
		verifier:      verifier,
		customers:     customers,
		subscriptions: subscriptions,
		payments:      payments,
		publisher:     publisher,
		config:        config,
		metrics:       metrics,
		logger:        logger.With("service", "webhook"),
	}
}

// ProcessEvent verifies and applies one webhook delivery.
//
// A nil error acknowledges the delivery. ErrInvalidSignature and
// ErrMalformedEvent reject it permanently; any other error asks the
// provider to redeliver.
func (p *WebhookProcessor) ProcessEvent(ctx context.Context, payload []byte, signature string) error {
	const op = "webhook.process"
	start := time.Now()

	ev, err := p.verifier.ParseEvent(payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidWebhookSignature):
			p.metrics.WebhookFailed.WithLabelValues("unknown", "signature").Inc()
			p.logger.Warn("webhook signature verification failed", "error", err)
			return domain.WithOp(ErrInvalidSignature, op, err)
		case errors.Is(err, billing.ErrMalformedEvent):
			p.metrics.WebhookFailed.WithLabelValues("unknown", "malformed").Inc()
			p.logger.Error("malformed webhook event", "error", err)
			telemetry.CaptureError(ctx, err, nil)
			return domain.WithOp(ErrMalformedEvent, op, err)
		default:
			return domain.Internal(err, op, "failed to parse webhook event")
		}
	}

	logger := p.logger.With("event_id", ev.ID, "event_type", ev.Type)
	p.metrics.WebhookReceived.WithLabelValues(ev.Type).Inc()

	switch payload := ev.Payload.(type) {
	case *billing.CheckoutCompleted:
		err = p.handleCheckoutCompleted(ctx, logger, payload)
	case *billing.SubscriptionChanged:
		err = p.handleSubscriptionChanged(ctx, logger, ev, payload)
	case *billing.InvoicePaid:
		err = p.handleInvoicePaid(ctx, logger, ev, payload)
	case *billing.InvoicePaymentFailed:
		err = p.handleInvoicePaymentFailed(ctx, logger, ev, payload)
	default:
		logger.Debug("ignoring unhandled event type")
	}

	p.metrics.WebhookLatency.WithLabelValues(ev.Type).Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.WebhookFailed.WithLabelValues(ev.Type, "storage").Inc()
		logger.Error("failed to process webhook event", "error", err)
		telemetry.CaptureError(ctx, err, map[string]any{"event_id": ev.ID, "event_type": ev.Type})
		if domain.ErrorCode(err) == domain.EINTERNAL {
			return err
		}
		return domain.Internal(err, op, "failed to process webhook event")
	}

	p.metrics.WebhookProcessed.WithLabelValues(ev.Type).Inc()
	return nil
}

func (p *WebhookProcessor) handleCheckoutCompleted(ctx context.Context, logger *slog.Logger, c *billing.CheckoutCompleted) error {
	userID := c.Metadata["userId"]
	if userID == "" || c.CustomerID == "" {
		logger.Debug("checkout session carries no account link", "session_id", c.SessionID)
		return nil
	}
	accountID, err := uuid.Parse(userID)
	if err != nil {
		logger.Warn("checkout session has invalid userId metadata",
			"session_id", c.SessionID, "user_id", userID)
		return nil
	}

	linked, err := p.customers.LinkCustomer(ctx, accountID, c.CustomerID)
	if err != nil {
		return err
	}
	logger.Info("checkout session completed",
		"session_id", c.SessionID,
		"account_id", accountID,
		"customer_id", c.CustomerID,
		"newly_linked", linked)
	return nil
}

// resolveAccount looks up the account behind a provider customer. A missing
// mapping is reported but is not an error: redelivery cannot fix it.
func (p *WebhookProcessor) resolveAccount(ctx context.Context, logger *slog.Logger, eventID, eventType, customerID string) (uuid.UUID, bool, error) {
	accountID, found, err := p.customers.LookupByCustomer(ctx, customerID)
	if err != nil || found {
		return accountID, found, err
	}

	p.metrics.MappingMissing.WithLabelValues(eventType).Inc()
	telemetry.CaptureMessage(ctx, "no account mapped to billing customer", sentry.LevelError, map[string]any{
		"event_id":    eventID,
		"event_type":  eventType,
		"customer_id": customerID,
	})
	p.publish(ctx, logger, events.SubjectMappingMissing, events.MappingMissing{
		CustomerID: customerID,
		EventID:    eventID,
		EventType:  eventType,
	})
	return uuid.Nil, false, nil
}

func (p *WebhookProcessor) handleSubscriptionChanged(ctx context.Context, logger *slog.Logger, ev *billing.Event, s *billing.SubscriptionChanged) error {
	logger = logger.With("subscription_id", s.SubscriptionID, "customer_id", s.CustomerID)

	status := domain.StatusCanceled
	if s.Action != billing.SubscriptionDeleted {
		var ok bool
		status, ok = domain.ParseSubscriptionStatus(s.Status)
		if !ok {
			logger.Error("subscription event has unsupported status", "status", s.Status)
			telemetry.CaptureMessage(ctx, "unsupported subscription status", sentry.LevelError, map[string]any{
				"event_id": ev.ID,
				"status":   s.Status,
			})
			return nil
		}
	}

	accountID, found, err := p.resolveAccount(ctx, logger, ev.ID, ev.Type, s.CustomerID)
	if err != nil {
		return err
	}
	if !found {
		logger.Error("no account mapped to subscription customer; event acknowledged without write")
		return nil
	}

	res, err := p.subscriptions.UpsertSubscription(ctx, repository.UpsertSubscriptionParams{
		AccountID:          accountID,
		SubscriptionID:     s.SubscriptionID,
		PriceID:            s.PriceID,
		Status:             status,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		TrialStart:         s.TrialStart,
		TrialEnd:           s.TrialEnd,
		EventID:            ev.ID,
		EventAt:            ev.Created,
		StrictOrdering:     p.config.StrictOrdering,
	})
	if err != nil {
		return domain.Internal(err, "webhook.subscription", "failed to store subscription")
	}

	if !res.Applied {
		reason := "stale"
		stored, err := p.subscriptions.GetSubscription(ctx, s.SubscriptionID)
		switch {
		case err != nil:
			// The event is still acknowledged; only the skip reason is unknown.
			logger.Warn("could not classify skipped subscription event", "error", err)
		case stored.LastEventID == ev.ID:
			reason = "duplicate"
		}
		p.metrics.SubscriptionSkipped.WithLabelValues(reason).Inc()
		logger.Info("subscription event left state unchanged", "reason", reason, "status", status)
		return nil
	}

	var from string
	switch {
	case res.Created:
		from = "new"
	case res.PreviousStatus == "":
		// A concurrent delivery created the row first.
		from = "unknown"
	default:
		from = string(res.PreviousStatus)
		if !domain.CanTransition(res.PreviousStatus, status) {
			logger.Warn("unexpected subscription status transition",
				"from", res.PreviousStatus, "to", status)
		}
	}
	p.metrics.SubscriptionTransitions.WithLabelValues(from, string(status)).Inc()
	logger.Info("subscription stored",
		"account_id", accountID,
		"previous_status", res.PreviousStatus,
		"status", status,
		"cancel_at_period_end", s.CancelAtPeriodEnd)

	p.publish(ctx, logger, events.SubjectSubscriptionChanged, events.SubscriptionChanged{
		AccountID:         accountID,
		SubscriptionID:    s.SubscriptionID,
		PriceID:           s.PriceID,
		PreviousStatus:    string(res.PreviousStatus),
		Status:            string(status),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		CurrentPeriodEnd:  s.CurrentPeriodEnd,
		EventID:           ev.ID,
	})
	return nil
}

func (p *WebhookProcessor) handleInvoicePaid(ctx context.Context, logger *slog.Logger, ev *billing.Event, inv *billing.InvoicePaid) error {
	logger = logger.With("invoice_id", inv.InvoiceID, "customer_id", inv.CustomerID)

	// Verification invoices can be paid before a payment intent exists.
	if inv.PaymentIntentID == "" {
		logger.Info("invoice has no payment intent; nothing to record")
		return nil
	}

	accountID, found, err := p.resolveAccount(ctx, logger, ev.ID, ev.Type, inv.CustomerID)
	if err != nil {
		return err
	}
	var account *uuid.UUID
	if found {
		account = &accountID
	} else {
		logger.Warn("recording payment without an account", "payment_intent_id", inv.PaymentIntentID)
	}

	amount := domain.NewMoney(inv.AmountPaid, inv.Currency)
	payment, inserted, err := p.payments.InsertPayment(ctx, repository.InsertPaymentParams{
		AccountID:       account,
		PaymentIntentID: inv.PaymentIntentID,
		InvoiceID:       inv.InvoiceID,
		Amount:          amount,
		Status:          domain.PaymentStatusSucceeded,
		ReceiptURL:      inv.HostedInvoiceURL,
		EventID:         ev.ID,
	})
	if err != nil {
		return domain.Internal(err, "webhook.invoice_paid", "failed to record payment")
	}
	if !inserted {
		logger.Info("payment already recorded", "payment_intent_id", inv.PaymentIntentID)
		return nil
	}

	p.metrics.PaymentsRecorded.WithLabelValues(amount.Currency).Inc()
	p.metrics.RevenueCollected.WithLabelValues(amount.Currency).Add(float64(amount.Minor))
	if account == nil {
		p.metrics.PaymentsOrphaned.Inc()
	}
	logger.Info("payment recorded",
		"payment_intent_id", payment.PaymentIntentID,
		"amount", amount.String(),
		"account_resolved", found)

	p.publish(ctx, logger, events.SubjectPaymentRecorded, events.PaymentRecorded{
		AccountID:       account,
		PaymentIntentID: inv.PaymentIntentID,
		InvoiceID:       inv.InvoiceID,
		AmountMinor:     amount.Minor,
		Amount:          amount.Major(),
		Currency:        amount.Currency,
		ReceiptURL:      inv.HostedInvoiceURL,
		EventID:         ev.ID,
	})
	return nil
}

func (p *WebhookProcessor) handleInvoicePaymentFailed(ctx context.Context, logger *slog.Logger, ev *billing.Event, inv *billing.InvoicePaymentFailed) error {
	logger = logger.With("invoice_id", inv.InvoiceID, "customer_id", inv.CustomerID)

	var account *uuid.UUID
	accountID, found, err := p.customers.LookupByCustomer(ctx, inv.CustomerID)
	switch {
	case err != nil:
		logger.Warn("could not resolve account for failed payment", "error", err)
	case found:
		account = &accountID
	}

	amount := domain.NewMoney(inv.AmountDue, inv.Currency)
	p.metrics.PaymentFailed.WithLabelValues(amount.Currency).Inc()
	logger.Warn("invoice payment failed",
		"subscription_id", inv.SubscriptionID,
		"amount_due", amount.String(),
		"attempt_count", inv.AttemptCount)

	p.publish(ctx, logger, events.SubjectPaymentFailed, events.PaymentFailed{
		AccountID:      account,
		CustomerID:     inv.CustomerID,
		InvoiceID:      inv.InvoiceID,
		SubscriptionID: inv.SubscriptionID,
		AmountDue:      inv.AmountDue,
		Currency:       amount.Currency,
		AttemptCount:   inv.AttemptCount,
		EventID:        ev.ID,
	})
	return nil
}

// publish sends a notification. Failures never fail the delivery.
func (p *WebhookProcessor) publish(ctx context.Context, logger *slog.Logger, subject string, data any) {
	if err := p.publisher.Publish(ctx, subject, data); err != nil {
		logger.Warn("failed to publish billing notification", "subject", subject, "error", err)
	}
}
