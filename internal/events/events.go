// Package events publishes billing notifications for downstream consumers
// such as the mailer and dashboards. Publishing is fire-and-forget: a
// failed publish is reported to the caller but never changes billing state.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Subjects published by the billing core.
const (
	SubjectSubscriptionChanged = "billing.subscription.changed"
	SubjectPaymentRecorded     = "billing.payment.recorded"
	SubjectPaymentFailed       = "billing.payment.failed"
	SubjectMappingMissing      = "billing.mapping.missing"
)

// Publisher sends a notification on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
	Close() error
}

// Sourced is implemented by payloads derived from a provider event.
type Sourced interface {
	SourceEventID() string
}

// MessageID returns the broker dedup id for data published on subject. A
// redelivered provider event yields the same id; other payloads get a
// random one.
func MessageID(subject string, data any) string {
	if s, ok := data.(Sourced); ok && s.SourceEventID() != "" {
		return s.SourceEventID() + ":" + subject
	}
	return uuid.NewString()
}

// Envelope wraps every published payload.
type Envelope struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// SubscriptionChanged is published when stored subscription state changes.
type SubscriptionChanged struct {
	AccountID         uuid.UUID  `json:"account_id"`
	SubscriptionID    string     `json:"subscription_id"`
	PriceID           string     `json:"price_id"`
	PreviousStatus    string     `json:"previous_status,omitempty"`
	Status            string     `json:"status"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	EventID           string     `json:"event_id"`
}

// PaymentRecorded is published when a payment is appended to the ledger.
type PaymentRecorded struct {
	AccountID       *uuid.UUID `json:"account_id"`
	PaymentIntentID string     `json:"payment_intent_id"`
	InvoiceID       string     `json:"invoice_id,omitempty"`
	AmountMinor     int64      `json:"amount_minor"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	ReceiptURL      string     `json:"receipt_url,omitempty"`
	EventID         string     `json:"event_id"`
}

// PaymentFailed is published for invoice payment failures.
type PaymentFailed struct {
	AccountID      *uuid.UUID `json:"account_id"`
	CustomerID     string     `json:"customer_id"`
	InvoiceID      string     `json:"invoice_id"`
	SubscriptionID string     `json:"subscription_id,omitempty"`
	AmountDue      int64      `json:"amount_due"`
	Currency       string     `json:"currency"`
	AttemptCount   int64      `json:"attempt_count"`
	EventID        string     `json:"event_id"`
}

// MappingMissing is published when an event names a provider customer that
// has no local account.
type MappingMissing struct {
	CustomerID string `json:"customer_id"`
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
}

func (e SubscriptionChanged) SourceEventID() string { return e.EventID }
func (e PaymentRecorded) SourceEventID() string { return e.EventID }
func (e PaymentFailed) SourceEventID() string { return e.EventID }
func (e MappingMissing) SourceEventID() string { return e.EventID }

// NopPublisher discards every notification. It is used when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

func (NopPublisher) Close() error { return nil }
