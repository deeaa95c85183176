package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// Stripe event types this service acts on.
const (
	EventCheckoutCompleted       = "checkout.session.completed"
	EventSubscriptionCreated     = "customer.subscription.created"
	EventSubscriptionUpdated     = "customer.subscription.updated"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventInvoicePaymentFailed    = "invoice.payment_failed"
)

// Event is a verified webhook delivery. Payload holds exactly one of the
// payload types below; unrecognised event types carry *UnknownEvent.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Payload Payload
}

// Payload is implemented by the per-type event schemas.
type Payload interface {
	payload()
}

// CheckoutCompleted is decoded from checkout.session.completed.
type CheckoutCompleted struct {
	SessionID  string
	CustomerID string // empty when the session created no customer
	Metadata   map[string]string
}

// SubscriptionAction distinguishes the three subscription lifecycle events.
type SubscriptionAction string

const (
	SubscriptionCreated SubscriptionAction = "created"
	SubscriptionUpdated SubscriptionAction = "updated"
	SubscriptionDeleted SubscriptionAction = "deleted"
)

// SubscriptionChanged is decoded from customer.subscription.*.
type SubscriptionChanged struct {
	Action             SubscriptionAction
	SubscriptionID     string
	CustomerID         string
	PriceID            string
	Status             string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	TrialStart         *time.Time
	TrialEnd           *time.Time
	Metadata           map[string]string
}

// InvoicePaid is decoded from invoice.payment_succeeded.
type InvoicePaid struct {
	InvoiceID        string
	CustomerID       string
	SubscriptionID   string
	PaymentIntentID  string // empty for invoices settled without a charge
	AmountPaid       int64  // minor units
	Currency         string
	HostedInvoiceURL string
}

// InvoicePaymentFailed is decoded from invoice.payment_failed.
type InvoicePaymentFailed struct {
	InvoiceID      string
	CustomerID     string
	SubscriptionID string
	AmountDue      int64
	Currency       string
	AttemptCount   int64
}

// UnknownEvent stands in for event types this service does not handle.
type UnknownEvent struct{}

func (*CheckoutCompleted) payload()    {}
func (*SubscriptionChanged) payload()  {}
func (*InvoicePaid) payload()          {}
func (*InvoicePaymentFailed) payload() {}
func (*UnknownEvent) payload()         {}

// StripeWebhook verifies Stripe-Signature headers and decodes events.
type StripeWebhook struct {
	secret    string
	tolerance time.Duration
}

// NewStripeWebhook creates a verifier for one endpoint secret.
func NewStripeWebhook(config StripeConfig) *StripeWebhook {
	return &StripeWebhook{secret: config.WebhookSecret, tolerance: config.tolerance()}
}

// ParseEvent implements WebhookVerifier.
func (w *StripeWebhook) ParseEvent(payload []byte, signature string) (*Event, error) {
	if w.secret == "" {
		return nil, fmt.Errorf("%w: no signing secret configured", ErrInvalidWebhookSignature)
	}
	if err := webhook.ValidatePayloadWithTolerance(payload, signature, w.secret, w.tolerance); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWebhookSignature, err)
	}
	return DecodeEvent(payload)
}

// envelope is the subset of the Stripe event object every type shares.
// The account's API version does not matter here: only fields present in
// every version since 2020 are read, with fallbacks where they moved.
type envelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// DecodeEvent decodes an already-verified payload.
func DecodeEvent(payload []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.ID == "" || env.Type == "" {
		return nil, fmt.Errorf("%w: missing id or type", ErrMalformedEvent)
	}

	ev := &Event{
		ID:      env.ID,
		Type:    env.Type,
		Created: time.Unix(env.Created, 0).UTC(),
	}

	var err error
	switch env.Type {
	case EventCheckoutCompleted:
		ev.Payload, err = decodeCheckoutSession(env.Data.Object)
	case EventSubscriptionCreated:
		ev.Payload, err = decodeSubscription(env.Data.Object, SubscriptionCreated)
	case EventSubscriptionUpdated:
		ev.Payload, err = decodeSubscription(env.Data.Object, SubscriptionUpdated)
	case EventSubscriptionDeleted:
		ev.Payload, err = decodeSubscription(env.Data.Object, SubscriptionDeleted)
	case EventInvoicePaymentSucceeded:
		ev.Payload, err = decodeInvoicePaid(env.Data.Object)
	case EventInvoicePaymentFailed:
		ev.Payload, err = decodeInvoiceFailed(env.Data.Object)
	default:
		ev.Payload = &UnknownEvent{}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrMalformedEvent, env.Type, env.ID, err)
	}
	return ev, nil
}

// expandableID accepts either a bare id or an expanded object with an id.
type expandableID string

func (e *expandableID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*e = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = expandableID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

func unixPtr(v *int64) *time.Time {
	if v == nil || *v == 0 {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}

type checkoutSessionObject struct {
	ID       string            `json:"id"`
	Customer expandableID      `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

func decodeCheckoutSession(raw json.RawMessage) (*CheckoutCompleted, error) {
	var obj checkoutSessionObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj.ID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	return &CheckoutCompleted{
		SessionID:  obj.ID,
		CustomerID: string(obj.Customer),
		Metadata:   obj.Metadata,
	}, nil
}

type subscriptionItemObject struct {
	Price struct {
		ID string `json:"id"`
	} `json:"price"`
	CurrentPeriodStart *int64 `json:"current_period_start"`
	CurrentPeriodEnd   *int64 `json:"current_period_end"`
}

type subscriptionObject struct {
	ID                 string            `json:"id"`
	Customer           expandableID      `json:"customer"`
	Status             string            `json:"status"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CurrentPeriodStart *int64            `json:"current_period_start"`
	CurrentPeriodEnd   *int64            `json:"current_period_end"`
	TrialStart         *int64            `json:"trial_start"`
	TrialEnd           *int64            `json:"trial_end"`
	Metadata           map[string]string `json:"metadata"`
	Items              struct {
		Data []subscriptionItemObject `json:"data"`
	} `json:"items"`
}

func decodeSubscription(raw json.RawMessage, action SubscriptionAction) (*SubscriptionChanged, error) {
	var obj subscriptionObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	switch {
	case obj.ID == "":
		return nil, fmt.Errorf("subscription id is required")
	case obj.Customer == "":
		return nil, fmt.Errorf("customer is required")
	case obj.Status == "":
		return nil, fmt.Errorf("status is required")
	}

	sc := &SubscriptionChanged{
		Action:             action,
		SubscriptionID:     obj.ID,
		CustomerID:         string(obj.Customer),
		Status:             obj.Status,
		CancelAtPeriodEnd:  obj.CancelAtPeriodEnd,
		CurrentPeriodStart: unixPtr(obj.CurrentPeriodStart),
		CurrentPeriodEnd:   unixPtr(obj.CurrentPeriodEnd),
		TrialStart:         unixPtr(obj.TrialStart),
		TrialEnd:           unixPtr(obj.TrialEnd),
		Metadata:           obj.Metadata,
	}

	// Newer API versions moved the billing period onto the items.
	if len(obj.Items.Data) > 0 {
		item := obj.Items.Data[0]
		sc.PriceID = item.Price.ID
		if sc.CurrentPeriodStart == nil {
			sc.CurrentPeriodStart = unixPtr(item.CurrentPeriodStart)
		}
		if sc.CurrentPeriodEnd == nil {
			sc.CurrentPeriodEnd = unixPtr(item.CurrentPeriodEnd)
		}
	}
	return sc, nil
}

type invoiceObject struct {
	ID               string       `json:"id"`
	Customer         expandableID `json:"customer"`
	Subscription     expandableID `json:"subscription"`
	PaymentIntent    expandableID `json:"payment_intent"`
	AmountPaid       int64        `json:"amount_paid"`
	AmountDue        int64        `json:"amount_due"`
	Currency         string       `json:"currency"`
	HostedInvoiceURL string       `json:"hosted_invoice_url"`
	AttemptCount     int64        `json:"attempt_count"`

	// Newer API versions: invoice.parent.subscription_details.subscription
	// and invoice.payments.data[].payment.payment_intent.
	Parent struct {
		SubscriptionDetails struct {
			Subscription expandableID `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
	Payments struct {
		Data []struct {
			Payment struct {
				PaymentIntent expandableID `json:"payment_intent"`
			} `json:"payment"`
		} `json:"data"`
	} `json:"payments"`
}

func (o *invoiceObject) subscriptionID() string {
	if o.Subscription != "" {
		return string(o.Subscription)
	}
	return string(o.Parent.SubscriptionDetails.Subscription)
}

func (o *invoiceObject) paymentIntentID() string {
	if o.PaymentIntent != "" {
		return string(o.PaymentIntent)
	}
	for _, p := range o.Payments.Data {
		if p.Payment.PaymentIntent != "" {
			return string(p.Payment.PaymentIntent)
		}
	}
	return ""
}

// defaultInvoiceCurrency matches the payments.currency column default.
const defaultInvoiceCurrency = "usd"

func decodeInvoice(raw json.RawMessage) (*invoiceObject, error) {
	var obj invoiceObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	switch {
	case obj.ID == "":
		return nil, fmt.Errorf("invoice id is required")
	case obj.Customer == "":
		return nil, fmt.Errorf("customer is required")
	}
	if obj.Currency == "" {
		obj.Currency = defaultInvoiceCurrency
	}
	return &obj, nil
}

func decodeInvoicePaid(raw json.RawMessage) (*InvoicePaid, error) {
	obj, err := decodeInvoice(raw)
	if err != nil {
		return nil, err
	}
	return &InvoicePaid{
		InvoiceID:        obj.ID,
		CustomerID:       string(obj.Customer),
		SubscriptionID:   obj.subscriptionID(),
		PaymentIntentID:  obj.paymentIntentID(),
		AmountPaid:       obj.AmountPaid,
		Currency:         obj.Currency,
		HostedInvoiceURL: obj.HostedInvoiceURL,
	}, nil
}

func decodeInvoiceFailed(raw json.RawMessage) (*InvoicePaymentFailed, error) {
	obj, err := decodeInvoice(raw)
	if err != nil {
		return nil, err
	}
	return &InvoicePaymentFailed{
		InvoiceID:      obj.ID,
		CustomerID:     string(obj.Customer),
		SubscriptionID: obj.subscriptionID(),
		AmountDue:      obj.AmountDue,
		Currency:       obj.Currency,
		AttemptCount:   obj.AttemptCount,
	}, nil
}
