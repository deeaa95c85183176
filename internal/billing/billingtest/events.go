// Package billingtest builds signed Stripe webhook fixtures for tests.
package billingtest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// Secret is the webhook signing secret used by fixtures.
const Secret = "whsec_test_secret"

// Sign returns the Stripe-Signature header for payload, signed now.
func Sign(payload []byte, secret string) string {
	return SignAt(payload, secret, time.Now())
}

// SignAt returns the Stripe-Signature header for payload signed at ts.
func SignAt(payload []byte, secret string, ts time.Time) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: ts,
		Scheme:    "v1",
	})
	return signed.Header
}

// Event wraps object in a Stripe event envelope.
func Event(id, eventType string, created time.Time, object map[string]any) []byte {
	b, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"created":     created.Unix(),
		"api_version": "2025-04-30.basil",
		"data":        map[string]any{"object": object},
	})
	if err != nil {
		panic(fmt.Sprintf("billingtest: marshal event: %v", err))
	}
	return b
}

// Subscription describes a customer.subscription.* object.
type Subscription struct {
	ID                string
	Customer          string
	PriceID           string
	Status            string
	PeriodStart       time.Time
	PeriodEnd         time.Time
	CancelAtPeriodEnd bool
	TrialStart        time.Time
	TrialEnd          time.Time

	// PeriodOnItems places the billing period on the first item instead
	// of the subscription, as newer API versions do.
	PeriodOnItems bool
}

func unixOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}

// Object renders s as a Stripe subscription object.
func (s Subscription) Object() map[string]any {
	item := map[string]any{
		"id":     "si_" + s.ID,
		"object": "subscription_item",
		"price":  map[string]any{"id": s.PriceID, "object": "price"},
	}
	obj := map[string]any{
		"id":                   s.ID,
		"object":               "subscription",
		"customer":             s.Customer,
		"status":               s.Status,
		"cancel_at_period_end": s.CancelAtPeriodEnd,
		"trial_start":          unixOrNil(s.TrialStart),
		"trial_end":            unixOrNil(s.TrialEnd),
		"metadata":             map[string]string{},
		"items":                map[string]any{"object": "list", "data": []any{item}},
	}
	if s.PeriodOnItems {
		item["current_period_start"] = unixOrNil(s.PeriodStart)
		item["current_period_end"] = unixOrNil(s.PeriodEnd)
	} else {
		obj["current_period_start"] = unixOrNil(s.PeriodStart)
		obj["current_period_end"] = unixOrNil(s.PeriodEnd)
	}
	return obj
}

// Invoice describes an invoice.payment_* object.
type Invoice struct {
	ID            string
	Customer      string
	Subscription  string
	PaymentIntent string
	AmountPaid    int64
	AmountDue     int64
	Currency      string
	HostedURL     string

	// PaymentOnPayments places the payment intent under payments.data
	// instead of the top-level field, as newer API versions do.
	PaymentOnPayments bool
}

// Object renders i as a Stripe invoice object.
func (i Invoice) Object() map[string]any {
	obj := map[string]any{
		"id":                 i.ID,
		"object":             "invoice",
		"customer":           i.Customer,
		"subscription":       i.Subscription,
		"amount_paid":        i.AmountPaid,
		"amount_due":         i.AmountDue,
		"currency":           i.Currency,
		"hosted_invoice_url": i.HostedURL,
		"attempt_count":      1,
	}
	switch {
	case i.PaymentIntent == "":
		obj["payment_intent"] = nil
	case i.PaymentOnPayments:
		obj["payments"] = map[string]any{
			"object": "list",
			"data": []any{map[string]any{
				"payment": map[string]any{"type": "payment_intent", "payment_intent": i.PaymentIntent},
			}},
		}
	default:
		obj["payment_intent"] = i.PaymentIntent
	}
	return obj
}

// CheckoutSession renders a completed checkout session object.
func CheckoutSession(id, customer string, metadata map[string]string) map[string]any {
	var cust any
	if customer != "" {
		cust = customer
	}
	return map[string]any{
		"id":       id,
		"object":   "checkout.session",
		"customer": cust,
		"mode":     "subscription",
		"metadata": metadata,
	}
}
