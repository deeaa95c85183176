package billing

import (
	"context"
	"time"
)

// Provider is the outbound side of the billing provider: the calls this
// service makes to create customers, hosted sessions and catalog entries.
// Inbound webhooks are handled by WebhookVerifier.
type Provider interface {
	// CreateCustomer creates a customer record tagged with the account id.
	// IdempotencyKey makes retries of the same creation return the same
	// customer instead of a duplicate.
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// CreateCheckoutSession creates a hosted subscription checkout and
	// returns its redirect URL.
	CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// CreatePortalSession creates a hosted billing-management session.
	CreatePortalSession(ctx context.Context, params CreatePortalSessionParams) (*PortalSession, error)

	// CreateProduct creates a catalog product for a plan.
	CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error)

	// CreateRecurringPrice creates a recurring price for a product.
	CreateRecurringPrice(ctx context.Context, params CreateRecurringPriceParams) (*Price, error)
}

// WebhookVerifier authenticates and decodes inbound webhook deliveries.
type WebhookVerifier interface {
	// ParseEvent verifies signature against the exact payload bytes and
	// decodes the event. It returns ErrInvalidWebhookSignature on a bad
	// signature and ErrMalformedEvent when a known event type is missing
	// required fields.
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// CreateCustomerParams contains parameters for creating a customer.
type CreateCustomerParams struct {
	Email          string
	Name           string
	Metadata       map[string]string
	IdempotencyKey string
}

// Customer represents a billing customer.
type Customer struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// CreateCheckoutSessionParams describes a hosted subscription checkout.
type CreateCheckoutSessionParams struct {
	CustomerID string
	PriceID    string

	// TrialPeriodDays is applied to the subscription created by the session.
	// Zero means no trial.
	TrialPeriodDays int64

	// Metadata is attached to both the session and the subscription it
	// creates, so either event can be traced back to the account.
	Metadata map[string]string

	// SuccessURL may contain the {CHECKOUT_SESSION_ID} placeholder.
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a created hosted checkout.
type CheckoutSession struct {
	ID  string
	URL string
}

// CreatePortalSessionParams contains parameters for a billing portal session.
type CreatePortalSessionParams struct {
	CustomerID string
	ReturnURL  string
}

// PortalSession is a created billing portal session.
type PortalSession struct {
	ID  string
	URL string
}

// CreateProductParams contains parameters for creating a product.
type CreateProductParams struct {
	Name           string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

// Product represents a catalog product.
type Product struct {
	ID   string
	Name string
}

// CreateRecurringPriceParams contains parameters for a recurring price.
type CreateRecurringPriceParams struct {
	ProductID      string
	UnitAmount     int64  // minor units
	Currency       string // ISO 4217, lower case
	Interval       string // "month" or "year"
	Metadata       map[string]string
	IdempotencyKey string
}

// Price represents a recurring price.
type Price struct {
	ID         string
	ProductID  string
	UnitAmount int64
	Currency   string
	Interval   string
}
