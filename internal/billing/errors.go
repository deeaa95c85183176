package billing

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/stripe/stripe-go/v82"
)

var (
	// ErrInvalidAPIKey is returned when the provider key is missing.
	ErrInvalidAPIKey = errors.New("billing: invalid or missing API key")

	// ErrInvalidWebhookSignature is returned when a delivery fails
	// signature verification.
	ErrInvalidWebhookSignature = errors.New("billing: invalid webhook signature")

	// ErrMalformedEvent is returned when a known event type lacks a field
	// its schema requires.
	ErrMalformedEvent = errors.New("billing: malformed event")

	// ErrIdempotencyConflict is returned when an idempotency key was reused
	// with different parameters.
	ErrIdempotencyConflict = errors.New("billing: idempotency key conflict")
)

// StripeError wraps a Stripe API error with additional context.
type StripeError struct {
	Message        string // Human-readable error message
	Code           string // Stripe error code (e.g. "resource_missing")
	Type           string // Stripe error type (e.g. "invalid_request_error")
	DeclineCode    string // Card decline reason, if any
	HTTPStatusCode int
	RequestID      string // Stripe request ID for debugging
	OriginalError  error
}

func (e *StripeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("stripe: %s", e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.OriginalError
}

// IsDeclined returns true if the error is a card decline.
func (e *StripeError) IsDeclined() bool {
	return e.Code == string(stripe.ErrorCodeCardDeclined) || e.DeclineCode != ""
}

// IsTemporary returns true if the error is transient and the call may be
// retried.
func (e *StripeError) IsTemporary() bool {
	switch {
	case e.HTTPStatusCode == http.StatusTooManyRequests:
		return true
	case e.HTTPStatusCode >= http.StatusInternalServerError:
		return true
	case e.Code == "rate_limit", e.Code == "lock_timeout":
		return true
	case e.Type == "api_connection_error":
		return true
	}
	return false
}

// IsTemporary reports whether err from a Provider call is worth retrying:
// timeouts, connection failures and provider-side throttling or outages.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var se *StripeError
	if errors.As(err, &se) {
		return se.IsTemporary()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// translateError converts a stripe-go error into a *StripeError. Errors that
// did not come from the Stripe API (timeouts, DNS) are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return err
	}

	se := &StripeError{
		Message:        stripeErr.Msg,
		Code:           string(stripeErr.Code),
		Type:           string(stripeErr.Type),
		DeclineCode:    string(stripeErr.DeclineCode),
		HTTPStatusCode: stripeErr.HTTPStatusCode,
		RequestID:      stripeErr.RequestID,
		OriginalError:  err,
	}
	if stripeErr.Type == stripe.ErrorTypeIdempotency {
		se.OriginalError = fmt.Errorf("%w: %w", ErrIdempotencyConflict, err)
	}
	return se
}
