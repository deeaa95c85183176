package service

import (
	"github.com/dukerupert/qrprime/internal/billing"
	"github.com/dukerupert/qrprime/internal/domain"
)

// Checkout errors
var (
	ErrPlanNotFound           = domain.Errorf(domain.ENOTFOUND, "", "Plan not found")
	ErrPlanInactive           = domain.Errorf(domain.EINVALID, "", "Plan is not available")
	ErrFreePlanNotPurchasable = domain.Errorf(domain.EINVALID, "", "The free plan does not require checkout")
	ErrPlanNotBillable        = domain.Errorf(domain.EINTERNAL, "", "Plan is not configured for billing")
)

// Account billing errors
var (
	ErrNoBillingAccount = domain.Errorf(domain.ENOTFOUND, "", "No billing account found")
)

// Provider errors
var (
	ErrProviderUnavailable = domain.Errorf(domain.EUNAVAILABLE, "", "Billing provider is temporarily unavailable")
)

// Webhook errors
var (
	ErrInvalidSignature = domain.Errorf(domain.EINVALID, "", "Invalid webhook signature")
	ErrMalformedEvent   = domain.Errorf(domain.EINVALID, "", "Malformed webhook event")
)

// providerError classifies a billing provider failure. Timeouts, connection
// errors and rate limits are retryable; everything else is internal.
func providerError(op string, err error) error {
	if billing.IsTemporary(err) {
		return domain.WithOp(ErrProviderUnavailable, op, err)
	}
	return domain.Internal(err, op, "billing provider request failed")
}
