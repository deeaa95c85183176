package billing

import (
	"errors"
	"strings"
	"time"
)

const (
	defaultTimeout          = 10 * time.Second
	defaultWebhookTolerance = 300 * time.Second
)

// StripeConfig contains configuration for the Stripe provider.
type StripeConfig struct {
	// APIKey is the Stripe secret key (sk_test_... or sk_live_...)
	APIKey string

	// WebhookSecret is the webhook signing secret (whsec_...)
	WebhookSecret string

	// MaxRetries is the number of network retries stripe-go performs for
	// idempotent-safe failures. Default: 2
	MaxRetries int

	// TimeoutSeconds bounds every API call. Default: 10
	TimeoutSeconds int

	// WebhookTolerance is the maximum accepted age of a signed delivery.
	// Default: 5 minutes
	WebhookTolerance time.Duration

	// BaseURL overrides the API endpoint. Only used by tests.
	BaseURL string
}

// Validate checks that required configuration is present.
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return ErrInvalidAPIKey
	}
	if c.WebhookSecret == "" {
		return errors.New("stripe: webhook secret is required")
	}
	return nil
}

// IsTestMode returns true if using test mode API keys.
func (c *StripeConfig) IsTestMode() bool {
	return strings.HasPrefix(c.APIKey, "sk_test_")
}

// Timeout returns the per-call timeout.
func (c *StripeConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *StripeConfig) tolerance() time.Duration {
	if c.WebhookTolerance <= 0 {
		return defaultWebhookTolerance
	}
	return c.WebhookTolerance
}
