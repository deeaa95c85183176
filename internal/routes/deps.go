package routes

import (
	"github.com/dukerupert/qrprime/internal/handler/api"
	"github.com/dukerupert/qrprime/internal/handler/webhook"
	"github.com/dukerupert/qrprime/internal/middleware"
	"github.com/dukerupert/qrprime/internal/router"
)

// APIDeps contains dependencies for the authenticated subscription routes.
type APIDeps struct {
	BillingHandler *api.BillingHandler

	// Authenticate resolves the bearer token into an account.
	Authenticate router.Middleware

	// RateLimiter throttles checkout and portal creation. Optional.
	RateLimiter *middleware.RateLimiter
}

// AdminDeps contains dependencies for the admin billing routes.
type AdminDeps struct {
	AdminHandler *api.AdminHandler
	Authenticate router.Middleware
}

// WebhookDeps contains dependencies for webhook routes
type WebhookDeps struct {
	StripeHandler *webhook.StripeHandler
}
