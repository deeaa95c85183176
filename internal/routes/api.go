package routes

import (
	"github.com/dukerupert/qrprime/internal/middleware"
	"github.com/dukerupert/qrprime/internal/router"
)

// RegisterAPIRoutes registers the subscription endpoints used by the
// dashboard. Every route requires a valid bearer token.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	api := r.Group(deps.Authenticate)

	// Session creation talks to Stripe, so it is rate limited per account.
	writes := []router.Middleware{middleware.MaxBodySize(middleware.DefaultMaxBodySize)}
	if deps.RateLimiter != nil {
		writes = append(writes, deps.RateLimiter.Middleware)
	}

	api.Post("/api/subscriptions/checkout-session", deps.BillingHandler.CreateCheckoutSession, writes...)
	api.Post("/api/subscriptions/portal-session", deps.BillingHandler.CreatePortalSession, writes...)

	api.Get("/api/subscriptions/status", deps.BillingHandler.GetStatus)
	api.Get("/api/subscriptions/history", deps.BillingHandler.GetHistory)
}
