package routes

import (
	"github.com/dukerupert/qrprime/internal/middleware"
	"github.com/dukerupert/qrprime/internal/router"
)

// RegisterWebhookRoutes registers webhook endpoints.
// These are authenticated by payload signature, not by bearer token.
func RegisterWebhookRoutes(r *router.Router, deps WebhookDeps) {
	r.Post("/api/webhooks/stripe", deps.StripeHandler.HandleWebhook,
		middleware.MaxBodySize(middleware.WebhookMaxBodySize))
}
