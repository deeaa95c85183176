package routes

import (
	"github.com/dukerupert/qrprime/internal/middleware"
	"github.com/dukerupert/qrprime/internal/router"
)

// RegisterAdminRoutes registers the admin billing listings.
// All routes are protected by authentication and the admin role check.
func RegisterAdminRoutes(r *router.Router, deps AdminDeps) {
	admin := r.Group(deps.Authenticate, middleware.RequireAdmin)

	admin.Get("/api/admin/payments", deps.AdminHandler.ListPayments)
	admin.Get("/api/admin/subscribers", deps.AdminHandler.ListSubscribers)
}
