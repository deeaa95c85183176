// Package api holds the JSON handlers for the subscription and admin
// billing endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/dukerupert/qrprime/internal/handler"
	"github.com/dukerupert/qrprime/internal/middleware"
	"github.com/dukerupert/qrprime/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CheckoutStarter is implemented by *service.CheckoutService.
type CheckoutStarter interface {
	StartCheckout(ctx context.Context, params service.StartCheckoutParams) (string, error)
}

// AccountBilling is implemented by *service.AccountBillingService.
type AccountBilling interface {
	GetSubscriptionStatus(ctx context.Context, accountID uuid.UUID) (domain.SubscriptionSummary, error)
	GetPaymentHistory(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error)
	CreatePortalSession(ctx context.Context, accountID uuid.UUID) (string, error)
}

// BillingHandler serves the authenticated /api/subscriptions routes.
type BillingHandler struct {
	checkout CheckoutStarter
	billing  AccountBilling
	validate *validator.Validate
}

// NewBillingHandler creates a BillingHandler.
func NewBillingHandler(checkout CheckoutStarter, billing AccountBilling) *BillingHandler {
	return &BillingHandler{
		checkout: checkout,
		billing:  billing,
		validate: newValidator(),
	}
}

type checkoutSessionRequest struct {
	PlanID string `json:"planId" validate:"required,uuid"`
}

// CreateCheckoutSession handles POST /api/subscriptions/checkout-session.
func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccountFromContext(r.Context())
	if account == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	var req checkoutSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handler.ValidationErrorResponse(w, r, validationError("checkout.request", err))
		return
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		handler.ValidationErrorResponse(w, r, domain.NewValidationError("checkout.request", "planId", "planId must be a UUID"))
		return
	}

	url, err := h.checkout.StartCheckout(r.Context(), service.StartCheckoutParams{
		AccountID:    account.ID,
		AccountEmail: account.Email,
		PlanID:       planID,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, urlResponse{URL: url})
}

// CreatePortalSession handles POST /api/subscriptions/portal-session.
func (h *BillingHandler) CreatePortalSession(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccountFromContext(r.Context())
	if account == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	url, err := h.billing.CreatePortalSession(r.Context(), account.ID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, urlResponse{URL: url})
}

// GetStatus handles GET /api/subscriptions/status.
func (h *BillingHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccountFromContext(r.Context())
	if account == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	summary, err := h.billing.GetSubscriptionStatus(r.Context(), account.ID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, summary)
}

// GetHistory handles GET /api/subscriptions/history.
func (h *BillingHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccountFromContext(r.Context())
	if account == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	payments, err := h.billing.GetPaymentHistory(r.Context(), account.ID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, newPaymentResponse(p))
	}
	handler.JSON(w, http.StatusOK, out)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return domain.Errorf(domain.ETOOLARGE, "request.decode", "Request body too large")
		case errors.Is(err, io.EOF):
			return domain.Invalid("request.decode", "Request body is required")
		default:
			return domain.Invalid("request.decode", "Request body is not valid JSON")
		}
	}
	return nil
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" {
			name, _, _ = strings.Cut(f.Tag.Get("query"), ",")
		}
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts validator output into a domain.ValidationError.
func validationError(op string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Invalid(op, "invalid request")
	}
	out := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "uuid":
		return fe.Field() + " must be a UUID"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
