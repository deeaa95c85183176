package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/dukerupert/qrprime/internal/handler"
	"github.com/dukerupert/qrprime/internal/repository"
	"github.com/go-playground/validator/v10"
)

// AdminBilling is implemented by *service.AccountBillingService.
type AdminBilling interface {
	ListPayments(ctx context.Context, params repository.ListParams) ([]domain.AdminPayment, error)
	ListSubscribers(ctx context.Context, params repository.ListParams) ([]domain.AdminSubscriber, error)
}

// AdminHandler serves /api/admin. Routes must sit behind
// middleware.RequireAdmin.
type AdminHandler struct {
	billing  AdminBilling
	validate *validator.Validate
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(billing AdminBilling) *AdminHandler {
	return &AdminHandler{billing: billing, validate: newValidator()}
}

type listQuery struct {
	Limit  int    `query:"limit" validate:"min=0,max=200"`
	Offset int    `query:"offset" validate:"min=0"`
	Status string `query:"status" validate:"max=32"`
}

func (h *AdminHandler) parseListQuery(r *http.Request) (repository.ListParams, error) {
	const op = "admin.query"
	q := r.URL.Query()
	var lq listQuery

	fields := map[string]*int{"limit": &lq.Limit, "offset": &lq.Offset}
	for name, dst := range fields {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return repository.ListParams{}, domain.NewValidationError(op, name, name+" must be an integer")
		}
		*dst = n
	}
	lq.Status = q.Get("status")

	if err := h.validate.Struct(lq); err != nil {
		return repository.ListParams{}, validationError(op, err)
	}
	return repository.ListParams{Limit: lq.Limit, Offset: lq.Offset, Status: lq.Status}, nil
}

// ListPayments handles GET /api/admin/payments.
func (h *AdminHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseListQuery(r)
	if err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	payments, err := h.billing.ListPayments(r.Context(), params)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	out := make([]adminPaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, adminPaymentResponse{
			paymentResponse: newPaymentResponse(p.Payment),
			UserID:          p.AccountID,
			UserEmail:       p.UserEmail,
			UserName:        p.UserName,
		})
	}
	handler.JSON(w, http.StatusOK, out)
}

// ListSubscribers handles GET /api/admin/subscribers.
func (h *AdminHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseListQuery(r)
	if err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	subs, err := h.billing.ListSubscribers(r.Context(), params)
	if err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}
	out := make([]adminSubscriberResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, newAdminSubscriberResponse(s))
	}
	handler.JSON(w, http.StatusOK, out)
}
