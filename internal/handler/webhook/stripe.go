// Package webhook receives billing provider webhook deliveries.
package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/dukerupert/qrprime/internal/handler"
	"github.com/dukerupert/qrprime/internal/middleware"
)

// SignatureHeader carries the provider's HMAC signature.
const SignatureHeader = "Stripe-Signature"

// EventProcessor applies one verified delivery. *service.WebhookProcessor
// implements it.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, payload []byte, signature string) error
}

// StripeHandler handles Stripe webhook deliveries.
type StripeHandler struct {
	processor EventProcessor
}

// NewStripeHandler creates a new Stripe webhook handler
func NewStripeHandler(processor EventProcessor) *StripeHandler {
	return &StripeHandler{processor: processor}
}

// HandleWebhook handles POST /api/webhooks/stripe.
//
// The raw body must reach signature verification untouched, so this route
// sits outside any JSON decoding. Status codes drive provider retries: 200
// acknowledges, 400 rejects for good, 5xx asks for redelivery.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3000/api/webhooks/stripe
//	stripe trigger customer.subscription.created
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handler.ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, "webhook.read", "Payload too large"))
			return
		}
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "webhook.read", "Error reading request body"))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		logger.Warn("webhook delivery without signature", "payload_bytes", len(payload))
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "webhook.verify", "Missing signature"))
		return
	}

	if err := h.processor.ProcessEvent(r.Context(), payload, signature); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]bool{"received": true})
}
