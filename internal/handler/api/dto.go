package api

import (
	"time"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/google/uuid"
)

type urlResponse struct {
	URL string `json:"url"`
}

type paymentResponse struct {
	ID         uuid.UUID `json:"id"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	InvoiceID  string    `json:"invoice_id,omitempty"`
	ReceiptURL string    `json:"receipt_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func newPaymentResponse(p domain.Payment) paymentResponse {
	return paymentResponse{
		ID:         p.ID,
		Amount:     p.Amount.Major(),
		Currency:   p.Amount.Currency,
		Status:     p.Status,
		InvoiceID:  p.InvoiceID,
		ReceiptURL: p.ReceiptURL,
		CreatedAt:  p.CreatedAt,
	}
}

type adminPaymentResponse struct {
	paymentResponse
	UserID    *uuid.UUID `json:"user_id"`
	UserEmail string     `json:"user_email,omitempty"`
	UserName  string     `json:"user_name,omitempty"`
}

type adminSubscriberResponse struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             *uuid.UUID `json:"user_id"`
	UserEmail          string     `json:"user_email,omitempty"`
	UserName           string     `json:"user_name,omitempty"`
	PlanName           string     `json:"plan_name,omitempty"`
	SubscriptionID     string     `json:"stripe_subscription_id"`
	Status             string     `json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	TrialEnd           *time.Time `json:"trial_end,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func newAdminSubscriberResponse(s domain.AdminSubscriber) adminSubscriberResponse {
	return adminSubscriberResponse{
		ID:                 s.ID,
		UserID:             s.AccountID,
		UserEmail:          s.UserEmail,
		UserName:           s.UserName,
		PlanName:           s.PlanName,
		SubscriptionID:     s.SubscriptionID,
		Status:             string(s.Status),
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		TrialEnd:           s.TrialEnd,
		UpdatedAt:          s.UpdatedAt,
	}
}
