// Package domain holds the billing types shared by the repository, service
// and handler layers, plus the application error model.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus mirrors the provider's subscription lifecycle.
type SubscriptionStatus string

const (
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusActive            SubscriptionStatus = "active"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusUnpaid            SubscriptionStatus = "unpaid"

	// StatusNone is reported for accounts without any subscription row.
	// It is never stored.
	StatusNone SubscriptionStatus = "none"
)

// FreePlanName is reported alongside StatusNone.
const FreePlanName = "Free"

// PaymentStatusSucceeded is the only payment status the ledger writes.
const PaymentStatusSucceeded = "succeeded"

var transitions = map[SubscriptionStatus][]SubscriptionStatus{
	StatusIncomplete: {StatusTrialing, StatusActive, StatusIncompleteExpired},
	StatusTrialing:   {StatusActive, StatusCanceled, StatusPastDue},
	StatusActive:     {StatusPastDue, StatusCanceled, StatusUnpaid},
	StatusPastDue:    {StatusActive, StatusCanceled, StatusUnpaid},
}

// ParseSubscriptionStatus validates a provider status string.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, bool) {
	switch st := SubscriptionStatus(s); st {
	case StatusIncomplete, StatusIncompleteExpired, StatusTrialing, StatusActive,
		StatusPastDue, StatusCanceled, StatusUnpaid:
		return st, true
	}
	return "", false
}

// IsTerminal reports whether no further transition is expected.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCanceled || s == StatusIncompleteExpired
}

// CanTransition reports whether from -> to is an expected lifecycle step.
// Re-applying the same status is always allowed, and any status may move to
// canceled.
func CanTransition(from, to SubscriptionStatus) bool {
	if from == to {
		return true
	}
	if to == StatusCanceled {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Account is the user record owned by the account directory.
type Account struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  string
}

// IsAdmin reports whether the account may use the admin listings.
func (a Account) IsAdmin() bool {
	return strings.EqualFold(a.Role, "admin")
}

// CustomerMapping links an account to exactly one provider customer.
type CustomerMapping struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	CustomerID string
	CreatedAt  time.Time
}

// Plan is a read-only view of the plan catalog.
type Plan struct {
	ID                uuid.UUID
	Name              string
	IsActive          bool
	PriceMonthlyCents int64
	PriceYearlyCents  int64
	StripePriceID     string
	StripeProductID   string
}

// IsFree reports whether the plan has no price in any interval.
func (p Plan) IsFree() bool {
	return p.PriceMonthlyCents == 0 && p.PriceYearlyCents == 0
}

// Subscription is the local projection of one provider subscription.
type Subscription struct {
	ID                 uuid.UUID
	AccountID          *uuid.UUID
	SubscriptionID     string
	PriceID            string
	Status             SubscriptionStatus
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	TrialStart         *time.Time
	TrialEnd           *time.Time
	LastEventID        string
	LastEventAt        time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SubscriptionSummary is what the status endpoint returns.
type SubscriptionSummary struct {
	Status            SubscriptionStatus `json:"status"`
	PlanName          string             `json:"plan_name"`
	PriceMonthly      string             `json:"price_monthly,omitempty"` // major units, e.g. "9.99"
	PriceYearly       string             `json:"price_yearly,omitempty"`
	CurrentPeriodEnd  *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool               `json:"cancel_at_period_end"`
	TrialEnd          *time.Time         `json:"trial_end,omitempty"`
}

// NoSubscription is the summary for accounts that never subscribed.
func NoSubscription() SubscriptionSummary {
	return SubscriptionSummary{Status: StatusNone, PlanName: FreePlanName}
}

// Payment is one row of the append-only payment ledger.
type Payment struct {
	ID              uuid.UUID
	AccountID       *uuid.UUID
	PaymentIntentID string
	InvoiceID       string
	Amount          Money
	Status          string
	ReceiptURL      string
	CreatedAt       time.Time
}

// AdminPayment is a ledger row joined with the paying account.
type AdminPayment struct {
	Payment
	UserEmail string
	UserName  string
}

// AdminSubscriber is a subscription row joined with its account and plan.
type AdminSubscriber struct {
	Subscription
	UserEmail string
	UserName  string
	PlanName  string
}
