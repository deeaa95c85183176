package service

//go:generate mockgen -source=store.go -destination=mock_store_test.go -package=service

import (
	"context"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/dukerupert/qrprime/internal/repository"
	"github.com/google/uuid"
)

// CustomerStore persists account to provider-customer mappings.
type CustomerStore interface {
	GetCustomerByAccount(ctx context.Context, accountID uuid.UUID) (domain.CustomerMapping, error)
	GetCustomerByCustomerID(ctx context.Context, customerID string) (domain.CustomerMapping, error)
	InsertCustomerMapping(ctx context.Context, accountID uuid.UUID, customerID string) (domain.CustomerMapping, bool, error)
}

// PlanStore reads the plan catalog and records provider ids on it.
type PlanStore interface {
	GetPlan(ctx context.Context, id uuid.UUID) (domain.Plan, error)
	ListPlansMissingStripePrice(ctx context.Context) ([]domain.Plan, error)
	SetPlanStripeIDs(ctx context.Context, id uuid.UUID, priceID, productID string) error
}

// SubscriptionStore is the subscription projection.
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, arg repository.UpsertSubscriptionParams) (repository.UpsertSubscriptionResult, error)
	GetSubscription(ctx context.Context, subscriptionID string) (domain.Subscription, error)
	GetLatestSubscriptionForUser(ctx context.Context, accountID uuid.UUID) (domain.SubscriptionSummary, error)
}

// PaymentStore is the append-only payment ledger.
type PaymentStore interface {
	InsertPayment(ctx context.Context, arg repository.InsertPaymentParams) (domain.Payment, bool, error)
	ListPaymentsForUser(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error)
}

// AdminStore backs the admin listings.
type AdminStore interface {
	ListPayments(ctx context.Context, params repository.ListParams) ([]domain.AdminPayment, error)
	ListSubscribers(ctx context.Context, params repository.ListParams) ([]domain.AdminSubscriber, error)
}

var (
	_ CustomerStore     = (*repository.Store)(nil)
	_ PlanStore         = (*repository.Store)(nil)
	_ SubscriptionStore = (*repository.Store)(nil)
	_ PaymentStore      = (*repository.Store)(nil)
	_ AdminStore        = (*repository.Store)(nil)
)
