package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/qrprime/internal/billing"
	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/dukerupert/qrprime/internal/repository"
	"github.com/dukerupert/qrprime/internal/telemetry"
	"github.com/google/uuid"
)

// AccountBillingService answers an account's billing questions and hands
// out provider portal sessions. All reads come from local state.
type AccountBillingService struct {
	subscriptions SubscriptionStore
	payments      PaymentStore
	admin         AdminStore
	customers     *CustomerDirectory
	provider      billing.Provider
	frontendURL   string
	metrics       *telemetry.BusinessMetrics
	logger        *slog.Logger
}

// NewAccountBillingService creates an AccountBillingService.
func NewAccountBillingService(
	subscriptions SubscriptionStore,
	payments PaymentStore,
	admin AdminStore,
	customers *CustomerDirectory,
	provider billing.Provider,
	frontendURL string,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) *AccountBillingService {
	return &AccountBillingService{
		subscriptions: subscriptions,
		payments:      payments,
		admin:         admin,
		customers:     customers,
		provider:      provider,
		frontendURL:   strings.TrimRight(frontendURL, "/"),
		metrics:       metrics,
		logger:        logger.With("service", "account_billing"),
	}
}

// GetSubscriptionStatus returns the account's most recently updated
// subscription, or the free-plan summary when it has none.
func (s *AccountBillingService) GetSubscriptionStatus(ctx context.Context, accountID uuid.UUID) (domain.SubscriptionSummary, error) {
	sum, err := s.subscriptions.GetLatestSubscriptionForUser(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NoSubscription(), nil
	}
	if err != nil {
		return domain.SubscriptionSummary{}, domain.Internal(err, "billing.status", "failed to load subscription")
	}
	return sum, nil
}

// GetPaymentHistory returns the account's payments, newest first.
func (s *AccountBillingService) GetPaymentHistory(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error) {
	payments, err := s.payments.ListPaymentsForUser(ctx, accountID)
	if err != nil {
		return nil, domain.Internal(err, "billing.history", "failed to load payments")
	}
	return payments, nil
}

// CreatePortalSession returns a provider-hosted page where the account can
// manage its subscription and payment methods.
func (s *AccountBillingService) CreatePortalSession(ctx context.Context, accountID uuid.UUID) (string, error) {
	const op = "billing.portal"

	customerID, err := s.customers.LookupByAccount(ctx, accountID)
	if err != nil {
		return "", err
	}

	start := time.Now()
	session, err := s.provider.CreatePortalSession(ctx, billing.CreatePortalSessionParams{
		CustomerID: customerID,
		ReturnURL:  s.frontendURL + "/profile",
	})
	s.metrics.StripeAPILatency.WithLabelValues("create_portal_session").Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("failed to create portal session", "account_id", accountID, "error", err)
		return "", providerError(op, err)
	}

	s.metrics.PortalSessions.Inc()
	return session.URL, nil
}

// ListPayments is the admin view of the ledger.
func (s *AccountBillingService) ListPayments(ctx context.Context, params repository.ListParams) ([]domain.AdminPayment, error) {
	out, err := s.admin.ListPayments(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, "admin.payments", "failed to list payments")
	}
	return out, nil
}

// ListSubscribers is the admin view of subscriptions. An unknown status
// filter is rejected.
func (s *AccountBillingService) ListSubscribers(ctx context.Context, params repository.ListParams) ([]domain.AdminSubscriber, error) {
	if params.Status != "" {
		if _, ok := domain.ParseSubscriptionStatus(params.Status); !ok {
			return nil, domain.NewValidationError("admin.subscribers", "status", "unknown subscription status")
		}
	}
	out, err := s.admin.ListSubscribers(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, "admin.subscribers", "failed to list subscribers")
	}
	return out, nil
}
