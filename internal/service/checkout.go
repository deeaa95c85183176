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

// CheckoutConfig holds the checkout settings taken from configuration.
type CheckoutConfig struct {
	FrontendURL string
	TrialDays   int64
}

func (c CheckoutConfig) successURL() string {
	return strings.TrimRight(c.FrontendURL, "/") + "/payment/success?session_id={CHECKOUT_SESSION_ID}"
}

func (c CheckoutConfig) cancelURL() string {
	return strings.TrimRight(c.FrontendURL, "/") + "/pricing"
}

// StartCheckoutParams identifies who is buying which plan.
type StartCheckoutParams struct {
	AccountID    uuid.UUID
	AccountEmail string
	PlanID       uuid.UUID
}

// CheckoutService starts hosted checkout sessions. It writes no
// subscription or payment state; that arrives later through webhooks.
type CheckoutService struct {
	plans     PlanStore
	customers *CustomerDirectory
	provider  billing.Provider
	config    CheckoutConfig
	metrics   *telemetry.BusinessMetrics
	logger    *slog.Logger
}

// NewCheckoutService creates a CheckoutService.
func NewCheckoutService(
	plans PlanStore,
	customers *CustomerDirectory,
	provider billing.Provider,
	config CheckoutConfig,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		plans:     plans,
		customers: customers,
		provider:  provider,
		config:    config,
		metrics:   metrics,
		logger:    logger.With("service", "checkout"),
	}
}

// StartCheckout returns the URL of a provider-hosted checkout page for the
// plan.
//
// Flow:
//  1. Load and validate the plan (exists, active, paid, has a price)
//  2. Ensure the account has a provider customer
//  3. Create a subscription-mode checkout session with a trial
func (s *CheckoutService) StartCheckout(ctx context.Context, params StartCheckoutParams) (string, error) {
	const op = "checkout.start"
	planLabel := params.PlanID.String()
	s.metrics.CheckoutStarted.WithLabelValues(planLabel).Inc()

	plan, err := s.plans.GetPlan(ctx, params.PlanID)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.CheckoutFailed.WithLabelValues("plan_not_found").Inc()
		return "", domain.WithOp(ErrPlanNotFound, op, err)
	}
	if err != nil {
		return "", domain.Internal(err, op, "failed to load plan")
	}

	switch {
	case !plan.IsActive:
		s.metrics.CheckoutFailed.WithLabelValues("plan_inactive").Inc()
		return "", domain.WithOp(ErrPlanInactive, op, nil)
	case plan.IsFree():
		s.metrics.CheckoutFailed.WithLabelValues("free_plan").Inc()
		return "", domain.WithOp(ErrFreePlanNotPurchasable, op, nil)
	case plan.StripePriceID == "":
		s.metrics.CheckoutFailed.WithLabelValues("not_billable").Inc()
		err := domain.WithOp(ErrPlanNotBillable, op, nil)
		s.logger.Error("paid plan has no provider price; run sync-plans",
			"plan_id", plan.ID, "plan_name", plan.Name)
		telemetry.CaptureError(ctx, err, map[string]any{"plan_id": plan.ID.String()})
		return "", err
	}

	customerID, err := s.customers.EnsureCustomerMapping(ctx, params.AccountID, params.AccountEmail)
	if err != nil {
		s.metrics.CheckoutFailed.WithLabelValues("customer").Inc()
		return "", err
	}

	metadata := map[string]string{
		"userId": params.AccountID.String(),
		"planId": plan.ID.String(),
	}
	start := time.Now()
	session, err := s.provider.CreateCheckoutSession(ctx, billing.CreateCheckoutSessionParams{
		CustomerID:      customerID,
		PriceID:         plan.StripePriceID,
		TrialPeriodDays: s.config.TrialDays,
		Metadata:        metadata,
		SuccessURL:      s.config.successURL(),
		CancelURL:       s.config.cancelURL(),
	})
	s.metrics.StripeAPILatency.WithLabelValues("create_checkout_session").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.CheckoutFailed.WithLabelValues("provider").Inc()
		s.logger.Error("failed to create checkout session",
			"account_id", params.AccountID, "plan_id", plan.ID, "error", err)
		return "", providerError(op, err)
	}

	s.metrics.CheckoutCreated.WithLabelValues(planLabel).Inc()
	s.logger.Info("checkout session created",
		"account_id", params.AccountID,
		"plan_id", plan.ID,
		"session_id", session.ID)
	return session.URL, nil
}
