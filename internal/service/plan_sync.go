package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/qrprime/internal/billing"
	"github.com/dukerupert/qrprime/internal/domain"
)

// PlanSyncCurrency is the currency plan prices are provisioned in.
const PlanSyncCurrency = "usd"

// PlanSyncResult summarises one SyncPlans run.
type PlanSyncResult struct {
	Synced int
	Failed int
}

// PlanSyncer provisions a provider product and monthly price for each paid
// plan that lacks one. Provider calls carry idempotency keys derived from
// the plan, so a run interrupted after creating the price but before
// storing it can be repeated safely.
type PlanSyncer struct {
	plans    PlanStore
	provider billing.Provider
	logger   *slog.Logger
}

// NewPlanSyncer creates a PlanSyncer.
func NewPlanSyncer(plans PlanStore, provider billing.Provider, logger *slog.Logger) *PlanSyncer {
	return &PlanSyncer{
		plans:    plans,
		provider: provider,
		logger:   logger.With("service", "plan_sync"),
	}
}

// SyncPlans provisions every unprovisioned paid plan. A failing plan does
// not stop the others; all failures are returned joined.
func (s *PlanSyncer) SyncPlans(ctx context.Context) (PlanSyncResult, error) {
	var res PlanSyncResult

	plans, err := s.plans.ListPlansMissingStripePrice(ctx)
	if err != nil {
		return res, domain.Internal(err, "plans.sync", "failed to list plans")
	}
	if len(plans) == 0 {
		s.logger.Info("all paid plans already provisioned")
		return res, nil
	}

	var errs []error
	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.syncPlan(ctx, plan); err != nil {
			res.Failed++
			s.logger.Error("failed to provision plan", "plan_id", plan.ID, "plan_name", plan.Name, "error", err)
			errs = append(errs, fmt.Errorf("plan %s: %w", plan.Name, err))
			continue
		}
		res.Synced++
	}

	s.logger.Info("plan sync finished", "synced", res.Synced, "failed", res.Failed)
	return res, errors.Join(errs...)
}

func (s *PlanSyncer) syncPlan(ctx context.Context, plan domain.Plan) error {
	id := plan.ID.String()
	metadata := map[string]string{"planId": id}

	product, err := s.provider.CreateProduct(ctx, billing.CreateProductParams{
		Name:           plan.Name,
		Description:    "QR Prime " + plan.Name + " plan",
		Metadata:       metadata,
		IdempotencyKey: "plan:" + id + ":product",
	})
	if err != nil {
		return providerError("plans.sync", err)
	}

	price, err := s.provider.CreateRecurringPrice(ctx, billing.CreateRecurringPriceParams{
		ProductID:      product.ID,
		UnitAmount:     plan.PriceMonthlyCents,
		Currency:       PlanSyncCurrency,
		Interval:       "month",
		Metadata:       metadata,
		IdempotencyKey: fmt.Sprintf("plan:%s:price:%d", id, plan.PriceMonthlyCents),
	})
	if err != nil {
		return providerError("plans.sync", err)
	}

	if err := s.plans.SetPlanStripeIDs(ctx, plan.ID, price.ID, product.ID); err != nil {
		return domain.Internal(err, "plans.sync", "failed to store provider ids")
	}

	s.logger.Info("plan provisioned",
		"plan_id", plan.ID,
		"plan_name", plan.Name,
		"product_id", product.ID,
		"price_id", price.ID,
		"unit_amount", plan.PriceMonthlyCents)
	return nil
}
