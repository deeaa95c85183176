package repository

import (
	"context"
	"fmt"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
)

// Prices are read as integer cents so callers never handle NUMERIC.
const planColumns = `id, name, is_active,
	(price_monthly * 100)::bigint, (price_yearly * 100)::bigint,
	stripe_price_id, stripe_product_id`

func scanPlan(row pgx.Row) (domain.Plan, error) {
	var p domain.Plan
	var priceID, productID *string
	err := row.Scan(&p.ID, &p.Name, &p.IsActive,
		&p.PriceMonthlyCents, &p.PriceYearlyCents, &priceID, &productID)
	if err != nil {
		return domain.Plan{}, err
	}
	if priceID != nil {
		p.StripePriceID = *priceID
	}
	if productID != nil {
		p.StripeProductID = *productID
	}
	return p, nil
}

// GetPlan reads one plan from the catalog.
func (s *Store) GetPlan(ctx context.Context, id uuid.UUID) (domain.Plan, error) {
	ctx, span := s.startSpan(ctx, "GetPlan", "plans", "SELECT",
		attribute.String("plan.id", id.String()))
	defer span.End()

	p, err := scanPlan(s.db.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
	if err != nil {
		return domain.Plan{}, fail(span, err, "select plan failed")
	}
	return p, nil
}

// ListPlansMissingStripePrice returns paid plans not yet provisioned in the
// billing provider.
func (s *Store) ListPlansMissingStripePrice(ctx context.Context) ([]domain.Plan, error) {
	ctx, span := s.startSpan(ctx, "ListPlansMissingStripePrice", "plans", "SELECT")
	defer span.End()

	rows, err := s.db.Query(ctx, `
		SELECT `+planColumns+`
		FROM plans
		WHERE price_monthly > 0 AND stripe_price_id IS NULL
		ORDER BY price_monthly`)
	if err != nil {
		return nil, fail(span, err, "select unprovisioned plans failed")
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fail(span, err, "scan plan failed")
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fail(span, err, "iterate plans failed")
	}
	return plans, nil
}

// SetPlanStripeIDs records the provider product and price for a plan.
func (s *Store) SetPlanStripeIDs(ctx context.Context, id uuid.UUID, priceID, productID string) error {
	ctx, span := s.startSpan(ctx, "SetPlanStripeIDs", "plans", "UPDATE",
		attribute.String("plan.id", id.String()),
		attribute.String("stripe.price_id", priceID))
	defer span.End()

	tag, err := s.db.Exec(ctx,
		`UPDATE plans SET stripe_price_id = $1, stripe_product_id = $2 WHERE id = $3`,
		priceID, productID, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fail(span, fmt.Errorf("price %s already assigned to another plan: %w", priceID, err), "duplicate price")
		}
		return fail(span, err, "update plan failed")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
