package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/dukerupert/qrprime/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListParams pages and filters the admin listings. Status is optional.
type ListParams struct {
	Limit  int
	Offset int
	Status string
}

func (p ListParams) normalize() ListParams {
	if p.Limit <= 0 {
		p.Limit = defaultListLimit
	}
	if p.Limit > maxListLimit {
		p.Limit = maxListLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ListPayments returns ledger rows joined with the paying account, newest
// first. Payments with no resolved account are included.
func (s *Store) ListPayments(ctx context.Context, params ListParams) ([]domain.AdminPayment, error) {
	params = params.normalize()
	ctx, span := s.startSpan(ctx, "ListPayments", "payments", "SELECT",
		attribute.Int("db.limit", params.Limit),
		attribute.Int("db.offset", params.Offset),
		attribute.String("filter.status", params.Status))
	defer span.End()

	q := squirrel.Select(
		"p.id", "p.user_id", "p.stripe_payment_intent_id", "p.stripe_invoice_id",
		"p.amount::text", "p.currency", "p.status", "p.receipt_url", "p.created_at",
		"u.email", "u.name",
	).
		From("payments p").
		LeftJoin("users u ON u.id = p.user_id").
		OrderBy("p.created_at DESC").
		Limit(uint64(params.Limit)).
		Offset(uint64(params.Offset)).
		PlaceholderFormat(squirrel.Dollar)
	if params.Status != "" {
		q = q.Where(squirrel.Eq{"p.status": params.Status})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fail(span, fmt.Errorf("build payments query: %w", err), "build query failed")
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fail(span, err, "select payments failed")
	}
	defer rows.Close()

	out := []domain.AdminPayment{}
	for rows.Next() {
		var (
			ap                            domain.AdminPayment
			invoiceID, amount, receiptURL *string
			email, name                   *string
		)
		dest := append(paymentDest(&ap.Payment, &invoiceID, &amount, &receiptURL), &email, &name)
		if err := rows.Scan(dest...); err != nil {
			return nil, fail(span, err, "scan payment failed")
		}
		if err := finishPayment(&ap.Payment, invoiceID, amount, receiptURL); err != nil {
			return nil, fail(span, err, "decode payment failed")
		}
		if email != nil {
			ap.UserEmail = *email
		}
		if name != nil {
			ap.UserName = *name
		}
		out = append(out, ap)
	}
	if err := rows.Err(); err != nil {
		return nil, fail(span, err, "iterate payments failed")
	}
	return out, nil
}

// ListSubscribers returns subscriptions joined with their account and plan,
// most recently updated first.
func (s *Store) ListSubscribers(ctx context.Context, params ListParams) ([]domain.AdminSubscriber, error) {
	params = params.normalize()
	ctx, span := s.startSpan(ctx, "ListSubscribers", "subscriptions", "SELECT",
		attribute.Int("db.limit", params.Limit),
		attribute.Int("db.offset", params.Offset),
		attribute.String("filter.status", params.Status))
	defer span.End()

	q := squirrel.Select(
		"s.id", "s.user_id", "s.stripe_subscription_id", "s.stripe_price_id", "s.status",
		"s.current_period_start", "s.current_period_end", "s.cancel_at_period_end",
		"s.trial_start", "s.trial_end", "s.last_event_id", "s.last_event_at",
		"s.created_at", "s.updated_at",
		"u.email", "u.name", "pl.name",
	).
		From("subscriptions s").
		LeftJoin("users u ON u.id = s.user_id").
		LeftJoin("plans pl ON pl.stripe_price_id = s.stripe_price_id").
		OrderBy("s.updated_at DESC").
		Limit(uint64(params.Limit)).
		Offset(uint64(params.Offset)).
		PlaceholderFormat(squirrel.Dollar)
	if params.Status != "" {
		q = q.Where(squirrel.Eq{"s.status": params.Status})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fail(span, fmt.Errorf("build subscribers query: %w", err), "build query failed")
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fail(span, err, "select subscribers failed")
	}
	defer rows.Close()

	out := []domain.AdminSubscriber{}
	for rows.Next() {
		var (
			as                    domain.AdminSubscriber
			status                string
			email, name, planName *string
		)
		dest := append(subscriptionDest(&as.Subscription, &status), &email, &name, &planName)
		if err := rows.Scan(dest...); err != nil {
			return nil, fail(span, err, "scan subscriber failed")
		}
		as.Status = domain.SubscriptionStatus(status)
		if email != nil {
			as.UserEmail = *email
		}
		if name != nil {
			as.UserName = *name
		}
		if planName != nil {
			as.PlanName = *planName
		}
		out = append(out, as)
	}
	if err := rows.Err(); err != nil {
		return nil, fail(span, err, "iterate subscribers failed")
	}
	return out, nil
}
