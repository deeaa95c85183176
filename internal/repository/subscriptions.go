package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
)

const subscriptionColumns = `id, user_id, stripe_subscription_id, stripe_price_id, status,
	current_period_start, current_period_end, cancel_at_period_end,
	trial_start, trial_end, last_event_id, last_event_at, created_at, updated_at`

// subscriptionDest returns scan targets for subscriptionColumns.
func subscriptionDest(sub *domain.Subscription, status *string) []any {
	return []any{
		&sub.ID, &sub.AccountID, &sub.SubscriptionID, &sub.PriceID, status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd,
		&sub.TrialStart, &sub.TrialEnd, &sub.LastEventID, &sub.LastEventAt,
		&sub.CreatedAt, &sub.UpdatedAt,
	}
}

// UpsertSubscriptionParams is the full mutable state of one subscription as
// carried by a single provider event.
type UpsertSubscriptionParams struct {
	AccountID          uuid.UUID
	SubscriptionID     string
	PriceID            string
	Status             domain.SubscriptionStatus
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	TrialStart         *time.Time
	TrialEnd           *time.Time
	EventID            string
	EventAt            time.Time

	// StrictOrdering refuses writes from events older than the stored one
	// and refuses to reopen a canceled subscription.
	StrictOrdering bool
}

// UpsertSubscriptionResult reports what the upsert did.
type UpsertSubscriptionResult struct {
	// Subscription is the stored row after the write. It is zero when
	// Applied is false.
	Subscription domain.Subscription

	// PreviousStatus is the status the row held before this write. It is
	// empty when the row was created by this write, and also when another
	// statement inserted the row after this one took its snapshot.
	PreviousStatus domain.SubscriptionStatus

	// Created is true when this write inserted the row.
	Created bool

	// Applied is false when the row already held this event's state, or
	// when StrictOrdering rejected the event.
	Applied bool
}

// The WHERE clause on the conflict branch makes redelivery of the same
// event a no-op: the row, including updated_at, is left untouched. An empty
// price keeps the stored one, since deleted events may carry no items.
// xmax is zero only on a row version this statement inserted.
const upsertSubscriptionSQL = `
WITH prev AS (
	SELECT status FROM subscriptions WHERE stripe_subscription_id = $2
)
INSERT INTO subscriptions (
	user_id, stripe_subscription_id, stripe_price_id, status,
	current_period_start, current_period_end, cancel_at_period_end,
	trial_start, trial_end, last_event_id, last_event_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (stripe_subscription_id) DO UPDATE SET
	user_id              = COALESCE(EXCLUDED.user_id, subscriptions.user_id),
	stripe_price_id      = COALESCE(NULLIF(EXCLUDED.stripe_price_id, ''), subscriptions.stripe_price_id),
	status               = EXCLUDED.status,
	current_period_start = EXCLUDED.current_period_start,
	current_period_end   = EXCLUDED.current_period_end,
	cancel_at_period_end = EXCLUDED.cancel_at_period_end,
	trial_start          = EXCLUDED.trial_start,
	trial_end            = EXCLUDED.trial_end,
	last_event_id        = EXCLUDED.last_event_id,
	last_event_at        = EXCLUDED.last_event_at,
	updated_at           = now()
WHERE (subscriptions.stripe_price_id, subscriptions.status,
       subscriptions.current_period_start, subscriptions.current_period_end,
       subscriptions.cancel_at_period_end, subscriptions.trial_start,
       subscriptions.trial_end, subscriptions.last_event_id)
      IS DISTINCT FROM
      (COALESCE(NULLIF(EXCLUDED.stripe_price_id, ''), subscriptions.stripe_price_id), EXCLUDED.status,
       EXCLUDED.current_period_start, EXCLUDED.current_period_end,
       EXCLUDED.cancel_at_period_end, EXCLUDED.trial_start,
       EXCLUDED.trial_end, EXCLUDED.last_event_id)
  AND (NOT $12::boolean OR (
       subscriptions.last_event_at <= EXCLUDED.last_event_at
       AND (subscriptions.status <> 'canceled' OR EXCLUDED.status = 'canceled')))
RETURNING ` + subscriptionColumns + `, (SELECT status FROM prev), (xmax = 0)`

// UpsertSubscription inserts or overwrites the row keyed on the provider
// subscription id.
func (s *Store) UpsertSubscription(ctx context.Context, arg UpsertSubscriptionParams) (UpsertSubscriptionResult, error) {
	ctx, span := s.startSpan(ctx, "UpsertSubscription", "subscriptions", "UPSERT",
		attribute.String("stripe.subscription_id", arg.SubscriptionID),
		attribute.String("stripe.event_id", arg.EventID),
		attribute.String("subscription.status", string(arg.Status)),
		attribute.Bool("subscription.strict_ordering", arg.StrictOrdering))
	defer span.End()

	var (
		res        UpsertSubscriptionResult
		status     string
		prevStatus *string
	)
	dest := append(subscriptionDest(&res.Subscription, &status), &prevStatus, &res.Created)

	err := s.db.QueryRow(ctx, upsertSubscriptionSQL,
		arg.AccountID,
		arg.SubscriptionID,
		arg.PriceID,
		string(arg.Status),
		arg.CurrentPeriodStart,
		arg.CurrentPeriodEnd,
		arg.CancelAtPeriodEnd,
		arg.TrialStart,
		arg.TrialEnd,
		arg.EventID,
		arg.EventAt,
		arg.StrictOrdering,
	).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetAttributes(attribute.Bool("db.applied", false))
		return UpsertSubscriptionResult{}, nil
	}
	if err != nil {
		return UpsertSubscriptionResult{}, fail(span, err, "upsert subscription failed")
	}

	res.Subscription.Status = domain.SubscriptionStatus(status)
	if prevStatus != nil {
		res.PreviousStatus = domain.SubscriptionStatus(*prevStatus)
	}
	res.Applied = true
	span.SetAttributes(attribute.Bool("db.applied", true))
	return res, nil
}

// GetSubscription reads one row by provider subscription id.
func (s *Store) GetSubscription(ctx context.Context, subscriptionID string) (domain.Subscription, error) {
	ctx, span := s.startSpan(ctx, "GetSubscription", "subscriptions", "SELECT",
		attribute.String("stripe.subscription_id", subscriptionID))
	defer span.End()

	var (
		sub    domain.Subscription
		status string
	)
	err := s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE stripe_subscription_id = $1`,
		subscriptionID,
	).Scan(subscriptionDest(&sub, &status)...)
	if err != nil {
		return domain.Subscription{}, fail(span, err, "select subscription failed")
	}
	sub.Status = domain.SubscriptionStatus(status)
	return sub, nil
}

// GetLatestSubscriptionForUser returns the account's most recently written
// subscription together with its plan name.
func (s *Store) GetLatestSubscriptionForUser(ctx context.Context, accountID uuid.UUID) (domain.SubscriptionSummary, error) {
	ctx, span := s.startSpan(ctx, "GetLatestSubscriptionForUser", "subscriptions", "SELECT",
		attribute.String("account.id", accountID.String()))
	defer span.End()

	var (
		sum                       domain.SubscriptionSummary
		status                    string
		planName                  *string
		monthlyCents, yearlyCents *int64
	)
	err := s.db.QueryRow(ctx, `
		SELECT s.status, p.name,
			(p.price_monthly * 100)::bigint, (p.price_yearly * 100)::bigint,
			s.current_period_end, s.cancel_at_period_end, s.trial_end
		FROM subscriptions s
		LEFT JOIN plans p ON p.stripe_price_id = s.stripe_price_id
		WHERE s.user_id = $1
		ORDER BY s.updated_at DESC
		LIMIT 1`, accountID,
	).Scan(&status, &planName, &monthlyCents, &yearlyCents,
		&sum.CurrentPeriodEnd, &sum.CancelAtPeriodEnd, &sum.TrialEnd)
	if err != nil {
		return domain.SubscriptionSummary{}, fail(span, err, "select latest subscription failed")
	}

	sum.Status = domain.SubscriptionStatus(status)
	if planName != nil {
		sum.PlanName = *planName
	}
	// Plan prices are catalog amounts in USD.
	if monthlyCents != nil {
		sum.PriceMonthly = domain.NewMoney(*monthlyCents, "usd").Major()
	}
	if yearlyCents != nil {
		sum.PriceYearly = domain.NewMoney(*yearlyCents, "usd").Major()
	}
	return sum, nil
}
