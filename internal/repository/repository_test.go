package repository

import (
	"context"
	"errors"
	"math/big"
	"regexp"
	"testing"
	"time"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return New(mock), mock
}

var (
	subscriptionCols = []string{
		"id", "user_id", "stripe_subscription_id", "stripe_price_id", "status",
		"current_period_start", "current_period_end", "cancel_at_period_end",
		"trial_start", "trial_end", "last_event_id", "last_event_at", "created_at", "updated_at",
	}
	paymentCols = []string{
		"id", "user_id", "stripe_payment_intent_id", "stripe_invoice_id",
		"amount", "currency", "status", "receipt_url", "created_at",
	}
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestInsertCustomerMapping(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	now := time.Now().UTC()

	t.Run("inserted", func(t *testing.T) {
		store, mock := newMockStore(t)
		rowID := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO stripe_customers")).
			WithArgs(accountID, "cus_123").
			WillReturnRows(mock.NewRows([]string{"id", "user_id", "stripe_customer_id", "created_at"}).
				AddRow(rowID, accountID, "cus_123", now))

		m, inserted, err := store.InsertCustomerMapping(ctx, accountID, "cus_123")
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Equal(t, rowID, m.ID)
		assert.Equal(t, "cus_123", m.CustomerID)
	})

	t.Run("conflict returns not inserted", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT DO NOTHING")).
			WithArgs(accountID, "cus_123").
			WillReturnRows(mock.NewRows([]string{"id", "user_id", "stripe_customer_id", "created_at"}))

		_, inserted, err := store.InsertCustomerMapping(ctx, accountID, "cus_123")
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	t.Run("database error", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("connection reset")
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO stripe_customers")).
			WithArgs(accountID, "cus_123").
			WillReturnError(boom)

		_, _, err := store.InsertCustomerMapping(ctx, accountID, "cus_123")
		assert.ErrorIs(t, err, boom)
	})
}

func TestGetCustomerByCustomerID_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE stripe_customer_id = $1")).
		WithArgs("cus_missing").
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "stripe_customer_id", "created_at"}))

	_, err := store.GetCustomerByCustomerID(context.Background(), "cus_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertSubscription(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	eventAt := start.Add(time.Minute)

	params := UpsertSubscriptionParams{
		AccountID:          accountID,
		SubscriptionID:     "sub_1",
		PriceID:            "price_pro",
		Status:             domain.StatusActive,
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
		EventID:            "evt_2",
		EventAt:            eventAt,
	}
	args := []any{
		accountID, "sub_1", "price_pro", "active", &start, &end, false,
		(*time.Time)(nil), (*time.Time)(nil), "evt_2", eventAt, false,
	}

	t.Run("update reports previous status", func(t *testing.T) {
		store, mock := newMockStore(t)
		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (stripe_subscription_id) DO UPDATE")).
			WithArgs(args...).
			WillReturnRows(mock.NewRows(append(subscriptionCols, "status", "created")).
				AddRow(id, &accountID, "sub_1", "price_pro", "active",
					&start, &end, false, nil, nil, "evt_2", eventAt, start, eventAt,
					strPtr("trialing"), false))

		res, err := store.UpsertSubscription(ctx, params)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, domain.StatusTrialing, res.PreviousStatus)
		assert.Equal(t, domain.StatusActive, res.Subscription.Status)
		assert.Equal(t, id, res.Subscription.ID)
		require.NotNil(t, res.Subscription.AccountID)
		assert.Equal(t, accountID, *res.Subscription.AccountID)
		assert.Nil(t, res.Subscription.TrialEnd)
	})

	t.Run("insert has no previous status", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO subscriptions")).
			WithArgs(args...).
			WillReturnRows(mock.NewRows(append(subscriptionCols, "status", "created")).
				AddRow(uuid.New(), &accountID, "sub_1", "price_pro", "active",
					&start, &end, false, nil, nil, "evt_2", eventAt, eventAt, eventAt, nil, true))

		res, err := store.UpsertSubscription(ctx, params)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.True(t, res.Created)
		assert.Empty(t, res.PreviousStatus)
	})

	t.Run("row inserted by a concurrent statement is not created", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("(SELECT status FROM prev), (xmax = 0)")).
			WithArgs(args...).
			WillReturnRows(mock.NewRows(append(subscriptionCols, "status", "created")).
				AddRow(uuid.New(), &accountID, "sub_1", "price_pro", "active",
					&start, &end, false, nil, nil, "evt_2", eventAt, start, eventAt, nil, false))

		res, err := store.UpsertSubscription(ctx, params)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.False(t, res.Created)
		assert.Empty(t, res.PreviousStatus)
	})

	t.Run("empty price keeps the stored price", func(t *testing.T) {
		store, mock := newMockStore(t)
		deleted := params
		deleted.PriceID = ""
		deleted.Status = domain.StatusCanceled
		deletedArgs := append([]any{}, args...)
		deletedArgs[2] = ""
		deletedArgs[3] = "canceled"
		mock.ExpectQuery(regexp.QuoteMeta("COALESCE(NULLIF(EXCLUDED.stripe_price_id, ''), subscriptions.stripe_price_id)")).
			WithArgs(deletedArgs...).
			WillReturnRows(mock.NewRows(append(subscriptionCols, "status", "created")).
				AddRow(uuid.New(), &accountID, "sub_1", "price_pro", "canceled",
					&start, &end, false, nil, nil, "evt_2", eventAt, start, eventAt, strPtr("active"), false))

		res, err := store.UpsertSubscription(ctx, deleted)
		require.NoError(t, err)
		assert.Equal(t, "price_pro", res.Subscription.PriceID)
		assert.Equal(t, domain.StatusActive, res.PreviousStatus)
	})

	t.Run("unchanged row is not applied", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("IS DISTINCT FROM")).
			WithArgs(args...).
			WillReturnRows(mock.NewRows(append(subscriptionCols, "status", "created")))

		res, err := store.UpsertSubscription(ctx, params)
		require.NoError(t, err)
		assert.False(t, res.Applied)
	})

	t.Run("strict flag is passed through", func(t *testing.T) {
		store, mock := newMockStore(t)
		strict := params
		strict.StrictOrdering = true
		strictArgs := append(append([]any{}, args[:11]...), true)
		mock.ExpectQuery(regexp.QuoteMeta("NOT $12::boolean")).
			WithArgs(strictArgs...).
			WillReturnRows(mock.NewRows(append(subscriptionCols, "status", "created")))

		res, err := store.UpsertSubscription(ctx, strict)
		require.NoError(t, err)
		assert.False(t, res.Applied)
	})
}

func TestGetLatestSubscriptionForUser(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	monthly, yearly := int64(999), int64(9900)
	summaryCols := []string{"status", "name", "price_monthly", "price_yearly",
		"current_period_end", "cancel_at_period_end", "trial_end"}

	t.Run("with plan", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY s.updated_at DESC")).
			WithArgs(accountID).
			WillReturnRows(mock.NewRows(summaryCols).
				AddRow("active", strPtr("Pro"), &monthly, &yearly, &end, true, nil))

		sum, err := store.GetLatestSubscriptionForUser(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusActive, sum.Status)
		assert.Equal(t, "Pro", sum.PlanName)
		assert.Equal(t, "9.99", sum.PriceMonthly)
		assert.Equal(t, "99.00", sum.PriceYearly)
		assert.True(t, sum.CancelAtPeriodEnd)
		assert.Equal(t, end, *sum.CurrentPeriodEnd)
	})

	t.Run("price without a catalog plan", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN plans p")).
			WithArgs(accountID).
			WillReturnRows(mock.NewRows(summaryCols).
				AddRow("past_due", nil, nil, nil, &end, false, nil))

		sum, err := store.GetLatestSubscriptionForUser(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPastDue, sum.Status)
		assert.Empty(t, sum.PlanName)
		assert.Empty(t, sum.PriceMonthly)
		assert.Empty(t, sum.PriceYearly)
	})

	t.Run("none", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM subscriptions s")).
			WithArgs(accountID).
			WillReturnRows(mock.NewRows(summaryCols))

		_, err := store.GetLatestSubscriptionForUser(ctx, accountID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestInsertPayment(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	now := time.Now().UTC()

	t.Run("stores major units", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (stripe_payment_intent_id) DO NOTHING")).
			WithArgs(&accountID, "pi_1", strPtr("in_1"),
				pgtype.Numeric{Int: big.NewInt(999), Exp: -2, Valid: true},
				"usd", "succeeded", (*string)(nil)).
			WillReturnRows(mock.NewRows(paymentCols).
				AddRow(uuid.New(), &accountID, "pi_1", strPtr("in_1"), strPtr("9.99"), "usd", "succeeded", nil, now))

		p, inserted, err := store.InsertPayment(ctx, InsertPaymentParams{
			AccountID:       &accountID,
			PaymentIntentID: "pi_1",
			InvoiceID:       "in_1",
			Amount:          domain.NewMoney(999, "USD"),
			Status:          domain.PaymentStatusSucceeded,
		})
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Equal(t, int64(999), p.Amount.Minor)
		assert.Equal(t, "in_1", p.InvoiceID)
		assert.Empty(t, p.ReceiptURL)
	})

	t.Run("zero decimal currency", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
			WithArgs((*uuid.UUID)(nil), "pi_jpy", (*string)(nil),
				pgtype.Numeric{Int: big.NewInt(500), Exp: 0, Valid: true},
				"jpy", "succeeded", strPtr("https://invoice")).
			WillReturnRows(mock.NewRows(paymentCols).
				AddRow(uuid.New(), nil, "pi_jpy", nil, strPtr("500.00"), "jpy", "succeeded", strPtr("https://invoice"), now))

		p, inserted, err := store.InsertPayment(ctx, InsertPaymentParams{
			PaymentIntentID: "pi_jpy",
			Amount:          domain.NewMoney(500, "jpy"),
			Status:          domain.PaymentStatusSucceeded,
			ReceiptURL:      "https://invoice",
		})
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Nil(t, p.AccountID)
		assert.Equal(t, int64(500), p.Amount.Minor)
		assert.Equal(t, "https://invoice", p.ReceiptURL)
	})

	t.Run("duplicate is a no-op", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
			WithArgs(pgxmock.AnyArg(), "pi_1", pgxmock.AnyArg(), pgxmock.AnyArg(),
				"usd", "succeeded", pgxmock.AnyArg()).
			WillReturnRows(mock.NewRows(paymentCols))

		_, inserted, err := store.InsertPayment(ctx, InsertPaymentParams{
			AccountID:       &accountID,
			PaymentIntentID: "pi_1",
			Amount:          domain.NewMoney(999, "usd"),
			Status:          domain.PaymentStatusSucceeded,
		})
		require.NoError(t, err)
		assert.False(t, inserted)
	})
}

func TestListPaymentsForUser(t *testing.T) {
	store, mock := newMockStore(t)
	accountID := uuid.New()
	newer := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	older := newer.AddDate(0, -1, 0)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs(accountID).
		WillReturnRows(mock.NewRows(paymentCols).
			AddRow(uuid.New(), &accountID, "pi_2", strPtr("in_2"), strPtr("19.99"), "usd", "succeeded", nil, newer).
			AddRow(uuid.New(), &accountID, "pi_1", strPtr("in_1"), strPtr("9.99"), "usd", "succeeded", nil, older))

	payments, err := store.ListPaymentsForUser(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "pi_2", payments[0].PaymentIntentID)
	assert.Equal(t, "19.99", payments[0].Amount.Major())
	assert.Equal(t, int64(999), payments[1].Amount.Minor)
}

func TestListPaymentsForUser_Empty(t *testing.T) {
	store, mock := newMockStore(t)
	accountID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM payments")).
		WithArgs(accountID).
		WillReturnRows(mock.NewRows(paymentCols))

	payments, err := store.ListPaymentsForUser(context.Background(), accountID)
	require.NoError(t, err)
	assert.NotNil(t, payments)
	assert.Empty(t, payments)
}

func TestGetPlan(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM plans WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(mock.NewRows([]string{"id", "name", "is_active", "price_monthly", "price_yearly", "stripe_price_id", "stripe_product_id"}).
			AddRow(id, "Pro", true, int64(999), int64(9999), strPtr("price_pro"), nil))

	p, err := store.GetPlan(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Pro", p.Name)
	assert.Equal(t, int64(999), p.PriceMonthlyCents)
	assert.Equal(t, "price_pro", p.StripePriceID)
	assert.Empty(t, p.StripeProductID)
	assert.False(t, p.IsFree())
}

func TestSetPlanStripeIDs(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("updated", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE plans SET stripe_price_id")).
			WithArgs("price_1", "prod_1", id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		assert.NoError(t, store.SetPlanStripeIDs(ctx, id, "price_1", "prod_1"))
	})

	t.Run("missing plan", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE plans")).
			WithArgs("price_1", "prod_1", id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		assert.ErrorIs(t, store.SetPlanStripeIDs(ctx, id, "price_1", "prod_1"), ErrNotFound)
	})

	t.Run("price already used", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE plans")).
			WithArgs("price_1", "prod_1", id).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		err := store.SetPlanStripeIDs(ctx, id, "price_1", "prod_1")
		require.Error(t, err)
		assert.True(t, isUniqueViolation(err))
	})
}

func TestListPayments_StatusFilter(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM payments p LEFT JOIN users u ON u.id = p.user_id WHERE p.status = \$1 ORDER BY p.created_at DESC LIMIT 10 OFFSET 20`).
		WithArgs("succeeded").
		WillReturnRows(mock.NewRows(append(paymentCols, "email", "name")).
			AddRow(uuid.New(), nil, "pi_orphan", nil, strPtr("5.00"), "usd", "succeeded", nil, now, nil, nil))

	out, err := store.ListPayments(context.Background(), ListParams{Limit: 10, Offset: 20, Status: "succeeded"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].AccountID)
	assert.Empty(t, out[0].UserEmail)
	assert.Equal(t, int64(500), out[0].Amount.Minor)
}

func TestListSubscribers_DefaultLimit(t *testing.T) {
	store, mock := newMockStore(t)
	accountID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`LEFT JOIN plans pl ON pl.stripe_price_id = s.stripe_price_id ORDER BY s.updated_at DESC LIMIT 50 OFFSET 0`).
		WillReturnRows(mock.NewRows(append(subscriptionCols, "email", "name", "plan")).
			AddRow(uuid.New(), &accountID, "sub_1", "price_pro", "past_due",
				timePtr(now), timePtr(now.AddDate(0, 1, 0)), false, nil, nil, "evt_1", now, now, now,
				strPtr("a@example.com"), strPtr("Ada"), strPtr("Pro")))

	out, err := store.ListSubscribers(context.Background(), ListParams{Limit: -1})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.StatusPastDue, out[0].Status)
	assert.Equal(t, "a@example.com", out[0].UserEmail)
	assert.Equal(t, "Pro", out[0].PlanName)
}
