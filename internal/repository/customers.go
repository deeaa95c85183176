package repository

import (
	"context"
	"errors"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const customerColumns = `id, user_id, stripe_customer_id, created_at`

func scanCustomer(row pgx.Row) (domain.CustomerMapping, error) {
	var m domain.CustomerMapping
	err := row.Scan(&m.ID, &m.AccountID, &m.CustomerID, &m.CreatedAt)
	return m, err
}

// GetCustomerByAccount returns the mapping for an account.
func (s *Store) GetCustomerByAccount(ctx context.Context, accountID uuid.UUID) (domain.CustomerMapping, error) {
	ctx, span := s.startSpan(ctx, "GetCustomerByAccount", "stripe_customers", "SELECT",
		attribute.String("account.id", accountID.String()))
	defer span.End()

	m, err := scanCustomer(s.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM stripe_customers WHERE user_id = $1`, accountID))
	if err != nil {
		return domain.CustomerMapping{}, fail(span, err, "select customer by account failed")
	}
	return m, nil
}

// GetCustomerByCustomerID returns the mapping for a provider customer id.
func (s *Store) GetCustomerByCustomerID(ctx context.Context, customerID string) (domain.CustomerMapping, error) {
	ctx, span := s.startSpan(ctx, "GetCustomerByCustomerID", "stripe_customers", "SELECT",
		attribute.String("stripe.customer_id", customerID))
	defer span.End()

	m, err := scanCustomer(s.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM stripe_customers WHERE stripe_customer_id = $1`, customerID))
	if err != nil {
		return domain.CustomerMapping{}, fail(span, err, "select customer by stripe id failed")
	}
	return m, nil
}

// InsertCustomerMapping stores accountID -> customerID unless either side is
// already mapped. inserted is false when a conflicting row exists; the
// caller decides whether the existing row is the same link.
func (s *Store) InsertCustomerMapping(ctx context.Context, accountID uuid.UUID, customerID string) (m domain.CustomerMapping, inserted bool, err error) {
	ctx, span := s.startSpan(ctx, "InsertCustomerMapping", "stripe_customers", "INSERT",
		attribute.String("account.id", accountID.String()),
		attribute.String("stripe.customer_id", customerID))
	defer span.End()

	m, err = scanCustomer(s.db.QueryRow(ctx, `
		INSERT INTO stripe_customers (user_id, stripe_customer_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
		RETURNING `+customerColumns, accountID, customerID))
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetAttributes(attribute.Bool("db.conflict", true))
		return domain.CustomerMapping{}, false, nil
	}
	if err != nil {
		return domain.CustomerMapping{}, false, fail(span, err, "insert customer mapping failed")
	}

	span.SetStatus(codes.Ok, "mapping created")
	return m, true, nil
}
