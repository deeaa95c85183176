package repository

import (
	"context"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// GetAccount reads an account from the account directory's users table.
func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	ctx, span := s.startSpan(ctx, "GetAccount", "users", "SELECT",
		attribute.String("account.id", id.String()))
	defer span.End()

	var (
		a    domain.Account
		name *string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, email, name, role FROM users WHERE id = $1`, id,
	).Scan(&a.ID, &a.Email, &name, &a.Role)
	if err != nil {
		return domain.Account{}, fail(span, err, "select account failed")
	}
	if name != nil {
		a.Name = *name
	}
	return a, nil
}
