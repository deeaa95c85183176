// Package repository is the Postgres persistence layer for billing state.
//
// Every write is a single statement: customer mappings and payments are
// dedup-inserts, subscriptions are upserts keyed on the provider id. Row
// locks taken by those statements are the only coordination between
// concurrent webhook deliveries and checkout requests.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("repository: not found")

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements the billing repositories over a pgx connection.
type Store struct {
	db     DBTX
	tracer trace.Tracer
}

// New creates a Store.
func New(db DBTX) *Store {
	return &Store{
		db:     db,
		tracer: otel.Tracer("github.com/dukerupert/qrprime/internal/repository"),
	}
}

func (s *Store) startSpan(ctx context.Context, name, table, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", table),
		attribute.String("db.operation", op),
	)
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// fail records err on span and returns it, mapping pgx.ErrNoRows to
// ErrNotFound.
func fail(span trace.Span, err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetStatus(codes.Ok, "no rows")
		return ErrNotFound
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
