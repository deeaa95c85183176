package repository

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel/attribute"
)

// Amounts are read back as text so the decimal is parsed against the
// currency's precision rather than through a float.
const paymentColumns = `id, user_id, stripe_payment_intent_id, stripe_invoice_id,
	amount::text, currency, status, receipt_url, created_at`

func paymentDest(p *domain.Payment, invoiceID, amount, receiptURL **string) []any {
	return []any{
		&p.ID, &p.AccountID, &p.PaymentIntentID, invoiceID,
		amount, &p.Amount.Currency, &p.Status, receiptURL, &p.CreatedAt,
	}
}

// finishPayment fills the string fields scanned through pointers.
func finishPayment(p *domain.Payment, invoiceID, amount, receiptURL *string) error {
	if invoiceID != nil {
		p.InvoiceID = *invoiceID
	}
	if receiptURL != nil {
		p.ReceiptURL = *receiptURL
	}
	if amount == nil {
		return fmt.Errorf("payment %s has no amount", p.PaymentIntentID)
	}
	m, err := domain.ParseMoney(*amount, p.Amount.Currency)
	if err != nil {
		return err
	}
	p.Amount = m
	return nil
}

// InsertPaymentParams describes one settled charge.
type InsertPaymentParams struct {
	AccountID       *uuid.UUID
	PaymentIntentID string
	InvoiceID       string
	Amount          domain.Money
	Status          string
	ReceiptURL      string
}

// majorNumeric converts minor units to the NUMERIC major-unit value stored
// in payments.amount.
func majorNumeric(m domain.Money) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   big.NewInt(m.Minor),
		Exp:   int32(-m.Exponent()),
		Valid: true,
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// InsertPayment appends a payment unless one with the same payment intent
// already exists. inserted is false for a redelivered payment.
func (s *Store) InsertPayment(ctx context.Context, arg InsertPaymentParams) (p domain.Payment, inserted bool, err error) {
	ctx, span := s.startSpan(ctx, "InsertPayment", "payments", "INSERT",
		attribute.String("stripe.payment_intent_id", arg.PaymentIntentID),
		attribute.String("stripe.invoice_id", arg.InvoiceID),
		attribute.Bool("payment.account_resolved", arg.AccountID != nil))
	defer span.End()

	var invoiceID, amount, receiptURL *string
	err = s.db.QueryRow(ctx, `
		INSERT INTO payments (
			user_id, stripe_payment_intent_id, stripe_invoice_id,
			amount, currency, status, receipt_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (stripe_payment_intent_id) DO NOTHING
		RETURNING `+paymentColumns,
		arg.AccountID,
		arg.PaymentIntentID,
		nullString(arg.InvoiceID),
		majorNumeric(arg.Amount),
		arg.Amount.Currency,
		arg.Status,
		nullString(arg.ReceiptURL),
	).Scan(paymentDest(&p, &invoiceID, &amount, &receiptURL)...)
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetAttributes(attribute.Bool("db.conflict", true))
		return domain.Payment{}, false, nil
	}
	if err != nil {
		return domain.Payment{}, false, fail(span, err, "insert payment failed")
	}
	if err := finishPayment(&p, invoiceID, amount, receiptURL); err != nil {
		return domain.Payment{}, false, fail(span, err, "decode payment failed")
	}
	return p, true, nil
}

// ListPaymentsForUser returns an account's payments, newest first.
func (s *Store) ListPaymentsForUser(ctx context.Context, accountID uuid.UUID) ([]domain.Payment, error) {
	ctx, span := s.startSpan(ctx, "ListPaymentsForUser", "payments", "SELECT",
		attribute.String("account.id", accountID.String()))
	defer span.End()

	rows, err := s.db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, fail(span, err, "select payments failed")
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		var (
			p                             domain.Payment
			invoiceID, amount, receiptURL *string
		)
		if err := rows.Scan(paymentDest(&p, &invoiceID, &amount, &receiptURL)...); err != nil {
			return nil, fail(span, err, "scan payment failed")
		}
		if err := finishPayment(&p, invoiceID, amount, receiptURL); err != nil {
			return nil, fail(span, err, "decode payment failed")
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fail(span, err, "iterate payments failed")
	}
	span.SetAttributes(attribute.Int("db.rows", len(payments)))
	return payments, nil
}
