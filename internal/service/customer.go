package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/qrprime/internal/billing"
	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/dukerupert/qrprime/internal/repository"
	"github.com/dukerupert/qrprime/internal/telemetry"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	mappingCacheTTL     = 24 * time.Hour
	mappingCacheCleanup = time.Hour
)

// CustomerDirectory maps accounts to billing provider customers.
//
// A mapping is created at most once per account: concurrent callers in this
// process share one provider call through singleflight, and callers in
// other processes are reconciled by the unique constraints on the mapping
// table. Mappings never change once written, so they are cached.
type CustomerDirectory struct {
	store    CustomerStore
	provider billing.Provider
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger

	group singleflight.Group
	cache *cache.Cache
}

// NewCustomerDirectory creates a CustomerDirectory.
func NewCustomerDirectory(store CustomerStore, provider billing.Provider, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *CustomerDirectory {
	return &CustomerDirectory{
		store:    store,
		provider: provider,
		metrics:  metrics,
		logger:   logger.With("service", "customer_directory"),
		cache:    cache.New(mappingCacheTTL, mappingCacheCleanup),
	}
}

func accountKey(id uuid.UUID) string { return "acct:" + id.String() }

func customerKey(id string) string { return "cus:" + id }

func (d *CustomerDirectory) remember(m domain.CustomerMapping) {
	d.cache.Set(accountKey(m.AccountID), m.CustomerID, cache.DefaultExpiration)
	d.cache.Set(customerKey(m.CustomerID), m.AccountID, cache.DefaultExpiration)
}

// EnsureCustomerMapping returns the provider customer for accountID,
// creating the customer and the mapping on first use.
func (d *CustomerDirectory) EnsureCustomerMapping(ctx context.Context, accountID uuid.UUID, email string) (string, error) {
	const op = "customer.ensure"

	if v, ok := d.cache.Get(accountKey(accountID)); ok {
		return v.(string), nil
	}

	// The shared call outlives any single caller; each caller only stops
	// waiting when its own context ends.
	flight := d.group.DoChan(accountID.String(), func() (any, error) {
		return d.ensure(context.WithoutCancel(ctx), op, accountID, email)
	})
	select {
	case res := <-flight:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			d.logger.Debug("customer mapping request coalesced", "account_id", accountID)
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", domain.Internal(ctx.Err(), op, "customer mapping request canceled")
	}
}

func (d *CustomerDirectory) ensure(ctx context.Context, op string, accountID uuid.UUID, email string) (string, error) {
	m, err := d.store.GetCustomerByAccount(ctx, accountID)
	if err == nil {
		d.remember(m)
		return m.CustomerID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", domain.Internal(err, op, "failed to read customer mapping")
	}

	start := time.Now()
	cust, err := d.provider.CreateCustomer(ctx, billing.CreateCustomerParams{
		Email:          email,
		Metadata:       map[string]string{"userId": accountID.String()},
		IdempotencyKey: "customer:" + accountID.String(),
	})
	d.metrics.StripeAPILatency.WithLabelValues("create_customer").Observe(time.Since(start).Seconds())
	if err != nil {
		d.logger.Error("failed to create provider customer", "account_id", accountID, "error", err)
		return "", providerError(op, err)
	}

	m, inserted, err := d.store.InsertCustomerMapping(ctx, accountID, cust.ID)
	if err != nil {
		return "", domain.Internal(err, op, "failed to store customer mapping")
	}
	if !inserted {
		// Another writer stored a mapping between our read and insert.
		m, err = d.store.GetCustomerByAccount(ctx, accountID)
		if err != nil {
			return "", domain.Internal(
				fmt.Errorf("mapping for customer %s conflicts with another account: %w", cust.ID, err),
				op, "failed to store customer mapping")
		}
		if m.CustomerID != cust.ID {
			d.logger.Warn("discarding provider customer created by a lost race",
				"account_id", accountID,
				"kept_customer_id", m.CustomerID,
				"discarded_customer_id", cust.ID)
		}
	} else {
		d.logger.Info("customer mapping created", "account_id", accountID, "customer_id", m.CustomerID)
	}

	d.remember(m)
	return m.CustomerID, nil
}

// LookupByAccount returns the provider customer for an account, or
// ErrNoBillingAccount.
func (d *CustomerDirectory) LookupByAccount(ctx context.Context, accountID uuid.UUID) (string, error) {
	const op = "customer.lookup_by_account"

	if v, ok := d.cache.Get(accountKey(accountID)); ok {
		return v.(string), nil
	}
	m, err := d.store.GetCustomerByAccount(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", domain.WithOp(ErrNoBillingAccount, op, err)
	}
	if err != nil {
		return "", domain.Internal(err, op, "failed to read customer mapping")
	}
	d.remember(m)
	return m.CustomerID, nil
}

// LookupByCustomer resolves a provider customer to an account. found is
// false when no mapping exists.
func (d *CustomerDirectory) LookupByCustomer(ctx context.Context, customerID string) (accountID uuid.UUID, found bool, err error) {
	if v, ok := d.cache.Get(customerKey(customerID)); ok {
		return v.(uuid.UUID), true, nil
	}
	m, err := d.store.GetCustomerByCustomerID(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, domain.Internal(err, "customer.lookup_by_customer", "failed to read customer mapping")
	}
	d.remember(m)
	return m.AccountID, true, nil
}

// LinkCustomer records a mapping learned from the provider, such as a
// customer created by a checkout session. linked is false when either side
// was already mapped; a link to a different counterpart is logged and left
// as is.
func (d *CustomerDirectory) LinkCustomer(ctx context.Context, accountID uuid.UUID, customerID string) (linked bool, err error) {
	const op = "customer.link"

	m, inserted, err := d.store.InsertCustomerMapping(ctx, accountID, customerID)
	if err != nil {
		return false, domain.Internal(err, op, "failed to store customer mapping")
	}
	if inserted {
		d.remember(m)
		d.logger.Info("customer linked", "account_id", accountID, "customer_id", customerID)
		return true, nil
	}

	existing, err := d.store.GetCustomerByAccount(ctx, accountID)
	switch {
	case err == nil && existing.CustomerID == customerID:
		d.remember(existing)
	case err == nil:
		d.logger.Warn("account already mapped to a different customer",
			"account_id", accountID,
			"mapped_customer_id", existing.CustomerID,
			"event_customer_id", customerID)
	case errors.Is(err, repository.ErrNotFound):
		d.logger.Warn("customer already mapped to a different account",
			"account_id", accountID,
			"customer_id", customerID)
	default:
		return false, domain.Internal(err, op, "failed to read customer mapping")
	}
	return false, nil
}
