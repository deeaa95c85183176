package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/dukerupert/qrprime/internal/repository"
	"github.com/dukerupert/qrprime/internal/telemetry"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// memStore is an in-memory stand-in for the Postgres store. It enforces
// the same unique constraints and upsert rules as the SQL statements.
type memStore struct {
	mu sync.Mutex

	customers     []domain.CustomerMapping
	plans         map[uuid.UUID]domain.Plan
	subscriptions map[string]domain.Subscription
	payments      []domain.Payment

	// insertMappingHook runs before InsertCustomerMapping takes the lock.
	insertMappingHook func()

	clock func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		plans:         map[uuid.UUID]domain.Plan{},
		subscriptions: map[string]domain.Subscription{},
		clock:         time.Now,
	}
}

func (s *memStore) GetCustomerByAccount(_ context.Context, accountID uuid.UUID) (domain.CustomerMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.customers {
		if m.AccountID == accountID {
			return m, nil
		}
	}
	return domain.CustomerMapping{}, repository.ErrNotFound
}

func (s *memStore) GetCustomerByCustomerID(_ context.Context, customerID string) (domain.CustomerMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.customers {
		if m.CustomerID == customerID {
			return m, nil
		}
	}
	return domain.CustomerMapping{}, repository.ErrNotFound
}

func (s *memStore) InsertCustomerMapping(_ context.Context, accountID uuid.UUID, customerID string) (domain.CustomerMapping, bool, error) {
	if s.insertMappingHook != nil {
		s.insertMappingHook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.customers {
		if m.AccountID == accountID || m.CustomerID == customerID {
			return domain.CustomerMapping{}, false, nil
		}
	}
	m := domain.CustomerMapping{ID: uuid.New(), AccountID: accountID, CustomerID: customerID, CreatedAt: s.clock()}
	s.customers = append(s.customers, m)
	return m, true, nil
}

func (s *memStore) mappingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.customers)
}

func (s *memStore) GetPlan(_ context.Context, id uuid.UUID) (domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return domain.Plan{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *memStore) ListPlansMissingStripePrice(context.Context) ([]domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Plan
	for _, p := range s.plans {
		if p.PriceMonthlyCents > 0 && p.StripePriceID == "" {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceMonthlyCents < out[j].PriceMonthlyCents })
	return out, nil
}

func (s *memStore) SetPlanStripeIDs(_ context.Context, id uuid.UUID, priceID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.StripePriceID = priceID
	p.StripeProductID = productID
	s.plans[id] = p
	return nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (s *memStore) UpsertSubscription(_ context.Context, arg repository.UpsertSubscriptionParams) (repository.UpsertSubscriptionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	accountID := arg.AccountID
	prev, exists := s.subscriptions[arg.SubscriptionID]
	if !exists {
		sub := domain.Subscription{
			ID:                 uuid.New(),
			AccountID:          &accountID,
			SubscriptionID:     arg.SubscriptionID,
			PriceID:            arg.PriceID,
			Status:             arg.Status,
			CurrentPeriodStart: arg.CurrentPeriodStart,
			CurrentPeriodEnd:   arg.CurrentPeriodEnd,
			CancelAtPeriodEnd:  arg.CancelAtPeriodEnd,
			TrialStart:         arg.TrialStart,
			TrialEnd:           arg.TrialEnd,
			LastEventID:        arg.EventID,
			LastEventAt:        arg.EventAt,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		s.subscriptions[arg.SubscriptionID] = sub
		return repository.UpsertSubscriptionResult{Subscription: sub, Applied: true, Created: true}, nil
	}

	price := arg.PriceID
	if price == "" {
		price = prev.PriceID
	}
	unchanged := prev.PriceID == price &&
		prev.Status == arg.Status &&
		sameTime(prev.CurrentPeriodStart, arg.CurrentPeriodStart) &&
		sameTime(prev.CurrentPeriodEnd, arg.CurrentPeriodEnd) &&
		prev.CancelAtPeriodEnd == arg.CancelAtPeriodEnd &&
		sameTime(prev.TrialStart, arg.TrialStart) &&
		sameTime(prev.TrialEnd, arg.TrialEnd) &&
		prev.LastEventID == arg.EventID
	if unchanged {
		return repository.UpsertSubscriptionResult{}, nil
	}
	if arg.StrictOrdering {
		if prev.LastEventAt.After(arg.EventAt) {
			return repository.UpsertSubscriptionResult{}, nil
		}
		if prev.Status == domain.StatusCanceled && arg.Status != domain.StatusCanceled {
			return repository.UpsertSubscriptionResult{}, nil
		}
	}

	sub := prev
	sub.AccountID = &accountID
	sub.PriceID = price
	sub.Status = arg.Status
	sub.CurrentPeriodStart = arg.CurrentPeriodStart
	sub.CurrentPeriodEnd = arg.CurrentPeriodEnd
	sub.CancelAtPeriodEnd = arg.CancelAtPeriodEnd
	sub.TrialStart = arg.TrialStart
	sub.TrialEnd = arg.TrialEnd
	sub.LastEventID = arg.EventID
	sub.LastEventAt = arg.EventAt
	sub.UpdatedAt = now
	s.subscriptions[arg.SubscriptionID] = sub
	return repository.UpsertSubscriptionResult{Subscription: sub, PreviousStatus: prev.Status, Applied: true}, nil
}

func (s *memStore) GetSubscription(_ context.Context, subscriptionID string) (domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[subscriptionID]
	if !ok {
		return domain.Subscription{}, repository.ErrNotFound
	}
	return sub, nil
}

func (s *memStore) GetLatestSubscriptionForUser(_ context.Context, accountID uuid.UUID) (domain.SubscriptionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.Subscription
	for _, sub := range s.subscriptions {
		if sub.AccountID == nil || *sub.AccountID != accountID {
			continue
		}
		if latest == nil || sub.UpdatedAt.After(latest.UpdatedAt) {
			sub := sub
			latest = &sub
		}
	}
	if latest == nil {
		return domain.SubscriptionSummary{}, repository.ErrNotFound
	}
	sum := domain.SubscriptionSummary{
		Status:            latest.Status,
		CurrentPeriodEnd:  latest.CurrentPeriodEnd,
		CancelAtPeriodEnd: latest.CancelAtPeriodEnd,
		TrialEnd:          latest.TrialEnd,
	}
	for _, p := range s.plans {
		if p.StripePriceID != "" && p.StripePriceID == latest.PriceID {
			sum.PlanName = p.Name
			sum.PriceMonthly = domain.NewMoney(p.PriceMonthlyCents, "usd").Major()
			sum.PriceYearly = domain.NewMoney(p.PriceYearlyCents, "usd").Major()
		}
	}
	return sum, nil
}

func (s *memStore) subscriptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscriptions)
}

func (s *memStore) InsertPayment(_ context.Context, arg repository.InsertPaymentParams) (domain.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.PaymentIntentID == arg.PaymentIntentID {
			return domain.Payment{}, false, nil
		}
	}
	p := domain.Payment{
		ID:              uuid.New(),
		AccountID:       arg.AccountID,
		PaymentIntentID: arg.PaymentIntentID,
		InvoiceID:       arg.InvoiceID,
		Amount:          arg.Amount,
		Status:          arg.Status,
		ReceiptURL:      arg.ReceiptURL,
		CreatedAt:       s.clock(),
	}
	s.payments = append(s.payments, p)
	return p, true, nil
}

func (s *memStore) ListPaymentsForUser(_ context.Context, accountID uuid.UUID) ([]domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Payment{}
	for _, p := range s.payments {
		if p.AccountID != nil && *p.AccountID == accountID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

func (s *memStore) ListPayments(context.Context, repository.ListParams) ([]domain.AdminPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.AdminPayment{}
	for _, p := range s.payments {
		out = append(out, domain.AdminPayment{Payment: p})
	}
	return out, nil
}

func (s *memStore) ListSubscribers(_ context.Context, params repository.ListParams) ([]domain.AdminSubscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.AdminSubscriber{}
	for _, sub := range s.subscriptions {
		if params.Status != "" && string(sub.Status) != params.Status {
			continue
		}
		out = append(out, domain.AdminSubscriber{Subscription: sub})
	}
	return out, nil
}

// tickingClock returns strictly increasing times so UpdatedAt ordering is
// deterministic.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *telemetry.BusinessMetrics {
	return telemetry.NewBusinessMetrics(prometheus.NewRegistry(), "test")
}

var (
	_ CustomerStore     = (*memStore)(nil)
	_ PlanStore         = (*memStore)(nil)
	_ SubscriptionStore = (*memStore)(nil)
	_ PaymentStore      = (*memStore)(nil)
	_ AdminStore        = (*memStore)(nil)
)
