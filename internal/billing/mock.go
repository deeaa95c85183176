package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockProvider is an in-memory Provider for tests. Each method can be
// overridden through its *Func field; otherwise it simulates success.
// It is safe for concurrent use.
type MockProvider struct {
	CreateCustomerFunc        func(ctx context.Context, params CreateCustomerParams) (*Customer, error)
	CreateCheckoutSessionFunc func(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)
	CreatePortalSessionFunc   func(ctx context.Context, params CreatePortalSessionParams) (*PortalSession, error)
	CreateProductFunc         func(ctx context.Context, params CreateProductParams) (*Product, error)
	CreateRecurringPriceFunc  func(ctx context.Context, params CreateRecurringPriceParams) (*Price, error)

	mu sync.Mutex

	// Customers stores created customers by id.
	Customers map[string]*Customer

	// CheckoutSessions records every session request in call order.
	CheckoutSessions []CreateCheckoutSessionParams

	// CallLog tracks method calls for test assertions.
	CallLog []string
}

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Customers: make(map[string]*Customer),
		CallLog:   []string{},
	}
}

func (m *MockProvider) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, call)
}

// Calls returns a copy of the call log.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.CallLog...)
}

// CallCount returns how many logged calls start with method.
func (m *MockProvider) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.CallLog {
		if len(c) >= len(method) && c[:len(method)] == method {
			n++
		}
	}
	return n
}

func (m *MockProvider) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	m.record(fmt.Sprintf("CreateCustomer(%s)", params.Email))

	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, params)
	}

	c := &Customer{
		ID:        "cus_" + uuid.NewString()[:14],
		Email:     params.Email,
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	m.Customers[c.ID] = c
	m.mu.Unlock()
	return c, nil
}

func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	m.record(fmt.Sprintf("CreateCheckoutSession(%s, %s)", params.CustomerID, params.PriceID))

	m.mu.Lock()
	m.CheckoutSessions = append(m.CheckoutSessions, params)
	m.mu.Unlock()

	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}

	id := "cs_test_" + uuid.NewString()[:14]
	return &CheckoutSession{ID: id, URL: "https://checkout.stripe.test/c/pay/" + id}, nil
}

func (m *MockProvider) CreatePortalSession(ctx context.Context, params CreatePortalSessionParams) (*PortalSession, error) {
	m.record(fmt.Sprintf("CreatePortalSession(%s)", params.CustomerID))

	if m.CreatePortalSessionFunc != nil {
		return m.CreatePortalSessionFunc(ctx, params)
	}

	id := "bps_" + uuid.NewString()[:14]
	return &PortalSession{ID: id, URL: "https://billing.stripe.test/p/session/" + id}, nil
}

func (m *MockProvider) CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error) {
	m.record(fmt.Sprintf("CreateProduct(%s)", params.Name))

	if m.CreateProductFunc != nil {
		return m.CreateProductFunc(ctx, params)
	}
	return &Product{ID: "prod_" + uuid.NewString()[:14], Name: params.Name}, nil
}

func (m *MockProvider) CreateRecurringPrice(ctx context.Context, params CreateRecurringPriceParams) (*Price, error) {
	m.record(fmt.Sprintf("CreateRecurringPrice(%s, %d)", params.ProductID, params.UnitAmount))

	if m.CreateRecurringPriceFunc != nil {
		return m.CreateRecurringPriceFunc(ctx, params)
	}
	return &Price{
		ID:         "price_" + uuid.NewString()[:14],
		ProductID:  params.ProductID,
		UnitAmount: params.UnitAmount,
		Currency:   params.Currency,
		Interval:   params.Interval,
	}, nil
}

var _ Provider = (*MockProvider)(nil)
