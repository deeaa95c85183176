package billing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/product"
)

// StripeProvider implements Provider against the Stripe API.
//
// Each provider owns its backend and key; nothing is read from or written
// to stripe.Key, so several providers can coexist in one process.
type StripeProvider struct {
	config StripeConfig
	logger *slog.Logger

	customers customer.Client
	checkouts checkoutsession.Client
	portals   portalsession.Client
	products  product.Client
	prices    price.Client
}

// NewStripeProvider builds a provider with a bounded HTTP timeout.
func NewStripeProvider(config StripeConfig, logger *slog.Logger) (*StripeProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: config.Timeout()},
		MaxNetworkRetries: stripe.Int64(int64(config.MaxRetries)),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if config.BaseURL != "" {
		backendConfig.URL = stripe.String(config.BaseURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)

	p := &StripeProvider{
		config:    config,
		logger:    logger.With("component", "stripe"),
		customers: customer.Client{B: backend, Key: config.APIKey},
		checkouts: checkoutsession.Client{B: backend, Key: config.APIKey},
		portals:   portalsession.Client{B: backend, Key: config.APIKey},
		products:  product.Client{B: backend, Key: config.APIKey},
		prices:    price.Client{B: backend, Key: config.APIKey},
	}

	p.logger.Info("stripe provider configured",
		"test_mode", config.IsTestMode(),
		"timeout", config.Timeout(),
		"max_retries", config.MaxRetries,
	)
	return p, nil
}

// withTimeout bounds a single API call even when the caller's context has
// no deadline.
func (p *StripeProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.config.Timeout())
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	cp := &stripe.CustomerParams{
		Email: stripe.String(params.Email),
	}
	if params.Name != "" {
		cp.Name = stripe.String(params.Name)
	}
	for k, v := range params.Metadata {
		cp.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		cp.SetIdempotencyKey(params.IdempotencyKey)
	}
	cp.Context = ctx

	start := time.Now()
	c, err := p.customers.New(cp)
	if err != nil {
		p.logger.Error("create customer failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("create customer: %w", translateError(err))
	}

	return &Customer{
		ID:        c.ID,
		Email:     c.Email,
		CreatedAt: time.Unix(c.Created, 0).UTC(),
	}, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	sp := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(params.CustomerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: params.Metadata,
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		Metadata:   params.Metadata,
	}
	if params.TrialPeriodDays > 0 {
		sp.SubscriptionData.TrialPeriodDays = stripe.Int64(params.TrialPeriodDays)
	}
	sp.Context = ctx

	s, err := p.checkouts.New(sp)
	if err != nil {
		p.logger.Error("create checkout session failed", "error", err, "customer_id", params.CustomerID)
		return nil, fmt.Errorf("create checkout session: %w", translateError(err))
	}

	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, params CreatePortalSessionParams) (*PortalSession, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	sp := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(params.CustomerID),
		ReturnURL: stripe.String(params.ReturnURL),
	}
	sp.Context = ctx

	s, err := p.portals.New(sp)
	if err != nil {
		p.logger.Error("create portal session failed", "error", err, "customer_id", params.CustomerID)
		return nil, fmt.Errorf("create portal session: %w", translateError(err))
	}

	return &PortalSession{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	pp := &stripe.ProductParams{
		Name: stripe.String(params.Name),
	}
	if params.Description != "" {
		pp.Description = stripe.String(params.Description)
	}
	for k, v := range params.Metadata {
		pp.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		pp.SetIdempotencyKey(params.IdempotencyKey)
	}
	pp.Context = ctx

	prod, err := p.products.New(pp)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", translateError(err))
	}
	return &Product{ID: prod.ID, Name: prod.Name}, nil
}

func (p *StripeProvider) CreateRecurringPrice(ctx context.Context, params CreateRecurringPriceParams) (*Price, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	interval := params.Interval
	if interval == "" {
		interval = string(stripe.PriceRecurringIntervalMonth)
	}

	pp := &stripe.PriceParams{
		Product:    stripe.String(params.ProductID),
		UnitAmount: stripe.Int64(params.UnitAmount),
		Currency:   stripe.String(params.Currency),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(interval),
		},
	}
	for k, v := range params.Metadata {
		pp.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		pp.SetIdempotencyKey(params.IdempotencyKey)
	}
	pp.Context = ctx

	pr, err := p.prices.New(pp)
	if err != nil {
		return nil, fmt.Errorf("create price: %w", translateError(err))
	}

	out := &Price{
		ID:         pr.ID,
		UnitAmount: pr.UnitAmount,
		Currency:   string(pr.Currency),
		Interval:   interval,
	}
	if pr.Product != nil {
		out.ProductID = pr.Product.ID
	}
	return out, nil
}
