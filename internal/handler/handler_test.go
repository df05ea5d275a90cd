package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"pdf-toolkit/internal/config"
	"pdf-toolkit/internal/domain"
	"pdf-toolkit/internal/repository"
	"pdf-toolkit/internal/service"
)

const testWebhookSecret = "whsec_handler_test"

// fakePDFProcessor returns canned bytes so handler tests exercise the HTTP
// flow without a real PDF engine.
type fakePDFProcessor struct {
	err       error
	pageCount int
}

func (p *fakePDFProcessor) Merge(inputs [][]byte) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []byte("%PDF-merged"), nil
}

func (p *fakePDFProcessor) SplitPages(input []byte) ([][]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	n := p.pageCount
	if n == 0 {
		n = 2
	}
	pages := make([][]byte, n)
	for i := range pages {
		pages[i] = []byte("%PDF-page")
	}
	return pages, nil
}

func (p *fakePDFProcessor) Compress(input []byte, quality string) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []byte("%PDF-compressed"), nil
}

func (p *fakePDFProcessor) ImagesToPDF(images [][]byte) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []byte("%PDF-converted"), nil
}

// fakeGateway keeps billing handler tests off the network.
type fakeGateway struct {
	checkoutURL string
	resolved    *service.CheckoutInfo
	resolveErr  error
}

func (g *fakeGateway) CreateSubscriptionCheckout(ctx context.Context, email, customerID, priceID, successURL, cancelURL string) (string, error) {
	return g.checkoutURL, nil
}

func (g *fakeGateway) ResolveCheckout(ctx context.Context, sessionID string) (*service.CheckoutInfo, error) {
	if g.resolveErr != nil {
		return nil, g.resolveErr
	}
	return g.resolved, nil
}

// newTestContainer wires the real services onto in-memory storage with fake
// external edges (PDF engine, payment gateway).
func newTestContainer(t *testing.T, gateway service.PaymentGateway) (*config.Container, *repository.MemoryAccountRepository) {
	t.Helper()
	cfg := &config.AppConfig{
		ServerPort:          "8080",
		LogLevel:            "error",
		JWTSecret:           "test-secret",
		MaxUploadBytes:      10 * 1024 * 1024,
		FrontendURL:         "https://app.example.com",
		StripeWebhookSecret: testWebhookSecret,
		StripePriceBasic:    "price_basic_123",
		StripePricePro:      "price_pro_456",
		TierLimits:          domain.DefaultTierLimits(),
	}
	logger := NewMockHandlerLogger()
	accounts := repository.NewMemoryAccountRepository()
	ledger := repository.NewMemoryOperationLedger(accounts)
	accounts.SetDeleteHook(ledger.DeleteForAccount)
	if gateway == nil {
		gateway = &fakeGateway{}
	}

	return &config.Container{
		Config:      cfg,
		Logger:      logger,
		Accounts:    accounts,
		Ledger:      ledger,
		Entitlement: service.NewEntitlementService(accounts, cfg.TierLimits, logger),
		Billing:     service.NewBillingService(accounts, gateway, cfg, logger),
		Auth:        service.NewAuthService(accounts, cfg.JWTSecret, logger),
		PDF:         &fakePDFProcessor{},
	}, accounts
}

func seedTestAccount(t *testing.T, accounts *repository.MemoryAccountRepository, id string, tier domain.SubscriptionTier, usageCount int) *domain.Account {
	t.Helper()
	account := &domain.Account{
		ID:                 id,
		Email:              id + "@example.com",
		SubscriptionTier:   tier,
		SubscriptionStatus: domain.StatusActive,
		Role:               domain.RoleUser,
		UsageCount:         usageCount,
		UsageCycleStart:    time.Now().UTC(),
		CreatedAt:          time.Now().UTC(),
	}
	if err := accounts.Create(context.Background(), account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	return account
}

// withAccount plants an account in the request context the way the auth
// middleware does.
func withAccount(r *http.Request, account *domain.Account) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), accountContextKey, account))
}
