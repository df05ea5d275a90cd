package service

import (
	"context"
	"testing"
	"time"

	"pdf-toolkit/internal/domain"
	"pdf-toolkit/internal/repository"
)

// nopLogger discards everything. Service tests assert on behavior, not logs.
type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...interface{})             {}
func (nopLogger) Error(msg string, err error, fields ...interface{}) {}
func (nopLogger) Debug(msg string, fields ...interface{})            {}
func (nopLogger) Warn(msg string, fields ...interface{})             {}

// stubConfig satisfies domain.Config for wiring services under test.
type stubConfig struct {
	webhookSecret string
	priceBasic    string
	pricePro      string
	frontendURL   string
	limits        domain.TierLimits
}

func (c stubConfig) GetServerPort() string            { return "8080" }
func (c stubConfig) GetDatabaseURL() string           { return "" }
func (c stubConfig) GetLogLevel() string              { return "error" }
func (c stubConfig) GetJWTSecret() string             { return "test-secret" }
func (c stubConfig) GetMaxUploadBytes() int64         { return 10 * 1024 * 1024 }
func (c stubConfig) GetFrontendURL() string           { return c.frontendURL }
func (c stubConfig) GetStripeSecretKey() string       { return "sk_test_123" }
func (c stubConfig) GetStripeWebhookSecret() string   { return c.webhookSecret }
func (c stubConfig) GetStripePriceBasic() string      { return c.priceBasic }
func (c stubConfig) GetStripePricePro() string        { return c.pricePro }
func (c stubConfig) GetTierLimits() domain.TierLimits { return c.limits }

func newTestAccount(t *testing.T, repo *repository.MemoryAccountRepository, tier domain.SubscriptionTier, usageCount int) *domain.Account {
	t.Helper()
	account := &domain.Account{
		ID:                 "acc-" + string(tier),
		Email:              string(tier) + "@example.com",
		SubscriptionTier:   tier,
		SubscriptionStatus: domain.StatusActive,
		Role:               domain.RoleUser,
		UsageCount:         usageCount,
		UsageCycleStart:    time.Now().UTC(),
		CreatedAt:          time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	return account
}
