package config

import (
	"context"
	"database/sql"

	"pdf-toolkit/internal/domain"
	"pdf-toolkit/internal/repository"
	"pdf-toolkit/internal/service"
	"pdf-toolkit/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config      domain.Config
	Logger      domain.Logger
	Accounts    domain.AccountRepository
	Ledger      domain.OperationLedger
	Entitlement *service.EntitlementService
	Billing     *service.BillingService
	Auth        *service.AuthService
	PDF         domain.PDFProcessor

	db *sql.DB
}

// NewContainer creates a new dependency injection container. Without a
// DATABASE_URL the in-memory repositories are used, which is only suitable
// for local development.
func NewContainer(ctx context.Context) (*Container, error) {
	cfg := NewConfig()
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	var (
		db       *sql.DB
		accounts domain.AccountRepository
		ledger   domain.OperationLedger
	)
	if cfg.GetDatabaseURL() != "" {
		var err error
		db, err = repository.OpenPostgres(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, err
		}
		accounts = repository.NewPostgresAccountRepository(db, appLogger)
		ledger = repository.NewPostgresOperationLedger(db, appLogger)
	} else {
		appLogger.Warn("DATABASE_URL not set, using in-memory storage")
		memAccounts := repository.NewMemoryAccountRepository()
		memLedger := repository.NewMemoryOperationLedger(memAccounts)
		memAccounts.SetDeleteHook(memLedger.DeleteForAccount)
		accounts = memAccounts
		ledger = memLedger
	}

	gateway := service.NewStripeGateway(cfg.GetStripeSecretKey())

	return &Container{
		Config:      cfg,
		Logger:      appLogger,
		Accounts:    accounts,
		Ledger:      ledger,
		Entitlement: service.NewEntitlementService(accounts, cfg.GetTierLimits(), appLogger),
		Billing:     service.NewBillingService(accounts, gateway, cfg, appLogger),
		Auth:        service.NewAuthService(accounts, cfg.GetJWTSecret(), appLogger),
		PDF:         service.NewPDFService(appLogger),
		db:          db,
	}, nil
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
