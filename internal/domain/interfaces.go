package domain

import (
	"context"
	"errors"
)

// Domain errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidToken    = errors.New("invalid token")
)

// AccountRepository defines persistence for accounts. Implementations must
// support an atomic per-account read-modify-write (WithAccountLock) so that
// the quota check and the usage increment for one account are serialized.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetBySubscriptionRef(ctx context.Context, subscriptionID string) (*Account, error)
	Update(ctx context.Context, account *Account) error
	Delete(ctx context.Context, id string) error

	// WithAccountLock loads the account, holds an exclusive per-account lock
	// while fn runs, and persists any mutation fn applied before releasing
	// the lock. An error from fn rolls the mutation back.
	WithAccountLock(ctx context.Context, id string, fn func(account *Account) error) error
}

// OperationLedger is the durable, append-only audit trail of attempted
// operations. No update or delete of individual records is exposed; records
// disappear only through account cascade delete.
type OperationLedger interface {
	Append(ctx context.Context, accountID string, opType OperationType, fileCount int, succeeded bool) (*OperationRecord, error)
	RecentForAccount(ctx context.Context, accountID string, limit int) ([]OperationRecord, error)
	Recent(ctx context.Context, limit int) ([]OperationRecord, error)
	GlobalStats(ctx context.Context) (*GlobalStats, error)
}

// PDFProcessor defines the delegated PDF manipulation operations. The
// implementation is a thin wrapper over an existing PDF library.
type PDFProcessor interface {
	Merge(inputs [][]byte) ([]byte, error)
	SplitPages(input []byte) ([][]byte, error)
	Compress(input []byte, quality string) ([]byte, error)
	ImagesToPDF(images [][]byte) ([]byte, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetDatabaseURL() string
	GetLogLevel() string
	GetJWTSecret() string
	GetMaxUploadBytes() int64
	GetFrontendURL() string
	GetStripeSecretKey() string
	GetStripeWebhookSecret() string
	GetStripePriceBasic() string
	GetStripePricePro() string
	GetTierLimits() TierLimits
}
