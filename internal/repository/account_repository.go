package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pdf-toolkit/internal/domain"
)

// PostgresAccountRepository persists accounts in Postgres. Per-account
// serialization for quota updates is implemented with a row-level lock
// (SELECT ... FOR UPDATE) inside a transaction.
type PostgresAccountRepository struct {
	db     *sql.DB
	logger domain.Logger
}

// NewPostgresAccountRepository creates a new account repository
func NewPostgresAccountRepository(db *sql.DB, logger domain.Logger) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db, logger: logger}
}

const accountColumns = `id, email, password_hash, subscription_tier, subscription_status,
	stripe_customer_id, stripe_subscription_id, usage_count, usage_cycle_start, role, created_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*domain.Account, error) {
	var (
		a      domain.Account
		custID sql.NullString
		subID  sql.NullString
	)
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.SubscriptionTier,
		&a.SubscriptionStatus,
		&custID,
		&subID,
		&a.UsageCount,
		&a.UsageCycleStart,
		&a.Role,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.StripeCustomerID = custID.String
	a.StripeSubscriptionID = subID.String
	return &a, nil
}

// nullable maps "" to NULL so the partial unique indexes on the Stripe
// reference columns only apply when a reference is present.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new account
func (r *PostgresAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.SubscriptionTier,
		account.SubscriptionStatus,
		nullable(account.StripeCustomerID),
		nullable(account.StripeSubscriptionID),
		account.UsageCount,
		account.UsageCycleStart,
		account.Role,
		account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID loads an account by primary key
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1;`, id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	return account, err
}

// GetByEmail loads an account by its unique email
func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1;`, email)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	return account, err
}

// GetBySubscriptionRef loads an account by its external subscription reference
func (r *PostgresAccountRepository) GetBySubscriptionRef(ctx context.Context, subscriptionID string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE stripe_subscription_id = $1;`, subscriptionID)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	return account, err
}

// Update persists all mutable account fields
func (r *PostgresAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET email = $2,
			password_hash = $3,
			subscription_tier = $4,
			subscription_status = $5,
			stripe_customer_id = $6,
			stripe_subscription_id = $7,
			usage_count = $8,
			usage_cycle_start = $9,
			role = $10
		WHERE id = $1;
	`,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.SubscriptionTier,
		account.SubscriptionStatus,
		nullable(account.StripeCustomerID),
		nullable(account.StripeSubscriptionID),
		account.UsageCount,
		account.UsageCycleStart,
		account.Role,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Delete removes an account. Operation records cascade via the foreign key.
func (r *PostgresAccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// WithAccountLock runs fn with the account row locked FOR UPDATE and persists
// the mutation before committing. Two concurrent calls for the same account
// serialize on the row lock, which is what keeps the quota check-then-act
// sequence safe.
func (r *PostgresAccountRepository) WithAccountLock(ctx context.Context, id string, fn func(account *domain.Account) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE;`, id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrAccountNotFound
	}
	if err != nil {
		return err
	}

	if err := fn(account); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE accounts
		SET subscription_tier = $2,
			subscription_status = $3,
			stripe_customer_id = $4,
			stripe_subscription_id = $5,
			usage_count = $6,
			usage_cycle_start = $7,
			role = $8
		WHERE id = $1;
	`,
		account.ID,
		account.SubscriptionTier,
		account.SubscriptionStatus,
		nullable(account.StripeCustomerID),
		nullable(account.StripeSubscriptionID),
		account.UsageCount,
		account.UsageCycleStart,
		account.Role,
	)
	if err != nil {
		return fmt.Errorf("update locked account: %w", err)
	}

	return tx.Commit()
}
