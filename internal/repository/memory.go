package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"pdf-toolkit/internal/domain"

	"github.com/google/uuid"
)

// MemoryAccountRepository is an in-process account store. It backs local
// development when no DATABASE_URL is configured and the package tests.
// WithAccountLock serializes on a per-account mutex, giving the same
// per-account exclusion contract as the Postgres row lock.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	onDelete func(accountID string)

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewMemoryAccountRepository creates an empty in-memory account store
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[string]domain.Account),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *MemoryAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return domain.ErrEmailTaken
		}
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *MemoryAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

func (r *MemoryAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.accounts {
		if account.Email == email {
			a := account
			return &a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *MemoryAccountRepository) GetBySubscriptionRef(ctx context.Context, subscriptionID string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.accounts {
		if account.StripeSubscriptionID != "" && account.StripeSubscriptionID == subscriptionID {
			a := account
			return &a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *MemoryAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *MemoryAccountRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.accounts[id]; !ok {
		r.mu.Unlock()
		return domain.ErrAccountNotFound
	}
	delete(r.accounts, id)
	r.mu.Unlock()

	if r.onDelete != nil {
		r.onDelete(id)
	}
	return nil
}

// SetDeleteHook registers a callback invoked after an account is deleted.
// The in-memory ledger uses it to mirror the Postgres cascade delete.
func (r *MemoryAccountRepository) SetDeleteHook(fn func(accountID string)) {
	r.onDelete = fn
}

func (r *MemoryAccountRepository) WithAccountLock(ctx context.Context, id string, fn func(account *domain.Account) error) error {
	lock := r.accountLock(id)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	stored, ok := r.accounts[id]
	r.mu.RUnlock()
	if !ok {
		return domain.ErrAccountNotFound
	}

	account := stored
	if err := fn(&account); err != nil {
		return err
	}

	r.mu.Lock()
	r.accounts[id] = account
	r.mu.Unlock()
	return nil
}

func (r *MemoryAccountRepository) accountLock(id string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

// MemoryOperationLedger is the in-process counterpart of the Postgres ledger.
type MemoryOperationLedger struct {
	mu       sync.RWMutex
	records  []domain.OperationRecord
	accounts *MemoryAccountRepository
	now      func() time.Time
}

// NewMemoryOperationLedger creates an empty in-memory ledger. The account
// repository is consulted for the account counts in GlobalStats and for
// cascade deletes.
func NewMemoryOperationLedger(accounts *MemoryAccountRepository) *MemoryOperationLedger {
	return &MemoryOperationLedger{accounts: accounts, now: time.Now}
}

func (l *MemoryOperationLedger) Append(ctx context.Context, accountID string, opType domain.OperationType, fileCount int, succeeded bool) (*domain.OperationRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record := domain.OperationRecord{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Type:      opType,
		FileCount: fileCount,
		Succeeded: succeeded,
		CreatedAt: l.now().UTC(),
	}
	l.records = append(l.records, record)
	return &record, nil
}

func (l *MemoryOperationLedger) RecentForAccount(ctx context.Context, accountID string, limit int) ([]domain.OperationRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var matched []domain.OperationRecord
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].AccountID == accountID {
			matched = append(matched, l.records[i])
		}
	}
	return newestFirst(matched, limit), nil
}

func (l *MemoryOperationLedger) Recent(ctx context.Context, limit int) ([]domain.OperationRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	all := make([]domain.OperationRecord, 0, len(l.records))
	for i := len(l.records) - 1; i >= 0; i-- {
		all = append(all, l.records[i])
	}
	return newestFirst(all, limit), nil
}

func (l *MemoryOperationLedger) GlobalStats(ctx context.Context) (*domain.GlobalStats, error) {
	l.mu.RLock()
	totalOps := len(l.records)
	l.mu.RUnlock()

	stats := &domain.GlobalStats{TotalOperations: totalOps}
	if l.accounts != nil {
		l.accounts.mu.RLock()
		for _, account := range l.accounts.accounts {
			stats.TotalAccounts++
			if account.IsPaid() {
				stats.PaidAccounts++
			}
		}
		l.accounts.mu.RUnlock()
	}
	return stats, nil
}

// DeleteForAccount drops all records owned by an account. The Postgres
// ledger gets this behavior from the ON DELETE CASCADE foreign key.
func (l *MemoryOperationLedger) DeleteForAccount(accountID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.records[:0]
	for _, rec := range l.records {
		if rec.AccountID != accountID {
			kept = append(kept, rec)
		}
	}
	l.records = kept
}

// newestFirst sorts by creation time descending. Inputs arrive in reverse
// insertion order, so the stable sort breaks timestamp ties with the newest
// insertion first. Truncates to limit.
func newestFirst(records []domain.OperationRecord, limit int) []domain.OperationRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}
