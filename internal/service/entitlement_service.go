package service

import (
	"context"
	"time"

	"pdf-toolkit/internal/domain"
	apperrors "pdf-toolkit/pkg/errors"
)

// EntitlementService gates every PDF operation behind the per-account,
// per-cycle quota tied to the subscription tier. All quota reads and writes
// go through the repository's per-account lock, so the check and the
// increment for one account can never interleave with another request for
// the same account.
type EntitlementService struct {
	accounts domain.AccountRepository
	limits   domain.TierLimits
	logger   domain.Logger
	now      func() time.Time
}

// NewEntitlementService creates a new entitlement service
func NewEntitlementService(accounts domain.AccountRepository, limits domain.TierLimits, logger domain.Logger) *EntitlementService {
	return &EntitlementService{
		accounts: accounts,
		limits:   limits,
		logger:   logger,
		now:      time.Now,
	}
}

// Limit returns the per-cycle quota for a tier. Unknown tiers fall back to
// the free limit.
func (s *EntitlementService) Limit(tier domain.SubscriptionTier) int {
	return s.limits.ForTier(tier)
}

// Usage rolls the usage cycle if due (persisting the roll even when the
// answer is deny) and reports the account's current quota state.
func (s *EntitlementService) Usage(ctx context.Context, accountID string) (*domain.UsageSnapshot, error) {
	var snapshot domain.UsageSnapshot
	err := s.accounts.WithAccountLock(ctx, accountID, func(account *domain.Account) error {
		if account.RollCycleIfDue(s.now()) {
			s.logger.Debug("Usage cycle rolled", "account_id", account.ID)
		}
		limit := s.Limit(account.SubscriptionTier)
		snapshot = domain.UsageSnapshot{
			UsageCount: account.UsageCount,
			UsageLimit: limit,
			Tier:       account.SubscriptionTier,
			Status:     account.SubscriptionStatus,
			CanPerform: account.UsageCount < limit,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Authorize reports whether the account may perform another operation this
// cycle. The lazy cycle roll is persisted even when the decision is deny.
func (s *EntitlementService) Authorize(ctx context.Context, accountID string) (bool, error) {
	snapshot, err := s.Usage(ctx, accountID)
	if err != nil {
		return false, err
	}
	return snapshot.CanPerform, nil
}

// RecordUsage increments the account's usage counter by one and persists it.
// Callers must have authorized first.
func (s *EntitlementService) RecordUsage(ctx context.Context, accountID string) error {
	return s.accounts.WithAccountLock(ctx, accountID, func(account *domain.Account) error {
		account.UsageCount++
		return nil
	})
}

// Consume is the transactional form of Authorize followed by RecordUsage:
// one atomic read-modify-write under the per-account lock. With one quota
// slot left, two concurrent Consume calls yield exactly one success and one
// QuotaExceeded. The cycle roll is persisted even when the call denies.
func (s *EntitlementService) Consume(ctx context.Context, accountID string) error {
	var denied *apperrors.AppError
	err := s.accounts.WithAccountLock(ctx, accountID, func(account *domain.Account) error {
		account.RollCycleIfDue(s.now())
		limit := s.Limit(account.SubscriptionTier)
		if account.UsageCount >= limit {
			denied = apperrors.NewQuotaExceededError(account.UsageCount, limit)
			return nil
		}
		account.UsageCount++
		return nil
	})
	if err != nil {
		return err
	}
	if denied != nil {
		s.logger.Info("Operation denied: quota exhausted", "account_id", accountID)
		return denied
	}
	return nil
}
