package domain

import (
	"time"
)

// SubscriptionTier is the paid plan level of an account. It determines the
// per-cycle usage quota.
type SubscriptionTier string

const (
	TierFree  SubscriptionTier = "free"
	TierBasic SubscriptionTier = "basic"
	TierPro   SubscriptionTier = "pro"
)

// SubscriptionStatus mirrors the billing provider's subscription status
// verbatim. Values outside the known set are stored as-is.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusPastDue  SubscriptionStatus = "past_due"
)

// Role controls access to administrative endpoints.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UsageCycleDays is the length of the rolling usage window. The counter is
// reset lazily on the next authorization check once the window has elapsed.
const UsageCycleDays = 30

// Account represents a registered user in the system.
type Account struct {
	ID                   string             `json:"id"`
	Email                string             `json:"email"`
	PasswordHash         string             `json:"-"`
	SubscriptionTier     SubscriptionTier   `json:"subscription_tier"`
	SubscriptionStatus   SubscriptionStatus `json:"subscription_status"`
	StripeCustomerID     string             `json:"-"`
	StripeSubscriptionID string             `json:"-"`
	UsageCount           int                `json:"usage_count"`
	UsageCycleStart      time.Time          `json:"usage_cycle_start"`
	Role                 Role               `json:"role"`
	CreatedAt            time.Time          `json:"created_at"`
}

// RollCycleIfDue resets the usage counter and advances the cycle start when
// the current window has elapsed. Returns true if a reset happened, in which
// case the caller must persist the account.
func (a *Account) RollCycleIfDue(now time.Time) bool {
	if a.UsageCycleStart.IsZero() {
		a.UsageCycleStart = now
		return true
	}
	if now.Sub(a.UsageCycleStart) >= UsageCycleDays*24*time.Hour {
		a.UsageCount = 0
		a.UsageCycleStart = now
		return true
	}
	return false
}

// CanAdminister reports whether the account may access admin endpoints.
func (a *Account) CanAdminister() bool {
	return a.Role == RoleAdmin
}

// IsPaid reports whether the account is on a paid tier.
func (a Account) IsPaid() bool {
	return a.SubscriptionTier != TierFree && a.SubscriptionTier != ""
}

// TierLimits holds the per-cycle operation quota for each tier.
type TierLimits struct {
	Free  int
	Basic int
	Pro   int
}

// DefaultTierLimits mirrors the documented plan quotas.
func DefaultTierLimits() TierLimits {
	return TierLimits{Free: 5, Basic: 100, Pro: 1000}
}

// ForTier returns the quota for a tier. Unknown tiers fall back to the free
// limit.
func (l TierLimits) ForTier(tier SubscriptionTier) int {
	switch tier {
	case TierBasic:
		return l.Basic
	case TierPro:
		return l.Pro
	default:
		return l.Free
	}
}

// UsageSnapshot is the authorization view of an account's quota state.
type UsageSnapshot struct {
	UsageCount int                `json:"usage_count"`
	UsageLimit int                `json:"usage_limit"`
	Tier       SubscriptionTier   `json:"subscription_tier"`
	Status     SubscriptionStatus `json:"subscription_status"`
	CanPerform bool               `json:"can_perform"`
}
