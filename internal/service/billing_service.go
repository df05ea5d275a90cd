package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"pdf-toolkit/internal/domain"
	apperrors "pdf-toolkit/pkg/errors"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// BillingService reconciles account subscription state with Stripe: it
// starts checkout sessions, applies verified checkout completions and
// processes the asynchronous, at-least-once webhook notifications.
type BillingService struct {
	accounts      domain.AccountRepository
	gateway       PaymentGateway
	webhookSecret string
	priceBasic    string
	pricePro      string
	frontendURL   string
	logger        domain.Logger
}

// NewBillingService creates a new billing service. The price→tier mapping is
// exact-match configuration; unknown price IDs never change a tier.
func NewBillingService(accounts domain.AccountRepository, gateway PaymentGateway, cfg domain.Config, logger domain.Logger) *BillingService {
	return &BillingService{
		accounts:      accounts,
		gateway:       gateway,
		webhookSecret: cfg.GetStripeWebhookSecret(),
		priceBasic:    cfg.GetStripePriceBasic(),
		pricePro:      cfg.GetStripePricePro(),
		frontendURL:   strings.TrimRight(cfg.GetFrontendURL(), "/"),
		logger:        logger,
	}
}

// TierForPrice maps an external price identifier to a subscription tier.
func (s *BillingService) TierForPrice(priceID string) (domain.SubscriptionTier, bool) {
	switch {
	case priceID != "" && priceID == s.priceBasic:
		return domain.TierBasic, true
	case priceID != "" && priceID == s.pricePro:
		return domain.TierPro, true
	default:
		return "", false
	}
}

// CreateCheckoutSession starts a subscription checkout for the authenticated
// account. Price IDs outside the configured mapping are rejected.
func (s *BillingService) CreateCheckoutSession(ctx context.Context, account *domain.Account, priceID string) (string, error) {
	if _, ok := s.TierForPrice(priceID); !ok {
		return "", apperrors.NewValidationError("Unknown price ID")
	}

	successURL := s.frontendURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := s.frontendURL + "/pricing"

	url, err := s.gateway.CreateSubscriptionCheckout(ctx, account.Email, account.StripeCustomerID, priceID, successURL, cancelURL)
	if err != nil {
		s.logger.Error("Checkout session creation failed", err, "account_id", account.ID)
		return "", apperrors.NewInternalError("Failed to create checkout session", err)
	}
	return url, nil
}

// CompleteCheckout resolves a finished checkout session and applies the
// subscription to the authenticated caller's account. The account is always
// identified by the caller's own identity, never by anything inside the
// session, so an attacker-supplied session ID cannot redirect an upgrade.
func (s *BillingService) CompleteCheckout(ctx context.Context, accountID, sessionID string) error {
	if sessionID == "" {
		return apperrors.NewValidationError("Missing session ID")
	}

	info, err := s.gateway.ResolveCheckout(ctx, sessionID)
	if err != nil {
		s.logger.Error("Checkout resolution failed", err, "account_id", accountID)
		return apperrors.NewInternalError("Failed to resolve checkout session", err)
	}

	tier, ok := s.TierForPrice(info.PriceID)
	if !ok {
		s.logger.Warn("Checkout completed with unmapped price", "price_id", info.PriceID, "account_id", accountID)
		return apperrors.NewValidationError("Checkout price is not mapped to a plan")
	}

	err = s.accounts.WithAccountLock(ctx, accountID, func(account *domain.Account) error {
		account.StripeCustomerID = info.CustomerID
		account.StripeSubscriptionID = info.SubscriptionID
		account.SubscriptionTier = tier
		account.SubscriptionStatus = domain.StatusActive
		return nil
	})
	if err != nil {
		return apperrors.NewInternalError("Failed to apply subscription", err)
	}

	s.logger.Info("Subscription activated", "account_id", accountID, "tier", tier)
	return nil
}

// VerifyWebhook checks the payload signature against the shared signing
// secret. Verification is stateless; a failure mutates nothing.
func (s *BillingService) VerifyWebhook(payload []byte, signatureHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signatureHeader,
		s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return stripe.Event{}, apperrors.NewBillingVerificationError(err)
	}
	return event, nil
}

// HandleWebhook verifies and applies a raw webhook delivery.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := s.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		return err
	}
	return s.ApplyEvent(ctx, event)
}

// ApplyEvent mutates account subscription state for the events this service
// cares about. Every handler is a last-write-set, so applying the same event
// twice leaves the same state as applying it once, which makes at-least-once
// delivery safe. Events for unknown subscription refs are acknowledged
// no-ops: Stripe retries on failure responses and there is nothing locally
// to retry.
func (s *BillingService) ApplyEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "customer.subscription.updated":
		sub, err := parseSubscription(event)
		if err != nil {
			return err
		}
		return s.applyToSubscriber(ctx, sub.ID, func(account *domain.Account) {
			account.SubscriptionStatus = domain.SubscriptionStatus(sub.Status)
		})
	case "customer.subscription.deleted":
		sub, err := parseSubscription(event)
		if err != nil {
			return err
		}
		return s.applyToSubscriber(ctx, sub.ID, func(account *domain.Account) {
			account.SubscriptionTier = domain.TierFree
			account.SubscriptionStatus = domain.StatusCanceled
		})
	default:
		// Intentionally ignore unhandled events.
		return nil
	}
}

func (s *BillingService) applyToSubscriber(ctx context.Context, subscriptionID string, mutate func(*domain.Account)) error {
	account, err := s.accounts.GetBySubscriptionRef(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.logger.Info("Webhook for unknown subscription ignored", "subscription_id", subscriptionID)
			return nil
		}
		return apperrors.NewInternalError("Failed to look up subscriber", err)
	}

	err = s.accounts.WithAccountLock(ctx, account.ID, func(account *domain.Account) error {
		mutate(account)
		return nil
	})
	if err != nil {
		return apperrors.NewInternalError("Failed to apply subscription event", err)
	}
	return nil
}

func parseSubscription(event stripe.Event) (*stripe.Subscription, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, apperrors.NewValidationError("Invalid subscription payload", err.Error())
	}
	if sub.ID == "" {
		return nil, apperrors.NewValidationError("Subscription payload missing id")
	}
	return &sub, nil
}
