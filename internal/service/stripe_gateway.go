package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// CheckoutInfo is the resolved outcome of a completed checkout session.
type CheckoutInfo struct {
	CustomerID     string
	SubscriptionID string
	PriceID        string
}

// PaymentGateway abstracts the hosted billing provider's synchronous API.
type PaymentGateway interface {
	CreateSubscriptionCheckout(ctx context.Context, email, customerID, priceID, successURL, cancelURL string) (string, error)
	ResolveCheckout(ctx context.Context, sessionID string) (*CheckoutInfo, error)
}

// StripeGateway implements PaymentGateway against Stripe. The API client is
// constructed from injected configuration; there is no package-global key.
type StripeGateway struct {
	sc *client.API
}

// NewStripeGateway creates a Stripe-backed payment gateway
func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{sc: sc}
}

// CreateSubscriptionCheckout starts a subscription-mode checkout session and
// returns the hosted checkout URL. When the account already has a customer
// ref it is reused, otherwise Stripe creates one keyed by email.
func (g *StripeGateway) CreateSubscriptionCheckout(ctx context.Context, email, customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	} else {
		params.CustomerEmail = stripe.String(email)
	}

	sess, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// ResolveCheckout retrieves a checkout session and its subscription from
// Stripe and reports the customer ref, subscription ref and current price ID.
func (g *StripeGateway) ResolveCheckout(ctx context.Context, sessionID string) (*CheckoutInfo, error) {
	sess, err := g.sc.CheckoutSessions.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	if sess.Customer == nil || sess.Subscription == nil {
		return nil, errors.New("checkout session has no customer or subscription")
	}

	sub, err := g.sc.Subscriptions.Get(sess.Subscription.ID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription: %w", err)
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return nil, errors.New("subscription has no price")
	}

	return &CheckoutInfo{
		CustomerID:     sess.Customer.ID,
		SubscriptionID: sess.Subscription.ID,
		PriceID:        sub.Items.Data[0].Price.ID,
	}, nil
}
