package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pdf-toolkit/internal/domain"
	"pdf-toolkit/internal/service"
)

func signWebhook(secret string, payload []byte, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestBillingHandler_CreateCheckoutSession(t *testing.T) {
	gateway := &fakeGateway{checkoutURL: "https://checkout.stripe.com/pay/cs_123"}
	container, accounts := newTestContainer(t, gateway)
	handler := NewBillingHandler(container)
	account := seedTestAccount(t, accounts, "acc-checkout", domain.TierFree, 0)

	req := withAccount(httptest.NewRequest("POST", "/api/v1/billing/checkout-session",
		strings.NewReader(`{"price_id":"price_basic_123"}`)), account)
	rr := httptest.NewRecorder()

	handler.CreateCheckoutSession(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "https://checkout.stripe.com/pay/cs_123") {
		t.Fatalf("expected checkout url in body, got %s", rr.Body.String())
	}
}

func TestBillingHandler_CreateCheckoutSessionRejectsUnknownPrice(t *testing.T) {
	container, accounts := newTestContainer(t, nil)
	handler := NewBillingHandler(container)
	account := seedTestAccount(t, accounts, "acc-badprice", domain.TierFree, 0)

	req := withAccount(httptest.NewRequest("POST", "/api/v1/billing/checkout-session",
		strings.NewReader(`{"price_id":"price_mystery"}`)), account)
	rr := httptest.NewRecorder()

	handler.CreateCheckoutSession(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestBillingHandler_CheckoutSuccessUpgradesCaller(t *testing.T) {
	gateway := &fakeGateway{resolved: &service.CheckoutInfo{
		CustomerID:     "cus_123",
		SubscriptionID: "sub_123",
		PriceID:        "price_pro_456",
	}}
	container, accounts := newTestContainer(t, gateway)
	handler := NewBillingHandler(container)
	account := seedTestAccount(t, accounts, "acc-success", domain.TierFree, 0)

	req := withAccount(httptest.NewRequest("GET", "/api/v1/billing/success?session_id=cs_123", nil), account)
	rr := httptest.NewRecorder()

	handler.CheckoutSuccess(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rr.Code, rr.Body.String())
	}

	stored, _ := accounts.GetByID(context.Background(), account.ID)
	if stored.SubscriptionTier != domain.TierPro {
		t.Fatalf("tier = %s, want pro", stored.SubscriptionTier)
	}
	if stored.StripeSubscriptionID != "sub_123" {
		t.Fatalf("subscription ref not stored")
	}
}

func TestBillingHandler_CheckoutSuccessRequiresSessionID(t *testing.T) {
	container, accounts := newTestContainer(t, nil)
	handler := NewBillingHandler(container)
	account := seedTestAccount(t, accounts, "acc-nosession", domain.TierFree, 0)

	req := withAccount(httptest.NewRequest("GET", "/api/v1/billing/success", nil), account)
	rr := httptest.NewRecorder()

	handler.CheckoutSuccess(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestBillingHandler_WebhookRejectsBadSignature(t *testing.T) {
	container, accounts := newTestContainer(t, nil)
	handler := NewBillingHandler(container)

	account := seedTestAccount(t, accounts, "acc-hook", domain.TierBasic, 0)
	account.StripeSubscriptionID = "sub_789"
	if err := accounts.Update(context.Background(), account); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	payload := `{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{"id":"sub_789","status":"canceled"}}}`
	req := httptest.NewRequest("POST", "/api/v1/billing/webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", signWebhook("whsec_wrong", []byte(payload), time.Now()))
	rr := httptest.NewRecorder()

	handler.Webhook(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body: %s", rr.Code, rr.Body.String())
	}

	// A rejected webhook mutates nothing.
	stored, _ := accounts.GetByID(context.Background(), account.ID)
	if stored.SubscriptionTier != domain.TierBasic || stored.SubscriptionStatus != domain.StatusActive {
		t.Fatalf("rejected webhook changed account state: %+v", stored)
	}
}

func TestBillingHandler_WebhookAppliesSignedEvent(t *testing.T) {
	container, accounts := newTestContainer(t, nil)
	handler := NewBillingHandler(container)

	account := seedTestAccount(t, accounts, "acc-hook2", domain.TierPro, 0)
	account.StripeSubscriptionID = "sub_789"
	if err := accounts.Update(context.Background(), account); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	payload := `{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{"id":"sub_789","status":"canceled"}}}`
	req := httptest.NewRequest("POST", "/api/v1/billing/webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", signWebhook(testWebhookSecret, []byte(payload), time.Now()))
	rr := httptest.NewRecorder()

	handler.Webhook(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rr.Code, rr.Body.String())
	}

	stored, _ := accounts.GetByID(context.Background(), account.ID)
	if stored.SubscriptionTier != domain.TierFree || stored.SubscriptionStatus != domain.StatusCanceled {
		t.Fatalf("deletion event not applied: %+v", stored)
	}
}

func TestBillingHandler_WebhookUnknownSubscriptionIsAcknowledged(t *testing.T) {
	container, _ := newTestContainer(t, nil)
	handler := NewBillingHandler(container)

	payload := `{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{"id":"sub_ghost","status":"active"}}}`
	req := httptest.NewRequest("POST", "/api/v1/billing/webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", signWebhook(testWebhookSecret, []byte(payload), time.Now()))
	rr := httptest.NewRecorder()

	handler.Webhook(rr, req)

	// 200 so the provider stops retrying; there is nothing locally to retry.
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rr.Code, rr.Body.String())
	}
}
