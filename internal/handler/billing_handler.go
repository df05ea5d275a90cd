package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"pdf-toolkit/internal/config"
)

// Webhook payloads are small; cap reads well below the upload limit.
const maxWebhookBytes = int64(65536)

// BillingHandler handles checkout and webhook requests
type BillingHandler struct {
	container *config.Container
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(container *config.Container) *BillingHandler {
	return &BillingHandler{container: container}
}

type checkoutRequest struct {
	PriceID string `json:"price_id"`
}

// CreateCheckoutSession starts a subscription checkout for the caller.
func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Account not found in context")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	url, err := h.container.Billing.CreateCheckoutSession(r.Context(), account, req.PriceID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"checkout_url": url})
}

// CheckoutSuccess applies a completed checkout session to the caller's
// account. The account is taken from the authenticated context, never from
// the session itself.
func (h *BillingHandler) CheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Account not found in context")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if err := h.container.Billing.CompleteCheckout(r.Context(), account.ID, sessionID); err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Webhook receives Stripe's asynchronous subscription notifications. The
// route is public; authenticity comes from the signature header.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if err := h.container.Billing.HandleWebhook(r.Context(), payload, signature); err != nil {
		h.container.Logger.Warn("Webhook rejected", "reason", err.Error())
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
