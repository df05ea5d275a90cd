package handler

import (
	"encoding/json"
	"net/http"

	"pdf-toolkit/internal/config"
)

// AuthHandler handles registration, login and profile requests
type AuthHandler struct {
	container *config.Container
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(container *config.Container) *AuthHandler {
	return &AuthHandler{container: container}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new free-tier account and logs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.container.Auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}

	token, err := h.container.Auth.TokenFor(account.ID)
	if err != nil {
		h.container.Logger.Error("Token issue failed after registration", err, "account_id", account.ID)
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"account": account,
		"token":   token,
	})
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, account, err := h.container.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"token":   token,
	})
}

// GetProfile returns the current account's profile information
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Account not found in context")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// GetUsage reports the account's quota state for the current cycle. The
// check itself may roll the usage cycle lazily.
func (h *AuthHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Account not found in context")
		return
	}

	snapshot, err := h.container.Entitlement.Usage(r.Context(), account.ID)
	if err != nil {
		h.container.Logger.Error("Usage lookup failed", err, "account_id", account.ID)
		writeError(w, http.StatusInternalServerError, "Failed to load usage")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// GetOperations returns the account's most recent ledger entries.
func (h *AuthHandler) GetOperations(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Account not found in context")
		return
	}

	records, err := h.container.Ledger.RecentForAccount(r.Context(), account.ID, 10)
	if err != nil {
		h.container.Logger.Error("Ledger lookup failed", err, "account_id", account.ID)
		writeError(w, http.StatusInternalServerError, "Failed to load operations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"operations": records})
}
