package handler

import (
	"errors"
	"net/http"

	"pdf-toolkit/internal/config"
	"pdf-toolkit/internal/domain"

	"github.com/gorilla/mux"
)

// AdminHandler exposes administrative reporting and account removal. Access
// requires the admin role on the authenticated account.
type AdminHandler struct {
	container *config.Container
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(container *config.Container) *AdminHandler {
	return &AdminHandler{container: container}
}

// GetStats returns global aggregates plus the most recent operations.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Account not found in context")
		return
	}
	if !account.CanAdminister() {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	stats, err := h.container.Ledger.GlobalStats(r.Context())
	if err != nil {
		h.container.Logger.Error("Stats query failed", err)
		writeError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	recent, err := h.container.Ledger.Recent(r.Context(), 20)
	if err != nil {
		h.container.Logger.Error("Recent operations query failed", err)
		writeError(w, http.StatusInternalServerError, "Failed to load operations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":      stats,
		"operations": recent,
	})
}

// DeleteAccount removes an account and, via cascade, its operation records.
func (h *AdminHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Account not found in context")
		return
	}
	if !account.CanAdminister() {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	targetID := mux.Vars(r)["id"]
	if targetID == "" {
		writeError(w, http.StatusBadRequest, "Account id is required")
		return
	}

	if err := h.container.Accounts.Delete(r.Context(), targetID); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		h.container.Logger.Error("Account deletion failed", err, "target_id", targetID)
		writeError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	h.container.Logger.Info("Account deleted", "target_id", targetID, "deleted_by", account.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
