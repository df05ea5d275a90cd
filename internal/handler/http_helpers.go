package handler

import (
	"encoding/json"
	"net/http"

	"pdf-toolkit/internal/domain"
	apperrors "pdf-toolkit/pkg/errors"
)

type contextKey string

const accountContextKey contextKey = "account"

// GetAccountFromContext extracts the authenticated account from request context
func GetAccountFromContext(r *http.Request) (*domain.Account, bool) {
	account, ok := r.Context().Value(accountContextKey).(*domain.Account)
	return account, ok
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeAppError maps an application error to its HTTP status. Unclassified
// errors are reported as internal without leaking their details.
func writeAppError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		writeJSON(w, appErr.StatusCode, map[string]string{
			"error": appErr.Message,
			"type":  string(appErr.Type),
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
