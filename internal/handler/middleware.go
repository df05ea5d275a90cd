package handler

import (
	"context"
	"net/http"
	"strings"

	"pdf-toolkit/internal/config"
)

// AuthMiddleware validates bearer tokens and loads the account into the
// request context.
func AuthMiddleware(container *config.Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			// Extract token from "Bearer <token>" format
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			token := parts[1]
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Token required")
				return
			}

			accountID, err := container.Auth.ValidateToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			account, err := container.Accounts.GetByID(r.Context(), accountID)
			if err != nil {
				container.Logger.Warn("Token references unknown account", "account_id", accountID)
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), accountContextKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
