package handler

import (
	"net/http"

	"pdf-toolkit/internal/config"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(container *config.Container) http.Handler {
	router := mux.NewRouter()

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"pdf-toolkit"}`))
	}).Methods("GET")

	// Initialize handlers
	authHandler := NewAuthHandler(container)
	pdfHandler := NewPDFHandler(container)
	billingHandler := NewBillingHandler(container)
	adminHandler := NewAdminHandler(container)

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	// Webhook authenticity comes from the signature header, not a session.
	api.HandleFunc("/billing/webhook", billingHandler.Webhook).Methods("POST")

	// Auth middleware for protected routes
	authMiddleware := AuthMiddleware(container)

	// Protected routes (require authentication)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(authMiddleware)

	// Account routes (protected)
	protected.HandleFunc("/auth/profile", authHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/usage", authHandler.GetUsage).Methods("GET")
	protected.HandleFunc("/operations", authHandler.GetOperations).Methods("GET")

	// PDF operation routes (protected)
	protected.HandleFunc("/pdf/merge", pdfHandler.Merge).Methods("POST")
	protected.HandleFunc("/pdf/split", pdfHandler.Split).Methods("POST")
	protected.HandleFunc("/pdf/compress", pdfHandler.Compress).Methods("POST")
	protected.HandleFunc("/pdf/convert", pdfHandler.Convert).Methods("POST")

	// Billing routes (protected)
	protected.HandleFunc("/billing/checkout-session", billingHandler.CreateCheckoutSession).Methods("POST")
	protected.HandleFunc("/billing/success", billingHandler.CheckoutSuccess).Methods("GET")

	// Admin routes (protected, role-checked in the handler)
	protected.HandleFunc("/admin/stats", adminHandler.GetStats).Methods("GET")
	protected.HandleFunc("/admin/accounts/{id}", adminHandler.DeleteAccount).Methods("DELETE")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			container.Config.GetFrontendURL(),
			"http://localhost:5173",
			"http://localhost:3000",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"Stripe-Signature",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
