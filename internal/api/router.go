/**
 * @description
 * This file sets up the HTTP router for the affiliate-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS for the dashboard and marketing site.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// AffiliateRoutes creates and returns the router for the affiliate service.
func AffiliateRoutes(h *AffiliateHandlers, jwtSecret string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Public endpoints: the referral redirect and the conversion webhook.
	r.Get("/r/{code}", h.RedirectHandler)
	r.Post("/webhook/conversion", h.ConversionWebhookHandler)

	// Affiliate endpoints requiring authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		r.Post("/referrals", h.SubmitReferralHandler)
	})

	// Admin endpoints.
	r.Route("/admin", func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))
		r.Use(RequireAdmin)

		r.Get("/affiliates", h.ListAffiliatesHandler)

		r.Put("/referrals/{id}", h.ReviewReferralHandler)
		r.Patch("/referrals/{id}", h.ReviewReferralHandler)
		r.Delete("/referrals/{id}", h.DeleteReferralHandler)

		r.Put("/commissions/{id}", h.ReviewCommissionHandler)

		r.Get("/payouts", h.ListPayoutsHandler)
		r.Post("/payouts", h.ProcessPayoutsHandler)

		r.Get("/commission-rules", h.ListCommissionRulesHandler)
		r.Post("/commission-rules", h.CreateCommissionRuleHandler)
	})

	return r
}
