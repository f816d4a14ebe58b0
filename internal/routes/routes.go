package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/storekit/storefront-auth/internal/auth"
	"github.com/storekit/storefront-auth/internal/handlers"
	"github.com/storekit/storefront-auth/internal/middleware"
	"github.com/storekit/storefront-auth/internal/repositories"
)

// RegisterRoutes registers all application routes under /api/auth
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tokenManager *auth.TokenManager,
	userRepo *repositories.UserRepository,
) {
	// Coarse per-IP limit on the public endpoints; per-email throttling
	// happens inside the auth service
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	router.Route("/api/auth", func(r chi.Router) {
		// Public routes - no authentication required
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(rateLimitConfig))

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/password-reset/request", authHandler.RequestPasswordReset)
			r.Post("/password-reset/confirm", authHandler.ConfirmPasswordReset)
		})

		// Protected routes - authentication required
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokenManager, userRepo))

			r.Get("/me", userHandler.Me)
			r.Post("/logout", authHandler.Logout)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin())
				r.Get("/admin/users", userHandler.ListUsers)
			})

			// Staff routes; admins pass the staff guard implicitly
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireStaff())
				r.Get("/staff/profile", userHandler.StaffProfile)
			})

			// Customer-only routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireCustomer())
				r.Get("/customer/profile", userHandler.CustomerProfile)
			})
		})
	})
}
