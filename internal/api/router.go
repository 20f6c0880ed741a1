package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/thecoffeedev/password-reset-backend/internal/api/handlers"
	"github.com/thecoffeedev/password-reset-backend/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(userService services.UserServiceProvider, resetService services.ResetServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Open CORS, matching the client contract
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(userService)
	resetHandler := handlers.NewResetHandler(resetService)

	r.Post("/register-user", accountHandler.Register)
	r.Post("/login", accountHandler.Login)
	r.Post("/forgot-password", resetHandler.ForgotPassword)
	r.Post("/verify-random-string", resetHandler.VerifyRandomString)
	r.Put("/assign-password", resetHandler.AssignPassword)

	return r
}
