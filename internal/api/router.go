package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/grandline-guide/internal/api/handlers"
	"github.com/isdelr/grandline-guide/internal/auth"
	"github.com/isdelr/grandline-guide/internal/services"
)

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	auth.TokenIssuer
	auth.TokenVerifier
}

// NewRouter creates and configures a new Chi router.
func NewRouter(
	allowedOrigins []string,
	userService services.UserServiceProvider,
	eventService services.EventServiceProvider,
	tokens TokenService,
	guideService handlers.GuideProvider,
	monitor handlers.HealthReporter,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokens, eventService)
	guideHandler := handlers.NewGuideHandler(guideService, allowedOrigins)
	healthHandler := handlers.NewHealthHandler(monitor)

	r.Get("/healthz", healthHandler.Get)

	// Public auth routes
	r.Post("/signup", authHandler.Signup)
	r.Post("/login", authHandler.Login)

	// Token probe
	r.With(auth.JWTMiddleware(tokens)).Get("/protected", authHandler.Protected)

	r.Route("/api", func(r chi.Router) {
		r.Post("/country-guide", guideHandler.Generate)
		r.Get("/country-guide/ws", guideHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware(tokens))
			r.Get("/events", authHandler.Events)
		})
	})

	return r
}
