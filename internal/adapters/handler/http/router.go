package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type RouterConfig struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration
	AllowedOrigins []string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Health reports storage reachability for /healthz.
	Health func(ctx context.Context) error
}

type Handlers struct {
	Auth         *Authenticator
	AuthHandler  *AuthHandler
	EventHandler *EventHandler
	VoteHandler  *VoteHandler
	UserHandler  *UserHandler
}

func NewHandler(cfg RouterConfig, h Handlers) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				cfg.Logger.Error("health check failed", "error", err)
				writeFailure(w, http.StatusServiceUnavailable, apiError{Code: "UNAVAILABLE", Message: "storage unreachable", Retryable: true})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Post("/oauth/callback", h.AuthHandler.GoogleCallback)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.AuthHandler.Register)
			r.Post("/login", h.AuthHandler.Login)
			r.Post("/refresh", h.AuthHandler.Refresh)
			r.Post("/logout", h.AuthHandler.Logout)
		})

		// Public reads never require login, so a stale token is ignored there.
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.IdentifyOptional)

			r.Get("/events", h.EventHandler.ListEvents)
			r.Get("/events/votable", h.EventHandler.ListVotable)
			r.Get("/events/{id}", h.EventHandler.GetEvent)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Identify)

			r.With(RequireUser).Post("/events", h.EventHandler.CreateEvent)
			r.With(RequireUser).Put("/events/{id}", h.EventHandler.UpdateEvent)
			r.With(RequireUser).Patch("/events/{id}/status", h.EventHandler.SetStatus)
			r.Get("/events/{id}/vote", h.VoteHandler.GetActiveVote)
			r.Post("/events/{id}/vote", h.VoteHandler.CastVote)

			r.Get("/me/votes", h.VoteHandler.ListMyVotes)
			r.With(RequireUser).Get("/me", h.UserHandler.GetMe)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireUser)
				r.Get("/users", h.UserHandler.ListUsers)
				r.Patch("/users/{id}/role", h.UserHandler.ChangeRole)
				r.Delete("/users/{id}", h.UserHandler.DeleteUser)
			})
		})
	})

	return r
}
