package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/vncsmyrnk/predixarena/docs"
	"github.com/vncsmyrnk/predixarena/internal/adapters/handler/http"
	"github.com/vncsmyrnk/predixarena/internal/adapters/metrics"
	"github.com/vncsmyrnk/predixarena/internal/adapters/oauth/google"
	"github.com/vncsmyrnk/predixarena/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/predixarena/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/predixarena/internal/config"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
	"github.com/vncsmyrnk/predixarena/internal/core/services"
)

type repositories struct {
	events ports.EventRepository
	votes  ports.VoteRepository
	users  ports.UserRepository
	auth   ports.AuthRepository
	health func(ctx context.Context) error
	close  func() error
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer repos.close()

	collector := metrics.NewCollector()
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collector,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	clk := clock.WallClock
	authService := services.NewAuthService(repos.users, repos.auth, google.NewVerifier(), clk, services.AuthConfig{
		JWTSecret:       []byte(cfg.JWTSecret),
		GoogleClientID:  cfg.GoogleClientID,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		VoterTokenTTL:   cfg.VoterTokenTTL,
	})
	eventService := services.NewEventService(repos.events, clk, collector)
	voteService := services.NewVoteService(repos.events, repos.votes, clk, collector)
	userService := services.NewUserService(repos.users, repos.auth)

	cookies := http.CookieConfig{
		Domain:   cfg.CookieDomain,
		SameSite: cfg.CookieSameSite,
		Secure:   cfg.CookieSecure,
	}
	handler := http.NewHandler(http.RouterConfig{
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Health:         repos.health,
	}, http.Handlers{
		Auth:         http.NewAuthenticator(authService, logger),
		AuthHandler:  http.NewAuthHandler(authService, cfg.OAuthRedirectURL, cookies, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, logger),
		EventHandler: http.NewEventHandler(eventService, logger),
		VoteHandler:  http.NewVoteHandler(voteService, http.NewVoterResolver(authService, cookies, cfg.VoterTokenTTL), logger),
		UserHandler:  http.NewUserHandler(userService, logger),
	})

	server := &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func openRepositories(ctx context.Context, cfg config.Config, logger *slog.Logger) (*repositories, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore(clock.WallClock)
		return &repositories{
			events: store.Events(),
			votes:  store.Votes(),
			users:  store.Users(),
			auth:   store.Auth(),
			close:  func() error { return nil },
		}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := postgres.Migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &repositories{
		events: postgres.NewEventRepository(db),
		votes:  postgres.NewVoteRepository(db),
		users:  postgres.NewUserRepository(db),
		auth:   postgres.NewAuthRepository(db),
		health: db.PingContext,
		close:  db.Close,
	}, nil
}
