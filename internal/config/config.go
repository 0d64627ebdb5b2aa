// Package config reads process settings from flags, the environment and an
// optional .env file, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLength = 16

type Store string

const (
	StorePostgres Store = "postgres"
	StoreMemory   Store = "memory"
)

type DatabaseConfig struct {
	URL string
}

type Config struct {
	HTTPAddr string
	Store    Store
	Database DatabaseConfig

	JWTSecret        string
	GoogleClientID   string
	OAuthRedirectURL string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	VoterTokenTTL    time.Duration

	CookieDomain   string
	CookieSameSite http.SameSite
	CookieSecure   bool

	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration

	LogLevel  slog.Level
	LogFormat string
}

// Load reads the server configuration. args excludes the program name.
func Load(args []string) (Config, error) {
	loadDotEnv()

	var (
		cfg                    Config
		store, sameSite, level string
		origins                string
		dbHost, dbPort, dbUser string
		dbPass, dbName, dbURL  string
	)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.HTTPAddr, "addr", env("HTTP_ADDR", "0.0.0.0:8080"), "HTTP listen address")
	fs.StringVar(&store, "store", env("STORE", string(StorePostgres)), "Storage backend: postgres or memory")
	fs.StringVar(&dbURL, "database-url", env("DATABASE_URL", ""), "Database connection URL")
	fs.StringVar(&dbHost, "db-host", env("POSTGRES_HOST", "localhost"), "Database host")
	fs.StringVar(&dbPort, "db-port", env("POSTGRES_PORT", "5432"), "Database port")
	fs.StringVar(&dbUser, "db-user", env("POSTGRES_USER", ""), "Database user")
	fs.StringVar(&dbPass, "db-pass", env("POSTGRES_PASSWORD", ""), "Database password")
	fs.StringVar(&dbName, "db-name", env("POSTGRES_DB", ""), "Database name")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", env("JWT_SECRET", ""), "HMAC secret for access and voter tokens")
	fs.StringVar(&cfg.GoogleClientID, "google-client-id", env("GOOGLE_CLIENT_ID", ""), "Google sign-in client id")
	fs.StringVar(&cfg.OAuthRedirectURL, "oauth-redirect-url", env("OAUTH_REDIRECT_URL", "/"), "Where to send the browser after Google sign-in")
	fs.DurationVar(&cfg.AccessTokenTTL, "access-token-ttl", envDuration("ACCESS_TOKEN_TTL", 15*time.Minute), "Access token lifetime")
	fs.DurationVar(&cfg.RefreshTokenTTL, "refresh-token-ttl", envDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour), "Refresh token lifetime")
	fs.DurationVar(&cfg.VoterTokenTTL, "voter-token-ttl", envDuration("VOTER_TOKEN_TTL", 365*24*time.Hour), "Anonymous voter token lifetime")
	fs.StringVar(&cfg.CookieDomain, "cookie-domain", env("COOKIE_DOMAIN", ""), "Cookie domain")
	fs.StringVar(&sameSite, "cookie-samesite", env("COOKIE_SAMESITE", "lax"), "Cookie SameSite: lax, strict or none")
	fs.BoolVar(&cfg.CookieSecure, "cookie-secure", envBool("COOKIE_SECURE", true), "Mark cookies Secure")
	fs.StringVar(&origins, "cors-allowed-origins", env("CORS_ALLOWED_ORIGINS", ""), "Comma separated list of allowed origins")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", envDuration("REQUEST_TIMEOUT", 10*time.Second), "Per request timeout")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", envDuration("SHUTDOWN_TIMEOUT", 30*time.Second), "Graceful shutdown timeout")
	fs.StringVar(&level, "log-level", env("LOG_LEVEL", "info"), "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", env("LOG_FORMAT", "text"), "Log format: text or json")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	var errs []error

	cfg.Store = Store(strings.ToLower(store))
	if cfg.Store != StorePostgres && cfg.Store != StoreMemory {
		errs = append(errs, fmt.Errorf("STORE must be postgres or memory, got %q", store))
	}
	if cfg.Store == StorePostgres {
		db, err := databaseURL(dbURL, dbHost, dbPort, dbUser, dbPass, dbName)
		if err != nil {
			errs = append(errs, err)
		}
		cfg.Database = db
	}

	if len(cfg.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength))
	}

	ss, err := parseSameSite(sameSite)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.CookieSameSite = ss
	if ss == http.SameSiteNoneMode && !cfg.CookieSecure {
		errs = append(errs, errors.New("COOKIE_SAMESITE=none requires COOKIE_SECURE=true"))
	}

	cfg.CORSAllowedOrigins = splitList(origins)

	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q", level))
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat))
	}

	for name, d := range map[string]time.Duration{
		"ACCESS_TOKEN_TTL":  cfg.AccessTokenTTL,
		"REFRESH_TOKEN_TTL": cfg.RefreshTokenTTL,
		"VOTER_TOKEN_TTL":   cfg.VoterTokenTTL,
		"REQUEST_TIMEOUT":   cfg.RequestTimeout,
		"SHUTDOWN_TIMEOUT":  cfg.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDatabase reads only the database settings, for jobs that do not serve
// HTTP.
func LoadDatabase(name string, args []string) (DatabaseConfig, error) {
	loadDotEnv()

	var dbHost, dbPort, dbUser, dbPass, dbName, dbURL string

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&dbURL, "database-url", env("DATABASE_URL", ""), "Database connection URL")
	fs.StringVar(&dbHost, "db-host", env("POSTGRES_HOST", "localhost"), "Database host")
	fs.StringVar(&dbPort, "db-port", env("POSTGRES_PORT", "5432"), "Database port")
	fs.StringVar(&dbUser, "db-user", env("POSTGRES_USER", ""), "Database user")
	fs.StringVar(&dbPass, "db-pass", env("POSTGRES_PASSWORD", ""), "Database password")
	fs.StringVar(&dbName, "db-name", env("POSTGRES_DB", ""), "Database name")
	if err := fs.Parse(args); err != nil {
		return DatabaseConfig{}, err
	}

	return databaseURL(dbURL, dbHost, dbPort, dbUser, dbPass, dbName)
}

// NewLogger builds the process logger.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func loadDotEnv() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()
}

func databaseURL(raw, host, port, user, pass, name string) (DatabaseConfig, error) {
	if raw != "" {
		return DatabaseConfig{URL: raw}, nil
	}
	if user == "" || name == "" {
		return DatabaseConfig{}, errors.New("DATABASE_URL or POSTGRES_USER and POSTGRES_DB are required")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     host + ":" + port,
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	return DatabaseConfig{URL: u.String()}, nil
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lax", "":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}
	return 0, fmt.Errorf("COOKIE_SAMESITE must be lax, strict or none, got %q", s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// Left for Load to report through the flag value.
		return -1
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
