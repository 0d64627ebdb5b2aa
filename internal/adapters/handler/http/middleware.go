package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

type contextKey string

const identityKey contextKey = "identity"

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
	voterTokenCookie   = "voter_token"
)

// CookieConfig controls the attributes of every cookie the API sets.
type CookieConfig struct {
	Domain   string
	SameSite http.SameSite
	Secure   bool
}

func (c CookieConfig) set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func (c CookieConfig) expire(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", Domain: c.Domain, MaxAge: -1})
}

// IdentityFrom returns the caller placed on the context by Authenticator.
// The zero Identity means an anonymous caller.
func IdentityFrom(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey).(domain.Identity)
	return id
}

type Authenticator struct {
	auth   ports.AuthService
	logger *slog.Logger
}

func NewAuthenticator(auth ports.AuthService, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{auth: auth, logger: logger}
}

// Identify verifies an access token from the Authorization header or the
// access_token cookie. Requests without a token continue anonymously; a token
// that fails verification is rejected so that an expired session is never
// silently downgraded to an anonymous one.
func (a *Authenticator) Identify(next http.Handler) http.Handler {
	return a.identify(next, false)
}

// IdentifyOptional is Identify for public reads: a token that fails
// verification is ignored and the request continues anonymously.
func (a *Authenticator) IdentifyOptional(next http.Handler) http.Handler {
	return a.identify(next, true)
}

func (a *Authenticator) identify(next http.Handler, lenient bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			if lenient && errors.Is(err, domain.ErrUnauthenticated) {
				a.logger.Debug("ignoring invalid access token on public route", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, r, a.logger, err)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects anonymous callers.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFrom(r.Context()).Authenticated() {
			writeError(w, r, nil, domain.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(accessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// VoterResolver works out who is voting: the signed-in user, or the holder of
// the voter_token cookie.
type VoterResolver struct {
	auth     ports.AuthService
	cookies  CookieConfig
	voterTTL time.Duration
}

func NewVoterResolver(auth ports.AuthService, cookies CookieConfig, voterTTL time.Duration) *VoterResolver {
	return &VoterResolver{auth: auth, cookies: cookies, voterTTL: voterTTL}
}

// Resolve returns the voter for r. When issue is set and the request carries
// no valid voter token, a fresh voter is minted and its token returned; the
// caller hands it to Remember once the vote is stored. Otherwise the zero
// Voter is returned.
func (v *VoterResolver) Resolve(r *http.Request, issue bool) (domain.Voter, string, error) {
	if identity := IdentityFrom(r.Context()); identity.Authenticated() {
		return domain.UserVoter(identity), "", nil
	}

	if c, err := r.Cookie(voterTokenCookie); err == nil && c.Value != "" {
		if voter, err := v.auth.ParseVoterToken(c.Value); err == nil {
			return voter, "", nil
		}
	}
	if !issue {
		return domain.Voter{}, "", nil
	}

	token, voter, err := v.auth.IssueVoterToken()
	if err != nil {
		return domain.Voter{}, "", err
	}
	return voter, token, nil
}

// Remember sets the voter_token cookie for a token minted by Resolve.
func (v *VoterResolver) Remember(w http.ResponseWriter, token string) {
	if token == "" {
		return
	}
	v.cookies.set(w, voterTokenCookie, token, v.voterTTL)
}

// RequestLogger logs one line per request once the response is written.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("remote", r.RemoteAddr),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
