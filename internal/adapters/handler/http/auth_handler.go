package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	redirectURL string
	cookies     CookieConfig
	accessTTL   time.Duration
	refreshTTL  time.Duration
	logger      *slog.Logger
}

func NewAuthHandler(authService ports.AuthService, redirectURL string, cookies CookieConfig, accessTTL, refreshTTL time.Duration, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		authService: authService,
		redirectURL: redirectURL,
		cookies:     cookies,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		logger:      logger,
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// Register godoc
// @Summary      Creates an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        account  body  registerRequest  true  "Account"
// @Success      201
// @Failure      400
// @Failure      409
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Register(r.Context(), ports.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.startSession(w, http.StatusCreated, session)
}

// Login godoc
// @Summary      Signs in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body  loginRequest  true  "Credentials"
// @Success      200
// @Failure      401
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.startSession(w, http.StatusOK, session)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, "failed to parse form")
		return
	}

	credential := r.FormValue("credential")
	if credential == "" {
		badRequest(w, "missing credential")
		return
	}

	session, err := h.authService.LoginWithGoogle(r.Context(), credential)
	if err != nil {
		h.logger.Warn("google sign-in failed", "error", err)
		writeError(w, r, h.logger, domain.ErrInvalidCredentials)
		return
	}

	h.setAccessTokenCookie(w, session.AccessToken)
	h.setRefreshTokenCookie(w, session.RefreshToken)

	http.Redirect(w, r, h.redirectURL, http.StatusSeeOther)
}

// Refresh godoc
// @Summary      Refreshes the access token
// @Description  Creates a new access token based on the refresh token cookie or the `refresh_token` body field. The access token is also set as a cookie for `/api` calls.
// @Tags         auth
// @Accept       json
// @Success      200
// @Failure      401
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := h.refreshToken(w, r)
	if refreshToken == "" {
		writeError(w, r, h.logger, domain.ErrInvalidToken)
		return
	}

	accessToken, newRefreshToken, err := h.authService.RefreshAccessToken(r.Context(), refreshToken)
	if err != nil {
		h.expireCookies(w)
		writeError(w, r, h.logger, err)
		return
	}

	h.setAccessTokenCookie(w, accessToken)

	// If refresh token was rotated, update it too
	if newRefreshToken != "" && newRefreshToken != refreshToken {
		h.setRefreshTokenCookie(w, newRefreshToken)
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

// Logout godoc
// @Summary      Logs the authenticated user out
// @Description  Revokes the refresh token and clears the session cookies
// @Tags         auth
// @Accept       json
// @Success      200
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if refreshToken := h.refreshToken(w, r); refreshToken != "" {
		if err := h.authService.Logout(r.Context(), refreshToken); err != nil {
			h.logger.Warn("failed to revoke refresh token", "error", err)
		}
	}

	h.expireCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandler) refreshToken(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var req refreshRequest
	if r.ContentLength != 0 && decodeJSONQuiet(w, r, &req) {
		return req.RefreshToken
	}
	return ""
}

func (h *AuthHandler) startSession(w http.ResponseWriter, status int, session *ports.Session) {
	h.setAccessTokenCookie(w, session.AccessToken)
	h.setRefreshTokenCookie(w, session.RefreshToken)
	writeJSON(w, status, sessionResponse{
		User:         session.User,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	})
}

func (h *AuthHandler) setAccessTokenCookie(w http.ResponseWriter, token string) {
	h.cookies.set(w, accessTokenCookie, token, h.accessTTL)
}

func (h *AuthHandler) setRefreshTokenCookie(w http.ResponseWriter, token string) {
	h.cookies.set(w, refreshTokenCookie, token, h.refreshTTL)
}

func (h *AuthHandler) expireCookies(w http.ResponseWriter) {
	h.cookies.expire(w, accessTokenCookie)
	h.cookies.expire(w, refreshTokenCookie)
}
