package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessAudience   = "access"
	voterAudience    = "voter"
	minPasswordLen   = 6
	voterTokenPrefix = "anon:"
)

type AuthConfig struct {
	JWTSecret       []byte
	GoogleClientID  string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	VoterTokenTTL   time.Duration
	BcryptCost      int
}

func (c AuthConfig) withDefaults() AuthConfig {
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.VoterTokenTTL <= 0 {
		c.VoterTokenTTL = 365 * 24 * time.Hour
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	return c
}

type accessClaims struct {
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	IsSuperUser bool        `json:"is_super_user"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userRepo            ports.UserRepository
	authRepo            ports.AuthRepository
	googleTokenVerifier ports.TokenVerifier
	clock               clock.Clock
	cfg                 AuthConfig
}

func NewAuthService(userRepo ports.UserRepository, authRepo ports.AuthRepository, googleTokenVerifier ports.TokenVerifier, clk clock.Clock, cfg AuthConfig) *AuthService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &AuthService{
		userRepo:            userRepo,
		authRepo:            authRepo,
		googleTokenVerifier: googleTokenVerifier,
		clock:               clk,
		cfg:                 cfg.withDefaults(),
	}
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.Session, error) {
	email := normalizeEmail(input.Email)

	verr := domain.NewValidationError()
	if email == "" {
		verr.Add("email", "is required")
	} else if !validEmail(email) {
		verr.Add("email", "invalid email format")
	}
	if input.Password == "" {
		verr.Add("password", "is required")
	} else if len(input.Password) < minPasswordLen {
		verr.Add("password", fmt.Sprintf("must be at least %d characters long", minPasswordLen))
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		PasswordHash: string(hash),
		Role:         domain.RoleGeneral,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.startSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, googleToken string) (*ports.Session, error) {
	if s.googleTokenVerifier == nil || s.cfg.GoogleClientID == "" {
		return nil, domain.ErrInvalidCredentials
	}

	payload, err := s.googleTokenVerifier.Verify(ctx, googleToken, s.cfg.GoogleClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid google token: %v", domain.ErrInvalidCredentials, err)
	}

	email := normalizeEmail(payload.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		user = &domain.User{
			Email:       email,
			DisplayName: payload.Name,
			Role:        domain.RoleGeneral,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	return s.startSession(ctx, user)
}

func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, string, error) {
	rtEntity, err := s.authRepo.FindActiveRefreshToken(ctx, s.hashToken(refreshToken), s.clock.Now())
	if err != nil {
		return "", "", fmt.Errorf("failed to get refresh token: %w", err)
	}
	if rtEntity == nil {
		return "", "", domain.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, rtEntity.UserID)
	if err != nil {
		return "", "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", "", domain.ErrInvalidToken
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	// The refresh token is kept until it expires or the user logs out.
	return accessToken, refreshToken, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.authRepo.RevokeRefreshToken(ctx, s.hashToken(refreshToken)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *AuthService) Authenticate(_ context.Context, accessToken string) (domain.Identity, error) {
	var claims accessClaims
	if err := s.parse(accessToken, accessAudience, &claims); err != nil {
		return domain.Identity{}, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	role, err := domain.ParseRole(string(claims.Role))
	if err != nil {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	return domain.Identity{
		UserID:      userID,
		Email:       claims.Email,
		Role:        role,
		IsSuperUser: claims.IsSuperUser,
	}, nil
}

// IssueVoterToken mints a signed, long-lived token that identifies an
// anonymous voter across requests.
func (s *AuthService) IssueVoterToken() (string, domain.Voter, error) {
	id := uuid.New()
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   voterTokenPrefix + id.String(),
		Audience:  jwt.ClaimStrings{voterAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.VoterTokenTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.JWTSecret)
	if err != nil {
		return "", domain.Voter{}, fmt.Errorf("failed to sign voter token: %w", err)
	}
	return signed, domain.AnonymousVoter(id), nil
}

func (s *AuthService) ParseVoterToken(token string) (domain.Voter, error) {
	var claims jwt.RegisteredClaims
	if err := s.parse(token, voterAudience, &claims); err != nil {
		return domain.Voter{}, err
	}

	raw, ok := strings.CutPrefix(claims.Subject, voterTokenPrefix)
	if !ok {
		return domain.Voter{}, domain.ErrInvalidToken
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return domain.Voter{}, domain.ErrInvalidToken
	}
	return domain.AnonymousVoter(id), nil
}

func (s *AuthService) parse(token, audience string, claims jwt.Claims) error {
	if token == "" {
		return domain.ErrInvalidToken
	}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.cfg.JWTSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return nil
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*ports.Session, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := s.clock.Now().UTC()
	rtEntity := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: s.hashToken(refreshToken),
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		CreatedAt: now,
	}
	if err := s.authRepo.StoreRefreshToken(ctx, rtEntity); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &ports.Session{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) generateAccessToken(user *domain.User) (string, error) {
	if len(s.cfg.JWTSecret) == 0 {
		return "", errors.New("jwt secret not configured")
	}

	now := s.clock.Now()
	claims := accessClaims{
		Email:       user.Email,
		Role:        user.Role,
		IsSuperUser: user.IsSuperUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{accessAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.JWTSecret)
}

func (s *AuthService) generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (s *AuthService) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}
