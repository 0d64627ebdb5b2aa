package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

// AuthRepository stores refresh tokens by the hash of their value.
type AuthRepository interface {
	StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	// FindActiveRefreshToken returns nil, nil for unknown, revoked or
	// expired tokens.
	FindActiveRefreshToken(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error)
	// RevokeRefreshToken is a no-op for unknown tokens.
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

type TokenPayload struct {
	Email string
	Name  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string, clientID string) (*TokenPayload, error)
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Session is the result of a successful sign-in.
type Session struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	LoginWithGoogle(ctx context.Context, googleToken string) (*Session, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, string, error) // returns new access_token, refresh_token
	Logout(ctx context.Context, refreshToken string) error
	// Authenticate verifies an access token and returns the identity it carries.
	Authenticate(ctx context.Context, accessToken string) (domain.Identity, error)
	IssueVoterToken() (string, domain.Voter, error)
	ParseVoterToken(token string) (domain.Voter, error)
}
