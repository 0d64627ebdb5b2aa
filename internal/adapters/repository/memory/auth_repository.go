package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

type authRepository struct {
	s *Store
}

func (r *authRepository) StoreRefreshToken(_ context.Context, token *domain.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	token.ID = uuid.New()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = r.s.clock.Now().UTC()
	}
	c := *token
	r.s.tokens[token.TokenHash] = &c
	return nil
}

func (r *authRepository) FindActiveRefreshToken(_ context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[tokenHash]
	if !ok || t.Revoked || !t.ExpiresAt.After(now) {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *authRepository) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t, ok := r.s.tokens[tokenHash]; ok {
		t.Revoked = true
	}
	return nil
}

func (r *authRepository) RevokeUserRefreshTokens(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}
