package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

type AuthRepository struct {
	db *sql.DB
}

func NewAuthRepository(db *sql.DB) ports.AuthRepository {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		RETURNING id, created_at
	`
	var createdAt sql.NullTime
	if !token.CreatedAt.IsZero() {
		createdAt = sql.NullTime{Time: token.CreatedAt, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query, token.UserID, token.TokenHash, token.ExpiresAt, token.Revoked, createdAt).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return translateError("store refresh token", err)
	}
	token.CreatedAt = token.CreatedAt.UTC()
	return nil
}

func (r *AuthRepository) FindActiveRefreshToken(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE token_hash = $1 AND NOT revoked AND expires_at > $2
	`
	var token domain.RefreshToken
	err := r.db.QueryRowContext(ctx, query, tokenHash, now).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.Revoked,
		&token.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError("find refresh token", err)
	}
	return &token, nil
}

func (r *AuthRepository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	query := `UPDATE refresh_tokens SET revoked = true WHERE token_hash = $1 AND NOT revoked`
	if _, err := r.db.ExecContext(ctx, query, tokenHash); err != nil {
		return translateError("revoke refresh token", err)
	}
	return nil
}

func (r *AuthRepository) RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND NOT revoked`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return translateError("revoke user refresh tokens", err)
	}
	return nil
}
