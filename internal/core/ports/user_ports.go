package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

type UserRepository interface {
	// GetByEmail and GetByID return nil, nil when no user matches.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	List(ctx context.Context) ([]*domain.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role, superUser bool) (*domain.User, error)
	// SoftDelete stamps deleted_at; deleted users are invisible to every
	// other method. Unknown or already deleted users give ErrUserNotFound.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
