package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, caller domain.Identity) ([]*domain.User, error)
	ChangeRole(ctx context.Context, caller domain.Identity, id uuid.UUID, role string) (*domain.User, error)
	Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error
}
