package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

type UserService struct {
	repo     ports.UserRepository
	authRepo ports.AuthRepository
}

func NewUserService(repo ports.UserRepository, authRepo ports.AuthRepository) ports.UserService {
	return &UserService{
		repo:     repo,
		authRepo: authRepo,
	}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, caller domain.Identity) ([]*domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// ChangeRole promotes or demotes a user. Promoting to ADMIN also grants
// superuser; any other role clears it.
func (s *UserService) ChangeRole(ctx context.Context, caller domain.Identity, id uuid.UUID, role string) (*domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateRole(ctx, id, r, r == domain.RoleAdmin)
}

// Delete soft-deletes a user and ends their sessions. Access tokens already
// issued stay valid until they expire.
func (s *UserService) Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if caller.UserID == id {
		return domain.ErrCannotDeleteSelf
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := s.authRepo.RevokeUserRefreshTokens(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

func requireAdmin(caller domain.Identity) error {
	if !caller.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		return domain.ErrAdminRequired
	}
	return nil
}
