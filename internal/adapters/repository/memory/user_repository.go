package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.DeletedAt == nil && strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *userRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.DeletedAt == nil && strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailTaken
		}
	}

	now := r.s.clock.Now().UTC()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = domain.RoleGeneral
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	c := *user
	r.s.users[user.ID] = &c
	return nil
}

func (r *userRepository) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if u.DeletedAt != nil {
			continue
		}
		c := *u
		users = append(users, &c)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *userRepository) UpdateRole(_ context.Context, id uuid.UUID, role domain.Role, superUser bool) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	u.IsSuperUser = superUser
	u.UpdatedAt = r.s.clock.Now().UTC()

	c := *u
	return &c, nil
}

func (r *userRepository) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return domain.ErrUserNotFound
	}
	now := r.s.clock.Now().UTC()
	u.DeletedAt = &now
	u.UpdatedAt = now
	return nil
}
