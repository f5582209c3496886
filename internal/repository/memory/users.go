package memory

import (
	"context"
	"strings"

	"jobportal/internal/common"
	"jobportal/internal/domain/user"
)

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(_ context.Context, u user.User) (*user.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) || (u.Phone != "" && existing.Phone == u.Phone) {
			return nil, common.NewError(common.CodeInvalidState, "User already exists", nil)
		}
	}
	if u.ID.IsZero() {
		u.ID = common.NewUUID()
	}
	now := s.now()
	u.Email = strings.ToLower(u.Email)
	u.Skills = cloneStrings(u.Skills)
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = u
	return &u, nil
}

func (r *UserRepository) GetByID(_ context.Context, id common.UUID) (*user.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "User not found", nil)
	}
	u.Skills = cloneStrings(u.Skills)
	return &u, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			u.Skills = cloneStrings(u.Skills)
			return &u, nil
		}
	}
	return nil, common.NewError(common.CodeNotFound, "User not found", nil)
}

func (r *UserRepository) Update(_ context.Context, u user.User) (*user.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[u.ID]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "User not found", nil)
	}
	if u.Phone != "" {
		for id, other := range s.users {
			if id != u.ID && other.Phone == u.Phone {
				return nil, common.NewError(common.CodeInvalidState, "Phone number already in use", nil)
			}
		}
	}
	current.Name = u.Name
	current.Phone = u.Phone
	current.Location = u.Location
	current.Skills = cloneStrings(u.Skills)
	current.UpdatedAt = s.now()
	s.users[u.ID] = current
	return &current, nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id common.UUID, passwordHash string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[id]
	if !ok {
		return common.NewError(common.CodeNotFound, "User not found", nil)
	}
	current.PasswordHash = passwordHash
	current.UpdatedAt = s.now()
	s.users[id] = current
	return nil
}
