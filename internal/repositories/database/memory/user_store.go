package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
)

// SaveUser persists a new user.
func (s *Store) SaveUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUsernameLocked(user); err != nil {
		return err
	}
	s.users[user.UserID] = user
	return nil
}

// UpdateUser updates an existing user's details.
func (s *Store) UpdateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[user.UserID]
	if !ok || cur.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	if err := s.checkUsernameLocked(user); err != nil {
		return err
	}
	cur.EmployeeID = user.EmployeeID
	cur.Username = user.Username
	cur.PasswordHash = user.PasswordHash
	cur.Role = user.Role
	cur.LastUpdatedAt = user.LastUpdatedAt
	cur.LastUpdatedBy = user.LastUpdatedBy
	s.users[user.UserID] = cur
	return nil
}

// MarkUserDeleted marks a user as deleted (soft delete).
func (s *Store) MarkUserDeleted(_ context.Context, userID string, deletedAt time.Time, deletedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok || user.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	user.DeletedAt = &deletedAt
	user.LastUpdatedAt = deletedAt
	user.LastUpdatedBy = deletedBy
	s.users[userID] = user
	return nil
}

// FindUserByID retrieves a specific user by their ID.
func (s *Store) FindUserByID(_ context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok || user.DeletedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	return &user, nil
}

// FindUserByUsername retrieves a user by username within a location.
func (s *Store) FindUserByUsername(_ context.Context, locationID string, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.LocationID == locationID && user.Username == username && user.DeletedAt == nil {
			found := user
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ListUsersByLocation retrieves a paginated list of a location's users,
// newest first.
func (s *Store) ListUsersByLocation(_ context.Context, locationID string, limit int, offset int) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []domain.User{}
	for _, user := range s.users {
		if user.LocationID == locationID && user.DeletedAt == nil {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].UserID > users[j].UserID
	})
	return pageSlice(users, limit, offset), nil
}

func (s *Store) checkUsernameLocked(user domain.User) error {
	for _, existing := range s.users {
		if existing.UserID == user.UserID || existing.DeletedAt != nil {
			continue
		}
		if existing.LocationID == user.LocationID && existing.Username == user.Username {
			return fmt.Errorf("username %s already taken at location %s: %w", user.Username, user.LocationID, apperrors.ErrDuplicate)
		}
	}
	return nil
}
