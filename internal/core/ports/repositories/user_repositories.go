package repositories

import (
	"context"
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// UserReader defines read operations for back-office users.
type UserReader interface {
	// FindUserByID retrieves a specific user by their ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByUsername retrieves a user by username within a location.
	FindUserByUsername(ctx context.Context, locationID string, username string) (*domain.User, error)

	// ListUsersByLocation retrieves a paginated list of a location's users.
	ListUsersByLocation(ctx context.Context, locationID string, limit int, offset int) ([]domain.User, error)
}

// UserWriter defines write operations for back-office users.
type UserWriter interface {
	// SaveUser persists a new user.
	SaveUser(ctx context.Context, user domain.User) error

	// UpdateUser updates an existing user's details.
	UpdateUser(ctx context.Context, user domain.User) error

	// MarkUserDeleted marks a user as deleted (soft delete).
	MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error
}

// UserRepositoryFacade combines all user-related repository interfaces.
type UserRepositoryFacade interface {
	UserReader
	UserWriter
}
