package services

import (
	"context"

	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stackpos/tipengine/internal/dto"
)

// AuthSvcFacade defines authentication operations for back-office users.
type AuthSvcFacade interface {
	// Login verifies credentials and issues a signed bearer token scoped to
	// the user's location.
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)

	// Register bootstraps the first manager login at a location. Refused once
	// the location has any user.
	Register(ctx context.Context, req dto.RegisterRequest) (*domain.User, error)

	// CreateUser provisions a back-office login at a location.
	CreateUser(ctx context.Context, locationID string, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}
