package dto

import (
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// LoginRequest authenticates a back-office user at a location.
type LoginRequest struct {
	LocationID string `json:"locationID" binding:"required"`
	Username   string `json:"username" binding:"required,max=50"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
}

// LoginResponse carries the bearer token for subsequent requests.
type LoginResponse struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
	UserID     string    `json:"userID"`
	EmployeeID string    `json:"employeeID,omitempty"`
	Role       string    `json:"role"`
}

// RegisterRequest bootstraps the first manager login at a location. Once a
// location has any user, further registrations are refused and managers
// provision users instead.
type RegisterRequest struct {
	LocationID string `json:"locationID" binding:"required"`
	Username   string `json:"username" binding:"required,max=50"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
}

// CreateUserRequest provisions a back-office login, optionally bound to an
// employee so self-service reads can be scoped.
type CreateUserRequest struct {
	Username   string `json:"username" binding:"required,max=50"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
	Role       string `json:"role" binding:"required,oneof=MANAGER STAFF"`
	EmployeeID string `json:"employeeID"`
}

// UserResponse is the API shape of a back-office user.
type UserResponse struct {
	UserID     string `json:"userID"`
	LocationID string `json:"locationID"`
	EmployeeID string `json:"employeeID,omitempty"`
	Username   string `json:"username"`
	Role       string `json:"role"`
}

// ToUserResponse maps a user to its API shape.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:     u.UserID,
		LocationID: u.LocationID,
		EmployeeID: u.EmployeeID,
		Username:   u.Username,
		Role:       string(u.Role),
	}
}
