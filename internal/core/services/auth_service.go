package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
	"github.com/stackpos/tipengine/internal/platform/config"
	"github.com/stackpos/tipengine/internal/utils"
)

// ErrBootstrapDone indicates a register attempt at a location that already
// has users. Managers provision further logins through CreateUser. Wraps
// ErrConflict so handlers can map it without knowing this package.
var ErrBootstrapDone = fmt.Errorf("%w: location already has users", apperrors.ErrConflict)

// authService issues bearer tokens for the back-office surface and manages
// the login principals behind them.
type authService struct {
	cfg          *config.Config
	userRepo     portsrepo.UserRepositoryFacade
	locationRepo portsrepo.LocationRepositoryFacade
	employeeRepo portsrepo.EmployeeRepositoryFacade
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, userRepo portsrepo.UserRepositoryFacade, locationRepo portsrepo.LocationRepositoryFacade, employeeRepo portsrepo.EmployeeRepositoryFacade) portssvc.AuthSvcFacade {
	return &authService{
		cfg:          cfg,
		userRepo:     userRepo,
		locationRepo: locationRepo,
		employeeRepo: employeeRepo,
	}
}

// Ensure authService implements the portssvc.AuthSvcFacade interface
var _ portssvc.AuthSvcFacade = (*authService)(nil)

// Login verifies credentials and issues a signed bearer token.
// Implements portssvc.AuthSvcFacade
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	user, err := s.userRepo.FindUserByUsername(ctx, req.LocationID, req.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.DeletedAt != nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("Login rejected", slog.String("username", req.Username), slog.String("location_id", req.LocationID))
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	expiresAt := time.Now().Add(s.cfg.JWTExpiryDuration)
	token, err := utils.GenerateJWT(user.UserID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	logger.Info("User logged in", slog.String("user_id", user.UserID), slog.String("location_id", user.LocationID))
	return &dto.LoginResponse{
		Token:      token,
		ExpiresAt:  expiresAt,
		UserID:     user.UserID,
		EmployeeID: user.EmployeeID,
		Role:       string(user.Role),
	}, nil
}

// Register bootstraps the first manager login at a location.
// Implements portssvc.AuthSvcFacade
func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*domain.User, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.locationRepo.FindLocationByID(ctx, req.LocationID); err != nil {
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	existing, err := s.userRepo.ListUsersByLocation(ctx, req.LocationID, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: location %s", ErrBootstrapDone, req.LocationID)
	}

	user, err := s.newUser(req.LocationID, req.Username, req.Password, domain.UserRoleManager, "", "")
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SaveUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logger.Info("Bootstrap manager registered", slog.String("user_id", user.UserID), slog.String("location_id", req.LocationID))
	return user, nil
}

// CreateUser provisions a back-office login at a location.
// Implements portssvc.AuthSvcFacade
func (s *authService) CreateUser(ctx context.Context, locationID string, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.userRepo.FindUserByUsername(ctx, locationID, req.Username); err == nil {
		return nil, fmt.Errorf("%w: username %s", apperrors.ErrDuplicate, req.Username)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if req.EmployeeID != "" {
		employee, err := s.employeeRepo.FindEmployeeByID(ctx, req.EmployeeID)
		if err != nil {
			return nil, fmt.Errorf("failed to find linked employee: %w", err)
		}
		if employee.LocationID != locationID {
			return nil, fmt.Errorf("%w: employee %s not found at location %s", apperrors.ErrNotFound, req.EmployeeID, locationID)
		}
	}

	user, err := s.newUser(locationID, req.Username, req.Password, domain.UserRole(req.Role), req.EmployeeID, creatorUserID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SaveUser(ctx, *user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username %s", apperrors.ErrDuplicate, req.Username)
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logger.Info("User created",
		slog.String("user_id", user.UserID),
		slog.String("location_id", locationID),
		slog.String("role", string(user.Role)))
	return user, nil
}

// GetUserByID retrieves a user by ID.
// Implements portssvc.AuthSvcFacade
func (s *authService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.DeletedAt != nil {
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, userID)
	}
	return user, nil
}

func (s *authService) newUser(locationID string, username string, password string, role domain.UserRole, employeeID string, creatorUserID string) (*domain.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := time.Now().UTC()
	userID := uuid.NewString()
	createdBy := creatorUserID
	if createdBy == "" {
		createdBy = userID // Bootstrap user creates itself
	}
	return &domain.User{
		UserID:       userID,
		LocationID:   locationID,
		EmployeeID:   employeeID,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     createdBy,
			LastUpdatedAt: now,
			LastUpdatedBy: createdBy,
		},
	}, nil
}
