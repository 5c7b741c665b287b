package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/core/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/platform/config"
	"github.com/stackpos/tipengine/internal/utils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

// Ensure MockUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, locationID string, username string) (*domain.User, error) {
	args := m.Called(ctx, locationID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListUsersByLocation(ctx context.Context, locationID string, limit int, offset int) ([]domain.User, error) {
	args := m.Called(ctx, locationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error {
	args := m.Called(ctx, userID, deletedAt, deletedBy)
	return args.Error(0)
}

// --- Mock LocationRepository ---
type MockLocationRepository struct {
	mock.Mock
}

// Ensure MockLocationRepository implements portsrepo.LocationRepositoryFacade
var _ portsrepo.LocationRepositoryFacade = (*MockLocationRepository)(nil)

func (m *MockLocationRepository) FindLocationByID(ctx context.Context, locationID string) (*domain.Location, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}

func (m *MockLocationRepository) ListLocations(ctx context.Context, limit int, offset int) ([]domain.Location, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Location), args.Error(1)
}

func (m *MockLocationRepository) SaveLocation(ctx context.Context, location domain.Location) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockLocationRepository) UpdateLocation(ctx context.Context, location domain.Location) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

// --- Test Suite Setup ---

type AuthServiceTestSuite struct {
	suite.Suite
	mockUserRepo     *MockUserRepository
	mockLocationRepo *MockLocationRepository
	mockEmployeeRepo *MockEmployeeRepository
	service          portssvc.AuthSvcFacade
	locationID       string
	password         string
	user             domain.User
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockLocationRepo = new(MockLocationRepository)
	suite.mockEmployeeRepo = new(MockEmployeeRepository)
	cfg := &config.Config{
		JWTSecret:         "test-secret",
		JWTExpiryDuration: time.Hour,
		JWTIssuer:         "tipengine-test",
	}
	suite.service = services.NewAuthService(cfg, suite.mockUserRepo, suite.mockLocationRepo, suite.mockEmployeeRepo)

	suite.locationID = uuid.NewString()
	suite.password = "correct-horse-battery"
	hash, err := utils.HashPassword(suite.password)
	suite.Require().NoError(err)
	suite.user = domain.User{
		UserID:       uuid.NewString(),
		LocationID:   suite.locationID,
		EmployeeID:   uuid.NewString(),
		Username:     "alice",
		PasswordHash: hash,
		Role:         domain.UserRoleManager,
	}
}

// --- Test Cases ---

func (suite *AuthServiceTestSuite) TestLogin_Success() {
	ctx := context.Background()
	req := dto.LoginRequest{
		LocationID: suite.locationID,
		Username:   "alice",
		Password:   suite.password,
	}

	suite.mockUserRepo.On("FindUserByUsername", ctx, suite.locationID, "alice").Return(&suite.user, nil).Once()

	resp, err := suite.service.Login(ctx, req)

	suite.Require().NoError(err)
	suite.NotEmpty(resp.Token)
	suite.Equal(suite.user.UserID, resp.UserID)
	suite.Equal(suite.user.EmployeeID, resp.EmployeeID)
	suite.Equal(string(domain.UserRoleManager), resp.Role)
	suite.True(resp.ExpiresAt.After(time.Now()))
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *AuthServiceTestSuite) TestLogin_WrongPassword() {
	ctx := context.Background()
	req := dto.LoginRequest{
		LocationID: suite.locationID,
		Username:   "alice",
		Password:   "not-the-password",
	}

	suite.mockUserRepo.On("FindUserByUsername", ctx, suite.locationID, "alice").Return(&suite.user, nil).Once()

	_, err := suite.service.Login(ctx, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *AuthServiceTestSuite) TestLogin_UnknownUser() {
	ctx := context.Background()
	req := dto.LoginRequest{
		LocationID: suite.locationID,
		Username:   "mallory",
		Password:   suite.password,
	}

	suite.mockUserRepo.On("FindUserByUsername", ctx, suite.locationID, "mallory").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.Login(ctx, req)

	suite.Require().Error(err)
	// Unknown usernames are indistinguishable from bad passwords.
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.NotErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AuthServiceTestSuite) TestLogin_DeletedUser() {
	ctx := context.Background()
	deleted := suite.user
	deletedAt := time.Now().UTC()
	deleted.DeletedAt = &deletedAt
	req := dto.LoginRequest{
		LocationID: suite.locationID,
		Username:   "alice",
		Password:   suite.password,
	}

	suite.mockUserRepo.On("FindUserByUsername", ctx, suite.locationID, "alice").Return(&deleted, nil).Once()

	_, err := suite.service.Login(ctx, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *AuthServiceTestSuite) TestRegister_FirstUser() {
	ctx := context.Background()
	req := dto.RegisterRequest{
		LocationID: suite.locationID,
		Username:   "owner",
		Password:   "a-long-enough-password",
	}

	suite.mockLocationRepo.On("FindLocationByID", ctx, suite.locationID).Return(&domain.Location{LocationID: suite.locationID}, nil).Once()
	suite.mockUserRepo.On("ListUsersByLocation", ctx, suite.locationID, 1, 0).Return([]domain.User{}, nil).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).Return(nil).Once()

	user, err := suite.service.Register(ctx, req)

	suite.Require().NoError(err)
	suite.Equal(domain.UserRoleManager, user.Role)
	suite.Equal("owner", user.Username)
	suite.NotEmpty(user.PasswordHash)
	suite.NotEqual(req.Password, user.PasswordHash)
	suite.Equal(user.UserID, user.CreatedBy) // bootstrap user creates itself
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *AuthServiceTestSuite) TestRegister_LocationAlreadyStaffed() {
	ctx := context.Background()
	req := dto.RegisterRequest{
		LocationID: suite.locationID,
		Username:   "owner",
		Password:   "a-long-enough-password",
	}

	suite.mockLocationRepo.On("FindLocationByID", ctx, suite.locationID).Return(&domain.Location{LocationID: suite.locationID}, nil).Once()
	suite.mockUserRepo.On("ListUsersByLocation", ctx, suite.locationID, 1, 0).Return([]domain.User{suite.user}, nil).Once()

	_, err := suite.service.Register(ctx, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrBootstrapDone)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestCreateUser_Success() {
	ctx := context.Background()
	employeeID := uuid.NewString()
	req := dto.CreateUserRequest{
		Username:   "bob",
		Password:   "another-long-password",
		Role:       string(domain.UserRoleStaff),
		EmployeeID: employeeID,
	}
	linked := domain.Employee{
		EmployeeID: employeeID,
		LocationID: suite.locationID,
		Name:       "Bob",
		Role:       domain.RoleServer,
		IsActive:   true,
	}

	suite.mockUserRepo.On("FindUserByUsername", ctx, suite.locationID, "bob").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockEmployeeRepo.On("FindEmployeeByID", ctx, employeeID).Return(&linked, nil).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).Return(nil).Once()

	user, err := suite.service.CreateUser(ctx, suite.locationID, req, suite.user.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.UserRoleStaff, user.Role)
	suite.Equal(employeeID, user.EmployeeID)
	suite.Equal(suite.user.UserID, user.CreatedBy)
	suite.mockUserRepo.AssertExpectations(suite.T())
	suite.mockEmployeeRepo.AssertExpectations(suite.T())
}

func (suite *AuthServiceTestSuite) TestCreateUser_DuplicateUsername() {
	ctx := context.Background()
	req := dto.CreateUserRequest{
		Username: "alice",
		Password: "another-long-password",
		Role:     string(domain.UserRoleStaff),
	}

	suite.mockUserRepo.On("FindUserByUsername", ctx, suite.locationID, "alice").Return(&suite.user, nil).Once()

	_, err := suite.service.CreateUser(ctx, suite.locationID, req, suite.user.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestCreateUser_LinkedEmployeeWrongLocation() {
	ctx := context.Background()
	employeeID := uuid.NewString()
	req := dto.CreateUserRequest{
		Username:   "bob",
		Password:   "another-long-password",
		Role:       string(domain.UserRoleStaff),
		EmployeeID: employeeID,
	}
	elsewhere := domain.Employee{
		EmployeeID: employeeID,
		LocationID: uuid.NewString(),
		IsActive:   true,
	}

	suite.mockUserRepo.On("FindUserByUsername", ctx, suite.locationID, "bob").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockEmployeeRepo.On("FindEmployeeByID", ctx, employeeID).Return(&elsewhere, nil).Once()

	_, err := suite.service.CreateUser(ctx, suite.locationID, req, suite.user.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestGetUserByID_Deleted() {
	ctx := context.Background()
	deleted := suite.user
	deletedAt := time.Now().UTC()
	deleted.DeletedAt = &deletedAt

	suite.mockUserRepo.On("FindUserByID", ctx, deleted.UserID).Return(&deleted, nil).Once()

	_, err := suite.service.GetUserByID(ctx, deleted.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Run Test Suite ---

func TestAuthService(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
