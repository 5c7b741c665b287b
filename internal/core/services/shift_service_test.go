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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ShiftRepository ---
type MockShiftRepository struct {
	mock.Mock
}

// Ensure MockShiftRepository implements portsrepo.ShiftRepositoryFacade
var _ portsrepo.ShiftRepositoryFacade = (*MockShiftRepository)(nil)

func (m *MockShiftRepository) FindShiftByID(ctx context.Context, shiftID string) (*domain.Shift, error) {
	args := m.Called(ctx, shiftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shift), args.Error(1)
}

func (m *MockShiftRepository) FindOpenShiftByEmployee(ctx context.Context, locationID string, employeeID string) (*domain.Shift, error) {
	args := m.Called(ctx, locationID, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shift), args.Error(1)
}

func (m *MockShiftRepository) ListOpenShiftsByRole(ctx context.Context, locationID string, role domain.Role) ([]domain.Shift, error) {
	args := m.Called(ctx, locationID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Shift), args.Error(1)
}

func (m *MockShiftRepository) ListShiftsByEmployee(ctx context.Context, locationID string, employeeID string, limit int, offset int) ([]domain.Shift, error) {
	args := m.Called(ctx, locationID, employeeID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Shift), args.Error(1)
}

func (m *MockShiftRepository) SaveShift(ctx context.Context, shift domain.Shift) error {
	args := m.Called(ctx, shift)
	return args.Error(0)
}

func (m *MockShiftRepository) EndShift(ctx context.Context, shiftID string, endedAt time.Time, userID string) error {
	args := m.Called(ctx, shiftID, endedAt, userID)
	return args.Error(0)
}

// --- Mock EmployeeRepository ---
type MockEmployeeRepository struct {
	mock.Mock
}

// Ensure MockEmployeeRepository implements portsrepo.EmployeeRepositoryFacade
var _ portsrepo.EmployeeRepositoryFacade = (*MockEmployeeRepository)(nil)

func (m *MockEmployeeRepository) FindEmployeeByID(ctx context.Context, employeeID string) (*domain.Employee, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) FindEmployeesByIDs(ctx context.Context, employeeIDs []string) (map[string]domain.Employee, error) {
	args := m.Called(ctx, employeeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) ListEmployeesByLocation(ctx context.Context, locationID string, limit int, offset int) ([]domain.Employee, error) {
	args := m.Called(ctx, locationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) SaveEmployee(ctx context.Context, employee domain.Employee) error {
	args := m.Called(ctx, employee)
	return args.Error(0)
}

func (m *MockEmployeeRepository) UpdateEmployee(ctx context.Context, employee domain.Employee) error {
	args := m.Called(ctx, employee)
	return args.Error(0)
}

// --- Test Suite Setup ---

type ShiftServiceTestSuite struct {
	suite.Suite
	mockShiftRepo    *MockShiftRepository
	mockEmployeeRepo *MockEmployeeRepository
	service          portssvc.ShiftSvcFacade
	locationID       string
	managerID        string
	employee         domain.Employee
}

func (suite *ShiftServiceTestSuite) SetupTest() {
	suite.mockShiftRepo = new(MockShiftRepository)
	suite.mockEmployeeRepo = new(MockEmployeeRepository)
	suite.service = services.NewShiftService(suite.mockShiftRepo, suite.mockEmployeeRepo)

	suite.locationID = uuid.NewString()
	suite.managerID = uuid.NewString()
	suite.employee = domain.Employee{
		EmployeeID: uuid.NewString(),
		LocationID: suite.locationID,
		Name:       "Alice",
		Role:       domain.RoleServer,
		IsActive:   true,
	}
}

// --- Test Cases ---

func (suite *ShiftServiceTestSuite) TestClockIn_Success() {
	ctx := context.Background()
	req := dto.ClockInRequest{EmployeeID: suite.employee.EmployeeID}

	suite.mockEmployeeRepo.On("FindEmployeeByID", ctx, suite.employee.EmployeeID).Return(&suite.employee, nil).Once()
	suite.mockShiftRepo.On("FindOpenShiftByEmployee", ctx, suite.locationID, suite.employee.EmployeeID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockShiftRepo.On("SaveShift", ctx, mock.AnythingOfType("domain.Shift")).Return(nil).Once()

	shift, err := suite.service.ClockIn(ctx, suite.locationID, req, suite.managerID)

	suite.Require().NoError(err)
	suite.Require().NotNil(shift)
	suite.NotEmpty(shift.ShiftID)
	suite.Equal(suite.employee.EmployeeID, shift.EmployeeID)
	suite.Equal(suite.locationID, shift.LocationID)
	suite.Equal(domain.RoleServer, shift.Role) // defaults to the employee's role
	suite.Nil(shift.EndedAt)
	suite.Equal(suite.managerID, shift.CreatedBy)

	suite.mockEmployeeRepo.AssertExpectations(suite.T())
	suite.mockShiftRepo.AssertExpectations(suite.T())
}

func (suite *ShiftServiceTestSuite) TestClockIn_ExplicitRoleAndTime() {
	ctx := context.Background()
	role := domain.RoleExpo
	at := time.Date(2025, 3, 7, 17, 30, 0, 0, time.UTC)
	req := dto.ClockInRequest{
		EmployeeID: suite.employee.EmployeeID,
		Role:       &role,
		Section:    "patio",
		At:         &at,
	}

	suite.mockEmployeeRepo.On("FindEmployeeByID", ctx, suite.employee.EmployeeID).Return(&suite.employee, nil).Once()
	suite.mockShiftRepo.On("FindOpenShiftByEmployee", ctx, suite.locationID, suite.employee.EmployeeID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockShiftRepo.On("SaveShift", ctx, mock.AnythingOfType("domain.Shift")).Return(nil).Once()

	shift, err := suite.service.ClockIn(ctx, suite.locationID, req, suite.managerID)

	suite.Require().NoError(err)
	suite.Equal(domain.RoleExpo, shift.Role)
	suite.Equal("patio", shift.Section)
	suite.True(shift.StartedAt.Equal(at))
	suite.mockShiftRepo.AssertExpectations(suite.T())
}

func (suite *ShiftServiceTestSuite) TestClockIn_AlreadyClockedIn() {
	ctx := context.Background()
	req := dto.ClockInRequest{EmployeeID: suite.employee.EmployeeID}
	openShift := domain.Shift{ShiftID: uuid.NewString(), EmployeeID: suite.employee.EmployeeID}

	suite.mockEmployeeRepo.On("FindEmployeeByID", ctx, suite.employee.EmployeeID).Return(&suite.employee, nil).Once()
	suite.mockShiftRepo.On("FindOpenShiftByEmployee", ctx, suite.locationID, suite.employee.EmployeeID).Return(&openShift, nil).Once()

	_, err := suite.service.ClockIn(ctx, suite.locationID, req, suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAlreadyClockedIn)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockShiftRepo.AssertNotCalled(suite.T(), "SaveShift", mock.Anything, mock.Anything)
}

func (suite *ShiftServiceTestSuite) TestClockIn_InactiveEmployee() {
	ctx := context.Background()
	inactive := suite.employee
	inactive.IsActive = false
	req := dto.ClockInRequest{EmployeeID: inactive.EmployeeID}

	suite.mockEmployeeRepo.On("FindEmployeeByID", ctx, inactive.EmployeeID).Return(&inactive, nil).Once()

	_, err := suite.service.ClockIn(ctx, suite.locationID, req, suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockShiftRepo.AssertNotCalled(suite.T(), "FindOpenShiftByEmployee", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ShiftServiceTestSuite) TestClockIn_WrongLocation() {
	ctx := context.Background()
	req := dto.ClockInRequest{EmployeeID: suite.employee.EmployeeID}

	suite.mockEmployeeRepo.On("FindEmployeeByID", ctx, suite.employee.EmployeeID).Return(&suite.employee, nil).Once()

	_, err := suite.service.ClockIn(ctx, uuid.NewString(), req, suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ShiftServiceTestSuite) TestClockIn_SaveLosesRace() {
	ctx := context.Background()
	req := dto.ClockInRequest{EmployeeID: suite.employee.EmployeeID}

	suite.mockEmployeeRepo.On("FindEmployeeByID", ctx, suite.employee.EmployeeID).Return(&suite.employee, nil).Once()
	suite.mockShiftRepo.On("FindOpenShiftByEmployee", ctx, suite.locationID, suite.employee.EmployeeID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockShiftRepo.On("SaveShift", ctx, mock.AnythingOfType("domain.Shift")).Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.ClockIn(ctx, suite.locationID, req, suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAlreadyClockedIn)
	suite.mockShiftRepo.AssertExpectations(suite.T())
}

func (suite *ShiftServiceTestSuite) TestClockOut_Success() {
	ctx := context.Background()
	started := time.Now().UTC().Add(-4 * time.Hour)
	openShift := domain.Shift{
		ShiftID:    uuid.NewString(),
		LocationID: suite.locationID,
		EmployeeID: suite.employee.EmployeeID,
		Role:       domain.RoleServer,
		StartedAt:  started,
	}

	suite.mockShiftRepo.On("FindOpenShiftByEmployee", ctx, suite.locationID, suite.employee.EmployeeID).Return(&openShift, nil).Once()
	suite.mockShiftRepo.On("EndShift", ctx, openShift.ShiftID, mock.AnythingOfType("time.Time"), suite.managerID).Return(nil).Once()

	shift, err := suite.service.ClockOut(ctx, suite.locationID, suite.employee.EmployeeID, dto.ClockOutRequest{}, suite.managerID)

	suite.Require().NoError(err)
	suite.Require().NotNil(shift.EndedAt)
	suite.False(shift.EndedAt.Before(started))
	suite.mockShiftRepo.AssertExpectations(suite.T())
}

func (suite *ShiftServiceTestSuite) TestClockOut_ExplicitTime() {
	ctx := context.Background()
	started := time.Date(2025, 3, 7, 17, 0, 0, 0, time.UTC)
	endedAt := started.Add(6 * time.Hour)
	openShift := domain.Shift{
		ShiftID:    uuid.NewString(),
		LocationID: suite.locationID,
		EmployeeID: suite.employee.EmployeeID,
		StartedAt:  started,
	}

	suite.mockShiftRepo.On("FindOpenShiftByEmployee", ctx, suite.locationID, suite.employee.EmployeeID).Return(&openShift, nil).Once()
	suite.mockShiftRepo.On("EndShift", ctx, openShift.ShiftID, endedAt, suite.managerID).Return(nil).Once()

	shift, err := suite.service.ClockOut(ctx, suite.locationID, suite.employee.EmployeeID, dto.ClockOutRequest{At: &endedAt}, suite.managerID)

	suite.Require().NoError(err)
	suite.True(shift.EndedAt.Equal(endedAt))
	suite.mockShiftRepo.AssertExpectations(suite.T())
}

func (suite *ShiftServiceTestSuite) TestClockOut_NotClockedIn() {
	ctx := context.Background()

	suite.mockShiftRepo.On("FindOpenShiftByEmployee", ctx, suite.locationID, suite.employee.EmployeeID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ClockOut(ctx, suite.locationID, suite.employee.EmployeeID, dto.ClockOutRequest{}, suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrNotClockedIn)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockShiftRepo.AssertNotCalled(suite.T(), "EndShift", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ShiftServiceTestSuite) TestClockOut_EndsBeforeStart() {
	ctx := context.Background()
	started := time.Date(2025, 3, 7, 17, 0, 0, 0, time.UTC)
	before := started.Add(-time.Hour)
	openShift := domain.Shift{
		ShiftID:    uuid.NewString(),
		LocationID: suite.locationID,
		EmployeeID: suite.employee.EmployeeID,
		StartedAt:  started,
	}

	suite.mockShiftRepo.On("FindOpenShiftByEmployee", ctx, suite.locationID, suite.employee.EmployeeID).Return(&openShift, nil).Once()

	_, err := suite.service.ClockOut(ctx, suite.locationID, suite.employee.EmployeeID, dto.ClockOutRequest{At: &before}, suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockShiftRepo.AssertNotCalled(suite.T(), "EndShift", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ShiftServiceTestSuite) TestOnDutyByRole() {
	ctx := context.Background()
	onDuty := []domain.Shift{
		{ShiftID: uuid.NewString(), Role: domain.RoleBartender},
		{ShiftID: uuid.NewString(), Role: domain.RoleBartender},
	}

	suite.mockShiftRepo.On("ListOpenShiftsByRole", ctx, suite.locationID, domain.RoleBartender).Return(onDuty, nil).Once()

	shifts, err := suite.service.OnDutyByRole(ctx, suite.locationID, domain.RoleBartender)

	suite.Require().NoError(err)
	suite.Equal(onDuty, shifts)
	suite.mockShiftRepo.AssertExpectations(suite.T())
}

// --- Run Test Suite ---

func TestShiftService(t *testing.T) {
	suite.Run(t, new(ShiftServiceTestSuite))
}
