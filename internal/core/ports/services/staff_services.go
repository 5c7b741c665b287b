package services

import (
	"context"

	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stackpos/tipengine/internal/dto"
)

// LocationSvcFacade defines operations for restaurant locations.
type LocationSvcFacade interface {
	// CreateLocation registers a location and provisions its house account.
	CreateLocation(ctx context.Context, req dto.CreateLocationRequest, creatorUserID string) (*domain.Location, error)

	// GetLocationByID retrieves a location by its ID.
	GetLocationByID(ctx context.Context, locationID string) (*domain.Location, error)

	// ListLocations retrieves a paginated list of locations.
	ListLocations(ctx context.Context, limit int, offset int) ([]domain.Location, error)
}

// EmployeeSvcFacade defines operations for employees.
type EmployeeSvcFacade interface {
	// CreateEmployee registers an employee and provisions their tip account.
	CreateEmployee(ctx context.Context, locationID string, req dto.CreateEmployeeRequest, creatorUserID string) (*domain.Employee, error)

	// GetEmployeeByID retrieves an employee by their ID.
	GetEmployeeByID(ctx context.Context, locationID string, employeeID string) (*domain.Employee, error)

	// ListEmployees retrieves a paginated list of a location's employees.
	ListEmployees(ctx context.Context, locationID string, limit int, offset int) ([]domain.Employee, error)

	// UpdateEmployee patches an employee's name, role and active flag.
	UpdateEmployee(ctx context.Context, locationID string, employeeID string, req dto.UpdateEmployeeRequest, requestingUserID string) (*domain.Employee, error)
}

// ShiftSvcFacade defines operations for shifts.
type ShiftSvcFacade interface {
	// ClockIn opens a shift for an employee. An employee has at most one
	// open shift per location.
	ClockIn(ctx context.Context, locationID string, req dto.ClockInRequest, requestingUserID string) (*domain.Shift, error)

	// ClockOut closes an employee's open shift.
	ClockOut(ctx context.Context, locationID string, employeeID string, req dto.ClockOutRequest, requestingUserID string) (*domain.Shift, error)

	// GetOpenShift retrieves an employee's open shift, if any.
	GetOpenShift(ctx context.Context, locationID string, employeeID string) (*domain.Shift, error)

	// ListShifts retrieves an employee's shifts newest first.
	ListShifts(ctx context.Context, locationID string, employeeID string, limit int, offset int) ([]domain.Shift, error)

	// OnDutyByRole retrieves the open shifts worked under a role, ordered by
	// employee id.
	OnDutyByRole(ctx context.Context, locationID string, role domain.Role) ([]domain.Shift, error)
}
