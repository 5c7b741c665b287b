package repositories

import (
	"context"
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// LocationReader defines read operations for location data.
type LocationReader interface {
	// FindLocationByID retrieves a location by its unique identifier.
	FindLocationByID(ctx context.Context, locationID string) (*domain.Location, error)

	// ListLocations retrieves a paginated list of locations.
	ListLocations(ctx context.Context, limit int, offset int) ([]domain.Location, error)
}

// LocationWriter defines write operations for location data.
type LocationWriter interface {
	// SaveLocation persists a new location.
	SaveLocation(ctx context.Context, location domain.Location) error

	// UpdateLocation updates an existing location's details.
	UpdateLocation(ctx context.Context, location domain.Location) error
}

// LocationRepositoryFacade combines all location repository interfaces.
type LocationRepositoryFacade interface {
	LocationReader
	LocationWriter
}

// EmployeeReader defines read operations for employee data.
type EmployeeReader interface {
	// FindEmployeeByID retrieves an employee by their unique identifier.
	FindEmployeeByID(ctx context.Context, employeeID string) (*domain.Employee, error)

	// FindEmployeesByIDs retrieves multiple employees by their IDs.
	FindEmployeesByIDs(ctx context.Context, employeeIDs []string) (map[string]domain.Employee, error)

	// ListEmployeesByLocation retrieves a paginated list of a location's
	// employees.
	ListEmployeesByLocation(ctx context.Context, locationID string, limit int, offset int) ([]domain.Employee, error)
}

// EmployeeWriter defines write operations for employee data.
type EmployeeWriter interface {
	// SaveEmployee persists a new employee.
	SaveEmployee(ctx context.Context, employee domain.Employee) error

	// UpdateEmployee updates an existing employee's details.
	UpdateEmployee(ctx context.Context, employee domain.Employee) error
}

// EmployeeRepositoryFacade combines all employee repository interfaces.
type EmployeeRepositoryFacade interface {
	EmployeeReader
	EmployeeWriter
}

// ShiftReader defines read operations for shift data.
type ShiftReader interface {
	// FindShiftByID retrieves a shift by its unique identifier.
	FindShiftByID(ctx context.Context, shiftID string) (*domain.Shift, error)

	// FindOpenShiftByEmployee retrieves an employee's open shift at a
	// location, if any.
	FindOpenShiftByEmployee(ctx context.Context, locationID string, employeeID string) (*domain.Shift, error)

	// ListOpenShiftsByRole retrieves the open shifts worked under a role at
	// a location, ordered by employee id.
	ListOpenShiftsByRole(ctx context.Context, locationID string, role domain.Role) ([]domain.Shift, error)

	// ListShiftsByEmployee retrieves an employee's shifts newest first.
	ListShiftsByEmployee(ctx context.Context, locationID string, employeeID string, limit int, offset int) ([]domain.Shift, error)
}

// ShiftWriter defines write operations for shift data.
type ShiftWriter interface {
	// SaveShift persists a new shift.
	SaveShift(ctx context.Context, shift domain.Shift) error

	// EndShift stamps the end time on an open shift.
	EndShift(ctx context.Context, shiftID string, endedAt time.Time, userID string) error
}

// ShiftRepositoryFacade combines all shift repository interfaces.
type ShiftRepositoryFacade interface {
	ShiftReader
	ShiftWriter
}
