package services

import (
	"context"
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
)

// employeeService manages employees. Creating one also provisions the ledger
// account their tips post to.
type employeeService struct {
	employeeRepo portsrepo.EmployeeRepositoryFacade
	locationRepo portsrepo.LocationRepositoryFacade
	ledgerSvc    portssvc.LedgerWriterSvc
}

// NewEmployeeService creates a new EmployeeService.
func NewEmployeeService(employeeRepo portsrepo.EmployeeRepositoryFacade, locationRepo portsrepo.LocationRepositoryFacade, ledgerSvc portssvc.LedgerWriterSvc) portssvc.EmployeeSvcFacade {
	return &employeeService{employeeRepo: employeeRepo, locationRepo: locationRepo, ledgerSvc: ledgerSvc}
}

// Ensure employeeService implements the portssvc.EmployeeSvcFacade interface
var _ portssvc.EmployeeSvcFacade = (*employeeService)(nil)

// CreateEmployee registers an employee and provisions their tip account.
// Implements portssvc.EmployeeSvcFacade
func (s *employeeService) CreateEmployee(ctx context.Context, locationID string, req dto.CreateEmployeeRequest, creatorUserID string) (*domain.Employee, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.locationRepo.FindLocationByID(ctx, locationID); err != nil {
		return nil, fmt.Errorf("failed to find location: %w", err)
	}

	now := time.Now().UTC()
	employee := domain.Employee{
		EmployeeID: uuid.NewString(),
		LocationID: locationID,
		Name:       req.Name,
		Role:       req.Role,
		IsActive:   true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.employeeRepo.SaveEmployee(ctx, employee); err != nil {
		logger.Error("Failed to save employee", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save employee: %w", err)
	}
	if _, err := s.ledgerSvc.EnsureEmployeeAccount(ctx, locationID, employee.EmployeeID, creatorUserID); err != nil {
		return nil, fmt.Errorf("failed to provision employee account: %w", err)
	}

	logger.Info("Employee created",
		slog.String("employee_id", employee.EmployeeID),
		slog.String("location_id", locationID),
		slog.String("role", string(employee.Role)))
	return &employee, nil
}

// GetEmployeeByID retrieves an employee scoped to the location.
// Implements portssvc.EmployeeSvcFacade
func (s *employeeService) GetEmployeeByID(ctx context.Context, locationID string, employeeID string) (*domain.Employee, error) {
	return s.findEmployeeAtLocation(ctx, locationID, employeeID)
}

// ListEmployees retrieves a paginated list of a location's employees.
// Implements portssvc.EmployeeSvcFacade
func (s *employeeService) ListEmployees(ctx context.Context, locationID string, limit int, offset int) ([]domain.Employee, error) {
	employees, err := s.employeeRepo.ListEmployeesByLocation(ctx, locationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// UpdateEmployee patches an employee's name, role and active flag.
// Implements portssvc.EmployeeSvcFacade
func (s *employeeService) UpdateEmployee(ctx context.Context, locationID string, employeeID string, req dto.UpdateEmployeeRequest, requestingUserID string) (*domain.Employee, error) {
	employee, err := s.findEmployeeAtLocation(ctx, locationID, employeeID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		employee.Name = *req.Name
	}
	if req.Role != nil {
		employee.Role = *req.Role
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}
	employee.LastUpdatedAt = time.Now().UTC()
	employee.LastUpdatedBy = requestingUserID

	if err := s.employeeRepo.UpdateEmployee(ctx, *employee); err != nil {
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}
	return employee, nil
}

func (s *employeeService) findEmployeeAtLocation(ctx context.Context, locationID string, employeeID string) (*domain.Employee, error) {
	employee, err := s.employeeRepo.FindEmployeeByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	if employee.LocationID != locationID {
		return nil, fmt.Errorf("%w: employee %s not found at location %s", apperrors.ErrNotFound, employeeID, locationID)
	}
	return employee, nil
}
