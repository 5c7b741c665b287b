package memory

import (
	"context"
	"sort"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
)

// SaveEmployee persists a new employee.
func (s *Store) SaveEmployee(_ context.Context, employee domain.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.employees[employee.EmployeeID] = employee
	return nil
}

// UpdateEmployee updates an existing employee's details.
func (s *Store) UpdateEmployee(_ context.Context, employee domain.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.employees[employee.EmployeeID]
	if !ok {
		return apperrors.ErrNotFound
	}
	cur.Name = employee.Name
	cur.Role = employee.Role
	cur.IsActive = employee.IsActive
	cur.LastUpdatedAt = employee.LastUpdatedAt
	cur.LastUpdatedBy = employee.LastUpdatedBy
	s.employees[employee.EmployeeID] = cur
	return nil
}

// FindEmployeeByID retrieves an employee by their unique identifier.
func (s *Store) FindEmployeeByID(_ context.Context, employeeID string) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, ok := s.employees[employeeID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &employee, nil
}

// FindEmployeesByIDs retrieves multiple employees by their IDs. Missing ids
// are simply absent from the map.
func (s *Store) FindEmployeesByIDs(_ context.Context, employeeIDs []string) (map[string]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := map[string]domain.Employee{}
	for _, employeeID := range employeeIDs {
		if employee, ok := s.employees[employeeID]; ok {
			employees[employeeID] = employee
		}
	}
	return employees, nil
}

// ListEmployeesByLocation retrieves a paginated list of a location's
// employees, newest first.
func (s *Store) ListEmployeesByLocation(_ context.Context, locationID string, limit int, offset int) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := []domain.Employee{}
	for _, employee := range s.employees {
		if employee.LocationID == locationID {
			employees = append(employees, employee)
		}
	}
	sort.Slice(employees, func(i, j int) bool {
		if !employees[i].CreatedAt.Equal(employees[j].CreatedAt) {
			return employees[i].CreatedAt.After(employees[j].CreatedAt)
		}
		return employees[i].EmployeeID > employees[j].EmployeeID
	})
	return pageSlice(employees, limit, offset), nil
}
