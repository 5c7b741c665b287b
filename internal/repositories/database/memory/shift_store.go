package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
)

// SaveShift persists a new shift. The store enforces one open shift per
// employee per location, so a double clock-in comes back as a duplicate.
func (s *Store) SaveShift(_ context.Context, shift domain.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if shift.EndedAt == nil {
		for _, existing := range s.shifts {
			if existing.LocationID == shift.LocationID && existing.EmployeeID == shift.EmployeeID && existing.EndedAt == nil {
				return fmt.Errorf("employee %s already has an open shift: %w", shift.EmployeeID, apperrors.ErrDuplicate)
			}
		}
	}
	s.shifts[shift.ShiftID] = shift
	return nil
}

// EndShift stamps the end time on an open shift.
func (s *Store) EndShift(_ context.Context, shiftID string, endedAt time.Time, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.shifts[shiftID]
	if !ok || shift.EndedAt != nil {
		return apperrors.ErrNotFound
	}
	shift.EndedAt = &endedAt
	shift.LastUpdatedAt = endedAt
	shift.LastUpdatedBy = userID
	s.shifts[shiftID] = shift
	return nil
}

// FindShiftByID retrieves a shift by its unique identifier.
func (s *Store) FindShiftByID(_ context.Context, shiftID string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shift, ok := s.shifts[shiftID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &shift, nil
}

// FindOpenShiftByEmployee retrieves an employee's open shift at a location.
func (s *Store) FindOpenShiftByEmployee(_ context.Context, locationID string, employeeID string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, shift := range s.shifts {
		if shift.LocationID == locationID && shift.EmployeeID == employeeID && shift.EndedAt == nil {
			found := shift
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ListOpenShiftsByRole retrieves the open shifts worked under a role at a
// location, ordered by employee id so tip-out splits come out deterministic.
func (s *Store) ListOpenShiftsByRole(_ context.Context, locationID string, role domain.Role) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shifts := []domain.Shift{}
	for _, shift := range s.shifts {
		if shift.LocationID == locationID && shift.Role == role && shift.EndedAt == nil {
			shifts = append(shifts, shift)
		}
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].EmployeeID < shifts[j].EmployeeID })
	return shifts, nil
}

// ListShiftsByEmployee retrieves an employee's shifts newest first.
func (s *Store) ListShiftsByEmployee(_ context.Context, locationID string, employeeID string, limit int, offset int) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shifts := []domain.Shift{}
	for _, shift := range s.shifts {
		if shift.LocationID == locationID && shift.EmployeeID == employeeID {
			shifts = append(shifts, shift)
		}
	}
	sort.Slice(shifts, func(i, j int) bool {
		if !shifts[i].StartedAt.Equal(shifts[j].StartedAt) {
			return shifts[i].StartedAt.After(shifts[j].StartedAt)
		}
		return shifts[i].ShiftID > shifts[j].ShiftID
	})
	return pageSlice(shifts, limit, offset), nil
}
