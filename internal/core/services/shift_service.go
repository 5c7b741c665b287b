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
)

var (
	// ErrAlreadyClockedIn indicates a clock-in while an open shift exists.
	// Wraps ErrDuplicate for the transport layer.
	ErrAlreadyClockedIn = fmt.Errorf("%w: employee already has an open shift", apperrors.ErrDuplicate)

	// ErrNotClockedIn indicates a clock-out with no open shift. Wraps
	// ErrNotFound for the transport layer.
	ErrNotClockedIn = fmt.Errorf("%w: employee has no open shift", apperrors.ErrNotFound)
)

// shiftService is the on-duty source of truth. Tip-out recipient resolution
// and banked-share collection both key off open shifts.
type shiftService struct {
	shiftRepo    portsrepo.ShiftRepositoryFacade
	employeeRepo portsrepo.EmployeeRepositoryFacade
}

// NewShiftService creates a new ShiftService.
func NewShiftService(shiftRepo portsrepo.ShiftRepositoryFacade, employeeRepo portsrepo.EmployeeRepositoryFacade) portssvc.ShiftSvcFacade {
	return &shiftService{shiftRepo: shiftRepo, employeeRepo: employeeRepo}
}

// Ensure shiftService implements the portssvc.ShiftSvcFacade interface
var _ portssvc.ShiftSvcFacade = (*shiftService)(nil)

// ClockIn opens a shift for an employee.
// Implements portssvc.ShiftSvcFacade
func (s *shiftService) ClockIn(ctx context.Context, locationID string, req dto.ClockInRequest, requestingUserID string) (*domain.Shift, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	employee, err := s.employeeRepo.FindEmployeeByID(ctx, req.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	if employee.LocationID != locationID {
		return nil, fmt.Errorf("%w: employee %s not found at location %s", apperrors.ErrNotFound, req.EmployeeID, locationID)
	}
	if !employee.IsActive {
		return nil, fmt.Errorf("%w: employee %s is inactive", apperrors.ErrValidation, req.EmployeeID)
	}

	if _, err := s.shiftRepo.FindOpenShiftByEmployee(ctx, locationID, req.EmployeeID); err == nil {
		return nil, fmt.Errorf("%w: employee %s", ErrAlreadyClockedIn, req.EmployeeID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check open shift: %w", err)
	}

	role := employee.Role
	if req.Role != nil {
		role = *req.Role
	}
	now := time.Now().UTC()
	startedAt := now
	if req.At != nil {
		startedAt = req.At.UTC()
	}

	shift := domain.Shift{
		ShiftID:    uuid.NewString(),
		LocationID: locationID,
		EmployeeID: req.EmployeeID,
		Role:       role,
		Section:    req.Section,
		StartedAt:  startedAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requestingUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: requestingUserID,
		},
	}
	if err := s.shiftRepo.SaveShift(ctx, shift); err != nil {
		// A lost race against another clock-in trips the one-open-shift
		// constraint.
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: employee %s", ErrAlreadyClockedIn, req.EmployeeID)
		}
		return nil, fmt.Errorf("failed to save shift: %w", err)
	}

	logger.Info("Employee clocked in",
		slog.String("employee_id", req.EmployeeID),
		slog.String("role", string(role)),
		slog.String("section", req.Section))
	return &shift, nil
}

// ClockOut closes an employee's open shift.
// Implements portssvc.ShiftSvcFacade
func (s *shiftService) ClockOut(ctx context.Context, locationID string, employeeID string, req dto.ClockOutRequest, requestingUserID string) (*domain.Shift, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	shift, err := s.shiftRepo.FindOpenShiftByEmployee(ctx, locationID, employeeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: employee %s", ErrNotClockedIn, employeeID)
		}
		return nil, fmt.Errorf("failed to find open shift: %w", err)
	}

	endedAt := time.Now().UTC()
	if req.At != nil {
		endedAt = req.At.UTC()
	}
	if endedAt.Before(shift.StartedAt) {
		return nil, fmt.Errorf("%w: shift cannot end before it started", apperrors.ErrValidation)
	}

	if err := s.shiftRepo.EndShift(ctx, shift.ShiftID, endedAt, requestingUserID); err != nil {
		return nil, fmt.Errorf("failed to end shift: %w", err)
	}
	shift.EndedAt = &endedAt

	logger.Info("Employee clocked out",
		slog.String("employee_id", employeeID),
		slog.String("shift_id", shift.ShiftID))
	return shift, nil
}

// GetOpenShift retrieves an employee's open shift, if any.
// Implements portssvc.ShiftSvcFacade
func (s *shiftService) GetOpenShift(ctx context.Context, locationID string, employeeID string) (*domain.Shift, error) {
	shift, err := s.shiftRepo.FindOpenShiftByEmployee(ctx, locationID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find open shift: %w", err)
	}
	return shift, nil
}

// ListShifts retrieves an employee's shifts newest first.
// Implements portssvc.ShiftSvcFacade
func (s *shiftService) ListShifts(ctx context.Context, locationID string, employeeID string, limit int, offset int) ([]domain.Shift, error) {
	shifts, err := s.shiftRepo.ListShiftsByEmployee(ctx, locationID, employeeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, nil
}

// OnDutyByRole retrieves the open shifts worked under a role.
// Implements portssvc.ShiftSvcFacade
func (s *shiftService) OnDutyByRole(ctx context.Context, locationID string, role domain.Role) ([]domain.Shift, error) {
	shifts, err := s.shiftRepo.ListOpenShiftsByRole(ctx, locationID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list open shifts: %w", err)
	}
	return shifts, nil
}
