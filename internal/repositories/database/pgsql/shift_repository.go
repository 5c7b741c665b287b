package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	"github.com/stackpos/tipengine/internal/models"
	"github.com/stackpos/tipengine/internal/utils/mapping"
)

const selectShiftFields = `
	shift_id, location_id, employee_id, role, section, started_at, ended_at,
	created_at, created_by, last_updated_at, last_updated_by
`

type PgxShiftRepository struct {
	BaseRepository
}

// newPgxShiftRepository creates a new repository for shift data.
func newPgxShiftRepository(pool *pgxpool.Pool) portsrepo.ShiftRepositoryFacade {
	return &PgxShiftRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxShiftRepository implements portsrepo.ShiftRepositoryFacade
var _ portsrepo.ShiftRepositoryFacade = (*PgxShiftRepository)(nil)

// SaveShift persists a new shift. The store enforces one open shift per
// employee per location, so a double clock-in comes back as a duplicate.
func (r *PgxShiftRepository) SaveShift(ctx context.Context, shift domain.Shift) error {
	modelShift := mapping.ToModelShift(shift)
	query := `
		INSERT INTO shifts (` + selectShiftFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelShift.ShiftID,
		modelShift.LocationID,
		modelShift.EmployeeID,
		modelShift.Role,
		modelShift.Section,
		modelShift.StartedAt,
		modelShift.EndedAt,
		modelShift.CreatedAt,
		modelShift.CreatedBy,
		modelShift.LastUpdatedAt,
		modelShift.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("employee %s already has an open shift: %w", shift.EmployeeID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save shift %s: %w", shift.ShiftID, err)
	}
	return nil
}

// EndShift stamps the end time on an open shift.
func (r *PgxShiftRepository) EndShift(ctx context.Context, shiftID string, endedAt time.Time, userID string) error {
	query := `
		UPDATE shifts
		SET ended_at = $2, last_updated_at = $3, last_updated_by = $4
		WHERE shift_id = $1 AND ended_at IS NULL;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, shiftID, endedAt, endedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to end shift %s: %w", shiftID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindShiftByID retrieves a shift by its unique identifier.
func (r *PgxShiftRepository) FindShiftByID(ctx context.Context, shiftID string) (*domain.Shift, error) {
	query := `SELECT ` + selectShiftFields + ` FROM shifts WHERE shift_id = $1;`
	shift, err := scanShift(r.Pool.QueryRow(ctx, query, shiftID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find shift %s: %w", shiftID, err)
	}
	domainShift := mapping.ToDomainShift(*shift)
	return &domainShift, nil
}

// FindOpenShiftByEmployee retrieves an employee's open shift at a location.
func (r *PgxShiftRepository) FindOpenShiftByEmployee(ctx context.Context, locationID string, employeeID string) (*domain.Shift, error) {
	query := `
		SELECT ` + selectShiftFields + `
		FROM shifts
		WHERE location_id = $1 AND employee_id = $2 AND ended_at IS NULL;
	`
	shift, err := scanShift(r.Pool.QueryRow(ctx, query, locationID, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find open shift for employee %s: %w", employeeID, err)
	}
	domainShift := mapping.ToDomainShift(*shift)
	return &domainShift, nil
}

// ListOpenShiftsByRole retrieves the open shifts worked under a role at a
// location, ordered by employee id so tip-out splits come out deterministic.
func (r *PgxShiftRepository) ListOpenShiftsByRole(ctx context.Context, locationID string, role domain.Role) ([]domain.Shift, error) {
	query := `
		SELECT ` + selectShiftFields + `
		FROM shifts
		WHERE location_id = $1 AND role = $2 AND ended_at IS NULL
		ORDER BY employee_id;
	`
	rows, err := r.Pool.Query(ctx, query, locationID, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to query open shifts for role %s: %w", role, err)
	}
	defer rows.Close()

	shifts := []models.Shift{}
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift row for role %s: %w", role, err)
		}
		shifts = append(shifts, *shift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shift rows for role %s: %w", role, err)
	}

	return mapping.ToDomainShiftSlice(shifts), nil
}

// ListShiftsByEmployee retrieves an employee's shifts newest first.
func (r *PgxShiftRepository) ListShiftsByEmployee(ctx context.Context, locationID string, employeeID string, limit int, offset int) ([]domain.Shift, error) {
	query := `
		SELECT ` + selectShiftFields + `
		FROM shifts
		WHERE location_id = $1 AND employee_id = $2
		ORDER BY started_at DESC
		LIMIT $3 OFFSET $4;
	`
	rows, err := r.Pool.Query(ctx, query, locationID, employeeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts for employee %s: %w", employeeID, err)
	}
	defer rows.Close()

	shifts := []models.Shift{}
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift row for employee %s: %w", employeeID, err)
		}
		shifts = append(shifts, *shift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shift rows for employee %s: %w", employeeID, err)
	}

	return mapping.ToDomainShiftSlice(shifts), nil
}

// scanShift scans a shift from a row.
func scanShift(row pgx.Row) (*models.Shift, error) {
	var shift models.Shift
	err := row.Scan(
		&shift.ShiftID,
		&shift.LocationID,
		&shift.EmployeeID,
		&shift.Role,
		&shift.Section,
		&shift.StartedAt,
		&shift.EndedAt,
		&shift.CreatedAt,
		&shift.CreatedBy,
		&shift.LastUpdatedAt,
		&shift.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &shift, nil
}
