package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	"github.com/stackpos/tipengine/internal/models"
	"github.com/stackpos/tipengine/internal/utils/mapping"
)

const selectEmployeeFields = `
	employee_id, location_id, name, role, is_active,
	created_at, created_by, last_updated_at, last_updated_by
`

type PgxEmployeeRepository struct {
	BaseRepository
}

// newPgxEmployeeRepository creates a new repository for employee data.
func newPgxEmployeeRepository(pool *pgxpool.Pool) portsrepo.EmployeeRepositoryFacade {
	return &PgxEmployeeRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxEmployeeRepository implements portsrepo.EmployeeRepositoryFacade
var _ portsrepo.EmployeeRepositoryFacade = (*PgxEmployeeRepository)(nil)

// SaveEmployee persists a new employee.
func (r *PgxEmployeeRepository) SaveEmployee(ctx context.Context, employee domain.Employee) error {
	modelEmployee := mapping.ToModelEmployee(employee)
	query := `
		INSERT INTO employees (` + selectEmployeeFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelEmployee.EmployeeID,
		modelEmployee.LocationID,
		modelEmployee.Name,
		modelEmployee.Role,
		modelEmployee.IsActive,
		modelEmployee.CreatedAt,
		modelEmployee.CreatedBy,
		modelEmployee.LastUpdatedAt,
		modelEmployee.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", employee.EmployeeID, err)
	}
	return nil
}

// UpdateEmployee updates an existing employee's details.
func (r *PgxEmployeeRepository) UpdateEmployee(ctx context.Context, employee domain.Employee) error {
	modelEmployee := mapping.ToModelEmployee(employee)
	query := `
		UPDATE employees
		SET name = $2, role = $3, is_active = $4, last_updated_at = $5, last_updated_by = $6
		WHERE employee_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		modelEmployee.EmployeeID,
		modelEmployee.Name,
		modelEmployee.Role,
		modelEmployee.IsActive,
		modelEmployee.LastUpdatedAt,
		modelEmployee.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee %s: %w", employee.EmployeeID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindEmployeeByID retrieves an employee by their unique identifier.
func (r *PgxEmployeeRepository) FindEmployeeByID(ctx context.Context, employeeID string) (*domain.Employee, error) {
	query := `SELECT ` + selectEmployeeFields + ` FROM employees WHERE employee_id = $1;`
	employee, err := scanEmployee(r.Pool.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find employee %s: %w", employeeID, err)
	}
	domainEmployee := mapping.ToDomainEmployee(*employee)
	return &domainEmployee, nil
}

// FindEmployeesByIDs retrieves multiple employees keyed by id. Missing ids
// are simply absent from the map.
func (r *PgxEmployeeRepository) FindEmployeesByIDs(ctx context.Context, employeeIDs []string) (map[string]domain.Employee, error) {
	if len(employeeIDs) == 0 {
		return map[string]domain.Employee{}, nil
	}

	query := `SELECT ` + selectEmployeeFields + ` FROM employees WHERE employee_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees by IDs: %w", err)
	}
	defer rows.Close()

	employeesMap := make(map[string]domain.Employee)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee row during batch fetch: %w", err)
		}
		employeesMap[employee.EmployeeID] = mapping.ToDomainEmployee(*employee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employee rows during batch fetch: %w", err)
	}

	return employeesMap, nil
}

// ListEmployeesByLocation retrieves a paginated list of a location's employees.
func (r *PgxEmployeeRepository) ListEmployeesByLocation(ctx context.Context, locationID string, limit int, offset int) ([]domain.Employee, error) {
	query := `
		SELECT ` + selectEmployeeFields + `
		FROM employees
		WHERE location_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, locationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees for location %s: %w", locationID, err)
	}
	defer rows.Close()

	employees := []models.Employee{}
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee row for location %s: %w", locationID, err)
		}
		employees = append(employees, *employee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employee rows for location %s: %w", locationID, err)
	}

	return mapping.ToDomainEmployeeSlice(employees), nil
}

// scanEmployee scans an employee from a row.
func scanEmployee(row pgx.Row) (*models.Employee, error) {
	var employee models.Employee
	err := row.Scan(
		&employee.EmployeeID,
		&employee.LocationID,
		&employee.Name,
		&employee.Role,
		&employee.IsActive,
		&employee.CreatedAt,
		&employee.CreatedBy,
		&employee.LastUpdatedAt,
		&employee.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &employee, nil
}
