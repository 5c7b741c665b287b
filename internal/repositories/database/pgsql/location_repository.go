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

const selectLocationFields = `
	location_id, name, timezone, currency_code, is_active,
	created_at, created_by, last_updated_at, last_updated_by
`

type PgxLocationRepository struct {
	BaseRepository
}

// newPgxLocationRepository creates a new repository for location data.
func newPgxLocationRepository(pool *pgxpool.Pool) portsrepo.LocationRepositoryFacade {
	return &PgxLocationRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxLocationRepository implements portsrepo.LocationRepositoryFacade
var _ portsrepo.LocationRepositoryFacade = (*PgxLocationRepository)(nil)

// SaveLocation persists a new location.
func (r *PgxLocationRepository) SaveLocation(ctx context.Context, location domain.Location) error {
	modelLocation := mapping.ToModelLocation(location)
	query := `
		INSERT INTO locations (` + selectLocationFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelLocation.LocationID,
		modelLocation.Name,
		modelLocation.Timezone,
		modelLocation.CurrencyCode,
		modelLocation.IsActive,
		modelLocation.CreatedAt,
		modelLocation.CreatedBy,
		modelLocation.LastUpdatedAt,
		modelLocation.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save location %s: %w", location.LocationID, err)
	}
	return nil
}

// UpdateLocation updates an existing location's details.
func (r *PgxLocationRepository) UpdateLocation(ctx context.Context, location domain.Location) error {
	modelLocation := mapping.ToModelLocation(location)
	query := `
		UPDATE locations
		SET name = $2, timezone = $3, currency_code = $4, is_active = $5,
			last_updated_at = $6, last_updated_by = $7
		WHERE location_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		modelLocation.LocationID,
		modelLocation.Name,
		modelLocation.Timezone,
		modelLocation.CurrencyCode,
		modelLocation.IsActive,
		modelLocation.LastUpdatedAt,
		modelLocation.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update location %s: %w", location.LocationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindLocationByID retrieves a location by its unique identifier.
func (r *PgxLocationRepository) FindLocationByID(ctx context.Context, locationID string) (*domain.Location, error) {
	query := `SELECT ` + selectLocationFields + ` FROM locations WHERE location_id = $1;`
	location, err := scanLocation(r.Pool.QueryRow(ctx, query, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find location %s: %w", locationID, err)
	}
	domainLocation := mapping.ToDomainLocation(*location)
	return &domainLocation, nil
}

// ListLocations retrieves a paginated list of locations.
func (r *PgxLocationRepository) ListLocations(ctx context.Context, limit int, offset int) ([]domain.Location, error) {
	query := `
		SELECT ` + selectLocationFields + `
		FROM locations
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	locations := []models.Location{}
	for rows.Next() {
		location, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		locations = append(locations, *location)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location rows: %w", err)
	}

	return mapping.ToDomainLocationSlice(locations), nil
}

// scanLocation scans a location from a row.
func scanLocation(row pgx.Row) (*models.Location, error) {
	var location models.Location
	err := row.Scan(
		&location.LocationID,
		&location.Name,
		&location.Timezone,
		&location.CurrencyCode,
		&location.IsActive,
		&location.CreatedAt,
		&location.CreatedBy,
		&location.LastUpdatedAt,
		&location.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &location, nil
}
