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

const (
	selectTokenFields = `
		token_id, location_id, name, token_hash,
		created_at, created_by, last_updated_at, last_updated_by,
		last_used_at, expires_at, revoked_at
	`

	insertTokenQuery = `
		INSERT INTO terminal_tokens (` + selectTokenFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`

	findTokenByIDQuery = `
		SELECT ` + selectTokenFields + `
		FROM terminal_tokens
		WHERE token_id = $1;
	`

	findTokenByHashQuery = `
		SELECT ` + selectTokenFields + `
		FROM terminal_tokens
		WHERE token_hash = $1;
	`

	listTokensByLocationQuery = `
		SELECT ` + selectTokenFields + `
		FROM terminal_tokens
		WHERE location_id = $1
		ORDER BY created_at DESC, token_id DESC;
	`

	touchTokenQuery = `
		UPDATE terminal_tokens
		SET last_used_at = $2
		WHERE token_id = $1;
	`

	revokeTokenQuery = `
		UPDATE terminal_tokens
		SET revoked_at = $2, last_updated_at = $2, last_updated_by = $3
		WHERE token_id = $1 AND revoked_at IS NULL;
	`
)

type PgxTokenRepository struct {
	BaseRepository
}

// newPgxTokenRepository creates a new repository for POS terminal tokens.
func newPgxTokenRepository(pool *pgxpool.Pool) portsrepo.TerminalTokenRepositoryFacade {
	return &PgxTokenRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxTokenRepository implements portsrepo.TerminalTokenRepositoryFacade
var _ portsrepo.TerminalTokenRepositoryFacade = (*PgxTokenRepository)(nil)

// SaveToken persists a new token.
func (r *PgxTokenRepository) SaveToken(ctx context.Context, token domain.TerminalToken) error {
	modelToken := mapping.ToModelTerminalToken(token)
	_, err := r.Pool.Exec(ctx, insertTokenQuery,
		modelToken.TokenID,
		modelToken.LocationID,
		modelToken.Name,
		modelToken.TokenHash,
		modelToken.CreatedAt,
		modelToken.CreatedBy,
		modelToken.LastUpdatedAt,
		modelToken.LastUpdatedBy,
		modelToken.LastUsedAt,
		modelToken.ExpiresAt,
		modelToken.RevokedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("token digest collision for %s: %w", token.TokenID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save terminal token %s: %w", token.TokenID, err)
	}
	return nil
}

// FindTokenByID retrieves a token by its unique identifier.
func (r *PgxTokenRepository) FindTokenByID(ctx context.Context, tokenID string) (*domain.TerminalToken, error) {
	token, err := scanToken(r.Pool.QueryRow(ctx, findTokenByIDQuery, tokenID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find terminal token %s: %w", tokenID, err)
	}
	domainToken := mapping.ToDomainTerminalToken(*token)
	return &domainToken, nil
}

// FindTokenByHash retrieves a token by its stored digest.
func (r *PgxTokenRepository) FindTokenByHash(ctx context.Context, tokenHash string) (*domain.TerminalToken, error) {
	token, err := scanToken(r.Pool.QueryRow(ctx, findTokenByHashQuery, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find terminal token by digest: %w", err)
	}
	domainToken := mapping.ToDomainTerminalToken(*token)
	return &domainToken, nil
}

// ListTokensByLocation retrieves a location's tokens, revoked included,
// newest first.
func (r *PgxTokenRepository) ListTokensByLocation(ctx context.Context, locationID string) ([]domain.TerminalToken, error) {
	rows, err := r.Pool.Query(ctx, listTokensByLocationQuery, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query terminal tokens for location %s: %w", locationID, err)
	}
	defer rows.Close()

	tokens := []models.TerminalToken{}
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan terminal token row for location %s: %w", locationID, err)
		}
		tokens = append(tokens, *token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating terminal token rows for location %s: %w", locationID, err)
	}

	return mapping.ToDomainTerminalTokenSlice(tokens), nil
}

// TouchToken stamps a token's last use. Callers treat failures as non-fatal.
func (r *PgxTokenRepository) TouchToken(ctx context.Context, tokenID string, usedAt time.Time) error {
	if _, err := r.Pool.Exec(ctx, touchTokenQuery, tokenID, usedAt); err != nil {
		return fmt.Errorf("failed to touch terminal token %s: %w", tokenID, err)
	}
	return nil
}

// RevokeToken stamps a token revoked.
func (r *PgxTokenRepository) RevokeToken(ctx context.Context, tokenID string, revokedAt time.Time, userID string) error {
	cmdTag, err := r.Pool.Exec(ctx, revokeTokenQuery, tokenID, revokedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke terminal token %s: %w", tokenID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// scanToken scans a terminal token from a row.
func scanToken(row pgx.Row) (*models.TerminalToken, error) {
	var token models.TerminalToken
	err := row.Scan(
		&token.TokenID,
		&token.LocationID,
		&token.Name,
		&token.TokenHash,
		&token.CreatedAt,
		&token.CreatedBy,
		&token.LastUpdatedAt,
		&token.LastUpdatedBy,
		&token.LastUsedAt,
		&token.ExpiresAt,
		&token.RevokedAt,
	)
	if err != nil {
		return nil, err
	}
	return &token, nil
}
