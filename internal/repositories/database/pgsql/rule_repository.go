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

const selectRuleFields = `
	rule_id, location_id, from_role, to_role, basis_points, basis, max_basis_points, is_active,
	created_at, created_by, last_updated_at, last_updated_by
`

type PgxRuleRepository struct {
	BaseRepository
}

// newPgxRuleRepository creates a new repository for tip-out rules.
func newPgxRuleRepository(pool *pgxpool.Pool) portsrepo.TipOutRuleRepositoryFacade {
	return &PgxRuleRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxRuleRepository implements portsrepo.TipOutRuleRepositoryFacade
var _ portsrepo.TipOutRuleRepositoryFacade = (*PgxRuleRepository)(nil)

// SaveRule persists a new rule.
func (r *PgxRuleRepository) SaveRule(ctx context.Context, rule domain.TipOutRule) error {
	modelRule := mapping.ToModelTipOutRule(rule)
	query := `
		INSERT INTO tip_out_rules (` + selectRuleFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelRule.RuleID,
		modelRule.LocationID,
		modelRule.FromRole,
		modelRule.ToRole,
		modelRule.BasisPoints,
		modelRule.Basis,
		modelRule.MaxBasisPoints,
		modelRule.IsActive,
		modelRule.CreatedAt,
		modelRule.CreatedBy,
		modelRule.LastUpdatedAt,
		modelRule.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("active rule %s -> %s already exists at location %s: %w", rule.FromRole, rule.ToRole, rule.LocationID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save rule %s: %w", rule.RuleID, err)
	}
	return nil
}

// UpdateRule updates an existing rule's rate, cap and active flag.
func (r *PgxRuleRepository) UpdateRule(ctx context.Context, rule domain.TipOutRule) error {
	modelRule := mapping.ToModelTipOutRule(rule)
	query := `
		UPDATE tip_out_rules
		SET basis_points = $2, basis = $3, max_basis_points = $4, is_active = $5,
			last_updated_at = $6, last_updated_by = $7
		WHERE rule_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		modelRule.RuleID,
		modelRule.BasisPoints,
		modelRule.Basis,
		modelRule.MaxBasisPoints,
		modelRule.IsActive,
		modelRule.LastUpdatedAt,
		modelRule.LastUpdatedBy,
	)
	if err != nil {
		// Re-activating can collide with a newer active rule for the same pair.
		if isUniqueViolation(err) {
			return fmt.Errorf("active rule %s -> %s already exists at location %s: %w", rule.FromRole, rule.ToRole, rule.LocationID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to update rule %s: %w", rule.RuleID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindRuleByID retrieves a rule by its unique identifier.
func (r *PgxRuleRepository) FindRuleByID(ctx context.Context, ruleID string) (*domain.TipOutRule, error) {
	query := `SELECT ` + selectRuleFields + ` FROM tip_out_rules WHERE rule_id = $1;`
	rule, err := scanRule(r.Pool.QueryRow(ctx, query, ruleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find rule %s: %w", ruleID, err)
	}
	domainRule := mapping.ToDomainTipOutRule(*rule)
	return &domainRule, nil
}

// ListRulesByLocation retrieves a location's rules, optionally only the
// active ones, ordered by creation time.
func (r *PgxRuleRepository) ListRulesByLocation(ctx context.Context, locationID string, activeOnly bool) ([]domain.TipOutRule, error) {
	query := `SELECT ` + selectRuleFields + ` FROM tip_out_rules WHERE location_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at, rule_id;`

	rows, err := r.Pool.Query(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules for location %s: %w", locationID, err)
	}
	defer rows.Close()

	rules := []models.TipOutRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule row for location %s: %w", locationID, err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule rows for location %s: %w", locationID, err)
	}

	return mapping.ToDomainTipOutRuleSlice(rules), nil
}

// scanRule scans a tip-out rule from a row.
func scanRule(row pgx.Row) (*models.TipOutRule, error) {
	var rule models.TipOutRule
	err := row.Scan(
		&rule.RuleID,
		&rule.LocationID,
		&rule.FromRole,
		&rule.ToRole,
		&rule.BasisPoints,
		&rule.Basis,
		&rule.MaxBasisPoints,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.CreatedBy,
		&rule.LastUpdatedAt,
		&rule.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
