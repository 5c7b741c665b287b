package repositories

import (
	"context"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// TipOutRuleReader defines read operations for tip-out rules.
type TipOutRuleReader interface {
	// FindRuleByID retrieves a rule by its unique identifier.
	FindRuleByID(ctx context.Context, ruleID string) (*domain.TipOutRule, error)

	// ListRulesByLocation retrieves a location's rules, optionally only the
	// active ones, ordered by creation time.
	ListRulesByLocation(ctx context.Context, locationID string, activeOnly bool) ([]domain.TipOutRule, error)
}

// TipOutRuleWriter defines write operations for tip-out rules.
type TipOutRuleWriter interface {
	// SaveRule persists a new rule.
	SaveRule(ctx context.Context, rule domain.TipOutRule) error

	// UpdateRule updates an existing rule's rate, cap and active flag.
	UpdateRule(ctx context.Context, rule domain.TipOutRule) error
}

// TipOutRuleRepositoryFacade combines all rule repository interfaces.
type TipOutRuleRepositoryFacade interface {
	TipOutRuleReader
	TipOutRuleWriter
}
