package services

import (
	"context"

	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stackpos/tipengine/internal/dto"
)

// TipOutRuleReaderSvc defines read operations for tip-out rules
type TipOutRuleReaderSvc interface {
	// GetRuleByID retrieves a specific rule by its ID.
	GetRuleByID(ctx context.Context, locationID string, ruleID string) (*domain.TipOutRule, error)

	// ListRules retrieves a location's rules, optionally only active ones.
	ListRules(ctx context.Context, locationID string, activeOnly bool) ([]domain.TipOutRule, error)
}

// TipOutRuleWriterSvc defines write operations for tip-out rules
type TipOutRuleWriterSvc interface {
	// CreateRule persists a new role-to-role tip-out rule.
	CreateRule(ctx context.Context, locationID string, req dto.CreateTipOutRuleRequest, creatorUserID string) (*domain.TipOutRule, error)

	// UpdateRule patches a rule's rate, cap and active flag.
	UpdateRule(ctx context.Context, locationID string, ruleID string, req dto.UpdateTipOutRuleRequest, requestingUserID string) (*domain.TipOutRule, error)
}

// TipOutSvcFacade combines all tip-out rule service interfaces
type TipOutSvcFacade interface {
	TipOutRuleReaderSvc
	TipOutRuleWriterSvc
}
