package services

import (
	"context"
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

// ErrSameRole indicates a rule whose from and to roles are identical, which
// would have employees tipping out their own role. Wraps ErrValidation for
// the transport layer.
var ErrSameRole = fmt.Errorf("%w: tip-out roles must differ", apperrors.ErrValidation)

// tipOutService manages the rule configuration the attribution engine
// evaluates after every posted tip.
type tipOutService struct {
	ruleRepo portsrepo.TipOutRuleRepositoryFacade
}

// NewTipOutService creates a new TipOutService.
func NewTipOutService(ruleRepo portsrepo.TipOutRuleRepositoryFacade) portssvc.TipOutSvcFacade {
	return &tipOutService{ruleRepo: ruleRepo}
}

// Ensure tipOutService implements the portssvc.TipOutSvcFacade interface
var _ portssvc.TipOutSvcFacade = (*tipOutService)(nil)

// CreateRule persists a new role-to-role tip-out rule.
// Implements portssvc.TipOutRuleWriterSvc
func (s *tipOutService) CreateRule(ctx context.Context, locationID string, req dto.CreateTipOutRuleRequest, creatorUserID string) (*domain.TipOutRule, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.FromRole == req.ToRole {
		return nil, fmt.Errorf("%w: %s", ErrSameRole, req.FromRole)
	}

	now := time.Now().UTC()
	rule := domain.TipOutRule{
		RuleID:         uuid.NewString(),
		LocationID:     locationID,
		FromRole:       req.FromRole,
		ToRole:         req.ToRole,
		BasisPoints:    req.BasisPoints,
		Basis:          req.Basis,
		MaxBasisPoints: req.MaxBasisPoints,
		IsActive:       true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.ruleRepo.SaveRule(ctx, rule); err != nil {
		logger.Error("Failed to save tip-out rule", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}

	logger.Info("Tip-out rule created",
		slog.String("rule_id", rule.RuleID),
		slog.String("from_role", string(rule.FromRole)),
		slog.String("to_role", string(rule.ToRole)),
		slog.Int("basis_points", int(rule.BasisPoints)))
	return &rule, nil
}

// UpdateRule patches a rule's rate, cap and active flag.
// Implements portssvc.TipOutRuleWriterSvc
func (s *tipOutService) UpdateRule(ctx context.Context, locationID string, ruleID string, req dto.UpdateTipOutRuleRequest, requestingUserID string) (*domain.TipOutRule, error) {
	rule, err := s.findRuleAtLocation(ctx, locationID, ruleID)
	if err != nil {
		return nil, err
	}

	if req.BasisPoints != nil {
		rule.BasisPoints = *req.BasisPoints
	}
	if req.MaxBasisPoints != nil {
		rule.MaxBasisPoints = *req.MaxBasisPoints
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	rule.LastUpdatedAt = time.Now().UTC()
	rule.LastUpdatedBy = requestingUserID

	if err := s.ruleRepo.UpdateRule(ctx, *rule); err != nil {
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}
	return rule, nil
}

// GetRuleByID retrieves a rule scoped to the location.
// Implements portssvc.TipOutRuleReaderSvc
func (s *tipOutService) GetRuleByID(ctx context.Context, locationID string, ruleID string) (*domain.TipOutRule, error) {
	return s.findRuleAtLocation(ctx, locationID, ruleID)
}

// ListRules retrieves a location's rules.
// Implements portssvc.TipOutRuleReaderSvc
func (s *tipOutService) ListRules(ctx context.Context, locationID string, activeOnly bool) ([]domain.TipOutRule, error) {
	rules, err := s.ruleRepo.ListRulesByLocation(ctx, locationID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

func (s *tipOutService) findRuleAtLocation(ctx context.Context, locationID string, ruleID string) (*domain.TipOutRule, error) {
	rule, err := s.ruleRepo.FindRuleByID(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to find rule: %w", err)
	}
	if rule.LocationID != locationID {
		return nil, fmt.Errorf("%w: rule %s not found at location %s", apperrors.ErrNotFound, ruleID, locationID)
	}
	return rule, nil
}
