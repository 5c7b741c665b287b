package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
)

// SaveRule persists a new rule. At most one active rule may exist per
// role pair per location.
func (s *Store) SaveRule(_ context.Context, rule domain.TipOutRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.IsActive {
		if err := s.checkActiveRulePairLocked(rule); err != nil {
			return err
		}
	}
	s.rules[rule.RuleID] = rule
	return nil
}

// UpdateRule updates an existing rule's rate, cap and active flag.
func (s *Store) UpdateRule(_ context.Context, rule domain.TipOutRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.rules[rule.RuleID]
	if !ok {
		return apperrors.ErrNotFound
	}
	// Re-activating can collide with a newer active rule for the same pair.
	if rule.IsActive {
		if err := s.checkActiveRulePairLocked(cur); err != nil {
			return err
		}
	}
	cur.BasisPoints = rule.BasisPoints
	cur.Basis = rule.Basis
	cur.MaxBasisPoints = rule.MaxBasisPoints
	cur.IsActive = rule.IsActive
	cur.LastUpdatedAt = rule.LastUpdatedAt
	cur.LastUpdatedBy = rule.LastUpdatedBy
	s.rules[rule.RuleID] = cur
	return nil
}

// FindRuleByID retrieves a rule by its unique identifier.
func (s *Store) FindRuleByID(_ context.Context, ruleID string) (*domain.TipOutRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[ruleID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &rule, nil
}

// ListRulesByLocation retrieves a location's rules, optionally only the
// active ones, ordered by creation time.
func (s *Store) ListRulesByLocation(_ context.Context, locationID string, activeOnly bool) ([]domain.TipOutRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := []domain.TipOutRule{}
	for _, rule := range s.rules {
		if rule.LocationID != locationID {
			continue
		}
		if activeOnly && !rule.IsActive {
			continue
		}
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		if !rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].CreatedAt.Before(rules[j].CreatedAt)
		}
		return rules[i].RuleID < rules[j].RuleID
	})
	return rules, nil
}

func (s *Store) checkActiveRulePairLocked(rule domain.TipOutRule) error {
	for _, existing := range s.rules {
		if existing.RuleID == rule.RuleID {
			continue
		}
		if existing.LocationID == rule.LocationID && existing.FromRole == rule.FromRole && existing.ToRole == rule.ToRole && existing.IsActive {
			return fmt.Errorf("active rule %s -> %s already exists at location %s: %w", rule.FromRole, rule.ToRole, rule.LocationID, apperrors.ErrDuplicate)
		}
	}
	return nil
}
