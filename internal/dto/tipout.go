package dto

import (
	"github.com/stackpos/tipengine/internal/core/domain"
)

// CreateTipOutRuleRequest defines a standing role-to-role tip-out.
// BasisPoints is the transfer rate in hundredths of a percent, so 250 means
// 2.5 percent of the basis amount.
type CreateTipOutRuleRequest struct {
	FromRole       domain.Role        `json:"fromRole" binding:"required"`
	ToRole         domain.Role        `json:"toRole" binding:"required"`
	BasisPoints    int32              `json:"basisPoints" binding:"required,min=1,max=10000"`
	Basis          domain.TipOutBasis `json:"basis" binding:"required,oneof=TIPS SALES"`
	MaxBasisPoints int32              `json:"maxBasisPoints" binding:"omitempty,min=0,max=10000"`
}

// UpdateTipOutRuleRequest patches a rule. Nil fields are left unchanged.
type UpdateTipOutRuleRequest struct {
	BasisPoints    *int32 `json:"basisPoints" binding:"omitempty,min=1,max=10000"`
	MaxBasisPoints *int32 `json:"maxBasisPoints" binding:"omitempty,min=0,max=10000"`
	IsActive       *bool  `json:"isActive"`
}

// TipOutRuleResponse is the API shape of a tip-out rule.
type TipOutRuleResponse struct {
	RuleID         string             `json:"ruleID"`
	LocationID     string             `json:"locationID"`
	FromRole       domain.Role        `json:"fromRole"`
	ToRole         domain.Role        `json:"toRole"`
	BasisPoints    int32              `json:"basisPoints"`
	Basis          domain.TipOutBasis `json:"basis"`
	MaxBasisPoints int32              `json:"maxBasisPoints,omitempty"`
	IsActive       bool               `json:"isActive"`
}

// ToTipOutRuleResponse maps a rule to its API shape.
func ToTipOutRuleResponse(r *domain.TipOutRule) TipOutRuleResponse {
	return TipOutRuleResponse{
		RuleID:         r.RuleID,
		LocationID:     r.LocationID,
		FromRole:       r.FromRole,
		ToRole:         r.ToRole,
		BasisPoints:    r.BasisPoints,
		Basis:          r.Basis,
		MaxBasisPoints: r.MaxBasisPoints,
		IsActive:       r.IsActive,
	}
}

// ToTipOutRuleResponses maps a slice of rules preserving order.
func ToTipOutRuleResponses(rules []domain.TipOutRule) []TipOutRuleResponse {
	out := make([]TipOutRuleResponse, 0, len(rules))
	for i := range rules {
		out = append(out, ToTipOutRuleResponse(&rules[i]))
	}
	return out
}
