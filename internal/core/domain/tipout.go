package domain

// TipOutBasis selects what a tip-out percentage is applied to.
type TipOutBasis string

const (
	BasisTips  TipOutBasis = "TIPS"  // Percentage of the earner's tip share
	BasisSales TipOutBasis = "SALES" // Percentage of the payment's sales amount
)

// TipOutRule is a standing role-to-role transfer: employees earning tips in
// FromRole pass a percentage to on-duty employees in ToRole. Percentages are
// basis points (150 = 1.5%) so rule math stays in integers.
type TipOutRule struct {
	RuleID         string      `json:"ruleID"`     // Primary Key (UUID)
	LocationID     string      `json:"locationID"` // FK -> locations.location_id
	FromRole       Role        `json:"fromRole"`
	ToRole         Role        `json:"toRole"`
	BasisPoints    int32       `json:"basisPoints"` // Of Basis, 1..10000
	Basis          TipOutBasis `json:"basis"`
	MaxBasisPoints int32       `json:"maxBasisPoints"` // Cap as basis points of the tip share; 0 = no cap
	IsActive       bool        `json:"isActive"`
	AuditFields
}
