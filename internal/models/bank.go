package models

import "time"

// BankedShareStatus indicates what happened to a held share.
type BankedShareStatus string

const (
	SharePending   BankedShareStatus = "PENDING"
	ShareCollected BankedShareStatus = "COLLECTED"
	SharePaidOut   BankedShareStatus = "PAID_OUT"
)

// BankedShare is a row in banked_shares.
type BankedShare struct {
	ShareID        string            `db:"share_id"`
	LocationID     string            `db:"location_id"`
	EmployeeID     string            `db:"employee_id"`
	AmountCents    int64             `db:"amount_cents"`
	Source         EntrySource       `db:"source"`
	SourceID       string            `db:"source_id"`
	IdempotencyKey string            `db:"idempotency_key"` // UNIQUE
	Status         BankedShareStatus `db:"status"`
	EntryID        string            `db:"entry_id"`    // Nullable
	PayrollRef     string            `db:"payroll_ref"` // Nullable
	ResolvedAt     *time.Time        `db:"resolved_at"`
	AuditFields
}

// TipOutBasis selects what a tip-out percentage is applied to.
type TipOutBasis string

const (
	BasisTips  TipOutBasis = "TIPS"
	BasisSales TipOutBasis = "SALES"
)

// TipOutRule is a row in tip_out_rules.
type TipOutRule struct {
	RuleID         string      `db:"rule_id"`
	LocationID     string      `db:"location_id"`
	FromRole       string      `db:"from_role"`
	ToRole         string      `db:"to_role"`
	BasisPoints    int32       `db:"basis_points"`
	Basis          TipOutBasis `db:"basis"`
	MaxBasisPoints int32       `db:"max_basis_points"`
	IsActive       bool        `db:"is_active"`
	AuditFields
}
