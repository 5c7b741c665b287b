package models

import "time"

// TipTransactionStatus indicates whether a tip attribution still stands.
type TipTransactionStatus string

const (
	TipPosted   TipTransactionStatus = "POSTED"
	TipReversed TipTransactionStatus = "REVERSED"
)

// TipTarget identifies what a tip attribution resolved against.
type TipTarget string

const (
	TargetPool     TipTarget = "POOL"
	TargetEmployee TipTarget = "EMPLOYEE"
	TargetHouse    TipTarget = "HOUSE"
)

// TipTransaction is a row in tip_transactions.
type TipTransaction struct {
	TransactionID string               `db:"transaction_id"`
	LocationID    string               `db:"location_id"`
	PaymentID     string               `db:"payment_id"` // UNIQUE with location_id
	AmountCents   int64                `db:"amount_cents"`
	SalesCents    int64                `db:"sales_cents"`
	Target        TipTarget            `db:"target"`
	PoolID        string               `db:"pool_id"`     // Nullable
	SegmentID     string               `db:"segment_id"`  // Nullable
	EmployeeID    string               `db:"employee_id"` // Nullable
	Status        TipTransactionStatus `db:"status"`
	CollectedAt   time.Time            `db:"collected_at"`
	ReversedAt    *time.Time           `db:"reversed_at"`
	AuditFields
}

// TipDebtStatus indicates the lifecycle state of a tip debt.
type TipDebtStatus string

const (
	DebtOpen       TipDebtStatus = "OPEN"
	DebtRecovered  TipDebtStatus = "RECOVERED"
	DebtWrittenOff TipDebtStatus = "WRITTEN_OFF"
)

// TipDebt is a row in tip_debts.
type TipDebt struct {
	DebtID              string        `db:"debt_id"`
	AccountID           string        `db:"account_id"`
	EmployeeID          string        `db:"employee_id"`
	TransactionID       string        `db:"transaction_id"`
	OriginalAmountCents int64         `db:"original_amount_cents"`
	RemainingCents      int64         `db:"remaining_cents"`
	Status              TipDebtStatus `db:"status"`
	WriteOffReason      string        `db:"write_off_reason"`
	ResolvedAt          *time.Time    `db:"resolved_at"`
	AuditFields
}
