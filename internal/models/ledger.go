package models

import "time"

// AccountKind separates employee accounts from house accounts.
type AccountKind string

const (
	AccountEmployee AccountKind = "EMPLOYEE"
	AccountHouse    AccountKind = "HOUSE"
)

// EntrySource classifies where a ledger entry came from.
type EntrySource string

const (
	SourceTipTransaction EntrySource = "TIP_TRANSACTION"
	SourceTipOut         EntrySource = "TIP_OUT"
	SourceBankCollection EntrySource = "BANK_COLLECTION"
	SourceDebtRecovery   EntrySource = "DEBT_RECOVERY"
	SourceAdjustment     EntrySource = "MANUAL_ADJUSTMENT"
	SourceReversal       EntrySource = "REVERSAL"
)

// LedgerAccount is a row in ledger_accounts.
type LedgerAccount struct {
	AccountID    string      `db:"account_id"`
	LocationID   string      `db:"location_id"`
	EmployeeID   string      `db:"employee_id"` // Nullable, empty for house accounts
	Kind         AccountKind `db:"kind"`
	BalanceCents int64       `db:"balance_cents"`
	AuditFields
}

// LedgerEntry is a row in ledger_entries. Append only.
type LedgerEntry struct {
	EntryID        string      `db:"entry_id"`
	AccountID      string      `db:"account_id"`
	AmountCents    int64       `db:"amount_cents"`
	Source         EntrySource `db:"source"`
	SourceID       string      `db:"source_id"`
	IdempotencyKey string      `db:"idempotency_key"` // UNIQUE
	Memo           string      `db:"memo"`
	CreatedAt      time.Time   `db:"created_at"`
	CreatedBy      string      `db:"created_by"`
}
