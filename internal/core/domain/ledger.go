package domain

import "time"

// AccountKind separates employee tip accounts from the per-location house
// account that receives otherwise unattributable money.
type AccountKind string

const (
	AccountEmployee AccountKind = "EMPLOYEE"
	AccountHouse    AccountKind = "HOUSE"
)

// HouseEmployeeID is the sentinel employee id carried by house accounts.
// Tips that cannot be attributed to anyone are routed here.
const HouseEmployeeID = "house"

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

// RecoverableSource reports whether a positive entry of this source may be
// siphoned into open debt recovery. Reversals and recovery entries themselves
// never trigger recovery.
func (s EntrySource) RecoverableSource() bool {
	switch s {
	case SourceTipTransaction, SourceTipOut, SourceBankCollection, SourceAdjustment:
		return true
	}
	return false
}

// LedgerAccount is the durable tip balance for one employee at one location.
// BalanceCents always equals the sum of the account's entries; the entries are
// the source of truth and the balance is replayable from them.
type LedgerAccount struct {
	AccountID    string      `json:"accountID"`  // Primary Key (UUID)
	LocationID   string      `json:"locationID"` // FK -> locations.location_id
	EmployeeID   string      `json:"employeeID"` // FK -> employees.employee_id, empty for house accounts
	Kind         AccountKind `json:"kind"`
	BalanceCents int64       `json:"balanceCents"` // Persisted running balance
	AuditFields
}

// LedgerEntry is one immutable movement on an account. Entries are append
// only: corrections are expressed as new entries, never as updates.
type LedgerEntry struct {
	EntryID        string      `json:"entryID"`     // Primary Key (UUID)
	AccountID      string      `json:"accountID"`   // FK -> ledger_accounts.account_id
	AmountCents    int64       `json:"amountCents"` // Signed; credits positive, debits negative
	Source         EntrySource `json:"source"`
	SourceID       string      `json:"sourceID"`       // ID of the originating record (transaction, debt, share, entry)
	IdempotencyKey string      `json:"idempotencyKey"` // Globally unique; replays return the original entry
	Memo           string      `json:"memo"`
	CreatedAt      time.Time   `json:"createdAt"`
	CreatedBy      string      `json:"createdBy"`
}
