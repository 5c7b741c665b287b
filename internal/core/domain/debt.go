package domain

import "time"

// DebtStatus indicates the lifecycle state of a tip debt.
type DebtStatus string

const (
	DebtOpen       DebtStatus = "OPEN"
	DebtRecovered  DebtStatus = "RECOVERED"
	DebtWrittenOff DebtStatus = "WRITTEN_OFF"
)

// TipDebt is money an employee owes back after a chargeback reversed tips
// that were already credited. RemainingCents only ever decreases: future
// credits are siphoned against it oldest-debt-first until it reaches zero or
// a manager writes it off. The debt record, not the account balance sign, is
// what bounds recovery.
type TipDebt struct {
	DebtID              string     `json:"debtID"`              // Primary Key (UUID)
	AccountID           string     `json:"accountID"`           // FK -> ledger_accounts.account_id (the debtor)
	EmployeeID          string     `json:"employeeID"`          // Denormalized for listings
	TransactionID       string     `json:"transactionID"`       // The reversed tip transaction
	OriginalAmountCents int64      `json:"originalAmountCents"` // This employee's share of the reversed tip
	RemainingCents      int64      `json:"remainingCents"`      // Monotonically non-increasing
	Status              DebtStatus `json:"status"`
	WriteOffReason      string     `json:"writeOffReason"` // Set when Status == WRITTEN_OFF
	ResolvedAt          *time.Time `json:"resolvedAt"`     // Recovered or written off
	AuditFields
}
