package domain

import "time"

// BankedShareStatus indicates what happened to a held share.
// COLLECTED and PAID_OUT are terminal and mutually exclusive.
type BankedShareStatus string

const (
	SharePending   BankedShareStatus = "PENDING"
	ShareCollected BankedShareStatus = "COLLECTED" // Posted to the ledger when the owner was back on duty
	SharePaidOut   BankedShareStatus = "PAID_OUT"  // Settled through payroll, never touches the ledger
)

// BankedShare holds money destined for an employee who was off duty when it
// was earned, typically a tip-out whose recipient role had nobody clocked in.
// The share is released exactly once: either collected into the ledger or
// paid out via payroll.
type BankedShare struct {
	ShareID        string            `json:"shareID"`        // Primary Key (UUID)
	LocationID     string            `json:"locationID"`     // FK -> locations.location_id
	EmployeeID     string            `json:"employeeID"`     // The intended recipient
	AmountCents    int64             `json:"amountCents"`    // > 0
	Source         EntrySource       `json:"source"`         // What would have been posted, usually TIP_OUT
	SourceID       string            `json:"sourceID"`       // Originating record (tip transaction)
	IdempotencyKey string            `json:"idempotencyKey"` // Deterministic; re-banking the same share is a no-op
	Status         BankedShareStatus `json:"status"`
	EntryID        string            `json:"entryID"`    // Ledger entry created on collection
	PayrollRef     string            `json:"payrollRef"` // External reference set on pay-out
	ResolvedAt     *time.Time        `json:"resolvedAt"` // Collection or pay-out time
	AuditFields
}
