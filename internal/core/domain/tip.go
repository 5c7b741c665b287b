package domain

import "time"

// TipTransactionStatus indicates whether a tip attribution still stands.
type TipTransactionStatus string

const (
	TipPosted   TipTransactionStatus = "POSTED"
	TipReversed TipTransactionStatus = "REVERSED" // Charged back; reversal entries exist
)

// TipTarget identifies what a tip attribution resolved against.
type TipTarget string

const (
	TargetPool     TipTarget = "POOL"
	TargetEmployee TipTarget = "EMPLOYEE"
	TargetHouse    TipTarget = "HOUSE"
)

// TipTransaction records one collected-tip event and its resolved target.
// The resulting ledger entries carry the transaction ID as their SourceID and
// their amounts sum exactly to AmountCents. PaymentID is the payment
// subsystem's identifier and seeds every idempotency key derived from this
// event, so webhook re-delivery never double-posts.
type TipTransaction struct {
	TransactionID string               `json:"transactionID"` // Primary Key (UUID)
	LocationID    string               `json:"locationID"`    // FK -> locations.location_id
	PaymentID     string               `json:"paymentID"`     // Unique per location
	AmountCents   int64                `json:"amountCents"`   // Total collected tip, > 0
	SalesCents    int64                `json:"salesCents"`    // Check subtotal, basis for sales-based tip-outs; 0 when unknown
	Target        TipTarget            `json:"target"`
	PoolID        string               `json:"poolID"`     // Set when Target == POOL
	SegmentID     string               `json:"segmentID"`  // Segment resolved at CollectedAt
	EmployeeID    string               `json:"employeeID"` // Set when Target == EMPLOYEE
	Status        TipTransactionStatus `json:"status"`
	CollectedAt   time.Time            `json:"collectedAt"` // When the payment completed, not when we processed it
	ReversedAt    *time.Time           `json:"reversedAt"`  // Set on chargeback
	AuditFields
}
