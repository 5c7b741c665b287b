package dto

import (
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// AttributeTipRequest is the payload delivered by the payment subsystem when
// a payment with a tip completes. Exactly one of PoolID and EmployeeID must
// be set. PaymentID seeds every idempotency key derived from this event, so
// webhook re-delivery is harmless.
type AttributeTipRequest struct {
	PaymentID   string    `json:"paymentID" binding:"required"`
	AmountCents int64     `json:"amountCents" binding:"required,gt=0"`
	SalesCents  int64     `json:"salesCents" binding:"omitempty,gte=0"`
	CollectedAt time.Time `json:"collectedAt" binding:"required"`
	PoolID      *string   `json:"poolID,omitempty"`
	EmployeeID  *string   `json:"employeeID,omitempty"`
}

// TipShareResponse is one employee's slice of an attributed tip.
type TipShareResponse struct {
	EmployeeID  string `json:"employeeID"`
	AccountID   string `json:"accountID"`
	AmountCents int64  `json:"amountCents"`
	EntryID     string `json:"entryID"`
}

// TipOutTransferResponse describes one rule-driven transfer out of a share.
type TipOutTransferResponse struct {
	RuleID         string `json:"ruleID"`
	FromEmployeeID string `json:"fromEmployeeID"`
	ToEmployeeID   string `json:"toEmployeeID,omitempty"` // Empty when the transfer was banked
	AmountCents    int64  `json:"amountCents"`
	Banked         bool   `json:"banked"`
	BankedShareID  string `json:"bankedShareID,omitempty"`
}

// TipAttributionResponse reports the full fan-out of one tip event.
// Replayed is true when the payment was seen before and nothing new posted.
type TipAttributionResponse struct {
	TransactionID string                   `json:"transactionID"`
	PaymentID     string                   `json:"paymentID"`
	AmountCents   int64                    `json:"amountCents"`
	Target        domain.TipTarget         `json:"target"`
	PoolID        string                   `json:"poolID,omitempty"`
	SegmentID     string                   `json:"segmentID,omitempty"`
	Replayed      bool                     `json:"replayed"`
	Shares        []TipShareResponse       `json:"shares"`
	TipOuts       []TipOutTransferResponse `json:"tipOuts,omitempty"`
}

// ChargebackRequest is delivered when a payment is charged back. A tip that
// was never attributed here is reported as not found.
type ChargebackRequest struct {
	PaymentID string `json:"paymentID" binding:"required"`
	Reason    string `json:"reason"`
}

// ChargebackResponse reports the reversals and debts raised by a chargeback.
type ChargebackResponse struct {
	TransactionID string             `json:"transactionID"`
	PaymentID     string             `json:"paymentID"`
	Replayed      bool               `json:"replayed"`
	Reversals     []TipShareResponse `json:"reversals"`
	Debts         []DebtResponse     `json:"debts"`
}
