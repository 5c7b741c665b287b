package dto

import (
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// WriteOffDebtRequest forgives the unrecovered remainder of a debt.
type WriteOffDebtRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// DebtResponse is the API shape of a tip debt.
type DebtResponse struct {
	DebtID              string            `json:"debtID"`
	AccountID           string            `json:"accountID"`
	EmployeeID          string            `json:"employeeID"`
	TransactionID       string            `json:"transactionID"`
	OriginalAmountCents int64             `json:"originalAmountCents"`
	RemainingCents      int64             `json:"remainingCents"`
	Status              domain.DebtStatus `json:"status"`
	WriteOffReason      string            `json:"writeOffReason,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	ResolvedAt          *time.Time        `json:"resolvedAt,omitempty"`
}

// ToDebtResponse maps a debt to its API shape.
func ToDebtResponse(d *domain.TipDebt) DebtResponse {
	return DebtResponse{
		DebtID:              d.DebtID,
		AccountID:           d.AccountID,
		EmployeeID:          d.EmployeeID,
		TransactionID:       d.TransactionID,
		OriginalAmountCents: d.OriginalAmountCents,
		RemainingCents:      d.RemainingCents,
		Status:              d.Status,
		WriteOffReason:      d.WriteOffReason,
		CreatedAt:           d.CreatedAt,
		ResolvedAt:          d.ResolvedAt,
	}
}

// ToDebtResponses maps a slice of debts preserving order.
func ToDebtResponses(debts []domain.TipDebt) []DebtResponse {
	out := make([]DebtResponse, 0, len(debts))
	for i := range debts {
		out = append(out, ToDebtResponse(&debts[i]))
	}
	return out
}
