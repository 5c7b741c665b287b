package dto

import (
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// PayOutShareRequest routes a banked share to payroll instead of a cash
// collection. PayrollRef identifies the payroll run that absorbed it.
type PayOutShareRequest struct {
	PayrollRef string `json:"payrollRef" binding:"required,max=100"`
}

// BankedShareResponse is the API shape of a banked share.
type BankedShareResponse struct {
	ShareID     string                   `json:"shareID"`
	LocationID  string                   `json:"locationID"`
	EmployeeID  string                   `json:"employeeID"`
	AmountCents int64                    `json:"amountCents"`
	Source      domain.EntrySource       `json:"source"`
	SourceID    string                   `json:"sourceID,omitempty"`
	Status      domain.BankedShareStatus `json:"status"`
	EntryID     string                   `json:"entryID,omitempty"`
	PayrollRef  string                   `json:"payrollRef,omitempty"`
	CreatedAt   time.Time                `json:"createdAt"`
	ResolvedAt  *time.Time               `json:"resolvedAt,omitempty"`
}

// ToBankedShareResponse maps a banked share to its API shape.
func ToBankedShareResponse(s *domain.BankedShare) BankedShareResponse {
	return BankedShareResponse{
		ShareID:     s.ShareID,
		LocationID:  s.LocationID,
		EmployeeID:  s.EmployeeID,
		AmountCents: s.AmountCents,
		Source:      s.Source,
		SourceID:    s.SourceID,
		Status:      s.Status,
		EntryID:     s.EntryID,
		PayrollRef:  s.PayrollRef,
		CreatedAt:   s.CreatedAt,
		ResolvedAt:  s.ResolvedAt,
	}
}

// ToBankedShareResponses maps a slice of banked shares preserving order.
func ToBankedShareResponses(shares []domain.BankedShare) []BankedShareResponse {
	out := make([]BankedShareResponse, 0, len(shares))
	for i := range shares {
		out = append(out, ToBankedShareResponse(&shares[i]))
	}
	return out
}
