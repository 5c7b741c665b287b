package dto

import (
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// BalanceResponse is the current state of one ledger account.
type BalanceResponse struct {
	AccountID    string             `json:"accountID"`
	LocationID   string             `json:"locationID"`
	EmployeeID   string             `json:"employeeID,omitempty"`
	Kind         domain.AccountKind `json:"kind"`
	BalanceCents int64              `json:"balanceCents"`
}

// EntryResponse is one immutable ledger entry.
type EntryResponse struct {
	EntryID        string             `json:"entryID"`
	AccountID      string             `json:"accountID"`
	AmountCents    int64              `json:"amountCents"`
	Source         domain.EntrySource `json:"source"`
	SourceID       string             `json:"sourceID,omitempty"`
	IdempotencyKey string             `json:"idempotencyKey"`
	Memo           string             `json:"memo,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// ListEntriesParams carries cursor pagination and optional time bounds for
// an account history read.
type ListEntriesParams struct {
	Limit     int        `form:"limit,default=50" binding:"omitempty,min=1,max=200"`
	NextToken *string    `form:"nextToken"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ListEntriesResponse is a page of ledger entries, newest first.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// CreateAdjustmentRequest posts a manual correction against an employee
// account. Amount may be negative. The caller supplies the idempotency key
// so a retried submission cannot double-post.
type CreateAdjustmentRequest struct {
	EmployeeID     string `json:"employeeID" binding:"required"`
	AmountCents    int64  `json:"amountCents" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
	IdempotencyKey string `json:"idempotencyKey" binding:"required"`
}

// ReverseEntryRequest voids a posted entry by id.
type ReverseEntryRequest struct {
	Reason string `json:"reason"`
}

// ToBalanceResponse maps a ledger account to its API shape.
func ToBalanceResponse(a *domain.LedgerAccount) BalanceResponse {
	return BalanceResponse{
		AccountID:    a.AccountID,
		LocationID:   a.LocationID,
		EmployeeID:   a.EmployeeID,
		Kind:         a.Kind,
		BalanceCents: a.BalanceCents,
	}
}

// ToEntryResponse maps a ledger entry to its API shape.
func ToEntryResponse(e *domain.LedgerEntry) EntryResponse {
	return EntryResponse{
		EntryID:        e.EntryID,
		AccountID:      e.AccountID,
		AmountCents:    e.AmountCents,
		Source:         e.Source,
		SourceID:       e.SourceID,
		IdempotencyKey: e.IdempotencyKey,
		Memo:           e.Memo,
		CreatedAt:      e.CreatedAt,
	}
}

// ToEntryResponses maps a slice of entries preserving order.
func ToEntryResponses(entries []domain.LedgerEntry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, ToEntryResponse(&entries[i]))
	}
	return out
}
