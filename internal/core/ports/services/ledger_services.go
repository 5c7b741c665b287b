package services

import (
	"context"

	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stackpos/tipengine/internal/dto"
)

// LedgerReaderSvc defines read operations for ledger data
type LedgerReaderSvc interface {
	// GetEmployeeBalance retrieves an employee's tip account at a location.
	GetEmployeeBalance(ctx context.Context, locationID string, employeeID string) (*domain.LedgerAccount, error)

	// GetHouseBalance retrieves the location's house account.
	GetHouseBalance(ctx context.Context, locationID string) (*domain.LedgerAccount, error)

	// ListEntries retrieves a page of an employee account's entries.
	ListEntries(ctx context.Context, locationID string, employeeID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)

	// RecomputeBalance re-derives an account balance from its entries and
	// returns it alongside the cached balance. The two must agree.
	RecomputeBalance(ctx context.Context, locationID string, accountID string) (derivedCents int64, cachedCents int64, err error)
}

// LedgerWriterSvc defines write operations for ledger data
type LedgerWriterSvc interface {
	// EnsureEmployeeAccount creates an employee's tip account if missing and
	// returns it.
	EnsureEmployeeAccount(ctx context.Context, locationID string, employeeID string, creatorUserID string) (*domain.LedgerAccount, error)

	// EnsureHouseAccount creates the location's house account if missing and
	// returns it.
	EnsureHouseAccount(ctx context.Context, locationID string, creatorUserID string) (*domain.LedgerAccount, error)

	// PostAdjustment posts a manual correction entry. Replays of the same
	// idempotency key return the original entry without posting again.
	PostAdjustment(ctx context.Context, locationID string, req dto.CreateAdjustmentRequest, creatorUserID string) (*domain.LedgerEntry, error)

	// ReverseEntry voids a posted entry with an equal and opposite entry.
	ReverseEntry(ctx context.Context, locationID string, entryID string, reason string, requestingUserID string) (*domain.LedgerEntry, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
