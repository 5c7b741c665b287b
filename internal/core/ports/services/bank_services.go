package services

import (
	"context"

	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stackpos/tipengine/internal/dto"
)

// BankReaderSvc defines read operations for banked shares
type BankReaderSvc interface {
	// GetShareByID retrieves a specific banked share by its ID.
	GetShareByID(ctx context.Context, locationID string, shareID string) (*domain.BankedShare, error)

	// ListShares retrieves a location's banked shares, optionally scoped to
	// one employee and status.
	ListShares(ctx context.Context, locationID string, employeeID string, status *domain.BankedShareStatus) ([]domain.BankedShare, error)
}

// BankWriterSvc defines write operations for banked shares
type BankWriterSvc interface {
	// CollectShare credits a pending share to the employee's account. The
	// employee must be on duty; the credit passes through debt recovery like
	// any other.
	CollectShare(ctx context.Context, locationID string, shareID string, requestingUserID string) (*domain.BankedShare, error)

	// PayOutShare routes a pending share to payroll instead of the ledger.
	PayOutShare(ctx context.Context, locationID string, shareID string, req dto.PayOutShareRequest, requestingUserID string) (*domain.BankedShare, error)
}

// BankSvcFacade combines all banked-share service interfaces
type BankSvcFacade interface {
	BankReaderSvc
	BankWriterSvc
}
