package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
	"github.com/stackpos/tipengine/internal/platform/metrics"
)

// Both wrap ErrConflict so the transport layer answers 409 without knowing
// this package.
var (
	// ErrNotOnDuty indicates a collection attempt while the owning employee
	// has no open shift.
	ErrNotOnDuty = fmt.Errorf("%w: employee is not on duty", apperrors.ErrConflict)

	// ErrShareSettled indicates the share already went down the other
	// resolution path: collected shares cannot be paid out and vice versa.
	ErrShareSettled = fmt.Errorf("%w: banked share already settled", apperrors.ErrConflict)
)

// bankService holds tip-out shares for off-duty employees and releases each
// one exactly once, into the ledger or to payroll.
type bankService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
	shiftRepo  portsrepo.ShiftRepositoryFacade
}

// NewBankService creates a new BankService.
func NewBankService(ledgerRepo portsrepo.LedgerRepositoryFacade, shiftRepo portsrepo.ShiftRepositoryFacade) portssvc.BankSvcFacade {
	return &bankService{ledgerRepo: ledgerRepo, shiftRepo: shiftRepo}
}

// Ensure bankService implements the portssvc.BankSvcFacade interface
var _ portssvc.BankSvcFacade = (*bankService)(nil)

// CollectShare posts a pending share to the owner's account. Requires an
// open shift; collecting an already-collected share is a no-op.
// Implements portssvc.BankWriterSvc
func (s *bankService) CollectShare(ctx context.Context, locationID string, shareID string, requestingUserID string) (*domain.BankedShare, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	share, err := s.findShareAtLocation(ctx, locationID, shareID)
	if err != nil {
		return nil, err
	}
	switch share.Status {
	case domain.ShareCollected:
		return share, nil
	case domain.SharePaidOut:
		return nil, fmt.Errorf("%w: share %s was paid out", ErrShareSettled, shareID)
	}

	if _, err := s.shiftRepo.FindOpenShiftByEmployee(ctx, locationID, share.EmployeeID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: employee %s", ErrNotOnDuty, share.EmployeeID)
		}
		return nil, fmt.Errorf("failed to check duty status: %w", err)
	}
	account, err := s.ledgerRepo.FindAccountByEmployee(ctx, locationID, share.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee account: %w", err)
	}

	now := time.Now().UTC()
	var collected domain.BankedShare
	err = s.ledgerRepo.RunInTx(ctx, func(tx portsrepo.LedgerTx) error {
		locked, err := tx.LockBankedShare(ctx, share.ShareID)
		if err != nil {
			return fmt.Errorf("failed to lock banked share: %w", err)
		}
		switch locked.Status {
		case domain.ShareCollected:
			collected = *locked
			return nil
		case domain.SharePaidOut:
			return fmt.Errorf("%w: share %s was paid out", ErrShareSettled, shareID)
		}
		if _, err := tx.LockAccount(ctx, account.AccountID); err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}

		entry := domain.LedgerEntry{
			EntryID:        uuid.NewString(),
			AccountID:      account.AccountID,
			AmountCents:    locked.AmountCents,
			Source:         domain.SourceBankCollection,
			SourceID:       locked.ShareID,
			IdempotencyKey: "bank:" + locked.ShareID,
			Memo:           "banked share collection",
			CreatedAt:      now,
			CreatedBy:      requestingUserID,
		}
		outcome, err := postEntryWithRecovery(ctx, tx, entry, now, requestingUserID)
		if err != nil {
			return err
		}

		locked.Status = domain.ShareCollected
		locked.EntryID = outcome.Entry.EntryID
		locked.ResolvedAt = &now
		locked.LastUpdatedAt = now
		locked.LastUpdatedBy = requestingUserID
		if err := tx.UpdateBankedShare(ctx, *locked); err != nil {
			return fmt.Errorf("failed to update banked share: %w", err)
		}
		collected = *locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BankedSharesCollected.Inc()
	logger.Info("Banked share collected",
		slog.String("share_id", shareID),
		slog.String("employee_id", share.EmployeeID),
		slog.Int64("amount_cents", share.AmountCents))
	return &collected, nil
}

// PayOutShare settles a pending share through payroll; it never touches the
// ledger. Paying out twice is a no-op.
// Implements portssvc.BankWriterSvc
func (s *bankService) PayOutShare(ctx context.Context, locationID string, shareID string, req dto.PayOutShareRequest, requestingUserID string) (*domain.BankedShare, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	share, err := s.findShareAtLocation(ctx, locationID, shareID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var paid domain.BankedShare
	err = s.ledgerRepo.RunInTx(ctx, func(tx portsrepo.LedgerTx) error {
		locked, err := tx.LockBankedShare(ctx, share.ShareID)
		if err != nil {
			return fmt.Errorf("failed to lock banked share: %w", err)
		}
		switch locked.Status {
		case domain.SharePaidOut:
			paid = *locked
			return nil
		case domain.ShareCollected:
			return fmt.Errorf("%w: share %s was collected", ErrShareSettled, shareID)
		}

		locked.Status = domain.SharePaidOut
		locked.PayrollRef = req.PayrollRef
		locked.ResolvedAt = &now
		locked.LastUpdatedAt = now
		locked.LastUpdatedBy = requestingUserID
		if err := tx.UpdateBankedShare(ctx, *locked); err != nil {
			return fmt.Errorf("failed to update banked share: %w", err)
		}
		paid = *locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Banked share paid out",
		slog.String("share_id", shareID),
		slog.String("employee_id", share.EmployeeID),
		slog.String("payroll_ref", req.PayrollRef))
	return &paid, nil
}

// GetShareByID retrieves a banked share scoped to the location.
// Implements portssvc.BankReaderSvc
func (s *bankService) GetShareByID(ctx context.Context, locationID string, shareID string) (*domain.BankedShare, error) {
	return s.findShareAtLocation(ctx, locationID, shareID)
}

// ListShares retrieves a location's banked shares.
// Implements portssvc.BankReaderSvc
func (s *bankService) ListShares(ctx context.Context, locationID string, employeeID string, status *domain.BankedShareStatus) ([]domain.BankedShare, error) {
	shares, err := s.ledgerRepo.ListBankedShares(ctx, locationID, employeeID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list banked shares: %w", err)
	}
	return shares, nil
}

func (s *bankService) findShareAtLocation(ctx context.Context, locationID string, shareID string) (*domain.BankedShare, error) {
	share, err := s.ledgerRepo.FindBankedShareByID(ctx, shareID)
	if err != nil {
		return nil, fmt.Errorf("failed to find banked share: %w", err)
	}
	if share.LocationID != locationID {
		return nil, fmt.Errorf("%w: share %s not found at location %s", apperrors.ErrNotFound, shareID, locationID)
	}
	return share, nil
}
