package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
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

// ErrDebtResolved indicates a write-off attempt on a debt that is already
// recovered or written off. Wraps ErrConflict for the transport layer.
var ErrDebtResolved = fmt.Errorf("%w: debt is not open", apperrors.ErrConflict)

// errChargebackApplied signals inside the reversal transaction that the
// first reversal key was already claimed by an earlier delivery.
var errChargebackApplied = errors.New("chargeback already applied")

// debtService reverses charged-back tips and tracks the resulting debts.
// The recovery side lives in postEntryWithRecovery, which every credit
// posting path runs through.
type debtService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
}

// NewDebtService creates a new DebtService.
func NewDebtService(ledgerRepo portsrepo.LedgerRepositoryFacade) portssvc.DebtSvcFacade {
	return &debtService{ledgerRepo: ledgerRepo}
}

// Ensure debtService implements the portssvc.DebtSvcFacade interface
var _ portssvc.DebtSvcFacade = (*debtService)(nil)

// HandleChargeback reverses every credit of the attributed transaction and
// opens one debt per employee share.
// Implements portssvc.DebtWriterSvc
func (s *debtService) HandleChargeback(ctx context.Context, locationID string, req dto.ChargebackRequest, actorUserID string) (*dto.ChargebackResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.ledgerRepo.FindTipTransactionByPayment(ctx, locationID, req.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find tip transaction for payment %s: %w", req.PaymentID, err)
	}

	credits, err := s.ledgerRepo.FindEntriesBySource(ctx, domain.SourceTipTransaction, txn.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction credits: %w", err)
	}
	accounts := make(map[string]*domain.LedgerAccount, len(credits))
	for _, credit := range credits {
		if _, ok := accounts[credit.AccountID]; ok {
			continue
		}
		account, err := s.ledgerRepo.FindAccountByID(ctx, credit.AccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to find account %s: %w", credit.AccountID, err)
		}
		accounts[credit.AccountID] = account
	}
	sort.Slice(credits, func(i, j int) bool { return credits[i].AccountID < credits[j].AccountID })

	replayed := txn.Status == domain.TipReversed
	now := time.Now().UTC()
	if !replayed {
		err = s.ledgerRepo.RunInTx(ctx, func(tx portsrepo.LedgerTx) error {
			for _, credit := range credits {
				if _, err := tx.LockAccount(ctx, credit.AccountID); err != nil {
					return fmt.Errorf("failed to lock account %s: %w", credit.AccountID, err)
				}
			}
			for _, credit := range credits {
				account := accounts[credit.AccountID]
				reversal := domain.LedgerEntry{
					EntryID:        uuid.NewString(),
					AccountID:      credit.AccountID,
					AmountCents:    -credit.AmountCents,
					Source:         domain.SourceReversal,
					SourceID:       credit.EntryID,
					IdempotencyKey: chargebackKey(txn.PaymentID, account),
					Memo:           "chargeback of payment " + txn.PaymentID,
					CreatedAt:      now,
					CreatedBy:      actorUserID,
				}
				inserted, _, err := tx.InsertEntry(ctx, reversal)
				if err != nil {
					return fmt.Errorf("failed to insert reversal: %w", err)
				}
				if !inserted {
					return errChargebackApplied
				}
				if err := tx.ApplyBalanceDelta(ctx, credit.AccountID, -credit.AmountCents, actorUserID, now); err != nil {
					return fmt.Errorf("failed to apply reversal: %w", err)
				}
				// The debt carries the full share; future credits net it
				// back down. The house absorbs its own reversals.
				if account.Kind != domain.AccountEmployee {
					continue
				}
				debt := domain.TipDebt{
					DebtID:              uuid.NewString(),
					AccountID:           credit.AccountID,
					EmployeeID:          account.EmployeeID,
					TransactionID:       txn.TransactionID,
					OriginalAmountCents: credit.AmountCents,
					RemainingCents:      credit.AmountCents,
					Status:              domain.DebtOpen,
					AuditFields: domain.AuditFields{
						CreatedAt:     now,
						CreatedBy:     actorUserID,
						LastUpdatedAt: now,
						LastUpdatedBy: actorUserID,
					},
				}
				if err := tx.InsertDebt(ctx, debt); err != nil {
					return fmt.Errorf("failed to insert debt: %w", err)
				}
			}
			return tx.UpdateTipTransactionStatus(ctx, txn.TransactionID, domain.TipReversed, &now, actorUserID, now)
		})
		if errors.Is(err, errChargebackApplied) {
			replayed = true
		} else if err != nil {
			logger.Error("Failed to handle chargeback", slog.String("payment_id", req.PaymentID), slog.String("error", err.Error()))
			return nil, err
		}
	}

	if replayed {
		logger.Info("Chargeback replayed", slog.String("payment_id", req.PaymentID), slog.String("transaction_id", txn.TransactionID))
	} else {
		metrics.ChargebacksProcessed.Inc()
		logger.Info("Chargeback applied",
			slog.String("payment_id", req.PaymentID),
			slog.String("transaction_id", txn.TransactionID),
			slog.Int64("amount_cents", txn.AmountCents),
			slog.String("reason", req.Reason))
	}

	// Both paths answer from stored state so replays return byte-identical
	// outcomes.
	resp := &dto.ChargebackResponse{
		TransactionID: txn.TransactionID,
		PaymentID:     txn.PaymentID,
		Replayed:      replayed,
	}
	for _, credit := range credits {
		account := accounts[credit.AccountID]
		reversal, err := s.ledgerRepo.FindEntryByKey(ctx, chargebackKey(txn.PaymentID, account))
		if err != nil {
			return nil, fmt.Errorf("failed to load reversal entry: %w", err)
		}
		employeeID := account.EmployeeID
		if account.Kind == domain.AccountHouse {
			employeeID = domain.HouseEmployeeID
		}
		resp.Reversals = append(resp.Reversals, dto.TipShareResponse{
			EmployeeID:  employeeID,
			AccountID:   credit.AccountID,
			AmountCents: reversal.AmountCents,
			EntryID:     reversal.EntryID,
		})
	}
	debts, err := s.ledgerRepo.ListDebtsByTransaction(ctx, txn.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load debts: %w", err)
	}
	resp.Debts = dto.ToDebtResponses(debts)
	return resp, nil
}

// chargebackKey mirrors tipEntryKey: one reversal per credited account.
func chargebackKey(paymentID string, account *domain.LedgerAccount) string {
	if account.Kind == domain.AccountHouse {
		return "cbk:" + paymentID + ":" + account.AccountID
	}
	return "cbk:" + paymentID + ":" + account.EmployeeID
}

// WriteOffDebt forgives the open remainder of a debt.
// Implements portssvc.DebtWriterSvc
func (s *debtService) WriteOffDebt(ctx context.Context, locationID string, debtID string, reason string, requestingUserID string) (*domain.TipDebt, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	debt, err := s.findDebtAtLocation(ctx, locationID, debtID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var written domain.TipDebt
	err = s.ledgerRepo.RunInTx(ctx, func(tx portsrepo.LedgerTx) error {
		locked, err := tx.LockDebt(ctx, debt.DebtID)
		if err != nil {
			return fmt.Errorf("failed to lock debt: %w", err)
		}
		if locked.Status != domain.DebtOpen {
			return fmt.Errorf("%w: debt %s is %s", ErrDebtResolved, debtID, locked.Status)
		}
		locked.RemainingCents = 0
		locked.Status = domain.DebtWrittenOff
		locked.WriteOffReason = reason
		locked.ResolvedAt = &now
		locked.LastUpdatedAt = now
		locked.LastUpdatedBy = requestingUserID
		if err := tx.UpdateDebt(ctx, *locked); err != nil {
			return fmt.Errorf("failed to update debt: %w", err)
		}
		written = *locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Debt written off",
		slog.String("debt_id", debtID),
		slog.Int64("forgiven_cents", debt.RemainingCents),
		slog.String("reason", reason))
	return &written, nil
}

// GetDebtByID retrieves a debt scoped to the location.
// Implements portssvc.DebtReaderSvc
func (s *debtService) GetDebtByID(ctx context.Context, locationID string, debtID string) (*domain.TipDebt, error) {
	return s.findDebtAtLocation(ctx, locationID, debtID)
}

// ListDebts retrieves an employee's debts, oldest first.
// Implements portssvc.DebtReaderSvc
func (s *debtService) ListDebts(ctx context.Context, locationID string, employeeID string, status *domain.DebtStatus) ([]domain.TipDebt, error) {
	debts, err := s.ledgerRepo.ListDebtsByEmployee(ctx, locationID, employeeID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	return debts, nil
}

// findDebtAtLocation loads a debt and verifies it belongs to the location
// through its account. Debts from other locations read as not found.
func (s *debtService) findDebtAtLocation(ctx context.Context, locationID string, debtID string) (*domain.TipDebt, error) {
	debt, err := s.ledgerRepo.FindDebtByID(ctx, debtID)
	if err != nil {
		return nil, fmt.Errorf("failed to find debt: %w", err)
	}
	account, err := s.ledgerRepo.FindAccountByID(ctx, debt.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find debtor account: %w", err)
	}
	if account.LocationID != locationID {
		return nil, fmt.Errorf("%w: debt %s not found at location %s", apperrors.ErrNotFound, debtID, locationID)
	}
	return debt, nil
}
