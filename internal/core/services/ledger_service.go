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
)

// ledgerService provides account provisioning, manual postings and history
// reads on top of the append-only entry store.
type ledgerService struct {
	ledgerRepo   portsrepo.LedgerRepositoryFacade
	employeeRepo portsrepo.EmployeeRepositoryFacade
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade, employeeRepo portsrepo.EmployeeRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo:   ledgerRepo,
		employeeRepo: employeeRepo,
	}
}

// Ensure ledgerService implements the portssvc.LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// creditOutcome reports what one postEntryWithRecovery call actually did.
type creditOutcome struct {
	Entry          *domain.LedgerEntry
	RecoveryEntry  *domain.LedgerEntry
	RecoveredCents int64
	Replayed       bool
}

// postEntryWithRecovery appends one entry and applies its balance delta. When
// the entry is a positive credit from a recoverable source and the account
// carries open debts, it additionally posts a single debt-recovery entry of
// min(total remaining, credit) and pays the debts down oldest first, all on
// the same transaction as the credit. A replayed idempotency key returns the
// original entry and touches nothing.
//
// The caller must have locked the target account on tx before calling.
func postEntryWithRecovery(ctx context.Context, tx portsrepo.LedgerTx, entry domain.LedgerEntry, now time.Time, actorUserID string) (*creditOutcome, error) {
	inserted, existing, err := tx.InsertEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	if !inserted {
		return &creditOutcome{Entry: existing, Replayed: true}, nil
	}

	if err := tx.ApplyBalanceDelta(ctx, entry.AccountID, entry.AmountCents, actorUserID, now); err != nil {
		return nil, fmt.Errorf("failed to apply balance delta: %w", err)
	}

	out := &creditOutcome{Entry: &entry}
	if entry.AmountCents <= 0 || !entry.Source.RecoverableSource() {
		return out, nil
	}

	// Debt interception: the recovery leg must land on the same transaction
	// as the credit so two concurrent credits cannot both see the full
	// remaining debt.
	debts, err := tx.LockOpenDebtsByAccount(ctx, entry.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock open debts: %w", err)
	}
	if len(debts) == 0 {
		return out, nil
	}

	remainingCredit := entry.AmountCents
	var recovered int64
	for i := range debts {
		if remainingCredit == 0 {
			break
		}
		take := debts[i].RemainingCents
		if take > remainingCredit {
			take = remainingCredit
		}
		debts[i].RemainingCents -= take
		debts[i].LastUpdatedAt = now
		debts[i].LastUpdatedBy = actorUserID
		if debts[i].RemainingCents == 0 {
			debts[i].Status = domain.DebtRecovered
			resolvedAt := now
			debts[i].ResolvedAt = &resolvedAt
		}
		if err := tx.UpdateDebt(ctx, debts[i]); err != nil {
			return nil, fmt.Errorf("failed to update debt %s: %w", debts[i].DebtID, err)
		}
		recovered += take
		remainingCredit -= take
	}
	if recovered == 0 {
		return out, nil
	}

	recovery := domain.LedgerEntry{
		EntryID:        uuid.NewString(),
		AccountID:      entry.AccountID,
		AmountCents:    -recovered,
		Source:         domain.SourceDebtRecovery,
		SourceID:       entry.EntryID,
		IdempotencyKey: "rec:" + entry.IdempotencyKey,
		Memo:           "debt recovery",
		CreatedAt:      now,
		CreatedBy:      actorUserID,
	}
	recInserted, _, err := tx.InsertEntry(ctx, recovery)
	if err != nil {
		return nil, fmt.Errorf("failed to insert recovery entry: %w", err)
	}
	if recInserted {
		if err := tx.ApplyBalanceDelta(ctx, entry.AccountID, -recovered, actorUserID, now); err != nil {
			return nil, fmt.Errorf("failed to apply recovery delta: %w", err)
		}
	}
	out.RecoveryEntry = &recovery
	out.RecoveredCents = recovered
	return out, nil
}

// EnsureEmployeeAccount creates an employee's tip account if missing.
// Implements portssvc.LedgerSvcFacade
func (s *ledgerService) EnsureEmployeeAccount(ctx context.Context, locationID string, employeeID string, creatorUserID string) (*domain.LedgerAccount, error) {
	account, err := s.ledgerRepo.FindAccountByEmployee(ctx, locationID, employeeID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up employee account: %w", err)
	}
	return s.createAccount(ctx, locationID, employeeID, domain.AccountEmployee, creatorUserID)
}

// EnsureHouseAccount creates the location's house account if missing.
// Implements portssvc.LedgerSvcFacade
func (s *ledgerService) EnsureHouseAccount(ctx context.Context, locationID string, creatorUserID string) (*domain.LedgerAccount, error) {
	account, err := s.ledgerRepo.FindHouseAccount(ctx, locationID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up house account: %w", err)
	}
	return s.createAccount(ctx, locationID, domain.HouseEmployeeID, domain.AccountHouse, creatorUserID)
}

func (s *ledgerService) createAccount(ctx context.Context, locationID string, employeeID string, kind domain.AccountKind, creatorUserID string) (*domain.LedgerAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()
	account := domain.LedgerAccount{
		AccountID:    uuid.NewString(),
		LocationID:   locationID,
		EmployeeID:   employeeID,
		Kind:         kind,
		BalanceCents: 0,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.ledgerRepo.SaveAccount(ctx, account); err != nil {
		// Lost a creation race: the winner's row is the account.
		if errors.Is(err, apperrors.ErrDuplicate) {
			if kind == domain.AccountHouse {
				return s.ledgerRepo.FindHouseAccount(ctx, locationID)
			}
			return s.ledgerRepo.FindAccountByEmployee(ctx, locationID, employeeID)
		}
		logger.Error("Failed to create ledger account", slog.String("location_id", locationID), slog.String("employee_id", employeeID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create ledger account: %w", err)
	}
	logger.Info("Ledger account created", slog.String("account_id", account.AccountID), slog.String("location_id", locationID), slog.String("employee_id", employeeID))
	return &account, nil
}

// GetEmployeeBalance retrieves an employee's tip account at a location.
// Implements portssvc.LedgerSvcFacade
func (s *ledgerService) GetEmployeeBalance(ctx context.Context, locationID string, employeeID string) (*domain.LedgerAccount, error) {
	account, err := s.ledgerRepo.FindAccountByEmployee(ctx, locationID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee account: %w", err)
	}
	return account, nil
}

// GetHouseBalance retrieves the location's house account.
// Implements portssvc.LedgerSvcFacade
func (s *ledgerService) GetHouseBalance(ctx context.Context, locationID string) (*domain.LedgerAccount, error) {
	account, err := s.ledgerRepo.FindHouseAccount(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find house account: %w", err)
	}
	return account, nil
}

// ListEntries retrieves a page of an employee account's entries.
// Implements portssvc.LedgerSvcFacade
func (s *ledgerService) ListEntries(ctx context.Context, locationID string, employeeID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	account, err := s.ledgerRepo.FindAccountByEmployee(ctx, locationID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee account: %w", err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	entries, nextToken, err := s.ledgerRepo.ListEntriesByAccount(ctx, account.AccountID, params.From, params.To, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return &dto.ListEntriesResponse{
		Entries:   dto.ToEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

// RecomputeBalance re-derives an account balance from its entries.
// Implements portssvc.LedgerSvcFacade
func (s *ledgerService) RecomputeBalance(ctx context.Context, locationID string, accountID string) (int64, int64, error) {
	account, err := s.ledgerRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to find account: %w", err)
	}
	if account.LocationID != locationID {
		return 0, 0, fmt.Errorf("%w: account %s not found at location %s", apperrors.ErrNotFound, accountID, locationID)
	}
	derived, err := s.ledgerRepo.SumEntriesByAccount(ctx, accountID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum entries: %w", err)
	}
	if derived != account.BalanceCents {
		middleware.GetLoggerFromCtx(ctx).Error("Ledger balance mismatch detected",
			slog.String("account_id", accountID),
			slog.Int64("cached_cents", account.BalanceCents),
			slog.Int64("derived_cents", derived))
	}
	return derived, account.BalanceCents, nil
}

// PostAdjustment posts a manual correction entry against an employee account.
// Implements portssvc.LedgerSvcFacade
func (s *ledgerService) PostAdjustment(ctx context.Context, locationID string, req dto.CreateAdjustmentRequest, creatorUserID string) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.AmountCents == 0 {
		return nil, fmt.Errorf("%w: adjustment amount must be non-zero", apperrors.ErrValidation)
	}

	account, err := s.ledgerRepo.FindAccountByEmployee(ctx, locationID, req.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee account: %w", err)
	}

	now := time.Now().UTC()
	entry := domain.LedgerEntry{
		EntryID:        uuid.NewString(),
		AccountID:      account.AccountID,
		AmountCents:    req.AmountCents,
		Source:         domain.SourceAdjustment,
		IdempotencyKey: "adj:" + req.IdempotencyKey,
		Memo:           req.Reason,
		CreatedAt:      now,
		CreatedBy:      creatorUserID,
	}

	var outcome *creditOutcome
	err = s.ledgerRepo.RunInTx(ctx, func(tx portsrepo.LedgerTx) error {
		if _, err := tx.LockAccount(ctx, account.AccountID); err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		var txErr error
		outcome, txErr = postEntryWithRecovery(ctx, tx, entry, now, creatorUserID)
		return txErr
	})
	if err != nil {
		logger.Error("Failed to post adjustment", slog.String("account_id", account.AccountID), slog.String("error", err.Error()))
		return nil, err
	}

	if outcome.Replayed {
		logger.Info("Adjustment replayed", slog.String("idempotency_key", entry.IdempotencyKey))
	} else {
		logger.Info("Adjustment posted",
			slog.String("entry_id", outcome.Entry.EntryID),
			slog.String("account_id", account.AccountID),
			slog.Int64("amount_cents", req.AmountCents),
			slog.Int64("recovered_cents", outcome.RecoveredCents))
	}
	return outcome.Entry, nil
}

// ReverseEntry voids a posted entry with an equal and opposite entry.
// Implements portssvc.LedgerSvcFacade
func (s *ledgerService) ReverseEntry(ctx context.Context, locationID string, entryID string, reason string, requestingUserID string) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.ledgerRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry: %w", err)
	}
	account, err := s.ledgerRepo.FindAccountByID(ctx, original.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account.LocationID != locationID {
		return nil, fmt.Errorf("%w: entry %s not found at location %s", apperrors.ErrNotFound, entryID, locationID)
	}
	if original.Source == domain.SourceReversal {
		return nil, fmt.Errorf("%w: reversal entries cannot be reversed", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	reversal := domain.LedgerEntry{
		EntryID:        uuid.NewString(),
		AccountID:      original.AccountID,
		AmountCents:    -original.AmountCents,
		Source:         domain.SourceReversal,
		SourceID:       original.EntryID,
		IdempotencyKey: "rev:" + original.EntryID,
		Memo:           reason,
		CreatedAt:      now,
		CreatedBy:      requestingUserID,
	}

	var outcome *creditOutcome
	err = s.ledgerRepo.RunInTx(ctx, func(tx portsrepo.LedgerTx) error {
		if _, err := tx.LockAccount(ctx, original.AccountID); err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		var txErr error
		outcome, txErr = postEntryWithRecovery(ctx, tx, reversal, now, requestingUserID)
		return txErr
	})
	if err != nil {
		logger.Error("Failed to reverse entry", slog.String("entry_id", entryID), slog.String("error", err.Error()))
		return nil, err
	}

	if !outcome.Replayed {
		logger.Info("Entry reversed", slog.String("entry_id", entryID), slog.String("reversal_id", outcome.Entry.EntryID))
	}
	return outcome.Entry, nil
}
