package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
	"github.com/stackpos/tipengine/internal/platform/config"
	"github.com/stackpos/tipengine/internal/platform/metrics"
	"github.com/stackpos/tipengine/internal/utils/split"
)

// Attribution failures callers may branch on. Each wraps ErrValidation so the
// transport layer rejects the webhook as a bad request rather than a fault.
var (
	ErrSegmentNotFound = fmt.Errorf("%w: no pool segment covers the collection instant", apperrors.ErrValidation)
	ErrEmptyPool       = fmt.Errorf("%w: resolved segment has no members", apperrors.ErrValidation)
	ErrAmbiguousTarget = fmt.Errorf("%w: exactly one of poolID and employeeID must be set", apperrors.ErrValidation)
)

// errRuleApplied signals inside a tip-out transaction that the rule's debit
// key was already claimed, so the whole rule transfer exists from an earlier
// delivery and nothing more may post.
var errRuleApplied = errors.New("tip-out rule already applied")

// tipShare is one employee's resolved slice of a tip, carried between the
// split step and the posting step.
type tipShare struct {
	EmployeeID string
	AccountID  string
	Cents      int64
	EntryID    string
}

// attributionService turns one collected tip into exact per-employee ledger
// postings, then fans out tip-out transfers and banked shares. Every posting
// key derives from the payment id, so redelivered webhooks replay cleanly.
type attributionService struct {
	cfg          *config.Config
	ledgerRepo   portsrepo.LedgerRepositoryFacade
	poolRepo     portsrepo.PoolRepositoryFacade
	ruleRepo     portsrepo.TipOutRuleRepositoryFacade
	employeeRepo portsrepo.EmployeeRepositoryFacade
	shiftRepo    portsrepo.ShiftRepositoryFacade
}

// NewAttributionService creates a new AttributionService.
func NewAttributionService(
	cfg *config.Config,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	poolRepo portsrepo.PoolRepositoryFacade,
	ruleRepo portsrepo.TipOutRuleRepositoryFacade,
	employeeRepo portsrepo.EmployeeRepositoryFacade,
	shiftRepo portsrepo.ShiftRepositoryFacade,
) portssvc.AttributionSvcFacade {
	return &attributionService{
		cfg:          cfg,
		ledgerRepo:   ledgerRepo,
		poolRepo:     poolRepo,
		ruleRepo:     ruleRepo,
		employeeRepo: employeeRepo,
		shiftRepo:    shiftRepo,
	}
}

// Ensure attributionService implements the portssvc.AttributionSvcFacade interface
var _ portssvc.AttributionSvcFacade = (*attributionService)(nil)

// AttributeTip resolves the target, splits the amount and posts everything.
// Implements portssvc.AttributionSvcFacade
func (s *attributionService) AttributeTip(ctx context.Context, locationID string, req dto.AttributeTipRequest, actorUserID string) (*dto.TipAttributionResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: tip amount must be positive", apperrors.ErrValidation)
	}
	if (req.PoolID == nil) == (req.EmployeeID == nil) {
		return nil, ErrAmbiguousTarget
	}

	txn := domain.TipTransaction{
		TransactionID: uuid.NewString(),
		LocationID:    locationID,
		PaymentID:     req.PaymentID,
		AmountCents:   req.AmountCents,
		SalesCents:    req.SalesCents,
		Status:        domain.TipPosted,
		CollectedAt:   req.CollectedAt.UTC(),
	}

	var shares []tipShare
	var err error
	switch {
	case req.EmployeeID != nil && *req.EmployeeID == domain.HouseEmployeeID:
		txn.Target = domain.TargetHouse
		txn.EmployeeID = domain.HouseEmployeeID
		shares, err = s.resolveHouseShare(ctx, locationID, req.AmountCents)
	case req.EmployeeID != nil:
		txn.Target = domain.TargetEmployee
		txn.EmployeeID = *req.EmployeeID
		shares, err = s.resolveEmployeeShare(ctx, locationID, *req.EmployeeID, req.AmountCents)
	default:
		txn.Target = domain.TargetPool
		txn.PoolID = *req.PoolID
		var segmentID string
		shares, segmentID, err = s.resolvePoolShares(ctx, locationID, *req.PoolID, txn.CollectedAt, req.AmountCents)
		txn.SegmentID = segmentID
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn.AuditFields = domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actorUserID,
		LastUpdatedAt: now,
		LastUpdatedBy: actorUserID,
	}

	replayed := false
	err = s.ledgerRepo.RunInTx(ctx, func(tx portsrepo.LedgerTx) error {
		inserted, existing, err := tx.InsertTipTransaction(ctx, txn)
		if err != nil {
			return fmt.Errorf("failed to insert tip transaction: %w", err)
		}
		if !inserted {
			replayed = true
			txn = *existing
			return nil
		}

		// Lock accounts in a fixed global order so concurrent postings that
		// touch overlapping account sets cannot deadlock.
		ordered := make([]tipShare, len(shares))
		copy(ordered, shares)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].AccountID < ordered[j].AccountID })
		for _, share := range ordered {
			if _, err := tx.LockAccount(ctx, share.AccountID); err != nil {
				return fmt.Errorf("failed to lock account %s: %w", share.AccountID, err)
			}
		}
		for i := range shares {
			entry := domain.LedgerEntry{
				EntryID:        uuid.NewString(),
				AccountID:      shares[i].AccountID,
				AmountCents:    shares[i].Cents,
				Source:         domain.SourceTipTransaction,
				SourceID:       txn.TransactionID,
				IdempotencyKey: tipEntryKey(txn, shares[i]),
				Memo:           "tip attribution",
				CreatedAt:      now,
				CreatedBy:      actorUserID,
			}
			outcome, err := postEntryWithRecovery(ctx, tx, entry, now, actorUserID)
			if err != nil {
				return err
			}
			shares[i].EntryID = outcome.Entry.EntryID
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to attribute tip", slog.String("payment_id", req.PaymentID), slog.String("error", err.Error()))
		return nil, err
	}

	if replayed {
		shares, err = s.sharesFromEntries(ctx, txn.TransactionID)
		if err != nil {
			return nil, err
		}
		logger.Info("Tip attribution replayed", slog.String("payment_id", txn.PaymentID), slog.String("transaction_id", txn.TransactionID))
	} else {
		metrics.TipsAttributed.Inc()
		metrics.CentsPosted.Add(float64(txn.AmountCents))
		logger.Info("Tip attributed",
			slog.String("payment_id", txn.PaymentID),
			slog.String("transaction_id", txn.TransactionID),
			slog.String("target", string(txn.Target)),
			slog.Int64("amount_cents", txn.AmountCents),
			slog.Int("share_count", len(shares)))
	}

	// Tip-out rules run after the credits, outside their transaction. Each
	// rule posts under deterministic keys, so a replay after partial failure
	// finishes whatever is missing and re-posts nothing.
	if txn.Target != domain.TargetHouse {
		if err := s.applyTipOutRules(ctx, &txn, shares, actorUserID); err != nil {
			return nil, err
		}
	}

	resp := &dto.TipAttributionResponse{
		TransactionID: txn.TransactionID,
		PaymentID:     txn.PaymentID,
		AmountCents:   txn.AmountCents,
		Target:        txn.Target,
		PoolID:        txn.PoolID,
		SegmentID:     txn.SegmentID,
		Replayed:      replayed,
	}
	for _, share := range shares {
		resp.Shares = append(resp.Shares, dto.TipShareResponse{
			EmployeeID:  share.EmployeeID,
			AccountID:   share.AccountID,
			AmountCents: share.Cents,
			EntryID:     share.EntryID,
		})
	}
	if txn.Target != domain.TargetHouse {
		resp.TipOuts, err = s.collectTipOutResults(ctx, txn.TransactionID)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// tipEntryKey derives the idempotency key for one attribution credit. House
// shares key on the account id because the house sentinel is not globally
// unique across locations.
func tipEntryKey(txn domain.TipTransaction, share tipShare) string {
	if share.EmployeeID == domain.HouseEmployeeID {
		return "tip:" + txn.PaymentID + ":" + share.AccountID
	}
	return "tip:" + txn.PaymentID + ":" + share.EmployeeID
}

func (s *attributionService) resolveEmployeeShare(ctx context.Context, locationID string, employeeID string, amountCents int64) ([]tipShare, error) {
	employee, err := s.employeeRepo.FindEmployeeByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	if employee.LocationID != locationID || !employee.IsActive {
		return nil, fmt.Errorf("%w: employee %s is not active at location %s", apperrors.ErrValidation, employeeID, locationID)
	}
	account, err := s.ledgerRepo.FindAccountByEmployee(ctx, locationID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee account: %w", err)
	}
	return []tipShare{{EmployeeID: employeeID, AccountID: account.AccountID, Cents: amountCents}}, nil
}

func (s *attributionService) resolveHouseShare(ctx context.Context, locationID string, amountCents int64) ([]tipShare, error) {
	account, err := s.ledgerRepo.FindHouseAccount(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find house account: %w", err)
	}
	return []tipShare{{EmployeeID: domain.HouseEmployeeID, AccountID: account.AccountID, Cents: amountCents}}, nil
}

func (s *attributionService) resolvePoolShares(ctx context.Context, locationID string, poolID string, collectedAt time.Time, amountCents int64) ([]tipShare, string, error) {
	pool, err := s.poolRepo.FindPoolByID(ctx, poolID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find pool: %w", err)
	}
	if pool.LocationID != locationID {
		return nil, "", fmt.Errorf("%w: pool %s not found at location %s", apperrors.ErrNotFound, poolID, locationID)
	}

	segment, err := s.poolRepo.FindSegmentAt(ctx, poolID, collectedAt)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: pool %s at %s", ErrSegmentNotFound, poolID, collectedAt.Format(time.RFC3339))
		}
		return nil, "", fmt.Errorf("failed to resolve segment: %w", err)
	}
	if len(segment.Members) == 0 {
		if !s.cfg.HouseFallbackOnEmptyPool {
			return nil, "", fmt.Errorf("%w: segment %s", ErrEmptyPool, segment.SegmentID)
		}
		// Empty segments route the full tip to the house so the money is
		// never dropped. Managers can adjust it out later.
		shares, err := s.resolveHouseShare(ctx, locationID, amountCents)
		if err != nil {
			return nil, "", err
		}
		return shares, segment.SegmentID, nil
	}

	// Frozen members are stored sorted by employee id; the same order decides
	// who receives the remainder cents.
	portions := make([]split.Portion, 0, len(segment.Members))
	for _, m := range segment.Members {
		portions = append(portions, split.Portion{Key: m.EmployeeID, Ratio: m.Ratio})
	}
	sort.Slice(portions, func(i, j int) bool { return portions[i].Key < portions[j].Key })
	amounts, err := split.Allocate(amountCents, portions)
	if err != nil {
		return nil, "", fmt.Errorf("failed to split tip: %w", err)
	}

	shares := make([]tipShare, 0, len(portions))
	for i, p := range portions {
		account, err := s.ledgerRepo.FindAccountByEmployee(ctx, locationID, p.Key)
		if err != nil {
			return nil, "", fmt.Errorf("failed to find account for employee %s: %w", p.Key, err)
		}
		shares = append(shares, tipShare{EmployeeID: p.Key, AccountID: account.AccountID, Cents: amounts[i]})
	}
	return shares, segment.SegmentID, nil
}

// sharesFromEntries rebuilds the share list of an already-posted transaction
// from its credit entries, for replay responses.
func (s *attributionService) sharesFromEntries(ctx context.Context, transactionID string) ([]tipShare, error) {
	entries, err := s.ledgerRepo.FindEntriesBySource(ctx, domain.SourceTipTransaction, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction entries: %w", err)
	}
	shares := make([]tipShare, 0, len(entries))
	for _, e := range entries {
		account, err := s.ledgerRepo.FindAccountByID(ctx, e.AccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to find account %s: %w", e.AccountID, err)
		}
		employeeID := account.EmployeeID
		if account.Kind == domain.AccountHouse {
			employeeID = domain.HouseEmployeeID
		}
		shares = append(shares, tipShare{
			EmployeeID: employeeID,
			AccountID:  e.AccountID,
			Cents:      e.AmountCents,
			EntryID:    e.EntryID,
		})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].EmployeeID < shares[j].EmployeeID })
	return shares, nil
}

// applyTipOutRules evaluates every active rule against every credited
// employee. On-duty recipients are paid through the ledger immediately;
// when nobody of the target role is on duty the amounts become pending
// banked shares and the earner is still debited.
func (s *attributionService) applyTipOutRules(ctx context.Context, txn *domain.TipTransaction, shares []tipShare, actorUserID string) error {
	rules, err := s.ruleRepo.ListRulesByLocation(ctx, txn.LocationID, true)
	if err != nil {
		return fmt.Errorf("failed to list tip-out rules: %w", err)
	}
	if len(rules) == 0 {
		return nil
	}

	employeeIDs := make([]string, 0, len(shares))
	for _, share := range shares {
		employeeIDs = append(employeeIDs, share.EmployeeID)
	}
	employees, err := s.employeeRepo.FindEmployeesByIDs(ctx, employeeIDs)
	if err != nil {
		return fmt.Errorf("failed to load credited employees: %w", err)
	}

	for _, share := range shares {
		earner, ok := employees[share.EmployeeID]
		if !ok {
			continue
		}
		earnerShift, err := s.shiftRepo.FindOpenShiftByEmployee(ctx, txn.LocationID, share.EmployeeID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("failed to find earner shift: %w", err)
		}
		for _, rule := range rules {
			if rule.FromRole != earner.Role {
				continue
			}
			amount := tipOutAmount(rule, share.Cents, txn.SalesCents)
			if amount <= 0 {
				continue
			}
			if err := s.applyOneTipOut(ctx, txn, rule, share, earnerShift, amount, actorUserID); err != nil {
				return err
			}
		}
	}
	return nil
}

// tipOutAmount computes a rule's transfer in cents: basis points of the
// basis amount, floored, capped by the rule's ceiling share of the tip.
func tipOutAmount(rule domain.TipOutRule, shareCents int64, salesCents int64) int64 {
	basis := shareCents
	if rule.Basis == domain.BasisSales {
		basis = salesCents
	}
	amount := split.Percent(basis, rule.BasisPoints)
	if rule.MaxBasisPoints > 0 {
		if cap := split.Percent(shareCents, rule.MaxBasisPoints); amount > cap {
			amount = cap
		}
	}
	return amount
}

func (s *attributionService) applyOneTipOut(ctx context.Context, txn *domain.TipTransaction, rule domain.TipOutRule, share tipShare, earnerShift *domain.Shift, amount int64, actorUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	recipients, err := s.resolveRecipients(ctx, txn.LocationID, rule.ToRole, share.EmployeeID, earnerShift)
	if err != nil {
		return err
	}

	debitKey := "tipout:" + txn.PaymentID + ":" + rule.RuleID + ":" + share.EmployeeID
	now := time.Now().UTC()

	if len(recipients.onDuty) > 0 {
		err = s.postTipOutTransfer(ctx, txn, rule, share, recipients.onDuty, amount, debitKey, now, actorUserID)
	} else if len(recipients.offDuty) > 0 {
		err = s.bankTipOut(ctx, txn, rule, share, recipients.offDuty, amount, debitKey, now, actorUserID)
	} else {
		// Nobody holds the receiving role at this location; the rule does
		// not fire and the earner keeps the amount.
		return nil
	}
	if errors.Is(err, errRuleApplied) {
		logger.Info("Tip-out already applied", slog.String("idempotency_key", debitKey))
		return nil
	}
	return err
}

// ruleRecipients is the resolved receiving side of one tip-out rule.
type ruleRecipients struct {
	onDuty  []string // employee ids, ascending
	offDuty []string // employee ids, ascending; used only when nobody is on duty
}

// resolveRecipients picks who receives a tip-out. On-duty employees of the
// role win; when the earner's shift names a section and some of them share
// it, the section narrows the set. With nobody on duty the active employees
// of the role become banked-share owners instead.
func (s *attributionService) resolveRecipients(ctx context.Context, locationID string, toRole domain.Role, earnerID string, earnerShift *domain.Shift) (*ruleRecipients, error) {
	shifts, err := s.shiftRepo.ListOpenShiftsByRole(ctx, locationID, toRole)
	if err != nil {
		return nil, fmt.Errorf("failed to list open shifts: %w", err)
	}

	var onDuty, sectionMatched []string
	for _, shift := range shifts {
		if shift.EmployeeID == earnerID {
			continue
		}
		onDuty = append(onDuty, shift.EmployeeID)
		if earnerShift != nil && earnerShift.Section != "" && shift.Section == earnerShift.Section {
			sectionMatched = append(sectionMatched, shift.EmployeeID)
		}
	}
	if len(sectionMatched) > 0 {
		onDuty = sectionMatched
	}
	sort.Strings(onDuty)
	if len(onDuty) > 0 {
		return &ruleRecipients{onDuty: onDuty}, nil
	}

	candidates, err := s.employeeRepo.ListEmployeesByLocation(ctx, locationID, 500, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	var offDuty []string
	for _, e := range candidates {
		if e.Role == toRole && e.IsActive && e.EmployeeID != earnerID {
			offDuty = append(offDuty, e.EmployeeID)
		}
	}
	sort.Strings(offDuty)
	return &ruleRecipients{offDuty: offDuty}, nil
}

// postTipOutTransfer debits the earner and credits each on-duty recipient in
// one transaction. A replayed debit key means the rule already ran.
func (s *attributionService) postTipOutTransfer(ctx context.Context, txn *domain.TipTransaction, rule domain.TipOutRule, share tipShare, recipients []string, amount int64, debitKey string, now time.Time, actorUserID string) error {
	cuts, err := split.Equal(amount, len(recipients))
	if err != nil {
		return fmt.Errorf("failed to split tip-out: %w", err)
	}

	type credit struct {
		employeeID string
		accountID  string
		cents      int64
	}
	credits := make([]credit, 0, len(recipients))
	lockIDs := []string{share.AccountID}
	for i, employeeID := range recipients {
		if cuts[i] == 0 {
			continue
		}
		account, err := s.ledgerRepo.FindAccountByEmployee(ctx, txn.LocationID, employeeID)
		if err != nil {
			return fmt.Errorf("failed to find recipient account: %w", err)
		}
		credits = append(credits, credit{employeeID: employeeID, accountID: account.AccountID, cents: cuts[i]})
		lockIDs = append(lockIDs, account.AccountID)
	}
	sort.Strings(lockIDs)

	return s.ledgerRepo.RunInTx(ctx, func(tx portsrepo.LedgerTx) error {
		for _, id := range lockIDs {
			if _, err := tx.LockAccount(ctx, id); err != nil {
				return fmt.Errorf("failed to lock account %s: %w", id, err)
			}
		}

		debit := domain.LedgerEntry{
			EntryID:        uuid.NewString(),
			AccountID:      share.AccountID,
			AmountCents:    -amount,
			Source:         domain.SourceTipOut,
			SourceID:       txn.TransactionID,
			IdempotencyKey: debitKey,
			Memo:           "tip-out to " + string(rule.ToRole),
			CreatedAt:      now,
			CreatedBy:      actorUserID,
		}
		outcome, err := postEntryWithRecovery(ctx, tx, debit, now, actorUserID)
		if err != nil {
			return err
		}
		if outcome.Replayed {
			return errRuleApplied
		}

		for _, c := range credits {
			entry := domain.LedgerEntry{
				EntryID:        uuid.NewString(),
				AccountID:      c.accountID,
				AmountCents:    c.cents,
				Source:         domain.SourceTipOut,
				SourceID:       txn.TransactionID,
				IdempotencyKey: debitKey + ":" + c.employeeID,
				Memo:           "tip-out from " + string(rule.FromRole),
				CreatedAt:      now,
				CreatedBy:      actorUserID,
			}
			if _, err := postEntryWithRecovery(ctx, tx, entry, now, actorUserID); err != nil {
				return err
			}
		}
		return nil
	})
}

// bankTipOut debits the earner and opens one pending banked share per
// receiving employee, atomically.
func (s *attributionService) bankTipOut(ctx context.Context, txn *domain.TipTransaction, rule domain.TipOutRule, share tipShare, owners []string, amount int64, debitKey string, now time.Time, actorUserID string) error {
	cuts, err := split.Equal(amount, len(owners))
	if err != nil {
		return fmt.Errorf("failed to split tip-out: %w", err)
	}

	var banked int
	err = s.ledgerRepo.RunInTx(ctx, func(tx portsrepo.LedgerTx) error {
		if _, err := tx.LockAccount(ctx, share.AccountID); err != nil {
			return fmt.Errorf("failed to lock account %s: %w", share.AccountID, err)
		}

		debit := domain.LedgerEntry{
			EntryID:        uuid.NewString(),
			AccountID:      share.AccountID,
			AmountCents:    -amount,
			Source:         domain.SourceTipOut,
			SourceID:       txn.TransactionID,
			IdempotencyKey: debitKey,
			Memo:           "tip-out to " + string(rule.ToRole) + " (banked)",
			CreatedAt:      now,
			CreatedBy:      actorUserID,
		}
		outcome, err := postEntryWithRecovery(ctx, tx, debit, now, actorUserID)
		if err != nil {
			return err
		}
		if outcome.Replayed {
			return errRuleApplied
		}

		for i, employeeID := range owners {
			if cuts[i] == 0 {
				continue
			}
			bankedShare := domain.BankedShare{
				ShareID:        uuid.NewString(),
				LocationID:     txn.LocationID,
				EmployeeID:     employeeID,
				AmountCents:    cuts[i],
				Source:         domain.SourceTipOut,
				SourceID:       txn.TransactionID,
				IdempotencyKey: debitKey + ":" + employeeID,
				Status:         domain.SharePending,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     actorUserID,
					LastUpdatedAt: now,
					LastUpdatedBy: actorUserID,
				},
			}
			inserted, _, err := tx.InsertBankedShare(ctx, bankedShare)
			if err != nil {
				return fmt.Errorf("failed to insert banked share: %w", err)
			}
			if inserted {
				banked++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	metrics.BankedSharesCreated.Add(float64(banked))
	return nil
}

// collectTipOutResults rebuilds the transfer list for a transaction from the
// posted entries and banked shares, so responses look identical on replays.
func (s *attributionService) collectTipOutResults(ctx context.Context, transactionID string) ([]dto.TipOutTransferResponse, error) {
	var out []dto.TipOutTransferResponse

	entries, err := s.ledgerRepo.FindEntriesBySource(ctx, domain.SourceTipOut, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tip-out entries: %w", err)
	}
	for _, e := range entries {
		if e.AmountCents <= 0 {
			continue // Debit legs are implied by the credit legs
		}
		// Credit keys look like tipout:{payment}:{rule}:{from}:{to}.
		parts := strings.Split(e.IdempotencyKey, ":")
		if len(parts) != 5 {
			continue
		}
		out = append(out, dto.TipOutTransferResponse{
			RuleID:         parts[2],
			FromEmployeeID: parts[3],
			ToEmployeeID:   parts[4],
			AmountCents:    e.AmountCents,
		})
	}

	shares, err := s.ledgerRepo.ListBankedSharesBySource(ctx, domain.SourceTipOut, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load banked shares: %w", err)
	}
	for _, share := range shares {
		parts := strings.Split(share.IdempotencyKey, ":")
		if len(parts) != 5 {
			continue
		}
		out = append(out, dto.TipOutTransferResponse{
			RuleID:         parts[2],
			FromEmployeeID: parts[3],
			ToEmployeeID:   share.EmployeeID,
			AmountCents:    share.AmountCents,
			Banked:         true,
			BankedShareID:  share.ShareID,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RuleID != out[j].RuleID {
			return out[i].RuleID < out[j].RuleID
		}
		if out[i].FromEmployeeID != out[j].FromEmployeeID {
			return out[i].FromEmployeeID < out[j].FromEmployeeID
		}
		return out[i].ToEmployeeID < out[j].ToEmployeeID
	})
	return out, nil
}
