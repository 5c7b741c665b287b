package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	"github.com/stackpos/tipengine/internal/utils/pagination"
)

// SaveAccount persists a new ledger account.
func (s *Store) SaveAccount(_ context.Context, account domain.LedgerAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.LocationID == account.LocationID && existing.EmployeeID == account.EmployeeID {
			return fmt.Errorf("account for employee %s at location %s: %w", account.EmployeeID, account.LocationID, apperrors.ErrDuplicate)
		}
	}
	s.accounts[account.AccountID] = account
	return nil
}

// FindAccountByID retrieves an account by its unique identifier.
func (s *Store) FindAccountByID(_ context.Context, accountID string) (*domain.LedgerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountByIDLocked(accountID)
}

// FindAccountByEmployee retrieves an employee's tip account at a location.
func (s *Store) FindAccountByEmployee(_ context.Context, locationID string, employeeID string) (*domain.LedgerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.LocationID == locationID && account.EmployeeID == employeeID && account.Kind == domain.AccountEmployee {
			found := account
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// FindHouseAccount retrieves the location's house account.
func (s *Store) FindHouseAccount(_ context.Context, locationID string) (*domain.LedgerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.LocationID == locationID && account.Kind == domain.AccountHouse {
			found := account
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// FindEntryByID retrieves a single ledger entry.
func (s *Store) FindEntryByID(_ context.Context, entryID string) (*domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[entryID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &entry, nil
}

// FindEntryByKey retrieves the entry that claimed an idempotency key.
func (s *Store) FindEntryByKey(_ context.Context, idempotencyKey string) (*domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entryID, ok := s.entryByKey[idempotencyKey]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	entry := s.entries[entryID]
	return &entry, nil
}

// FindEntriesBySource retrieves every entry posted for one source record.
func (s *Store) FindEntriesBySource(_ context.Context, source domain.EntrySource, sourceID string) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []domain.LedgerEntry{}
	for _, entry := range s.entries {
		if entry.Source == source && entry.SourceID == sourceID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].EntryID < entries[j].EntryID
	})
	return entries, nil
}

// ListEntriesByAccount retrieves a page of an account's entries, newest
// first, bounded by the optional time window.
func (s *Store) ListEntriesByAccount(_ context.Context, accountID string, from *time.Time, to *time.Time, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []domain.LedgerEntry{}
	for _, entry := range s.entries {
		if entry.AccountID != accountID {
			continue
		}
		if from != nil && entry.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && !entry.CreatedAt.Before(*to) {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].EntryID > entries[j].EntryID
	})

	if nextToken != nil && *nextToken != "" {
		afterTime, afterID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		cut := sort.Search(len(entries), func(i int) bool {
			if !entries[i].CreatedAt.Equal(afterTime) {
				return entries[i].CreatedAt.Before(afterTime)
			}
			return entries[i].EntryID < afterID
		})
		entries = entries[cut:]
	}

	if len(entries) <= limit {
		return entries, nil, nil
	}
	page := entries[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(last.CreatedAt, last.EntryID)
	return page, &token, nil
}

// SumEntriesByAccount recomputes an account balance from its entries.
func (s *Store) SumEntriesByAccount(_ context.Context, accountID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum int64
	for _, entry := range s.entries {
		if entry.AccountID == accountID {
			sum += entry.AmountCents
		}
	}
	return sum, nil
}

// FindTipTransactionByID retrieves a tip transaction.
func (s *Store) FindTipTransactionByID(_ context.Context, transactionID string) (*domain.TipTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.transactions[transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &txn, nil
}

// FindTipTransactionByPayment retrieves the tip transaction recorded for a
// payment at a location.
func (s *Store) FindTipTransactionByPayment(_ context.Context, locationID string, paymentID string) (*domain.TipTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txnID, ok := s.txnByPayment[paymentKey{LocationID: locationID, PaymentID: paymentID}]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	txn := s.transactions[txnID]
	return &txn, nil
}

// FindDebtByID retrieves a single debt.
func (s *Store) FindDebtByID(_ context.Context, debtID string) (*domain.TipDebt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	debt, ok := s.debts[debtID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &debt, nil
}

// ListDebtsByEmployee retrieves an employee's debts at a location, oldest
// first, optionally filtered by status. Debts are scoped to the location
// through the debtor account, as in the pgsql join.
func (s *Store) ListDebtsByEmployee(_ context.Context, locationID string, employeeID string, status *domain.DebtStatus) ([]domain.TipDebt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	debts := []domain.TipDebt{}
	for _, debt := range s.debts {
		if debt.EmployeeID != employeeID {
			continue
		}
		if account, ok := s.accounts[debt.AccountID]; !ok || account.LocationID != locationID {
			continue
		}
		if status != nil && debt.Status != *status {
			continue
		}
		debts = append(debts, debt)
	}
	sortDebtsOldestFirst(debts)
	return debts, nil
}

// ListDebtsByTransaction retrieves the debts raised by one transaction's
// chargeback, ordered by employee id.
func (s *Store) ListDebtsByTransaction(_ context.Context, transactionID string) ([]domain.TipDebt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	debts := []domain.TipDebt{}
	for _, debt := range s.debts {
		if debt.TransactionID == transactionID {
			debts = append(debts, debt)
		}
	}
	sort.Slice(debts, func(i, j int) bool { return debts[i].EmployeeID < debts[j].EmployeeID })
	return debts, nil
}

// FindBankedShareByID retrieves a single banked share.
func (s *Store) FindBankedShareByID(_ context.Context, shareID string) (*domain.BankedShare, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	share, ok := s.shares[shareID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &share, nil
}

// ListBankedShares retrieves a location's banked shares newest first,
// optionally scoped to one employee and status.
func (s *Store) ListBankedShares(_ context.Context, locationID string, employeeID string, status *domain.BankedShareStatus) ([]domain.BankedShare, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shares := []domain.BankedShare{}
	for _, share := range s.shares {
		if share.LocationID != locationID {
			continue
		}
		if employeeID != "" && share.EmployeeID != employeeID {
			continue
		}
		if status != nil && share.Status != *status {
			continue
		}
		shares = append(shares, share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if !shares[i].CreatedAt.Equal(shares[j].CreatedAt) {
			return shares[i].CreatedAt.After(shares[j].CreatedAt)
		}
		return shares[i].ShareID > shares[j].ShareID
	})
	return shares, nil
}

// ListBankedSharesBySource retrieves the banked shares opened by one
// originating record.
func (s *Store) ListBankedSharesBySource(_ context.Context, source domain.EntrySource, sourceID string) ([]domain.BankedShare, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shares := []domain.BankedShare{}
	for _, share := range s.shares {
		if share.Source == source && share.SourceID == sourceID {
			shares = append(shares, share)
		}
	}
	sort.Slice(shares, func(i, j int) bool {
		if !shares[i].CreatedAt.Equal(shares[j].CreatedAt) {
			return shares[i].CreatedAt.Before(shares[j].CreatedAt)
		}
		return shares[i].ShareID < shares[j].ShareID
	})
	return shares, nil
}

// ledgerStore pairs the shared store with the ledger flavor of RunInTx. The
// ledger and pool writers both expose a RunInTx with their own tx view, so
// each gets a thin wrapper type over the one Store.
type ledgerStore struct {
	*Store
}

// RunInTx executes fn as one atomic posting unit. The write lock serializes
// units, so the Lock* methods on the tx view are plain loads; rollback is a
// snapshot restore of the ledger tables.
func (s *ledgerStore) RunInTx(_ context.Context, fn func(tx portsrepo.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.ledgerSnapshot()
	if err := fn(&memLedgerTx{store: s.Store}); err != nil {
		s.restoreLedger(snap)
		return err
	}
	return nil
}

type ledgerSnapshot struct {
	accounts     map[string]domain.LedgerAccount
	entries      map[string]domain.LedgerEntry
	entryByKey   map[string]string
	transactions map[string]domain.TipTransaction
	txnByPayment map[paymentKey]string
	debts        map[string]domain.TipDebt
	shares       map[string]domain.BankedShare
	shareByKey   map[string]string
}

func (s *Store) ledgerSnapshot() ledgerSnapshot {
	return ledgerSnapshot{
		accounts:     cloneMap(s.accounts),
		entries:      cloneMap(s.entries),
		entryByKey:   cloneMap(s.entryByKey),
		transactions: cloneMap(s.transactions),
		txnByPayment: cloneMap(s.txnByPayment),
		debts:        cloneMap(s.debts),
		shares:       cloneMap(s.shares),
		shareByKey:   cloneMap(s.shareByKey),
	}
}

func (s *Store) restoreLedger(snap ledgerSnapshot) {
	s.accounts = snap.accounts
	s.entries = snap.entries
	s.entryByKey = snap.entryByKey
	s.transactions = snap.transactions
	s.txnByPayment = snap.txnByPayment
	s.debts = snap.debts
	s.shares = snap.shares
	s.shareByKey = snap.shareByKey
}

func (s *Store) accountByIDLocked(accountID string) (*domain.LedgerAccount, error) {
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &account, nil
}

func sortDebtsOldestFirst(debts []domain.TipDebt) {
	sort.Slice(debts, func(i, j int) bool {
		if !debts[i].CreatedAt.Equal(debts[j].CreatedAt) {
			return debts[i].CreatedAt.Before(debts[j].CreatedAt)
		}
		return debts[i].DebtID < debts[j].DebtID
	})
}

// memLedgerTx operates directly on the store maps; the caller already holds
// the write lock for the duration of the unit.
type memLedgerTx struct {
	store *Store
}

// InsertEntry appends an immutable ledger entry, returning the prior claimant
// of the idempotency key when there is one.
func (t *memLedgerTx) InsertEntry(_ context.Context, entry domain.LedgerEntry) (bool, *domain.LedgerEntry, error) {
	if entryID, ok := t.store.entryByKey[entry.IdempotencyKey]; ok {
		existing := t.store.entries[entryID]
		return false, &existing, nil
	}
	t.store.entries[entry.EntryID] = entry
	t.store.entryByKey[entry.IdempotencyKey] = entry.EntryID
	return true, nil, nil
}

// LockAccount loads an account for the remainder of the unit.
func (t *memLedgerTx) LockAccount(_ context.Context, accountID string) (*domain.LedgerAccount, error) {
	return t.store.accountByIDLocked(accountID)
}

// ApplyBalanceDelta adjusts an account's cached balance.
func (t *memLedgerTx) ApplyBalanceDelta(_ context.Context, accountID string, deltaCents int64, userID string, now time.Time) error {
	account, ok := t.store.accounts[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	account.BalanceCents += deltaCents
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID
	t.store.accounts[accountID] = account
	return nil
}

// InsertTipTransaction records an attributed tip, returning the transaction
// already recorded for the payment when there is one.
func (t *memLedgerTx) InsertTipTransaction(_ context.Context, txn domain.TipTransaction) (bool, *domain.TipTransaction, error) {
	key := paymentKey{LocationID: txn.LocationID, PaymentID: txn.PaymentID}
	if txnID, ok := t.store.txnByPayment[key]; ok {
		existing := t.store.transactions[txnID]
		return false, &existing, nil
	}
	t.store.transactions[txn.TransactionID] = txn
	t.store.txnByPayment[key] = txn.TransactionID
	return true, nil, nil
}

// UpdateTipTransactionStatus flips a tip transaction's lifecycle status.
func (t *memLedgerTx) UpdateTipTransactionStatus(_ context.Context, transactionID string, status domain.TipTransactionStatus, reversedAt *time.Time, userID string, now time.Time) error {
	txn, ok := t.store.transactions[transactionID]
	if !ok {
		return apperrors.ErrNotFound
	}
	txn.Status = status
	txn.ReversedAt = reversedAt
	txn.LastUpdatedAt = now
	txn.LastUpdatedBy = userID
	t.store.transactions[transactionID] = txn
	return nil
}

// InsertDebt records a new chargeback debt.
func (t *memLedgerTx) InsertDebt(_ context.Context, debt domain.TipDebt) error {
	t.store.debts[debt.DebtID] = debt
	return nil
}

// LockOpenDebtsByAccount loads an account's OPEN debts oldest first.
func (t *memLedgerTx) LockOpenDebtsByAccount(_ context.Context, accountID string) ([]domain.TipDebt, error) {
	debts := []domain.TipDebt{}
	for _, debt := range t.store.debts {
		if debt.AccountID == accountID && debt.Status == domain.DebtOpen {
			debts = append(debts, debt)
		}
	}
	sortDebtsOldestFirst(debts)
	return debts, nil
}

// LockDebt loads one debt by id.
func (t *memLedgerTx) LockDebt(_ context.Context, debtID string) (*domain.TipDebt, error) {
	debt, ok := t.store.debts[debtID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &debt, nil
}

// UpdateDebt persists a debt's remaining amount and status.
func (t *memLedgerTx) UpdateDebt(_ context.Context, debt domain.TipDebt) error {
	cur, ok := t.store.debts[debt.DebtID]
	if !ok {
		return apperrors.ErrNotFound
	}
	cur.RemainingCents = debt.RemainingCents
	cur.Status = debt.Status
	cur.WriteOffReason = debt.WriteOffReason
	cur.ResolvedAt = debt.ResolvedAt
	cur.LastUpdatedAt = debt.LastUpdatedAt
	cur.LastUpdatedBy = debt.LastUpdatedBy
	t.store.debts[debt.DebtID] = cur
	return nil
}

// InsertBankedShare records a share held back for an off-duty employee,
// returning the prior claimant of the idempotency key when there is one.
func (t *memLedgerTx) InsertBankedShare(_ context.Context, share domain.BankedShare) (bool, *domain.BankedShare, error) {
	if shareID, ok := t.store.shareByKey[share.IdempotencyKey]; ok {
		existing := t.store.shares[shareID]
		return false, &existing, nil
	}
	t.store.shares[share.ShareID] = share
	t.store.shareByKey[share.IdempotencyKey] = share.ShareID
	return true, nil, nil
}

// LockBankedShare loads one banked share by id.
func (t *memLedgerTx) LockBankedShare(_ context.Context, shareID string) (*domain.BankedShare, error) {
	share, ok := t.store.shares[shareID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &share, nil
}

// UpdateBankedShare persists a banked share's status and resolution.
func (t *memLedgerTx) UpdateBankedShare(_ context.Context, share domain.BankedShare) error {
	cur, ok := t.store.shares[share.ShareID]
	if !ok {
		return apperrors.ErrNotFound
	}
	cur.Status = share.Status
	cur.EntryID = share.EntryID
	cur.PayrollRef = share.PayrollRef
	cur.ResolvedAt = share.ResolvedAt
	cur.LastUpdatedAt = share.LastUpdatedAt
	cur.LastUpdatedBy = share.LastUpdatedBy
	t.store.shares[share.ShareID] = cur
	return nil
}
