package repositories

import (
	"context"
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// LedgerTx is the transaction-bound view of the ledger store. Every method
// invoked on one LedgerTx commits or rolls back as a single atomic unit, and
// rows returned by the Lock* methods stay locked until that unit finishes.
type LedgerTx interface {
	// InsertEntry appends an immutable ledger entry. When the idempotency key
	// was already used it returns inserted=false together with the entry that
	// claimed the key, and writes nothing.
	InsertEntry(ctx context.Context, entry domain.LedgerEntry) (inserted bool, existing *domain.LedgerEntry, err error)

	// LockAccount loads an account and locks it for the remainder of the
	// transaction.
	LockAccount(ctx context.Context, accountID string) (*domain.LedgerAccount, error)

	// ApplyBalanceDelta adjusts a locked account's cached balance.
	ApplyBalanceDelta(ctx context.Context, accountID string, deltaCents int64, userID string, now time.Time) error

	// InsertTipTransaction records an attributed tip. When the payment was
	// already recorded at the location it returns inserted=false together
	// with the existing transaction.
	InsertTipTransaction(ctx context.Context, txn domain.TipTransaction) (inserted bool, existing *domain.TipTransaction, err error)

	// UpdateTipTransactionStatus flips a tip transaction's lifecycle status.
	UpdateTipTransactionStatus(ctx context.Context, transactionID string, status domain.TipTransactionStatus, reversedAt *time.Time, userID string, now time.Time) error

	// InsertDebt records a new chargeback debt.
	InsertDebt(ctx context.Context, debt domain.TipDebt) error

	// LockOpenDebtsByAccount loads an account's OPEN debts oldest first and
	// locks them for the remainder of the transaction.
	LockOpenDebtsByAccount(ctx context.Context, accountID string) ([]domain.TipDebt, error)

	// LockDebt loads one debt by id and locks it.
	LockDebt(ctx context.Context, debtID string) (*domain.TipDebt, error)

	// UpdateDebt persists a debt's remaining amount and status.
	UpdateDebt(ctx context.Context, debt domain.TipDebt) error

	// InsertBankedShare records a share held back for an off-duty employee.
	// When the share's idempotency key was already used it returns
	// inserted=false together with the existing share.
	InsertBankedShare(ctx context.Context, share domain.BankedShare) (inserted bool, existing *domain.BankedShare, err error)

	// LockBankedShare loads one banked share by id and locks it.
	LockBankedShare(ctx context.Context, shareID string) (*domain.BankedShare, error)

	// UpdateBankedShare persists a banked share's status and resolution.
	UpdateBankedShare(ctx context.Context, share domain.BankedShare) error
}

// LedgerReader defines read operations for ledger data.
type LedgerReader interface {
	// FindAccountByID retrieves an account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.LedgerAccount, error)

	// FindAccountByEmployee retrieves an employee's tip account at a location.
	FindAccountByEmployee(ctx context.Context, locationID string, employeeID string) (*domain.LedgerAccount, error)

	// FindHouseAccount retrieves the location's house account.
	FindHouseAccount(ctx context.Context, locationID string) (*domain.LedgerAccount, error)

	// FindEntryByID retrieves a single ledger entry.
	FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// FindEntryByKey retrieves the entry that claimed an idempotency key.
	FindEntryByKey(ctx context.Context, idempotencyKey string) (*domain.LedgerEntry, error)

	// FindEntriesBySource retrieves every entry posted for one source record.
	FindEntriesBySource(ctx context.Context, source domain.EntrySource, sourceID string) ([]domain.LedgerEntry, error)

	// ListEntriesByAccount retrieves a page of an account's entries, newest
	// first, bounded by the optional time window.
	ListEntriesByAccount(ctx context.Context, accountID string, from *time.Time, to *time.Time, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// SumEntriesByAccount recomputes an account balance from its entries.
	SumEntriesByAccount(ctx context.Context, accountID string) (int64, error)

	// FindTipTransactionByID retrieves a tip transaction.
	FindTipTransactionByID(ctx context.Context, transactionID string) (*domain.TipTransaction, error)

	// FindTipTransactionByPayment retrieves the tip transaction recorded for
	// a payment at a location.
	FindTipTransactionByPayment(ctx context.Context, locationID string, paymentID string) (*domain.TipTransaction, error)
}

// LedgerWriter defines write operations for ledger data.
type LedgerWriter interface {
	// SaveAccount persists a new ledger account.
	SaveAccount(ctx context.Context, account domain.LedgerAccount) error

	// RunInTx executes fn inside one atomic posting unit. The unit is retried
	// on serialization failures; fn must be safe to re-run.
	RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// DebtReader defines read operations for chargeback debts.
type DebtReader interface {
	// FindDebtByID retrieves a single debt.
	FindDebtByID(ctx context.Context, debtID string) (*domain.TipDebt, error)

	// ListDebtsByEmployee retrieves an employee's debts at a location, oldest
	// first, optionally filtered by status.
	ListDebtsByEmployee(ctx context.Context, locationID string, employeeID string, status *domain.DebtStatus) ([]domain.TipDebt, error)

	// ListDebtsByTransaction retrieves the debts raised by one transaction's
	// chargeback, ordered by employee id.
	ListDebtsByTransaction(ctx context.Context, transactionID string) ([]domain.TipDebt, error)
}

// BankReader defines read operations for banked shares.
type BankReader interface {
	// FindBankedShareByID retrieves a single banked share.
	FindBankedShareByID(ctx context.Context, shareID string) (*domain.BankedShare, error)

	// ListBankedShares retrieves a location's banked shares newest first,
	// optionally scoped to one employee and status.
	ListBankedShares(ctx context.Context, locationID string, employeeID string, status *domain.BankedShareStatus) ([]domain.BankedShare, error)

	// ListBankedSharesBySource retrieves the banked shares opened by one
	// originating record.
	ListBankedSharesBySource(ctx context.Context, source domain.EntrySource, sourceID string) ([]domain.BankedShare, error)
}

// LedgerRepositoryFacade combines every ledger-related repository interface.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
	DebtReader
	BankReader
}
