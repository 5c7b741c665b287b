package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	"github.com/stackpos/tipengine/internal/models"
	"github.com/stackpos/tipengine/internal/utils/mapping"
	"github.com/stackpos/tipengine/internal/utils/pagination"
)

// Shared column lists so SELECTs and scans can never drift apart.
const (
	selectAccountFields = `
		account_id, location_id, employee_id, kind, balance_cents,
		created_at, created_by, last_updated_at, last_updated_by
	`

	selectEntryFields = `
		entry_id, account_id, amount_cents, source, source_id,
		idempotency_key, memo, created_at, created_by
	`

	selectTipTxnFields = `
		transaction_id, location_id, payment_id, amount_cents, sales_cents,
		target, pool_id, segment_id, employee_id, status, collected_at, reversed_at,
		created_at, created_by, last_updated_at, last_updated_by
	`

	selectDebtFields = `
		debt_id, account_id, employee_id, transaction_id, original_amount_cents,
		remaining_cents, status, write_off_reason, resolved_at,
		created_at, created_by, last_updated_at, last_updated_by
	`

	selectShareFields = `
		share_id, location_id, employee_id, amount_cents, source, source_id,
		idempotency_key, status, entry_id, payroll_ref, resolved_at,
		created_at, created_by, last_updated_at, last_updated_by
	`
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for accounts, entries,
// tip transactions, debts and banked shares.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// SaveAccount persists a new ledger account.
func (r *PgxLedgerRepository) SaveAccount(ctx context.Context, account domain.LedgerAccount) error {
	modelAccount := mapping.ToModelLedgerAccount(account)
	query := `
		INSERT INTO ledger_accounts (` + selectAccountFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelAccount.AccountID,
		modelAccount.LocationID,
		modelAccount.EmployeeID,
		modelAccount.Kind,
		modelAccount.BalanceCents,
		modelAccount.CreatedAt,
		modelAccount.CreatedBy,
		modelAccount.LastUpdatedAt,
		modelAccount.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Another request created the account first; callers re-read.
			return fmt.Errorf("account for employee %s at location %s: %w", account.EmployeeID, account.LocationID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its unique identifier.
func (r *PgxLedgerRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.LedgerAccount, error) {
	query := `SELECT ` + selectAccountFields + ` FROM ledger_accounts WHERE account_id = $1;`
	account, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	domainAccount := mapping.ToDomainLedgerAccount(*account)
	return &domainAccount, nil
}

// FindAccountByEmployee retrieves an employee's tip account at a location.
func (r *PgxLedgerRepository) FindAccountByEmployee(ctx context.Context, locationID string, employeeID string) (*domain.LedgerAccount, error) {
	query := `
		SELECT ` + selectAccountFields + `
		FROM ledger_accounts
		WHERE location_id = $1 AND employee_id = $2 AND kind = $3;
	`
	account, err := scanAccount(r.Pool.QueryRow(ctx, query, locationID, employeeID, models.AccountEmployee))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account for employee %s: %w", employeeID, err)
	}
	domainAccount := mapping.ToDomainLedgerAccount(*account)
	return &domainAccount, nil
}

// FindHouseAccount retrieves the location's house account.
func (r *PgxLedgerRepository) FindHouseAccount(ctx context.Context, locationID string) (*domain.LedgerAccount, error) {
	query := `
		SELECT ` + selectAccountFields + `
		FROM ledger_accounts
		WHERE location_id = $1 AND kind = $2;
	`
	account, err := scanAccount(r.Pool.QueryRow(ctx, query, locationID, models.AccountHouse))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find house account for location %s: %w", locationID, err)
	}
	domainAccount := mapping.ToDomainLedgerAccount(*account)
	return &domainAccount, nil
}

// FindEntryByID retrieves a single ledger entry.
func (r *PgxLedgerRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + selectEntryFields + ` FROM ledger_entries WHERE entry_id = $1;`
	entry, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	domainEntry := mapping.ToDomainLedgerEntry(*entry)
	return &domainEntry, nil
}

// FindEntryByKey retrieves the entry that claimed an idempotency key.
func (r *PgxLedgerRepository) FindEntryByKey(ctx context.Context, idempotencyKey string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + selectEntryFields + ` FROM ledger_entries WHERE idempotency_key = $1;`
	entry, err := scanEntry(r.Pool.QueryRow(ctx, query, idempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry for key %s: %w", idempotencyKey, err)
	}
	domainEntry := mapping.ToDomainLedgerEntry(*entry)
	return &domainEntry, nil
}

// FindEntriesBySource retrieves every entry posted for one source record.
func (r *PgxLedgerRepository) FindEntriesBySource(ctx context.Context, source domain.EntrySource, sourceID string) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + selectEntryFields + `
		FROM ledger_entries
		WHERE source = $1 AND source_id = $2
		ORDER BY created_at, entry_id;
	`
	rows, err := r.Pool.Query(ctx, query, models.EntrySource(source), sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for source %s/%s: %w", source, sourceID, err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row for source %s/%s: %w", source, sourceID, err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows for source %s/%s: %w", source, sourceID, err)
	}

	return mapping.ToDomainLedgerEntrySlice(entries), nil
}

// ListEntriesByAccount retrieves a page of an account's entries newest first,
// bounded by the optional time window. Pagination is cursor based on the
// (created_at, entry_id) pair so pages stay stable while new entries land.
func (r *PgxLedgerRepository) ListEntriesByAccount(ctx context.Context, accountID string, from *time.Time, to *time.Time, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	query := `SELECT ` + selectEntryFields + ` FROM ledger_entries WHERE account_id = $1`
	args := []interface{}{accountID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	if nextToken != nil && *nextToken != "" {
		cursorTime, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		args = append(args, cursorTime, cursorID)
		query += fmt.Sprintf(" AND (created_at, entry_id) < ($%d, $%d)", len(args)-1, len(args))
	}

	// Fetch one extra row to know whether another page exists.
	fetchLimit := limit + 1
	args = append(args, fetchLimit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, entry_id DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query entries for account %s: %w", accountID, err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan entry row for account %s: %w", accountID, err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating entry rows for account %s: %w", accountID, err)
	}

	var newNextToken *string
	if len(entries) == fetchLimit {
		entries = entries[:limit]
		last := entries[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.EntryID)
		newNextToken = &token
	}

	return mapping.ToDomainLedgerEntrySlice(entries), newNextToken, nil
}

// SumEntriesByAccount recomputes an account balance from its entries.
func (r *PgxLedgerRepository) SumEntriesByAccount(ctx context.Context, accountID string) (int64, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM ledger_entries WHERE account_id = $1;`
	var total int64
	if err := r.Pool.QueryRow(ctx, query, accountID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum entries for account %s: %w", accountID, err)
	}
	return total, nil
}

// FindTipTransactionByID retrieves a tip transaction.
func (r *PgxLedgerRepository) FindTipTransactionByID(ctx context.Context, transactionID string) (*domain.TipTransaction, error) {
	query := `SELECT ` + selectTipTxnFields + ` FROM tip_transactions WHERE transaction_id = $1;`
	txn, err := scanTipTxn(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tip transaction %s: %w", transactionID, err)
	}
	domainTxn := mapping.ToDomainTipTransaction(*txn)
	return &domainTxn, nil
}

// FindTipTransactionByPayment retrieves the tip transaction recorded for a
// payment at a location.
func (r *PgxLedgerRepository) FindTipTransactionByPayment(ctx context.Context, locationID string, paymentID string) (*domain.TipTransaction, error) {
	query := `
		SELECT ` + selectTipTxnFields + `
		FROM tip_transactions
		WHERE location_id = $1 AND payment_id = $2;
	`
	txn, err := scanTipTxn(r.Pool.QueryRow(ctx, query, locationID, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tip transaction for payment %s: %w", paymentID, err)
	}
	domainTxn := mapping.ToDomainTipTransaction(*txn)
	return &domainTxn, nil
}

// FindDebtByID retrieves a single debt.
func (r *PgxLedgerRepository) FindDebtByID(ctx context.Context, debtID string) (*domain.TipDebt, error) {
	query := `SELECT ` + selectDebtFields + ` FROM tip_debts WHERE debt_id = $1;`
	debt, err := scanDebt(r.Pool.QueryRow(ctx, query, debtID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find debt %s: %w", debtID, err)
	}
	domainDebt := mapping.ToDomainTipDebt(*debt)
	return &domainDebt, nil
}

// ListDebtsByEmployee retrieves an employee's debts at a location oldest
// first, optionally filtered by status. Location scope goes through the
// debtor account because debts don't carry a location column themselves.
func (r *PgxLedgerRepository) ListDebtsByEmployee(ctx context.Context, locationID string, employeeID string, status *domain.DebtStatus) ([]domain.TipDebt, error) {
	query := `
		SELECT d.debt_id, d.account_id, d.employee_id, d.transaction_id, d.original_amount_cents,
			d.remaining_cents, d.status, d.write_off_reason, d.resolved_at,
			d.created_at, d.created_by, d.last_updated_at, d.last_updated_by
		FROM tip_debts d
		JOIN ledger_accounts a ON a.account_id = d.account_id
		WHERE a.location_id = $1 AND d.employee_id = $2
	`
	args := []interface{}{locationID, employeeID}
	if status != nil {
		args = append(args, models.TipDebtStatus(*status))
		query += fmt.Sprintf(" AND d.status = $%d", len(args))
	}
	query += " ORDER BY d.created_at, d.debt_id;"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query debts for employee %s: %w", employeeID, err)
	}
	defer rows.Close()

	debts := []models.TipDebt{}
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt row for employee %s: %w", employeeID, err)
		}
		debts = append(debts, *debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating debt rows for employee %s: %w", employeeID, err)
	}

	return mapping.ToDomainTipDebtSlice(debts), nil
}

// ListDebtsByTransaction retrieves the debts raised by one transaction's
// chargeback, ordered by employee id.
func (r *PgxLedgerRepository) ListDebtsByTransaction(ctx context.Context, transactionID string) ([]domain.TipDebt, error) {
	query := `
		SELECT ` + selectDebtFields + `
		FROM tip_debts
		WHERE transaction_id = $1
		ORDER BY employee_id;
	`
	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query debts for transaction %s: %w", transactionID, err)
	}
	defer rows.Close()

	debts := []models.TipDebt{}
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt row for transaction %s: %w", transactionID, err)
		}
		debts = append(debts, *debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating debt rows for transaction %s: %w", transactionID, err)
	}

	return mapping.ToDomainTipDebtSlice(debts), nil
}

// FindBankedShareByID retrieves a single banked share.
func (r *PgxLedgerRepository) FindBankedShareByID(ctx context.Context, shareID string) (*domain.BankedShare, error) {
	query := `SELECT ` + selectShareFields + ` FROM banked_shares WHERE share_id = $1;`
	share, err := scanShare(r.Pool.QueryRow(ctx, query, shareID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find banked share %s: %w", shareID, err)
	}
	domainShare := mapping.ToDomainBankedShare(*share)
	return &domainShare, nil
}

// ListBankedShares retrieves a location's banked shares newest first,
// optionally scoped to one employee and status.
func (r *PgxLedgerRepository) ListBankedShares(ctx context.Context, locationID string, employeeID string, status *domain.BankedShareStatus) ([]domain.BankedShare, error) {
	query := `SELECT ` + selectShareFields + ` FROM banked_shares WHERE location_id = $1`
	args := []interface{}{locationID}
	if employeeID != "" {
		args = append(args, employeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if status != nil {
		args = append(args, models.BankedShareStatus(*status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, share_id DESC;"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query banked shares for location %s: %w", locationID, err)
	}
	defer rows.Close()

	shares := []models.BankedShare{}
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan banked share row for location %s: %w", locationID, err)
		}
		shares = append(shares, *share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating banked share rows for location %s: %w", locationID, err)
	}

	return mapping.ToDomainBankedShareSlice(shares), nil
}

// ListBankedSharesBySource retrieves the banked shares opened by one
// originating record.
func (r *PgxLedgerRepository) ListBankedSharesBySource(ctx context.Context, source domain.EntrySource, sourceID string) ([]domain.BankedShare, error) {
	query := `
		SELECT ` + selectShareFields + `
		FROM banked_shares
		WHERE source = $1 AND source_id = $2
		ORDER BY created_at, share_id;
	`
	rows, err := r.Pool.Query(ctx, query, models.EntrySource(source), sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query banked shares for source %s/%s: %w", source, sourceID, err)
	}
	defer rows.Close()

	shares := []models.BankedShare{}
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan banked share row for source %s/%s: %w", source, sourceID, err)
		}
		shares = append(shares, *share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating banked share rows for source %s/%s: %w", source, sourceID, err)
	}

	return mapping.ToDomainBankedShareSlice(shares), nil
}

// RunInTx executes fn inside one atomic posting unit, retrying serialization
// failures. fn must be safe to re-run; posting units are, because every write
// they perform is idempotently keyed.
func (r *PgxLedgerRepository) RunInTx(ctx context.Context, fn func(tx portsrepo.LedgerTx) error) error {
	return r.runInTx(ctx, func(tx pgx.Tx) error {
		return fn(&pgxLedgerTx{tx: tx})
	})
}

// pgxLedgerTx is the transaction-bound view handed to posting units. Locks
// taken here hold until the surrounding transaction commits or rolls back.
type pgxLedgerTx struct {
	tx pgx.Tx
}

var _ portsrepo.LedgerTx = (*pgxLedgerTx)(nil)

// InsertEntry appends an immutable ledger entry. ON CONFLICT DO NOTHING makes
// replays hand back the entry that claimed the idempotency key instead of
// writing a second one.
func (t *pgxLedgerTx) InsertEntry(ctx context.Context, entry domain.LedgerEntry) (bool, *domain.LedgerEntry, error) {
	modelEntry := mapping.ToModelLedgerEntry(entry)
	query := `
		INSERT INTO ledger_entries (` + selectEntryFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (idempotency_key) DO NOTHING;
	`
	cmdTag, err := t.tx.Exec(ctx, query,
		modelEntry.EntryID,
		modelEntry.AccountID,
		modelEntry.AmountCents,
		modelEntry.Source,
		modelEntry.SourceID,
		modelEntry.IdempotencyKey,
		modelEntry.Memo,
		modelEntry.CreatedAt,
		modelEntry.CreatedBy,
	)
	if err != nil {
		return false, nil, fmt.Errorf("failed to insert entry %s: %w", entry.EntryID, err)
	}
	if cmdTag.RowsAffected() > 0 {
		return true, nil, nil
	}

	existingQuery := `SELECT ` + selectEntryFields + ` FROM ledger_entries WHERE idempotency_key = $1;`
	existing, err := scanEntry(t.tx.QueryRow(ctx, existingQuery, modelEntry.IdempotencyKey))
	if err != nil {
		return false, nil, fmt.Errorf("failed to load entry claiming key %s: %w", modelEntry.IdempotencyKey, err)
	}
	domainExisting := mapping.ToDomainLedgerEntry(*existing)
	return false, &domainExisting, nil
}

// LockAccount loads an account and locks it for the remainder of the
// transaction.
func (t *pgxLedgerTx) LockAccount(ctx context.Context, accountID string) (*domain.LedgerAccount, error) {
	query := `SELECT ` + selectAccountFields + ` FROM ledger_accounts WHERE account_id = $1 FOR UPDATE;`
	account, err := scanAccount(t.tx.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}
	domainAccount := mapping.ToDomainLedgerAccount(*account)
	return &domainAccount, nil
}

// ApplyBalanceDelta adjusts a locked account's cached balance.
func (t *pgxLedgerTx) ApplyBalanceDelta(ctx context.Context, accountID string, deltaCents int64, userID string, now time.Time) error {
	query := `
		UPDATE ledger_accounts
		SET balance_cents = balance_cents + $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	cmdTag, err := t.tx.Exec(ctx, query, accountID, deltaCents, now, userID)
	if err != nil {
		return fmt.Errorf("failed to apply balance delta to account %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// InsertTipTransaction records an attributed tip. The (location_id,
// payment_id) pair is unique, so a replayed webhook hands back the
// transaction already recorded for the payment.
func (t *pgxLedgerTx) InsertTipTransaction(ctx context.Context, txn domain.TipTransaction) (bool, *domain.TipTransaction, error) {
	modelTxn := mapping.ToModelTipTransaction(txn)
	query := `
		INSERT INTO tip_transactions (` + selectTipTxnFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (location_id, payment_id) DO NOTHING;
	`
	cmdTag, err := t.tx.Exec(ctx, query,
		modelTxn.TransactionID,
		modelTxn.LocationID,
		modelTxn.PaymentID,
		modelTxn.AmountCents,
		modelTxn.SalesCents,
		modelTxn.Target,
		modelTxn.PoolID,
		modelTxn.SegmentID,
		modelTxn.EmployeeID,
		modelTxn.Status,
		modelTxn.CollectedAt,
		modelTxn.ReversedAt,
		modelTxn.CreatedAt,
		modelTxn.CreatedBy,
		modelTxn.LastUpdatedAt,
		modelTxn.LastUpdatedBy,
	)
	if err != nil {
		return false, nil, fmt.Errorf("failed to insert tip transaction %s: %w", txn.TransactionID, err)
	}
	if cmdTag.RowsAffected() > 0 {
		return true, nil, nil
	}

	existingQuery := `
		SELECT ` + selectTipTxnFields + `
		FROM tip_transactions
		WHERE location_id = $1 AND payment_id = $2;
	`
	existing, err := scanTipTxn(t.tx.QueryRow(ctx, existingQuery, modelTxn.LocationID, modelTxn.PaymentID))
	if err != nil {
		return false, nil, fmt.Errorf("failed to load tip transaction claiming payment %s: %w", modelTxn.PaymentID, err)
	}
	domainExisting := mapping.ToDomainTipTransaction(*existing)
	return false, &domainExisting, nil
}

// UpdateTipTransactionStatus flips a tip transaction's lifecycle status.
func (t *pgxLedgerTx) UpdateTipTransactionStatus(ctx context.Context, transactionID string, status domain.TipTransactionStatus, reversedAt *time.Time, userID string, now time.Time) error {
	query := `
		UPDATE tip_transactions
		SET status = $2, reversed_at = $3, last_updated_at = $4, last_updated_by = $5
		WHERE transaction_id = $1;
	`
	cmdTag, err := t.tx.Exec(ctx, query, transactionID, models.TipTransactionStatus(status), reversedAt, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of tip transaction %s: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// InsertDebt records a new chargeback debt.
func (t *pgxLedgerTx) InsertDebt(ctx context.Context, debt domain.TipDebt) error {
	modelDebt := mapping.ToModelTipDebt(debt)
	query := `
		INSERT INTO tip_debts (` + selectDebtFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := t.tx.Exec(ctx, query,
		modelDebt.DebtID,
		modelDebt.AccountID,
		modelDebt.EmployeeID,
		modelDebt.TransactionID,
		modelDebt.OriginalAmountCents,
		modelDebt.RemainingCents,
		modelDebt.Status,
		modelDebt.WriteOffReason,
		modelDebt.ResolvedAt,
		modelDebt.CreatedAt,
		modelDebt.CreatedBy,
		modelDebt.LastUpdatedAt,
		modelDebt.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert debt %s: %w", debt.DebtID, err)
	}
	return nil
}

// LockOpenDebtsByAccount loads an account's OPEN debts oldest first and locks
// them for the remainder of the transaction. Oldest first is what makes
// recovery drain debts in chargeback order.
func (t *pgxLedgerTx) LockOpenDebtsByAccount(ctx context.Context, accountID string) ([]domain.TipDebt, error) {
	query := `
		SELECT ` + selectDebtFields + `
		FROM tip_debts
		WHERE account_id = $1 AND status = $2
		ORDER BY created_at, debt_id
		FOR UPDATE;
	`
	rows, err := t.tx.Query(ctx, query, accountID, models.DebtOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to lock open debts for account %s: %w", accountID, err)
	}
	defer rows.Close()

	debts := []models.TipDebt{}
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt row for account %s: %w", accountID, err)
		}
		debts = append(debts, *debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating debt rows for account %s: %w", accountID, err)
	}

	return mapping.ToDomainTipDebtSlice(debts), nil
}

// LockDebt loads one debt by id and locks it.
func (t *pgxLedgerTx) LockDebt(ctx context.Context, debtID string) (*domain.TipDebt, error) {
	query := `SELECT ` + selectDebtFields + ` FROM tip_debts WHERE debt_id = $1 FOR UPDATE;`
	debt, err := scanDebt(t.tx.QueryRow(ctx, query, debtID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock debt %s: %w", debtID, err)
	}
	domainDebt := mapping.ToDomainTipDebt(*debt)
	return &domainDebt, nil
}

// UpdateDebt persists a debt's remaining amount and status.
func (t *pgxLedgerTx) UpdateDebt(ctx context.Context, debt domain.TipDebt) error {
	modelDebt := mapping.ToModelTipDebt(debt)
	query := `
		UPDATE tip_debts
		SET remaining_cents = $2, status = $3, write_off_reason = $4, resolved_at = $5,
			last_updated_at = $6, last_updated_by = $7
		WHERE debt_id = $1;
	`
	cmdTag, err := t.tx.Exec(ctx, query,
		modelDebt.DebtID,
		modelDebt.RemainingCents,
		modelDebt.Status,
		modelDebt.WriteOffReason,
		modelDebt.ResolvedAt,
		modelDebt.LastUpdatedAt,
		modelDebt.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update debt %s: %w", debt.DebtID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// InsertBankedShare records a share held back for an off-duty employee.
func (t *pgxLedgerTx) InsertBankedShare(ctx context.Context, share domain.BankedShare) (bool, *domain.BankedShare, error) {
	modelShare := mapping.ToModelBankedShare(share)
	query := `
		INSERT INTO banked_shares (` + selectShareFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (idempotency_key) DO NOTHING;
	`
	cmdTag, err := t.tx.Exec(ctx, query,
		modelShare.ShareID,
		modelShare.LocationID,
		modelShare.EmployeeID,
		modelShare.AmountCents,
		modelShare.Source,
		modelShare.SourceID,
		modelShare.IdempotencyKey,
		modelShare.Status,
		modelShare.EntryID,
		modelShare.PayrollRef,
		modelShare.ResolvedAt,
		modelShare.CreatedAt,
		modelShare.CreatedBy,
		modelShare.LastUpdatedAt,
		modelShare.LastUpdatedBy,
	)
	if err != nil {
		return false, nil, fmt.Errorf("failed to insert banked share %s: %w", share.ShareID, err)
	}
	if cmdTag.RowsAffected() > 0 {
		return true, nil, nil
	}

	existingQuery := `SELECT ` + selectShareFields + ` FROM banked_shares WHERE idempotency_key = $1;`
	existing, err := scanShare(t.tx.QueryRow(ctx, existingQuery, modelShare.IdempotencyKey))
	if err != nil {
		return false, nil, fmt.Errorf("failed to load banked share claiming key %s: %w", modelShare.IdempotencyKey, err)
	}
	domainExisting := mapping.ToDomainBankedShare(*existing)
	return false, &domainExisting, nil
}

// LockBankedShare loads one banked share by id and locks it.
func (t *pgxLedgerTx) LockBankedShare(ctx context.Context, shareID string) (*domain.BankedShare, error) {
	query := `SELECT ` + selectShareFields + ` FROM banked_shares WHERE share_id = $1 FOR UPDATE;`
	share, err := scanShare(t.tx.QueryRow(ctx, query, shareID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock banked share %s: %w", shareID, err)
	}
	domainShare := mapping.ToDomainBankedShare(*share)
	return &domainShare, nil
}

// UpdateBankedShare persists a banked share's status and resolution.
func (t *pgxLedgerTx) UpdateBankedShare(ctx context.Context, share domain.BankedShare) error {
	modelShare := mapping.ToModelBankedShare(share)
	query := `
		UPDATE banked_shares
		SET status = $2, entry_id = $3, payroll_ref = $4, resolved_at = $5,
			last_updated_at = $6, last_updated_by = $7
		WHERE share_id = $1;
	`
	cmdTag, err := t.tx.Exec(ctx, query,
		modelShare.ShareID,
		modelShare.Status,
		modelShare.EntryID,
		modelShare.PayrollRef,
		modelShare.ResolvedAt,
		modelShare.LastUpdatedAt,
		modelShare.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update banked share %s: %w", share.ShareID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// scanAccount scans a ledger account from a row.
func scanAccount(row pgx.Row) (*models.LedgerAccount, error) {
	var account models.LedgerAccount
	err := row.Scan(
		&account.AccountID,
		&account.LocationID,
		&account.EmployeeID,
		&account.Kind,
		&account.BalanceCents,
		&account.CreatedAt,
		&account.CreatedBy,
		&account.LastUpdatedAt,
		&account.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// scanEntry scans a ledger entry from a row.
func scanEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := row.Scan(
		&entry.EntryID,
		&entry.AccountID,
		&entry.AmountCents,
		&entry.Source,
		&entry.SourceID,
		&entry.IdempotencyKey,
		&entry.Memo,
		&entry.CreatedAt,
		&entry.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// scanTipTxn scans a tip transaction from a row.
func scanTipTxn(row pgx.Row) (*models.TipTransaction, error) {
	var txn models.TipTransaction
	err := row.Scan(
		&txn.TransactionID,
		&txn.LocationID,
		&txn.PaymentID,
		&txn.AmountCents,
		&txn.SalesCents,
		&txn.Target,
		&txn.PoolID,
		&txn.SegmentID,
		&txn.EmployeeID,
		&txn.Status,
		&txn.CollectedAt,
		&txn.ReversedAt,
		&txn.CreatedAt,
		&txn.CreatedBy,
		&txn.LastUpdatedAt,
		&txn.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// scanDebt scans a tip debt from a row.
func scanDebt(row pgx.Row) (*models.TipDebt, error) {
	var debt models.TipDebt
	err := row.Scan(
		&debt.DebtID,
		&debt.AccountID,
		&debt.EmployeeID,
		&debt.TransactionID,
		&debt.OriginalAmountCents,
		&debt.RemainingCents,
		&debt.Status,
		&debt.WriteOffReason,
		&debt.ResolvedAt,
		&debt.CreatedAt,
		&debt.CreatedBy,
		&debt.LastUpdatedAt,
		&debt.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

// scanShare scans a banked share from a row.
func scanShare(row pgx.Row) (*models.BankedShare, error) {
	var share models.BankedShare
	err := row.Scan(
		&share.ShareID,
		&share.LocationID,
		&share.EmployeeID,
		&share.AmountCents,
		&share.Source,
		&share.SourceID,
		&share.IdempotencyKey,
		&share.Status,
		&share.EntryID,
		&share.PayrollRef,
		&share.ResolvedAt,
		&share.CreatedAt,
		&share.CreatedBy,
		&share.LastUpdatedAt,
		&share.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &share, nil
}
