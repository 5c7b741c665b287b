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

const (
	selectPoolFields = `
		pool_id, location_id, name, split_mode, status, started_at, ended_at,
		created_at, created_by, last_updated_at, last_updated_by
	`

	selectMembershipFields = `
		membership_id, pool_id, employee_id, weight, joined_at, left_at
	`

	selectSegmentFields = `
		segment_id, pool_id, started_at, ended_at
	`

	selectSegmentMemberFields = `
		segment_id, employee_id, weight, ratio
	`
)

type PgxPoolRepository struct {
	BaseRepository
}

// newPgxPoolRepository creates a new repository for pools, memberships and
// the segment timeline.
func newPgxPoolRepository(pool *pgxpool.Pool) portsrepo.PoolRepositoryFacade {
	return &PgxPoolRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxPoolRepository implements portsrepo.PoolRepositoryFacade
var _ portsrepo.PoolRepositoryFacade = (*PgxPoolRepository)(nil)

// SavePool persists a new pool together with its opening segment inside one
// database transaction, so a pool can never exist without a timeline.
func (r *PgxPoolRepository) SavePool(ctx context.Context, pool domain.TipPool, opening domain.PoolSegment) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	modelPool := mapping.ToModelTipPool(pool)
	poolQuery := `
		INSERT INTO tip_pools (` + selectPoolFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = tx.Exec(ctx, poolQuery,
		modelPool.PoolID,
		modelPool.LocationID,
		modelPool.Name,
		modelPool.SplitMode,
		modelPool.Status,
		modelPool.StartedAt,
		modelPool.EndedAt,
		modelPool.CreatedAt,
		modelPool.CreatedBy,
		modelPool.LastUpdatedAt,
		modelPool.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pool %s: %w", pool.PoolID, err)
	}

	if err := insertSegment(ctx, tx, opening); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction for pool %s: %w", pool.PoolID, err)
	}
	return nil
}

// FindPoolByID retrieves a pool by its unique identifier.
func (r *PgxPoolRepository) FindPoolByID(ctx context.Context, poolID string) (*domain.TipPool, error) {
	query := `SELECT ` + selectPoolFields + ` FROM tip_pools WHERE pool_id = $1;`
	pool, err := scanPool(r.Pool.QueryRow(ctx, query, poolID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find pool %s: %w", poolID, err)
	}
	domainPool := mapping.ToDomainTipPool(*pool)
	return &domainPool, nil
}

// FindSegmentAt retrieves the segment whose half-open interval covers the
// instant, including its frozen members.
func (r *PgxPoolRepository) FindSegmentAt(ctx context.Context, poolID string, at time.Time) (*domain.PoolSegment, error) {
	query := `
		SELECT ` + selectSegmentFields + `
		FROM pool_segments
		WHERE pool_id = $1 AND started_at <= $2 AND (ended_at IS NULL OR ended_at > $2)
		ORDER BY started_at DESC
		LIMIT 1;
	`
	segment, err := scanSegment(r.Pool.QueryRow(ctx, query, poolID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find segment covering %s for pool %s: %w", at.Format(time.RFC3339), poolID, err)
	}

	members, err := r.loadSegmentMembers(ctx, segment.SegmentID)
	if err != nil {
		return nil, err
	}
	domainSegment := mapping.ToDomainPoolSegment(*segment, members)
	return &domainSegment, nil
}

// ListSegments retrieves a pool's full segment timeline oldest first,
// including frozen members. Members come back in one query and are bucketed
// by segment to avoid a query per segment.
func (r *PgxPoolRepository) ListSegments(ctx context.Context, poolID string) ([]domain.PoolSegment, error) {
	segmentQuery := `
		SELECT ` + selectSegmentFields + `
		FROM pool_segments
		WHERE pool_id = $1
		ORDER BY started_at, segment_id;
	`
	rows, err := r.Pool.Query(ctx, segmentQuery, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments for pool %s: %w", poolID, err)
	}
	defer rows.Close()

	segments := []models.PoolSegment{}
	for rows.Next() {
		segment, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan segment row for pool %s: %w", poolID, err)
		}
		segments = append(segments, *segment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment rows for pool %s: %w", poolID, err)
	}

	memberQuery := `
		SELECT m.segment_id, m.employee_id, m.weight, m.ratio
		FROM segment_members m
		JOIN pool_segments s ON s.segment_id = m.segment_id
		WHERE s.pool_id = $1
		ORDER BY m.segment_id, m.employee_id;
	`
	memberRows, err := r.Pool.Query(ctx, memberQuery, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segment members for pool %s: %w", poolID, err)
	}
	defer memberRows.Close()

	membersBySegment := map[string][]models.SegmentMember{}
	for memberRows.Next() {
		member, err := scanSegmentMember(memberRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan segment member row for pool %s: %w", poolID, err)
		}
		membersBySegment[member.SegmentID] = append(membersBySegment[member.SegmentID], *member)
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment member rows for pool %s: %w", poolID, err)
	}

	domainSegments := make([]domain.PoolSegment, 0, len(segments))
	for _, segment := range segments {
		domainSegments = append(domainSegments, mapping.ToDomainPoolSegment(segment, membersBySegment[segment.SegmentID]))
	}
	return domainSegments, nil
}

// ListPoolsByLocation retrieves a page of a location's pools newest first.
func (r *PgxPoolRepository) ListPoolsByLocation(ctx context.Context, locationID string, limit int, nextToken *string) ([]domain.TipPool, *string, error) {
	query := `SELECT ` + selectPoolFields + ` FROM tip_pools WHERE location_id = $1`
	args := []interface{}{locationID}

	if nextToken != nil && *nextToken != "" {
		cursorTime, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		args = append(args, cursorTime, cursorID)
		query += fmt.Sprintf(" AND (created_at, pool_id) < ($%d, $%d)", len(args)-1, len(args))
	}

	fetchLimit := limit + 1
	args = append(args, fetchLimit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, pool_id DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query pools for location %s: %w", locationID, err)
	}
	defer rows.Close()

	pools := []models.TipPool{}
	for rows.Next() {
		pool, err := scanPool(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan pool row for location %s: %w", locationID, err)
		}
		pools = append(pools, *pool)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating pool rows for location %s: %w", locationID, err)
	}

	var newNextToken *string
	if len(pools) == fetchLimit {
		pools = pools[:limit]
		last := pools[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.PoolID)
		newNextToken = &token
	}

	return mapping.ToDomainTipPoolSlice(pools), newNextToken, nil
}

// RunInTx executes fn inside one atomic membership-change unit, retrying
// serialization failures. fn must be safe to re-run.
func (r *PgxPoolRepository) RunInTx(ctx context.Context, fn func(tx portsrepo.PoolTx) error) error {
	return r.runInTx(ctx, func(tx pgx.Tx) error {
		return fn(&pgxPoolTx{tx: tx})
	})
}

// loadSegmentMembers loads one segment's frozen members ordered by employee.
func (r *PgxPoolRepository) loadSegmentMembers(ctx context.Context, segmentID string) ([]models.SegmentMember, error) {
	query := `
		SELECT ` + selectSegmentMemberFields + `
		FROM segment_members
		WHERE segment_id = $1
		ORDER BY employee_id;
	`
	rows, err := r.Pool.Query(ctx, query, segmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members for segment %s: %w", segmentID, err)
	}
	defer rows.Close()

	members := []models.SegmentMember{}
	for rows.Next() {
		member, err := scanSegmentMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member row for segment %s: %w", segmentID, err)
		}
		members = append(members, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows for segment %s: %w", segmentID, err)
	}
	return members, nil
}

// pgxPoolTx is the transaction-bound view handed to membership-change units.
type pgxPoolTx struct {
	tx pgx.Tx
}

var _ portsrepo.PoolTx = (*pgxPoolTx)(nil)

// LockPool loads a pool and locks it for the remainder of the transaction,
// serializing membership changes per pool.
func (t *pgxPoolTx) LockPool(ctx context.Context, poolID string) (*domain.TipPool, error) {
	query := `SELECT ` + selectPoolFields + ` FROM tip_pools WHERE pool_id = $1 FOR UPDATE;`
	pool, err := scanPool(t.tx.QueryRow(ctx, query, poolID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock pool %s: %w", poolID, err)
	}
	domainPool := mapping.ToDomainTipPool(*pool)
	return &domainPool, nil
}

// UpdatePoolStatus flips a pool's lifecycle status.
func (t *pgxPoolTx) UpdatePoolStatus(ctx context.Context, poolID string, status domain.PoolStatus, endedAt *time.Time, userID string, now time.Time) error {
	query := `
		UPDATE tip_pools
		SET status = $2, ended_at = $3, last_updated_at = $4, last_updated_by = $5
		WHERE pool_id = $1;
	`
	cmdTag, err := t.tx.Exec(ctx, query, poolID, models.PoolStatus(status), endedAt, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of pool %s: %w", poolID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindOpenMembership retrieves an employee's open membership in a pool.
func (t *pgxPoolTx) FindOpenMembership(ctx context.Context, poolID string, employeeID string) (*domain.PoolMembership, error) {
	query := `
		SELECT ` + selectMembershipFields + `
		FROM pool_memberships
		WHERE pool_id = $1 AND employee_id = $2 AND left_at IS NULL;
	`
	membership, err := scanMembership(t.tx.QueryRow(ctx, query, poolID, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find open membership for employee %s in pool %s: %w", employeeID, poolID, err)
	}
	domainMembership := mapping.ToDomainPoolMembership(*membership)
	return &domainMembership, nil
}

// ListOpenMemberships retrieves a pool's open memberships.
func (t *pgxPoolTx) ListOpenMemberships(ctx context.Context, poolID string) ([]domain.PoolMembership, error) {
	query := `
		SELECT ` + selectMembershipFields + `
		FROM pool_memberships
		WHERE pool_id = $1 AND left_at IS NULL
		ORDER BY employee_id;
	`
	rows, err := t.tx.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open memberships for pool %s: %w", poolID, err)
	}
	defer rows.Close()

	memberships := []models.PoolMembership{}
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership row for pool %s: %w", poolID, err)
		}
		memberships = append(memberships, *membership)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating membership rows for pool %s: %w", poolID, err)
	}

	return mapping.ToDomainPoolMembershipSlice(memberships), nil
}

// InsertMembership records an employee joining a pool.
func (t *pgxPoolTx) InsertMembership(ctx context.Context, membership domain.PoolMembership) error {
	modelMembership := mapping.ToModelPoolMembership(membership)
	query := `
		INSERT INTO pool_memberships (` + selectMembershipFields + `)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := t.tx.Exec(ctx, query,
		modelMembership.MembershipID,
		modelMembership.PoolID,
		modelMembership.EmployeeID,
		modelMembership.Weight,
		modelMembership.JoinedAt,
		modelMembership.LeftAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("employee %s already in pool %s: %w", membership.EmployeeID, membership.PoolID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert membership %s: %w", membership.MembershipID, err)
	}
	return nil
}

// CloseMembership stamps the leave time on an open membership.
func (t *pgxPoolTx) CloseMembership(ctx context.Context, membershipID string, leftAt time.Time) error {
	query := `UPDATE pool_memberships SET left_at = $2 WHERE membership_id = $1 AND left_at IS NULL;`
	cmdTag, err := t.tx.Exec(ctx, query, membershipID, leftAt)
	if err != nil {
		return fmt.Errorf("failed to close membership %s: %w", membershipID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindOpenSegment retrieves the pool's current open segment.
func (t *pgxPoolTx) FindOpenSegment(ctx context.Context, poolID string) (*domain.PoolSegment, error) {
	query := `
		SELECT ` + selectSegmentFields + `
		FROM pool_segments
		WHERE pool_id = $1 AND ended_at IS NULL;
	`
	segment, err := scanSegment(t.tx.QueryRow(ctx, query, poolID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find open segment for pool %s: %w", poolID, err)
	}

	memberQuery := `
		SELECT ` + selectSegmentMemberFields + `
		FROM segment_members
		WHERE segment_id = $1
		ORDER BY employee_id;
	`
	rows, err := t.tx.Query(ctx, memberQuery, segment.SegmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members for segment %s: %w", segment.SegmentID, err)
	}
	defer rows.Close()

	members := []models.SegmentMember{}
	for rows.Next() {
		member, err := scanSegmentMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member row for segment %s: %w", segment.SegmentID, err)
		}
		members = append(members, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows for segment %s: %w", segment.SegmentID, err)
	}

	domainSegment := mapping.ToDomainPoolSegment(*segment, members)
	return &domainSegment, nil
}

// InsertSegment records a new segment together with its frozen members.
func (t *pgxPoolTx) InsertSegment(ctx context.Context, segment domain.PoolSegment) error {
	return insertSegment(ctx, t.tx, segment)
}

// CloseSegment stamps the end time on an open segment.
func (t *pgxPoolTx) CloseSegment(ctx context.Context, segmentID string, endedAt time.Time) error {
	query := `UPDATE pool_segments SET ended_at = $2 WHERE segment_id = $1 AND ended_at IS NULL;`
	cmdTag, err := t.tx.Exec(ctx, query, segmentID, endedAt)
	if err != nil {
		return fmt.Errorf("failed to close segment %s: %w", segmentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// insertSegment writes a segment row plus its member snapshot on the given
// transaction. Members go through a batch because a busy pool can freeze a
// couple dozen of them per rollover.
func insertSegment(ctx context.Context, tx pgx.Tx, segment domain.PoolSegment) error {
	modelSegment := mapping.ToModelPoolSegment(segment)
	segmentQuery := `
		INSERT INTO pool_segments (` + selectSegmentFields + `)
		VALUES ($1, $2, $3, $4);
	`
	_, err := tx.Exec(ctx, segmentQuery,
		modelSegment.SegmentID,
		modelSegment.PoolID,
		modelSegment.StartedAt,
		modelSegment.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert segment %s: %w", segment.SegmentID, err)
	}

	if len(segment.Members) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	memberQuery := `
		INSERT INTO segment_members (` + selectSegmentMemberFields + `)
		VALUES ($1, $2, $3, $4);
	`
	for _, member := range segment.Members {
		modelMember := mapping.ToModelSegmentMember(member)
		batch.Queue(memberQuery,
			modelMember.SegmentID,
			modelMember.EmployeeID,
			modelMember.Weight,
			modelMember.Ratio,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute member batch for segment %s: %w", segment.SegmentID, err)
	}
	return nil
}

// scanPool scans a tip pool from a row.
func scanPool(row pgx.Row) (*models.TipPool, error) {
	var pool models.TipPool
	err := row.Scan(
		&pool.PoolID,
		&pool.LocationID,
		&pool.Name,
		&pool.SplitMode,
		&pool.Status,
		&pool.StartedAt,
		&pool.EndedAt,
		&pool.CreatedAt,
		&pool.CreatedBy,
		&pool.LastUpdatedAt,
		&pool.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

// scanMembership scans a pool membership from a row.
func scanMembership(row pgx.Row) (*models.PoolMembership, error) {
	var membership models.PoolMembership
	err := row.Scan(
		&membership.MembershipID,
		&membership.PoolID,
		&membership.EmployeeID,
		&membership.Weight,
		&membership.JoinedAt,
		&membership.LeftAt,
	)
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// scanSegment scans a pool segment from a row.
func scanSegment(row pgx.Row) (*models.PoolSegment, error) {
	var segment models.PoolSegment
	err := row.Scan(
		&segment.SegmentID,
		&segment.PoolID,
		&segment.StartedAt,
		&segment.EndedAt,
	)
	if err != nil {
		return nil, err
	}
	return &segment, nil
}

// scanSegmentMember scans a segment member from a row.
func scanSegmentMember(row pgx.Row) (*models.SegmentMember, error) {
	var member models.SegmentMember
	err := row.Scan(
		&member.SegmentID,
		&member.EmployeeID,
		&member.Weight,
		&member.Ratio,
	)
	if err != nil {
		return nil, err
	}
	return &member, nil
}
