package repositories

import (
	"context"
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// PoolTx is the transaction-bound view of the pool store. Membership changes
// and the segment rollover they force happen on one PoolTx so the segment
// timeline can never tear.
type PoolTx interface {
	// LockPool loads a pool and locks it for the remainder of the
	// transaction, serializing membership changes per pool.
	LockPool(ctx context.Context, poolID string) (*domain.TipPool, error)

	// UpdatePoolStatus flips a pool's lifecycle status.
	UpdatePoolStatus(ctx context.Context, poolID string, status domain.PoolStatus, endedAt *time.Time, userID string, now time.Time) error

	// FindOpenMembership retrieves an employee's open membership in a pool.
	FindOpenMembership(ctx context.Context, poolID string, employeeID string) (*domain.PoolMembership, error)

	// ListOpenMemberships retrieves a pool's open memberships.
	ListOpenMemberships(ctx context.Context, poolID string) ([]domain.PoolMembership, error)

	// InsertMembership records an employee joining a pool.
	InsertMembership(ctx context.Context, membership domain.PoolMembership) error

	// CloseMembership stamps the leave time on an open membership.
	CloseMembership(ctx context.Context, membershipID string, leftAt time.Time) error

	// FindOpenSegment retrieves the pool's current open segment.
	FindOpenSegment(ctx context.Context, poolID string) (*domain.PoolSegment, error)

	// InsertSegment records a new segment together with its frozen members.
	InsertSegment(ctx context.Context, segment domain.PoolSegment) error

	// CloseSegment stamps the end time on an open segment.
	CloseSegment(ctx context.Context, segmentID string, endedAt time.Time) error
}

// PoolReader defines read operations for pool data.
type PoolReader interface {
	// FindPoolByID retrieves a pool by its unique identifier.
	FindPoolByID(ctx context.Context, poolID string) (*domain.TipPool, error)

	// FindSegmentAt retrieves the segment whose interval covers the instant,
	// including its frozen members.
	FindSegmentAt(ctx context.Context, poolID string, at time.Time) (*domain.PoolSegment, error)

	// ListSegments retrieves a pool's full segment timeline oldest first,
	// including frozen members.
	ListSegments(ctx context.Context, poolID string) ([]domain.PoolSegment, error)

	// ListPoolsByLocation retrieves a page of a location's pools, newest
	// first.
	ListPoolsByLocation(ctx context.Context, locationID string, limit int, nextToken *string) ([]domain.TipPool, *string, error)
}

// PoolWriter defines write operations for pool data.
type PoolWriter interface {
	// SavePool persists a new pool together with its opening segment.
	SavePool(ctx context.Context, pool domain.TipPool, opening domain.PoolSegment) error

	// RunInTx executes fn inside one atomic membership-change unit. The unit
	// is retried on serialization failures; fn must be safe to re-run.
	RunInTx(ctx context.Context, fn func(tx PoolTx) error) error
}

// PoolRepositoryFacade combines all pool-related repository interfaces.
type PoolRepositoryFacade interface {
	PoolReader
	PoolWriter
}
