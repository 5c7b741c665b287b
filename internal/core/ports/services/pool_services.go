package services

import (
	"context"
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stackpos/tipengine/internal/dto"
)

// PoolReaderSvc defines read operations for pool data
type PoolReaderSvc interface {
	// GetPoolByID retrieves a specific pool by its ID.
	GetPoolByID(ctx context.Context, locationID string, poolID string) (*domain.TipPool, error)

	// ListPools retrieves a paginated list of a location's pools.
	ListPools(ctx context.Context, locationID string, params dto.ListPoolsParams) (*dto.ListPoolsResponse, error)

	// ListSegments retrieves a pool's segment timeline oldest first.
	ListSegments(ctx context.Context, locationID string, poolID string) ([]domain.PoolSegment, error)

	// SegmentAt retrieves the segment covering the given instant.
	SegmentAt(ctx context.Context, locationID string, poolID string, at time.Time) (*domain.PoolSegment, error)
}

// PoolWriterSvc defines write operations for pool data
type PoolWriterSvc interface {
	// CreatePool opens a new pool with an empty opening segment.
	CreatePool(ctx context.Context, locationID string, req dto.CreatePoolRequest, creatorUserID string) (*domain.TipPool, error)

	// JoinPool adds an employee to a pool, rolling the segment timeline.
	// Returns the new open segment.
	JoinPool(ctx context.Context, locationID string, poolID string, req dto.JoinPoolRequest, requestingUserID string) (*domain.PoolSegment, error)

	// LeavePool removes an employee from a pool, rolling the segment
	// timeline. Returns the new open segment.
	LeavePool(ctx context.Context, locationID string, poolID string, req dto.LeavePoolRequest, requestingUserID string) (*domain.PoolSegment, error)

	// EndPool closes a pool and its open segment.
	EndPool(ctx context.Context, locationID string, poolID string, req dto.EndPoolRequest, requestingUserID string) (*domain.TipPool, error)
}

// PoolSvcFacade combines all pool-related service interfaces
type PoolSvcFacade interface {
	PoolReaderSvc
	PoolWriterSvc
}
