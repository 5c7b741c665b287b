package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
)

// Pool failures callers may branch on. Each wraps an apperrors sentinel so
// the transport layer picks the right status without knowing this package.
var (
	ErrAlreadyMember    = fmt.Errorf("%w: employee already has an open membership in this pool", apperrors.ErrDuplicate)
	ErrNotMember        = fmt.Errorf("%w: employee has no open membership in this pool", apperrors.ErrConflict)
	ErrNoActiveSegment  = fmt.Errorf("%w: no segment covers the requested instant", apperrors.ErrNotFound)
	ErrPoolClosed       = fmt.Errorf("%w: pool has ended", apperrors.ErrConflict)
	ErrNegativeWeight   = fmt.Errorf("%w: membership weight must be positive", apperrors.ErrValidation)
	ErrBackdatedRequest = fmt.Errorf("%w: requested time precedes the current open segment", apperrors.ErrValidation)
)

// poolService maintains the gap-free segment timeline of every pool. Each
// membership change closes the open segment and opens the next one with the
// ratios frozen, so past attributions can never be altered retroactively.
type poolService struct {
	poolRepo     portsrepo.PoolRepositoryFacade
	employeeRepo portsrepo.EmployeeRepositoryFacade
}

// NewPoolService creates a new PoolService.
func NewPoolService(poolRepo portsrepo.PoolRepositoryFacade, employeeRepo portsrepo.EmployeeRepositoryFacade) portssvc.PoolSvcFacade {
	return &poolService{
		poolRepo:     poolRepo,
		employeeRepo: employeeRepo,
	}
}

// Ensure poolService implements the portssvc.PoolSvcFacade interface
var _ portssvc.PoolSvcFacade = (*poolService)(nil)

// freezeSegmentMembers computes the ratio snapshot for a new segment from the
// live membership rows. Members come out sorted by employee id; the same
// order later drives remainder-cent distribution.
func freezeSegmentMembers(segmentID string, mode domain.SplitMode, memberships []domain.PoolMembership) []domain.SegmentMember {
	if len(memberships) == 0 {
		return nil
	}
	sorted := make([]domain.PoolMembership, len(memberships))
	copy(sorted, memberships)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EmployeeID < sorted[j].EmployeeID })

	members := make([]domain.SegmentMember, 0, len(sorted))
	switch mode {
	case domain.SplitWeighted:
		total := decimal.Zero
		for _, m := range sorted {
			total = total.Add(m.Weight)
		}
		for _, m := range sorted {
			members = append(members, domain.SegmentMember{
				SegmentID:  segmentID,
				EmployeeID: m.EmployeeID,
				Weight:     m.Weight,
				Ratio:      m.Weight.Div(total),
			})
		}
	default: // EQUAL
		ratio := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(sorted))))
		for _, m := range sorted {
			members = append(members, domain.SegmentMember{
				SegmentID:  segmentID,
				EmployeeID: m.EmployeeID,
				Weight:     decimal.NewFromInt(1),
				Ratio:      ratio,
			})
		}
	}
	return members
}

// rollSegment closes the pool's open segment at the given instant and opens
// the next one with the supplied membership set. Runs on the caller's PoolTx
// so the close and the open commit together and the timeline stays gap free.
func rollSegment(ctx context.Context, tx portsrepo.PoolTx, pool *domain.TipPool, at time.Time, memberships []domain.PoolMembership) (*domain.PoolSegment, error) {
	open, err := tx.FindOpenSegment(ctx, pool.PoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to find open segment: %w", err)
	}
	if at.Before(open.StartedAt) {
		return nil, fmt.Errorf("%w: open segment started at %s", ErrBackdatedRequest, open.StartedAt.Format(time.RFC3339))
	}
	if err := tx.CloseSegment(ctx, open.SegmentID, at); err != nil {
		return nil, fmt.Errorf("failed to close segment: %w", err)
	}

	next := domain.PoolSegment{
		SegmentID: uuid.NewString(),
		PoolID:    pool.PoolID,
		StartedAt: at,
	}
	next.Members = freezeSegmentMembers(next.SegmentID, pool.SplitMode, memberships)
	if err := tx.InsertSegment(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to insert segment: %w", err)
	}
	return &next, nil
}

// CreatePool opens a new pool with an empty opening segment.
// Implements portssvc.PoolSvcFacade
func (s *poolService) CreatePool(ctx context.Context, locationID string, req dto.CreatePoolRequest, creatorUserID string) (*domain.TipPool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	startedAt := now
	if req.StartedAt != nil {
		startedAt = req.StartedAt.UTC()
	}

	pool := domain.TipPool{
		PoolID:     uuid.NewString(),
		LocationID: locationID,
		Name:       req.Name,
		SplitMode:  req.SplitMode,
		Status:     domain.PoolActive,
		StartedAt:  startedAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	opening := domain.PoolSegment{
		SegmentID: uuid.NewString(),
		PoolID:    pool.PoolID,
		StartedAt: startedAt,
	}
	if err := s.poolRepo.SavePool(ctx, pool, opening); err != nil {
		logger.Error("Failed to create pool", slog.String("location_id", locationID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	logger.Info("Pool created", slog.String("pool_id", pool.PoolID), slog.String("location_id", locationID), slog.String("split_mode", string(pool.SplitMode)))
	return &pool, nil
}

// GetPoolByID retrieves a specific pool by its ID.
// Implements portssvc.PoolSvcFacade
func (s *poolService) GetPoolByID(ctx context.Context, locationID string, poolID string) (*domain.TipPool, error) {
	pool, err := s.poolRepo.FindPoolByID(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to find pool: %w", err)
	}
	if pool.LocationID != locationID {
		return nil, fmt.Errorf("%w: pool %s not found at location %s", apperrors.ErrNotFound, poolID, locationID)
	}
	return pool, nil
}

// ListPools retrieves a paginated list of a location's pools.
// Implements portssvc.PoolSvcFacade
func (s *poolService) ListPools(ctx context.Context, locationID string, params dto.ListPoolsParams) (*dto.ListPoolsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	pools, nextToken, err := s.poolRepo.ListPoolsByLocation(ctx, locationID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}
	resp := &dto.ListPoolsResponse{NextToken: nextToken}
	for i := range pools {
		resp.Pools = append(resp.Pools, dto.ToPoolResponse(&pools[i]))
	}
	return resp, nil
}

// ListSegments retrieves a pool's segment timeline oldest first.
// Implements portssvc.PoolSvcFacade
func (s *poolService) ListSegments(ctx context.Context, locationID string, poolID string) ([]domain.PoolSegment, error) {
	if _, err := s.GetPoolByID(ctx, locationID, poolID); err != nil {
		return nil, err
	}
	segments, err := s.poolRepo.ListSegments(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	return segments, nil
}

// SegmentAt retrieves the segment covering the given instant.
// Implements portssvc.PoolSvcFacade
func (s *poolService) SegmentAt(ctx context.Context, locationID string, poolID string, at time.Time) (*domain.PoolSegment, error) {
	if _, err := s.GetPoolByID(ctx, locationID, poolID); err != nil {
		return nil, err
	}
	segment, err := s.poolRepo.FindSegmentAt(ctx, poolID, at.UTC())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: pool %s at %s", ErrNoActiveSegment, poolID, at.UTC().Format(time.RFC3339))
		}
		return nil, fmt.Errorf("failed to resolve segment: %w", err)
	}
	return segment, nil
}

// JoinPool adds an employee to a pool, rolling the segment timeline.
// Implements portssvc.PoolSvcFacade
func (s *poolService) JoinPool(ctx context.Context, locationID string, poolID string, req dto.JoinPoolRequest, requestingUserID string) (*domain.PoolSegment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	employee, err := s.employeeRepo.FindEmployeeByID(ctx, req.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	if employee.LocationID != locationID || !employee.IsActive {
		return nil, fmt.Errorf("%w: employee %s is not active at location %s", apperrors.ErrValidation, req.EmployeeID, locationID)
	}

	weight := decimal.NewFromInt(1)
	if req.Weight != nil {
		weight = *req.Weight
	}
	if weight.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: got %s", ErrNegativeWeight, weight.String())
	}

	at := time.Now().UTC()
	if req.At != nil {
		at = req.At.UTC()
	}

	var segment *domain.PoolSegment
	err = s.poolRepo.RunInTx(ctx, func(tx portsrepo.PoolTx) error {
		pool, err := tx.LockPool(ctx, poolID)
		if err != nil {
			return fmt.Errorf("failed to lock pool: %w", err)
		}
		if pool.LocationID != locationID {
			return fmt.Errorf("%w: pool %s not found at location %s", apperrors.ErrNotFound, poolID, locationID)
		}
		if pool.Status != domain.PoolActive {
			return fmt.Errorf("%w: pool %s", ErrPoolClosed, poolID)
		}

		existing, err := tx.FindOpenMembership(ctx, poolID, req.EmployeeID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: employee %s in pool %s", ErrAlreadyMember, req.EmployeeID, poolID)
		}

		membership := domain.PoolMembership{
			MembershipID: uuid.NewString(),
			PoolID:       poolID,
			EmployeeID:   req.EmployeeID,
			Weight:       weight,
			JoinedAt:     at,
		}
		if err := tx.InsertMembership(ctx, membership); err != nil {
			return fmt.Errorf("failed to insert membership: %w", err)
		}

		live, err := tx.ListOpenMemberships(ctx, poolID)
		if err != nil {
			return fmt.Errorf("failed to list open memberships: %w", err)
		}
		segment, err = rollSegment(ctx, tx, pool, at, live)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Employee joined pool",
		slog.String("pool_id", poolID),
		slog.String("employee_id", req.EmployeeID),
		slog.String("segment_id", segment.SegmentID),
		slog.Int("member_count", len(segment.Members)))
	return segment, nil
}

// LeavePool removes an employee from a pool, rolling the segment timeline.
// Implements portssvc.PoolSvcFacade
func (s *poolService) LeavePool(ctx context.Context, locationID string, poolID string, req dto.LeavePoolRequest, requestingUserID string) (*domain.PoolSegment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	at := time.Now().UTC()
	if req.At != nil {
		at = req.At.UTC()
	}

	var segment *domain.PoolSegment
	err := s.poolRepo.RunInTx(ctx, func(tx portsrepo.PoolTx) error {
		pool, err := tx.LockPool(ctx, poolID)
		if err != nil {
			return fmt.Errorf("failed to lock pool: %w", err)
		}
		if pool.LocationID != locationID {
			return fmt.Errorf("%w: pool %s not found at location %s", apperrors.ErrNotFound, poolID, locationID)
		}
		if pool.Status != domain.PoolActive {
			return fmt.Errorf("%w: pool %s", ErrPoolClosed, poolID)
		}

		membership, err := tx.FindOpenMembership(ctx, poolID, req.EmployeeID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: employee %s in pool %s", ErrNotMember, req.EmployeeID, poolID)
			}
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if err := tx.CloseMembership(ctx, membership.MembershipID, at); err != nil {
			return fmt.Errorf("failed to close membership: %w", err)
		}

		live, err := tx.ListOpenMemberships(ctx, poolID)
		if err != nil {
			return fmt.Errorf("failed to list open memberships: %w", err)
		}
		segment, err = rollSegment(ctx, tx, pool, at, live)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Employee left pool",
		slog.String("pool_id", poolID),
		slog.String("employee_id", req.EmployeeID),
		slog.String("segment_id", segment.SegmentID),
		slog.Int("member_count", len(segment.Members)))
	return segment, nil
}

// EndPool closes a pool and its open segment.
// Implements portssvc.PoolSvcFacade
func (s *poolService) EndPool(ctx context.Context, locationID string, poolID string, req dto.EndPoolRequest, requestingUserID string) (*domain.TipPool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	at := time.Now().UTC()
	if req.At != nil {
		at = req.At.UTC()
	}

	var ended *domain.TipPool
	err := s.poolRepo.RunInTx(ctx, func(tx portsrepo.PoolTx) error {
		pool, err := tx.LockPool(ctx, poolID)
		if err != nil {
			return fmt.Errorf("failed to lock pool: %w", err)
		}
		if pool.LocationID != locationID {
			return fmt.Errorf("%w: pool %s not found at location %s", apperrors.ErrNotFound, poolID, locationID)
		}
		if pool.Status != domain.PoolActive {
			return fmt.Errorf("%w: pool %s", ErrPoolClosed, poolID)
		}

		open, err := tx.FindOpenSegment(ctx, poolID)
		if err != nil {
			return fmt.Errorf("failed to find open segment: %w", err)
		}
		if at.Before(open.StartedAt) {
			return fmt.Errorf("%w: open segment started at %s", ErrBackdatedRequest, open.StartedAt.Format(time.RFC3339))
		}
		if err := tx.CloseSegment(ctx, open.SegmentID, at); err != nil {
			return fmt.Errorf("failed to close segment: %w", err)
		}

		// Open memberships stay recorded with their original leave times
		// unset; the pool end bounds them implicitly.
		now := time.Now().UTC()
		if err := tx.UpdatePoolStatus(ctx, poolID, domain.PoolEnded, &at, requestingUserID, now); err != nil {
			return fmt.Errorf("failed to update pool status: %w", err)
		}

		endedPool := *pool
		endedPool.Status = domain.PoolEnded
		endedPool.EndedAt = &at
		endedPool.LastUpdatedAt = now
		endedPool.LastUpdatedBy = requestingUserID
		ended = &endedPool
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Pool ended", slog.String("pool_id", poolID), slog.Time("ended_at", at))
	return ended, nil
}
