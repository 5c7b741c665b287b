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

// SavePool persists a new pool together with its opening segment, so a pool
// can never exist without a timeline.
func (s *Store) SavePool(_ context.Context, pool domain.TipPool, opening domain.PoolSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pools[pool.PoolID] = pool
	s.segments[opening.SegmentID] = copySegment(opening)
	return nil
}

// FindPoolByID retrieves a pool by its unique identifier.
func (s *Store) FindPoolByID(_ context.Context, poolID string) (*domain.TipPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.poolByIDLocked(poolID)
}

// FindSegmentAt retrieves the segment whose interval covers the instant.
func (s *Store) FindSegmentAt(_ context.Context, poolID string, at time.Time) (*domain.PoolSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *domain.PoolSegment
	for _, segment := range s.segments {
		if segment.PoolID != poolID || !segment.Covers(at) {
			continue
		}
		if found == nil || segment.StartedAt.After(found.StartedAt) {
			candidate := copySegment(segment)
			found = &candidate
		}
	}
	if found == nil {
		return nil, apperrors.ErrNotFound
	}
	sortMembers(found.Members)
	return found, nil
}

// ListSegments retrieves a pool's full segment timeline oldest first.
func (s *Store) ListSegments(_ context.Context, poolID string) ([]domain.PoolSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	segments := []domain.PoolSegment{}
	for _, segment := range s.segments {
		if segment.PoolID == poolID {
			copied := copySegment(segment)
			sortMembers(copied.Members)
			segments = append(segments, copied)
		}
	}
	sort.Slice(segments, func(i, j int) bool {
		if !segments[i].StartedAt.Equal(segments[j].StartedAt) {
			return segments[i].StartedAt.Before(segments[j].StartedAt)
		}
		return segments[i].SegmentID < segments[j].SegmentID
	})
	return segments, nil
}

// ListPoolsByLocation retrieves a page of a location's pools, newest first.
func (s *Store) ListPoolsByLocation(_ context.Context, locationID string, limit int, nextToken *string) ([]domain.TipPool, *string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pools := []domain.TipPool{}
	for _, pool := range s.pools {
		if pool.LocationID == locationID {
			pools = append(pools, pool)
		}
	}
	sort.Slice(pools, func(i, j int) bool {
		if !pools[i].CreatedAt.Equal(pools[j].CreatedAt) {
			return pools[i].CreatedAt.After(pools[j].CreatedAt)
		}
		return pools[i].PoolID > pools[j].PoolID
	})

	if nextToken != nil && *nextToken != "" {
		afterTime, afterID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		cut := sort.Search(len(pools), func(i int) bool {
			if !pools[i].CreatedAt.Equal(afterTime) {
				return pools[i].CreatedAt.Before(afterTime)
			}
			return pools[i].PoolID < afterID
		})
		pools = pools[cut:]
	}

	if len(pools) <= limit {
		return pools, nil, nil
	}
	page := pools[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(last.CreatedAt, last.PoolID)
	return page, &token, nil
}

// poolStore pairs the shared store with the pool flavor of RunInTx.
type poolStore struct {
	*Store
}

// RunInTx executes fn as one atomic membership-change unit under the store
// write lock, rolling the pool tables back when the unit fails.
func (s *poolStore) RunInTx(_ context.Context, fn func(tx portsrepo.PoolTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.poolSnapshot()
	if err := fn(&memPoolTx{store: s.Store}); err != nil {
		s.restorePools(snap)
		return err
	}
	return nil
}

type poolSnapshot struct {
	pools       map[string]domain.TipPool
	memberships map[string]domain.PoolMembership
	segments    map[string]domain.PoolSegment
}

func (s *Store) poolSnapshot() poolSnapshot {
	return poolSnapshot{
		pools:       cloneMap(s.pools),
		memberships: cloneMap(s.memberships),
		segments:    cloneMap(s.segments),
	}
}

func (s *Store) restorePools(snap poolSnapshot) {
	s.pools = snap.pools
	s.memberships = snap.memberships
	s.segments = snap.segments
}

func (s *Store) poolByIDLocked(poolID string) (*domain.TipPool, error) {
	pool, ok := s.pools[poolID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &pool, nil
}

// copySegment detaches the members slice so stored segments never share a
// backing array with callers or snapshots.
func copySegment(segment domain.PoolSegment) domain.PoolSegment {
	copied := segment
	copied.Members = append([]domain.SegmentMember{}, segment.Members...)
	return copied
}

func sortMembers(members []domain.SegmentMember) {
	sort.Slice(members, func(i, j int) bool { return members[i].EmployeeID < members[j].EmployeeID })
}

// memPoolTx operates directly on the store maps; the caller already holds
// the write lock for the duration of the unit.
type memPoolTx struct {
	store *Store
}

// LockPool loads a pool for the remainder of the unit.
func (t *memPoolTx) LockPool(_ context.Context, poolID string) (*domain.TipPool, error) {
	return t.store.poolByIDLocked(poolID)
}

// UpdatePoolStatus flips a pool's lifecycle status.
func (t *memPoolTx) UpdatePoolStatus(_ context.Context, poolID string, status domain.PoolStatus, endedAt *time.Time, userID string, now time.Time) error {
	pool, ok := t.store.pools[poolID]
	if !ok {
		return apperrors.ErrNotFound
	}
	pool.Status = status
	pool.EndedAt = endedAt
	pool.LastUpdatedAt = now
	pool.LastUpdatedBy = userID
	t.store.pools[poolID] = pool
	return nil
}

// FindOpenMembership retrieves an employee's open membership in a pool.
func (t *memPoolTx) FindOpenMembership(_ context.Context, poolID string, employeeID string) (*domain.PoolMembership, error) {
	for _, membership := range t.store.memberships {
		if membership.PoolID == poolID && membership.EmployeeID == employeeID && membership.LeftAt == nil {
			found := membership
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ListOpenMemberships retrieves a pool's open memberships.
func (t *memPoolTx) ListOpenMemberships(_ context.Context, poolID string) ([]domain.PoolMembership, error) {
	memberships := []domain.PoolMembership{}
	for _, membership := range t.store.memberships {
		if membership.PoolID == poolID && membership.LeftAt == nil {
			memberships = append(memberships, membership)
		}
	}
	sort.Slice(memberships, func(i, j int) bool { return memberships[i].EmployeeID < memberships[j].EmployeeID })
	return memberships, nil
}

// InsertMembership records an employee joining a pool.
func (t *memPoolTx) InsertMembership(_ context.Context, membership domain.PoolMembership) error {
	for _, existing := range t.store.memberships {
		if existing.PoolID == membership.PoolID && existing.EmployeeID == membership.EmployeeID && existing.LeftAt == nil {
			return fmt.Errorf("employee %s already in pool %s: %w", membership.EmployeeID, membership.PoolID, apperrors.ErrDuplicate)
		}
	}
	t.store.memberships[membership.MembershipID] = membership
	return nil
}

// CloseMembership stamps the leave time on an open membership.
func (t *memPoolTx) CloseMembership(_ context.Context, membershipID string, leftAt time.Time) error {
	membership, ok := t.store.memberships[membershipID]
	if !ok || membership.LeftAt != nil {
		return apperrors.ErrNotFound
	}
	membership.LeftAt = &leftAt
	t.store.memberships[membershipID] = membership
	return nil
}

// FindOpenSegment retrieves the pool's current open segment.
func (t *memPoolTx) FindOpenSegment(_ context.Context, poolID string) (*domain.PoolSegment, error) {
	for _, segment := range t.store.segments {
		if segment.PoolID == poolID && segment.EndedAt == nil {
			found := copySegment(segment)
			sortMembers(found.Members)
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// InsertSegment records a new segment together with its frozen members.
func (t *memPoolTx) InsertSegment(_ context.Context, segment domain.PoolSegment) error {
	t.store.segments[segment.SegmentID] = copySegment(segment)
	return nil
}

// CloseSegment stamps the end time on an open segment.
func (t *memPoolTx) CloseSegment(_ context.Context, segmentID string, endedAt time.Time) error {
	segment, ok := t.store.segments[segmentID]
	if !ok || segment.EndedAt != nil {
		return apperrors.ErrNotFound
	}
	segment.EndedAt = &endedAt
	t.store.segments[segmentID] = segment
	return nil
}
