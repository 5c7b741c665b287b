package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoolStatus indicates the lifecycle state of a tip pool.
type PoolStatus string

const (
	PoolActive PoolStatus = "ACTIVE"
	PoolEnded  PoolStatus = "ENDED"
)

// SplitMode selects how a pool divides money among its members.
type SplitMode string

const (
	SplitEqual    SplitMode = "EQUAL"
	SplitWeighted SplitMode = "WEIGHTED"
)

// TipPool is a named, time-bounded group that shares tips. A pool's history
// is a sequence of segments, each with constant membership, whose union
// covers the pool's whole lifetime with no gaps and no overlaps.
type TipPool struct {
	PoolID     string     `json:"poolID"`     // Primary Key (UUID)
	LocationID string     `json:"locationID"` // FK -> locations.location_id
	Name       string     `json:"name"`       // e.g. "Friday dinner front-of-house"
	SplitMode  SplitMode  `json:"splitMode"`
	Status     PoolStatus `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt"` // Nil while active; immutable once set
	AuditFields
}

// PoolMembership records one continuous stay of an employee in a pool.
// An employee who leaves and rejoins holds two membership rows.
type PoolMembership struct {
	MembershipID string          `json:"membershipID"` // Primary Key (UUID)
	PoolID       string          `json:"poolID"`       // FK -> tip_pools.pool_id
	EmployeeID   string          `json:"employeeID"`   // FK -> employees.employee_id
	Weight       decimal.Decimal `json:"weight"`       // 1 under EQUAL; relative share under WEIGHTED
	JoinedAt     time.Time       `json:"joinedAt"`
	LeftAt       *time.Time      `json:"leftAt"` // Nil while the stay is open
}

// PoolSegment is a half-open interval [StartedAt, EndedAt) during which the
// pool's membership did not change. Ratios are frozen at segment creation;
// later joins and leaves open a new segment and never touch a closed one.
type PoolSegment struct {
	SegmentID string          `json:"segmentID"` // Primary Key (UUID)
	PoolID    string          `json:"poolID"`    // FK -> tip_pools.pool_id
	StartedAt time.Time       `json:"startedAt"`
	EndedAt   *time.Time      `json:"endedAt"` // Nil for the open segment
	Members   []SegmentMember `json:"members"` // Ratio snapshot, ordered by employee ID
}

// Covers reports whether the segment's interval contains the given instant.
func (s PoolSegment) Covers(at time.Time) bool {
	if at.Before(s.StartedAt) {
		return false
	}
	return s.EndedAt == nil || at.Before(*s.EndedAt)
}

// SegmentMember is one employee's frozen share of a segment.
type SegmentMember struct {
	SegmentID  string          `json:"segmentID"`  // FK -> pool_segments.segment_id
	EmployeeID string          `json:"employeeID"` // FK -> employees.employee_id
	Weight     decimal.Decimal `json:"weight"`     // Weight at snapshot time
	Ratio      decimal.Decimal `json:"ratio"`      // Weight / sum of weights at snapshot time
}
