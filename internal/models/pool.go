package models

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

// TipPool is a row in tip_pools.
type TipPool struct {
	PoolID     string     `db:"pool_id"`
	LocationID string     `db:"location_id"`
	Name       string     `db:"name"`
	SplitMode  SplitMode  `db:"split_mode"`
	Status     PoolStatus `db:"status"`
	StartedAt  time.Time  `db:"started_at"`
	EndedAt    *time.Time `db:"ended_at"`
	AuditFields
}

// PoolMembership is a row in pool_memberships.
type PoolMembership struct {
	MembershipID string          `db:"membership_id"`
	PoolID       string          `db:"pool_id"`
	EmployeeID   string          `db:"employee_id"`
	Weight       decimal.Decimal `db:"weight"`
	JoinedAt     time.Time       `db:"joined_at"`
	LeftAt       *time.Time      `db:"left_at"`
}

// PoolSegment is a row in pool_segments.
type PoolSegment struct {
	SegmentID string     `db:"segment_id"`
	PoolID    string     `db:"pool_id"`
	StartedAt time.Time  `db:"started_at"`
	EndedAt   *time.Time `db:"ended_at"`
}

// SegmentMember is a row in segment_members, the ratio snapshot.
type SegmentMember struct {
	SegmentID  string          `db:"segment_id"`
	EmployeeID string          `db:"employee_id"`
	Weight     decimal.Decimal `db:"weight"`
	Ratio      decimal.Decimal `db:"ratio"`
}
