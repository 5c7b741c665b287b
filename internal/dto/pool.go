package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// CreatePoolRequest opens a new tip pool at a location.
type CreatePoolRequest struct {
	Name      string           `json:"name" binding:"required,max=100"`
	SplitMode domain.SplitMode `json:"splitMode" binding:"required,oneof=EQUAL WEIGHTED"`
	StartedAt *time.Time       `json:"startedAt,omitempty"`
}

// JoinPoolRequest adds an employee to a pool. Weight is only honoured for
// WEIGHTED pools and defaults to 1.
type JoinPoolRequest struct {
	EmployeeID string           `json:"employeeID" binding:"required"`
	Weight     *decimal.Decimal `json:"weight,omitempty" binding:"omitempty,gt=0"`
	At         *time.Time       `json:"at,omitempty"`
}

// LeavePoolRequest removes an employee from a pool.
type LeavePoolRequest struct {
	EmployeeID string     `json:"employeeID" binding:"required"`
	At         *time.Time `json:"at,omitempty"`
}

// EndPoolRequest closes a pool. Tips collected after At no longer attribute
// to it.
type EndPoolRequest struct {
	At *time.Time `json:"at,omitempty"`
}

// PoolResponse is the API shape of a tip pool.
type PoolResponse struct {
	PoolID     string            `json:"poolID"`
	LocationID string            `json:"locationID"`
	Name       string            `json:"name"`
	SplitMode  domain.SplitMode  `json:"splitMode"`
	Status     domain.PoolStatus `json:"status"`
	StartedAt  time.Time         `json:"startedAt"`
	EndedAt    *time.Time        `json:"endedAt,omitempty"`
}

// SegmentMemberResponse is one member's frozen stake in a segment. Weight
// and Ratio are decimal strings to keep exactness on the wire.
type SegmentMemberResponse struct {
	EmployeeID string `json:"employeeID"`
	Weight     string `json:"weight"`
	Ratio      string `json:"ratio"`
}

// SegmentResponse is one interval of constant pool composition.
type SegmentResponse struct {
	SegmentID string                  `json:"segmentID"`
	PoolID    string                  `json:"poolID"`
	StartedAt time.Time               `json:"startedAt"`
	EndedAt   *time.Time              `json:"endedAt,omitempty"`
	Members   []SegmentMemberResponse `json:"members"`
}

// ListPoolsParams pages through a location's pools, newest first.
type ListPoolsParams struct {
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListPoolsResponse is a page of pools.
type ListPoolsResponse struct {
	Pools     []PoolResponse `json:"pools"`
	NextToken *string        `json:"nextToken,omitempty"`
}

// ToPoolResponse maps a pool to its API shape.
func ToPoolResponse(p *domain.TipPool) PoolResponse {
	return PoolResponse{
		PoolID:     p.PoolID,
		LocationID: p.LocationID,
		Name:       p.Name,
		SplitMode:  p.SplitMode,
		Status:     p.Status,
		StartedAt:  p.StartedAt,
		EndedAt:    p.EndedAt,
	}
}

// ToSegmentResponse maps a segment and its members to the API shape.
func ToSegmentResponse(s *domain.PoolSegment) SegmentResponse {
	members := make([]SegmentMemberResponse, 0, len(s.Members))
	for _, m := range s.Members {
		members = append(members, SegmentMemberResponse{
			EmployeeID: m.EmployeeID,
			Weight:     m.Weight.String(),
			Ratio:      m.Ratio.String(),
		})
	}
	return SegmentResponse{
		SegmentID: s.SegmentID,
		PoolID:    s.PoolID,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Members:   members,
	}
}

// ToSegmentResponses maps a slice of segments to their API shape.
func ToSegmentResponses(segments []domain.PoolSegment) []SegmentResponse {
	out := make([]SegmentResponse, 0, len(segments))
	for i := range segments {
		out = append(out, ToSegmentResponse(&segments[i]))
	}
	return out
}
