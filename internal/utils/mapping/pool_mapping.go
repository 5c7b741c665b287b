package mapping

import (
	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stackpos/tipengine/internal/models"
)

// ToModelTipPool converts a domain TipPool to a model TipPool
func ToModelTipPool(d domain.TipPool) models.TipPool {
	return models.TipPool{
		PoolID:      d.PoolID,
		LocationID:  d.LocationID,
		Name:        d.Name,
		SplitMode:   models.SplitMode(d.SplitMode),
		Status:      models.PoolStatus(d.Status),
		StartedAt:   d.StartedAt,
		EndedAt:     d.EndedAt,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTipPool converts a model TipPool to a domain TipPool
func ToDomainTipPool(m models.TipPool) domain.TipPool {
	return domain.TipPool{
		PoolID:      m.PoolID,
		LocationID:  m.LocationID,
		Name:        m.Name,
		SplitMode:   domain.SplitMode(m.SplitMode),
		Status:      domain.PoolStatus(m.Status),
		StartedAt:   m.StartedAt,
		EndedAt:     m.EndedAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTipPoolSlice converts a slice of model TipPools to domain TipPools
func ToDomainTipPoolSlice(ms []models.TipPool) []domain.TipPool {
	ds := make([]domain.TipPool, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTipPool(m)
	}
	return ds
}

// ToModelPoolMembership converts a domain PoolMembership to a model PoolMembership
func ToModelPoolMembership(d domain.PoolMembership) models.PoolMembership {
	return models.PoolMembership{
		MembershipID: d.MembershipID,
		PoolID:       d.PoolID,
		EmployeeID:   d.EmployeeID,
		Weight:       d.Weight,
		JoinedAt:     d.JoinedAt,
		LeftAt:       d.LeftAt,
	}
}

// ToDomainPoolMembership converts a model PoolMembership to a domain PoolMembership
func ToDomainPoolMembership(m models.PoolMembership) domain.PoolMembership {
	return domain.PoolMembership{
		MembershipID: m.MembershipID,
		PoolID:       m.PoolID,
		EmployeeID:   m.EmployeeID,
		Weight:       m.Weight,
		JoinedAt:     m.JoinedAt,
		LeftAt:       m.LeftAt,
	}
}

// ToDomainPoolMembershipSlice converts a slice of model PoolMemberships to domain PoolMemberships
func ToDomainPoolMembershipSlice(ms []models.PoolMembership) []domain.PoolMembership {
	ds := make([]domain.PoolMembership, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPoolMembership(m)
	}
	return ds
}

// ToModelPoolSegment converts a domain PoolSegment to a model PoolSegment.
// Members travel separately in segment_members rows.
func ToModelPoolSegment(d domain.PoolSegment) models.PoolSegment {
	return models.PoolSegment{
		SegmentID: d.SegmentID,
		PoolID:    d.PoolID,
		StartedAt: d.StartedAt,
		EndedAt:   d.EndedAt,
	}
}

// ToDomainPoolSegment converts a model PoolSegment and its member rows to a domain PoolSegment
func ToDomainPoolSegment(m models.PoolSegment, members []models.SegmentMember) domain.PoolSegment {
	return domain.PoolSegment{
		SegmentID: m.SegmentID,
		PoolID:    m.PoolID,
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
		Members:   ToDomainSegmentMemberSlice(members),
	}
}

// ToModelSegmentMember converts a domain SegmentMember to a model SegmentMember
func ToModelSegmentMember(d domain.SegmentMember) models.SegmentMember {
	return models.SegmentMember{
		SegmentID:  d.SegmentID,
		EmployeeID: d.EmployeeID,
		Weight:     d.Weight,
		Ratio:      d.Ratio,
	}
}

// ToDomainSegmentMember converts a model SegmentMember to a domain SegmentMember
func ToDomainSegmentMember(m models.SegmentMember) domain.SegmentMember {
	return domain.SegmentMember{
		SegmentID:  m.SegmentID,
		EmployeeID: m.EmployeeID,
		Weight:     m.Weight,
		Ratio:      m.Ratio,
	}
}

// ToDomainSegmentMemberSlice converts a slice of model SegmentMembers to domain SegmentMembers
func ToDomainSegmentMemberSlice(ms []models.SegmentMember) []domain.SegmentMember {
	ds := make([]domain.SegmentMember, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainSegmentMember(m)
	}
	return ds
}
