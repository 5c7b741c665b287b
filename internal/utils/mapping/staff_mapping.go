package mapping

import (
	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stackpos/tipengine/internal/models"
)

// ToModelLocation converts a domain Location to a model Location
func ToModelLocation(d domain.Location) models.Location {
	return models.Location{
		LocationID:   d.LocationID,
		Name:         d.Name,
		Timezone:     d.Timezone,
		CurrencyCode: d.CurrencyCode,
		IsActive:     d.IsActive,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLocation converts a model Location to a domain Location
func ToDomainLocation(m models.Location) domain.Location {
	return domain.Location{
		LocationID:   m.LocationID,
		Name:         m.Name,
		Timezone:     m.Timezone,
		CurrencyCode: m.CurrencyCode,
		IsActive:     m.IsActive,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLocationSlice converts a slice of model Locations to domain Locations
func ToDomainLocationSlice(ms []models.Location) []domain.Location {
	ds := make([]domain.Location, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLocation(m)
	}
	return ds
}

// ToModelEmployee converts a domain Employee to a model Employee
func ToModelEmployee(d domain.Employee) models.Employee {
	return models.Employee{
		EmployeeID:  d.EmployeeID,
		LocationID:  d.LocationID,
		Name:        d.Name,
		Role:        string(d.Role),
		IsActive:    d.IsActive,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainEmployee converts a model Employee to a domain Employee
func ToDomainEmployee(m models.Employee) domain.Employee {
	return domain.Employee{
		EmployeeID:  m.EmployeeID,
		LocationID:  m.LocationID,
		Name:        m.Name,
		Role:        domain.Role(m.Role),
		IsActive:    m.IsActive,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainEmployeeSlice converts a slice of model Employees to domain Employees
func ToDomainEmployeeSlice(ms []models.Employee) []domain.Employee {
	ds := make([]domain.Employee, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainEmployee(m)
	}
	return ds
}

// ToModelShift converts a domain Shift to a model Shift
func ToModelShift(d domain.Shift) models.Shift {
	return models.Shift{
		ShiftID:     d.ShiftID,
		LocationID:  d.LocationID,
		EmployeeID:  d.EmployeeID,
		Role:        string(d.Role),
		Section:     d.Section,
		StartedAt:   d.StartedAt,
		EndedAt:     d.EndedAt,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainShift converts a model Shift to a domain Shift
func ToDomainShift(m models.Shift) domain.Shift {
	return domain.Shift{
		ShiftID:     m.ShiftID,
		LocationID:  m.LocationID,
		EmployeeID:  m.EmployeeID,
		Role:        domain.Role(m.Role),
		Section:     m.Section,
		StartedAt:   m.StartedAt,
		EndedAt:     m.EndedAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainShiftSlice converts a slice of model Shifts to domain Shifts
func ToDomainShiftSlice(ms []models.Shift) []domain.Shift {
	ds := make([]domain.Shift, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainShift(m)
	}
	return ds
}

// ToModelTipOutRule converts a domain TipOutRule to a model TipOutRule
func ToModelTipOutRule(d domain.TipOutRule) models.TipOutRule {
	return models.TipOutRule{
		RuleID:         d.RuleID,
		LocationID:     d.LocationID,
		FromRole:       string(d.FromRole),
		ToRole:         string(d.ToRole),
		BasisPoints:    d.BasisPoints,
		Basis:          models.TipOutBasis(d.Basis),
		MaxBasisPoints: d.MaxBasisPoints,
		IsActive:       d.IsActive,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTipOutRule converts a model TipOutRule to a domain TipOutRule
func ToDomainTipOutRule(m models.TipOutRule) domain.TipOutRule {
	return domain.TipOutRule{
		RuleID:         m.RuleID,
		LocationID:     m.LocationID,
		FromRole:       domain.Role(m.FromRole),
		ToRole:         domain.Role(m.ToRole),
		BasisPoints:    m.BasisPoints,
		Basis:          domain.TipOutBasis(m.Basis),
		MaxBasisPoints: m.MaxBasisPoints,
		IsActive:       m.IsActive,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTipOutRuleSlice converts a slice of model TipOutRules to domain TipOutRules
func ToDomainTipOutRuleSlice(ms []models.TipOutRule) []domain.TipOutRule {
	ds := make([]domain.TipOutRule, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTipOutRule(m)
	}
	return ds
}
