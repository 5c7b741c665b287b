package dto

import (
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// CreateLocationRequest registers a restaurant location. Creating a location
// also provisions its house account.
type CreateLocationRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Timezone     string `json:"timezone" binding:"required,max=50"`
	CurrencyCode string `json:"currencyCode" binding:"required,len=3"`
}

// LocationResponse is the API shape of a location.
type LocationResponse struct {
	LocationID   string `json:"locationID"`
	Name         string `json:"name"`
	Timezone     string `json:"timezone"`
	CurrencyCode string `json:"currencyCode"`
	IsActive     bool   `json:"isActive"`
}

// CreateEmployeeRequest registers an employee. Creating an employee also
// provisions their ledger account.
type CreateEmployeeRequest struct {
	Name string      `json:"name" binding:"required,max=100"`
	Role domain.Role `json:"role" binding:"required"`
}

// UpdateEmployeeRequest patches an employee. Nil fields are left unchanged.
type UpdateEmployeeRequest struct {
	Name     *string      `json:"name" binding:"omitempty,max=100"`
	Role     *domain.Role `json:"role"`
	IsActive *bool        `json:"isActive"`
}

// EmployeeResponse is the API shape of an employee.
type EmployeeResponse struct {
	EmployeeID string      `json:"employeeID"`
	LocationID string      `json:"locationID"`
	Name       string      `json:"name"`
	Role       domain.Role `json:"role"`
	IsActive   bool        `json:"isActive"`
}

// ClockInRequest opens a shift for an employee. Role defaults to the
// employee's standing role when omitted; Section is free-form and used to
// scope tip-outs to the earner's section.
type ClockInRequest struct {
	EmployeeID string       `json:"employeeID" binding:"required"`
	Role       *domain.Role `json:"role,omitempty"`
	Section    string       `json:"section" binding:"omitempty,max=50"`
	At         *time.Time   `json:"at,omitempty"`
}

// ClockOutRequest closes an open shift.
type ClockOutRequest struct {
	At *time.Time `json:"at,omitempty"`
}

// ShiftResponse is the API shape of a shift.
type ShiftResponse struct {
	ShiftID    string      `json:"shiftID"`
	LocationID string      `json:"locationID"`
	EmployeeID string      `json:"employeeID"`
	Role       domain.Role `json:"role"`
	Section    string      `json:"section,omitempty"`
	StartedAt  time.Time   `json:"startedAt"`
	EndedAt    *time.Time  `json:"endedAt,omitempty"`
}

// ToLocationResponse maps a location to its API shape.
func ToLocationResponse(l *domain.Location) LocationResponse {
	return LocationResponse{
		LocationID:   l.LocationID,
		Name:         l.Name,
		Timezone:     l.Timezone,
		CurrencyCode: l.CurrencyCode,
		IsActive:     l.IsActive,
	}
}

// ToEmployeeResponse maps an employee to its API shape.
func ToEmployeeResponse(e *domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		EmployeeID: e.EmployeeID,
		LocationID: e.LocationID,
		Name:       e.Name,
		Role:       e.Role,
		IsActive:   e.IsActive,
	}
}

// ToShiftResponse maps a shift to its API shape.
func ToShiftResponse(s *domain.Shift) ShiftResponse {
	return ShiftResponse{
		ShiftID:    s.ShiftID,
		LocationID: s.LocationID,
		EmployeeID: s.EmployeeID,
		Role:       s.Role,
		Section:    s.Section,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
	}
}

// ToLocationResponses maps a slice of locations to their API shape.
func ToLocationResponses(locations []domain.Location) []LocationResponse {
	out := make([]LocationResponse, 0, len(locations))
	for i := range locations {
		out = append(out, ToLocationResponse(&locations[i]))
	}
	return out
}

// ToEmployeeResponses maps a slice of employees to their API shape.
func ToEmployeeResponses(employees []domain.Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, 0, len(employees))
	for i := range employees {
		out = append(out, ToEmployeeResponse(&employees[i]))
	}
	return out
}

// ToShiftResponses maps a slice of shifts to their API shape.
func ToShiftResponses(shifts []domain.Shift) []ShiftResponse {
	out := make([]ShiftResponse, 0, len(shifts))
	for i := range shifts {
		out = append(out, ToShiftResponse(&shifts[i]))
	}
	return out
}
