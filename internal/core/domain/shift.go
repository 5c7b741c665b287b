package domain

import "time"

// Shift is a clock-in/clock-out interval for one employee. EndedAt is nil
// while the employee is on duty. The tip-out engine and the bank manager use
// open shifts as the on-duty source of truth.
type Shift struct {
	ShiftID    string     `json:"shiftID"`    // Primary Key (UUID)
	LocationID string     `json:"locationID"` // FK -> locations.location_id
	EmployeeID string     `json:"employeeID"` // FK -> employees.employee_id
	Role       Role       `json:"role"`       // Role worked this shift
	Section    string     `json:"section"`    // Floor section, empty when not sectioned
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt"` // Nil while on duty
	AuditFields
}

// OnDutyAt reports whether the shift covers the given instant.
func (s Shift) OnDutyAt(at time.Time) bool {
	if at.Before(s.StartedAt) {
		return false
	}
	return s.EndedAt == nil || at.Before(*s.EndedAt)
}
