package models

import "time"

// Location is a row in locations.
type Location struct {
	LocationID   string `db:"location_id"`
	Name         string `db:"name"`
	Timezone     string `db:"timezone"`
	CurrencyCode string `db:"currency_code"`
	IsActive     bool   `db:"is_active"`
	AuditFields
}

// Employee is a row in employees.
type Employee struct {
	EmployeeID string `db:"employee_id"`
	LocationID string `db:"location_id"`
	Name       string `db:"name"`
	Role       string `db:"role"`
	IsActive   bool   `db:"is_active"`
	AuditFields
}

// Shift is a row in shifts.
type Shift struct {
	ShiftID    string     `db:"shift_id"`
	LocationID string     `db:"location_id"`
	EmployeeID string     `db:"employee_id"`
	Role       string     `db:"role"`
	Section    string     `db:"section"`
	StartedAt  time.Time  `db:"started_at"`
	EndedAt    *time.Time `db:"ended_at"`
	AuditFields
}
