package models

import "time"

// User is a row in users. Login principals for the administrative surface.
type User struct {
	UserID       string `db:"user_id"`
	LocationID   string `db:"location_id"`
	EmployeeID   string `db:"employee_id"`
	Username     string `db:"username"` // UNIQUE with location_id
	PasswordHash string `db:"password_hash"`
	Role         string `db:"role"`
	AuditFields
	DeletedAt *time.Time `db:"deleted_at"` // Soft delete
}
