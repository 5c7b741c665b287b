package domain

import "time"

// UserRole is the back-office permission level. It is independent of the
// restaurant job role on the linked employee record.
type UserRole string

const (
	UserRoleManager UserRole = "MANAGER"
	UserRoleStaff   UserRole = "STAFF"
)

// User is a login principal for the administrative surface. Staff users are
// linked to an employee so self-service reads can be scoped; managers unlock
// the write-off, payout and adjustment paths.
type User struct {
	UserID       string   `json:"userID"`     // Primary Key (UUID)
	LocationID   string   `json:"locationID"` // FK -> locations.location_id
	EmployeeID   string   `json:"employeeID"` // FK -> employees.employee_id, optional
	Username     string   `json:"username"`   // Unique per location
	PasswordHash string   `json:"-"`          // bcrypt hash, never serialized
	Role         UserRole `json:"role"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty"` // Soft delete
}
