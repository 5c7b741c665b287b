package domain

// Role classifies an employee for tip-out rule matching and authorization.
type Role string

const (
	RoleServer    Role = "SERVER"
	RoleBartender Role = "BARTENDER"
	RoleBusser    Role = "BUSSER"
	RoleRunner    Role = "RUNNER"
	RoleHost      Role = "HOST"
	RoleExpo      Role = "EXPO"
	RoleManager   Role = "MANAGER"
)

// Employee represents a worker at a location.
type Employee struct {
	EmployeeID string `json:"employeeID"` // Primary Key (UUID)
	LocationID string `json:"locationID"` // FK -> locations.location_id
	Name       string `json:"name"`
	Role       Role   `json:"role"` // Default role, shifts may override per clock-in
	IsActive   bool   `json:"isActive"`
	AuditFields
}
