package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Manages zones and reviews violations
	RoleEmployee Role = "employee" // Regular employee
)

// Actor is the authenticated caller, as carried by the access token.
type Actor struct {
	UserID     string
	EmployeeID *string
	Role       Role
}

// IsManager checks if actor is manager or owner
func (a Actor) IsManager() bool {
	return a.Role == RoleManager || a.Role == RoleOwner
}
