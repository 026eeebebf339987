package taskauth

// UserRole is the user's role
type UserRole = string

const (
	// RoleMember is the default role (i.e. owns and manages its own tasks)
	RoleMember UserRole = "member"
	// RoleAdmin is an admin role (i.e. user management, audit access)
	RoleAdmin UserRole = "admin"
)

// roleHierarchy is the closed role set. Anything outside it is invalid and
// fails every check.
var roleHierarchy = map[UserRole]int{
	RoleMember: 1,
	RoleAdmin:  2,
}

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	_, ok := roleHierarchy[r]
	return ok
}

// Allows reports whether a holder of role meets the required role. It is a
// pure function over the closed role set: unknown roles on either side always
// fail.
func Allows(role, required UserRole) bool {
	current, ok := roleHierarchy[role]
	if !ok {
		return false
	}
	min, ok := roleHierarchy[required]
	if !ok {
		return false
	}
	return current >= min
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleMember,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}
