package membership

// UserRole is the user's platform role
type UserRole = string

const (
	// RoleAdmin administers the whole platform
	RoleAdmin UserRole = "admin"
	// RoleNodeLeader leads one organizational node
	RoleNodeLeader UserRole = "node_leader"
	// RoleMember belongs to a node
	RoleMember UserRole = "member"
)

// IsValidRole checks the closed role enumeration
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleNodeLeader, RoleMember:
		return true
	default:
		return false
	}
}

// AllRoles returns the closed role enumeration
func AllRoles() []UserRole {
	return []UserRole{RoleAdmin, RoleNodeLeader, RoleMember}
}

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	return UserRole(roleStr), IsValidRole(roleStr)
}

// rolesIn is the ozzo-friendly form of the enumeration
func rolesIn() []any {
	roles := AllRoles()
	out := make([]any, len(roles))
	for i, r := range roles {
		out[i] = r
	}
	return out
}
