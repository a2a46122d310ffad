package auth

// Role represents a back-office user role.
type Role string

const (
	RoleViewer      Role = "viewer"
	RolePreparateur Role = "preparateur"
	RoleValidateur  Role = "validateur"
	RoleAdmin       Role = "admin"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleViewer, RolePreparateur, RoleValidateur, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleViewer:
		return 1
	case RolePreparateur:
		return 2
	case RoleValidateur:
		return 3
	case RoleAdmin:
		return 4
	default:
		return 0
	}
}
