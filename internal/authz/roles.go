package authz

const (
	RoleMember  = 10
	RoleAuditor = 30
	RoleLead    = 40
	RoleAdmin   = 50
)

// IsElevated reports whether the role may approve or steer tasks it did not create.
func IsElevated(roleID int) bool {
	return roleID == RoleLead || roleID == RoleAdmin
}

func IsReadOnly(roleID int) bool {
	return roleID == RoleAuditor
}

func IsKnown(roleID int) bool {
	switch roleID {
	case RoleMember, RoleAuditor, RoleLead, RoleAdmin:
		return true
	}
	return false
}
