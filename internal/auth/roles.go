package auth

// Role is the closed set of tenant roles. Route gating works on the two
// capability groups derived from it, not on individual roles, so adding a
// role means deciding its group here and nowhere else.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RoleHRManager  Role = "hr_manager"
	RoleAccountant Role = "accountant"
	RoleFieldAgent Role = "field_agent"
	RoleCourier    Role = "courier"
	RoleUnknown    Role = ""
)

// ParseRole maps a claim value onto the closed role set. Anything outside
// the set becomes RoleUnknown, which belongs to neither capability group.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleHRManager, RoleAccountant, RoleFieldAgent, RoleCourier:
		return Role(s)
	default:
		return RoleUnknown
	}
}

// IsBackOffice reports whether the role may use the back-office surfaces
// (HR, accounting, inventory administration).
func (r Role) IsBackOffice() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleHRManager, RoleAccountant:
		return true
	default:
		return false
	}
}

// IsField reports whether the role may use the field-operative surfaces
// (POS terminals, delivery, location check-in).
func (r Role) IsField() bool {
	switch r {
	case RoleFieldAgent, RoleCourier:
		return true
	default:
		return false
	}
}
