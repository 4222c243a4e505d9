package entity

// Role is the coarse capability class assigned to every account.
// The set is closed; extend it here and in the role CHECK constraint together.
type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleClient, RoleFreelancer}
}

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleFreelancer:
		return true
	}
	return false
}

// ParseRole returns the role matching s, or def when s is empty or unknown.
func ParseRole(s string, def Role) Role {
	r := Role(s)
	if r.Valid() {
		return r
	}
	return def
}
