package authz

import "github.com/google/uuid"

// Role is a workspace role, totally ordered by seniority. The zero value
// denotes an unauthenticated or unresolved principal and is denied everything.
type Role string

const (
	RoleGuest   Role = "guest"
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
	RoleOwner   Role = "owner"
)

var roleWeights = map[Role]int{
	RoleGuest:   1,
	RoleUser:    2,
	RoleManager: 3,
	RoleAdmin:   4,
	RoleOwner:   5,
}

// rolesBySeniority lists every role from junior to senior.
var rolesBySeniority = []Role{RoleGuest, RoleUser, RoleManager, RoleAdmin, RoleOwner}

func AllRoles() []Role {
	out := make([]Role, len(rolesBySeniority))
	copy(out, rolesBySeniority)
	return out
}

func (r Role) Valid() bool {
	_, ok := roleWeights[r]
	return ok
}

// Weight returns the role's position in the hierarchy; unknown roles weigh 0.
func (r Role) Weight() int {
	return roleWeights[r]
}

func (r Role) IsSeniorTo(other Role) bool {
	return r.Weight() > other.Weight()
}

// CanManage reports whether r may change or remove a membership holding
// target. Strict seniority is required: peers and seniors are off limits no
// matter what permission tokens r holds.
func (r Role) CanManage(target Role) bool {
	if !r.Valid() || !target.Valid() {
		return false
	}
	return r.IsSeniorTo(target)
}

// AssignableRoles returns the roles strictly junior to r, junior first. An
// actor can only hand out roles it could later manage.
func (r Role) AssignableRoles() []Role {
	var out []Role
	for _, candidate := range rolesBySeniority {
		if r.IsSeniorTo(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

// Principal is an authenticated member acting inside one workspace.
type Principal struct {
	ID   uuid.UUID
	Role Role
}
