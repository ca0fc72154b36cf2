package authz

// Permission is an opaque token naming a single allowed action.
type Permission string

const (
	PermViewContacts   Permission = "view_contacts"
	PermCreateContact  Permission = "create_contact"
	PermEditContact    Permission = "edit_contact"
	PermDeleteContact  Permission = "delete_contact"
	PermViewDeals      Permission = "view_deals"
	PermCreateDeal     Permission = "create_deal"
	PermEditDeal       Permission = "edit_deal"
	PermDeleteDeal     Permission = "delete_deal"
	PermViewActivities Permission = "view_activities"
	PermCreateActivity Permission = "create_activity"
	PermEditActivity   Permission = "edit_activity"
	PermDeleteActivity Permission = "delete_activity"

	// PermViewAll grants workspace-wide visibility regardless of the
	// workspace's visibility mode.
	PermViewAll Permission = "view_all"
	// PermEditOwn lets a junior role mutate resources it created or owns.
	PermEditOwn Permission = "edit_own"

	PermViewMembers     Permission = "view_members"
	PermInviteMember    Permission = "invite_member"
	PermManageMembers   Permission = "manage_members"
	PermManageWorkspace Permission = "manage_workspace"
	PermManageBilling   Permission = "manage_billing"
	PermDeleteWorkspace Permission = "delete_workspace"
)

// Named permission groups, so callers can gate on a family of actions
// without enumerating every token.
const (
	GroupDelete = "delete"
	GroupEdit   = "edit"
	GroupManage = "manage"
)

var permissionGroups = map[string][]Permission{
	GroupDelete: {PermDeleteContact, PermDeleteDeal, PermDeleteActivity},
	GroupEdit:   {PermEditContact, PermEditDeal, PermEditActivity},
	GroupManage: {PermInviteMember, PermManageMembers, PermManageWorkspace, PermManageBilling},
}

// GroupPermissions returns the tokens in a named group, or nil for an
// unknown group.
func GroupPermissions(group string) []Permission {
	perms := permissionGroups[group]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// basePermissions holds each role's own grants. The effective set is the
// cumulative closure over the hierarchy, computed once by NewEvaluator.
var basePermissions = map[Role][]Permission{
	RoleGuest: {
		PermViewContacts, PermViewDeals, PermViewActivities,
	},
	RoleUser: {
		PermCreateContact, PermCreateDeal, PermCreateActivity, PermEditOwn,
	},
	RoleManager: {
		PermViewAll, PermViewMembers,
		PermEditContact, PermEditDeal, PermEditActivity,
		PermDeleteContact, PermDeleteDeal, PermDeleteActivity,
	},
	RoleAdmin: {
		PermInviteMember, PermManageMembers, PermManageWorkspace, PermManageBilling,
	},
	RoleOwner: {
		PermDeleteWorkspace,
	},
}

// Evaluator answers (role, permission) questions from an immutable table
// built once at construction and injected where needed. Roles are
// cumulative: owner ⊇ admin ⊇ manager ⊇ user ⊇ guest.
type Evaluator struct {
	grants map[Role]map[Permission]struct{}
}

func NewEvaluator() *Evaluator {
	grants := make(map[Role]map[Permission]struct{}, len(rolesBySeniority))
	inherited := make(map[Permission]struct{})
	for _, role := range rolesBySeniority {
		for _, p := range basePermissions[role] {
			inherited[p] = struct{}{}
		}
		set := make(map[Permission]struct{}, len(inherited))
		for p := range inherited {
			set[p] = struct{}{}
		}
		grants[role] = set
	}
	return &Evaluator{grants: grants}
}

// HasPermission reports whether role holds the token. An invalid or empty
// role denies everything.
func (e *Evaluator) HasPermission(role Role, p Permission) bool {
	set, ok := e.grants[role]
	if !ok {
		return false
	}
	_, ok = set[p]
	return ok
}

// HasAllPermissions is conjunctive over the tokens, short-circuiting on a
// missing role.
func (e *Evaluator) HasAllPermissions(role Role, perms ...Permission) bool {
	if _, ok := e.grants[role]; !ok {
		return false
	}
	for _, p := range perms {
		if !e.HasPermission(role, p) {
			return false
		}
	}
	return true
}

// HasAnyPermission is disjunctive over the tokens.
func (e *Evaluator) HasAnyPermission(role Role, perms ...Permission) bool {
	if _, ok := e.grants[role]; !ok {
		return false
	}
	for _, p := range perms {
		if e.HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasGroup reports whether role holds every token in the named group.
func (e *Evaluator) HasGroup(role Role, group string) bool {
	perms, ok := permissionGroups[group]
	if !ok {
		return false
	}
	return e.HasAllPermissions(role, perms...)
}

// rolesWith lists the roles holding a token, junior first. Used to derive
// the storage-layer policy predicates from the same table.
func (e *Evaluator) rolesWith(p Permission) []Role {
	var out []Role
	for _, role := range rolesBySeniority {
		if e.HasPermission(role, p) {
			out = append(out, role)
		}
	}
	return out
}
