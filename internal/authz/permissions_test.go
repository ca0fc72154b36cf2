package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluator_CumulativeAcrossHierarchy(t *testing.T) {
	e := NewEvaluator()
	roles := AllRoles()
	for i := 1; i < len(roles); i++ {
		junior, senior := roles[i-1], roles[i]
		for p := range e.grants[junior] {
			assert.True(t, e.HasPermission(senior, p),
				"%s should inherit %q from %s", senior, p, junior)
		}
	}
}

func TestEvaluator_HasPermission(t *testing.T) {
	e := NewEvaluator()

	assert.True(t, e.HasPermission(RoleGuest, PermViewContacts))
	assert.False(t, e.HasPermission(RoleGuest, PermCreateContact))

	assert.True(t, e.HasPermission(RoleUser, PermCreateContact))
	assert.False(t, e.HasPermission(RoleUser, PermDeleteContact))
	assert.False(t, e.HasPermission(RoleUser, PermViewAll))

	assert.True(t, e.HasPermission(RoleManager, PermViewAll))
	assert.True(t, e.HasPermission(RoleManager, PermDeleteDeal))
	assert.False(t, e.HasPermission(RoleManager, PermManageMembers))

	assert.True(t, e.HasPermission(RoleAdmin, PermManageBilling))
	assert.False(t, e.HasPermission(RoleAdmin, PermDeleteWorkspace))

	assert.True(t, e.HasPermission(RoleOwner, PermDeleteWorkspace))
}

func TestEvaluator_NoRoleDeniesAll(t *testing.T) {
	e := NewEvaluator()
	assert.False(t, e.HasPermission("", PermViewContacts))
	assert.False(t, e.HasAllPermissions("", PermViewContacts))
	assert.False(t, e.HasAnyPermission("", PermViewContacts, PermViewDeals))
	assert.False(t, e.HasGroup("", GroupDelete))
}

func TestEvaluator_HasAllPermissions(t *testing.T) {
	e := NewEvaluator()
	assert.True(t, e.HasAllPermissions(RoleManager, PermViewContacts, PermEditContact, PermDeleteContact))
	assert.False(t, e.HasAllPermissions(RoleUser, PermCreateContact, PermDeleteContact))
	assert.True(t, e.HasAllPermissions(RoleGuest))
}

func TestEvaluator_HasAnyPermission(t *testing.T) {
	e := NewEvaluator()
	assert.True(t, e.HasAnyPermission(RoleUser, PermDeleteContact, PermCreateContact))
	assert.False(t, e.HasAnyPermission(RoleGuest, PermDeleteContact, PermManageMembers))
	assert.False(t, e.HasAnyPermission(RoleOwner))
}

func TestEvaluator_Groups(t *testing.T) {
	e := NewEvaluator()

	assert.False(t, e.HasGroup(RoleUser, GroupDelete))
	assert.True(t, e.HasGroup(RoleManager, GroupDelete))
	assert.True(t, e.HasGroup(RoleManager, GroupEdit))
	assert.False(t, e.HasGroup(RoleManager, GroupManage))
	assert.True(t, e.HasGroup(RoleAdmin, GroupManage))
	assert.True(t, e.HasGroup(RoleOwner, GroupManage))

	assert.False(t, e.HasGroup(RoleOwner, "no_such_group"))
}

func TestGroupPermissions(t *testing.T) {
	assert.ElementsMatch(t,
		[]Permission{PermDeleteContact, PermDeleteDeal, PermDeleteActivity},
		GroupPermissions(GroupDelete))
	assert.Empty(t, GroupPermissions("no_such_group"))
}
