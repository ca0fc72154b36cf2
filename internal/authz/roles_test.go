package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Weight_StrictlyIncreasing(t *testing.T) {
	roles := AllRoles()
	for i := 1; i < len(roles); i++ {
		assert.Greater(t, roles[i].Weight(), roles[i-1].Weight(),
			"%s should outweigh %s", roles[i], roles[i-1])
	}
}

func TestRole_Weight_UnknownIsZero(t *testing.T) {
	assert.Equal(t, 0, Role("").Weight())
	assert.Equal(t, 0, Role("superadmin").Weight())
}

func TestRole_CanManage_IffStrictlySenior(t *testing.T) {
	for _, actor := range AllRoles() {
		for _, target := range AllRoles() {
			expected := actor.Weight() > target.Weight()
			assert.Equal(t, expected, actor.CanManage(target),
				"%s managing %s", actor, target)
		}
	}
}

func TestRole_CanManage_SelfAndPeersDenied(t *testing.T) {
	for _, role := range AllRoles() {
		assert.False(t, role.CanManage(role))
	}
	assert.False(t, RoleAdmin.CanManage(RoleOwner))
	assert.False(t, RoleUser.CanManage(RoleManager))
}

func TestRole_CanManage_InvalidRoles(t *testing.T) {
	assert.False(t, Role("").CanManage(RoleGuest))
	assert.False(t, RoleOwner.CanManage(Role("unknown")))
}

func TestRole_AssignableRoles(t *testing.T) {
	assert.Equal(t, []Role{RoleGuest, RoleUser, RoleManager, RoleAdmin}, RoleOwner.AssignableRoles())
	assert.Equal(t, []Role{RoleGuest, RoleUser, RoleManager}, RoleAdmin.AssignableRoles())
	assert.Equal(t, []Role{RoleGuest}, RoleUser.AssignableRoles())
	assert.Empty(t, RoleGuest.AssignableRoles())
}

func TestRole_AssignableRoles_AllManageable(t *testing.T) {
	for _, actor := range AllRoles() {
		for _, assignable := range actor.AssignableRoles() {
			assert.True(t, actor.CanManage(assignable),
				"%s should manage every role it can assign, got %s", actor, assignable)
		}
	}
}
