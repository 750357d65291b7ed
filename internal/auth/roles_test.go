package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleGroupsAreExclusive(t *testing.T) {
	all := []Role{RoleOwner, RoleAdmin, RoleHRManager, RoleAccountant, RoleFieldAgent, RoleCourier, RoleUnknown}
	for _, r := range all {
		assert.False(t, r.IsBackOffice() && r.IsField(),
			"role %q must not belong to both capability groups", r)
	}
}

func TestRoleGroups(t *testing.T) {
	for _, r := range []Role{RoleOwner, RoleAdmin, RoleHRManager, RoleAccountant} {
		assert.True(t, r.IsBackOffice(), "role %q", r)
		assert.False(t, r.IsField(), "role %q", r)
	}
	for _, r := range []Role{RoleFieldAgent, RoleCourier} {
		assert.True(t, r.IsField(), "role %q", r)
		assert.False(t, r.IsBackOffice(), "role %q", r)
	}
}

func TestUnknownRoleInNeitherGroup(t *testing.T) {
	r := ParseRole("superuser")
	assert.Equal(t, RoleUnknown, r)
	assert.False(t, r.IsBackOffice())
	assert.False(t, r.IsField())
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleHRManager, ParseRole("hr_manager"))
	assert.Equal(t, RoleCourier, ParseRole("courier"))
	assert.Equal(t, RoleUnknown, ParseRole(""))
	assert.Equal(t, RoleUnknown, ParseRole("Admin"), "role matching is case sensitive")
}
