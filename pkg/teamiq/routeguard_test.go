package teamiq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouteGuard(t *testing.T) {
	t.Parallel()

	guard := NewRouteGuard()

	tests := []struct {
		route string
		role  string
		want  bool
	}{
		{"/some/unregistered/route", RoleIntern, true},
		{"/dashboard", RoleEngineer, true},
		{"/admin", RoleIntern, false},
		{"/admin", RoleEngineer, false},
		{"/admin", RoleAdmin, true},
		{"/hr", RoleHR, true},
		{"/hr", RoleRecruiter, false},
		{"/recruiting", RoleRecruiter, true},
		{"/recruiting", RoleHR, true},
		{"/recruiting", RoleEngineer, false},
		{"/management", RoleTeamLead, true},
		{"/management", RoleManager, true},
		{"/management", RoleIntern, false},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, guard.CanAccess(tc.route, tc.role),
			"route %s role %s", tc.route, tc.role)
	}
}

func TestRouteGuardRestrictReplaces(t *testing.T) {
	t.Parallel()

	guard := NewRouteGuard()
	guard.Restrict("/admin", RoleAdmin, RoleManager)
	require.True(t, guard.CanAccess("/admin", RoleManager))

	guard.Restrict("/admin", RoleAdmin)
	require.False(t, guard.CanAccess("/admin", RoleManager),
		"Restrict replaces, not merges")
}

func TestRouteGuardUnknownRouteAllowsEveryRole(t *testing.T) {
	t.Parallel()

	guard := NewRouteGuard()
	roles := []string{RoleIntern, RoleEngineer, RoleTeamLead, RoleManager, RoleHR, RoleRecruiter, RoleAdmin}
	for _, role := range roles {
		require.True(t, guard.CanAccess("/profile", role))
	}
}
