package model

import "strings"

// Roles recognized across the platform. Registration validates against this
// set; route gating on both server and client speaks the same names.
const (
	RoleIntern    = "intern"
	RoleEngineer  = "engineer"
	RoleTeamLead  = "team_lead"
	RoleManager   = "manager"
	RoleHR        = "hr"
	RoleRecruiter = "recruiter"
	RoleAdmin     = "admin"
)

var allRoles = map[string]struct{}{
	RoleIntern:    {},
	RoleEngineer:  {},
	RoleTeamLead:  {},
	RoleManager:   {},
	RoleHR:        {},
	RoleRecruiter: {},
	RoleAdmin:     {},
}

func ValidRole(role string) bool {
	_, ok := allRoles[strings.ToLower(strings.TrimSpace(role))]
	return ok
}

// NormalizeRole lowercases and trims a role name; empty input defaults to
// intern, the lowest-privilege role.
func NormalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return RoleIntern
	}
	return role
}

// ElevatedRole reports whether the role may read other users' profiles and
// wellbeing summaries.
func ElevatedRole(role string) bool {
	switch role {
	case RoleTeamLead, RoleManager, RoleHR, RoleAdmin:
		return true
	}
	return false
}
