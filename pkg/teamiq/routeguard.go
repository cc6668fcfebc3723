package teamiq

// Role names the platform recognizes. They match the server's user roles.
const (
	RoleIntern    = "intern"
	RoleEngineer  = "engineer"
	RoleTeamLead  = "team_lead"
	RoleManager   = "manager"
	RoleHR        = "hr"
	RoleRecruiter = "recruiter"
	RoleAdmin     = "admin"
)

// RouteGuard decides whether a role may see a route. It is a rendering
// convenience only: the server re-checks authorization on every request,
// the guard just avoids presenting screens that would fail.
//
// Routes are opt-in restricted. A route with no declared rule is open to
// any authenticated role; this permissive default is deliberate.
type RouteGuard struct {
	allowed map[string]map[string]struct{}
}

// NewRouteGuard returns a guard carrying the dashboard's standard
// restrictions.
func NewRouteGuard() *RouteGuard {
	g := &RouteGuard{allowed: make(map[string]map[string]struct{})}
	g.Restrict("/admin", RoleAdmin)
	g.Restrict("/hr", RoleHR, RoleAdmin)
	g.Restrict("/recruiting", RoleRecruiter, RoleHR, RoleAdmin)
	g.Restrict("/management", RoleManager, RoleTeamLead, RoleAdmin)
	return g
}

// Restrict replaces the allow-list for a route.
func (g *RouteGuard) Restrict(route string, roles ...string) {
	set := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	g.allowed[route] = set
}

// CanAccess reports whether role may render route.
func (g *RouteGuard) CanAccess(route string, role string) bool {
	set, ok := g.allowed[route]
	if !ok {
		return true
	}
	_, ok = set[role]
	return ok
}
