package auth

// Role is a user role within the moderation workflow. Roles form a strict
// total order: viewer < editor < reviewer < admin.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleEditor   Role = "editor"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

// Roles lists all known roles in ascending privilege order.
var Roles = []Role{RoleViewer, RoleEditor, RoleReviewer, RoleAdmin}

// rolePriority is the single source of truth for the role ordering. Every
// comparison in the codebase goes through rank so no two call sites can
// disagree on relative privilege.
var rolePriority = map[Role]int{
	RoleViewer:   0,
	RoleEditor:   1,
	RoleReviewer: 2,
	RoleAdmin:    3,
}

// rank returns the priority of a role. Unknown roles rank below viewer, so a
// bogus role string can never satisfy any requirement.
func rank(r Role) int {
	if p, ok := rolePriority[r]; ok {
		return p
	}
	return -1
}

// IsValidRole reports whether s names a known role. Matching is exact and
// case-sensitive.
func IsValidRole(s string) bool {
	_, ok := rolePriority[Role(s)]
	return ok
}

// HasRole reports whether current satisfies the required role. An empty or
// unknown current role always fails the check. This function never panics:
// authorization must not be bypassable through an error path.
func HasRole(required, current Role) bool {
	if current == "" {
		return false
	}
	cur := rank(current)
	if cur < 0 {
		return false
	}
	return cur >= rank(required)
}

// ResolveRole extracts the effective role from a set of identity claims.
// Precedence: a "role" string claim naming a known role wins; otherwise the
// highest-ranked known entry of a "roles" list claim; otherwise viewer.
// Malformed or unrecognized values are ignored rather than rejected, so a
// forged claim collapses to the lowest privilege instead of erroring.
func ResolveRole(claims map[string]interface{}) Role {
	if claims == nil {
		return RoleViewer
	}
	if raw, ok := claims["role"].(string); ok && IsValidRole(raw) {
		return Role(raw)
	}
	// JSON decoding yields []interface{}, jwx may hand back []string.
	var list []string
	switch raw := claims["roles"].(type) {
	case []interface{}:
		for _, entry := range raw {
			if s, ok := entry.(string); ok {
				list = append(list, s)
			}
		}
	case []string:
		list = raw
	}
	best := RoleViewer
	found := false
	for _, s := range list {
		if !IsValidRole(s) {
			continue
		}
		if !found || rank(Role(s)) > rank(best) {
			best = Role(s)
			found = true
		}
	}
	if found {
		return best
	}
	return RoleViewer
}
