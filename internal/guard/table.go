package guard

import (
	"strings"

	"diamondhost/admin-console/internal/model"
)

var (
	anyAdmin   = []model.Role{model.RoleAdmin, model.RoleSuperAdmin}
	superAdmin = []model.Role{model.RoleSuperAdmin}
)

// Table is an ordered, immutable set of screen policies.
type Table struct {
	policies []Policy
	fallback Policy
}

func NewTable(fallback Policy, policies ...Policy) Table {
	out := make([]Policy, len(policies))
	copy(out, policies)
	return Table{policies: out, fallback: fallback}
}

// DefaultTable is the dashboard's route surface.
func DefaultTable() Table {
	dashboard := Policy{Pattern: "/"}
	return NewTable(dashboard,
		Policy{Pattern: "/login", Public: true},
		dashboard,
		Policy{Pattern: "/users", Roles: anyAdmin},
		Policy{Pattern: "/providers", Roles: anyAdmin},
		Policy{Pattern: "/feedback", Roles: anyAdmin},
		Policy{Pattern: "/new-estate", Roles: anyAdmin},
		Policy{Pattern: "/posts", Roles: anyAdmin},
		Policy{Pattern: "/upgrade-account", Roles: anyAdmin},
		Policy{Pattern: "/provider-feedback", Roles: superAdmin},
		Policy{Pattern: "/register-admin", Roles: superAdmin},
		Policy{Pattern: "/admin-section", Roles: superAdmin},
		Policy{Pattern: "/profile/:id"},
		Policy{Pattern: "/estate/:id"},
		Policy{Pattern: "/estate-details/:id"},
		Policy{Pattern: "/estates/details/:id"},
		Policy{Pattern: "/settings"},
	)
}

// Lookup returns the policy registered for exactly this pattern.
func (t Table) Lookup(pattern string) (Policy, bool) {
	for _, p := range t.policies {
		if p.Pattern == pattern {
			return p, true
		}
	}
	return Policy{}, false
}

// Resolve finds the policy for a concrete client path. ok is false when no
// pattern matches; the returned fallback policy then applies.
func (t Table) Resolve(path string) (Policy, bool) {
	segments := split(path)
	for _, p := range t.policies {
		if match(split(p.Pattern), segments) {
			return p, true
		}
	}
	return t.fallback, false
}

// Decide resolves path and authorizes it. Unknown paths send authenticated
// sessions home.
func (t Table) Decide(state model.SessionState, path string) Decision {
	policy, ok := t.Resolve(path)
	decision := Authorize(state, policy)
	if !ok && decision == Allow {
		return RedirectHome
	}
	return decision
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = strings.Trim(path[:i], "/")
	}
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func match(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if path[i] == "" {
				return false
			}
			continue
		}
		if seg != path[i] {
			return false
		}
	}
	return true
}
