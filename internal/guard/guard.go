// Package guard decides whether a session may open a dashboard screen.
package guard

import (
	"diamondhost/admin-console/internal/model"
)

type Decision int

const (
	// Pending means the session store has not resolved yet; callers wait
	// instead of redirecting.
	Pending Decision = iota
	Allow
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Target is where the client is sent for a redirect decision.
func (d Decision) Target() string {
	switch d {
	case RedirectLogin:
		return "/login"
	case RedirectHome:
		return "/"
	default:
		return ""
	}
}

// Policy guards one screen. An empty Roles list admits any authenticated
// session; Public admits everyone.
type Policy struct {
	Pattern string
	Roles   []model.Role
	Public  bool
}

func (p Policy) admits(role model.Role) bool {
	if len(p.Roles) == 0 {
		return true
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize is a pure function of the session state and the policy.
func Authorize(state model.SessionState, policy Policy) Decision {
	if policy.Public {
		return Allow
	}
	if state.Loading {
		return Pending
	}
	if !state.Authenticated {
		return RedirectLogin
	}
	if !policy.admits(state.Role()) {
		return RedirectHome
	}
	return Allow
}
