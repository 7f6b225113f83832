package model

import "time"

type Session struct {
	ID            string
	UID           string
	Email         string
	IdentityToken string
	RefreshToken  string
	ExpiresAt     time.Time
	Profile       *Profile
	Device        string
	CreatedAt     time.Time
}

// Authenticated holds iff an identity token is present and has not expired by
// the local clock.
func (s Session) Authenticated(now time.Time) bool {
	return s.IdentityToken != "" && now.Before(s.ExpiresAt)
}

// Role is the profile role, RoleNone for identities without a profile.
func (s Session) Role() Role {
	if s.Profile == nil {
		return RoleNone
	}
	return s.Profile.Role
}

// SessionState is the view of a session the route guard decides on.
type SessionState struct {
	Loading       bool
	Authenticated bool
	Profile       *Profile
	ExpiresAt     time.Time
}

func (s SessionState) Role() Role {
	if s.Profile == nil {
		return RoleNone
	}
	return s.Profile.Role
}
