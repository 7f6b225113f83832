package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleNone       Role = ""
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superAdmin"
)

// ParseRole accepts the two assignable console roles.
func ParseRole(raw string) (Role, bool) {
	switch strings.TrimSpace(raw) {
	case string(RoleAdmin):
		return RoleAdmin, true
	case string(RoleSuperAdmin):
		return RoleSuperAdmin, true
	default:
		return RoleNone, false
	}
}

// Profile is the console record of an identity, keyed by the provider UID.
type Profile struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p Profile) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
