package guard

import (
	"testing"

	"diamondhost/admin-console/internal/model"
)

func stateFor(role model.Role) model.SessionState {
	state := model.SessionState{Authenticated: true}
	if role != model.RoleNone {
		state.Profile = &model.Profile{UID: "u", Role: role}
	}
	return state
}

func TestAuthorizeBranches(t *testing.T) {
	adminsOnly := Policy{Pattern: "/users", Roles: []model.Role{model.RoleAdmin, model.RoleSuperAdmin}}
	cases := []struct {
		name   string
		state  model.SessionState
		policy Policy
		expect Decision
	}{
		{"loading", model.SessionState{Loading: true, Authenticated: true}, adminsOnly, Pending},
		{"anonymous", model.SessionState{}, adminsOnly, RedirectLogin},
		{"plain user", stateFor(model.RoleNone), adminsOnly, RedirectHome},
		{"admin", stateFor(model.RoleAdmin), adminsOnly, Allow},
		{"open policy", stateFor(model.RoleNone), Policy{Pattern: "/settings"}, Allow},
		{"public while loading", model.SessionState{Loading: true}, Policy{Pattern: "/login", Public: true}, Allow},
	}
	for _, tc := range cases {
		if got := Authorize(tc.state, tc.policy); got != tc.expect {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expect, got)
		}
	}
}

func TestAdminAgainstSuperAdminPolicy(t *testing.T) {
	admin := stateFor(model.RoleAdmin)
	if got := Authorize(admin, Policy{Roles: []model.Role{model.RoleAdmin, model.RoleSuperAdmin}}); got != Allow {
		t.Fatalf("expected allow, got %s", got)
	}
	got := Authorize(admin, Policy{Roles: []model.Role{model.RoleSuperAdmin}})
	if got != RedirectHome || got.Target() != "/" {
		t.Fatalf("expected redirect home, got %s", got)
	}
}

func TestAuthorizeIsPure(t *testing.T) {
	state := stateFor(model.RoleAdmin)
	policy := Policy{Roles: []model.Role{model.RoleSuperAdmin}}
	first := Authorize(state, policy)
	for i := 0; i < 5; i++ {
		if Authorize(state, policy) != first {
			t.Fatalf("expected identical decisions for identical input")
		}
	}
	if state.Profile.Role != model.RoleAdmin || len(policy.Roles) != 1 {
		t.Fatalf("inputs must not be modified")
	}
}

func TestTableDecide(t *testing.T) {
	table := DefaultTable()
	admin := stateFor(model.RoleAdmin)
	super := stateFor(model.RoleSuperAdmin)

	cases := []struct {
		state  model.SessionState
		path   string
		expect Decision
	}{
		{admin, "/", Allow},
		{admin, "/users", Allow},
		{admin, "/users/", Allow},
		{admin, "/provider-feedback", RedirectHome},
		{super, "/provider-feedback", Allow},
		{admin, "/profile/abc123", Allow},
		{admin, "/estate-details/e1?tab=docs", Allow},
		{admin, "/profile", RedirectHome},
		{admin, "/no-such-screen", RedirectHome},
		{model.SessionState{}, "/no-such-screen", RedirectLogin},
		{model.SessionState{}, "/login", Allow},
		{stateFor(model.RoleNone), "/posts", RedirectHome},
	}
	for _, tc := range cases {
		if got := table.Decide(tc.state, tc.path); got != tc.expect {
			t.Fatalf("%s as %q: expected %s, got %s", tc.path, tc.state.Role(), tc.expect, got)
		}
	}
}

func TestMenuFollowsRole(t *testing.T) {
	table := DefaultTable()
	labels := func(entries []MenuEntry) map[string]bool {
		out := map[string]bool{}
		for _, e := range entries {
			out[e.Path] = true
		}
		return out
	}

	admin := labels(table.Menu(stateFor(model.RoleAdmin)))
	if !admin["/users"] || !admin["/posts"] || admin["/register-admin"] || admin["/"] {
		t.Fatalf("unexpected admin menu %v", admin)
	}
	super := labels(table.Menu(stateFor(model.RoleSuperAdmin)))
	if !super["/"] || !super["/register-admin"] || !super["/settings"] {
		t.Fatalf("unexpected super admin menu %v", super)
	}
	plain := table.Menu(stateFor(model.RoleNone))
	if len(plain) != 1 || plain[0].Path != "/settings" {
		t.Fatalf("unexpected plain user menu %v", plain)
	}
	if len(table.Menu(model.SessionState{})) != 0 {
		t.Fatalf("expected empty menu when signed out")
	}
}
