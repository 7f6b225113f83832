package guard

import "diamondhost/admin-console/internal/model"

type MenuEntry struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

type menuItem struct {
	MenuEntry
	roles []model.Role
}

// The sidebar shows Dashboard to super admins only, although the screen
// itself is open to every signed-in account.
var menu = []menuItem{
	{MenuEntry{"Dashboard", "/"}, superAdmin},
	{MenuEntry{"Users", "/users"}, anyAdmin},
	{MenuEntry{"Providers", "/providers"}, anyAdmin},
	{MenuEntry{"Customer Feedback", "/feedback"}, anyAdmin},
	{MenuEntry{"New Estate", "/new-estate"}, anyAdmin},
	{MenuEntry{"Posts", "/posts"}, anyAdmin},
	{MenuEntry{"Upgrade Account", "/upgrade-account"}, anyAdmin},
	{MenuEntry{"Admin Section", "/admin-section"}, superAdmin},
	{MenuEntry{"Provider Feedback", "/provider-feedback"}, superAdmin},
	{MenuEntry{"Register New Admin", "/register-admin"}, superAdmin},
	{MenuEntry{"Settings", "/settings"}, nil},
}

// Menu lists the navigation entries for a session. Entries are shown only
// when both the entry and the screen policy admit the session.
func (t Table) Menu(state model.SessionState) []MenuEntry {
	out := []MenuEntry{}
	if state.Loading || !state.Authenticated {
		return out
	}
	role := state.Role()
	for _, item := range menu {
		if !(Policy{Roles: item.roles}).admits(role) {
			continue
		}
		if t.Decide(state, item.Path) != Allow {
			continue
		}
		out = append(out, item.MenuEntry)
	}
	return out
}
