package console

import (
	"context"
	"time"

	"diamondhost/admin-console/internal/model"
)

type TierCounts struct {
	Star        int `json:"star"`
	Premium     int `json:"premium"`
	PremiumPlus int `json:"premiumPlus"`
}

func (t *TierCounts) add(tier model.Code) {
	switch model.AccountTier(tier) {
	case model.TierStar:
		t.Star++
	case model.TierPremium:
		t.Premium++
	case model.TierPremiumPlus:
		t.PremiumPlus++
	}
}

type MonthGrowth struct {
	Month     string `json:"name"`
	Users     int    `json:"users"`
	Providers int    `json:"providers"`
}

type DashboardStats struct {
	TotalUsers        int           `json:"totalUsers"`
	TotalProviders    int           `json:"totalProviders"`
	NewUsersToday     int           `json:"newUsersToday"`
	NewProvidersToday int           `json:"newProvidersToday"`
	UserTiers         TierCounts    `json:"userTiers"`
	ProviderTiers     TierCounts    `json:"providerTiers"`
	Growth            []MonthGrowth `json:"userGrowth"`
}

func (s *Service) Dashboard(ctx context.Context) (DashboardStats, error) {
	all, err := s.backend.AllUsers(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	return summarize(all, s.now().UTC()), nil
}

// summarize counts registrations by kind, tier, day and month. Entries with
// unreadable dates still count toward totals and tiers.
func summarize(all []model.DashboardUser, now time.Time) DashboardStats {
	stats := DashboardStats{Growth: make([]MonthGrowth, 12)}
	for i := range stats.Growth {
		stats.Growth[i].Month = time.Month(i + 1).String()[:3]
	}
	today := now.Format(dayLayout)

	for _, u := range all {
		registered, dated := parseTimestamp(u.DateOfRegistration)
		newToday := dated && registered.UTC().Format(dayLayout) == today
		switch u.TypeUser {
		case model.TypeUserCustomer:
			stats.TotalUsers++
			stats.UserTiers.add(u.TypeAccount)
			if newToday {
				stats.NewUsersToday++
			}
			if dated {
				stats.Growth[registered.UTC().Month()-1].Users++
			}
		case model.TypeUserProvider:
			stats.TotalProviders++
			stats.ProviderTiers.add(u.TypeAccount)
			if newToday {
				stats.NewProvidersToday++
			}
			if dated {
				stats.Growth[registered.UTC().Month()-1].Providers++
			}
		}
	}
	return stats
}
