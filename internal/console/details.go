package console

import (
	"context"

	"diamondhost/admin-console/internal/apperr"
	"diamondhost/admin-console/internal/backend"
	"diamondhost/admin-console/internal/listing"
	"diamondhost/admin-console/internal/model"
)

type EstateDetails struct {
	model.Estate
	CategoryLabel string `json:"categoryLabel"`
	StatusLabel   string `json:"statusLabel"`
	Decidable     bool   `json:"decidable"`
}

// EstateDetails looks an estate up in the pending-estates collection.
func (s *Service) EstateDetails(ctx context.Context, estateID string) (EstateDetails, error) {
	estate, err := s.findEstate(ctx, estateID)
	if err != nil {
		return EstateDetails{}, err
	}
	return EstateDetails{
		Estate:        estate,
		CategoryLabel: estate.Category().Label(),
		StatusLabel:   statusWord(estate.Status()),
		Decidable:     !estate.Status().Terminal(),
	}, nil
}

func (s *Service) findEstate(ctx context.Context, estateID string) (model.Estate, error) {
	estates, err := s.estates.Load(ctx)
	if err != nil {
		return model.Estate{}, err
	}
	for _, e := range estates {
		if e.ID == estateID {
			return e, nil
		}
	}
	return model.Estate{}, apperr.NotFound("estate_not_found")
}

type UserProfile struct {
	User      model.User      `json:"user"`
	TierLabel string          `json:"tierLabel"`
	Bookings  []model.Booking `json:"bookings"`
}

// UserProfile returns a customer with bookings, narrowed by booking ID
// search.
func (s *Service) UserProfile(ctx context.Context, userID, bookingSearchTerm string) (UserProfile, error) {
	data, err := s.backend.UserWithBookings(ctx, userID)
	if err != nil {
		return UserProfile{}, err
	}
	return UserProfile{
		User:      data.User,
		TierLabel: model.AccountTier(data.User.AccountType).Label(),
		Bookings:  listing.Apply(data.Bookings, bookingSearch(bookingSearchTerm)),
	}, nil
}

type EstateProfile struct {
	backend.EstateOwner
	Bookings []model.Booking `json:"bookings"`
}

func (s *Service) EstateProfile(ctx context.Context, estateID, bookingSearchTerm string) (EstateProfile, error) {
	owner, err := s.backend.EstateWithOwner(ctx, estateID)
	if err != nil {
		return EstateProfile{}, err
	}
	bookings, err := s.backend.EstateBookings(ctx, estateID)
	if err != nil {
		return EstateProfile{}, err
	}
	return EstateProfile{
		EstateOwner: owner,
		Bookings:    listing.Apply(bookings, bookingSearch(bookingSearchTerm)),
	}, nil
}

// Admins lists console accounts that hold a role.
func (s *Service) Admins(ctx context.Context, q listing.Query) (listing.Page[model.Profile], error) {
	profiles, err := s.profiles.ListByRoles(ctx, model.RoleAdmin, model.RoleSuperAdmin)
	if err != nil {
		return listing.Page[model.Profile]{}, err
	}
	filtered := listing.Apply(profiles,
		listing.Search(q.Search,
			func(p model.Profile) string { return p.Email },
			func(p model.Profile) string { return p.DisplayName() },
		),
		listing.Exact(q.Field("role"), func(p model.Profile) string { return string(p.Role) }),
	)
	return listing.Paginate(filtered, q.Page, q.PageSize), nil
}
