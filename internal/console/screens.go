package console

import (
	"context"
	"math"
	"strconv"

	"diamondhost/admin-console/internal/listing"
	"diamondhost/admin-console/internal/model"
)

func (s *Service) Users(ctx context.Context, q listing.Query) (listing.Page[model.User], error) {
	items, err := s.users.Load(ctx)
	if err != nil {
		return listing.Page[model.User]{}, err
	}
	filtered := listing.Apply(items,
		listing.Search(q.Search,
			func(u model.User) string { return u.FirstName },
			func(u model.User) string { return u.Email },
			func(u model.User) string { return u.PhoneNumber },
		),
		listing.Exact(q.Field("gender"), func(u model.User) string { return u.Gender }),
		listing.Exact(q.Field("accountType"), func(u model.User) string { return string(u.AccountType) }),
	)
	return listing.Paginate(filtered, q.Page, q.PageSize), nil
}

// UpgradeCandidates is the tier screen's list: users matched by phone
// substring and current tier.
func (s *Service) UpgradeCandidates(ctx context.Context, q listing.Query) (listing.Page[model.User], error) {
	items, err := s.users.Load(ctx)
	if err != nil {
		return listing.Page[model.User]{}, err
	}
	phone := q.Field("phone")
	if phone == "" {
		phone = q.Search
	}
	filtered := listing.Apply(items,
		listing.Search(phone, func(u model.User) string { return u.PhoneNumber }),
		listing.Exact(q.Field("accountType"), func(u model.User) string { return string(u.AccountType) }),
	)
	return listing.Paginate(filtered, q.Page, q.PageSize), nil
}

func (s *Service) Providers(ctx context.Context, q listing.Query) (listing.Page[model.Provider], error) {
	items, err := s.providers.Load(ctx)
	if err != nil {
		return listing.Page[model.Provider]{}, err
	}
	filtered := listing.Apply(items,
		listing.Search(q.Search,
			func(p model.Provider) string { return p.CompanyName },
			func(p model.Provider) string { return p.Email },
		),
		listing.Exact(q.Field("type"), func(p model.Provider) string { return string(p.Type) }),
		listing.Exact(q.Field("accountType"), func(p model.Provider) string { return string(p.AccountType) }),
	)
	return listing.Paginate(filtered, q.Page, q.PageSize), nil
}

func (s *Service) NewEstates(ctx context.Context, q listing.Query) (listing.Page[model.Estate], error) {
	items, err := s.estates.Load(ctx)
	if err != nil {
		return listing.Page[model.Estate]{}, err
	}
	filtered := listing.Apply(items,
		listing.Search(q.Search,
			func(e model.Estate) string { return e.CompanyName },
			func(e model.Estate) string { return e.ProviderName },
			func(e model.Estate) string { return e.City },
		),
		listing.Exact(q.Field("country"), func(e model.Estate) string { return e.Country }),
		listing.Exact(q.Field("type"), func(e model.Estate) string { return string(e.Type) }),
		listing.Exact(q.Field("status"), func(e model.Estate) string { return string(e.Status()) }),
	)
	return listing.Paginate(filtered, q.Page, q.PageSize), nil
}

// PostView is a post with its media split by kind.
type PostView struct {
	model.Post
	StatusLabel string       `json:"statusLabel"`
	Media       []MediaEntry `json:"media"`
}

type MediaEntry struct {
	URL  string          `json:"url"`
	Kind model.MediaKind `json:"kind"`
}

func viewPost(p model.Post) PostView {
	media := make([]MediaEntry, 0, len(p.ImageURLs)+len(p.VideoURLs))
	for _, u := range p.ImageURLs {
		media = append(media, MediaEntry{URL: u, Kind: model.MediaKindOf(u)})
	}
	for _, u := range p.VideoURLs {
		media = append(media, MediaEntry{URL: u, Kind: model.MediaKindOf(u)})
	}
	return PostView{Post: p, StatusLabel: p.PostStatus().Label(), Media: media}
}

func (s *Service) Posts(ctx context.Context, q listing.Query) (listing.Page[PostView], error) {
	items, err := s.posts.Load(ctx)
	if err != nil {
		return listing.Page[PostView]{}, err
	}
	filtered := listing.Apply(items,
		listing.Search(q.Search, func(p model.Post) string { return p.Description }),
		listing.Exact(q.Field("status"), func(p model.Post) string { return string(p.PostStatus()) }),
	)
	page := listing.Paginate(filtered, q.Page, q.PageSize)
	views := make([]PostView, 0, len(page.Items))
	for _, p := range page.Items {
		views = append(views, viewPost(p))
	}
	return listing.Page[PostView]{
		Items:    views,
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
		Pages:    page.Pages,
	}, nil
}

func (s *Service) Feedback(ctx context.Context, q listing.Query) (listing.Page[model.Feedback], error) {
	items, err := s.feedback.Load(ctx)
	if err != nil {
		return listing.Page[model.Feedback]{}, err
	}
	filtered := listing.Apply(items,
		ratingFilter(q.Field("rating"), func(f model.Feedback) float64 { return float64(f.Rating) }),
		dayFilter(q.Field("date"), func(f model.Feedback) string { return string(f.Timestamp) }),
	)
	return listing.Paginate(filtered, q.Page, q.PageSize), nil
}

func (s *Service) ProviderFeedback(ctx context.Context, q listing.Query) (listing.Page[model.ProviderFeedback], error) {
	items, err := s.providerFeedback.Load(ctx)
	if err != nil {
		return listing.Page[model.ProviderFeedback]{}, err
	}
	filtered := listing.Apply(items,
		ratingFilter(q.Field("rating"), func(f model.ProviderFeedback) float64 { return float64(f.Rating) }),
		dayFilter(q.Field("date"), func(f model.ProviderFeedback) string { return string(f.Timestamp) }),
	)
	return listing.Paginate(filtered, q.Page, q.PageSize), nil
}

// ratingFilter keeps items whose rating rounds to the selected whole star.
func ratingFilter[T any](selected string, rating func(T) float64) listing.Predicate[T] {
	if listing.IsAll(selected) {
		return nil
	}
	stars, err := strconv.Atoi(selected)
	if err != nil {
		return func(T) bool { return false }
	}
	return listing.Custom(true, func(item T) bool {
		return int(math.Round(rating(item))) == stars
	})
}

// dayFilter keeps items stamped on the selected calendar day (UTC).
func dayFilter[T any](selected string, stamp func(T) string) listing.Predicate[T] {
	if listing.IsAll(selected) {
		return nil
	}
	day, ok := parseTimestamp(selected)
	if !ok {
		return func(T) bool { return false }
	}
	want := day.UTC().Format(dayLayout)
	return listing.Custom(true, func(item T) bool {
		at, ok := parseTimestamp(stamp(item))
		return ok && at.UTC().Format(dayLayout) == want
	})
}

func bookingSearch(term string) listing.Predicate[model.Booking] {
	return listing.Search(term, func(b model.Booking) string { return b.ID })
}
