// Package console implements the dashboard screens on top of the Diamond
// Host backend: list filters, detail views and the estate, post and tier
// transitions.
package console

import (
	"context"
	"log/slog"
	"time"

	"diamondhost/admin-console/internal/backend"
	"diamondhost/admin-console/internal/listing"
	"diamondhost/admin-console/internal/metrics"
	"diamondhost/admin-console/internal/model"
	"diamondhost/admin-console/internal/notify"
	"diamondhost/admin-console/internal/profile"
)

// Backend is the part of the REST backend the console uses.
type Backend interface {
	Users(ctx context.Context) ([]model.User, error)
	Providers(ctx context.Context) ([]model.Provider, error)
	NewEstates(ctx context.Context) ([]model.Estate, error)
	Posts(ctx context.Context) ([]model.Post, error)
	Feedbacks(ctx context.Context) ([]model.Feedback, error)
	ProviderFeedback(ctx context.Context) ([]model.ProviderFeedback, error)
	AllUsers(ctx context.Context) ([]model.DashboardUser, error)
	UserWithBookings(ctx context.Context, userID string) (backend.UserBookings, error)
	EstateWithOwner(ctx context.Context, estateID string) (backend.EstateOwner, error)
	EstateBookings(ctx context.Context, estateID string) ([]model.Booking, error)
	SetEstateAcceptance(ctx context.Context, category, estateID string, status model.EstateStatus) error
	SendDecisionSMS(ctx context.Context, status model.EstateStatus, to, sender string) error
	SetPostStatus(ctx context.Context, postID string, status model.PostStatus) error
	SetUserTier(ctx context.Context, userID string, tier model.AccountTier) error
	AddFeedbackComment(ctx context.Context, feedbackID, text, author string) error
}

// Broadcaster receives console events, typically the notification hub.
type Broadcaster interface {
	Broadcast(event notify.Event, roles ...model.Role)
}

type Options struct {
	SMSSender string
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Events    Broadcaster
	Now       func() time.Time
}

type Service struct {
	backend   Backend
	profiles  profile.Store
	smsSender string
	metrics   *metrics.Metrics
	log       *slog.Logger
	events    Broadcaster
	now       func() time.Time

	users            *listing.Controller[model.User]
	providers        *listing.Controller[model.Provider]
	estates          *listing.Controller[model.Estate]
	posts            *listing.Controller[model.Post]
	feedback         *listing.Controller[model.Feedback]
	providerFeedback *listing.Controller[model.ProviderFeedback]
}

func NewService(b Backend, profiles profile.Store, opts Options) *Service {
	if opts.SMSSender == "" {
		opts.SMSSender = "DiamondHost"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		backend:          b,
		profiles:         profiles,
		smsSender:        opts.SMSSender,
		metrics:          opts.Metrics,
		log:              opts.Logger,
		events:           opts.Events,
		now:              opts.Now,
		users:            listing.NewController(b.Users),
		providers:        listing.NewController(b.Providers),
		estates:          listing.NewController(b.NewEstates),
		posts:            listing.NewController(b.Posts),
		feedback:         listing.NewController(b.Feedbacks),
		providerFeedback: listing.NewController(b.ProviderFeedback),
	}
}

// LoadEstates and LoadPosts refresh the shared snapshots; the pollers use
// them.
func (s *Service) LoadEstates(ctx context.Context) ([]model.Estate, error) {
	return s.estates.Load(ctx)
}

func (s *Service) LoadPosts(ctx context.Context) ([]model.Post, error) {
	return s.posts.Load(ctx)
}
