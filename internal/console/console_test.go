package console

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"diamondhost/admin-console/internal/apperr"
	"diamondhost/admin-console/internal/backend"
	"diamondhost/admin-console/internal/listing"
	"diamondhost/admin-console/internal/model"
	"diamondhost/admin-console/internal/notify"
	"diamondhost/admin-console/internal/profile"
)

type acceptanceCall struct {
	category string
	id       string
	status   model.EstateStatus
}

type fakeBackend struct {
	users       []model.User
	estates     []model.Estate
	posts       []model.Post
	feedback    []model.Feedback
	allUsers    []model.DashboardUser
	bookings    []model.Booking
	smsErr      error
	acceptances []acceptanceCall
	sms         []string
	postStatus  map[string]model.PostStatus
	tiers       map[string]model.AccountTier
	comments    []string
	calls       int
}

func (f *fakeBackend) Users(context.Context) ([]model.User, error) {
	f.calls++
	return f.users, nil
}
func (f *fakeBackend) Providers(context.Context) ([]model.Provider, error) { return nil, nil }
func (f *fakeBackend) NewEstates(context.Context) ([]model.Estate, error) {
	f.calls++
	return f.estates, nil
}
func (f *fakeBackend) Posts(context.Context) ([]model.Post, error) {
	f.calls++
	return f.posts, nil
}
func (f *fakeBackend) Feedbacks(context.Context) ([]model.Feedback, error) { return f.feedback, nil }
func (f *fakeBackend) ProviderFeedback(context.Context) ([]model.ProviderFeedback, error) {
	return nil, nil
}
func (f *fakeBackend) AllUsers(context.Context) ([]model.DashboardUser, error) {
	return f.allUsers, nil
}
func (f *fakeBackend) UserWithBookings(_ context.Context, id string) (backend.UserBookings, error) {
	return backend.UserBookings{User: model.User{ID: id, AccountType: "2"}, Bookings: f.bookings}, nil
}
func (f *fakeBackend) EstateWithOwner(_ context.Context, id string) (backend.EstateOwner, error) {
	return backend.EstateOwner{Estate: model.Estate{ID: id}}, nil
}
func (f *fakeBackend) EstateBookings(context.Context, string) ([]model.Booking, error) {
	return f.bookings, nil
}
func (f *fakeBackend) SetEstateAcceptance(_ context.Context, category, id string, status model.EstateStatus) error {
	f.calls++
	f.acceptances = append(f.acceptances, acceptanceCall{category, id, status})
	return nil
}
func (f *fakeBackend) SendDecisionSMS(_ context.Context, status model.EstateStatus, to, _ string) error {
	f.sms = append(f.sms, string(status)+":"+to)
	return f.smsErr
}
func (f *fakeBackend) SetPostStatus(_ context.Context, id string, status model.PostStatus) error {
	f.calls++
	if f.postStatus == nil {
		f.postStatus = map[string]model.PostStatus{}
	}
	f.postStatus[id] = status
	return nil
}
func (f *fakeBackend) SetUserTier(_ context.Context, id string, tier model.AccountTier) error {
	if f.tiers == nil {
		f.tiers = map[string]model.AccountTier{}
	}
	f.tiers[id] = tier
	return nil
}
func (f *fakeBackend) AddFeedbackComment(_ context.Context, _ string, text, author string) error {
	f.comments = append(f.comments, author+": "+text)
	return nil
}

type recordingEvents struct{ events []notify.Event }

func (r *recordingEvents) Broadcast(e notify.Event, _ ...model.Role) { r.events = append(r.events, e) }

func newService(b *fakeBackend, events Broadcaster) *Service {
	opts := Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC) },
	}
	if events != nil {
		opts.Events = events
	}
	return NewService(b, profile.NewMemoryStore(), opts)
}

func query(raw string) listing.Query {
	values, _ := url.ParseQuery(raw)
	return listing.ParseQuery(values)
}

func fiveUsers() []model.User {
	return []model.User{
		{ID: "1", FirstName: "Amal", Email: "amal@diamond.host", Gender: "Female", AccountType: "1"},
		{ID: "2", FirstName: "Badr", Email: "badr@diamond.host", Gender: "Male", AccountType: "2"},
		{ID: "3", FirstName: "Chadi", Email: "chadi@mail.com", Gender: "Male", AccountType: "1"},
		{ID: "4", FirstName: "Dina", Email: "dina@mail.com", Gender: "Female", AccountType: "3"},
		{ID: "5", FirstName: "Eyad", Email: "eyad@mail.com", Gender: "Male", AccountType: "1"},
	}
}

func TestUsersSearchThenGender(t *testing.T) {
	svc := newService(&fakeBackend{users: fiveUsers()}, nil)
	ctx := context.Background()

	page, err := svc.Users(ctx, query("search=diamond.host"))
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", page.Total)
	}
	page, _ = svc.Users(ctx, query("search=diamond.host&gender=Female"))
	if page.Total != 1 || page.Items[0].ID != "1" {
		t.Fatalf("expected only Amal, got %+v", page.Items)
	}
	page, _ = svc.Users(ctx, query("gender=All&accountType=1"))
	if page.Total != 3 {
		t.Fatalf("expected 3 star users, got %d", page.Total)
	}
	page, _ = svc.Users(ctx, query("page=7"))
	if len(page.Items) != 0 || page.Total != 5 {
		t.Fatalf("expected empty out-of-range page, got %+v", page)
	}
}

func TestRejectEstateSurvivesSMSFailure(t *testing.T) {
	fb := &fakeBackend{
		estates: []model.Estate{{ID: "e1", Type: "1", Phone: "+212600000001"}},
		smsErr:  errors.New("sms gateway down"),
	}
	events := &recordingEvents{}
	svc := newService(fb, events)

	result, err := svc.DecideEstate(context.Background(), "e1", Reject, true)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if len(fb.acceptances) != 1 || fb.acceptances[0] != (acceptanceCall{"Hottel", "e1", "3"}) {
		t.Fatalf("unexpected acceptance calls %+v", fb.acceptances)
	}
	if len(fb.sms) != 1 || fb.sms[0] != "3:+212600000001" {
		t.Fatalf("expected one rejection sms, got %v", fb.sms)
	}
	if result.SMSDelivered || result.Status != model.EstateRejected || result.Redirect != "/new-estate" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(events.events) != 1 || events.events[0].Type != notify.EventEstateDecision {
		t.Fatalf("expected a decision event, got %+v", events.events)
	}
}

func TestEstateDecisionGuards(t *testing.T) {
	fb := &fakeBackend{estates: []model.Estate{
		{ID: "e1", Type: "2"},
		{ID: "done", Type: "2", IsAccepted: "2"},
		{ID: "odd", Type: "9"},
	}}
	svc := newService(fb, nil)
	ctx := context.Background()

	if _, err := svc.DecideEstate(ctx, "e1", Accept, false); !errors.Is(err, apperr.ErrConfirmationMissing) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if fb.calls != 0 {
		t.Fatalf("expected no backend call without confirmation, got %d", fb.calls)
	}
	if _, err := svc.DecideEstate(ctx, "done", Reject, true); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for decided estate, got %v", err)
	}
	if _, err := svc.DecideEstate(ctx, "missing", Accept, true); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.DecideEstate(ctx, "odd", Accept, true); apperr.CodeOf(err) != "unknown_category" {
		t.Fatalf("expected unknown category, got %v", err)
	}
	result, err := svc.DecideEstate(ctx, "e1", Accept, true)
	if err != nil || !result.SMSDelivered || fb.acceptances[0].category != "Coffee" || fb.acceptances[0].status != "2" {
		t.Fatalf("unexpected accept %+v %v %+v", result, err, fb.acceptances)
	}
}

func TestDecidePost(t *testing.T) {
	fb := &fakeBackend{posts: []model.Post{
		{ID: "p1", Description: "new pool", Status: "0"},
		{ID: "p2", Description: "old", Status: "1"},
	}}
	svc := newService(fb, nil)
	ctx := context.Background()

	if _, err := svc.DecidePost(ctx, "p1", Reject, false); !errors.Is(err, apperr.ErrConfirmationMissing) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	got, err := svc.DecidePost(ctx, "p1", Reject, true)
	if err != nil || got.Status != model.PostRejected || fb.postStatus["p1"] != model.PostRejected {
		t.Fatalf("unexpected decision %+v %v", got, err)
	}
	if _, err := svc.DecidePost(ctx, "p2", Accept, true); apperr.CodeOf(err) != "post_already_decided" {
		t.Fatalf("expected decided post conflict, got %v", err)
	}
}

func TestPostsExposeMediaKinds(t *testing.T) {
	fb := &fakeBackend{posts: []model.Post{
		{ID: "p1", Description: "Sea view", Status: "0", ImageURLs: model.URLSet{"https://cdn/a.jpg"}, VideoURLs: model.URLSet{"https://cdn/b.mp4"}},
		{ID: "p2", Description: "Menu", Status: "1"},
	}}
	svc := newService(fb, nil)
	page, err := svc.Posts(context.Background(), query("status=0"))
	if err != nil {
		t.Fatalf("posts: %v", err)
	}
	if page.Total != 1 || len(page.Items[0].Media) != 2 {
		t.Fatalf("unexpected posts page %+v", page)
	}
	if page.Items[0].Media[0].Kind != model.MediaImage || page.Items[0].Media[1].Kind != model.MediaVideo {
		t.Fatalf("unexpected media kinds %+v", page.Items[0].Media)
	}
	if page.Items[0].StatusLabel != "Under Process" {
		t.Fatalf("unexpected label %q", page.Items[0].StatusLabel)
	}
}

func TestChangeTierAndComment(t *testing.T) {
	fb := &fakeBackend{}
	svc := newService(fb, nil)
	ctx := context.Background()

	if _, err := svc.ChangeTier(ctx, "u1", "7"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	tier, err := svc.ChangeTier(ctx, "u1", "3")
	if err != nil || tier != model.TierPremiumPlus || fb.tiers["u1"] != model.TierPremiumPlus {
		t.Fatalf("unexpected tier change %v %v", tier, err)
	}
	if _, err := svc.ChangeTier(ctx, "u1", "1"); err != nil {
		t.Fatalf("tiers move freely, got %v", err)
	}

	if err := svc.AddComment(ctx, "f1", "  ", nil); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected empty comment rejection, got %v", err)
	}
	_ = svc.AddComment(ctx, "f1", "Thanks!", nil)
	_ = svc.AddComment(ctx, "f1", "Noted", &model.Profile{FirstName: "Ada"})
	if len(fb.comments) != 2 || fb.comments[0] != "Unknown User: Thanks!" || fb.comments[1] != "Ada: Noted" {
		t.Fatalf("unexpected comments %v", fb.comments)
	}
}

func TestFeedbackRatingAndDayFilters(t *testing.T) {
	fb := &fakeBackend{feedback: []model.Feedback{
		{FeedbackID: "a", Rating: 4.4, Timestamp: "2026-10-17T08:30:00Z"},
		{FeedbackID: "b", Rating: 4.5, Timestamp: "2026-10-16T23:59:00Z"},
		{FeedbackID: "c", Rating: 3.6, Timestamp: "2026-10-17T12:00:00Z"},
		{FeedbackID: "d", Rating: 2, Timestamp: "1792231200000"},
	}}
	svc := newService(fb, nil)
	ctx := context.Background()

	page, _ := svc.Feedback(ctx, query("rating=4"))
	if page.Total != 2 {
		t.Fatalf("expected 4.4 and 3.6 to round to 4, got %d", page.Total)
	}
	page, _ = svc.Feedback(ctx, query("rating=4&date=2026-10-17"))
	if page.Total != 2 || page.Items[0].FeedbackID != "a" || page.Items[1].FeedbackID != "c" {
		t.Fatalf("unexpected day filter %+v", page.Items)
	}
	page, _ = svc.Feedback(ctx, query("rating=5"))
	if page.Total != 1 || page.Items[0].FeedbackID != "b" {
		t.Fatalf("expected 4.5 to round to 5, got %+v", page.Items)
	}
	page, _ = svc.Feedback(ctx, query("date=2026-10-17"))
	if page.Total != 3 || page.Items[2].FeedbackID != "d" {
		t.Fatalf("expected epoch stamped feedback on its day, got %+v", page.Items)
	}
}

func TestDashboardSummary(t *testing.T) {
	fb := &fakeBackend{allUsers: []model.DashboardUser{
		{TypeUser: "1", TypeAccount: "1", DateOfRegistration: "2026-10-17"},
		{TypeUser: "1", TypeAccount: "3", DateOfRegistration: "2026-03-02T10:00:00Z"},
		{TypeUser: "2", TypeAccount: "2", DateOfRegistration: "2026-10-17T09:00:00Z"},
		{TypeUser: "2", TypeAccount: "2", DateOfRegistration: "not a date"},
		{TypeUser: "9", TypeAccount: "1", DateOfRegistration: "2026-10-17"},
	}}
	stats, err := newService(fb, nil).Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if stats.TotalUsers != 2 || stats.TotalProviders != 2 || stats.NewUsersToday != 1 || stats.NewProvidersToday != 1 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if stats.UserTiers != (TierCounts{Star: 1, PremiumPlus: 1}) || stats.ProviderTiers.Premium != 2 {
		t.Fatalf("unexpected tiers %+v / %+v", stats.UserTiers, stats.ProviderTiers)
	}
	if stats.Growth[9].Month != "Oct" || stats.Growth[9].Users != 1 || stats.Growth[9].Providers != 1 || stats.Growth[2].Users != 1 {
		t.Fatalf("unexpected growth %+v", stats.Growth)
	}
}

func TestProfileBookingSearch(t *testing.T) {
	fb := &fakeBackend{bookings: []model.Booking{{ID: "bk-100"}, {ID: "bk-200"}}}
	svc := newService(fb, nil)
	prof, err := svc.UserProfile(context.Background(), "u1", "100")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(prof.Bookings) != 1 || prof.TierLabel != "Premium" {
		t.Fatalf("unexpected profile %+v", prof)
	}
	estate, err := svc.EstateProfile(context.Background(), "e1", "")
	if err != nil || len(estate.Bookings) != 2 {
		t.Fatalf("unexpected estate profile %+v %v", estate, err)
	}
}

func TestAdminsListsRoleHolders(t *testing.T) {
	store := profile.NewMemoryStore(
		model.Profile{UID: "a", Email: "a@x.io", Role: model.RoleAdmin},
		model.Profile{UID: "b", Email: "b@x.io", Role: model.RoleSuperAdmin},
		model.Profile{UID: "c", Email: "c@x.io"},
	)
	svc := NewService(&fakeBackend{}, store, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	page, err := svc.Admins(context.Background(), query("role=superAdmin"))
	if err != nil || page.Total != 1 || page.Items[0].UID != "b" {
		t.Fatalf("unexpected admins %+v %v", page, err)
	}
}
