// Package session is the console's session store. One Manager holds every
// dashboard session of the process.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	ua "github.com/mileusna/useragent"

	"diamondhost/admin-console/internal/apperr"
	"diamondhost/admin-console/internal/identity"
	"diamondhost/admin-console/internal/logx"
	"diamondhost/admin-console/internal/metrics"
	"diamondhost/admin-console/internal/model"
	"diamondhost/admin-console/internal/profile"
)

const DefaultTTL = time.Hour

// Reasons a session ends, passed to the end hook and recorded in metrics.
const (
	EndLogout       = "logout"
	EndExpired      = "expired"
	EndRevoked      = "revoked"
	EndReauthFailed = "reauth_failed"
)

// EndHook is called after a session has been removed from the store.
type EndHook func(sessionID, reason string)

type Manager struct {
	provider  identity.Provider
	profiles  profile.Store
	persister Persister
	metrics   *metrics.Metrics
	log       *slog.Logger
	ttl       time.Duration
	now       func() time.Time
	onEnd     EndHook

	mu       sync.RWMutex
	sessions map[string]*model.Session

	restoreOnce sync.Once
	restoreErr  error
	ready       chan struct{}
}

type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithPersister(p Persister) Option {
	return func(m *Manager) { m.persister = p }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

func WithEndHook(hook EndHook) Option {
	return func(m *Manager) { m.onEnd = hook }
}

func NewManager(provider identity.Provider, profiles profile.Store, opts ...Option) *Manager {
	m := &Manager{
		provider:  provider,
		profiles:  profiles,
		persister: NewMemoryPersister(),
		log:       slog.Default(),
		ttl:       DefaultTTL,
		now:       time.Now,
		sessions:  make(map[string]*model.Session),
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ready is closed once Restore has resolved, whatever its outcome.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

func (m *Manager) Loading() bool {
	select {
	case <-m.ready:
		return false
	default:
		return true
	}
}

// Login signs in with the identity provider and opens a session that
// expires one TTL from now. Nothing is stored when the provider refuses.
func (m *Manager) Login(ctx context.Context, email, password, userAgent string) (model.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		m.metrics.Login("invalid")
		return model.Session{}, apperr.Validation("credentials_required", "email and password are required")
	}

	cred, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		m.metrics.Login("failure")
		return model.Session{}, asAuthError(err)
	}

	if cred.ExpiresIn > 0 && cred.ExpiresIn < m.ttl {
		m.log.Warn("identity token expires before the session",
			"uid", cred.UID, "token_ttl", cred.ExpiresIn, "session_ttl", m.ttl)
	}

	now := m.now().UTC()
	s := &model.Session{
		ID:            uuid.NewString(),
		UID:           cred.UID,
		Email:         firstNonEmpty(cred.Email, email),
		IdentityToken: cred.IDToken,
		RefreshToken:  cred.RefreshToken,
		ExpiresAt:     now.Add(m.ttl),
		Device:        deviceLabel(userAgent),
		CreatedAt:     now,
	}
	s.Profile = m.loadProfile(ctx, s.UID)

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	snapshot := *s
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	m.metrics.Login("success")
	m.metrics.ActiveSessions(count)
	m.log.Info("session opened", "session", s.ID, "uid", s.UID, "role", string(s.Role()), "device", s.Device)
	return snapshot, nil
}

// Logout ends the session. Unknown or already ended sessions are a no-op.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	m.end(ctx, sessionID, EndLogout)
	return nil
}

// Refresh exchanges the refresh token and restarts the session TTL. A token
// the provider no longer accepts ends the session.
func (m *Manager) Refresh(ctx context.Context, sessionID string) (model.Session, error) {
	s, err := m.authenticated(sessionID)
	if err != nil {
		return model.Session{}, err
	}
	cred, err := m.provider.Refresh(ctx, s.RefreshToken)
	if err != nil {
		if apperr.CodeOf(err) == "session_revoked" {
			m.end(ctx, sessionID, EndRevoked)
		}
		return model.Session{}, asAuthError(err)
	}
	return m.replaceCredential(ctx, sessionID, cred)
}

type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Role       string
	Passphrase string
}

// RegisterSecondaryAccount creates another console account while signed in.
// The provider switches its active identity to the new account, so the
// caller is signed in again with Passphrase afterwards. When that fails the
// new account remains and the caller's session is ended.
func (m *Manager) RegisterSecondaryAccount(ctx context.Context, sessionID string, in RegisterInput) (model.Profile, error) {
	caller, err := m.authenticated(sessionID)
	if err != nil {
		return model.Profile{}, err
	}
	if in.Passphrase == "" {
		return model.Profile{}, apperr.ErrPassphraseMissing
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		return model.Profile{}, apperr.Validation("invalid_role", "role must be admin or superAdmin")
	}
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return model.Profile{}, apperr.Validation("missing_fields", "email, password, first and last name are required")
	}

	cred, err := m.provider.CreateIdentity(ctx, in.Email, in.Password)
	if err != nil {
		return model.Profile{}, asAuthError(err)
	}

	created := model.Profile{
		UID:       cred.UID,
		Email:     firstNonEmpty(cred.Email, in.Email),
		Role:      role,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: m.now().UTC(),
	}
	profileErr := m.profiles.Set(ctx, created)
	if profileErr != nil {
		m.log.Error("secondary account profile write failed", "uid", created.UID, "err", profileErr)
	}

	back, err := m.provider.Reauthenticate(ctx, caller.Email, in.Passphrase)
	if err != nil {
		m.log.Warn("caller reauthentication failed after account creation",
			"session", sessionID, "caller", caller.UID, "created", created.UID, "err", err)
		m.end(ctx, sessionID, EndReauthFailed)
		return model.Profile{}, apperr.Auth(apperr.ErrReauthFailed.Code, err)
	}
	if _, err := m.replaceCredential(ctx, sessionID, back); err != nil {
		return model.Profile{}, err
	}
	if profileErr != nil {
		return model.Profile{}, fmt.Errorf("store profile: %w", profileErr)
	}
	m.log.Info("secondary account registered", "by", caller.UID, "uid", created.UID, "role", string(role))
	return created, nil
}

// ChangePassword checks the current password with the provider before
// replacing it. The session continues on the credential the provider
// returns. A wrong current password is a validation error and leaves the
// session untouched.
func (m *Manager) ChangePassword(ctx context.Context, sessionID, current, next, confirm string) error {
	if next != confirm {
		return apperr.ErrPasswordMismatch
	}
	if next == "" {
		return apperr.Validation("password_required", "new password is required")
	}
	caller, err := m.authenticated(sessionID)
	if err != nil {
		return err
	}
	cred, err := m.provider.Reauthenticate(ctx, caller.Email, current)
	if errors.Is(err, apperr.ErrReauthFailed) || errors.Is(err, apperr.ErrInvalidCredentials) {
		return apperr.ErrCurrentPassword
	}
	if err != nil {
		return asAuthError(err)
	}
	updated, err := m.provider.UpdateCredential(ctx, cred.IDToken, next)
	if err != nil {
		return asAuthError(err)
	}
	if updated.IDToken == "" {
		updated = cred
	}
	_, err = m.replaceCredential(ctx, sessionID, updated)
	return err
}

// Restore resumes persisted sessions after a restart. Locally expired records
// are dropped, the rest are checked with the provider. It runs once; later
// calls return the first result.
func (m *Manager) Restore(ctx context.Context) error {
	m.restoreOnce.Do(func() {
		defer close(m.ready)
		m.restoreErr = m.restore(ctx)
	})
	return m.restoreErr
}

func (m *Manager) restore(ctx context.Context) error {
	records, err := m.persister.LoadAll(ctx)
	if err != nil {
		m.log.Error("session restore failed", "err", err)
		return err
	}

	now := m.now()
	restored := 0
	for _, record := range records {
		if record.IdentityToken == "" || !now.Before(record.ExpiresAt) {
			m.forget(ctx, record.ID)
			continue
		}
		who, err := m.provider.Lookup(ctx, record.IdentityToken)
		switch {
		case errors.Is(err, apperr.ErrProviderUnreachable):
			m.log.Warn("provider unreachable, keeping session until expiry", "session", record.ID)
		case err != nil:
			m.log.Info("persisted session no longer valid", "session", record.ID, "err", err)
			m.forget(ctx, record.ID)
			continue
		case who.UID != "" && who.UID != record.UID:
			m.forget(ctx, record.ID)
			continue
		}

		s := record.session()
		s.Profile = m.loadProfile(ctx, s.UID)
		m.mu.Lock()
		m.sessions[s.ID] = s
		m.mu.Unlock()
		restored++
	}

	m.mu.RLock()
	count := len(m.sessions)
	m.mu.RUnlock()
	m.metrics.ActiveSessions(count)
	m.log.Info("sessions restored", "restored", restored, "persisted", len(records))
	return nil
}

// ExpireSessions ends every session whose expiry is at or before now and
// reports how many were ended.
func (m *Manager) ExpireSessions(ctx context.Context, now time.Time) int {
	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	ended := 0
	for _, id := range expired {
		if m.end(ctx, id, EndExpired) {
			ended++
		}
	}
	return ended
}

// State is what the route guard sees for a session ID.
func (m *Manager) State(sessionID string) model.SessionState {
	state := model.SessionState{Loading: m.Loading()}
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	if ok {
		state.Authenticated = s.Authenticated(m.now())
		state.ExpiresAt = s.ExpiresAt
		if s.Profile != nil {
			p := *s.Profile
			state.Profile = &p
		}
	}
	m.mu.RUnlock()
	return state
}

func (m *Manager) Get(sessionID string) (model.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return model.Session{}, false
	}
	return *s, true
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) authenticated(sessionID string) (model.Session, error) {
	s, ok := m.Get(sessionID)
	if !ok || !s.Authenticated(m.now()) {
		return model.Session{}, apperr.ErrNotAuthenticated
	}
	return s, nil
}

func (m *Manager) replaceCredential(ctx context.Context, sessionID string, cred identity.Credential) (model.Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return model.Session{}, apperr.ErrNotAuthenticated
	}
	s.IdentityToken = cred.IDToken
	if cred.RefreshToken != "" {
		s.RefreshToken = cred.RefreshToken
	}
	s.ExpiresAt = m.now().UTC().Add(m.ttl)
	snapshot := *s
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	return snapshot, nil
}

// end removes the session and releases what it held. It reports whether a
// session was actually removed.
func (m *Manager) end(ctx context.Context, sessionID, reason string) bool {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	count := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return false
	}

	if err := m.provider.SignOut(ctx, s.IdentityToken); err != nil {
		m.log.Warn("identity sign-out failed", "session", sessionID, "token", logx.Token(s.IdentityToken), "err", err)
	}
	m.forget(ctx, sessionID)
	if forgetter, ok := m.profiles.(interface{ Forget(uid string) }); ok {
		forgetter.Forget(s.UID)
	}

	m.metrics.SessionEnded(reason)
	m.metrics.ActiveSessions(count)
	m.log.Info("session ended", "session", sessionID, "uid", s.UID, "reason", reason)
	if m.onEnd != nil {
		m.onEnd(sessionID, reason)
	}
	return true
}

func (m *Manager) persist(ctx context.Context, s model.Session) {
	if err := m.persister.Save(ctx, recordOf(&s)); err != nil {
		m.log.Warn("session persist failed", "session", s.ID, "err", err)
	}
}

func (m *Manager) forget(ctx context.Context, sessionID string) {
	if err := m.persister.Delete(ctx, sessionID); err != nil {
		m.log.Warn("session delete failed", "session", sessionID, "err", err)
	}
}

// loadProfile returns nil for identities without a profile. A store failure
// is logged and treated the same way, which leaves the session with plain
// user rights.
func (m *Manager) loadProfile(ctx context.Context, uid string) *model.Profile {
	p, found, err := m.profiles.Get(ctx, uid)
	if err != nil {
		m.log.Error("profile fetch failed", "uid", uid, "err", err)
		return nil
	}
	if !found {
		return nil
	}
	return &p
}

func asAuthError(err error) error {
	var classified *apperr.Error
	if errors.As(err, &classified) {
		return err
	}
	return apperr.Auth(apperr.ErrProviderUnreachable.Code, err)
}

func deviceLabel(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return ""
	}
	agent := ua.Parse(userAgent)
	name := strings.TrimSpace(agent.Name + " " + agent.Version)
	if agent.OS != "" {
		if name == "" {
			return agent.OS
		}
		return name + " on " + agent.OS
	}
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
