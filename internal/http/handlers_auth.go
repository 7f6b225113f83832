package http

import (
	"net/http"
	"strings"
	"time"

	"diamondhost/admin-console/internal/auth"
	"diamondhost/admin-console/internal/guard"
	"diamondhost/admin-console/internal/model"
	"diamondhost/admin-console/internal/session"
)

type sessionResponse struct {
	Token     string         `json:"token,omitempty"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	Device    string         `json:"device,omitempty"`
	Profile   *model.Profile `json:"profile,omitempty"`
}

func (s *Server) issue(w http.ResponseWriter, status int, sess model.Session) {
	token, err := auth.NewSessionToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, sess.ExpiresAt, auth.Claims{
		SessionID: sess.ID,
		UserID:    sess.UID,
		Role:      string(sess.Role()),
	})
	if err != nil {
		s.log.Error("session token signing failed", "session", sess.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, status, sessionResponse{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		Email:     sess.Email,
		Role:      string(sess.Role()),
		Device:    sess.Device,
		Profile:   sess.Profile,
	})
}

// reissue answers with a fresh token for a session whose expiry moved.
func (s *Server) reissue(w http.ResponseWriter, status int, id string) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeRedirect(w, http.StatusUnauthorized, "not_authenticated", guard.RedirectLogin)
		return
	}
	s.issue(w, status, sess)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	sess, err := s.sessions.Login(r.Context(), req.Email, req.Password, r.UserAgent())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.issue(w, http.StatusOK, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	_ = s.sessions.Logout(r.Context(), sessionID(r))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "redirect": guard.RedirectLogin.Target()})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Refresh(r.Context(), sessionID(r))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.issue(w, http.StatusOK, sess)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	state := s.sessions.State(sessionID(r))
	if state.Loading {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "session_loading")
		return
	}
	if !state.Authenticated {
		writeRedirect(w, http.StatusUnauthorized, "not_authenticated", guard.RedirectLogin)
		return
	}
	sess, _ := s.sessions.Get(sessionID(r))
	writeJSON(w, http.StatusOK, sessionResponse{
		ExpiresAt: state.ExpiresAt,
		Email:     sess.Email,
		Role:      string(state.Role()),
		Device:    sess.Device,
		Profile:   state.Profile,
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	id := sessionID(r)
	if err := s.sessions.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.reissue(w, http.StatusOK, id)
}

func (s *Server) handleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		FirstName  string `json:"firstName"`
		LastName   string `json:"lastName"`
		Role       string `json:"role"`
		Passphrase string `json:"passphrase"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	id := sessionID(r)
	created, err := s.sessions.RegisterSecondaryAccount(r.Context(), id, session.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Role:       req.Role,
		Passphrase: req.Passphrase,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeRedirect(w, http.StatusUnauthorized, "not_authenticated", guard.RedirectLogin)
		return
	}
	token, err := auth.NewSessionToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, sess.ExpiresAt, auth.Claims{
		SessionID: sess.ID,
		UserID:    sess.UID,
		Role:      string(sess.Role()),
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"profile":   created,
		"token":     token,
		"expiresAt": sess.ExpiresAt,
	})
}

func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	state := s.sessions.State(sessionID(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"loading": state.Loading,
		"role":    string(state.Role()),
		"entries": s.guard.Menu(state),
	})
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing_path")
		return
	}
	decision := s.guard.Decide(s.sessions.State(sessionID(r)), path)
	s.metrics.GuardDecision(decision.String())
	writeJSON(w, http.StatusOK, map[string]string{
		"path":     path,
		"decision": decision.String(),
		"redirect": decision.Target(),
	})
}
