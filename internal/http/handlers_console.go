package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"diamondhost/admin-console/internal/apperr"
	"diamondhost/admin-console/internal/console"
	"diamondhost/admin-console/internal/listing"
)

func listQuery(r *http.Request) listing.Query {
	return listing.ParseQuery(r.URL.Query())
}

// respond writes payload, or the classified error when err is set.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, payload interface{}, err error) {
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, status, payload)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.console.Dashboard(r.Context())
	s.respond(w, r, http.StatusOK, stats, err)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	page, err := s.console.Users(r.Context(), listQuery(r))
	s.respond(w, r, http.StatusOK, page, err)
}

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	prof, err := s.console.UserProfile(r.Context(), chi.URLParam(r, "userId"), r.URL.Query().Get("search"))
	s.respond(w, r, http.StatusOK, prof, err)
}

func (s *Server) handleUpgradeCandidates(w http.ResponseWriter, r *http.Request) {
	page, err := s.console.UpgradeCandidates(r.Context(), listQuery(r))
	s.respond(w, r, http.StatusOK, page, err)
}

func (s *Server) handleChangeTier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tier string `json:"tier"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	userID := chi.URLParam(r, "userId")
	tier, err := s.console.ChangeTier(r.Context(), userID, req.Tier)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"userId": userID,
		"tier":   string(tier),
		"label":  tier.Label(),
	})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	page, err := s.console.Providers(r.Context(), listQuery(r))
	s.respond(w, r, http.StatusOK, page, err)
}

func (s *Server) handleEstateProfile(w http.ResponseWriter, r *http.Request) {
	prof, err := s.console.EstateProfile(r.Context(), chi.URLParam(r, "estateId"), r.URL.Query().Get("search"))
	s.respond(w, r, http.StatusOK, prof, err)
}

func (s *Server) handleNewEstates(w http.ResponseWriter, r *http.Request) {
	page, err := s.console.NewEstates(r.Context(), listQuery(r))
	s.respond(w, r, http.StatusOK, page, err)
}

func (s *Server) handleEstateDetails(w http.ResponseWriter, r *http.Request) {
	details, err := s.console.EstateDetails(r.Context(), chi.URLParam(r, "estateId"))
	s.respond(w, r, http.StatusOK, details, err)
}

type decisionRequest struct {
	Decision  string `json:"decision"`
	Confirmed bool   `json:"confirmed"`
}

func decodeDecision(r *http.Request) (console.Verdict, bool, error) {
	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", false, apperr.Validation("invalid_request", "body must be {\"decision\", \"confirmed\"}")
	}
	verdict, ok := console.ParseVerdict(req.Decision)
	if !ok {
		return "", false, apperr.Validation("invalid_decision", "decision must be accept or reject")
	}
	return verdict, req.Confirmed, nil
}

func (s *Server) handleEstateDecision(w http.ResponseWriter, r *http.Request) {
	verdict, confirmed, err := decodeDecision(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	result, err := s.console.DecideEstate(r.Context(), chi.URLParam(r, "estateId"), verdict, confirmed)
	s.respond(w, r, http.StatusOK, result, err)
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	page, err := s.console.Posts(r.Context(), listQuery(r))
	s.respond(w, r, http.StatusOK, page, err)
}

func (s *Server) handlePostDecision(w http.ResponseWriter, r *http.Request) {
	verdict, confirmed, err := decodeDecision(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	result, err := s.console.DecidePost(r.Context(), chi.URLParam(r, "postId"), verdict, confirmed)
	s.respond(w, r, http.StatusOK, result, err)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	page, err := s.console.Feedback(r.Context(), listQuery(r))
	s.respond(w, r, http.StatusOK, page, err)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	author := s.sessions.State(sessionID(r)).Profile
	err := s.console.AddComment(r.Context(), chi.URLParam(r, "feedbackId"), req.Text, author)
	s.respond(w, r, http.StatusCreated, map[string]string{"status": "created"}, err)
}

func (s *Server) handleProviderFeedback(w http.ResponseWriter, r *http.Request) {
	page, err := s.console.ProviderFeedback(r.Context(), listQuery(r))
	s.respond(w, r, http.StatusOK, page, err)
}

func (s *Server) handleAdmins(w http.ResponseWriter, r *http.Request) {
	page, err := s.console.Admins(r.Context(), listQuery(r))
	s.respond(w, r, http.StatusOK, page, err)
}
