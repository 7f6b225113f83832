package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"diamondhost/admin-console/internal/apperr"
	"diamondhost/admin-console/internal/auth"
	"diamondhost/admin-console/internal/config"
	"diamondhost/admin-console/internal/console"
	"diamondhost/admin-console/internal/guard"
	"diamondhost/admin-console/internal/metrics"
	"diamondhost/admin-console/internal/notify"
	"diamondhost/admin-console/internal/session"
)

type Server struct {
	cfg      config.Config
	sessions *session.Manager
	guard    guard.Table
	console  *console.Service
	hub      *notify.Hub
	metrics  *metrics.Metrics
	redis    *redis.Client
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewServer(cfg config.Config, sessions *session.Manager, svc *console.Service, hub *notify.Hub, m *metrics.Metrics, redisClient *redis.Client, log *slog.Logger) (*Server, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		guard:    guard.DefaultTable(),
		console:  svc,
		hub:      hub,
		metrics:  m,
		redis:    redisClient,
		log:      log,
		upgrader: notify.Upgrader(cfg.CORSOrigins),
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/ws", s.handleWebSocket)

	r.With(s.loginThrottle).Post("/auth/login", s.handleLogin)
	r.With(s.authMiddleware).Post("/auth/logout", s.handleLogout)
	r.With(s.authMiddleware).Post("/auth/refresh", s.handleRefresh)
	r.With(s.authMiddleware).Get("/auth/session", s.handleSession)
	r.With(s.authMiddleware, s.require("/settings")).Post("/auth/password", s.handleChangePassword)

	r.With(s.authMiddleware).Get("/navigation", s.handleNavigation)
	r.With(s.optionalAuth).Get("/authorize", s.handleAuthorize)

	r.With(s.authMiddleware, s.require("/")).Get("/dashboard", s.handleDashboard)

	r.With(s.authMiddleware, s.require("/users")).Get("/users", s.handleUsers)
	r.With(s.authMiddleware, s.require("/profile/:id")).Get("/users/{userId}", s.handleUserProfile)
	r.With(s.authMiddleware, s.require("/upgrade-account")).Put("/users/{userId}/tier", s.handleChangeTier)
	r.With(s.authMiddleware, s.require("/upgrade-account")).Get("/upgrade-account", s.handleUpgradeCandidates)

	r.With(s.authMiddleware, s.require("/providers")).Get("/providers", s.handleProviders)
	r.With(s.authMiddleware, s.require("/estate/:id")).Get("/estates/{estateId}", s.handleEstateProfile)

	r.With(s.authMiddleware, s.require("/new-estate")).Get("/new-estate", s.handleNewEstates)
	r.With(s.authMiddleware, s.require("/estate-details/:id")).Get("/estate-details/{estateId}", s.handleEstateDetails)
	r.With(s.authMiddleware, s.require("/new-estate")).Post("/estate-details/{estateId}/decision", s.handleEstateDecision)

	r.With(s.authMiddleware, s.require("/posts")).Get("/posts", s.handlePosts)
	r.With(s.authMiddleware, s.require("/posts")).Post("/posts/{postId}/decision", s.handlePostDecision)

	r.With(s.authMiddleware, s.require("/feedback")).Get("/feedback", s.handleFeedback)
	r.With(s.authMiddleware, s.require("/feedback")).Post("/feedback/{feedbackId}/comments", s.handleAddComment)
	r.With(s.authMiddleware, s.require("/provider-feedback")).Get("/provider-feedback", s.handleProviderFeedback)

	r.With(s.authMiddleware, s.require("/admin-section")).Get("/admins", s.handleAdmins)
	r.With(s.authMiddleware, s.require("/register-admin")).Post("/admins", s.handleRegisterAdmin)

	return r
}

// Auth

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeRedirect(w, http.StatusUnauthorized, "missing_token", guard.RedirectLogin)
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeRedirect(w, http.StatusUnauthorized, "invalid_token", guard.RedirectLogin)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuth attaches claims when a valid bearer token is present and
// lets the request through either way.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r.Header.Get("Authorization")); token != "" {
			if claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func sessionID(r *http.Request) string {
	if claims := claimsFromContext(r.Context()); claims != nil {
		return claims.SessionID
	}
	return ""
}

// require guards a route with the screen policy registered for pattern.
func (s *Server) require(pattern string) func(http.Handler) http.Handler {
	policy, ok := s.guard.Lookup(pattern)
	if !ok {
		panic(fmt.Sprintf("no screen policy for %q", pattern))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := guard.Authorize(s.sessions.State(sessionID(r)), policy)
			s.metrics.GuardDecision(decision.String())
			switch decision {
			case guard.Allow:
				next.ServeHTTP(w, r)
			case guard.Pending:
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "session_loading")
			case guard.RedirectLogin:
				writeRedirect(w, http.StatusUnauthorized, "not_authenticated", decision)
			default:
				writeRedirect(w, http.StatusForbidden, "forbidden", decision)
			}
		})
	}
}

// loginThrottle counts login attempts per client address in redis. Without
// redis, or when redis fails, attempts are not limited.
func (s *Server) loginThrottle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.redis == nil || s.cfg.LoginRateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		window := s.cfg.LoginRateWindow
		if window <= 0 {
			window = time.Minute
		}
		key := "admin-console:login:" + clientAddr(r)
		count, err := s.redis.Incr(r.Context(), key).Result()
		if err != nil {
			s.log.Warn("login throttle unavailable", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			if err := s.redis.Expire(r.Context(), key, window).Err(); err != nil {
				s.log.Warn("login throttle expire failed", "err", err)
			}
		}
		if count > int64(s.cfg.LoginRateLimit) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "too_many_attempts")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token = bearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token")
		return
	}
	state := s.sessions.State(claims.SessionID)
	if !state.Authenticated {
		writeError(w, http.StatusUnauthorized, "not_authenticated")
		return
	}
	s.hub.Serve(s.upgrader, w, r, claims.SessionID, state.Role())
}

// Helpers

func clientAddr(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 && !strings.HasSuffix(addr, "]") {
		addr = addr[:i]
	}
	return addr
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeRedirect(w http.ResponseWriter, status int, code string, decision guard.Decision) {
	writeJSON(w, status, map[string]string{"error": code, "redirect": decision.Target()})
}

func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	body := map[string]string{"error": apperr.CodeOf(err)}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		body["message"] = appErr.Message
	}
	// Only a request whose session is gone is sent back to the login screen.
	if status == http.StatusUnauthorized && !s.sessions.State(sessionID(r)).Authenticated {
		body["redirect"] = guard.RedirectLogin.Target()
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, body)
}
