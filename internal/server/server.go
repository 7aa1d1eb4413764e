// ABOUTME: HTTP API for updoot-server: recommendations, comments, admin settings
// ABOUTME: Routes are mounted under the configured root path (default /updoot)

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/updootapp/updoot-server/internal/config"
	"github.com/updootapp/updoot-server/internal/quota"
	"github.com/updootapp/updoot-server/internal/recs"
	"github.com/updootapp/updoot-server/internal/store"
)

// actorHeader carries the caller's pre-validated identity. Authentication
// happens upstream; the value here is treated as opaque.
const actorHeader = "X-Updoot-Actor"

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	cfg    *config.Config
	recs   *recs.Service
	policy *quota.Policy
	store  *store.Store
	names  recs.NameResolver
	logger *slog.Logger
}

// New creates a Server.
func New(cfg *config.Config, svc *recs.Service, policy *quota.Policy, st *store.Store, names recs.NameResolver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		recs:   svc,
		policy: policy,
		store:  st,
		names:  names,
		logger: logger.With("component", "server"),
	}
}

// Handler returns the fully wired HTTP handler, middleware included.
func (s *Server) Handler() http.Handler {
	root := s.cfg.Server.RootPath

	mux := http.NewServeMux()
	mux.HandleFunc(root+"/recommendations", s.handleRecommendations)
	mux.HandleFunc(root+"/recommendations/", s.handleRecommendationsForItem)
	mux.HandleFunc(root+"/comments", s.handleAddComment)
	mux.HandleFunc(root+"/comments/", s.handleCommentRoutes)
	mux.HandleFunc(root+"/admin/comments", s.handleAdminListComments)
	mux.HandleFunc(root+"/admin/comments/", s.handleAdminCommentRoutes)
	mux.HandleFunc(root+"/admin/settings", s.handleAdminSettings)
	mux.HandleFunc(root+"/health", s.handleHealth)

	return s.withRequestLogging(mux)
}

// handleHealth handles GET {root}/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

func (s *Server) sendJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain errors onto HTTP statuses. Quota rejections
// and invalid input are expected and carry their own message; anything else
// is logged in full and reported opaquely.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *recs.InvalidInputError
	if errors.As(err, &invalid) {
		s.sendJSONError(w, http.StatusBadRequest, invalid.Error())
		return
	}

	var limitErr *quota.LimitError
	if errors.As(err, &limitErr) {
		s.logger.Warn("request rejected by quota", "path", r.URL.Path, "error", limitErr)
		s.sendJSONError(w, http.StatusForbidden, limitErr.Error())
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "not found")
		return
	}

	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
}

// actorID extracts the caller identity: the header wins, then the given
// body field.
func actorID(r *http.Request, bodyActor string) string {
	if h := r.Header.Get(actorHeader); h != "" {
		return h
	}
	return bodyActor
}

// requireAdmin checks the caller against the configured admin list.
// It writes the rejection itself and reports whether to continue.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	actor := r.Header.Get(actorHeader)
	if actor == "" || !s.cfg.IsAdmin(actor) {
		s.logger.Warn("admin endpoint rejected", "path", r.URL.Path, "actor_id", actor)
		s.sendJSONError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}
