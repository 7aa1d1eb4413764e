// ABOUTME: Admin endpoints: settings (limits) and comment moderation
// ABOUTME: Gated on the configured admin actor list

package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// SettingsResponse is the JSON response for GET {root}/admin/settings.
type SettingsResponse struct {
	GlobalLimit int            `json:"globalLimit"`
	UserLimits  map[string]int `json:"userLimits"`
}

// SaveSettingsRequest is the JSON request body for POST {root}/admin/settings.
// When UserID is set, the per-actor override is upserted alongside the
// global limit; ClearUser instead removes the override.
type SaveSettingsRequest struct {
	GlobalLimit  int    `json:"globalLimit"`
	UserID       string `json:"userId,omitempty"`
	PerUserLimit int    `json:"perUserLimit,omitempty"`
	ClearUser    bool   `json:"clearUser,omitempty"`
}

// handleAdminSettings handles GET and POST on {root}/admin/settings.
func (s *Server) handleAdminSettings(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetSettings(w, r)
	case http.MethodPost:
		s.handleSaveSettings(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	globalLimit, err := s.policy.EffectiveGlobalLimit(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	userLimits, err := s.policy.ActorLimits(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SettingsResponse{
		GlobalLimit: globalLimit,
		UserLimits:  userLimits,
	})
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req SaveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.policy.SetGlobalLimit(r.Context(), req.GlobalLimit); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if req.UserID != "" {
		var err error
		if req.ClearUser {
			err = s.policy.ClearActorLimit(r.Context(), req.UserID)
		} else {
			err = s.policy.SetActorLimit(r.Context(), req.UserID, req.PerUserLimit)
		}
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "settings saved"})
}

// handleAdminListComments handles GET {root}/admin/comments.
func (s *Server) handleAdminListComments(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	comments, err := s.store.ListAllComments(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, commentResponses(comments))
}

// handleAdminCommentRoutes dispatches {root}/admin/comments/{...}:
// DELETE /{id} removes one comment, DELETE /user/{userId} removes every
// comment by one actor.
func (s *Server) handleAdminCommentRoutes(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	suffix := strings.TrimPrefix(r.URL.Path, s.cfg.Server.RootPath+"/admin/comments/")

	if target, ok := strings.CutPrefix(suffix, "user/"); ok {
		if target == "" || strings.Contains(target, "/") {
			s.sendJSONError(w, http.StatusBadRequest, "missing userId")
			return
		}
		if _, err := s.store.DeleteCommentsByActor(r.Context(), target); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "comments deleted for user"})
		return
	}

	id, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "comment id must be numeric")
		return
	}
	if err := s.store.DeleteComment(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "comment deleted"})
}
