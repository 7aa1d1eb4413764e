// ABOUTME: Handlers for the recommendation and comment endpoints
// ABOUTME: Wire format matches the original service (userId/itemId/username fields)

package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/updootapp/updoot-server/internal/store"
)

// ToggleRequest is the JSON request body for POST {root}/recommendations.
type ToggleRequest struct {
	UserID string `json:"userId"`
	ItemID string `json:"itemId"`
}

// RecommendationResponse is one row in recommendation listings.
type RecommendationResponse struct {
	UserID   string `json:"userId"`
	ItemID   string `json:"itemId"`
	Username string `json:"username"`
}

// AddCommentRequest is the JSON request body for POST {root}/comments.
type AddCommentRequest struct {
	UserID  string `json:"userId"`
	ItemID  string `json:"itemId"`
	Comment string `json:"comment"`
}

// EditCommentRequest is the JSON request body for PUT {root}/comments/{id}.
type EditCommentRequest struct {
	UserID  string `json:"userId"`
	Comment string `json:"comment"`
}

// DeleteCommentRequest is the JSON request body for DELETE {root}/comments/{id}.
type DeleteCommentRequest struct {
	UserID string `json:"userId"`
}

// CommentResponse is one row in comment listings.
type CommentResponse struct {
	ID       int64  `json:"id"`
	UserID   string `json:"userId"`
	ItemID   string `json:"itemId"`
	Username string `json:"username"`
	Comment  string `json:"comment"`
}

// handleRecommendations handles POST (toggle) and GET (list all) on
// {root}/recommendations.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleToggle(w, r)
	case http.MethodGet:
		recs, err := s.recs.List(r.Context())
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, recommendationResponses(recs))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	outcome, err := s.recs.Toggle(r.Context(), actorID(r, req.UserID), req.ItemID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	status := "recommended"
	if outcome == store.ToggleRemoved {
		status = "unrecommended"
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// handleRecommendationsForItem handles GET {root}/recommendations/{itemId}.
func (s *Server) handleRecommendationsForItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	itemID := strings.TrimPrefix(r.URL.Path, s.cfg.Server.RootPath+"/recommendations/")
	if itemID == "" || strings.Contains(itemID, "/") {
		s.sendJSONError(w, http.StatusBadRequest, "missing itemId")
		return
	}

	recs, err := s.recs.ListForItem(r.Context(), itemID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recommendationResponses(recs))
}

func recommendationResponses(recs []store.Recommendation) []RecommendationResponse {
	out := make([]RecommendationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, RecommendationResponse{
			UserID:   rec.ActorID,
			ItemID:   rec.ItemID,
			Username: rec.DisplayName,
		})
	}
	return out
}

// handleAddComment handles POST {root}/comments.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	actor := actorID(r, req.UserID)
	if actor == "" || req.ItemID == "" || req.Comment == "" {
		s.sendJSONError(w, http.StatusBadRequest, "missing userId, itemId, or comment")
		return
	}

	displayName := s.names.Resolve(r.Context(), actor)
	_, err := s.store.AddComment(r.Context(), store.Comment{
		ActorID:     actor,
		ItemID:      req.ItemID,
		DisplayName: displayName,
		Body:        req.Comment,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "comment added"})
}

// handleCommentRoutes dispatches {root}/comments/{...}: GET lists an item's
// comments, PUT edits and DELETE removes a comment by numeric ID.
func (s *Server) handleCommentRoutes(w http.ResponseWriter, r *http.Request) {
	suffix := strings.TrimPrefix(r.URL.Path, s.cfg.Server.RootPath+"/comments/")
	if suffix == "" || strings.Contains(suffix, "/") {
		s.sendJSONError(w, http.StatusBadRequest, "bad comments path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		comments, err := s.store.ListCommentsForItem(r.Context(), suffix)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, commentResponses(comments))
	case http.MethodPut:
		s.handleEditComment(w, r, suffix)
	case http.MethodDelete:
		s.handleDeleteComment(w, r, suffix)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleEditComment(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "comment id must be numeric")
		return
	}

	var req EditCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	actor := actorID(r, req.UserID)
	if actor == "" || req.Comment == "" {
		s.sendJSONError(w, http.StatusBadRequest, "missing userId or comment")
		return
	}

	if !s.authorizeCommentMutation(w, r, id, actor) {
		return
	}

	if err := s.store.UpdateCommentBody(r.Context(), id, req.Comment); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "comment edited"})
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "comment id must be numeric")
		return
	}

	var req DeleteCommentRequest
	if r.Body != nil {
		// Body is optional when the header carries the actor
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	actor := actorID(r, req.UserID)
	if actor == "" {
		s.sendJSONError(w, http.StatusBadRequest, "missing userId")
		return
	}

	if !s.authorizeCommentMutation(w, r, id, actor) {
		return
	}

	if err := s.store.DeleteComment(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "comment deleted"})
}

// authorizeCommentMutation enforces owner-or-admin on comment edits and
// deletes. It writes the rejection itself and reports whether to continue.
func (s *Server) authorizeCommentMutation(w http.ResponseWriter, r *http.Request, id int64, actor string) bool {
	c, err := s.store.GetComment(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return false
	}
	if c.ActorID != actor && !s.cfg.IsAdmin(actor) {
		s.logger.Warn("unauthorized comment mutation",
			"comment_id", id, "actor_id", actor, "owner_id", c.ActorID)
		s.sendJSONError(w, http.StatusForbidden, "unauthorized")
		return false
	}
	return true
}

func commentResponses(comments []store.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentResponse{
			ID:       c.ID,
			UserID:   c.ActorID,
			ItemID:   c.ItemID,
			Username: c.DisplayName,
			Comment:  c.Body,
		})
	}
	return out
}
