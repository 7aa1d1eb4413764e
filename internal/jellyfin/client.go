// ABOUTME: Best-effort Jellyfin display-name resolution for actor IDs
// ABOUTME: Never propagates failure; falls back to a deterministic placeholder

package jellyfin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client resolves actor IDs to Jellyfin display names. Resolution is an
// enrichment step only: every failure path returns the fallback name and the
// caller never sees an error.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client for the given Jellyfin server.
func New(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "jellyfin"),
	}
}

// Resolve returns the display name for an actor ID, or the fallback
// placeholder when the lookup fails in any way.
func (c *Client) Resolve(ctx context.Context, actorID string) string {
	fallback := FallbackName(actorID)

	endpoint := fmt.Sprintf("%s/Users/%s?api_key=%s",
		c.baseURL, url.PathEscape(actorID), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn("building user lookup request", "actor_id", actorID, "error", err)
		return fallback
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("user lookup failed", "actor_id", actorID, "error", err)
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("user lookup returned non-success status",
			"actor_id", actorID, "status", resp.StatusCode)
		return fallback
	}

	var user struct {
		Name string `json:"Name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		c.logger.Warn("decoding user lookup response", "actor_id", actorID, "error", err)
		return fallback
	}
	if user.Name == "" {
		return fallback
	}

	c.logger.Debug("resolved display name", "actor_id", actorID, "name", user.Name)
	return user.Name
}

// FallbackName derives a deterministic placeholder from a short prefix of
// the actor ID.
func FallbackName(actorID string) string {
	prefix := actorID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "User_" + prefix
}
