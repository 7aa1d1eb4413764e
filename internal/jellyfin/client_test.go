// ABOUTME: Tests for the Jellyfin display-name resolver
// ABOUTME: Uses httptest servers to exercise success and every fallback path

package jellyfin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolve_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Users/abc123" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "k" {
			t.Errorf("missing api_key query param")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Name": "Alice", "Id": "abc123"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second, testLogger())
	if got := c.Resolve(context.Background(), "abc123"); got != "Alice" {
		t.Errorf("Resolve = %q, want Alice", got)
	}
}

func TestResolve_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such user", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second, testLogger())
	if got := c.Resolve(context.Background(), "abcdef123456"); got != "User_abcdef12" {
		t.Errorf("Resolve = %q, want User_abcdef12", got)
	}
}

func TestResolve_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second, testLogger())
	if got := c.Resolve(context.Background(), "xyz"); got != "User_xyz" {
		t.Errorf("Resolve = %q, want User_xyz", got)
	}
}

func TestResolve_MissingName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Id": "xyz"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second, testLogger())
	if got := c.Resolve(context.Background(), "xyz"); got != "User_xyz" {
		t.Errorf("Resolve = %q, want User_xyz", got)
	}
}

func TestResolve_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, "k", 100*time.Millisecond, testLogger())
	if got := c.Resolve(context.Background(), "abc"); got != "User_abc" {
		t.Errorf("Resolve = %q, want User_abc", got)
	}
}

func TestFallbackName(t *testing.T) {
	cases := []struct {
		actorID string
		want    string
	}{
		{"0123456789abcdef", "User_01234567"},
		{"short", "User_short"},
		{"", "User_"},
	}
	for _, tc := range cases {
		if got := FallbackName(tc.actorID); got != tc.want {
			t.Errorf("FallbackName(%q) = %q, want %q", tc.actorID, got, tc.want)
		}
	}
}
