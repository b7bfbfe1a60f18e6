package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sydlexius/crescendo/internal/database"
	"github.com/sydlexius/crescendo/internal/encryption"
	"github.com/sydlexius/crescendo/internal/recommend"
	"github.com/sydlexius/crescendo/internal/spotify"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// newTestHandler wires a full router against a real session backed by a
// temporary database. spotifyClientID controls whether the link flow is
// configured.
func newTestHandler(t *testing.T, spotifyClientID string) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	enc, _, err := encryption.New("")
	if err != nil {
		t.Fatalf("creating encryptor: %v", err)
	}

	session := spotify.NewSession(testDB(t), enc, spotifyClientID, "http://localhost:3000/callback", logger)
	client := spotify.NewClient(session, logger)
	resolver := recommend.NewResolver(nil, nil, logger)

	return NewRouter(RouterDeps{
		Resolver:      resolver,
		Session:       session,
		SpotifyClient: client,
		Logger:        logger,
		AllowedOrigin: "http://localhost:3000",
	}).Handler()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestHandler(t, ""), http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestRecommendations(t *testing.T) {
	h := newTestHandler(t, "")
	rec := doRequest(t, h, http.MethodPost, "/api/v1/recommendations",
		`{"genres":["Rock"],"mood":"Energetic","energy":"High"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var result recommend.Result
	decodeBody(t, rec, &result)
	if result.Source != recommend.SourceRules {
		t.Errorf("source = %q, want rules", result.Source)
	}
	if len(result.Recommendations) < 1 || len(result.Recommendations) > recommend.MaxRecommendations {
		t.Errorf("got %d recommendations, want 1..%d", len(result.Recommendations), recommend.MaxRecommendations)
	}
	if result.Recommendations[0].Title != "Don't Stop Believin'" {
		t.Errorf("first recommendation = %+v", result.Recommendations[0])
	}
}

func TestRecommendations_InvalidInput(t *testing.T) {
	h := newTestHandler(t, "")
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"genres":`},
		{"no genres", `{"genres":[],"mood":"Happy","energy":"Low"}`},
		{"unknown mood", `{"genres":["Rock"],"mood":"Sleepy","energy":"Low"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/v1/recommendations", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body map[string]string
			decodeBody(t, rec, &body)
			if body["error"] == "" {
				t.Error("missing error message")
			}
		})
	}
}

func TestSpotifyStatus(t *testing.T) {
	rec := doRequest(t, newTestHandler(t, "client-id"), http.MethodGet, "/api/v1/spotify/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]bool
	decodeBody(t, rec, &body)
	if !body["configured"] || body["authenticated"] {
		t.Errorf("body = %v, want configured and not authenticated", body)
	}
}

func TestSpotifyLogin(t *testing.T) {
	rec := doRequest(t, newTestHandler(t, "client-id"), http.MethodGet, "/api/v1/spotify/login", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if !strings.Contains(body["auth_url"], "code_challenge") {
		t.Errorf("auth_url missing PKCE challenge: %q", body["auth_url"])
	}
}

func TestSpotifyLogin_NotConfigured(t *testing.T) {
	rec := doRequest(t, newTestHandler(t, ""), http.MethodGet, "/api/v1/spotify/login", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestSpotifyCallback_MissingParams(t *testing.T) {
	rec := doRequest(t, newTestHandler(t, "client-id"), http.MethodGet, "/api/v1/spotify/callback?code=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSpotifyCallback_StateMismatch(t *testing.T) {
	h := newTestHandler(t, "client-id")
	if rec := doRequest(t, h, http.MethodGet, "/api/v1/spotify/login", ""); rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	rec := doRequest(t, h, http.MethodGet, "/api/v1/spotify/callback?code=abc&state=wrong", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSpotifyTokenLifecycle(t *testing.T) {
	h := newTestHandler(t, "client-id")

	rec := doRequest(t, h, http.MethodPost, "/api/v1/spotify/token",
		`{"access_token":"tok","expires_in":3600}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set token status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/spotify/status", "")
	var status map[string]bool
	decodeBody(t, rec, &status)
	if !status["authenticated"] {
		t.Fatal("expected authenticated after storing a token")
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/spotify/token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("disconnect status = %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/spotify/status", "")
	decodeBody(t, rec, &status)
	if status["authenticated"] {
		t.Fatal("expected unauthenticated after disconnect")
	}
}

func TestSpotifySetToken_Empty(t *testing.T) {
	rec := doRequest(t, newTestHandler(t, "client-id"), http.MethodPost, "/api/v1/spotify/token",
		`{"access_token":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSpotifyProfile_NotLinked(t *testing.T) {
	rec := doRequest(t, newTestHandler(t, "client-id"), http.MethodGet, "/api/v1/spotify/profile", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSpotifySearch_MissingQuery(t *testing.T) {
	rec := doRequest(t, newTestHandler(t, "client-id"), http.MethodGet, "/api/v1/spotify/search", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := doRequest(t, newTestHandler(t, ""), http.MethodGet, "/api/v1/health", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, "")
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommendations", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
