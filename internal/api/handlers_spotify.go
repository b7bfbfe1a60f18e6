package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sydlexius/crescendo/internal/spotify"
)

func (r *Router) handleSpotifyStatus(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"configured":    r.session.Configured(),
		"authenticated": r.session.Authenticated(req.Context()),
	})
}

// handleSpotifyLogin starts an account link. Unlike the recommendation
// pipeline there is no fallback for a missing client ID, so configuration
// errors are surfaced here.
func (r *Router) handleSpotifyLogin(w http.ResponseWriter, req *http.Request) {
	authURL, err := r.session.AuthorizationURL(req.Context())
	if err != nil {
		if errors.Is(err, spotify.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "spotify client ID not configured")
			return
		}
		r.logger.Error("building authorization url", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start spotify login")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

func (r *Router) handleSpotifyCallback(w http.ResponseWriter, req *http.Request) {
	code := req.URL.Query().Get("code")
	state := req.URL.Query().Get("state")
	if code == "" || state == "" {
		writeError(w, http.StatusBadRequest, "missing code or state")
		return
	}

	if err := r.session.Exchange(req.Context(), code, state); err != nil {
		if errors.Is(err, spotify.ErrStateMismatch) {
			writeError(w, http.StatusBadRequest, "oauth state mismatch")
			return
		}
		r.logger.Error("completing spotify link", "error", err)
		writeError(w, http.StatusBadGateway, "token exchange failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

// handleSpotifySetToken stores a token the browser obtained through the
// implicit grant flow.
func (r *Router) handleSpotifySetToken(w http.ResponseWriter, req *http.Request) {
	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := r.session.SetToken(req.Context(), body.AccessToken, body.ExpiresIn); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

func (r *Router) handleSpotifyDisconnect(w http.ResponseWriter, req *http.Request) {
	if err := r.session.ClearToken(req.Context()); err != nil {
		r.logger.Error("clearing spotify token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to disconnect")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (r *Router) handleSpotifyProfile(w http.ResponseWriter, req *http.Request) {
	profile, err := r.spotifyClient.Profile(req.Context())
	if err != nil {
		r.writeSpotifyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (r *Router) handleSpotifySearch(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit := 10
	if raw := req.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}

	tracks, err := r.spotifyClient.SearchTracks(req.Context(), query, limit)
	if err != nil {
		r.writeSpotifyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

func (r *Router) writeSpotifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, spotify.ErrNotLinked), errors.Is(err, spotify.ErrAuthRequired):
		writeError(w, http.StatusUnauthorized, "spotify account not linked")
	default:
		r.logger.Error("spotify request failed", "error", err)
		writeError(w, http.StatusBadGateway, "spotify request failed")
	}
}
