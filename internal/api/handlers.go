package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sydlexius/crescendo/internal/recommend"
	"github.com/sydlexius/crescendo/internal/version"
)

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
		"commit":  version.Commit,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRecommendations runs the resolution pipeline for one preference
// submission. The resolver cannot fail for content reasons, so the only
// error responses are for invalid input.
func (r *Router) handleRecommendations(w http.ResponseWriter, req *http.Request) {
	var body struct {
		recommend.Preferences
		UseListeningData bool `json:"use_listening_data"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := body.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := r.resolver.Resolve(req.Context(), body.Preferences, body.UseListeningData)
	writeJSON(w, http.StatusOK, result)
}
