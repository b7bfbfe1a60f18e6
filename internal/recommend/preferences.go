// Package recommend implements the recommendation pipeline: the preference
// model, the rule-based engine, prompt synthesis for the LLM path, and the
// resolver that degrades across recommendation sources.
package recommend

import (
	"errors"
	"fmt"
)

// Moods is the closed vocabulary accepted for Preferences.Mood, in the
// order the preference form presents them.
var Moods = []string{
	"Happy", "Sad", "Energetic", "Calm", "Romantic",
	"Nostalgic", "Motivated", "Chill", "Angry", "Peaceful",
}

// EnergyLevels is the closed vocabulary accepted for Preferences.Energy.
var EnergyLevels = []string{"Low", "Medium", "High"}

// Preferences is the immutable input for one recommendation request.
// RecentlyListened and FavoriteArtists are free text: consumers must
// lower-case and substring-match, never assume a parsed list.
type Preferences struct {
	Genres           []string `json:"genres"`
	Mood             string   `json:"mood"`
	Energy           string   `json:"energy"`
	RecentlyListened string   `json:"recently_listened"`
	FavoriteArtists  string   `json:"favorite_artists"`
}

// Validate checks the closed-vocabulary fields. The free-text fields are
// deliberately left unvalidated.
func (p Preferences) Validate() error {
	if len(p.Genres) == 0 {
		return errors.New("at least one genre is required")
	}
	if !contains(Moods, p.Mood) {
		return fmt.Errorf("unknown mood %q", p.Mood)
	}
	if !contains(EnergyLevels, p.Energy) {
		return fmt.Errorf("unknown energy level %q", p.Energy)
	}
	return nil
}

// HasGenre reports whether the given genre was selected.
func (p Preferences) HasGenre(genre string) bool {
	return contains(p.Genres, genre)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Recommendation is one entry of the pipeline's output. Reason always
// references at least one concrete input signal; LinkURL is present when a
// search link could be constructed.
type Recommendation struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Genre   string `json:"genre"`
	Reason  string `json:"reason"`
	LinkURL string `json:"link_url,omitempty"`
}

// MaxRecommendations bounds every list returned by the pipeline.
const MaxRecommendations = 4
