// Package listening normalizes the streaming provider's track, artist and
// audio-feature payloads into a fixed internal shape. Nothing outside this
// package sees provider-native payloads.
package listening

import "sort"

// Artist is a normalized top-artist record, ordered by provider rank.
type Artist struct {
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
}

// Track is a normalized track record.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	Popularity int      `json:"popularity"`
	LinkURL    string   `json:"link_url,omitempty"`
}

// FirstArtist returns the first-billed artist, or "" for an empty billing.
func (t Track) FirstArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// FeatureAverages holds arithmetic means over the audio features of the
// user's top tracks. Energy, valence and danceability are in [0,1]; tempo
// is in BPM.
type FeatureAverages struct {
	Energy       float64 `json:"avg_energy"`
	Valence      float64 `json:"avg_valence"`
	Danceability float64 `json:"avg_danceability"`
	Tempo        float64 `json:"avg_tempo"`
}

// Neutral defaults used when no track yields a usable feature record.
const (
	NeutralEnergy       = 0.5
	NeutralValence      = 0.5
	NeutralDanceability = 0.5
	NeutralTempo        = 120.0
)

// NeutralFeatures returns the documented neutral defaults.
func NeutralFeatures() FeatureAverages {
	return FeatureAverages{
		Energy:       NeutralEnergy,
		Valence:      NeutralValence,
		Danceability: NeutralDanceability,
		Tempo:        NeutralTempo,
	}
}

// Snapshot is an ephemeral summary of the user's real listening history.
// It is fetched fresh per resolution and never persisted.
type Snapshot struct {
	TopArtists     []Artist `json:"top_artists"`
	TopTracks      []Track  `json:"top_tracks"`
	RecentlyPlayed []Track  `json:"recently_played"`
	Features       FeatureAverages
}

// TopGenres ranks genre tags by occurrence count across all top artists and
// returns at most n of them. Ties keep first-seen order.
func (s *Snapshot) TopGenres(n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, a := range s.TopArtists {
		for _, g := range a.Genres {
			if g == "" {
				continue
			}
			if _, seen := counts[g]; !seen {
				order = append(order, g)
			}
			counts[g]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if n < len(order) {
		order = order[:n]
	}
	return order
}
