package recommend

import (
	"strings"
	"testing"

	"github.com/sydlexius/crescendo/internal/listening"
)

func TestBuildPrompt_PreferencesOnly(t *testing.T) {
	p := Preferences{
		Genres:          []string{"Rock", "Jazz"},
		Mood:            "Calm",
		Energy:          "Medium",
		FavoriteArtists: "Miles Davis",
	}
	prompt := BuildPrompt(p, nil)

	for _, want := range []string{
		"- Genres: Rock, Jazz\n",
		"- Mood: Calm\n",
		"- Energy: Medium\n",
		"- Recently listened: Not specified\n",
		"- Favorite artists: Miles Davis\n",
		"Respond with ONLY a JSON array",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "streaming history") {
		t.Error("prompt without a snapshot must not mention streaming history")
	}
}

func TestBuildPrompt_WithSnapshot(t *testing.T) {
	p := Preferences{Genres: []string{"Pop"}, Mood: "Happy", Energy: "High"}
	snap := &listening.Snapshot{
		TopArtists: []listening.Artist{
			{Name: "Artist A", Genres: []string{"rock", "pop"}},
			{Name: "Artist B", Genres: []string{"pop"}},
			{Name: "Artist C"}, {Name: "Artist D"}, {Name: "Artist E"}, {Name: "Artist F"},
		},
		TopTracks: []listening.Track{
			{Name: "Song One", Artists: []string{"Artist A", "Artist B"}},
			{Name: "Song Two", Artists: []string{"Artist B"}},
			{Name: "Song Three"},
			{Name: "Song Four", Artists: []string{"Artist C"}},
		},
		Features: listening.FeatureAverages{Energy: 0.754, Valence: 0.5, Tempo: 119.6},
	}
	prompt := BuildPrompt(p, snap)

	for _, want := range []string{
		"- Top artists: Artist A, Artist B, Artist C, Artist D, Artist E\n",
		"- Top tracks: Song One by Artist A, Song Two by Artist B, Song Three\n",
		"- Top genres: pop, rock\n",
		"- Average energy: 75%\n",
		"- Average positivity: 50%\n",
		"- Average tempo: 120 BPM\n",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "Artist F") {
		t.Error("top artists must be capped at five")
	}
	if strings.Contains(prompt, "Song Four") {
		t.Error("top tracks must be capped at three")
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	p := Preferences{Genres: []string{"Rock"}, Mood: "Happy", Energy: "Low"}
	snap := &listening.Snapshot{TopArtists: []listening.Artist{{Name: "A", Genres: []string{"rock"}}}}
	if BuildPrompt(p, snap) != BuildPrompt(p, snap) {
		t.Fatal("BuildPrompt is not deterministic")
	}
}
