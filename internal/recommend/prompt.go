package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/sydlexius/crescendo/internal/listening"
)

// notSpecified substitutes for empty free-text fields in the prompt.
const notSpecified = "Not specified"

// promptInstructions is the fixed block appended to every prompt. The model
// must answer with a bare JSON array carrying exactly the four output fields.
const promptInstructions = `Suggest 3-4 specific songs with artist names, genres, and reasons why they match the preferences.
Respond with ONLY a JSON array of objects with exactly these string fields: title, artist, genre, reason.
Each reason must reference the mood and energy values exactly as given above. No text outside the JSON array.`

// BuildPrompt renders the preferences, and the listening snapshot when one
// is available, into a single prompt for the chat-completion API. It is a
// pure function of its inputs.
func BuildPrompt(p Preferences, snap *listening.Snapshot) string {
	var b strings.Builder

	b.WriteString("Based on these music preferences:\n")
	fmt.Fprintf(&b, "- Genres: %s\n", strings.Join(p.Genres, ", "))
	fmt.Fprintf(&b, "- Mood: %s\n", p.Mood)
	fmt.Fprintf(&b, "- Energy: %s\n", p.Energy)
	fmt.Fprintf(&b, "- Recently listened: %s\n", orNotSpecified(p.RecentlyListened))
	fmt.Fprintf(&b, "- Favorite artists: %s\n", orNotSpecified(p.FavoriteArtists))

	if snap != nil {
		b.WriteString("\nThe listener's real streaming history:\n")
		fmt.Fprintf(&b, "- Top artists: %s\n", strings.Join(artistNames(snap.TopArtists, 5), ", "))
		fmt.Fprintf(&b, "- Top tracks: %s\n", strings.Join(trackTitles(snap.TopTracks, 3), ", "))
		fmt.Fprintf(&b, "- Top genres: %s\n", strings.Join(snap.TopGenres(3), ", "))
		fmt.Fprintf(&b, "- Average energy: %d%%\n", toPercent(snap.Features.Energy))
		fmt.Fprintf(&b, "- Average positivity: %d%%\n", toPercent(snap.Features.Valence))
		fmt.Fprintf(&b, "- Average tempo: %d BPM\n", int(math.Round(snap.Features.Tempo)))
	}

	b.WriteString("\n")
	b.WriteString(promptInstructions)
	return b.String()
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}

func artistNames(artists []listening.Artist, limit int) []string {
	if len(artists) > limit {
		artists = artists[:limit]
	}
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return names
}

// trackTitles renders up to limit tracks as "Title by Artist", using the
// first-billed artist only.
func trackTitles(tracks []listening.Track, limit int) []string {
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	titles := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if artist := t.FirstArtist(); artist != "" {
			titles = append(titles, fmt.Sprintf("%s by %s", t.Name, artist))
		} else {
			titles = append(titles, t.Name)
		}
	}
	return titles
}
