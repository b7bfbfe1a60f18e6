package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/sydlexius/crescendo/internal/listening"
)

// preferenceRule pairs a genre/mood/energy condition with the recommendation
// it produces. Rules are independent; every matching rule appends one entry,
// in declaration order. The catalog is data rather than branching so product
// content can be replaced without touching the engine.
type preferenceRule struct {
	genre  string
	moods  []string // empty matches any mood
	energy string   // empty matches any energy level
	rec    Recommendation
	reason func(p Preferences) string // overrides rec.Reason when set
}

var preferenceRules = []preferenceRule{
	{
		genre: "Rock",
		moods: []string{"Energetic"},
		rec:   Recommendation{Title: "Don't Stop Believin'", Artist: "Journey", Genre: "Rock"},
		reason: func(p Preferences) string {
			return fmt.Sprintf("Perfect for your energetic mood! This classic rock anthem matches your love for %s music.",
				strings.Join(p.Genres, ", "))
		},
	},
	{
		genre: "Pop",
		moods: []string{"Happy", "Energetic"},
		rec:   Recommendation{Title: "Levitating", Artist: "Dua Lipa", Genre: "Pop"},
		reason: func(p Preferences) string {
			return fmt.Sprintf("This upbeat pop hit is perfect for your %s mood and high energy preferences.",
				strings.ToLower(p.Mood))
		},
	},
	{
		genre:  "Hip Hop",
		energy: "High",
		rec: Recommendation{
			Title: "HUMBLE.", Artist: "Kendrick Lamar", Genre: "Hip Hop",
			Reason: "A high-energy hip hop track that matches your preference for intense, powerful music.",
		},
	},
	{
		genre: "Electronic",
		moods: []string{"Chill"},
		rec: Recommendation{
			Title: "Midnight City", Artist: "M83", Genre: "Electronic",
			Reason: "This electronic masterpiece creates the perfect chill atmosphere while maintaining engaging energy.",
		},
	},
	{
		genre: "Jazz",
		moods: []string{"Calm", "Peaceful"},
		rec: Recommendation{
			Title: "Take Five", Artist: "Dave Brubeck", Genre: "Jazz",
			Reason: "A timeless jazz classic that perfectly captures peaceful, contemplative moods.",
		},
	},
	{
		genre: "Indie",
		moods: []string{"Nostalgic"},
		rec: Recommendation{
			Title: "Such Great Heights", Artist: "The Postal Service", Genre: "Indie Electronic",
			Reason: "This indie gem evokes nostalgic feelings with its dreamy soundscape and heartfelt lyrics.",
		},
	},
}

// artistRule matches a lower-cased substring of the free-text favorite
// artists field. The field is never parsed into a list.
type artistRule struct {
	substring string
	rec       Recommendation
}

var artistRules = []artistRule{
	{
		substring: "taylor swift",
		rec: Recommendation{
			Title: "Anti-Hero", Artist: "Taylor Swift", Genre: "Pop",
			Reason: "Since you mentioned Taylor Swift as a favorite, this recent hit showcases her evolving sound.",
		},
	},
	{
		substring: "beatles",
		rec: Recommendation{
			Title: "Here Comes the Sun", Artist: "The Beatles", Genre: "Rock",
			Reason: "A perfect Beatles track that matches your preference for uplifting, timeless music.",
		},
	},
}

// fallbackPair returns the fixed recommendations used when no rule fires.
// Order is fixed; the first reason interpolates mood and energy.
func fallbackPair(p Preferences) []Recommendation {
	return []Recommendation{
		{
			Title: "Blinding Lights", Artist: "The Weeknd", Genre: "Pop",
			Reason: fmt.Sprintf("Based on your %s mood and %s energy preference, this hit should be perfect!",
				strings.ToLower(p.Mood), strings.ToLower(p.Energy)),
		},
		{
			Title: "Good as Hell", Artist: "Lizzo", Genre: "Pop/R&B",
			Reason: "This empowering anthem matches your music taste and current vibe.",
		},
	}
}

// ByPreferencesOnly evaluates the fixed rule catalog against the given
// preferences. It is a pure function: identical input yields identical
// output. The result always has between 1 and MaxRecommendations entries.
func ByPreferencesOnly(p Preferences) []Recommendation {
	var recs []Recommendation

	for _, rule := range preferenceRules {
		if !p.HasGenre(rule.genre) {
			continue
		}
		if len(rule.moods) > 0 && !contains(rule.moods, p.Mood) {
			continue
		}
		if rule.energy != "" && rule.energy != p.Energy {
			continue
		}
		rec := rule.rec
		if rule.reason != nil {
			rec.Reason = rule.reason(p)
		}
		recs = append(recs, rec)
	}

	favorites := strings.ToLower(p.FavoriteArtists)
	for _, rule := range artistRules {
		if strings.Contains(favorites, rule.substring) {
			recs = append(recs, rule.rec)
		}
	}

	if len(recs) == 0 {
		recs = fallbackPair(p)
	}

	return truncate(recs)
}

// similarTracks is the fixed lookup behind the listening-aware engine,
// keyed by lower-cased artist name. A top artist without an entry simply
// produces no recommendation; the engine never fabricates one.
var similarTracks = map[string]Recommendation{
	"the weeknd":     {Title: "Save Your Tears", Artist: "The Weeknd", Genre: "Pop"},
	"taylor swift":   {Title: "Cruel Summer", Artist: "Taylor Swift", Genre: "Pop"},
	"dua lipa":       {Title: "Don't Start Now", Artist: "Dua Lipa", Genre: "Pop"},
	"harry styles":   {Title: "Watermelon Sugar", Artist: "Harry Styles", Genre: "Pop"},
	"kendrick lamar": {Title: "Money Trees", Artist: "Kendrick Lamar", Genre: "Hip Hop"},
	"adele":          {Title: "Someone Like You", Artist: "Adele", Genre: "Pop"},
}

// Thresholds above which the aggregate-feature rules fire.
const (
	energyThreshold  = 0.6
	valenceThreshold = 0.6
)

// ByPreferencesAndListening blends the fixed catalog with the user's real
// listening snapshot. Like ByPreferencesOnly it is pure and returns between
// 1 and MaxRecommendations entries.
func ByPreferencesAndListening(p Preferences, snap *listening.Snapshot) []Recommendation {
	var recs []Recommendation

	topArtists := snap.TopArtists
	if len(topArtists) > 3 {
		topArtists = topArtists[:3]
	}
	for _, artist := range topArtists {
		rec, ok := similarTracks[strings.ToLower(artist.Name)]
		if !ok {
			continue
		}
		rec.Reason = fmt.Sprintf("Because %s is one of your most played artists, this track should feel right at home.", artist.Name)
		recs = append(recs, rec)
	}

	if snap.Features.Energy > energyThreshold && p.Mood == "Energetic" {
		recs = append(recs, Recommendation{
			Title: "Titanium", Artist: "David Guetta feat. Sia", Genre: "Dance",
			Reason: fmt.Sprintf("Your listening history averages %d%% energy, a great match for your energetic mood.",
				toPercent(snap.Features.Energy)),
		})
	}

	if snap.Features.Valence > valenceThreshold && p.Mood == "Happy" {
		recs = append(recs, Recommendation{
			Title: "Walking on Sunshine", Artist: "Katrina and the Waves", Genre: "Pop",
			Reason: fmt.Sprintf("Your listening history averages %d%% positivity, which fits your happy mood perfectly.",
				toPercent(snap.Features.Valence)),
		})
	}

	if len(snap.RecentlyPlayed) > 0 {
		recent := snap.RecentlyPlayed[0]
		genre := p.Genres[0]
		if top := snap.TopGenres(1); len(top) > 0 {
			genre = top[0]
		}
		recs = append(recs, Recommendation{
			Title:  "Similar to " + recent.FirstArtist(),
			Artist: recent.FirstArtist(),
			Genre:  genre,
			Reason: fmt.Sprintf("You recently played %s by %s; expect more in your most played genre, %s.",
				recent.Name, recent.FirstArtist(), genre),
		})
	}

	if len(recs) == 0 {
		recs = fallbackPair(p)
	}

	return truncate(recs)
}

func truncate(recs []Recommendation) []Recommendation {
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

// toPercent converts a [0,1] feature average to an integer percentage.
func toPercent(v float64) int {
	return int(math.Round(v * 100))
}
