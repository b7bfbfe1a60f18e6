package listening

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sydlexius/crescendo/internal/spotify"
)

// Fetch sizes, matching the provider windows the front end always used.
const (
	fetchLimit   = 20
	featureLimit = 10
	timeRange    = "medium_term"
)

// ErrUnavailable is the single condition every fetch or mapping failure
// collapses into. The resolver treats it as absence of data.
type ErrUnavailable struct {
	Cause error
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("listening data unavailable: %v", e.Cause)
}

func (e *ErrUnavailable) Unwrap() error { return e.Cause }

// Client is the provider surface the adapter consumes.
type Client interface {
	TopTracks(ctx context.Context, limit int, timeRange string) ([]spotify.Track, error)
	TopArtists(ctx context.Context, limit int, timeRange string) ([]spotify.Artist, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]spotify.Track, error)
	AudioFeatures(ctx context.Context, ids []string) ([]*spotify.AudioFeatures, error)
}

// AccountState reports whether a streaming account is linked.
type AccountState interface {
	Authenticated(ctx context.Context) bool
}

// Adapter fetches and normalizes the user's listening history. It is the
// resolver's listening source.
type Adapter struct {
	client  Client
	account AccountState
	logger  *slog.Logger
}

// NewAdapter creates an Adapter.
func NewAdapter(client Client, account AccountState, logger *slog.Logger) *Adapter {
	return &Adapter{
		client:  client,
		account: account,
		logger:  logger.With(slog.String("component", "listening-adapter")),
	}
}

// Authenticated reports whether a streaming account is linked.
func (a *Adapter) Authenticated(ctx context.Context) bool {
	return a.account.Authenticated(ctx)
}

// Snapshot fetches top tracks, top artists and recently played concurrently,
// then audio features for the first tracked IDs, and normalizes everything
// into a Snapshot. The three primary fetches join all-or-nothing: if any
// one fails the whole snapshot is unavailable, never partially populated.
func (a *Adapter) Snapshot(ctx context.Context) (*Snapshot, error) {
	var (
		topTracks  []spotify.Track
		topArtists []spotify.Artist
		recent     []spotify.Track
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		topTracks, err = a.client.TopTracks(gctx, fetchLimit, timeRange)
		return err
	})
	g.Go(func() error {
		var err error
		topArtists, err = a.client.TopArtists(gctx, fetchLimit, timeRange)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = a.client.RecentlyPlayed(gctx, fetchLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.Warn("listening fetch failed", slog.String("error", err.Error()))
		return nil, &ErrUnavailable{Cause: err}
	}

	features, err := a.fetchFeatureAverages(ctx, topTracks)
	if err != nil {
		a.logger.Warn("audio feature fetch failed", slog.String("error", err.Error()))
		return nil, &ErrUnavailable{Cause: err}
	}

	return &Snapshot{
		TopArtists:     mapArtists(topArtists),
		TopTracks:      mapTracks(topTracks),
		RecentlyPlayed: mapTracks(recent),
		Features:       features,
	}, nil
}

// fetchFeatureAverages fetches audio features for the first featureLimit
// top tracks and averages the non-nil entries. No usable entries, or no
// tracks at all, yields the neutral defaults rather than a failure.
func (a *Adapter) fetchFeatureAverages(ctx context.Context, tracks []spotify.Track) (FeatureAverages, error) {
	ids := make([]string, 0, featureLimit)
	for _, t := range tracks {
		if t.ID == "" {
			continue
		}
		ids = append(ids, t.ID)
		if len(ids) == featureLimit {
			break
		}
	}
	if len(ids) == 0 {
		return NeutralFeatures(), nil
	}

	features, err := a.client.AudioFeatures(ctx, ids)
	if err != nil {
		return FeatureAverages{}, err
	}
	return averageFeatures(features), nil
}

func averageFeatures(features []*spotify.AudioFeatures) FeatureAverages {
	var sum FeatureAverages
	var n int
	for _, f := range features {
		if f == nil {
			continue
		}
		sum.Energy += f.Energy
		sum.Valence += f.Valence
		sum.Danceability += f.Danceability
		sum.Tempo += f.Tempo
		n++
	}
	if n == 0 {
		return NeutralFeatures()
	}
	return FeatureAverages{
		Energy:       sum.Energy / float64(n),
		Valence:      sum.Valence / float64(n),
		Danceability: sum.Danceability / float64(n),
		Tempo:        sum.Tempo / float64(n),
	}
}

// mapTracks normalizes provider tracks, tolerating missing optional fields.
func mapTracks(tracks []spotify.Track) []Track {
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		names := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			if a.Name != "" {
				names = append(names, a.Name)
			}
		}
		out = append(out, Track{
			ID:         t.ID,
			Name:       t.Name,
			Artists:    names,
			Album:      t.Album.Name,
			Popularity: t.Popularity,
			LinkURL:    t.ExternalURLs["spotify"],
		})
	}
	return out
}

func mapArtists(artists []spotify.Artist) []Artist {
	out := make([]Artist, 0, len(artists))
	for _, a := range artists {
		out = append(out, Artist{
			Name:       a.Name,
			Genres:     a.Genres,
			Popularity: a.Popularity,
		})
	}
	return out
}
