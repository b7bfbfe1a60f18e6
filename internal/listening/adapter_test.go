package listening

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/sydlexius/crescendo/internal/spotify"
)

type stubClient struct {
	topTracks    []spotify.Track
	topTracksErr error

	topArtists    []spotify.Artist
	topArtistsErr error

	recent    []spotify.Track
	recentErr error

	features     []*spotify.AudioFeatures
	featuresErr  error
	featureCalls int
	featureIDs   []string
}

func (c *stubClient) TopTracks(_ context.Context, _ int, _ string) ([]spotify.Track, error) {
	return c.topTracks, c.topTracksErr
}

func (c *stubClient) TopArtists(_ context.Context, _ int, _ string) ([]spotify.Artist, error) {
	return c.topArtists, c.topArtistsErr
}

func (c *stubClient) RecentlyPlayed(_ context.Context, _ int) ([]spotify.Track, error) {
	return c.recent, c.recentErr
}

func (c *stubClient) AudioFeatures(_ context.Context, ids []string) ([]*spotify.AudioFeatures, error) {
	c.featureCalls++
	c.featureIDs = ids
	return c.features, c.featuresErr
}

type stubAccount struct{ authed bool }

func (a stubAccount) Authenticated(context.Context) bool { return a.authed }

func newTestAdapter(c *stubClient) *Adapter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAdapter(c, stubAccount{authed: true}, logger)
}

func wireTrack(id, name, artist string) spotify.Track {
	return spotify.Track{
		ID:           id,
		Name:         name,
		Artists:      []spotify.TrackArtist{{Name: artist}},
		Album:        spotify.Album{Name: "Album"},
		ExternalURLs: map[string]string{"spotify": "https://open.spotify.com/track/" + id},
	}
}

func TestSnapshot(t *testing.T) {
	c := &stubClient{
		topTracks:  []spotify.Track{wireTrack("t1", "Song One", "Artist A"), wireTrack("t2", "Song Two", "Artist B")},
		topArtists: []spotify.Artist{{Name: "Artist A", Genres: []string{"pop"}, Popularity: 80}},
		recent:     []spotify.Track{wireTrack("t3", "Song Three", "Artist C")},
		features: []*spotify.AudioFeatures{
			{Energy: 0.8, Valence: 0.6, Danceability: 0.4, Tempo: 100},
			{Energy: 0.6, Valence: 0.4, Danceability: 0.6, Tempo: 140},
		},
	}
	snap, err := newTestAdapter(c).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if len(snap.TopTracks) != 2 || snap.TopTracks[0].Name != "Song One" {
		t.Errorf("unexpected top tracks: %+v", snap.TopTracks)
	}
	if snap.TopTracks[0].LinkURL != "https://open.spotify.com/track/t1" {
		t.Errorf("LinkURL = %q", snap.TopTracks[0].LinkURL)
	}
	if len(snap.TopArtists) != 1 || snap.TopArtists[0].Name != "Artist A" {
		t.Errorf("unexpected top artists: %+v", snap.TopArtists)
	}
	if len(snap.RecentlyPlayed) != 1 || snap.RecentlyPlayed[0].FirstArtist() != "Artist C" {
		t.Errorf("unexpected recently played: %+v", snap.RecentlyPlayed)
	}

	want := FeatureAverages{Energy: 0.7, Valence: 0.5, Danceability: 0.5, Tempo: 120}
	if !featuresNear(snap.Features, want) {
		t.Errorf("Features = %+v, want %+v", snap.Features, want)
	}
}

func featuresNear(a, b FeatureAverages) bool {
	near := func(x, y float64) bool { return math.Abs(x-y) < 1e-9 }
	return near(a.Energy, b.Energy) && near(a.Valence, b.Valence) &&
		near(a.Danceability, b.Danceability) && near(a.Tempo, b.Tempo)
}

func TestSnapshot_PartialFailureIsTotal(t *testing.T) {
	c := &stubClient{
		topTracks:     []spotify.Track{wireTrack("t1", "Song One", "Artist A")},
		topArtistsErr: errors.New("rate limited"),
		recent:        []spotify.Track{wireTrack("t3", "Song Three", "Artist C")},
	}
	snap, err := newTestAdapter(c).Snapshot(context.Background())
	if snap != nil {
		t.Fatal("a failed fetch must not yield a partial snapshot")
	}
	var unavailable *ErrUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("error = %v, want *ErrUnavailable", err)
	}
}

func TestSnapshot_FeatureIDCap(t *testing.T) {
	c := &stubClient{features: []*spotify.AudioFeatures{{Energy: 0.5}}}
	for i := 0; i < 15; i++ {
		c.topTracks = append(c.topTracks, wireTrack(string(rune('a'+i)), "Song", "Artist"))
	}

	if _, err := newTestAdapter(c).Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(c.featureIDs) != featureLimit {
		t.Fatalf("requested features for %d IDs, want %d", len(c.featureIDs), featureLimit)
	}
}

func TestSnapshot_NoTracksSkipsFeatureFetch(t *testing.T) {
	c := &stubClient{}
	snap, err := newTestAdapter(c).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if c.featureCalls != 0 {
		t.Errorf("AudioFeatures called %d times for an empty track list", c.featureCalls)
	}
	if snap.Features != NeutralFeatures() {
		t.Errorf("Features = %+v, want neutral defaults", snap.Features)
	}
}

func TestAverageFeatures_AllNull(t *testing.T) {
	got := averageFeatures([]*spotify.AudioFeatures{nil, nil, nil})
	if got != NeutralFeatures() {
		t.Fatalf("averageFeatures over nulls = %+v, want neutral defaults", got)
	}
}

func TestAverageFeatures_SkipsNulls(t *testing.T) {
	got := averageFeatures([]*spotify.AudioFeatures{
		nil,
		{Energy: 0.4, Valence: 0.2, Danceability: 0.8, Tempo: 90},
		nil,
		{Energy: 0.6, Valence: 0.4, Danceability: 0.2, Tempo: 110},
	})
	want := FeatureAverages{Energy: 0.5, Valence: 0.3, Danceability: 0.5, Tempo: 100}
	if !featuresNear(got, want) {
		t.Fatalf("averageFeatures = %+v, want %+v", got, want)
	}
}
