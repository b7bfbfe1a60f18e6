package listening

import (
	"reflect"
	"testing"
)

func TestTopGenres(t *testing.T) {
	s := &Snapshot{TopArtists: []Artist{
		{Name: "A", Genres: []string{"rock", "pop"}},
		{Name: "B", Genres: []string{"pop"}},
		{Name: "C", Genres: []string{"jazz"}},
	}}

	got := s.TopGenres(3)
	want := []string{"pop", "rock", "jazz"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TopGenres(3) = %v, want %v", got, want)
	}

	if got := s.TopGenres(1); !reflect.DeepEqual(got, []string{"pop"}) {
		t.Errorf("TopGenres(1) = %v, want [pop]", got)
	}
}

func TestTopGenres_TiesKeepFirstSeenOrder(t *testing.T) {
	s := &Snapshot{TopArtists: []Artist{
		{Name: "A", Genres: []string{"indie", "folk"}},
		{Name: "B", Genres: []string{"folk", "indie"}},
	}}

	got := s.TopGenres(2)
	want := []string{"indie", "folk"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TopGenres(2) = %v, want %v", got, want)
	}
}

func TestTopGenres_Empty(t *testing.T) {
	s := &Snapshot{}
	if got := s.TopGenres(3); len(got) != 0 {
		t.Fatalf("TopGenres on an empty snapshot = %v, want empty", got)
	}
}

func TestFirstArtist(t *testing.T) {
	if got := (Track{Artists: []string{"A", "B"}}).FirstArtist(); got != "A" {
		t.Errorf("FirstArtist = %q, want A", got)
	}
	if got := (Track{}).FirstArtist(); got != "" {
		t.Errorf("FirstArtist on empty billing = %q, want empty", got)
	}
}

func TestNeutralFeatures(t *testing.T) {
	f := NeutralFeatures()
	if f.Energy != 0.5 || f.Valence != 0.5 || f.Danceability != 0.5 || f.Tempo != 120 {
		t.Fatalf("unexpected neutral defaults: %+v", f)
	}
}
