package spotify

// Wire types for the subset of the Spotify Web API this service consumes.
// They mirror the provider's payloads; normalization into internal shapes
// happens in the listening package.

// Track is a track object as returned by the top-tracks, recently-played
// and search endpoints.
type Track struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []TrackArtist     `json:"artists"`
	Album        Album             `json:"album"`
	Popularity   int               `json:"popularity"`
	PreviewURL   *string           `json:"preview_url"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// TrackArtist is the abbreviated artist object embedded in a track.
type TrackArtist struct {
	Name string `json:"name"`
}

// Album is the abbreviated album object embedded in a track.
type Album struct {
	Name string `json:"name"`
}

// Artist is a full artist object from the top-artists endpoint. Genres may
// be empty; the provider does not tag every artist.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
}

// AudioFeatures is one entry of the audio-features batch endpoint. The
// batch array carries null for tracks without an analysis, so consumers
// receive *AudioFeatures.
type AudioFeatures struct {
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Danceability float64 `json:"danceability"`
	Tempo        float64 `json:"tempo"`
}

// Profile is the current user's profile.
type Profile struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Images      []Image `json:"images"`
	Followers   struct {
		Total int `json:"total"`
	} `json:"followers"`
}

// Image is a provider-hosted image reference.
type Image struct {
	URL string `json:"url"`
}

type pagedTracks struct {
	Items []Track `json:"items"`
}

type pagedArtists struct {
	Items []Artist `json:"items"`
}

type recentlyPlayedPage struct {
	Items []struct {
		Track Track `json:"track"`
	} `json:"items"`
}

type audioFeaturesPage struct {
	AudioFeatures []*AudioFeatures `json:"audio_features"`
}

type searchPage struct {
	Tracks pagedTracks `json:"tracks"`
}
