package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.spotify.com/v1"

const (
	maxRetries  = 3
	baseBackoff = 500 * time.Millisecond
	maxBodySize = 1 << 20
)

// TokenSource supplies a valid bearer token for outbound requests.
// *Session implements it.
type TokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// Client talks to the Spotify Web API. Requests are rate limited and
// transient failures (429 and 5xx) are retried with exponential backoff
// before surfacing as ErrUnavailable.
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *slog.Logger
	baseURL    string
}

// NewClient creates a client against the production API.
func NewClient(tokens TokenSource, logger *slog.Logger) *Client {
	return NewClientWithBaseURL(tokens, logger, defaultBaseURL)
}

// NewClientWithBaseURL creates a client with a custom base URL (for testing).
func NewClientWithBaseURL(tokens TokenSource, logger *slog.Logger, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
		logger:     logger.With(slog.String("component", "spotify-client")),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Profile fetches the current user's profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// TopTracks fetches the user's top tracks for the given time range.
func (c *Client) TopTracks(ctx context.Context, limit int, timeRange string) ([]Track, error) {
	var page pagedTracks
	params := url.Values{
		"limit":      {fmt.Sprint(limit)},
		"time_range": {timeRange},
	}
	if err := c.get(ctx, "/me/top/tracks", params, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// TopArtists fetches the user's top artists for the given time range.
func (c *Client) TopArtists(ctx context.Context, limit int, timeRange string) ([]Artist, error) {
	var page pagedArtists
	params := url.Values{
		"limit":      {fmt.Sprint(limit)},
		"time_range": {timeRange},
	}
	if err := c.get(ctx, "/me/top/artists", params, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// RecentlyPlayed fetches the user's play history, newest first.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]Track, error) {
	var page recentlyPlayedPage
	params := url.Values{"limit": {fmt.Sprint(limit)}}
	if err := c.get(ctx, "/me/player/recently-played", params, &page); err != nil {
		return nil, err
	}
	tracks := make([]Track, 0, len(page.Items))
	for _, item := range page.Items {
		tracks = append(tracks, item.Track)
	}
	return tracks, nil
}

// AudioFeatures fetches audio features for up to 100 track IDs. The result
// is positionally aligned with ids; entries without an analysis are nil.
func (c *Client) AudioFeatures(ctx context.Context, ids []string) ([]*AudioFeatures, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var page audioFeaturesPage
	params := url.Values{"ids": {strings.Join(ids, ",")}}
	if err := c.get(ctx, "/audio-features", params, &page); err != nil {
		return nil, err
	}
	return page.AudioFeatures, nil
}

// SearchTracks searches the provider's track catalog.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	var page searchPage
	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {fmt.Sprint(limit)},
	}
	if err := c.get(ctx, "/search", params, &page); err != nil {
		return nil, err
	}
	return page.Tracks.Items, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &ErrUnavailable{Cause: fmt.Errorf("rate limiter: %w", err)}
	}

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(baseBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return c.doOnce(ctx, reqURL, tok.AccessToken, out)
	})
	if err != nil {
		var unavailable *ErrUnavailable
		if errors.As(err, &unavailable) {
			return unavailable
		}
		return err
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, reqURL, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(&ErrUnavailable{Cause: err})
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrAuthRequired
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, resp.Body)
		return retry.RetryableError(&ErrUnavailable{Cause: fmt.Errorf("HTTP %d", resp.StatusCode)})
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return &ErrUnavailable{Cause: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return retry.RetryableError(&ErrUnavailable{Cause: err})
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ErrUnavailable{Cause: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
