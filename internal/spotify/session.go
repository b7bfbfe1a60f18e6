// Package spotify provides the streaming-provider integration: the OAuth
// session that owns the account-link token, and a Web API client for the
// read-only endpoints the recommendation pipeline consumes.
package spotify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/sydlexius/crescendo/internal/encryption"
)

// Scopes is the read-only surface requested when linking an account.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"user-top-read",
	"user-read-recently-played",
	"playlist-read-private",
	"playlist-read-collaborative",
}

// Settings keys for persisted session state. The token is the only value
// that outlives a single resolution; the state and verifier exist only
// between issuing an authorization URL and completing the callback.
const (
	keyToken    = "spotify.token"
	keyState    = "spotify.oauth_state"
	keyVerifier = "spotify.pkce_verifier"
)

// Session owns the account-link lifecycle: authorization URL with PKCE,
// code exchange, token persistence (encrypted at rest) and refresh. The
// recommendation core only ever reads the session through the TokenSource
// and Authenticated capabilities.
type Session struct {
	db     *sql.DB
	enc    *encryption.Encryptor
	oauth  *oauth2.Config
	logger *slog.Logger
}

// NewSession creates a Session. An empty clientID leaves the session
// unconfigured: AuthorizationURL fails and Authenticated reports false.
func NewSession(db *sql.DB, enc *encryption.Encryptor, clientID, redirectURL string, logger *slog.Logger) *Session {
	return &Session{
		db:  db,
		enc: enc,
		oauth: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURL,
			Endpoint:    endpoints.Spotify,
			Scopes:      Scopes,
		},
		logger: logger.With(slog.String("component", "spotify-session")),
	}
}

// Configured reports whether a client ID is available.
func (s *Session) Configured() bool {
	return s.oauth.ClientID != ""
}

// Authenticated reports whether a usable token is stored.
func (s *Session) Authenticated(ctx context.Context) bool {
	tok, err := s.loadToken(ctx)
	if err != nil {
		return false
	}
	return tok.Valid() || tok.RefreshToken != ""
}

// AuthorizationURL begins an account link. It generates fresh PKCE and
// state material, persists it for the callback, and returns the provider's
// consent URL. Fails with ErrNotConfigured when no client ID is set.
func (s *Session) AuthorizationURL(ctx context.Context) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()

	if err := s.setSetting(ctx, keyVerifier, verifier); err != nil {
		return "", fmt.Errorf("storing pkce verifier: %w", err)
	}
	if err := s.setSetting(ctx, keyState, state); err != nil {
		return "", fmt.Errorf("storing oauth state: %w", err)
	}

	return s.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// Exchange completes the authorization-code flow: it verifies the state,
// redeems the code with the stored PKCE verifier and persists the token.
func (s *Session) Exchange(ctx context.Context, code, state string) error {
	wantState, err := s.getSetting(ctx, keyState)
	if err != nil || wantState == "" || state != wantState {
		return ErrStateMismatch
	}

	verifier, err := s.getSetting(ctx, keyVerifier)
	if err != nil || verifier == "" {
		return ErrStateMismatch
	}

	tok, err := s.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	if err := s.saveToken(ctx, tok); err != nil {
		return err
	}

	// One-shot material; a new link attempt generates fresh values.
	_ = s.deleteSetting(ctx, keyState)
	_ = s.deleteSetting(ctx, keyVerifier)

	s.logger.Info("spotify account linked")
	return nil
}

// SetToken stores a token obtained by the browser via the implicit flow.
// Implicit-flow tokens carry no refresh token; once expired the account
// must be re-linked.
func (s *Session) SetToken(ctx context.Context, accessToken string, expiresIn int) error {
	if accessToken == "" {
		return errors.New("empty access token")
	}
	tok := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}
	if expiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	if err := s.saveToken(ctx, tok); err != nil {
		return err
	}
	s.logger.Info("spotify token stored")
	return nil
}

// ClearToken unlinks the account.
func (s *Session) ClearToken(ctx context.Context) error {
	if err := s.deleteSetting(ctx, keyToken); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	s.logger.Info("spotify account unlinked")
	return nil
}

// Token returns a valid access token, refreshing and re-persisting it when
// the stored one has expired. Returns ErrNotLinked when no account is
// linked and ErrAuthRequired when the token can no longer be refreshed.
func (s *Session) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := s.loadToken(ctx)
	if err != nil {
		return nil, err
	}
	if tok.Valid() {
		return tok, nil
	}
	if tok.RefreshToken == "" {
		return nil, ErrAuthRequired
	}

	fresh, err := s.oauth.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	if err := s.saveToken(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (s *Session) saveToken(ctx context.Context, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	sealed, err := s.enc.Encrypt(string(raw))
	if err != nil {
		return fmt.Errorf("encrypting token: %w", err)
	}
	if err := s.setSetting(ctx, keyToken, sealed); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

func (s *Session) loadToken(ctx context.Context) (*oauth2.Token, error) {
	sealed, err := s.getSetting(ctx, keyToken)
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}
	if sealed == "" {
		return nil, ErrNotLinked
	}
	raw, err := s.enc.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypting token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return &tok, nil
}

func (s *Session) getSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Session) setSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	return err
}

func (s *Session) deleteSetting(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key)
	return err
}
