// Package api exposes the JSON HTTP surface consumed by the browser front
// end: one recommendation endpoint and the streaming-account link flow.
package api

import (
	"log/slog"
	"net/http"

	"github.com/sydlexius/crescendo/internal/api/middleware"
	"github.com/sydlexius/crescendo/internal/recommend"
	"github.com/sydlexius/crescendo/internal/spotify"
)

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	Resolver      *recommend.Resolver
	Session       *spotify.Session
	SpotifyClient *spotify.Client
	Logger        *slog.Logger
	BasePath      string
	AllowedOrigin string
}

// Router sets up all HTTP routes for the application.
type Router struct {
	resolver      *recommend.Resolver
	session       *spotify.Session
	spotifyClient *spotify.Client
	logger        *slog.Logger
	basePath      string
	allowedOrigin string
}

// NewRouter creates a Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		resolver:      deps.Resolver,
		session:       deps.Session,
		spotifyClient: deps.SpotifyClient,
		logger:        deps.Logger,
		basePath:      deps.BasePath,
		allowedOrigin: deps.AllowedOrigin,
	}
}

// Handler returns the fully configured HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	bp := r.basePath

	mux.HandleFunc("GET "+bp+"/api/v1/health", r.handleHealth)
	mux.HandleFunc("POST "+bp+"/api/v1/recommendations", r.handleRecommendations)

	mux.HandleFunc("GET "+bp+"/api/v1/spotify/status", r.handleSpotifyStatus)
	mux.HandleFunc("GET "+bp+"/api/v1/spotify/login", r.handleSpotifyLogin)
	mux.HandleFunc("GET "+bp+"/api/v1/spotify/callback", r.handleSpotifyCallback)
	mux.HandleFunc("POST "+bp+"/api/v1/spotify/token", r.handleSpotifySetToken)
	mux.HandleFunc("DELETE "+bp+"/api/v1/spotify/token", r.handleSpotifyDisconnect)
	mux.HandleFunc("GET "+bp+"/api/v1/spotify/profile", r.handleSpotifyProfile)
	mux.HandleFunc("GET "+bp+"/api/v1/spotify/search", r.handleSpotifySearch)

	var handler http.Handler = mux
	handler = middleware.CORS(r.allowedOrigin)(handler)
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.Logging(r.logger)(handler)
	return handler
}
