package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sydlexius/crescendo/internal/api"
	"github.com/sydlexius/crescendo/internal/config"
	"github.com/sydlexius/crescendo/internal/database"
	"github.com/sydlexius/crescendo/internal/encryption"
	"github.com/sydlexius/crescendo/internal/listening"
	"github.com/sydlexius/crescendo/internal/logging"
	"github.com/sydlexius/crescendo/internal/openai"
	"github.com/sydlexius/crescendo/internal/recommend"
	"github.com/sydlexius/crescendo/internal/spotify"
	"github.com/sydlexius/crescendo/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	configPath := os.Getenv("CRESCENDO_CONFIG_PATH")
	if configPath == "" {
		configPath = "/data/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logManager, logger := logging.NewManager(loggingConfig(cfg))
	defer logManager.Close() //nolint:errcheck
	slog.SetDefault(logger)

	logger.Info("starting crescendo",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	enc, key, err := encryption.New(cfg.Encryption.Key)
	if err != nil {
		return fmt.Errorf("initializing encryption: %w", err)
	}
	if cfg.Encryption.Key == "" {
		logger.Warn("no encryption key configured, generated an ephemeral one; stored tokens will not survive a restart",
			slog.String("hint", "set CRESCENDO_ENCRYPTION_KEY to persist"), slog.Int("key_len", len(key)))
	}

	session := spotify.NewSession(db, enc, cfg.Spotify.ClientID, cfg.Spotify.RedirectURL, logger)
	spotifyClient := spotify.NewClient(session, logger)
	adapter := listening.NewAdapter(spotifyClient, session, logger)

	generator := openai.NewClient(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
	}, logger)
	if !generator.Configured() {
		logger.Info("no OpenAI API key configured, serving rule-based recommendations only")
	}

	resolver := recommend.NewResolver(adapter, generator, logger)

	router := api.NewRouter(api.RouterDeps{
		Resolver:      resolver,
		Session:       session,
		SpotifyClient: spotifyClient,
		Logger:        logger,
		BasePath:      cfg.Server.BasePath,
		AllowedOrigin: cfg.Server.AllowedOrigin,
	})

	// Re-apply the logging section when the config file changes on disk.
	go func() {
		if err := config.Watch(ctx, configPath, logger, func(fresh *config.Config) {
			logManager.Reconfigure(loggingConfig(fresh))
		}); err != nil {
			logger.Warn("config watcher unavailable", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		return nil
	}
}

func loggingConfig(cfg *config.Config) logging.Config {
	return logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FilePath:       cfg.Logging.FilePath,
		FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
		FileMaxFiles:   cfg.Logging.FileMaxFiles,
		FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
	}
}
