package recommend

import (
	"context"
	"log/slog"

	"github.com/sydlexius/crescendo/internal/listening"
)

// ListeningSource is the capability for fetching the user's real listening
// history. The resolver reads the linked account's state through it and
// never owns the session token itself.
type ListeningSource interface {
	// Authenticated reports whether a streaming account is currently linked.
	Authenticated(ctx context.Context) bool

	// Snapshot fetches a fresh listening snapshot. Failures surface as a
	// single error; a partial snapshot is never returned.
	Snapshot(ctx context.Context) (*listening.Snapshot, error)
}

// Generator is the capability for LLM-backed recommendation generation.
type Generator interface {
	// Configured reports whether a generation credential is available.
	Configured() bool

	// Generate submits the prompt and returns parsed recommendations.
	Generate(ctx context.Context, prompt string) ([]Recommendation, error)
}

// Source identifies which strategy produced a result.
type Source string

// Known result sources.
const (
	SourceLLM   Source = "llm"
	SourceRules Source = "rules"
)

// Result is the resolver's output. Recommendations is never empty and holds
// at most MaxRecommendations entries.
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	Source          Source           `json:"source"`
	UsedListening   bool             `json:"used_listening_data"`
}

// Resolver walks a fixed three-tier degrade chain: LLM enriched with
// listening data, plain LLM, then the rule-based engine. Each tier's
// failure is absorbed and the next tier runs; the rules tier is total, so
// Resolve cannot fail. A snapshot fetched up front is reused by whichever
// tier ultimately executes.
type Resolver struct {
	listening ListeningSource
	generator Generator
	logger    *slog.Logger
}

// NewResolver creates a Resolver. Either capability may be nil, which is
// treated the same as an unlinked account or a missing credential.
func NewResolver(source ListeningSource, generator Generator, logger *slog.Logger) *Resolver {
	return &Resolver{
		listening: source,
		generator: generator,
		logger:    logger.With(slog.String("component", "resolver")),
	}
}

// Resolve produces recommendations for the given preferences. useListening
// requests listening-data enrichment; it is honored only when an account is
// linked and the fetch succeeds.
func (r *Resolver) Resolve(ctx context.Context, p Preferences, useListening bool) Result {
	snap := r.fetchSnapshot(ctx, useListening)

	if recs, ok := r.generate(ctx, p, snap); ok {
		return Result{Recommendations: recs, Source: SourceLLM, UsedListening: snap != nil}
	}

	if snap != nil {
		return Result{Recommendations: ByPreferencesAndListening(p, snap), Source: SourceRules, UsedListening: true}
	}
	return Result{Recommendations: ByPreferencesOnly(p), Source: SourceRules}
}

// fetchSnapshot is tier-entry step one: a failed or skipped fetch simply
// yields no snapshot, never an aborted resolution.
func (r *Resolver) fetchSnapshot(ctx context.Context, useListening bool) *listening.Snapshot {
	if !useListening || r.listening == nil {
		return nil
	}
	if !r.listening.Authenticated(ctx) {
		r.logger.Debug("listening data requested but no account linked")
		return nil
	}

	snap, err := r.listening.Snapshot(ctx)
	if err != nil {
		r.logger.Warn("listening data unavailable, continuing without it",
			slog.String("error", err.Error()))
		return nil
	}
	return snap
}

// generate is the LLM tier. It reports ok=false when no credential is
// configured or the call fails, moving resolution to the rules tier.
func (r *Resolver) generate(ctx context.Context, p Preferences, snap *listening.Snapshot) ([]Recommendation, bool) {
	if r.generator == nil || !r.generator.Configured() {
		return nil, false
	}

	recs, err := r.generator.Generate(ctx, BuildPrompt(p, snap))
	if err != nil {
		r.logger.Warn("generation failed, falling back to rules",
			slog.String("error", err.Error()))
		return nil, false
	}
	if len(recs) == 0 {
		r.logger.Warn("generator returned no recommendations, falling back to rules")
		return nil, false
	}
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs, true
}
