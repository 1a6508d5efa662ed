package services

import (
	"context"
	"log/slog"
	"time"
)

// Cleanup batches the persistence work that follows a dispatch: removing
// tokens the provider has condemned, suppressing them for other
// instances, and stamping last-used times on tokens that just delivered.
// Failures here are logged, never propagated: the sends already happened
// and the summary must not change after the fact.
type Cleanup struct {
	store  TokenStore
	cache  SuppressionCache
	logger *slog.Logger
}

func NewCleanup(store TokenStore, cache SuppressionCache, logger *slog.Logger) *Cleanup {
	return &Cleanup{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// RemoveInvalid deletes exactly the given tokens from the user's set and
// marks them suppressed so concurrent instances skip them too.
func (c *Cleanup) RemoveInvalid(ctx context.Context, userID string, tokens []string) {
	if len(tokens) == 0 {
		return
	}
	if err := c.store.Remove(ctx, userID, tokens); err != nil {
		c.logger.Error("failed to remove invalid tokens",
			slog.String("user_id", userID),
			slog.Int("count", len(tokens)),
			slog.Any("error", err))
	}
	if c.cache == nil {
		return
	}
	if err := c.cache.SuppressTokens(ctx, tokens); err != nil {
		c.logger.Warn("failed to suppress invalid tokens",
			slog.Int("count", len(tokens)),
			slog.Any("error", err))
	}
}

// TouchLastUsed stamps last_used_at for tokens that received a
// successful send in the current call.
func (c *Cleanup) TouchLastUsed(ctx context.Context, userID string, tokens []string) {
	if len(tokens) == 0 {
		return
	}
	if err := c.store.TouchLastUsed(ctx, userID, tokens, time.Now().UTC()); err != nil {
		c.logger.Error("failed to update last-used timestamps",
			slog.String("user_id", userID),
			slog.Int("count", len(tokens)),
			slog.Any("error", err))
	}
}
