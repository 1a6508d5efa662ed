package retry

import (
	"context"
	"errors"
	"time"
)

// Config describes the retry behavior for one logical send.
type Config struct {
	// MaxAttempts bounds the total number of attempts, first try included.
	MaxAttempts int
	// BaseDelay is the delay before the first retry; each further retry
	// doubles it. No jitter is applied.
	BaseDelay time.Duration
	// IsTerminal classifies an attempt error as not worth retrying.
	// A terminal error propagates immediately regardless of the
	// remaining attempt budget. Nil means every error is retryable.
	IsTerminal func(error) bool
}

// sleep is swapped out by tests to avoid real delays.
var sleep = sleepContext

// Do executes fn up to cfg.MaxAttempts times with exponential backoff
// between attempts. It stops early on success, on a terminal error, or
// when ctx is done; the last error observed is returned.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}

	var err error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return errors.Join(err, ctxErr)
			}
			return ctxErr
		}

		if err = fn(); err == nil {
			return nil
		}
		if cfg.IsTerminal != nil && cfg.IsTerminal(err) {
			return err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := cfg.BaseDelay << uint(attempt)
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return errors.Join(err, sleepErr)
		}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
