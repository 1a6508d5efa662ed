package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dara-tech/flirty-sub005/internal/models"
	"github.com/dara-tech/flirty-sub005/internal/provider"
	"github.com/dara-tech/flirty-sub005/internal/repository"
	"github.com/dara-tech/flirty-sub005/pkg/breaker"
	"github.com/dara-tech/flirty-sub005/pkg/metrics"
	"github.com/dara-tech/flirty-sub005/pkg/retry"
)

// Failure reasons the dispatcher can put on a summary before any token
// is attempted. The consumer uses these to decide requeueing.
const (
	ReasonNotInitialized = "notification service not initialized"
	ReasonNoTokens       = "no valid push tokens"
	ReasonLoadTimeout    = "timed out loading push tokens"
	ReasonLoadFailed     = "failed to load push tokens"
)

// TokenStore is the slice of the persistence layer the engine needs.
type TokenStore interface {
	FindByUser(ctx context.Context, userID string) ([]models.PushToken, error)
	Remove(ctx context.Context, userID string, tokens []string) error
	TouchLastUsed(ctx context.Context, userID string, tokens []string, at time.Time) error
}

// SuppressionCache tracks tokens already proven invalid.
type SuppressionCache interface {
	IsTokenSuppressed(ctx context.Context, token string) (bool, error)
	SuppressTokens(ctx context.Context, tokens []string) error
}

// DispatchConfig carries the timing knobs of one dispatcher.
type DispatchConfig struct {
	// LoadTimeout bounds the token-set load from the store.
	LoadTimeout time.Duration
	// SendTimeout bounds one token's send including retries. Calls get
	// CallSendTimeout instead: the iOS path needs latency headroom for
	// background wake.
	SendTimeout     time.Duration
	CallSendTimeout time.Duration
	// MessageRetry and CallRetry size the attempt budget per token.
	// Calls are time-sensitive and get the smaller budget.
	MessageRetry retry.Config
	CallRetry    retry.Config
}

func (c DispatchConfig) withDefaults() DispatchConfig {
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = 5 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
	if c.CallSendTimeout <= 0 {
		c.CallSendTimeout = 12 * time.Second
	}
	if c.MessageRetry.MaxAttempts <= 0 {
		c.MessageRetry.MaxAttempts = 3
	}
	if c.MessageRetry.BaseDelay <= 0 {
		c.MessageRetry.BaseDelay = 100 * time.Millisecond
	}
	if c.CallRetry.MaxAttempts <= 0 {
		c.CallRetry.MaxAttempts = 2
	}
	if c.CallRetry.BaseDelay <= 0 {
		c.CallRetry.BaseDelay = 50 * time.Millisecond
	}
	// Terminal token rejections are never worth a retry.
	c.MessageRetry.IsTerminal = provider.IsTerminal
	c.CallRetry.IsTerminal = provider.IsTerminal
	return c
}

// Dispatcher runs the per-recipient delivery flow: load tokens, filter,
// send one by one behind the circuit breaker, classify outcomes, and
// hand the fallout to Cleanup.
type Dispatcher struct {
	store   TokenStore
	cache   SuppressionCache
	gateway provider.Gateway
	brk     *breaker.Breaker
	cleanup *Cleanup
	metrics *metrics.Metrics
	logger  *slog.Logger
	cfg     DispatchConfig
}

func NewDispatcher(
	store TokenStore,
	cache SuppressionCache,
	gateway provider.Gateway,
	brk *breaker.Breaker,
	cleanup *Cleanup,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg DispatchConfig,
) *Dispatcher {
	return &Dispatcher{
		store:   store,
		cache:   cache,
		gateway: gateway,
		brk:     brk,
		cleanup: cleanup,
		metrics: m,
		logger:  logger,
		cfg:     cfg.withDefaults(),
	}
}

// Dispatch delivers one payload to every usable token of the receiver.
// Tokens are processed sequentially on purpose: the breaker must see
// each outcome before the next send, so a provider outage detected on
// the first token short-circuits the rest instead of burning their
// timeout budgets.
func (d *Dispatcher) Dispatch(ctx context.Context, receiverID string, p *Payload) *models.DeliverySummary {
	start := time.Now()
	log := d.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.String("receiver_id", receiverID),
		slog.String("kind", string(p.Kind)),
	)

	if d.store == nil || d.gateway == nil {
		return d.finish(log, p, start, models.Failure(ReasonNotInitialized))
	}

	if d.brk.IsOpen() {
		log.Warn("circuit breaker open, skipping dispatch")
		return d.finish(log, p, start, models.Failure(breaker.ErrOpen.Error()))
	}

	tokens, err := d.loadTokens(ctx, receiverID)
	if err != nil {
		reason := ReasonLoadFailed
		switch {
		case errors.Is(err, repository.ErrNotFound):
			reason = ReasonNoTokens
		case errors.Is(err, context.DeadlineExceeded):
			reason = ReasonLoadTimeout
		}
		log.Error("token load failed", slog.Any("error", err))
		return d.finish(log, p, start, models.Failure(reason))
	}

	valid := d.filterTokens(ctx, log, tokens)
	if len(valid) == 0 {
		return d.finish(log, p, start, models.Failure(ReasonNoTokens))
	}

	summary := &models.DeliverySummary{
		Total:   len(valid),
		Results: make([]models.AttemptResult, 0, len(valid)),
	}
	var invalid, touched []string

	for _, token := range valid {
		result := d.sendOne(ctx, p, token)
		summary.Results = append(summary.Results, result)

		switch {
		case result.Success:
			summary.Sent++
			touched = append(touched, token.Token)
		default:
			summary.Failed++
			if !result.Retryable {
				invalid = append(invalid, token.Token)
			}
		}
	}

	if len(invalid) > 0 {
		summary.InvalidRemoved = len(invalid)
		d.cleanup.RemoveInvalid(ctx, receiverID, invalid)
		d.metrics.TokensRemoved.Add(float64(len(invalid)))
	} else if len(touched) > 0 {
		d.cleanup.TouchLastUsed(ctx, receiverID, touched)
	}

	return d.finish(log, p, start, summary)
}

func (d *Dispatcher) loadTokens(ctx context.Context, receiverID string) ([]models.PushToken, error) {
	loadCtx, cancel := context.WithTimeout(ctx, d.cfg.LoadTimeout)
	defer cancel()
	return d.store.FindByUser(loadCtx, receiverID)
}

// filterTokens drops structurally invalid entries and tokens already
// suppressed as dead. Cache errors are logged and ignored; the provider
// will reject a dead token anyway.
func (d *Dispatcher) filterTokens(ctx context.Context, log *slog.Logger, tokens []models.PushToken) []models.PushToken {
	valid := make([]models.PushToken, 0, len(tokens))
	for _, token := range tokens {
		if !token.Valid() {
			continue
		}
		if d.cache != nil {
			suppressed, err := d.cache.IsTokenSuppressed(ctx, token.Token)
			if err != nil {
				log.Warn("suppression check failed", slog.Any("error", err))
			} else if suppressed {
				continue
			}
		}
		valid = append(valid, token)
	}
	return valid
}

// sendOne pushes the payload to a single token, racing the retry loop
// against the per-send deadline. A deadline firing mid-retry behaves
// exactly like a transient provider error.
func (d *Dispatcher) sendOne(ctx context.Context, p *Payload, token models.PushToken) models.AttemptResult {
	result := models.AttemptResult{
		Token:    token.Token,
		Platform: token.Platform,
	}

	if d.brk.IsOpen() {
		result.ErrorKind = models.ErrKindCircuitOpen
		result.Retryable = true
		d.metrics.Sends.WithLabelValues("circuit_open").Inc()
		return result
	}

	timeout, retryCfg := d.cfg.SendTimeout, d.cfg.MessageRetry
	if p.Kind == KindCall {
		timeout, retryCfg = d.cfg.CallSendTimeout, d.cfg.CallRetry
	}

	msg := p.ProviderMessage(token)
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var messageID string
	err := retry.Do(sendCtx, retryCfg, func() error {
		id, sendErr := d.gateway.Send(sendCtx, msg)
		if sendErr != nil {
			return sendErr
		}
		messageID = id
		return nil
	})

	switch {
	case err == nil:
		result.Success = true
		result.MessageID = messageID
		d.brk.RecordSuccess()
		d.metrics.Sends.WithLabelValues("success").Inc()
	case provider.IsTerminal(err):
		// Token-level rejection: not a provider-health signal.
		result.ErrorKind = provider.Code(err)
		result.Retryable = false
		d.metrics.Sends.WithLabelValues("invalid_token").Inc()
	default:
		result.ErrorKind = transientKind(err)
		result.Retryable = true
		d.brk.RecordFailure()
		d.metrics.Sends.WithLabelValues("failure").Inc()
	}
	return result
}

func transientKind(err error) string {
	if code := provider.Code(err); code != "" {
		return code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrKindTimeout
	}
	return models.ErrKindProvider
}

func (d *Dispatcher) finish(log *slog.Logger, p *Payload, start time.Time, summary *models.DeliverySummary) *models.DeliverySummary {
	summary.Success = summary.Sent > 0
	summary.DurationMs = time.Since(start).Milliseconds()

	outcome := "failed"
	if summary.Success {
		outcome = "delivered"
	}
	d.metrics.Notifications.WithLabelValues(string(p.Kind), outcome).Inc()
	d.metrics.SendDuration.Observe(time.Since(start).Seconds())
	if d.brk.IsOpen() {
		d.metrics.BreakerOpen.Set(1)
	} else {
		d.metrics.BreakerOpen.Set(0)
	}

	log.Info("dispatch finished",
		slog.Int("sent", summary.Sent),
		slog.Int("failed", summary.Failed),
		slog.Int("total", summary.Total),
		slog.Int("invalid_removed", summary.InvalidRemoved),
		slog.Int64("duration_ms", summary.DurationMs),
		slog.String("error", summary.Error))
	return summary
}
