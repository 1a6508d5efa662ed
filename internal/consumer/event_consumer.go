package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/streadway/amqp"

	"github.com/dara-tech/flirty-sub005/internal/models"
	"github.com/dara-tech/flirty-sub005/internal/services"
	"github.com/dara-tech/flirty-sub005/pkg/breaker"
)

// Notifier is the facade surface the consumer dispatches into.
type Notifier interface {
	NotifyMessage(ctx context.Context, receiverID string, msg *models.ChatMessage) *models.DeliverySummary
	NotifyGroupMessage(ctx context.Context, receiverID string, msg *models.ChatMessage, group *models.ChatGroup) *models.DeliverySummary
	NotifyIncomingCall(ctx context.Context, receiverID string, call *models.Call) *models.DeliverySummary
	NotifyMissedCall(ctx context.Context, receiverID string, call *models.Call) *models.DeliverySummary
}

// EventConsumer decodes chat events from the push queue and feeds them
// to the notification facade. Malformed events are dead-lettered
// immediately; events that failed for provider-health reasons are
// redelivered until the delivery budget runs out.
type EventConsumer struct {
	base          *BaseConsumer
	notifier      Notifier
	validate      *validator.Validate
	logger        *slog.Logger
	maxDeliveries int
}

func NewEventConsumer(base *BaseConsumer, notifier Notifier, logger *slog.Logger, maxDeliveries int) *EventConsumer {
	if maxDeliveries <= 0 {
		maxDeliveries = 5
	}
	return &EventConsumer{
		base:          base,
		notifier:      notifier,
		validate:      validator.New(),
		logger:        logger,
		maxDeliveries: maxDeliveries,
	}
}

func (c *EventConsumer) Start(ctx context.Context) error {
	return c.base.Start(ctx, c.handleDelivery)
}

func (c *EventConsumer) handleDelivery(ctx context.Context, msg amqp.Delivery) error {
	var envelope models.EventEnvelope
	if err := json.Unmarshal(msg.Body, &envelope); err != nil {
		c.logger.Error("failed to unmarshal event", slog.Any("error", err))
		_ = msg.Reject(false)
		return err
	}
	if err := c.validate.Struct(&envelope); err != nil {
		c.logger.Error("invalid event envelope",
			slog.String("type", envelope.Type),
			slog.Any("error", err))
		_ = msg.Reject(false)
		return err
	}

	summary := c.route(ctx, &envelope)
	if summary.Success {
		return msg.Ack(false)
	}

	if transientFailure(summary) {
		requeue := c.shouldRetry(&msg)
		if requeue {
			c.logger.Warn("delivery failed, event requeued",
				slog.String("request_id", envelope.RequestID),
				slog.String("error", summary.Error))
		} else {
			c.logger.Error("delivery failed, event dead-lettered",
				slog.String("request_id", envelope.RequestID),
				slog.String("error", summary.Error))
		}
		return msg.Nack(false, requeue)
	}

	// Validation failures and all-tokens-dead outcomes cannot improve on
	// redelivery.
	c.logger.Info("event dropped after delivery attempt",
		slog.String("request_id", envelope.RequestID),
		slog.String("error", summary.Error))
	return msg.Reject(false)
}

func (c *EventConsumer) route(ctx context.Context, e *models.EventEnvelope) *models.DeliverySummary {
	switch e.Type {
	case models.EventMessage:
		return c.notifier.NotifyMessage(ctx, e.ReceiverID, e.Message)
	case models.EventGroupMessage:
		return c.notifier.NotifyGroupMessage(ctx, e.ReceiverID, e.Message, e.Group)
	case models.EventCallStarted:
		return c.notifier.NotifyIncomingCall(ctx, e.ReceiverID, e.Call)
	case models.EventCallMissed:
		return c.notifier.NotifyMissedCall(ctx, e.ReceiverID, e.Call)
	default:
		return models.Failure("unknown event type " + e.Type)
	}
}

// transientFailure reports whether redelivering the event later could
// plausibly succeed: the breaker was open, the store was slow, or every
// attempted token failed with something retryable.
func transientFailure(s *models.DeliverySummary) bool {
	switch s.Error {
	case breaker.ErrOpen.Error(), services.ReasonLoadTimeout, services.ReasonLoadFailed:
		return true
	}
	if s.Sent > 0 || s.Failed == 0 {
		return false
	}
	for _, r := range s.Results {
		if !r.Retryable {
			return false
		}
	}
	return true
}

func (c *EventConsumer) shouldRetry(msg *amqp.Delivery) bool {
	return deliveryAttempts(msg) < c.maxDeliveries
}

func deliveryAttempts(msg *amqp.Delivery) int {
	if msg.Headers == nil {
		if msg.Redelivered {
			return 1
		}
		return 0
	}
	if raw, ok := msg.Headers["x-death"]; ok {
		if deaths, ok := raw.([]interface{}); ok && len(deaths) > 0 {
			if table, ok := deaths[0].(amqp.Table); ok {
				if count, ok := table["count"].(int64); ok {
					return int(count)
				}
			}
		}
	}
	if msg.Redelivered {
		return 1
	}
	return 0
}
