package services

import (
	"context"

	"github.com/dara-tech/flirty-sub005/internal/models"
)

// Facade is the caller-facing surface of the engine: four entry points,
// one per notification kind. None of them return an error; validation
// failures and internal failures alike come back inside the summary so
// the chat domain can treat all four interchangeably.
type Facade struct {
	dispatcher *Dispatcher
}

func NewFacade(d *Dispatcher) *Facade {
	return &Facade{dispatcher: d}
}

// NotifyMessage notifies the receiver of a new direct message.
func (f *Facade) NotifyMessage(ctx context.Context, receiverID string, msg *models.ChatMessage) *models.DeliverySummary {
	if receiverID == "" {
		return models.Failure("receiver id is required")
	}
	if reason := validateMessage(msg); reason != "" {
		return models.Failure(reason)
	}
	return f.dispatch(ctx, receiverID, BuildMessagePayload(receiverID, msg))
}

// NotifyGroupMessage notifies the receiver of a new message in a group.
func (f *Facade) NotifyGroupMessage(ctx context.Context, receiverID string, msg *models.ChatMessage, group *models.ChatGroup) *models.DeliverySummary {
	if receiverID == "" {
		return models.Failure("receiver id is required")
	}
	if reason := validateMessage(msg); reason != "" {
		return models.Failure(reason)
	}
	switch {
	case group == nil || group.ID == "":
		return models.Failure("group id is required")
	case group.Name == "":
		return models.Failure("group name is required")
	}
	return f.dispatch(ctx, receiverID, BuildGroupMessagePayload(receiverID, msg, group))
}

// NotifyIncomingCall notifies the receiver of an incoming call.
func (f *Facade) NotifyIncomingCall(ctx context.Context, receiverID string, call *models.Call) *models.DeliverySummary {
	if receiverID == "" {
		return models.Failure("receiver id is required")
	}
	if reason := validateCall(call); reason != "" {
		return models.Failure(reason)
	}
	return f.dispatch(ctx, receiverID, BuildIncomingCallPayload(receiverID, call))
}

// NotifyMissedCall notifies the receiver of a call they did not answer.
func (f *Facade) NotifyMissedCall(ctx context.Context, receiverID string, call *models.Call) *models.DeliverySummary {
	if receiverID == "" {
		return models.Failure("receiver id is required")
	}
	if reason := validateCall(call); reason != "" {
		return models.Failure(reason)
	}
	return f.dispatch(ctx, receiverID, BuildMissedCallPayload(call))
}

// dispatch is the shared tail of every entry point. The title check is a
// final guard: no built payload may reach the store or the provider
// without one.
func (f *Facade) dispatch(ctx context.Context, receiverID string, p *Payload) *models.DeliverySummary {
	if p.Title == "" {
		return models.Failure("payload.title is required")
	}
	return f.dispatcher.Dispatch(ctx, receiverID, p)
}

func validateMessage(msg *models.ChatMessage) string {
	switch {
	case msg == nil || msg.ID == "":
		return "message id is required"
	case msg.SenderID == "":
		return "sender id is required"
	case msg.SenderName == "":
		return "sender name is required"
	}
	return ""
}

func validateCall(call *models.Call) string {
	switch {
	case call == nil || call.ID == "":
		return "call id is required"
	case call.CallerName == "":
		return "caller name is required"
	}
	return ""
}
