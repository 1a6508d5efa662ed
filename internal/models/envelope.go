package models

import "time"

// Event types the chat backend publishes to the push queue.
const (
	EventMessage      = "message"
	EventGroupMessage = "group_message"
	EventCallStarted  = "call_started"
	EventCallMissed   = "call_missed"
)

// EventEnvelope is the payload produced by the chat backend and consumed
// by this service. Exactly one of Message/Call is set depending on Type;
// Group accompanies Message for group_message events.
type EventEnvelope struct {
	RequestID  string       `json:"request_id"`
	CreatedAt  time.Time    `json:"created_at"`
	Type       string       `json:"type" validate:"required,oneof=message group_message call_started call_missed"`
	ReceiverID string       `json:"receiver_id" validate:"required"`
	Message    *ChatMessage `json:"message,omitempty"`
	Group      *ChatGroup   `json:"group,omitempty"`
	Call       *Call        `json:"call,omitempty"`
}
