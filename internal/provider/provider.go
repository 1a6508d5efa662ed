package provider

import (
	"context"
	"errors"
	"fmt"
)

// Error codes the gateway can fail with. The first three are terminal:
// they mean the token itself is unusable and retrying cannot help.
const (
	CodeInvalidToken    = "invalid-registration-token"
	CodeUnregistered    = "registration-token-not-registered"
	CodeInvalidArgument = "invalid-argument"
	CodeUnavailable     = "unavailable"
	CodeInternal        = "internal"
)

// Error is a coded provider failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Terminal reports whether the error condemns the token rather than the
// provider. Terminal errors must not be retried and must not count
// against provider health.
func (e *Error) Terminal() bool {
	switch e.Code {
	case CodeInvalidToken, CodeUnregistered, CodeInvalidArgument:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether err wraps a terminal provider error.
func IsTerminal(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Terminal()
}

// Code extracts the provider error code, or "" for untyped errors.
func Code(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// Notification is the visible alert part of a message. Nil on a message
// means a silent, data-only push.
type Notification struct {
	Title string
	Body  string
}

// AndroidConfig carries Android-specific delivery options.
type AndroidConfig struct {
	Priority  string
	ChannelID string
}

// APNSConfig carries APNs headers and aps dictionary extras.
type APNSConfig struct {
	Headers          map[string]string
	ContentAvailable bool
}

// Message is one push to one device token. Data values must already be
// strings; the provider rejects anything else.
type Message struct {
	Token        string
	Notification *Notification
	Data         map[string]string
	Android      *AndroidConfig
	APNS         *APNSConfig
}

// Gateway is a downstream push provider (FCM here; the engine does not
// care which).
type Gateway interface {
	Name() string
	// Send delivers one message and returns the provider message id.
	Send(ctx context.Context, msg *Message) (string, error)
}
