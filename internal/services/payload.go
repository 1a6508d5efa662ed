package services

import (
	"fmt"
	"unicode/utf8"

	"github.com/dara-tech/flirty-sub005/internal/models"
	"github.com/dara-tech/flirty-sub005/internal/provider"
)

// Kind tags a payload with the notification it carries. The kind decides
// platform shaping (silent iOS call pushes) and timing (tighter retry
// budget for calls).
type Kind string

const (
	KindMessage      Kind = "message"
	KindGroupMessage Kind = "group_message"
	KindCall         Kind = "call"
	KindMissedCall   Kind = "missed_call"
)

const (
	// Body limits keep payloads inside provider size bounds. Direct
	// messages get more room than group messages, whose body already
	// spends characters on the sender prefix.
	directBodyLimit = 200
	groupBodyLimit  = 150

	// Android notification channel the client app registers for call UI.
	callChannelID = "incoming_calls"
)

// Payload is one platform-independent notification: human-readable text
// plus a data map whose values are all strings, as the provider requires.
type Payload struct {
	Kind  Kind
	Title string
	Body  string
	Data  map[string]string
}

// BuildMessagePayload renders a direct-message notification.
func BuildMessagePayload(receiverID string, m *models.ChatMessage) *Payload {
	return &Payload{
		Kind:  KindMessage,
		Title: fmt.Sprintf("New message from %s", m.SenderName),
		Body:  contentPreview(m, directBodyLimit),
		Data: map[string]string{
			"type":       "message",
			"messageId":  m.ID,
			"senderId":   m.SenderID,
			"senderName": m.SenderName,
			"receiverId": receiverID,
			"groupId":    m.GroupID,
		},
	}
}

// BuildGroupMessagePayload renders a group-message notification: the
// group is the title, the sender prefixes the body.
func BuildGroupMessagePayload(receiverID string, m *models.ChatMessage, g *models.ChatGroup) *Payload {
	return &Payload{
		Kind:  KindGroupMessage,
		Title: g.Name,
		Body:  fmt.Sprintf("%s: %s", m.SenderName, contentPreview(m, groupBodyLimit)),
		Data: map[string]string{
			"type":       "message",
			"messageId":  m.ID,
			"senderId":   m.SenderID,
			"senderName": m.SenderName,
			"receiverId": receiverID,
			"groupId":    g.ID,
			"groupName":  g.Name,
		},
	}
}

// BuildIncomingCallPayload renders an incoming-call notification. The
// data block mirrors the field names the device call UI kit expects
// (id, nameCaller, handle, type as "0"/"1"), duplicated into the app's
// own fields for post-accept navigation.
func BuildIncomingCallPayload(receiverID string, c *models.Call) *Payload {
	return &Payload{
		Kind:  KindCall,
		Title: fmt.Sprintf("Incoming %s call", c.Kind()),
		Body:  fmt.Sprintf("%s is calling you", c.CallerName),
		Data: map[string]string{
			"id":         c.ID,
			"nameCaller": c.CallerName,
			"handle":     c.CallerID,
			"type":       c.CallkitType(),
			"callId":     c.ID,
			"callerId":   c.CallerID,
			"callerName": c.CallerName,
			"callType":   c.Kind(),
			"receiverId": receiverID,
		},
	}
}

// BuildMissedCallPayload renders a missed-call notification.
func BuildMissedCallPayload(c *models.Call) *Payload {
	return &Payload{
		Kind:  KindMissedCall,
		Title: "Missed call",
		Body:  fmt.Sprintf("You missed a %s call from %s", c.Kind(), c.CallerName),
		Data: map[string]string{
			"type":       "missed_call",
			"callId":     c.ID,
			"callerId":   c.CallerID,
			"callerName": c.CallerName,
			"callType":   c.Kind(),
		},
	}
}

// ProviderMessage shapes the payload for one token's platform.
//
// Incoming calls diverge per platform: Android devices need a visible
// high-priority notification on the call channel, while iOS devices get
// a silent data-only push because the OS surfaces the call UI natively
// and a visible alert would duplicate it.
func (p *Payload) ProviderMessage(token models.PushToken) *provider.Message {
	if p.Kind == KindCall {
		if token.IsIOS() {
			return &provider.Message{
				Token: token.Token,
				Data:  p.Data,
				APNS: &provider.APNSConfig{
					Headers: map[string]string{
						"apns-push-type": "background",
						"apns-priority":  "5",
					},
					ContentAvailable: true,
				},
			}
		}
		return &provider.Message{
			Token:        token.Token,
			Notification: &provider.Notification{Title: p.Title, Body: p.Body},
			Data:         p.Data,
			Android: &provider.AndroidConfig{
				Priority:  "high",
				ChannelID: callChannelID,
			},
		}
	}

	msg := &provider.Message{
		Token:        token.Token,
		Notification: &provider.Notification{Title: p.Title, Body: p.Body},
		Data:         p.Data,
	}
	if !token.IsIOS() {
		msg.Android = &provider.AndroidConfig{Priority: "high"}
	}
	return msg
}

// contentPreview picks the body text by content-type priority:
// text > image > audio > video > file > generic.
func contentPreview(m *models.ChatMessage, limit int) string {
	switch m.ContentType {
	case models.ContentText:
		if m.Text != "" {
			return truncate(m.Text, limit)
		}
	case models.ContentImage:
		return "📷 Sent a photo"
	case models.ContentAudio:
		return "🎤 Sent a voice message"
	case models.ContentVideo:
		return "🎥 Sent a video"
	case models.ContentFile:
		return "📎 Sent a file"
	}
	return "Sent a message"
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
