package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dara-tech/flirty-sub005/internal/models"
)

func textMessage(text string) *models.ChatMessage {
	return &models.ChatMessage{
		ID:          "m1",
		SenderID:    "u1",
		SenderName:  "Dara",
		ContentType: models.ContentText,
		Text:        text,
	}
}

func TestBuildMessagePayload(t *testing.T) {
	p := BuildMessagePayload("u2", textMessage("hello there"))

	assert.Equal(t, KindMessage, p.Kind)
	assert.Equal(t, "New message from Dara", p.Title)
	assert.Equal(t, "hello there", p.Body)
	assert.Equal(t, map[string]string{
		"type":       "message",
		"messageId":  "m1",
		"senderId":   "u1",
		"senderName": "Dara",
		"receiverId": "u2",
		"groupId":    "",
	}, p.Data)
}

func TestBuildMessagePayloadTruncatesLongText(t *testing.T) {
	p := BuildMessagePayload("u2", textMessage(strings.Repeat("a", 250)))

	assert.Equal(t, strings.Repeat("a", 200)+"...", p.Body)
}

func TestBuildMessagePayloadContentTypePriority(t *testing.T) {
	cases := []struct {
		contentType string
		want        string
	}{
		{models.ContentImage, "📷 Sent a photo"},
		{models.ContentAudio, "🎤 Sent a voice message"},
		{models.ContentVideo, "🎥 Sent a video"},
		{models.ContentFile, "📎 Sent a file"},
		{"sticker", "Sent a message"},
		{"", "Sent a message"},
	}
	for _, tc := range cases {
		t.Run(tc.contentType, func(t *testing.T) {
			m := textMessage("")
			m.ContentType = tc.contentType
			assert.Equal(t, tc.want, BuildMessagePayload("u2", m).Body)
		})
	}
}

func TestBuildGroupMessagePayload(t *testing.T) {
	g := &models.ChatGroup{ID: "g1", Name: "Weekend Plans"}
	p := BuildGroupMessagePayload("u2", textMessage(strings.Repeat("b", 180)), g)

	assert.Equal(t, KindGroupMessage, p.Kind)
	assert.Equal(t, "Weekend Plans", p.Title)
	assert.Equal(t, "Dara: "+strings.Repeat("b", 150)+"...", p.Body)
	assert.Equal(t, "g1", p.Data["groupId"])
	assert.Equal(t, "Weekend Plans", p.Data["groupName"])
}

func TestBuildIncomingCallPayloadDataIsCallkitShaped(t *testing.T) {
	call := &models.Call{ID: "c7", CallerID: "u1", CallerName: "Dara", Video: true}
	p := BuildIncomingCallPayload("u2", call)

	assert.Equal(t, "Incoming video call", p.Title)
	assert.Equal(t, "Dara is calling you", p.Body)
	assert.Equal(t, "c7", p.Data["id"])
	assert.Equal(t, "Dara", p.Data["nameCaller"])
	assert.Equal(t, "u1", p.Data["handle"])
	assert.Equal(t, "1", p.Data["type"], "call type must be the string the callkit expects")
	assert.Equal(t, "c7", p.Data["callId"])
	assert.Equal(t, "video", p.Data["callType"])
}

func TestBuildMissedCallPayload(t *testing.T) {
	call := &models.Call{ID: "c7", CallerID: "u1", CallerName: "Dara"}
	p := BuildMissedCallPayload(call)

	assert.Equal(t, "Missed call", p.Title)
	assert.Equal(t, "You missed a voice call from Dara", p.Body)
	assert.Equal(t, "missed_call", p.Data["type"])
	assert.Equal(t, "c7", p.Data["callId"])
	assert.Equal(t, "voice", p.Data["callType"])
}

func TestProviderMessageCallPlatformSplit(t *testing.T) {
	call := &models.Call{ID: "c7", CallerID: "u1", CallerName: "Dara"}
	p := BuildIncomingCallPayload("u2", call)

	android := p.ProviderMessage(models.PushToken{Token: strings.Repeat("a", 60), Platform: "android"})
	require.NotNil(t, android.Notification)
	assert.Equal(t, "Incoming voice call", android.Notification.Title)
	require.NotNil(t, android.Android)
	assert.Equal(t, "high", android.Android.Priority)
	assert.Equal(t, "incoming_calls", android.Android.ChannelID)
	assert.Nil(t, android.APNS)

	ios := p.ProviderMessage(models.PushToken{Token: strings.Repeat("i", 60), Platform: "ios"})
	assert.Nil(t, ios.Notification, "ios call push must be data-only")
	require.NotNil(t, ios.APNS)
	assert.True(t, ios.APNS.ContentAvailable)
	assert.Equal(t, "background", ios.APNS.Headers["apns-push-type"])
	assert.Equal(t, p.Data, ios.Data)
}

func TestProviderMessageVisibleKinds(t *testing.T) {
	p := BuildMessagePayload("u2", textMessage("hi"))

	android := p.ProviderMessage(models.PushToken{Token: strings.Repeat("a", 60), Platform: "android"})
	require.NotNil(t, android.Notification)
	assert.Equal(t, "high", android.Android.Priority)
	assert.Empty(t, android.Android.ChannelID)

	ios := p.ProviderMessage(models.PushToken{Token: strings.Repeat("i", 60), Platform: "ios"})
	require.NotNil(t, ios.Notification)
	assert.Nil(t, ios.Android)
	assert.Nil(t, ios.APNS)
}
