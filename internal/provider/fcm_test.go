package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dara-tech/flirty-sub005/pkg/logger"
)

func newTestFCM(t *testing.T, handler http.HandlerFunc) *FCM {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFCM("test-key", srv.URL, 2*time.Second, logger.Nop())
}

func TestFCMSendReturnsMessageID(t *testing.T) {
	var got fcmRequest
	f := newTestFCM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "projects/demo/messages/42"})
	})

	id, err := f.Send(context.Background(), &Message{
		Token:        strings.Repeat("t", 60),
		Notification: &Notification{Title: "Hi", Body: "there"},
		Data:         map[string]string{"type": "message"},
	})

	require.NoError(t, err)
	assert.Equal(t, "projects/demo/messages/42", id)
	assert.Equal(t, "Hi", got.Message.Notification.Title)
	assert.Equal(t, "message", got.Message.Data["type"])
}

func TestFCMSendMapsUnregisteredToTerminal(t *testing.T) {
	f := newTestFCM(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND","details":[{"@type":"type.googleapis.com/google.firebase.fcm.v1.FcmError","errorCode":"UNREGISTERED"}]}}`))
	})

	_, err := f.Send(context.Background(), &Message{Token: strings.Repeat("t", 60)})

	require.Error(t, err)
	assert.True(t, IsTerminal(err))
	assert.Equal(t, CodeUnregistered, Code(err))
}

func TestFCMSendMapsInvalidArgument(t *testing.T) {
	f := newTestFCM(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"The registration token is not a valid FCM registration token","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := f.Send(context.Background(), &Message{Token: strings.Repeat("t", 60)})

	require.Error(t, err)
	assert.True(t, IsTerminal(err))
	assert.Equal(t, CodeInvalidToken, Code(err))
}

func TestFCMSendServerErrorIsTransient(t *testing.T) {
	f := newTestFCM(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"try again","status":"UNAVAILABLE"}}`))
	})

	_, err := f.Send(context.Background(), &Message{Token: strings.Repeat("t", 60)})

	require.Error(t, err)
	assert.False(t, IsTerminal(err))
	assert.Equal(t, CodeUnavailable, Code(err))
}

func TestFCMSilentMessagePayloadShape(t *testing.T) {
	var raw map[string]json.RawMessage
	f := newTestFCM(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		raw = req["message"]
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "projects/demo/messages/1"})
	})

	_, err := f.Send(context.Background(), &Message{
		Token: strings.Repeat("t", 60),
		Data:  map[string]string{"id": "c1"},
		APNS: &APNSConfig{
			Headers:          map[string]string{"apns-push-type": "background"},
			ContentAvailable: true,
		},
	})

	require.NoError(t, err)
	_, hasNotification := raw["notification"]
	assert.False(t, hasNotification, "silent push must not carry a notification block")
	assert.JSONEq(t, `{"headers":{"apns-push-type":"background"},"payload":{"aps":{"content-available":1}}}`, string(raw["apns"]))
}

func TestErrorTerminalClassification(t *testing.T) {
	assert.True(t, (&Error{Code: CodeInvalidToken}).Terminal())
	assert.True(t, (&Error{Code: CodeUnregistered}).Terminal())
	assert.True(t, (&Error{Code: CodeInvalidArgument}).Terminal())
	assert.False(t, (&Error{Code: CodeUnavailable}).Terminal())
	assert.False(t, (&Error{Code: CodeInternal}).Terminal())
	assert.False(t, IsTerminal(context.DeadlineExceeded))
}
