package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// FCM sends notifications through the Firebase Cloud Messaging HTTP API.
type FCM struct {
	key      string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewFCM(key, endpoint string, timeout time.Duration, logger *slog.Logger) *FCM {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FCM{
		key:      key,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (f *FCM) Name() string {
	return "fcm"
}

// Send posts one message and returns the provider-assigned message id.
// Token-level rejections come back as *Error with a terminal code; any
// other failure is transient from the caller's perspective.
func (f *FCM) Send(ctx context.Context, msg *Message) (string, error) {
	if msg.Token == "" {
		return "", &Error{Code: CodeInvalidArgument, Message: "empty token"}
	}

	body, err := json.Marshal(fcmRequest{Message: toWire(msg)})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.key)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", f.decodeError(resp)
	}

	var ok fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
		return "", err
	}
	return ok.Name, nil
}

func (f *FCM) decodeError(resp *http.Response) error {
	var failure fcmErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil {
		return &Error{Code: CodeInternal, Message: fmt.Sprintf("fcm returned status %d", resp.StatusCode)}
	}

	code := mapErrorCode(failure.errorCode())
	if code == CodeUnavailable || code == CodeInternal {
		f.logger.Warn("fcm transient failure",
			slog.Int("status", resp.StatusCode),
			slog.String("fcm_code", failure.errorCode()))
	}
	return &Error{Code: code, Message: failure.Error.Message}
}

// mapErrorCode folds the FCM wire codes (and the legacy string codes the
// old HTTP endpoint used) onto the engine's taxonomy.
func mapErrorCode(raw string) string {
	switch raw {
	case "UNREGISTERED", "NotRegistered":
		return CodeUnregistered
	case "INVALID_ARGUMENT", "InvalidRegistration", "MissingRegistration":
		return CodeInvalidToken
	case "SENDER_ID_MISMATCH", "MismatchSenderId":
		return CodeInvalidToken
	case "UNAVAILABLE", "QUOTA_EXCEEDED", "Unavailable":
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

// Wire shapes.

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string           `json:"token"`
	Notification *fcmNotification `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *fcmAndroid      `json:"android,omitempty"`
	APNS         *fcmAPNS         `json:"apns,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroid struct {
	Priority     string               `json:"priority,omitempty"`
	Notification *fcmAndroidDetails   `json:"notification,omitempty"`
}

type fcmAndroidDetails struct {
	ChannelID string `json:"channel_id,omitempty"`
}

type fcmAPNS struct {
	Headers map[string]string `json:"headers,omitempty"`
	Payload fcmAPNSPayload    `json:"payload"`
}

type fcmAPNSPayload struct {
	APS map[string]interface{} `json:"aps"`
}

type fcmResponse struct {
	Name string `json:"name"`
}

type fcmErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type      string `json:"@type"`
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

func (r fcmErrorResponse) errorCode() string {
	for _, d := range r.Error.Details {
		if d.ErrorCode != "" {
			return d.ErrorCode
		}
	}
	return r.Error.Status
}

func toWire(msg *Message) fcmMessage {
	wire := fcmMessage{
		Token: msg.Token,
		Data:  msg.Data,
	}
	if msg.Notification != nil {
		wire.Notification = &fcmNotification{
			Title: msg.Notification.Title,
			Body:  msg.Notification.Body,
		}
	}
	if msg.Android != nil {
		wire.Android = &fcmAndroid{Priority: msg.Android.Priority}
		if msg.Android.ChannelID != "" {
			wire.Android.Notification = &fcmAndroidDetails{ChannelID: msg.Android.ChannelID}
		}
	}
	if msg.APNS != nil {
		aps := map[string]interface{}{}
		if msg.APNS.ContentAvailable {
			aps["content-available"] = 1
		}
		wire.APNS = &fcmAPNS{
			Headers: msg.APNS.Headers,
			Payload: fcmAPNSPayload{APS: aps},
		}
	}
	return wire
}
