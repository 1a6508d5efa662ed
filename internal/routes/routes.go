package routes

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dara-tech/flirty-sub005/internal/models"
	"github.com/dara-tech/flirty-sub005/pkg/metrics"
)

// Notifier is the facade surface the HTTP endpoints delegate to.
type Notifier interface {
	NotifyMessage(ctx context.Context, receiverID string, msg *models.ChatMessage) *models.DeliverySummary
	NotifyGroupMessage(ctx context.Context, receiverID string, msg *models.ChatMessage, group *models.ChatGroup) *models.DeliverySummary
	NotifyIncomingCall(ctx context.Context, receiverID string, call *models.Call) *models.DeliverySummary
	NotifyMissedCall(ctx context.Context, receiverID string, call *models.Call) *models.DeliverySummary
}

// NewRouter wires the notification endpoints plus health and metrics so
// the chat backend can also reach the facade over HTTP.
func NewRouter(notifier Notifier, m *metrics.Metrics, logger *slog.Logger, started time.Time) http.Handler {
	h := &handlers{notifier: notifier, logger: logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "push service healthy",
			"meta": map[string]interface{}{
				"uptime_seconds": int(time.Since(started).Seconds()),
				"timestamp":      time.Now().UTC(),
			},
		})
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/v1/notifications", func(r chi.Router) {
		r.Post("/message", h.message)
		r.Post("/group-message", h.groupMessage)
		r.Post("/call", h.call)
		r.Post("/missed-call", h.missedCall)
	})
	return r
}

type handlers struct {
	notifier Notifier
	logger   *slog.Logger
}

type messageRequest struct {
	ReceiverID string             `json:"receiver_id"`
	Message    models.ChatMessage `json:"message"`
}

type groupMessageRequest struct {
	ReceiverID string             `json:"receiver_id"`
	Message    models.ChatMessage `json:"message"`
	Group      models.ChatGroup   `json:"group"`
}

type callRequest struct {
	ReceiverID string      `json:"receiver_id"`
	Call       models.Call `json:"call"`
}

func (h *handlers) message(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decode(w, r, &req) {
		return
	}
	writeSummary(w, h.notifier.NotifyMessage(r.Context(), req.ReceiverID, &req.Message))
}

func (h *handlers) groupMessage(w http.ResponseWriter, r *http.Request) {
	var req groupMessageRequest
	if !decode(w, r, &req) {
		return
	}
	writeSummary(w, h.notifier.NotifyGroupMessage(r.Context(), req.ReceiverID, &req.Message, &req.Group))
}

func (h *handlers) call(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if !decode(w, r, &req) {
		return
	}
	writeSummary(w, h.notifier.NotifyIncomingCall(r.Context(), req.ReceiverID, &req.Call))
}

func (h *handlers) missedCall(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if !decode(w, r, &req) {
		return
	}
	writeSummary(w, h.notifier.NotifyMissedCall(r.Context(), req.ReceiverID, &req.Call))
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "invalid request body",
		})
		return false
	}
	return true
}

// writeSummary always answers 200 with the summary body: the facade
// contract is that every call returns a result object, success or not.
func writeSummary(w http.ResponseWriter, summary *models.DeliverySummary) {
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
