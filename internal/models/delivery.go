package models

// AttemptResult captures the delivery outcome for one (notification,
// token) pair. Results are aggregated into a DeliverySummary and never
// persisted.
type AttemptResult struct {
	Token     string `json:"token"`
	Platform  string `json:"platform"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Retryable bool   `json:"retryable"`
}

// DeliverySummary is what every notification entry point returns.
// Success is true iff at least one token received the notification; it
// is independent of how many failed.
type DeliverySummary struct {
	Success        bool            `json:"success"`
	Sent           int             `json:"sent"`
	Failed         int             `json:"failed"`
	Total          int             `json:"total"`
	InvalidRemoved int             `json:"invalid_removed"`
	DurationMs     int64           `json:"duration_ms"`
	Error          string          `json:"error,omitempty"`
	Results        []AttemptResult `json:"results,omitempty"`
}

// Failure builds a summary for a call that never dispatched anything.
func Failure(reason string) *DeliverySummary {
	return &DeliverySummary{Error: reason}
}

// Error kinds surfaced in AttemptResult and DeliverySummary.Error for
// failures the engine classifies itself (provider error codes pass
// through unchanged).
const (
	ErrKindCircuitOpen = "circuit-open"
	ErrKindTimeout     = "timeout"
	ErrKindProvider    = "provider-error"
)
