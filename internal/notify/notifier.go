package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"jobportal/internal/common"
)

// Task types, also used as asynq task type names.
const (
	TypeApplicationSubmitted = "application:submitted"
	TypeStatusChanged        = "application:status_changed"
	TypeApplicationWithdrawn = "application:withdrawn"

	Queue = "notifications"
)

// Event describes one application lifecycle change worth telling people about.
type Event struct {
	Type          string      `json:"type"`
	ApplicationID common.UUID `json:"application_id"`
	JobID         common.UUID `json:"job_id"`
	JobTitle      string      `json:"job_title"`
	Company       string      `json:"company"`
	ApplicantID   common.UUID `json:"applicant_id"`
	PosterID      common.UUID `json:"poster_id"`
	Status        string      `json:"status,omitempty"`
}

// Notifier hands an event off for delivery. Implementations must not block
// on delivery itself.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier only records events. It is used when no queue is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	n.logger.Info("notification",
		slog.String("type", event.Type),
		slog.String("application_id", event.ApplicationID.String()),
		slog.String("job_id", event.JobID.String()),
		slog.String("status", event.Status),
	)
	return nil
}

func encodeEvent(event Event) ([]byte, error) {
	return json.Marshal(event)
}

func decodeEvent(payload []byte) (Event, error) {
	var event Event
	err := json.Unmarshal(payload, &event)
	return event, err
}
