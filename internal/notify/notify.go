// Package notify delivers user-facing notifications produced by the poll
// pipelines and the task service.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Kind names a notification message.
type Kind string

const (
	KindImportedSingle   Kind = "imported_single"
	KindImportedMultiple Kind = "imported_multiple"
	KindPolling          Kind = "polling"
	KindIssueUpdated     Kind = "issue_updated"
)

// Notification is a short user-facing message.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Count     int       `json:"count,omitempty"`
	ProjectID string    `json:"project_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier accepts notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// New returns a notification with a fresh id and timestamp.
func New(kind Kind, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// LogSink writes notifications to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink logging at info level.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "notify")}
}

func (s *LogSink) Notify(ctx context.Context, n Notification) {
	s.logger.InfoContext(ctx, "notification",
		"id", n.ID,
		"kind", n.Kind,
		"message", n.Message,
		"count", n.Count,
		"project_id", n.ProjectID,
		"task_id", n.TaskID,
	)
}

// Multi fans a notification out to several sinks in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, sink := range m {
		if sink != nil {
			sink.Notify(ctx, n)
		}
	}
}
