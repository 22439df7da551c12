package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/oakfield-labs/doorgate/internal/access"
)

// LogRecorder emits one structured log line per access attempt. This
// is the contractual audit output: timestamp, decision, and either the
// subject's identity (granted) or the raw credential (denied).
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a log-backed audit recorder.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger.With("component", "audit")}
}

// Record implements access.Recorder.
func (l *LogRecorder) Record(_ context.Context, event access.Event) error {
	attrs := []any{
		"timestamp", event.CreatedAt.Format(time.RFC3339),
		"decision", event.Decision,
	}

	if event.Decision == access.DecisionGranted {
		attrs = append(attrs,
			"name", event.SubjectName,
			"external_id", event.SubjectExternalID,
			"actuator_ok", event.ActuatorOK,
		)
	} else {
		attrs = append(attrs, "credential", event.Credential)
	}

	l.logger.Info("access attempt", attrs...)
	return nil
}
