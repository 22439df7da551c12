// Package audit persists and emits the access-event trail: one record
// per access attempt, granted or denied.
//
// Three sinks implement access.Recorder: a structured-log line (the
// contractual audit output), a SQLite table for the admin menu's
// recent-events view, and an optional InfluxDB writer for dashboards.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oakfield-labs/doorgate/internal/access"
)

// defaultListLimit bounds the recent-events view.
const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// SQLiteRepository stores access events in the access_events table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new access-event repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts one access event. The ID and CreatedAt are generated
// if empty. Implements access.Recorder.
func (r *SQLiteRepository) Record(ctx context.Context, event access.Event) error {
	if event.ID == "" {
		event.ID = "evt-" + uuid.NewString()[:8]
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_events (id, decision, credential, subject_name, subject_external_id, actuator_ok, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Decision, event.Credential,
		nullableString(event.SubjectName), nullableString(event.SubjectExternalID),
		boolToInt(event.ActuatorOK),
		event.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting access event: %w", err)
	}

	return nil
}

// ListRecent returns the most recent access events, newest first.
// limit <= 0 uses the default page size.
func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]access.Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, decision, credential, subject_name, subject_external_id, actuator_ok, created_at
		 FROM access_events ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing access events: %w", err)
	}
	defer rows.Close()

	var events []access.Event
	for rows.Next() {
		var e access.Event
		var subjectName, subjectExternalID sql.NullString
		var actuatorOK int
		var createdAt string

		if err := rows.Scan(&e.ID, &e.Decision, &e.Credential,
			&subjectName, &subjectExternalID, &actuatorOK, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning access event: %w", err)
		}

		if subjectName.Valid {
			e.SubjectName = subjectName.String
		}
		if subjectExternalID.Valid {
			e.SubjectExternalID = subjectExternalID.String
		}
		e.ActuatorOK = actuatorOK != 0
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating access events: %w", err)
	}

	if events == nil {
		events = []access.Event{}
	}
	return events, nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
