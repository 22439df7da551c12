package access

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/oakfield-labs/doorgate/internal/roster"
)

// testDB creates a temporary SQLite database with the subjects schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "access-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`
		CREATE TABLE subjects (
			credential TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			external_id TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`); err != nil {
		t.Fatalf("applying subjects schema: %v", err)
	}

	return db
}

// fakeTrigger is a scripted actuator.
type fakeTrigger struct {
	err   error
	calls int
	delay time.Duration
}

func (f *fakeTrigger) TriggerOpen(ctx context.Context) error {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return errors.New("actuator: controller unreachable: context deadline")
		}
	}
	return f.err
}

// memoryRecorder collects events in memory.
type memoryRecorder struct {
	events []Event
	err    error
}

func (m *memoryRecorder) Record(_ context.Context, event Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func newTestController(t *testing.T, trigger *fakeTrigger, rec *memoryRecorder) *Controller {
	t.Helper()

	db := testDB(t)
	repo := roster.NewSubjectRepository(db)

	admin := &roster.Subject{Credential: "1234", DisplayName: "Admin User", ExternalID: "AD001"}
	if err := repo.Create(context.Background(), admin); err != nil {
		t.Fatalf("seeding admin: %v", err)
	}

	return NewController(repo, trigger, []Recorder{rec}, time.Second, slog.Default())
}

func TestRequestAccess_Granted(t *testing.T) {
	trigger := &fakeTrigger{}
	rec := &memoryRecorder{}
	ctrl := newTestController(t, trigger, rec)

	decision := ctrl.RequestAccess(context.Background(), "1234")

	if !decision.Granted {
		t.Fatal("decision should be granted for a known credential")
	}
	if decision.Subject == nil || decision.Subject.DisplayName != "Admin User" {
		t.Errorf("Subject = %+v", decision.Subject)
	}
	if !decision.ActuatorOK {
		t.Error("ActuatorOK should be true when the trigger succeeds")
	}
	if trigger.calls != 1 {
		t.Errorf("trigger calls = %d, want 1", trigger.calls)
	}

	if len(rec.events) != 1 {
		t.Fatalf("recorded events = %d, want 1", len(rec.events))
	}
	event := rec.events[0]
	if event.Decision != DecisionGranted {
		t.Errorf("event.Decision = %q, want granted", event.Decision)
	}
	if event.SubjectName != "Admin User" || event.SubjectExternalID != "AD001" {
		t.Errorf("event subject fields = %q/%q", event.SubjectName, event.SubjectExternalID)
	}
	if event.CreatedAt.IsZero() {
		t.Error("event.CreatedAt should be set")
	}
}

func TestRequestAccess_Denied(t *testing.T) {
	trigger := &fakeTrigger{}
	rec := &memoryRecorder{}
	ctrl := newTestController(t, trigger, rec)

	decision := ctrl.RequestAccess(context.Background(), "9999")

	if decision.Granted {
		t.Fatal("decision should be denied for an unknown credential")
	}
	if trigger.calls != 0 {
		t.Errorf("trigger calls = %d, want 0 - denied attempts must not touch the actuator", trigger.calls)
	}

	if len(rec.events) != 1 {
		t.Fatalf("recorded events = %d, want 1", len(rec.events))
	}
	event := rec.events[0]
	if event.Decision != DecisionDenied {
		t.Errorf("event.Decision = %q, want denied", event.Decision)
	}
	if event.Credential != "9999" {
		t.Errorf("event.Credential = %q, want raw credential on denial", event.Credential)
	}
	if event.SubjectName != "" {
		t.Errorf("event.SubjectName = %q, want empty on denial", event.SubjectName)
	}
}

func TestRequestAccess_ActuatorFailureDoesNotRevokeGrant(t *testing.T) {
	trigger := &fakeTrigger{err: errors.New("actuator: controller returned error status: status 500")}
	rec := &memoryRecorder{}
	ctrl := newTestController(t, trigger, rec)

	decision := ctrl.RequestAccess(context.Background(), "1234")

	if !decision.Granted {
		t.Fatal("actuator failure must not revoke the access decision")
	}
	if decision.ActuatorOK {
		t.Error("ActuatorOK should be false")
	}
	if decision.ActuatorErr == nil {
		t.Error("ActuatorErr should carry the failure")
	}

	if len(rec.events) != 1 || rec.events[0].Decision != DecisionGranted {
		t.Errorf("audit should still record granted, events = %+v", rec.events)
	}
}

func TestRequestAccess_ActuatorTimeoutDoesNotRevokeGrant(t *testing.T) {
	// The trigger hangs past the controller's 1s actuator deadline
	trigger := &fakeTrigger{delay: 5 * time.Second}
	rec := &memoryRecorder{}
	ctrl := newTestController(t, trigger, rec)

	start := time.Now()
	decision := ctrl.RequestAccess(context.Background(), "1234")
	elapsed := time.Since(start)

	if !decision.Granted {
		t.Fatal("actuator timeout must not revoke the access decision")
	}
	if decision.ActuatorOK {
		t.Error("ActuatorOK should be false on timeout")
	}
	if elapsed > 3*time.Second {
		t.Errorf("attempt took %v, the actuator deadline should have cut it short", elapsed)
	}
}

func TestRequestAccess_RecorderFailureIsNonFatal(t *testing.T) {
	trigger := &fakeTrigger{}
	rec := &memoryRecorder{err: errors.New("sink unavailable")}
	ctrl := newTestController(t, trigger, rec)

	// Must not panic or alter the decision
	decision := ctrl.RequestAccess(context.Background(), "1234")
	if !decision.Granted {
		t.Error("recorder failure must not affect the decision")
	}
}

func TestRequestAccess_MultipleRecorders(t *testing.T) {
	trigger := &fakeTrigger{}
	rec1 := &memoryRecorder{}
	rec2 := &memoryRecorder{}

	db := testDB(t)
	repo := roster.NewSubjectRepository(db)
	if err := repo.Create(context.Background(), &roster.Subject{Credential: "1234", DisplayName: "Admin User", ExternalID: "AD001"}); err != nil {
		t.Fatalf("seeding admin: %v", err)
	}

	ctrl := NewController(repo, trigger, []Recorder{rec1, rec2}, time.Second, slog.Default())
	ctrl.RequestAccess(context.Background(), "1234")

	if len(rec1.events) != 1 || len(rec2.events) != 1 {
		t.Errorf("both recorders should receive the event: %d/%d", len(rec1.events), len(rec2.events))
	}
}
