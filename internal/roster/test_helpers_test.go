package roster

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the subjects schema
// applied. The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "roster-test-*.db")
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

	migrationSQL := `
		CREATE TABLE subjects (
			credential TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			external_id TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying subjects schema: %v", err)
	}

	return db
}

// seedTestSubject inserts a subject directly and returns it.
func seedTestSubject(t *testing.T, db *sql.DB, credential, name, externalID string) *Subject {
	t.Helper()

	repo := NewSubjectRepository(db)
	subject := &Subject{
		Credential:  credential,
		DisplayName: name,
		ExternalID:  externalID,
	}
	if err := repo.Create(context.Background(), subject); err != nil {
		t.Fatalf("creating test subject %s: %v", credential, err)
	}
	return subject
}
