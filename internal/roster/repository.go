package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SubjectRepository defines the interface for roster persistence.
//
// Every implementation must treat each call as a self-contained unit of
// work: mutations commit durably before returning and never expose
// partial state to concurrent readers. Uniqueness of credential and
// external ID is enforced here, at the storage layer, so a caller's
// pre-check can never be the only guard.
type SubjectRepository interface {
	Create(ctx context.Context, subject *Subject) error
	GetByCredential(ctx context.Context, credential string) (*Subject, error)
	List(ctx context.Context) ([]Subject, error)
	Delete(ctx context.Context, credential string) error
	CountByCredential(ctx context.Context, credential string) (int, error)
	Count(ctx context.Context) (int, error)
}

// SQLiteSubjectRepository implements SubjectRepository using SQLite.
type SQLiteSubjectRepository struct {
	db *sql.DB
}

// NewSubjectRepository creates a new SQLite-backed subject repository.
func NewSubjectRepository(db *sql.DB) *SQLiteSubjectRepository {
	return &SQLiteSubjectRepository{db: db}
}

// Create inserts a new subject. The insert is atomic: if either
// uniqueness constraint is violated the store is left untouched and a
// typed error identifies the offending column.
//
// Credential format is the caller's responsibility (see IsValidPIN);
// the repository only enforces uniqueness.
func (r *SQLiteSubjectRepository) Create(ctx context.Context, subject *Subject) error {
	now := time.Now().UTC().Format(time.RFC3339)
	subject.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subjects (credential, display_name, external_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		subject.Credential, subject.DisplayName, subject.ExternalID, now,
	)
	if err != nil {
		if col, ok := uniqueViolation(err); ok {
			switch col {
			case "subjects.credential":
				return ErrCredentialExists
			case "subjects.external_id":
				return ErrExternalIDExists
			}
		}
		return fmt.Errorf("creating subject: %w", err)
	}

	return nil
}

// GetByCredential retrieves the subject holding the given credential.
// Comparison is an exact string match on pre-trimmed input; trimming is
// a presentation-layer concern.
func (r *SQLiteSubjectRepository) GetByCredential(ctx context.Context, credential string) (*Subject, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT credential, display_name, external_id, created_at FROM subjects WHERE credential = ?",
		credential,
	)
	return scanSubjectFrom(row)
}

// List returns the full roster in insertion order. Never returns nil.
func (r *SQLiteSubjectRepository) List(ctx context.Context) ([]Subject, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT credential, display_name, external_id, created_at FROM subjects ORDER BY created_at ASC, credential ASC")
	if err != nil {
		return nil, fmt.Errorf("listing subjects: %w", err)
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		s, err := scanSubjectFrom(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subjects: %w", err)
	}

	if subjects == nil {
		subjects = []Subject{}
	}
	return subjects, nil
}

// Delete removes the subject holding the given credential. Returns
// ErrSubjectNotFound if no such subject exists; a second delete of the
// same credential therefore reports NotFound, not success.
func (r *SQLiteSubjectRepository) Delete(ctx context.Context, credential string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM subjects WHERE credential = ?", credential)
	if err != nil {
		return fmt.Errorf("deleting subject: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrSubjectNotFound
	}
	return nil
}

// CountByCredential returns how many subjects hold the credential
// (0 or 1 given the primary key). Used as a friendlier pre-check
// before insert; the authoritative guarantee is still the uniqueness
// constraint enforced by Create.
func (r *SQLiteSubjectRepository) CountByCredential(ctx context.Context, credential string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM subjects WHERE credential = ?", credential,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting subjects by credential: %w", err)
	}
	return count, nil
}

// Count returns the total number of subjects in the roster.
func (r *SQLiteSubjectRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subjects").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting subjects: %w", err)
	}
	return count, nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanSubjectFrom scans a subject from any scanner (Row or Rows).
func scanSubjectFrom(s scanner) (*Subject, error) {
	var subject Subject
	var createdAt string

	err := s.Scan(&subject.Credential, &subject.DisplayName, &subject.ExternalID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("scanning subject: %w", err)
	}

	subject.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &subject, nil
}

// uniqueViolation reports whether a SQLite error is a UNIQUE constraint
// violation and, if so, which column it names. go-sqlite3 surfaces
// these as "UNIQUE constraint failed: <table>.<column>".
func uniqueViolation(err error) (column string, ok bool) {
	if err == nil {
		return "", false
	}
	const marker = "UNIQUE constraint failed: "
	msg := err.Error()
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return "", false
	}
	column = msg[idx+len(marker):]
	if end := strings.IndexAny(column, ", "); end >= 0 {
		column = column[:end]
	}
	return column, true
}
