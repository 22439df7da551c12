package roster

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func testService(t *testing.T) (*Service, *SQLiteSubjectRepository) {
	t.Helper()

	db := testDB(t)
	repo := NewSubjectRepository(db)
	svc := NewService(repo, "1234", slog.Default())

	if _, err := EnsureFallbackAdmin(context.Background(), repo, testAdmin, slog.Default()); err != nil {
		t.Fatalf("seeding fallback admin: %v", err)
	}
	return svc, repo
}

func TestService_AddSubject(t *testing.T) {
	svc, repo := testService(t)
	ctx := context.Background()

	if err := svc.AddSubject(ctx, "5678", "Alice", "E100"); err != nil {
		t.Fatalf("AddSubject() error = %v", err)
	}

	got, err := repo.GetByCredential(ctx, "5678")
	if err != nil {
		t.Fatalf("GetByCredential() error = %v", err)
	}
	if got.DisplayName != "Alice" || got.ExternalID != "E100" {
		t.Errorf("stored subject = %+v", got)
	}
}

func TestService_AddSubject_Validation(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		credential string
		subject    string
		externalID string
		wantErr    error
	}{
		{"short pin", "123", "Alice", "E100", ErrInvalidCredential},
		{"long pin", "12345", "Alice", "E100", ErrInvalidCredential},
		{"alpha pin", "12ab", "Alice", "E100", ErrInvalidCredential},
		{"empty name", "5678", "", "E100", ErrInvalidName},
		{"whitespace name", "5678", "   ", "E100", ErrInvalidName},
		{"empty external id", "5678", "Alice", "", ErrInvalidExternalID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.AddSubject(ctx, tt.credential, tt.subject, tt.externalID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddSubject() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_AddSubject_DuplicateCredential(t *testing.T) {
	svc, repo := testService(t)
	ctx := context.Background()

	if err := svc.AddSubject(ctx, "5678", "Alice", "E100"); err != nil {
		t.Fatalf("AddSubject() error = %v", err)
	}

	err := svc.AddSubject(ctx, "5678", "Bob", "E200")
	if !errors.Is(err, ErrCredentialExists) {
		t.Fatalf("AddSubject() error = %v, want ErrCredentialExists", err)
	}

	// Roster unchanged: still Alice under 5678
	subjects, err := svc.ListSubjects(ctx)
	if err != nil {
		t.Fatalf("ListSubjects() error = %v", err)
	}
	for _, s := range subjects {
		if s.Credential == "5678" && s.DisplayName != "Alice" {
			t.Errorf("subject under 5678 = %q, want Alice", s.DisplayName)
		}
	}

	count, _ := repo.Count(ctx)
	if count != 2 { // fallback admin + Alice
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestService_AddSubject_DuplicateExternalID(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if err := svc.AddSubject(ctx, "5678", "Alice", "E100"); err != nil {
		t.Fatalf("AddSubject() error = %v", err)
	}

	err := svc.AddSubject(ctx, "4321", "Bob", "E100")
	if !errors.Is(err, ErrExternalIDExists) {
		t.Errorf("AddSubject() error = %v, want ErrExternalIDExists", err)
	}
}

func TestService_RemoveSubject(t *testing.T) {
	svc, repo := testService(t)
	ctx := context.Background()

	if err := svc.AddSubject(ctx, "5678", "Alice", "E100"); err != nil {
		t.Fatalf("AddSubject() error = %v", err)
	}

	if err := svc.RemoveSubject(ctx, "5678"); err != nil {
		t.Fatalf("RemoveSubject() error = %v", err)
	}

	if _, err := repo.GetByCredential(ctx, "5678"); !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("GetByCredential() after remove error = %v, want ErrSubjectNotFound", err)
	}

	if err := svc.RemoveSubject(ctx, "5678"); !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("second RemoveSubject() error = %v, want ErrSubjectNotFound", err)
	}
}

func TestService_RemoveSubject_ProtectsFallback(t *testing.T) {
	svc, repo := testService(t)
	ctx := context.Background()

	// Fallback is the only subject in the roster - still protected
	err := svc.RemoveSubject(ctx, "1234")
	if !errors.Is(err, ErrProtectedCredential) {
		t.Fatalf("RemoveSubject(fallback) error = %v, want ErrProtectedCredential", err)
	}

	if _, err := repo.GetByCredential(ctx, "1234"); err != nil {
		t.Errorf("fallback admin must survive removal attempt: %v", err)
	}
}

func TestService_ListSubjects_RoundTrip(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if err := svc.AddSubject(ctx, "5678", "Alice", "E100"); err != nil {
		t.Fatalf("AddSubject() error = %v", err)
	}

	subjects, err := svc.ListSubjects(ctx)
	if err != nil {
		t.Fatalf("ListSubjects() error = %v", err)
	}

	var found bool
	for _, s := range subjects {
		if s.Credential == "5678" && s.DisplayName == "Alice" && s.ExternalID == "E100" {
			found = true
		}
	}
	if !found {
		t.Errorf("added subject not found in list: %+v", subjects)
	}
}

func TestSharedSecretGate(t *testing.T) {
	gate := NewSharedSecretGate("1234")

	if !gate.Authorize("1234") {
		t.Error("Authorize() should accept the shared secret")
	}
	if gate.Authorize("4321") {
		t.Error("Authorize() should reject a wrong secret")
	}
	if gate.Authorize("") {
		t.Error("Authorize() should reject an empty secret")
	}
	if gate.Authorize("12345") {
		t.Error("Authorize() should reject a longer secret with matching prefix")
	}
}
