package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// FallbackAdmin describes the distinguished administrative subject that
// must exist after bootstrap. Its credential gates the admin menu and
// is protected from removal for the life of the roster.
type FallbackAdmin struct {
	Credential  string
	DisplayName string
	ExternalID  string
}

// EnsureFallbackAdmin guarantees the fallback administrative subject
// exists, creating it on first boot. It runs before any authentication
// or administration request is served and is idempotent: calling it on
// every startup leaves exactly one subject holding the fallback
// credential and never raises a duplicate error.
//
// Returns true if the subject was created on this call.
func EnsureFallbackAdmin(ctx context.Context, repo SubjectRepository, admin FallbackAdmin, logger *slog.Logger) (bool, error) {
	_, err := repo.GetByCredential(ctx, admin.Credential)
	if err == nil {
		logger.Debug("fallback admin present, skipping seed", "external_id", admin.ExternalID)
		return false, nil
	}
	if !errors.Is(err, ErrSubjectNotFound) {
		return false, fmt.Errorf("checking for fallback admin: %w", err)
	}

	subject := &Subject{
		Credential:  admin.Credential,
		DisplayName: admin.DisplayName,
		ExternalID:  admin.ExternalID,
	}
	if err := repo.Create(ctx, subject); err != nil {
		// A concurrent bootstrap may have won the race; the invariant
		// (exactly one fallback subject) still holds.
		if errors.Is(err, ErrCredentialExists) {
			return false, nil
		}
		return false, fmt.Errorf("creating fallback admin: %w", err)
	}

	logger.Info("fallback admin created",
		"name", admin.DisplayName,
		"external_id", admin.ExternalID,
	)

	return true, nil
}
