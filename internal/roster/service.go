package roster

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Service implements roster administration: the add, remove, and list
// operations an operator performs from the admin menu. It validates
// inputs before touching the store and enforces the fallback-credential
// protection policy. The repository remains the authoritative guard
// for uniqueness.
type Service struct {
	repo     SubjectRepository
	fallback string
	logger   *slog.Logger
}

// NewService creates a roster administration service. fallback is the
// protected administrative credential from configuration.
func NewService(repo SubjectRepository, fallback string, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		fallback: fallback,
		logger:   logger,
	}
}

// AddSubject validates and inserts a new roster entry.
//
// Validation failures (ErrInvalidCredential, ErrInvalidName,
// ErrInvalidExternalID) are reported before the store is touched. The
// existence pre-check gives a friendlier error up front, but the
// store's atomic insert is what actually prevents duplicates - two
// racing adds on the same credential cannot both succeed.
func (s *Service) AddSubject(ctx context.Context, credential, name, externalID string) error {
	if !IsValidPIN(credential) {
		return ErrInvalidCredential
	}
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(externalID) == "" {
		return ErrInvalidExternalID
	}

	// Non-authoritative UX hint; the insert below is the real guard.
	count, err := s.repo.CountByCredential(ctx, credential)
	if err != nil {
		return fmt.Errorf("checking credential availability: %w", err)
	}
	if count > 0 {
		return ErrCredentialExists
	}

	subject := &Subject{
		Credential:  credential,
		DisplayName: name,
		ExternalID:  externalID,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return err
	}

	s.logger.Info("subject added", "name", name, "external_id", externalID)
	return nil
}

// RemoveSubject deletes a roster entry by credential. The fallback
// administrative credential is unconditionally protected, even for an
// authenticated admin and even when it is the only subject left.
func (s *Service) RemoveSubject(ctx context.Context, credential string) error {
	if credential == s.fallback {
		return ErrProtectedCredential
	}

	if err := s.repo.Delete(ctx, credential); err != nil {
		return err
	}

	s.logger.Info("subject removed", "credential", credential)
	return nil
}

// ListSubjects returns the roster for display, in insertion order.
func (s *Service) ListSubjects(ctx context.Context) ([]Subject, error) {
	return s.repo.List(ctx)
}
