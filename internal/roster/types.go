package roster

import (
	"errors"
	"regexp"
	"time"
)

// pinPattern is the required credential format: exactly four ASCII
// digits. Format is validated at the administration boundary; the
// repository itself only enforces uniqueness.
var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// IsValidPIN reports whether a credential meets the format requirement.
func IsValidPIN(credential string) bool {
	return pinPattern.MatchString(credential)
}

// Subject is a roster entry: a person authorised to request entry.
//
// Credential is the 4-digit PIN and the primary key of the store.
// ExternalID is a second unique identifier in its own namespace,
// typically an employee number. Subjects are only ever mutated by
// replacement (remove then re-add); there is no in-place update.
type Subject struct {
	Credential  string    `json:"credential"`
	DisplayName string    `json:"display_name"`
	ExternalID  string    `json:"external_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Sentinel errors for roster operations.
var (
	// ErrSubjectNotFound is returned by lookups and removals when no
	// subject holds the given credential. For removals this is a normal
	// negative result, not a failure of the store.
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrCredentialExists is returned when an insert would duplicate an
	// existing credential.
	ErrCredentialExists = errors.New("credential already in use")

	// ErrExternalIDExists is returned when an insert would duplicate an
	// existing external ID.
	ErrExternalIDExists = errors.New("external id already in use")

	// ErrInvalidCredential is returned when a credential does not match
	// the 4-digit PIN format.
	ErrInvalidCredential = errors.New("credential must be exactly 4 digits")

	// ErrInvalidName is returned when a display name is empty.
	ErrInvalidName = errors.New("display name must not be empty")

	// ErrInvalidExternalID is returned when an external ID is empty.
	ErrInvalidExternalID = errors.New("external id must not be empty")

	// ErrProtectedCredential is returned on any attempt to remove the
	// fallback administrative credential, whoever asks.
	ErrProtectedCredential = errors.New("cannot remove the fallback admin credential")

	// ErrAccessDenied is returned by Authenticate when no subject holds
	// the submitted credential.
	ErrAccessDenied = errors.New("access denied")
)
