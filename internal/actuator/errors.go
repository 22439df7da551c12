package actuator

import "errors"

// Domain-specific errors for actuator operations. The orchestration
// layer treats all of them identically - logged, never fatal, never
// part of the access decision - but keeping them distinct makes the
// audit trail and the operator console more useful.
var (
	// ErrUnreachable is returned when the door controller cannot be
	// reached at all: transport failure, refused connection, or the
	// trigger deadline expiring.
	ErrUnreachable = errors.New("actuator: controller unreachable")

	// ErrBadStatus is returned when the door controller answered but
	// reported a non-success status.
	ErrBadStatus = errors.New("actuator: controller returned error status")
)
