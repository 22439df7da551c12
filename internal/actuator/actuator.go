package actuator

import "context"

// Trigger is the consumed interface for the door-release mechanism.
//
// TriggerOpen is fire-and-forget from the gate's point of view: the
// implementation attempts the release once, within the deadline carried
// by ctx, and reports the outcome. Errors from TriggerOpen are
// non-fatal - the access decision has already been made by the time the
// actuator is invoked and is never revoked by an actuator failure.
type Trigger interface {
	TriggerOpen(ctx context.Context) error
}

// Nop is a Trigger that does nothing and always succeeds. Used in
// dry-run mode (actuator.mode: none) and in tests.
type Nop struct{}

// TriggerOpen implements Trigger.
func (Nop) TriggerOpen(context.Context) error { return nil }
