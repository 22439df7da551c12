// Package access orchestrates a single access attempt from submitted
// credential to terminal audit record.
//
// The state machine per attempt is: pending -> authenticated or denied;
// from authenticated the actuator is triggered and the attempt
// completes regardless of the actuator outcome. "Access granted" is
// decided by authentication alone - a dead door controller produces a
// granted-but-unopened audit record, never a denial and never a crash.
package access
