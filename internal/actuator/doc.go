// Package actuator talks to the physical door-release mechanism.
//
// The gate consumes a single small interface, Trigger, with one
// operation: TriggerOpen. Two transports are provided - an HTTP GET to
// a door controller's open endpoint and an MQTT publish to a door-relay
// topic - plus a no-op for dry runs. Every failure mode (unreachable,
// timeout, bad status) is a reportable error, never a panic and never
// an input to the access decision, which is made before the actuator
// is invoked.
package actuator
