package access

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oakfield-labs/doorgate/internal/actuator"
	"github.com/oakfield-labs/doorgate/internal/roster"
)

// Decision is the terminal outcome of one access attempt.
//
// Granted is determined purely by authentication: once a credential
// matches a subject, the decision is "granted" no matter what the
// actuator does afterwards. ActuatorOK and ActuatorErr describe the
// door-release outcome for the audit trail only.
type Decision struct {
	Granted     bool
	Subject     *roster.Subject
	Credential  string
	ActuatorOK  bool
	ActuatorErr error
	Timestamp   time.Time
}

// Event is the audit record emitted for every attempt, granted or
// denied. On denial the raw credential is recorded; on grant the
// subject's identity is.
type Event struct {
	ID                string
	Decision          string // "granted" or "denied"
	Credential        string
	SubjectName       string
	SubjectExternalID string
	ActuatorOK        bool
	CreatedAt         time.Time
}

// Decision values for Event.Decision.
const (
	DecisionGranted = "granted"
	DecisionDenied  = "denied"
)

// Recorder receives audit events. Implementations must tolerate being
// called once per attempt on the hot path; failures are logged by the
// controller and never propagate into the access decision.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// Controller orchestrates one access attempt: authenticate, trigger
// the actuator on success, and audit the outcome. It holds no state
// between attempts - authentication is a single stateless check.
type Controller struct {
	repo            roster.SubjectRepository
	trigger         actuator.Trigger
	recorders       []Recorder
	logger          *slog.Logger
	actuatorTimeout time.Duration
}

// NewController wires the orchestration component. All collaborators
// are passed in explicitly; there is no ambient configuration.
func NewController(repo roster.SubjectRepository, trigger actuator.Trigger, recorders []Recorder, actuatorTimeout time.Duration, logger *slog.Logger) *Controller {
	return &Controller{
		repo:            repo,
		trigger:         trigger,
		recorders:       recorders,
		logger:          logger,
		actuatorTimeout: actuatorTimeout,
	}
}

// RequestAccess processes one submitted credential to completion.
//
// Denied attempts stop before the actuator is touched. Granted
// attempts trigger the door release under its own deadline, outside
// any store transaction, so actuator latency can never block the
// roster. Actuator failures are logged and recorded but do not revoke
// the grant. An audit event is emitted on every path.
func (c *Controller) RequestAccess(ctx context.Context, credential string) Decision {
	decision := Decision{
		Credential: credential,
		Timestamp:  time.Now().UTC(),
	}

	subject, err := roster.Authenticate(ctx, c.repo, credential)
	switch {
	case err == nil:
		decision.Granted = true
		decision.Subject = subject
	case errors.Is(err, roster.ErrAccessDenied):
		c.logger.Info("access denied", "credential", credential)
	default:
		// Store failure: treat as denial for this attempt but make the
		// cause visible - this is not a wrong PIN.
		c.logger.Error("credential lookup failed", "error", err)
	}

	if decision.Granted {
		c.logger.Info("access granted",
			"name", subject.DisplayName,
			"external_id", subject.ExternalID,
		)

		triggerCtx, cancel := context.WithTimeout(ctx, c.actuatorTimeout)
		actErr := c.trigger.TriggerOpen(triggerCtx)
		cancel()

		if actErr != nil {
			decision.ActuatorErr = actErr
			c.logger.Warn("actuator failure, access decision unaffected", "error", actErr)
		} else {
			decision.ActuatorOK = true
		}
	}

	c.record(ctx, decision)
	return decision
}

// record emits the audit event to every configured recorder. Recorder
// failures never surface to the caller.
func (c *Controller) record(ctx context.Context, decision Decision) {
	event := Event{
		Decision:   DecisionDenied,
		Credential: decision.Credential,
		ActuatorOK: decision.ActuatorOK,
		CreatedAt:  decision.Timestamp,
	}
	if decision.Granted {
		event.Decision = DecisionGranted
		event.SubjectName = decision.Subject.DisplayName
		event.SubjectExternalID = decision.Subject.ExternalID
	}

	for _, r := range c.recorders {
		if err := r.Record(ctx, event); err != nil {
			c.logger.Error("audit recorder failed", "error", err)
		}
	}
}
