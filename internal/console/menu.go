package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/oakfield-labs/doorgate/internal/access"
	"github.com/oakfield-labs/doorgate/internal/roster"
)

// recentEventsLimit is how many audit entries the admin view shows.
const recentEventsLimit = 20

// EventLister provides the recent-events view for the admin menu.
type EventLister interface {
	ListRecent(ctx context.Context, limit int) ([]access.Event, error)
}

// Menu is the interactive operator surface. It owns no policy: it
// trims input, relays calls into the core, and renders results. All
// I/O goes through the injected reader and writer so flows can be
// scripted in tests.
type Menu struct {
	in         *bufio.Scanner
	out        io.Writer
	controller *access.Controller
	service    *roster.Service
	events     EventLister
	gate       roster.AdminGate
	logger     *slog.Logger
}

// New creates a Menu reading operator input from in and writing
// prompts and results to out.
func New(in io.Reader, out io.Writer, controller *access.Controller, service *roster.Service, events EventLister, gate roster.AdminGate, logger *slog.Logger) *Menu {
	return &Menu{
		in:         bufio.NewScanner(in),
		out:        out,
		controller: controller,
		service:    service,
		events:     events,
		gate:       gate,
		logger:     logger,
	}
}

// Run drives the main menu until the operator exits, input reaches
// EOF, or the context is cancelled.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, "--- Door Access Control ---")
		fmt.Fprintln(m.out, "1. Enter PIN (open door)")
		fmt.Fprintln(m.out, "2. Admin options")
		fmt.Fprintln(m.out, "3. Exit")

		choice, ok := m.prompt("Enter your choice: ")
		if !ok {
			return nil // EOF
		}

		switch choice {
		case "1":
			m.handleAccessAttempt(ctx)
		case "2":
			m.handleAdminEntry(ctx)
		case "3":
			fmt.Fprintln(m.out, "Goodbye.")
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice. Please try again.")
		}
	}
}

// handleAccessAttempt runs one credential through the gate.
func (m *Menu) handleAccessAttempt(ctx context.Context) {
	pin, ok := m.prompt("Enter 4-digit PIN: ")
	if !ok {
		return
	}

	decision := m.controller.RequestAccess(ctx, pin)
	if decision.Granted {
		fmt.Fprintf(m.out, "Access granted for %s (ID: %s).\n",
			decision.Subject.DisplayName, decision.Subject.ExternalID)
		if decision.ActuatorErr != nil {
			fmt.Fprintln(m.out, "Warning: door controller did not respond; check the door.")
		} else {
			fmt.Fprintln(m.out, "Door opening.")
		}
	} else {
		fmt.Fprintln(m.out, "Access denied. Invalid PIN.")
	}
}

// handleAdminEntry gates entry into the administrative menu.
func (m *Menu) handleAdminEntry(ctx context.Context) {
	secret, ok := m.prompt("Enter admin PIN: ")
	if !ok {
		return
	}

	if !m.gate.Authorize(secret) {
		fmt.Fprintln(m.out, "Incorrect admin PIN.")
		m.logger.Warn("admin menu access rejected")
		return
	}

	m.adminLoop(ctx)
}

// adminLoop drives the roster administration menu.
func (m *Menu) adminLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, "--- Admin Menu ---")
		fmt.Fprintln(m.out, "1. Add subject")
		fmt.Fprintln(m.out, "2. Remove subject")
		fmt.Fprintln(m.out, "3. View subjects")
		fmt.Fprintln(m.out, "4. Recent access events")
		fmt.Fprintln(m.out, "5. Back to main menu")

		choice, ok := m.prompt("Enter your admin choice: ")
		if !ok {
			return
		}

		switch choice {
		case "1":
			m.adminAddSubject(ctx)
		case "2":
			m.adminRemoveSubject(ctx)
		case "3":
			m.adminViewSubjects(ctx)
		case "4":
			m.adminViewEvents(ctx)
		case "5":
			return
		default:
			fmt.Fprintln(m.out, "Invalid admin choice. Please try again.")
		}
	}
}

// adminAddSubject prompts for a new roster entry. The PIN prompt
// re-asks on a bad format so the operator isn't made to re-type the
// name and ID; every other failure reports and returns to the menu.
func (m *Menu) adminAddSubject(ctx context.Context) {
	fmt.Fprintln(m.out, "\n--- Add Subject ---")

	var pin string
	for {
		var ok bool
		pin, ok = m.prompt("Enter 4-digit PIN for new subject: ")
		if !ok {
			return
		}
		if roster.IsValidPIN(pin) {
			break
		}
		fmt.Fprintln(m.out, "Invalid PIN. Please enter exactly 4 digits.")
	}

	name, ok := m.prompt("Enter subject name: ")
	if !ok {
		return
	}
	externalID, ok := m.prompt("Enter subject ID: ")
	if !ok {
		return
	}

	err := m.service.AddSubject(ctx, pin, name, externalID)
	switch {
	case err == nil:
		fmt.Fprintf(m.out, "Subject %q (ID: %s) added.\n", name, externalID)
	case errors.Is(err, roster.ErrCredentialExists):
		fmt.Fprintf(m.out, "PIN %q is already in use. Choose a different PIN.\n", pin)
	case errors.Is(err, roster.ErrExternalIDExists):
		fmt.Fprintf(m.out, "Subject ID %q is already in use.\n", externalID)
	case errors.Is(err, roster.ErrInvalidName), errors.Is(err, roster.ErrInvalidExternalID):
		fmt.Fprintln(m.out, "Name and subject ID must not be empty.")
	default:
		fmt.Fprintln(m.out, "Failed to add subject.")
		m.logger.Error("add subject failed", "error", err)
	}
}

// adminRemoveSubject prompts for a credential to remove.
func (m *Menu) adminRemoveSubject(ctx context.Context) {
	fmt.Fprintln(m.out, "\n--- Remove Subject ---")

	pin, ok := m.prompt("Enter PIN of subject to remove: ")
	if !ok {
		return
	}

	err := m.service.RemoveSubject(ctx, pin)
	switch {
	case err == nil:
		fmt.Fprintf(m.out, "Subject with PIN %q removed.\n", pin)
	case errors.Is(err, roster.ErrProtectedCredential):
		fmt.Fprintln(m.out, "Cannot remove the fallback admin PIN.")
	case errors.Is(err, roster.ErrSubjectNotFound):
		fmt.Fprintf(m.out, "PIN %q not found.\n", pin)
	default:
		fmt.Fprintln(m.out, "Failed to remove subject.")
		m.logger.Error("remove subject failed", "error", err)
	}
}

// adminViewSubjects renders the roster.
func (m *Menu) adminViewSubjects(ctx context.Context) {
	fmt.Fprintln(m.out, "\n--- Registered Subjects ---")

	subjects, err := m.service.ListSubjects(ctx)
	if err != nil {
		fmt.Fprintln(m.out, "Failed to list subjects.")
		m.logger.Error("list subjects failed", "error", err)
		return
	}

	if len(subjects) == 0 {
		fmt.Fprintln(m.out, "No subjects registered.")
		return
	}
	for _, s := range subjects {
		fmt.Fprintf(m.out, "PIN: %s, Name: %s, ID: %s\n", s.Credential, s.DisplayName, s.ExternalID)
	}
}

// adminViewEvents renders the recent audit trail.
func (m *Menu) adminViewEvents(ctx context.Context) {
	fmt.Fprintln(m.out, "\n--- Recent Access Events ---")

	events, err := m.events.ListRecent(ctx, recentEventsLimit)
	if err != nil {
		fmt.Fprintln(m.out, "Failed to list access events.")
		m.logger.Error("list access events failed", "error", err)
		return
	}

	if len(events) == 0 {
		fmt.Fprintln(m.out, "No access events recorded.")
		return
	}
	for _, e := range events {
		when := e.CreatedAt.Format("2006-01-02 15:04:05")
		if e.Decision == access.DecisionGranted {
			fmt.Fprintf(m.out, "[%s] granted: %s (ID: %s)\n", when, e.SubjectName, e.SubjectExternalID)
		} else {
			fmt.Fprintf(m.out, "[%s] denied: PIN %s\n", when, e.Credential)
		}
	}
}

// prompt prints a label and reads one trimmed line. ok is false on
// EOF or read failure. Trimming here keeps the core's contract: it
// only ever sees pre-trimmed input.
func (m *Menu) prompt(label string) (line string, ok bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}
