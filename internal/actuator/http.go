package actuator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxResponseBody caps how much of the controller's response is read
// for logging. Door controllers answer with a short status string;
// anything larger is truncated.
const maxResponseBody = 4096

// HTTPTrigger releases the door by issuing a GET request to the door
// controller's open endpoint (e.g. an ESP32 relay board serving
// /open_door on the local network).
type HTTPTrigger struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPTrigger creates an HTTP actuator for the given open-door URL.
// timeout bounds the whole request; on expiry the attempt is reported
// as ErrUnreachable, not raised as a crash.
func NewHTTPTrigger(url string, timeout time.Duration, logger *slog.Logger) *HTTPTrigger {
	return &HTTPTrigger{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// TriggerOpen sends the open command to the door controller.
func (t *HTTPTrigger) TriggerOpen(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrUnreachable, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody)) //nolint:errcheck // body is informational only

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrBadStatus, resp.StatusCode, string(body))
	}

	t.logger.Debug("door controller acknowledged open command",
		"status", resp.StatusCode,
		"response", string(body),
	)

	return nil
}
