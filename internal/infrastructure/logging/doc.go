// Package logging provides structured logging for doorgate, built on
// log/slog with level filtering, JSON or text output, and default
// service fields.
package logging
