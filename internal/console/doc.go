// Package console is the interactive operator surface: the main menu
// for access attempts and the gated admin menu for roster changes.
// It reads from an injected io.Reader and writes to an io.Writer so
// whole sessions can be scripted in tests.
package console
