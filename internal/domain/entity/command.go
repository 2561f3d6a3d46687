// Package entity contains the core domain types for command authorization:
// the command under evaluation, the terminal decision, and the tagged
// judgment result produced by the LLM tier.
package entity

import (
	"errors"
	"strings"
)

// ErrEmptyCommand is returned when a command with no text is submitted.
var ErrEmptyCommand = errors.New("command text cannot be empty")

// sessionPrefixLen is the number of session-id characters carried into
// the audit log. Enough to correlate, short enough not to leak the token.
const sessionPrefixLen = 8

// Command is one shell invocation submitted for authorization.
// It is immutable once constructed.
type Command struct {
	// Text is the raw command string as the caller would execute it.
	Text string

	// Cwd is the working directory the command would run in.
	Cwd string

	// SessionID is an opaque correlation token supplied by the caller.
	SessionID string
}

// NewCommand constructs a Command. Returns ErrEmptyCommand if the text
// is empty or whitespace-only.
func NewCommand(text, cwd, sessionID string) (Command, error) {
	if strings.TrimSpace(text) == "" {
		return Command{}, ErrEmptyCommand
	}
	return Command{Text: text, Cwd: cwd, SessionID: sessionID}, nil
}

// SessionPrefix returns the first eight characters of the session id,
// or the whole id if it is shorter.
func (c Command) SessionPrefix() string {
	if len(c.SessionID) <= sessionPrefixLen {
		return c.SessionID
	}
	return c.SessionID[:sessionPrefixLen]
}
