package port

import (
	"time"

	"command-gatekeeper/internal/domain/entity"
)

// AuditEntry is one parsed line of the decision log.
type AuditEntry struct {
	Time    time.Time
	Session string
	Outcome entity.Outcome
	Method  entity.Method
	Elapsed time.Duration
	Command string
	Reason  string
}

// DecisionLogger records the terminal decision for a command. The
// write must complete before the decision is returned to the caller so
// the decision is recoverable even if the caller crashes afterwards.
type DecisionLogger interface {
	Log(cmd entity.Command, d entity.Decision) error
}

// AuditReader reads back a bounded window of recent decisions for the
// permission audit scanner.
type AuditReader interface {
	// ReadRecent returns up to n of the most recent entries, oldest first.
	ReadRecent(n int) ([]AuditEntry, error)
}
