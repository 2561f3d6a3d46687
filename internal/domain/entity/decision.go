package entity

import (
	"errors"
	"time"
)

// Outcome is the terminal result of evaluating a command.
type Outcome string

const (
	// OutcomeAllow means the command may execute without confirmation.
	OutcomeAllow Outcome = "ALLOW"
	// OutcomeAsk means a human must confirm before execution.
	OutcomeAsk Outcome = "ASK"
	// OutcomeDeny means the command must not execute.
	OutcomeDeny Outcome = "DENY"
)

// Method identifies which pipeline tier produced a decision.
type Method string

const (
	// MethodDenyPattern is tier 0: a deny pattern matched.
	MethodDenyPattern Method = "DENY_PATTERN"
	// MethodPerms is tier 1: a caller-approved permission rule matched.
	MethodPerms Method = "PERMS"
	// MethodLocal is tier 2: a local safe pattern matched.
	MethodLocal Method = "LOCAL"
	// MethodAPI is tier 3 via the API judgment strategy.
	MethodAPI Method = "API"
	// MethodCLI is tier 3 via the CLI subprocess fallback.
	MethodCLI Method = "CLI"
	// MethodAskUser is tier 3 degrading to a human: the judgment was
	// unusable (parse failure, missing field, evaluator unavailable).
	MethodAskUser Method = "ASK_USER"
	// MethodAskTimeout is tier 3 degrading to a human because the
	// judgment call exceeded the caller-imposed budget.
	MethodAskTimeout Method = "ASK_TIMEOUT"
)

// ErrReasonRequired is returned when a non-Allow decision carries no
// human-readable reason.
var ErrReasonRequired = errors.New("non-allow decision requires a reason")

// Decision is the terminal value of one pipeline evaluation.
// Exactly one Decision is produced and logged per evaluated command.
type Decision struct {
	Outcome Outcome
	Method  Method
	Reason  string
	Elapsed time.Duration
}

// NewDecision constructs a Decision, enforcing that Ask and Deny always
// carry an explanation.
func NewDecision(outcome Outcome, method Method, reason string) (Decision, error) {
	if outcome != OutcomeAllow && reason == "" {
		return Decision{}, ErrReasonRequired
	}
	return Decision{Outcome: outcome, Method: method, Reason: reason}, nil
}
