package entity

import "errors"

// JudgmentKind tags the three possible results of an LLM evaluation.
// Callers must handle all three; there is no default that maps to Allow.
type JudgmentKind int

const (
	// JudgmentVerdict is a well-formed {safe, reason} response.
	JudgmentVerdict JudgmentKind = iota
	// JudgmentParseFailure covers unreadable responses, missing fields,
	// and transport errors other than timeout.
	JudgmentParseFailure
	// JudgmentTimeout means the evaluation exceeded its deadline.
	JudgmentTimeout
)

// ErrVerdictReasonRequired is returned when a verdict arrives without a
// reason. Such a verdict is unusable and must be demoted to Ask.
var ErrVerdictReasonRequired = errors.New("verdict must carry a reason")

// Judgment is the tagged result of one LLM evaluation. Only
// JudgmentVerdict carries a usable Safe/Reason pair; the other kinds
// carry the failure in Err and always resolve to Ask upstream.
type Judgment struct {
	Kind   JudgmentKind
	Safe   bool
	Reason string
	Err    error
}

// NewVerdict constructs a usable verdict. A missing reason is rejected
// so the caller is forced into the ParseFailure path instead.
func NewVerdict(safe bool, reason string) (Judgment, error) {
	if reason == "" {
		return Judgment{}, ErrVerdictReasonRequired
	}
	return Judgment{Kind: JudgmentVerdict, Safe: safe, Reason: reason}, nil
}

// NewParseFailure wraps an unusable evaluator response.
func NewParseFailure(err error) Judgment {
	return Judgment{Kind: JudgmentParseFailure, Err: err}
}

// NewTimeout wraps an evaluation that exceeded its deadline.
func NewTimeout(err error) Judgment {
	return Judgment{Kind: JudgmentTimeout, Err: err}
}
