// Package ai provides the two judgment strategies behind the pipeline's
// LLM tier: an Anthropic API adapter and a local CLI subprocess
// fallback, plus the strict verdict parser both share.
package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"command-gatekeeper/internal/domain/entity"
)

// Parse errors surfaced inside JudgmentParseFailure results.
var (
	ErrNoJSONObject  = errors.New("response contains no JSON object")
	ErrMissingSafe   = errors.New("verdict missing required field \"safe\"")
	ErrMissingReason = errors.New("verdict missing required field \"reason\"")
)

// rawVerdict uses pointers so an absent field is distinguishable from a
// zero value; a missing "safe" must never default to false-and-usable,
// let alone true.
type rawVerdict struct {
	Safe   *bool   `json:"safe"`
	Reason *string `json:"reason"`
}

// ParseVerdict parses an evaluator response strictly as
// {"safe": bool, "reason": string}. Anything else (no JSON, malformed
// JSON, a missing field, an empty reason) yields a parse failure,
// which the pipeline resolves to Ask, never Allow.
//
// The response may carry prose around the JSON object (CLI evaluators
// often do); only the outermost braces are considered.
func ParseVerdict(response string) entity.Judgment {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return entity.NewParseFailure(fmt.Errorf("%w: %.80q", ErrNoJSONObject, response))
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return entity.NewParseFailure(fmt.Errorf("decode verdict: %w", err))
	}
	if raw.Safe == nil {
		return entity.NewParseFailure(ErrMissingSafe)
	}
	if raw.Reason == nil || strings.TrimSpace(*raw.Reason) == "" {
		return entity.NewParseFailure(ErrMissingReason)
	}

	verdict, err := entity.NewVerdict(*raw.Safe, strings.TrimSpace(*raw.Reason))
	if err != nil {
		return entity.NewParseFailure(err)
	}
	return verdict
}
