// Package safety holds the static pattern tables and string-level
// security checks used by the authorization pipeline: deny patterns,
// safe rules, the shell-operator detector, and the secret redactor.
package safety

import (
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors for pattern loading and validation.
// These errors can be checked using errors.Is() for programmatic handling.
var (
	// ErrPatternRequired indicates a pattern is required but was not provided.
	ErrPatternRequired = errors.New("pattern is required")

	// ErrPatternTooLong indicates a pattern exceeds the maximum allowed length.
	ErrPatternTooLong = errors.New("pattern too long")

	// ErrNestedQuantifiers indicates a pattern contains nested quantifiers which may cause ReDoS.
	ErrNestedQuantifiers = errors.New("pattern contains nested quantifiers which may cause ReDoS")

	// ErrLargeRepetition indicates a pattern contains large repetition which may cause ReDoS.
	ErrLargeRepetition = errors.New("pattern contains large repetition which may cause ReDoS")

	// ErrAlternationQuantifier indicates a pattern contains alternation with an outer quantifier which may cause ReDoS.
	ErrAlternationQuantifier = errors.New("pattern contains alternation with quantifier which may cause ReDoS")
)

const (
	// MaxCommandLength is the maximum length of a command the pattern
	// tiers will process. Longer commands match no safe rule and are
	// flagged by the deny tier's length guard, preventing ReDoS on the
	// hot path.
	MaxCommandLength = 10000

	// cmdBoundary is the regex suffix that matches end of command or
	// whitespace. Used by safe rules for proper token boundaries.
	cmdBoundary = `(\s|$)`
)

// Patterns for detecting ReDoS-vulnerable constructs in user-supplied rules.
var (
	nestedQuantifierPattern      = regexp.MustCompile(`\([^)]*[+*][^)]*\)[+*?]|\([^)]*[+*][^)]*\)\{`)
	largeRepetitionPattern       = regexp.MustCompile(`\{(\d+)(,(\d*))?\}`)
	alternationQuantifierPattern = regexp.MustCompile(`\([^)]*\|[^)]*\)[+*]|\([^)]*\|[^)]*\)\{`)
)

// validateRegexSafety rejects regex constructs that could cause
// catastrophic backtracking when applied to attacker-chosen commands.
func validateRegexSafety(pattern string) error {
	if nestedQuantifierPattern.MatchString(pattern) {
		return ErrNestedQuantifiers
	}
	if alternationQuantifierPattern.MatchString(pattern) {
		return ErrAlternationQuantifier
	}
	matches := largeRepetitionPattern.FindAllStringSubmatch(pattern, -1)
	for _, match := range matches {
		if len(match) >= 2 {
			var count int
			if _, err := fmt.Sscanf(match[1], "%d", &count); err == nil && count >= 100 {
				return fmt.Errorf("%w: {%d,...}", ErrLargeRepetition, count)
			}
		}
	}
	return nil
}

// compileUserPattern compiles a user-supplied pattern string with
// length and ReDoS validation. The built-in tables use the Must*
// constructors instead, which are covered by tests.
func compileUserPattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, ErrPatternRequired
	}
	if len(pattern) > MaxCommandLength {
		return nil, ErrPatternTooLong
	}
	if err := validateRegexSafety(pattern); err != nil {
		return nil, err
	}
	return regexp.Compile(pattern)
}
