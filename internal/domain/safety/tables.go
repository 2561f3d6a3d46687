package safety

// Tables is the immutable pattern state shared by every evaluation.
// It is constructed once at process start and never mutated, so it is
// safe to share by reference without locking.
type Tables struct {
	deny []DenyPattern
	safe []SafeRule
}

// NewTables builds the pattern tables from the built-in sets plus any
// operator-supplied extras (already compiled and validated).
func NewTables(extraDeny []DenyPattern, extraSafe []SafeRule) *Tables {
	deny := DefaultDenyPatterns()
	deny = append(deny, extraDeny...)
	safe := DefaultSafeRules()
	safe = append(safe, extraSafe...)
	return &Tables{deny: deny, safe: safe}
}

// MatchDeny checks the command against the deny table. First match
// wins; returns the pattern's category as the reason.
// Commands exceeding MaxCommandLength are treated as denied: a command
// that long is either generated garbage or a ReDoS attempt.
func (t *Tables) MatchDeny(cmd string) (string, bool) {
	if len(cmd) > MaxCommandLength {
		return "command exceeds maximum safe length", true
	}
	for _, dp := range t.deny {
		if dp.Pattern.MatchString(cmd) {
			return dp.Category, true
		}
	}
	return "", false
}

// MatchSafe checks the command against the safe table. Returns the
// rule description on match. Callers must gate this behind the
// shell-operator detector; MatchSafe itself looks only at the prefix.
func (t *Tables) MatchSafe(cmd string) (string, bool) {
	if len(cmd) > MaxCommandLength {
		return "", false
	}
	for _, sr := range t.safe {
		if sr.Pattern.MatchString(cmd) {
			if sr.ExcludePattern != nil && sr.ExcludePattern.MatchString(cmd) {
				continue
			}
			return sr.Description, true
		}
	}
	return "", false
}

// SafeRuleDescriptions lists every safe-rule description, for operator
// tooling such as the interactive tester's completions.
func (t *Tables) SafeRuleDescriptions() []string {
	out := make([]string, 0, len(t.safe))
	for _, sr := range t.safe {
		out = append(out, sr.Description)
	}
	return out
}
