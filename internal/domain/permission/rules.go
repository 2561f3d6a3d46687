// Package permission models the externally maintained permission rules
// consulted by the pipeline's trust tier and re-examined by the audit
// scanner. Rules are read-only to this subsystem.
package permission

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformedRule indicates a rule string that does not follow the
// Tool(pattern) shape.
var ErrMalformedRule = errors.New("malformed permission rule")

// Rule is one caller-approved rule in the settings shape
// "Bash(git status:*)" (prefix) or "Bash(pytest)" (exact).
type Rule struct {
	// Raw is the rule exactly as it appears in the settings file.
	Raw string

	// Tool is the tool the rule scopes to; only "Bash" rules
	// participate in command matching.
	Tool string

	// Pattern is the command text inside the parentheses, without the
	// ":*" suffix when present.
	Pattern string

	// Prefix is true for ":*" rules, which match any command starting
	// with Pattern; false for exact-match rules.
	Prefix bool
}

// ParseRule parses a single rule string.
func ParseRule(raw string) (Rule, error) {
	open := strings.Index(raw, "(")
	if open <= 0 || !strings.HasSuffix(raw, ")") {
		return Rule{}, fmt.Errorf("%w: %q", ErrMalformedRule, raw)
	}
	tool := raw[:open]
	body := raw[open+1 : len(raw)-1]
	rule := Rule{Raw: raw, Tool: tool, Pattern: body}
	if strings.HasSuffix(body, ":*") {
		rule.Pattern = strings.TrimSuffix(body, ":*")
		rule.Prefix = true
	}
	return rule, nil
}

// Matches reports whether the rule approves the given command text.
// Prefix rules require a token boundary after the pattern, so
// "Bash(git status:*)" matches "git status -sb" but not "git statuses".
func (r Rule) Matches(cmd string) bool {
	if r.Tool != "Bash" {
		return false
	}
	if !r.Prefix {
		return cmd == r.Pattern
	}
	if r.Pattern == "" {
		return true // bare wildcard approves everything
	}
	if !strings.HasPrefix(cmd, r.Pattern) {
		return false
	}
	rest := cmd[len(r.Pattern):]
	return rest == "" || strings.HasPrefix(rest, " ")
}

// highRiskVerbs are first tokens whose combination with an unscoped
// wildcard makes a rule dangerous: each can execute arbitrary further
// commands, move data off the machine, or destroy files.
var highRiskVerbs = map[string]string{
	"bash": "shell", "sh": "shell", "zsh": "shell", "fish": "shell",
	"python": "interpreter", "python3": "interpreter", "perl": "interpreter",
	"ruby": "interpreter", "node": "interpreter", "eval": "shell",
	"curl": "network tool", "wget": "network tool", "nc": "network tool",
	"ncat": "network tool", "ssh": "network tool", "scp": "network tool",
	"rm": "destructive file op", "dd": "destructive disk op",
	"chmod": "permission change", "chown": "ownership change",
	"sudo": "privilege escalation", "su": "privilege escalation",
}

// Dangerous classifies the rule per the verb+wildcard heuristic: a rule
// is dangerous when it is a wildcard whose fixed part either is empty
// or stops at a high-risk verb with no subcommand scoping. Exact rules
// are never flagged; they approve one known command.
func (r Rule) Dangerous() (string, bool) {
	if r.Tool != "Bash" || !r.Prefix {
		return "", false
	}
	trimmed := strings.TrimSpace(r.Pattern)
	if trimmed == "" {
		return "unscoped wildcard approves every command", true
	}
	fields := strings.Fields(trimmed)
	risk, isRisky := highRiskVerbs[fields[0]]
	if !isRisky {
		return "", false
	}
	if len(fields) == 1 {
		return fmt.Sprintf("wildcard on %s %q with no argument scoping", risk, fields[0]), true
	}
	return "", false
}

// Rules is the full caller-approved rule list.
type Rules struct {
	rules []Rule
}

// ParseRules parses a list of rule strings, failing on the first
// malformed entry. A malformed permission file is a configuration bug
// and must surface at startup, not be skipped at evaluation time.
func ParseRules(raw []string) (Rules, error) {
	rules := make([]Rule, 0, len(raw))
	for _, s := range raw {
		r, err := ParseRule(s)
		if err != nil {
			return Rules{}, err
		}
		rules = append(rules, r)
	}
	return Rules{rules: rules}, nil
}

// settingsFile is the YAML shape of the external permissions file.
type settingsFile struct {
	Permissions struct {
		Allow []string `yaml:"allow"`
	} `yaml:"permissions"`
}

// Load reads the external permissions file. A missing file yields an
// empty rule set, since absence of approvals is not an error.
func Load(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Rules{}, nil
		}
		return Rules{}, fmt.Errorf("read permissions file: %w", err)
	}
	var f settingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Rules{}, fmt.Errorf("parse permissions file: %w", err)
	}
	return ParseRules(f.Permissions.Allow)
}

// Match returns the raw rule string that approves the command, if any.
func (rs Rules) Match(cmd string) (string, bool) {
	for _, r := range rs.rules {
		if r.Matches(cmd) {
			return r.Raw, true
		}
	}
	return "", false
}

// All returns the parsed rules for the audit scanner.
func (rs Rules) All() []Rule {
	return rs.rules
}

// Len reports the number of rules.
func (rs Rules) Len() int {
	return len(rs.rules)
}
