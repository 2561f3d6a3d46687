package safety

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// SafeRule is a tier-2 rule: a command matching it is auto-approved,
// provided the shell-operator detector found no operators first.
//
// Rules come in two shapes. MustTool covers single-purpose, read-only
// tools where any argument is safe (ls, cat, pwd). MustSubcmd scopes
// the rule to one specific subcommand of a multi-verb tool (git diff,
// gh pr view); a bare "git " prefix would approve git push --force
// alongside git status, so multi-verb tools never get tool-level rules.
type SafeRule struct {
	Pattern        *regexp.Regexp
	Description    string
	ExcludePattern *regexp.Regexp // if matched, the rule does not apply
}

// MustTool creates a rule for a single-purpose tool with any arguments.
// Uses regexp.QuoteMeta, so compilation cannot fail on sane input.
func MustTool(cmd, desc string) SafeRule {
	return SafeRule{
		Pattern:     regexp.MustCompile(`^` + regexp.QuoteMeta(cmd) + cmdBoundary),
		Description: desc,
	}
}

// MustToolExcluding creates a tool rule with an exclusion regex for
// dangerous flag combinations.
func MustToolExcluding(cmd, desc, exclude string) SafeRule {
	r := MustTool(cmd, desc)
	r.ExcludePattern = regexp.MustCompile(exclude)
	return r
}

// MustSubcmd creates a rule scoped to one subcommand of a multi-verb tool.
func MustSubcmd(cmd, subcmd, desc string) SafeRule {
	return SafeRule{
		Pattern:     regexp.MustCompile(`^` + regexp.QuoteMeta(cmd) + `\s+` + regexp.QuoteMeta(subcmd) + cmdBoundary),
		Description: desc,
	}
}

// MustSubcmdExcluding creates a subcommand rule with an exclusion regex.
func MustSubcmdExcluding(cmd, subcmd, desc, exclude string) SafeRule {
	r := MustSubcmd(cmd, subcmd, desc)
	r.ExcludePattern = regexp.MustCompile(exclude)
	return r
}

// Dangerous flag sets shared by exclusion rules.
const (
	gitDeleteFlags     = `(?i)(-d\s|-D\s|--delete\s)`
	findDangerousFlags = `(?i)(-exec\s|-execdir\s|-delete(\s|$)|-ok\s|-okdir\s)`
	sedDangerousFlags  = `(?i)(-i\s|-i$|-i['"]|/e[gp]*['"\s]|/e[gp]*$|/w\s)`
)

// DefaultSafeRules returns the built-in safe table: read-only commands
// whose auto-approval carries no risk when no shell operator is present.
func DefaultSafeRules() []SafeRule {
	var rules []SafeRule
	rules = append(rules, fileReadRules()...)
	rules = append(rules, searchRules()...)
	rules = append(rules, gitReadRules()...)
	rules = append(rules, devToolRules()...)
	rules = append(rules, systemInfoRules()...)
	return rules
}

func fileReadRules() []SafeRule {
	return []SafeRule{
		MustTool("ls", "list directory contents"),
		MustTool("cat", "display file contents"),
		MustTool("head", "display first lines of file"),
		MustTool("tail", "display last lines of file"),
		MustTool("wc", "word/line/byte count"),
		MustTool("file", "determine file type"),
		MustTool("stat", "display file status"),
		MustTool("realpath", "resolve path"),
		MustTool("basename", "strip directory from path"),
		MustTool("dirname", "strip last path component"),
		MustTool("diff", "compare files"),
		MustTool("md5sum", "compute MD5 checksum"),
		MustTool("sha256sum", "compute SHA256 checksum"),
	}
}

func searchRules() []SafeRule {
	return []SafeRule{
		MustTool("grep", "search file contents"),
		MustTool("rg", "ripgrep search"),
		MustTool("fd", "fd file finder"),
		MustToolExcluding("find", "find files (read-only)", findDangerousFlags),
		MustTool("which", "locate command"),
		MustTool("whereis", "locate binary"),
		MustToolExcluding("sed", "sed text processing (read-only)", sedDangerousFlags),
		MustTool("sort", "sort lines"),
		MustTool("uniq", "filter unique lines"),
		MustTool("cut", "extract columns"),
		MustTool("jq", "JSON processor"),
		MustTool("yq", "YAML processor"),
	}
}

func gitReadRules() []SafeRule {
	return []SafeRule{
		MustSubcmd("git", "status", "git status"),
		MustSubcmd("git", "log", "git log"),
		MustSubcmd("git", "diff", "git diff"),
		MustSubcmd("git", "show", "git show"),
		MustSubcmd("git", "blame", "git blame"),
		MustSubcmd("git", "remote", "git remote"),
		MustSubcmd("git", "rev-parse", "git rev-parse"),
		MustSubcmd("git", "ls-files", "git ls-files"),
		MustSubcmdExcluding("git", "branch", "git branch list (read-only)", gitDeleteFlags),
		MustSubcmdExcluding("git", "tag", "git tag list (read-only)", gitDeleteFlags),
		MustSubcmd("gh", "pr view", "gh pr view"),
		MustSubcmd("gh", "pr list", "gh pr list"),
		MustSubcmd("gh", "pr checks", "gh pr checks"),
		MustSubcmd("gh", "issue view", "gh issue view"),
		MustSubcmd("gh", "issue list", "gh issue list"),
		MustSubcmd("gh", "run view", "gh run view"),
		MustSubcmd("gh", "repo view", "gh repo view"),
	}
}

func devToolRules() []SafeRule {
	return []SafeRule{
		MustTool("pytest", "run python tests"),
		MustSubcmd("make", "test", "make test"),
		MustSubcmd("make", "check", "make check"),
		MustSubcmd("go", "test", "go test"),
		MustSubcmd("go", "vet", "go vet"),
		MustSubcmd("go", "build", "go build"),
		MustSubcmd("go", "version", "go version"),
		MustSubcmd("go", "env", "go environment"),
		MustSubcmd("go", "list", "go list packages"),
		MustSubcmd("cargo", "check", "cargo check"),
		MustSubcmd("cargo", "test", "cargo test"),
		MustSubcmd("npm", "test", "npm test"),
		MustSubcmd("npm", "ls", "npm list"),
		MustSubcmd("npm", "outdated", "npm outdated"),
		MustSubcmd("pip", "list", "pip list"),
		MustSubcmd("pip", "show", "pip show"),
		MustSubcmd("docker", "ps", "docker ps"),
		MustSubcmd("docker", "images", "docker images"),
		MustSubcmd("docker", "logs", "docker logs"),
		MustSubcmd("docker", "compose up", "docker compose up"),
		MustSubcmd("docker", "compose ps", "docker compose ps"),
		MustSubcmd("kubectl", "get", "kubectl get"),
		MustSubcmd("kubectl", "describe", "kubectl describe"),
		MustSubcmd("kubectl", "logs", "kubectl logs"),
	}
}

func systemInfoRules() []SafeRule {
	return []SafeRule{
		MustTool("pwd", "print working directory"),
		MustTool("whoami", "current user"),
		MustTool("hostname", "hostname"),
		MustTool("uname", "system info"),
		MustTool("date", "current date/time"),
		MustTool("uptime", "system uptime"),
		MustTool("env", "environment variables"),
		MustTool("printenv", "print environment"),
		MustTool("ps", "process status"),
		MustTool("df", "disk free space"),
		MustTool("du", "disk usage"),
		MustTool("echo", "echo"),
		MustTool("true", "true"),
		MustTool("false", "false"),
	}
}

// SafeRuleJSON is the JSON shape for operator-supplied safe rules.
type SafeRuleJSON struct {
	Pattern        string `json:"pattern"`
	ExcludePattern string `json:"exclude_pattern,omitempty"`
	Description    string `json:"description,omitempty"`
}

// ParseSafeRulesJSON parses a JSON array of operator-supplied safe
// rules. Any invalid entry fails the whole load (no partial tables).
func ParseSafeRulesJSON(jsonStr string) ([]SafeRule, error) {
	if jsonStr == "" {
		return nil, nil
	}
	var entries []SafeRuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &entries); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	result := make([]SafeRule, 0, len(entries))
	for i, e := range entries {
		re, err := compileUserPattern(e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("safe entry %d: %w", i, err)
		}
		rule := SafeRule{Pattern: re, Description: e.Description}
		if rule.Description == "" {
			rule.Description = fmt.Sprintf("custom safe rule: %s", e.Pattern)
		}
		if e.ExcludePattern != "" {
			exclude, err := compileUserPattern(e.ExcludePattern)
			if err != nil {
				return nil, fmt.Errorf("safe entry %d exclude: %w", i, err)
			}
			rule.ExcludePattern = exclude
		}
		result = append(result, rule)
	}
	return result, nil
}
