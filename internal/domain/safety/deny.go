package safety

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// DenyPattern is a tier-0 pattern: any command matching it is denied
// outright, regardless of permission rules or safe rules.
type DenyPattern struct {
	Pattern  *regexp.Regexp
	Category string
}

// MustDeny creates a DenyPattern from a regex string.
// Panics on an invalid pattern (caught by tests for the built-in table).
func MustDeny(pattern, category string) DenyPattern {
	return DenyPattern{
		Pattern:  regexp.MustCompile(pattern),
		Category: category,
	}
}

// DenyPatternJSON is the JSON shape for operator-supplied deny patterns.
type DenyPatternJSON struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category,omitempty"`
}

// DefaultDenyPatterns returns the built-in deny table. Patterns are
// grouped by attack class; each category string becomes the decision
// reason, so it must be readable on its own.
func DefaultDenyPatterns() []DenyPattern {
	var patterns []DenyPattern
	patterns = append(patterns, privilegeEscalationPatterns()...)
	patterns = append(patterns, destructiveFilesystemPatterns()...)
	patterns = append(patterns, diskWipePatterns()...)
	patterns = append(patterns, reverseShellPatterns()...)
	patterns = append(patterns, inlineInterpreterPatterns()...)
	patterns = append(patterns, obfuscationPatterns()...)
	patterns = append(patterns, databasePatterns()...)
	patterns = append(patterns, systemSabotagePatterns()...)
	return patterns
}

// privilegeEscalationPatterns blocks paths to root.
func privilegeEscalationPatterns() []DenyPattern {
	return []DenyPattern{
		MustDeny(`(^|\s)sudo\s`, "privilege escalation (sudo)"),
		MustDeny(`(^|\s)su\s+-`, "privilege escalation (su)"),
		MustDeny(`(^|\s)doas\s`, "privilege escalation (doas)"),
		MustDeny(`chmod\s+(-R\s+)?777`, "world-writable permissions"),
	}
}

// destructiveFilesystemPatterns blocks recursive and wildcard deletion.
func destructiveFilesystemPatterns() []DenyPattern {
	return []DenyPattern{
		// rm -rf in any flag order, combined (-fr) or separated (-r -f).
		MustDeny(`rm\s+(-\w+\s+)*-\w*[rR]\w*[fF]`, "recursive force delete"),
		MustDeny(`rm\s+(-\w+\s+)*-\w*[fF]\w*[rR]`, "recursive force delete"),
		MustDeny(`rm\s+(-\w+\s+)*-\w*[rR]\w*(\s+-\w+)*\s+-\w*[fF]`, "recursive force delete"),
		MustDeny(`rm\s+(-\w+\s+)*-\w*[fF]\w*(\s+-\w+)*\s+-\w*[rR]`, "recursive force delete"),
		// rm aimed at root, home, or a bare wildcard.
		MustDeny(`rm\s+(-\w+\s+)*[/~]\s*$`, "destructive rm target"),
		MustDeny(`rm\s+(-\w+\s+)*\*`, "wildcard rm"),
		MustDeny(`find\s+.*(-delete|-exec\s+rm)`, "find with delete"),
	}
}

// diskWipePatterns blocks low-level disk destruction utilities.
func diskWipePatterns() []DenyPattern {
	return []DenyPattern{
		MustDeny(`dd\s+[^|]*of=/dev/`, "raw write to block device"),
		MustDeny(`mkfs(\.\w+)?\s`, "filesystem format"),
		MustDeny(`shred\s+.*/dev/`, "device shred"),
		MustDeny(`wipefs\s`, "filesystem signature wipe"),
		MustDeny(`blkdiscard\s`, "block discard"),
		MustDeny(`>\s*/dev/(sd|nvme|hd)`, "write to disk device"),
	}
}

// reverseShellPatterns blocks the common outbound-shell idioms.
func reverseShellPatterns() []DenyPattern {
	return []DenyPattern{
		MustDeny(`nc(at)?\s+(-\w+\s+)*.*\s-e\s*\S*sh`, "reverse shell (netcat -e)"),
		MustDeny(`bash\s+-i\s+.*(/dev/tcp|/dev/udp)/`, "reverse shell (bash /dev/tcp)"),
		MustDeny(`(sh|bash)\s+.*>&\s*/dev/tcp/`, "reverse shell (redirect to /dev/tcp)"),
		MustDeny(`socat\s+.*exec`, "reverse shell (socat exec)"),
		MustDeny(`(curl|wget)\s+[^|]*\|\s*(/usr/bin/|/bin/)?(ba|z|da)?sh`, "remote script execution"),
	}
}

// inlineInterpreterPatterns blocks one-liner execution in interpreters
// that have unrestricted system access.
func inlineInterpreterPatterns() []DenyPattern {
	return []DenyPattern{
		MustDeny(`perl\s+(-\w+\s+)*-e\s`, "inline perl execution"),
		MustDeny(`ruby\s+(-\w+\s+)*-e\s`, "inline ruby execution"),
		MustDeny(`python3?\s+(-\w+\s+)*-c\s+.*\b(os|subprocess|system)\b`, "inline python system call"),
		MustDeny(`node\s+(-\w+\s+)*-e\s+.*\b(child_process|execSync)\b`, "inline node system call"),
	}
}

// obfuscationPatterns flags the decoder invocation itself, so that
// base64-wrapped payloads are caught before the payload is visible.
func obfuscationPatterns() []DenyPattern {
	return []DenyPattern{
		MustDeny(`base64\s+(-\w+\s+)*(-d|--decode)[^|]*\|\s*\S*(sh|bash|zsh|python|perl|ruby|node)`, "base64 decode piped to interpreter"),
		MustDeny(`echo\s+[A-Za-z0-9+/=]{16,}\s*\|\s*base64\s+(-d|--decode)`, "inline base64 payload decode"),
		MustDeny(`xxd\s+-r[^|]*\|\s*\S*sh`, "hex decode piped to shell"),
		MustDeny(`eval\s+.*\$\(`, "eval of command substitution"),
	}
}

// databasePatterns blocks destructive SQL reaching a client from the
// command line.
func databasePatterns() []DenyPattern {
	return []DenyPattern{
		MustDeny(`(?i)\bdrop\s+(table|database|schema|index)\b`, "destructive SQL (DROP)"),
		MustDeny(`(?i)\btruncate\s+table\b`, "destructive SQL (TRUNCATE)"),
		MustDeny(`(?i)(mysql|psql|sqlite3)\s+.*\bdelete\s+from\b[^w]*$`, "unscoped SQL DELETE"),
	}
}

// systemSabotagePatterns blocks fork bombs and core system tampering.
func systemSabotagePatterns() []DenyPattern {
	return []DenyPattern{
		MustDeny(`:\(\)\s*\{[^}]*:\s*\|\s*:[^}]*&[^}]*\}`, "fork bomb"),
		MustDeny(`>\s*/etc/(passwd|shadow|sudoers)`, "credential file overwrite"),
		MustDeny(`kill\s+(-9|-KILL|-SIGKILL)\s+(--\s+)?-1`, "kill all processes"),
		MustDeny(`crontab\s+-r`, "crontab removal"),
		MustDeny(`export\s+LD_PRELOAD=`, "LD_PRELOAD injection"),
		MustDeny(`history\s+-c`, "shell history clearing"),
	}
}

// ParseDenyPatternsJSON parses a JSON array of operator-supplied deny
// patterns. Any invalid entry fails the whole load: serving with a
// partially-built deny table is unsafe.
func ParseDenyPatternsJSON(jsonStr string) ([]DenyPattern, error) {
	if jsonStr == "" {
		return nil, nil
	}
	var entries []DenyPatternJSON
	if err := json.Unmarshal([]byte(jsonStr), &entries); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	result := make([]DenyPattern, 0, len(entries))
	for i, e := range entries {
		re, err := compileUserPattern(e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("deny entry %d: %w", i, err)
		}
		category := e.Category
		if category == "" {
			category = fmt.Sprintf("custom deny pattern: %s", e.Pattern)
		}
		result = append(result, DenyPattern{Pattern: re, Category: category})
	}
	return result, nil
}
