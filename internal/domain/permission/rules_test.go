package permission

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantTool   string
		wantPat    string
		wantPrefix bool
		wantErr    bool
	}{
		{
			name:       "prefix rule",
			raw:        "Bash(git status:*)",
			wantTool:   "Bash",
			wantPat:    "git status",
			wantPrefix: true,
		},
		{
			name:     "exact rule",
			raw:      "Bash(pytest)",
			wantTool: "Bash",
			wantPat:  "pytest",
		},
		{
			name:       "bare wildcard",
			raw:        "Bash(:*)",
			wantTool:   "Bash",
			wantPat:    "",
			wantPrefix: true,
		},
		{
			name:       "other tool parses but never matches commands",
			raw:        "Read(/etc/*)",
			wantTool:   "Read",
			wantPat:    "/etc/*",
			wantPrefix: false,
		},
		{name: "missing parens", raw: "Bash git status", wantErr: true},
		{name: "missing close paren", raw: "Bash(git status", wantErr: true},
		{name: "empty tool", raw: "(git status)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ParseRule(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedRule) {
					t.Fatalf("ParseRule(%q) error = %v, want ErrMalformedRule", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRule(%q) error = %v", tt.raw, err)
			}
			if rule.Tool != tt.wantTool || rule.Pattern != tt.wantPat || rule.Prefix != tt.wantPrefix {
				t.Errorf("ParseRule(%q) = %+v", tt.raw, rule)
			}
		})
	}
}

func TestRuleMatches(t *testing.T) {
	tests := []struct {
		name string
		rule string
		cmd  string
		want bool
	}{
		{"prefix matches exact", "Bash(git status:*)", "git status", true},
		{"prefix matches with args", "Bash(git status:*)", "git status -sb", true},
		{"prefix requires token boundary", "Bash(git status:*)", "git statuses", false},
		{"exact matches exact only", "Bash(pytest)", "pytest", true},
		{"exact rejects args", "Bash(pytest)", "pytest -x tests/", false},
		{"bare wildcard matches anything", "Bash(:*)", "rm -rf /", true},
		{"other tool never matches", "Read(git status:*)", "git status", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ParseRule(tt.rule)
			if err != nil {
				t.Fatal(err)
			}
			if got := rule.Matches(tt.cmd); got != tt.want {
				t.Errorf("%s.Matches(%q) = %v, want %v", tt.rule, tt.cmd, got, tt.want)
			}
		})
	}
}

func TestRuleDangerous(t *testing.T) {
	tests := []struct {
		name          string
		rule          string
		wantDangerous bool
	}{
		{"unscoped wildcard", "Bash(:*)", true},
		{"bare shell wildcard", "Bash(bash:*)", true},
		{"bare curl wildcard", "Bash(curl:*)", true},
		{"bare rm wildcard", "Bash(rm:*)", true},
		{"scoped risky verb is tolerated", "Bash(curl localhost:*)", false},
		{"benign verb wildcard", "Bash(git status:*)", false},
		{"exact rule never dangerous", "Bash(bash deploy.sh)", false},
		{"non-bash tool never dangerous", "Read(rm:*)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ParseRule(tt.rule)
			if err != nil {
				t.Fatal(err)
			}
			reason, dangerous := rule.Dangerous()
			if dangerous != tt.wantDangerous {
				t.Errorf("%s.Dangerous() = %v (%q), want %v", tt.rule, dangerous, reason, tt.wantDangerous)
			}
			if dangerous && reason == "" {
				t.Error("dangerous rule must carry a reason")
			}
		})
	}
}

func TestParseRulesFailsFast(t *testing.T) {
	_, err := ParseRules([]string{"Bash(ls:*)", "not a rule", "Bash(pwd)"})
	if !errors.Is(err, ErrMalformedRule) {
		t.Fatalf("error = %v, want ErrMalformedRule", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "permissions.yaml")
	content := `permissions:
  allow:
    - "Bash(git status:*)"
    - "Bash(pytest)"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if rules.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", rules.Len())
	}
	if raw, ok := rules.Match("git status -sb"); !ok || raw != "Bash(git status:*)" {
		t.Errorf("Match = %q, %v", raw, ok)
	}
	if _, ok := rules.Match("git push"); ok {
		t.Error("git push should not match")
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	rules, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if rules.Len() != 0 {
		t.Errorf("Len() = %d, want 0", rules.Len())
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "permissions.yaml")
	if err := os.WriteFile(path, []byte("permissions:\n  allow:\n    - \"broken\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed rule must fail the load")
	}
}
