package service

import (
	"context"
	"fmt"

	"command-gatekeeper/internal/domain/entity"
	"command-gatekeeper/internal/domain/permission"
	"command-gatekeeper/internal/domain/port"
	"command-gatekeeper/internal/domain/prompt"
)

// RuleFinding is one permission rule the scanner flagged as dangerous.
type RuleFinding struct {
	Rule   string
	Reason string
}

// Disagreement is a logged PERMS approval the judge would not have
// given.
type Disagreement struct {
	Entry  port.AuditEntry
	Reason string
}

// Report is the scanner's read-only output.
type Report struct {
	// Dangerous rules combine a high-risk verb with an unscoped wildcard.
	Dangerous []RuleFinding
	// Safe rules passed the heuristic.
	Safe []string
	// Disagreements are recent permission-tier approvals the judge
	// flagged; empty when rechecking is disabled or the log is empty.
	Disagreements []Disagreement
	// Notes records recheck failures (unreachable judge, unusable
	// verdicts) so a silent scanner cannot be mistaken for a clean one.
	Notes []string
}

// AuditScanner re-examines the external permission rules and recent
// permission-tier decisions. It is an on-demand tool, separate from the
// per-command pipeline, and mutates nothing.
type AuditScanner struct {
	rules    permission.Rules
	reader   port.AuditReader
	judge    port.Judge
	template prompt.Template
}

// NewAuditScanner builds the scanner. Reader and judge are optional:
// without a reader there is no log window to recheck, and without a
// judge rechecking is skipped.
func NewAuditScanner(rules permission.Rules, reader port.AuditReader, judge port.Judge, template prompt.Template) *AuditScanner {
	return &AuditScanner{rules: rules, reader: reader, judge: judge, template: template}
}

// Scan classifies every rule and, when recheckWindow > 0, re-submits
// that many recent PERMS-approved commands to the judge for a second
// opinion.
func (s *AuditScanner) Scan(ctx context.Context, recheckWindow int) Report {
	var report Report

	for _, rule := range s.rules.All() {
		if reason, dangerous := rule.Dangerous(); dangerous {
			report.Dangerous = append(report.Dangerous, RuleFinding{Rule: rule.Raw, Reason: reason})
		} else {
			report.Safe = append(report.Safe, rule.Raw)
		}
	}

	if recheckWindow > 0 {
		s.recheck(ctx, recheckWindow, &report)
	}
	return report
}

// recheck asks the judge about recent permission-tier approvals and
// surfaces the ones it would have blocked.
func (s *AuditScanner) recheck(ctx context.Context, window int, report *Report) {
	if s.reader == nil || s.judge == nil {
		report.Notes = append(report.Notes, "recheck skipped: no audit reader or judge configured")
		return
	}
	entries, err := s.reader.ReadRecent(window)
	if err != nil {
		report.Notes = append(report.Notes, fmt.Sprintf("recheck skipped: %v", err))
		return
	}

	for _, e := range entries {
		if e.Method != entity.MethodPerms {
			continue
		}
		if ctx.Err() != nil {
			report.Notes = append(report.Notes, "recheck cancelled")
			return
		}
		rendered := s.template.Render(e.Command, "(from audit log)", "(no file context)", 0)
		judgment := s.judge.Evaluate(ctx, rendered)
		switch judgment.Kind {
		case entity.JudgmentVerdict:
			if !judgment.Safe {
				report.Disagreements = append(report.Disagreements, Disagreement{Entry: e, Reason: judgment.Reason})
			}
		default:
			report.Notes = append(report.Notes, fmt.Sprintf("recheck of %q inconclusive: %v", e.Command, judgment.Err))
		}
	}
}
