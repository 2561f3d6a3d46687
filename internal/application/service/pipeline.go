// Package service contains the application-level orchestration: the
// tiered authorization pipeline and the permission audit scanner.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"command-gatekeeper/internal/domain/entity"
	"command-gatekeeper/internal/domain/permission"
	"command-gatekeeper/internal/domain/port"
	"command-gatekeeper/internal/domain/prompt"
	"command-gatekeeper/internal/domain/safety"
)

// Sentinel errors for pipeline construction.
var (
	// ErrNilTables is returned when no pattern tables are supplied.
	ErrNilTables = errors.New("pattern tables cannot be nil")
	// ErrNilLogger is returned when no decision logger is supplied.
	ErrNilLogger = errors.New("decision logger cannot be nil")
)

// PipelineParams carries the pipeline's collaborators. Tables and
// Logger are mandatory; Judge and Loader degrade gracefully when absent
// (tier 3 resolves to Ask).
type PipelineParams struct {
	Tables          *safety.Tables
	Permissions     permission.Rules
	Template        prompt.Template
	Loader          port.ContextLoader
	Judge           port.Judge
	Logger          port.DecisionLogger
	MaxContextBytes int
	// Trace, when non-nil, receives verbose per-tier notes.
	Trace func(format string, args ...any)
	// ErrOut receives audit-log write failures. Defaults to os.Stderr,
	// so a lost audit line is always reported even without tracing.
	ErrOut io.Writer
}

// Pipeline evaluates one command through the tiers
// deny patterns, permission rules, operator gate, local matcher, LLM.
// The first tier with an opinion is terminal; the operator check never
// has an opinion, it only gates the local matcher. All state is
// read-only after construction, so a Pipeline is safe for reuse.
type Pipeline struct {
	tables          *safety.Tables
	perms           permission.Rules
	template        prompt.Template
	loader          port.ContextLoader
	judge           port.Judge
	logger          port.DecisionLogger
	maxContextBytes int
	trace           func(format string, args ...any)
	errOut          io.Writer
}

// NewPipeline validates the mandatory collaborators and builds the
// pipeline.
func NewPipeline(params PipelineParams) (*Pipeline, error) {
	if params.Tables == nil {
		return nil, ErrNilTables
	}
	if params.Logger == nil {
		return nil, ErrNilLogger
	}
	errOut := params.ErrOut
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Pipeline{
		tables:          params.Tables,
		perms:           params.Permissions,
		template:        params.Template,
		loader:          params.Loader,
		judge:           params.Judge,
		logger:          params.Logger,
		maxContextBytes: params.MaxContextBytes,
		trace:           params.Trace,
		errOut:          errOut,
	}, nil
}

// Evaluate runs the full pipeline for one command. Exactly one Decision
// is produced, and it is logged before it is returned, so the decision
// is recoverable even if the caller crashes downstream.
func (p *Pipeline) Evaluate(ctx context.Context, cmd entity.Command) entity.Decision {
	start := time.Now()
	decision := p.run(ctx, cmd)
	decision.Elapsed = time.Since(start)

	if err := p.logger.Log(cmd, decision); err != nil {
		// The decision stands; losing an audit line must not turn into
		// a second evaluation or a changed outcome. It is reported
		// regardless of the trace hook so the loss is never silent.
		fmt.Fprintf(p.errOut, "audit log write failed: %v\n", err)
	}
	return decision
}

func (p *Pipeline) run(ctx context.Context, cmd entity.Command) entity.Decision {
	// Tier 0: deny patterns. An absolute veto: permission rules and
	// safe rules never see a command the deny table matched.
	if category, ok := p.tables.MatchDeny(cmd.Text); ok {
		p.tracef("tier 0: deny pattern matched (%s)", category)
		return decide(entity.OutcomeDeny, entity.MethodDenyPattern, category)
	}

	// Tier 1: caller-approved permission rules. A trust passthrough,
	// not a safety check; the audit scanner exists because of it.
	if rule, ok := p.perms.Match(cmd.Text); ok {
		p.tracef("tier 1: permission rule matched (%s)", rule)
		return decide(entity.OutcomeAllow, entity.MethodPerms, "approved by permission rule "+rule)
	}

	// Tier 2, gated: the local safe matcher only runs when the whole
	// command string carries no shell operator, because a safe prefix
	// chained with an unsafe suffix must not be approved locally.
	scan := safety.ScanOperators(cmd.Text)
	if scan.Found {
		p.tracef("tier 2 bypassed: shell operators present %v", scan.Operators)
	} else if desc, ok := p.tables.MatchSafe(cmd.Text); ok {
		p.tracef("tier 2: safe rule matched (%s)", desc)
		return decide(entity.OutcomeAllow, entity.MethodLocal, desc)
	}

	// Tier 3: LLM judgment.
	return p.judgeTier(ctx, cmd)
}

// judgeTier builds the prompt (with sanitized file context) and maps
// the tagged judgment onto a decision. Every failure path resolves to
// Ask; nothing in this tier can fail open.
func (p *Pipeline) judgeTier(ctx context.Context, cmd entity.Command) entity.Decision {
	if p.judge == nil {
		return decide(entity.OutcomeAsk, entity.MethodAskUser, "no judgment strategy configured")
	}

	fileContext := p.loadFileContext(ctx, cmd)
	rendered := p.template.Render(cmd.Text, cmd.Cwd, fileContext, p.maxContextBytes)

	judgment := p.judge.Evaluate(ctx, rendered)
	switch judgment.Kind {
	case entity.JudgmentVerdict:
		if judgment.Safe {
			return decide(entity.OutcomeAllow, p.judge.Method(), judgment.Reason)
		}
		return decide(entity.OutcomeDeny, p.judge.Method(), judgment.Reason)
	case entity.JudgmentTimeout:
		p.tracef("tier 3: %v", judgment.Err)
		return decide(entity.OutcomeAsk, entity.MethodAskTimeout,
			fmt.Sprintf("judgment timed out: %v", judgment.Err))
	default:
		p.tracef("tier 3: %v", judgment.Err)
		return decide(entity.OutcomeAsk, entity.MethodAskUser,
			fmt.Sprintf("judgment unusable: %v", judgment.Err))
	}
}

// loadFileContext gathers sanitized referenced-file content for the
// prompt. Loader failures reduce to notes inside the context; they
// never abort the evaluation.
func (p *Pipeline) loadFileContext(ctx context.Context, cmd entity.Command) string {
	if p.loader == nil {
		return "(no file context)"
	}
	refs, notes := p.loader.Load(ctx, cmd.Text, cmd.Cwd)
	if len(refs) == 0 && len(notes) == 0 {
		return "(no file context)"
	}

	var b strings.Builder
	for _, ref := range refs {
		fmt.Fprintf(&b, "--- %s", ref.Path)
		if ref.Sanitized {
			b.WriteString(" (boundary markers neutralized)")
		}
		b.WriteString("\n")
		b.WriteString(ref.Content)
		b.WriteString("\n")
	}
	for _, note := range notes {
		fmt.Fprintf(&b, "note: %s\n", note)
	}
	return b.String()
}

func (p *Pipeline) tracef(format string, args ...any) {
	if p.trace != nil {
		p.trace(format, args...)
	}
}

// decide builds a decision, demoting the (unreachable) invalid case to
// Ask rather than panicking mid-evaluation.
func decide(outcome entity.Outcome, method entity.Method, reason string) entity.Decision {
	d, err := entity.NewDecision(outcome, method, reason)
	if err != nil {
		return entity.Decision{
			Outcome: entity.OutcomeAsk,
			Method:  entity.MethodAskUser,
			Reason:  "internal decision error: " + err.Error(),
		}
	}
	return d
}
