package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"command-gatekeeper/internal/domain/entity"
	"command-gatekeeper/internal/domain/port"
)

// DefaultCLIBinary is the subprocess invoked when no API key is
// available. The prompt is passed via stdin to keep it out of the
// process table.
const DefaultCLIBinary = "claude"

// CLIJudge implements port.Judge by shelling out to a local CLI that
// prints the model response on stdout.
type CLIJudge struct {
	binary string
	args   []string
}

// NewCLIJudge creates the subprocess fallback strategy. With an empty
// binary, DefaultCLIBinary is used with its non-interactive print flag.
func NewCLIJudge(binary string, args ...string) *CLIJudge {
	if binary == "" {
		binary = DefaultCLIBinary
		args = []string{"-p", "--append-system-prompt", systemPrompt}
	}
	return &CLIJudge{binary: binary, args: args}
}

var _ port.Judge = (*CLIJudge)(nil)

// Method identifies this strategy in decision provenance.
func (j *CLIJudge) Method() entity.Method {
	return entity.MethodCLI
}

// Evaluate runs the CLI under the caller's deadline and parses its
// stdout as a strict verdict.
func (j *CLIJudge) Evaluate(ctx context.Context, prompt string) entity.Judgment {
	cmd := exec.CommandContext(ctx, j.binary, j.args...)
	cmd.Stdin = bytes.NewBufferString(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return entity.NewTimeout(fmt.Errorf("CLI judgment timed out: %w", err))
		}
		return entity.NewParseFailure(fmt.Errorf("CLI judgment failed: %w (stderr: %.200s)", err, stderr.String()))
	}
	return ParseVerdict(stdout.String())
}
