package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"command-gatekeeper/internal/domain/entity"
	"command-gatekeeper/internal/infrastructure/config"
)

// HookInput is the tool-use payload read from stdin. It matches the
// PreToolUse event shape agent frameworks emit before running a tool.
type HookInput struct {
	SessionID string    `json:"session_id"`
	ToolName  string    `json:"tool_name"`
	Cwd       string    `json:"cwd"`
	ToolInput ToolInput `json:"tool_input"`
}

// ToolInput carries the shell command the agent wants to run.
type ToolInput struct {
	Command string `json:"command"`
}

// HookOutput wraps the decision in the envelope hook consumers expect.
type HookOutput struct {
	HookSpecificOutput HookDecision `json:"hookSpecificOutput"`
}

// HookDecision is the permission decision for one tool use.
type HookDecision struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason"`
}

// DecisionPayload is the plain decision shape printed with --plain,
// for callers that are not hook frameworks.
type DecisionPayload struct {
	Decision string `json:"decision"`
	Method   string `json:"method"`
	Reason   string `json:"reason"`
	Elapsed  string `json:"elapsed"`
}

var evaluatePlain bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one tool-use payload from stdin",
	Long: `Reads a tool-use JSON payload on stdin, runs it through the
authorization tiers, and prints the decision as JSON on stdout.

Payloads that cannot be parsed, that are not Bash tool uses, or that
carry no command are passed through without output or a log entry, so
the caller's own confirmation flow takes over.`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluatePlain, "plain", false, "Print the bare decision instead of the hook envelope")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig(cmd)

	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	input, ok := parseHookInput(raw)
	if !ok {
		// Not our payload. Stay silent so the caller falls back to its
		// own confirmation flow.
		return nil
	}

	container, err := config.NewContainer(cfg)
	if err != nil {
		return err
	}

	command, err := entity.NewCommand(input.ToolInput.Command, input.Cwd, input.SessionID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	decision := container.Pipeline().Evaluate(ctx, command)
	return writeDecision(cmd.OutOrStdout(), decision)
}

// parseHookInput accepts only well-formed Bash tool uses with a
// non-empty command. Everything else is a pass-through, never a Deny.
func parseHookInput(raw []byte) (HookInput, bool) {
	var input HookInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return HookInput{}, false
	}
	if input.ToolName != "Bash" || input.ToolInput.Command == "" {
		return HookInput{}, false
	}
	return input, true
}

func writeDecision(w io.Writer, d entity.Decision) error {
	enc := json.NewEncoder(w)
	if evaluatePlain {
		return enc.Encode(DecisionPayload{
			Decision: string(d.Outcome),
			Method:   string(d.Method),
			Reason:   d.Reason,
			Elapsed:  d.Elapsed.String(),
		})
	}
	return enc.Encode(HookOutput{
		HookSpecificOutput: HookDecision{
			HookEventName:            "PreToolUse",
			PermissionDecision:       hookBehavior(d.Outcome),
			PermissionDecisionReason: d.Reason,
		},
	})
}

func hookBehavior(o entity.Outcome) string {
	switch o {
	case entity.OutcomeAllow:
		return "allow"
	case entity.OutcomeDeny:
		return "deny"
	default:
		return "ask"
	}
}
