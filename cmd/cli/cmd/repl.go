package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	goprompt "github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"command-gatekeeper/internal/application/service"
	"command-gatekeeper/internal/domain/entity"
	"command-gatekeeper/internal/domain/permission"
	"command-gatekeeper/internal/domain/safety"
)

// discardLogger satisfies the pipeline's logging requirement without
// polluting the decision log with interactive experiments.
type discardLogger struct{}

func (discardLogger) Log(entity.Command, entity.Decision) error { return nil }

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively test commands against the fast tiers",
	Long: `Starts an interactive prompt that evaluates each line through the
deny patterns, the permission rules, and the local safe matcher.

The LLM tier is disabled, so anything the fast tiers cannot vouch for
comes back as ASK. Nothing typed here is written to the decision log.`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig(cmd)

	extraDeny, err := safety.ParseDenyPatternsJSON(cfg.DenyPatternsJSON)
	if err != nil {
		return fmt.Errorf("custom deny patterns: %w", err)
	}
	extraSafe, err := safety.ParseSafeRulesJSON(cfg.SafePatternsJSON)
	if err != nil {
		return fmt.Errorf("custom safe patterns: %w", err)
	}
	tables := safety.NewTables(extraDeny, extraSafe)

	rules, err := permission.Load(cfg.PermissionsPath)
	if err != nil {
		return fmt.Errorf("permission rules %s: %w", cfg.PermissionsPath, err)
	}

	pipeline, err := service.NewPipeline(service.PipelineParams{
		Tables:      tables,
		Permissions: rules,
		Logger:      discardLogger{},
	})
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d safe rules and %d permission rules.\n", len(tables.SafeRuleDescriptions()), rules.Len())
	fmt.Println("Type a shell command to see its decision. \"exit\" quits.")

	executor := func(line string) {
		line = strings.TrimSpace(line)
		switch line {
		case "":
			return
		case "exit", "quit":
			os.Exit(0)
		}
		command, err := entity.NewCommand(line, cwd, "repl")
		if err != nil {
			fmt.Println(err)
			return
		}
		d := pipeline.Evaluate(context.Background(), command)
		fmt.Printf("%s via %s", d.Outcome, d.Method)
		if d.Reason != "" {
			fmt.Printf(": %s", d.Reason)
		}
		fmt.Println()
	}

	suggestions := []goprompt.Suggest{
		{Text: "git status", Description: "safe rule: read-only git"},
		{Text: "git log --oneline", Description: "safe rule: read-only git"},
		{Text: "ls -la", Description: "safe rule: system info"},
		{Text: "cat README.md", Description: "safe rule: file reading"},
		{Text: "grep -r TODO .", Description: "safe rule: searching"},
		{Text: "sudo rm -rf /", Description: "deny pattern demo"},
		{Text: "exit", Description: "quit the tester"},
	}
	completer := func(doc goprompt.Document) []goprompt.Suggest {
		return goprompt.FilterHasPrefix(suggestions, doc.GetWordBeforeCursor(), true)
	}

	goprompt.New(
		executor,
		completer,
		goprompt.OptionTitle("command-gatekeeper repl"),
		goprompt.OptionPrefix("gatekeeper> "),
	).Run()
	return nil
}
