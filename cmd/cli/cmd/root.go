package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"command-gatekeeper/internal/infrastructure/config"
)

// global config shared between commands.
var cfg *config.Config

type configKey struct{}

func contextWithConfig(ctx context.Context, c *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, c)
}

func configFromContext(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return nil
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "command-gatekeeper",
	Short: "Authorization gate for agent shell commands",
	Long: `Command Gatekeeper decides whether a shell command an automated
agent wants to run should be allowed, denied, or referred back to the
user, before the command executes.

Commands pass through tiers: deny patterns, the session's permission
rules, a local safe-command matcher, and finally an LLM evaluation for
anything the fast tiers cannot vouch for. Every decision is appended to
an audit log with secrets redacted.

Without a subcommand it behaves like "evaluate": it reads a tool-use
payload as JSON on stdin and prints the decision as JSON on stdout.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; absence is the normal case in CI.
		_ = godotenv.Load()

		cfg = config.LoadConfig()
		cmd.SetContext(contextWithConfig(cmd.Context(), cfg))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluate(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.SetContext(ctx)

	return rootCmd.Execute()
}

// GetConfig retrieves the configuration from the command context.
func GetConfig(cmd *cobra.Command) *config.Config {
	// First try context, fall back to package variable
	if c := configFromContext(cmd.Context()); c != nil {
		return c
	}
	return cfg
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Trace tier-by-tier evaluation on stderr")
	pf.String("strategy", config.StrategyAuto, "LLM strategy: auto, api, or cli")
	pf.String("model", "", "Model identifier for the API judge")
	pf.String("cli-binary", "", "Binary for the CLI judge fallback")
	pf.String("template", "", "Path to a custom judgment prompt template")
	pf.String("permissions", "", "Path to the permission rules file")
	pf.String("log", "", "Path to the append-only decision log")
	pf.String("root", "", "Directory that confines file-context reads")
	pf.Duration("timeout", 0, "Deadline for one whole evaluation")
	pf.Int64("max-file-bytes", 0, "Per-file size cap for context reads")
	pf.Int("max-context-bytes", 0, "Size cap for file context in the prompt")
	pf.String("deny-patterns", "", "Extra deny patterns as a JSON array")
	pf.String("safe-patterns", "", "Extra safe rules as a JSON array")

	binds := map[string]string{
		"verbose":         "verbose",
		"strategy":        "strategy",
		"model":           "model",
		"cliBinary":       "cli-binary",
		"template":        "template",
		"permissions":     "permissions",
		"log":             "log",
		"root":            "root",
		"timeout":         "timeout",
		"maxFileBytes":    "max-file-bytes",
		"maxContextBytes": "max-context-bytes",
		"denyPatterns":    "deny-patterns",
		"safePatterns":    "safe-patterns",
	}
	for key, flag := range binds {
		if err := viper.BindPFlag(key, pf.Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind %s flag: %v\n", flag, err)
		}
	}
}
