package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"command-gatekeeper/internal/infrastructure/config"
)

var auditRecheck int

// maxRecheckEntries bounds the --recheck window. The scan reads a log
// tail and pays one pipeline timeout per entry, so an unbounded count
// would both stall the scan and overflow the deadline arithmetic.
const maxRecheckEntries = 500

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Scan permission rules and recent decisions for risk",
	Long: `Classifies every rule in the permission file as safe or dangerous
and, with --recheck, re-submits recent permission-tier approvals from
the decision log to the judge for a second opinion.

The scan is read-only: it never edits the rules file or the log.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().IntVar(&auditRecheck, "recheck", 0, "Recheck this many recent log entries with the judge")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig(cmd)

	container, err := config.NewContainer(cfg)
	if err != nil {
		return err
	}

	recheck := clampRecheck(auditRecheck)

	ctx := cmd.Context()
	if recheck > 0 {
		var cancel context.CancelFunc
		// One pipeline timeout per rechecked entry keeps a slow judge
		// from stalling the whole scan indefinitely.
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout*time.Duration(recheck))
		defer cancel()
	}

	report := container.Scanner().Scan(ctx, recheck)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Permission rules: %d dangerous, %d safe\n", len(report.Dangerous), len(report.Safe))
	for _, f := range report.Dangerous {
		fmt.Fprintf(out, "  [DANGEROUS] %s: %s\n", f.Rule, f.Reason)
	}
	for _, rule := range report.Safe {
		fmt.Fprintf(out, "  [ok]        %s\n", rule)
	}

	if len(report.Disagreements) > 0 {
		fmt.Fprintf(out, "\nJudge disagreed with %d logged approvals:\n", len(report.Disagreements))
		for _, d := range report.Disagreements {
			fmt.Fprintf(out, "  %s %q: %s\n", d.Entry.Time.Format("2006-01-02 15:04:05"), d.Entry.Command, d.Reason)
		}
	}
	for _, note := range report.Notes {
		fmt.Fprintf(out, "note: %s\n", note)
	}
	return nil
}

// clampRecheck normalizes the --recheck count: negative counts mean no
// recheck, oversized counts are capped.
func clampRecheck(n int) int {
	if n < 0 {
		return 0
	}
	if n > maxRecheckEntries {
		return maxRecheckEntries
	}
	return n
}
