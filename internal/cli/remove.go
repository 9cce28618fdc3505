package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <package>",
		Aliases: []string{"uninstall"},
		Short:   "Remove an installed package",
		Long: `Remove an installed package by deleting every file it installed and then
its database record. Files that are already gone or cannot be deleted are
reported as warnings; the record is removed either way.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args[0])
		},
	}

	return cmd
}

func runRemove(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	orch, err := a.orchestrator(progressHooks())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Removing %s...\n", name)

	report, err := orch.Remove(ctx, name)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "%s %s removed (%d files deleted", report.Package, report.Version, len(report.Removed))
	if n := len(report.Missing); n > 0 {
		_, _ = fmt.Fprintf(out, ", %d already missing", n)
	}
	if n := len(report.Failed); n > 0 {
		_, _ = fmt.Fprintf(out, ", %d could not be deleted", n)
	}
	_, _ = fmt.Fprintln(out, ")")
	return nil
}
