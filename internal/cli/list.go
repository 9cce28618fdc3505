package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var outdated bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Long: `List all installed packages from the local database, ordered by name.

Use --outdated to show only installed packages for which a cached catalog
offers a newer version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, outdated)
		},
	}

	cmd.Flags().BoolVar(&outdated, "outdated", false, "Show only packages with a newer catalog version")

	return cmd
}

func runList(cmd *cobra.Command, outdated bool) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if outdated {
		return listOutdated(cmd, a, out)
	}

	installed, err := a.store.ListInstalled(ctx)
	if err != nil {
		return err
	}
	if len(installed) == 0 {
		_, _ = fmt.Fprintln(out, "No packages installed")
		return nil
	}

	_, _ = fmt.Fprintln(out, "Installed packages:")
	_, _ = fmt.Fprintf(out, "%-20s %-10s %s\n", "NAME", "VERSION", "DESCRIPTION")
	_, _ = fmt.Fprintln(out, strings.Repeat("-", TableWidth))
	for _, pkg := range installed {
		_, _ = fmt.Fprintf(out, "%-20s %-10s %s\n", pkg.Name, pkg.Version, truncate(pkg.Description, MaxDescriptionLength))
	}
	return nil
}

func listOutdated(cmd *cobra.Command, a *app, out io.Writer) error {
	records, err := a.store.ListInstalledRecords(cmd.Context())
	if err != nil {
		return err
	}

	upgrades := a.cache.Outdated(records)
	if len(upgrades) == 0 {
		_, _ = fmt.Fprintln(out, "All installed packages are up to date")
		return nil
	}

	_, _ = fmt.Fprintf(out, "%-20s %-10s %-10s %s\n", "NAME", "INSTALLED", "AVAILABLE", "REPOSITORY")
	_, _ = fmt.Fprintln(out, strings.Repeat("-", TableWidth))
	for _, u := range upgrades {
		_, _ = fmt.Fprintf(out, "%-20s %-10s %-10s %s\n", u.Name, u.Installed, u.Available, u.Repository)
	}
	return nil
}
