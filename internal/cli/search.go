package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mrpkg/pkg/model"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for packages",
		Long: `Search the cached catalogs of all repositories for packages whose name or
description contains the query, ignoring case. Run 'mrpkg update' first to
refresh the catalogs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0])
		},
	}

	return cmd
}

func runSearch(cmd *cobra.Command, query string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	results := a.cache.Search(query)
	if len(results) == 0 {
		_, _ = fmt.Fprintf(out, "No packages found matching '%s'\n", query)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Found %d packages:\n", len(results))
	printPackageTable(out, results)
	return nil
}

func printPackageTable(out io.Writer, pkgs []*model.Package) {
	_, _ = fmt.Fprintf(out, "%-20s %-10s %-10s %s\n", "NAME", "VERSION", "REPOSITORY", "DESCRIPTION")
	_, _ = fmt.Fprintln(out, strings.Repeat("-", TableWidth))
	for _, pkg := range pkgs {
		_, _ = fmt.Fprintf(out, "%-20s %-10s %-10s %s\n",
			pkg.Name, pkg.Version, pkg.Repository, truncate(pkg.Description, MaxDescriptionLength))
	}
}
