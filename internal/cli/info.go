package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/model"
)

// NewInfoCmd creates the info command.
func NewInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <package>",
		Short: "Show package information",
		Long:  "Show the catalog entry of a package and whether it is installed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, args[0])
		},
	}

	return cmd
}

func runInfo(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	pkg, err := a.cache.FindExact(name, model.LatestVersion)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Package: %s\n", pkg.Name)
	_, _ = fmt.Fprintf(out, "Version: %s\n", pkg.Version)
	_, _ = fmt.Fprintf(out, "Repository: %s\n", pkg.Repository)
	_, _ = fmt.Fprintf(out, "Description: %s\n", pkg.Description)
	_, _ = fmt.Fprintf(out, "Size: %d bytes\n", pkg.Size)
	_, _ = fmt.Fprintf(out, "Dependencies: %s\n", strings.Join(pkg.Dependencies, ", "))

	rec, err := a.store.GetInstalled(ctx, name)
	switch {
	case err == nil:
		_, _ = fmt.Fprintf(out, "Installed: %s (%s)\n", rec.Version, rec.InstalledAt.Format(time.RFC3339))
	case errors.Is(err, errors.ErrNotFound):
		_, _ = fmt.Fprintln(out, "Installed: no")
	default:
		return err
	}
	return nil
}
