package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mrpkg/internal/logger"
	"github.com/cperrin88/mrpkg/pkg/model"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <package>",
		Short: "Install a package",
		Long: `Install a package from the cached catalogs.

The first catalog entry with the given name is installed. Every dependency must
already be installed; dependencies are checked, not installed. Installing a
package that is already installed downloads and extracts it again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, args[0])
		},
	}

	return cmd
}

func runInstall(cmd *cobra.Command, name string) error {
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
	_, _ = fmt.Fprintf(out, "Installing %s...\n", name)

	rec, err := orch.Install(ctx, name, model.LatestVersion)
	if err != nil {
		return err
	}

	logger.Debug("Package registered", logger.Fields{"package": rec.Name, "files": len(rec.Files)})
	_, _ = fmt.Fprintf(out, "%s %s installed (%d files)\n", rec.Name, rec.Version, len(rec.Files))
	return nil
}
