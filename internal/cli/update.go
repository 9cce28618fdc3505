package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mrpkg/internal/logger"
	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/repository"
)

// NewUpdateCmd creates the update command.
func NewUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update package catalogs",
		Long: `Download the latest package catalog of every enabled repository.

A repository that cannot be reached or serves an invalid catalog keeps its
previous catalog; the remaining repositories are still updated.`,
		Args: cobra.NoArgs,
		RunE: runUpdate,
	}

	return cmd
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	repos, err := a.store.ListRepositories(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "Updating package repositories...")

	syncer := repository.NewSynchronizer(a.downloadClient(), a.cache)
	syncer.OnResult = func(res repository.Result) { printSyncResult(out, res) }
	summary := syncer.SyncAll(ctx, repos)

	_, _ = fmt.Fprintf(out, "Updated %d of %d repositories\n", summary.Succeeded, summary.Attempted)
	if summary.Attempted > 0 && summary.Succeeded == 0 {
		return errors.Wrap(summary.Results[0].Err, "no repository could be updated")
	}
	return nil
}

func printSyncResult(out io.Writer, res repository.Result) {
	if res.Err != nil {
		logger.Warn("Repository update failed", logger.Fields{"repository": res.Repository, "error": res.Err})
		_, _ = fmt.Fprintf(out, "  %s: failed: %v\n", res.Repository, res.Err)
		return
	}
	_, _ = fmt.Fprintf(out, "  %s: %d packages\n", res.Repository, res.Packages)
}
