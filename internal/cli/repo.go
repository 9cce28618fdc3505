package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mrpkg/internal/logger"
	"github.com/cperrin88/mrpkg/pkg/config"
	"github.com/cperrin88/mrpkg/pkg/model"
)

// Number of arguments expected by the add command.
const addCommandArgs = 2

// DefaultRepoPriority is the priority of repositories added without --priority.
const DefaultRepoPriority = 50

// NewRepoCmd creates the repo command with subcommands.
func NewRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage repositories",
		Long:  "List, add, enable and disable the repositories registered in the package database",
	}

	cmd.AddCommand(
		newRepoListCmd(),
		newRepoAddCmd(),
		newRepoEnableCmd(true),
		newRepoEnableCmd(false),
	)

	return cmd
}

func newRepoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List repositories",
		Args:  cobra.NoArgs,
		RunE:  runRepoList,
	}
}

func newRepoAddCmd() *cobra.Command {
	var (
		priority int
		disabled bool
	)

	cmd := &cobra.Command{
		Use:   "add NAME URL",
		Short: "Add or replace a repository",
		Args:  cobra.ExactArgs(addCommandArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepoAdd(cmd, model.Repository{
				Name:     args[0],
				URL:      args[1],
				Enabled:  !disabled,
				Priority: priority,
			})
		},
	}

	cmd.Flags().IntVar(&priority, "priority", DefaultRepoPriority, "Repository priority")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Add the repository disabled")

	return cmd
}

func newRepoEnableCmd(enabled bool) *cobra.Command {
	use, short := "enable NAME", "Enable a repository"
	if !enabled {
		use, short = "disable NAME", "Disable a repository"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepoEnable(cmd, args[0], enabled)
		},
	}
}

func runRepoList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	repos, err := a.store.ListAllRepositories(ctx)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No repositories configured")
		return nil
	}

	tabWriter := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "NAME\tURL\tPRIORITY\tSTATUS")
	for _, repo := range repos {
		status := "enabled"
		if !repo.Enabled {
			status = "disabled"
		}
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%d\t%s\n", repo.Name, repo.URL, repo.Priority, status)
	}
	return tabWriter.Flush()
}

func runRepoAdd(cmd *cobra.Command, repo model.Repository) error {
	if err := config.ValidateRepository(repo); err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.SaveRepository(ctx, repo); err != nil {
		return err
	}

	logger.Success("Repository saved", logger.Fields{"name": repo.Name, "url": repo.URL})
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Repository %s added\n", repo.Name)
	return nil
}

func runRepoEnable(cmd *cobra.Command, name string, enabled bool) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.SetRepositoryEnabled(ctx, name, enabled); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Repository %s %s\n", name, state)
	return nil
}
