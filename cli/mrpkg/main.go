package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mrpkg/internal/cli"
)

var (
	configPath string
	rootDir    string
	verbose    bool
	logFormat  string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mrpkg",
		Short: "MaxRegner package manager",
		Long: `mrpkg installs and removes packages on a MaxRegner system:
- Catalogs: update and search the package lists of the configured repositories
- Packages: install, remove, list and inspect packages
- Tooling: pack package archives and manage repositories`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: <root>/etc/mrpkg/mrpkg.yaml)")
	cmd.PersistentFlags().StringVar(&rootDir, "root", "", "filesystem root to manage (default: /)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	// Set up CLI package variables
	cli.ConfigPath = &configPath
	cli.RootDir = &rootDir
	cli.Verbose = &verbose
	cli.LogFormat = &logFormat

	cmd.AddCommand(
		cli.NewUpdateCmd(),
		cli.NewSearchCmd(),
		cli.NewInstallCmd(),
		cli.NewRemoveCmd(),
		cli.NewListCmd(),
		cli.NewInfoCmd(),
		cli.NewRepoCmd(),
		cli.NewPackCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
