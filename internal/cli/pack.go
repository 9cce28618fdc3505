package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cperrin88/mrpkg/internal/logger"
	"github.com/cperrin88/mrpkg/pkg/archive"
	"github.com/cperrin88/mrpkg/pkg/integrity"
)

// Number of arguments expected by the pack command.
const packCommandArgs = 2

// NewPackCmd creates the pack command.
func NewPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <source-dir> <archive>",
		Short: "Create a package archive",
		Long: `Pack the contents of a directory into a tar.xz package archive and write its
SHA-256 checksum file next to it. Paths inside the archive are relative to the
source directory and are installed relative to the root.`,
		Args: cobra.ExactArgs(packCommandArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd, args[0], args[1])
		},
	}

	return cmd
}

func runPack(cmd *cobra.Command, sourceDir, archivePath string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	info, err := os.Stat(sourceDir)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", sourceDir)
	}

	logger.Debug("Creating archive", logger.Fields{"source": sourceDir, "archive": archivePath})
	if err := archive.Create(cmd.Context(), sourceDir, archivePath); err != nil {
		return err
	}

	digest, err := integrity.Digest(archivePath)
	if err != nil {
		return err
	}
	if err := integrity.WriteSidecar(archivePath, digest); err != nil {
		return err
	}

	stat, err := os.Stat(archivePath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Created %s\n", archivePath)
	_, _ = fmt.Fprintf(out, "Size: %d bytes\n", stat.Size())
	_, _ = fmt.Fprintf(out, "SHA-256: %s\n", digest)
	return nil
}
