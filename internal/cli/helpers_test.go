package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/mrpkg/internal/logger"
	"github.com/cperrin88/mrpkg/pkg/catalog"
	"github.com/cperrin88/mrpkg/pkg/config"
	"github.com/cperrin88/mrpkg/pkg/model"
	"github.com/cperrin88/mrpkg/pkg/store"
)

const testConfig = `repositories:
  - name: main
    url: https://repo.example.com/main
    enabled: true
    priority: 100
  - name: updates
    url: https://repo.example.com/updates
    enabled: true
    priority: 90
  - name: testing
    url: https://repo.example.com/testing
    enabled: false
    priority: 10
`

var installedAt = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// testEnv points the CLI at a fresh root with the given configuration file content.
func testEnv(t *testing.T, configContent string) *config.Config {
	t.Helper()
	t.Setenv("MRPKG_ROOT", "")
	t.Setenv("MRPKG_CONFIG", "")
	t.Setenv("MRPKG_LOG_LEVEL", "")

	logger.SetTestOutput(io.Discard)
	t.Cleanup(logger.UnsetTestOutput)

	root := t.TempDir()
	cfgPath := config.ConfigPath(root)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0o644))

	verbose := false
	format := ""
	configFlag := ""
	RootDir = &root
	ConfigPath = &configFlag
	Verbose = &verbose
	LogFormat = &format
	t.Cleanup(func() {
		RootDir, ConfigPath, Verbose, LogFormat = nil, nil, nil, nil
	})

	cfg, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)
	cfg.Root = root
	return cfg
}

func catalogPkg(name, version, description string, deps ...string) *model.Package {
	return &model.Package{
		Name:         name,
		Version:      version,
		Description:  description,
		Dependencies: deps,
		Size:         1024,
		Checksum:     strings.Repeat("ab", 32),
		DownloadURL:  "https://repo.example.com/main/" + name + "-" + version + ".tar.xz",
		Filename:     name + "-" + version + ".tar.xz",
	}
}

// seedCatalogs writes the snapshot files the CLI loads on start.
func seedCatalogs(t *testing.T, cfg *config.Config) {
	t.Helper()
	cache := catalog.New(cfg.CacheDir())
	require.NoError(t, cache.Replace("main", []*model.Package{
		catalogPkg("editor", "1.0", "text editor", "libc"),
		catalogPkg("browser", "2.0", "web browser"),
	}))
	require.NoError(t, cache.Replace("updates", []*model.Package{
		catalogPkg("editor", "1.1", "text editor", "libc"),
	}))
}

func seedInstalled(t *testing.T, cfg *config.Config, pkgs ...*model.Package) {
	t.Helper()
	st, err := store.Open(cfg.DatabasePath())
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	for _, pkg := range pkgs {
		require.NoError(t, st.UpsertInstalled(context.Background(), model.NewInstalledPackage(pkg, nil, installedAt)))
	}
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
