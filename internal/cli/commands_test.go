package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/mrpkg/pkg/catalog"
	"github.com/cperrin88/mrpkg/pkg/config"
	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/integrity"
	"github.com/cperrin88/mrpkg/pkg/model"
	"github.com/cperrin88/mrpkg/pkg/store"
	"github.com/cperrin88/mrpkg/test/testutil"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestSearch(t *testing.T) {
	cfg := testEnv(t, testConfig)
	seedCatalogs(t, cfg)

	out, err := execute(t, NewSearchCmd(), "edit")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "search_edit", []byte(out))
}

func TestSearch_NoMatch(t *testing.T) {
	cfg := testEnv(t, testConfig)
	seedCatalogs(t, cfg)

	out, err := execute(t, NewSearchCmd(), "compiler")
	require.NoError(t, err)
	assert.Equal(t, "No packages found matching 'compiler'\n", out)
}

func TestList(t *testing.T) {
	cfg := testEnv(t, testConfig)
	seedInstalled(t, cfg,
		catalogPkg("editor", "1.0", "a text editor with an unusually long description"),
		catalogPkg("browser", "2.0", "web browser"),
	)

	out, err := execute(t, NewListCmd())
	require.NoError(t, err)
	newGoldie(t).Assert(t, "list", []byte(out))
}

func TestList_Empty(t *testing.T) {
	testEnv(t, testConfig)

	out, err := execute(t, NewListCmd())
	require.NoError(t, err)
	assert.Equal(t, "No packages installed\n", out)
}

func TestList_Outdated(t *testing.T) {
	cfg := testEnv(t, testConfig)
	seedCatalogs(t, cfg)
	seedInstalled(t, cfg,
		catalogPkg("editor", "1.0", "text editor"),
		catalogPkg("browser", "2.0", "web browser"),
	)

	out, err := execute(t, NewListCmd(), "--outdated")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "list_outdated", []byte(out))
}

func TestInfo(t *testing.T) {
	cfg := testEnv(t, testConfig)
	seedCatalogs(t, cfg)
	seedInstalled(t, cfg, catalogPkg("editor", "1.0", "text editor", "libc"))

	out, err := execute(t, NewInfoCmd(), "editor")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "info_editor", []byte(out))
}

func TestInfo_NotInstalled(t *testing.T) {
	cfg := testEnv(t, testConfig)
	seedCatalogs(t, cfg)

	out, err := execute(t, NewInfoCmd(), "browser")
	require.NoError(t, err)
	assert.Contains(t, out, "Installed: no\n")
}

func TestInfo_Unknown(t *testing.T) {
	cfg := testEnv(t, testConfig)
	seedCatalogs(t, cfg)

	_, err := execute(t, NewInfoCmd(), "ghost")
	assert.ErrorIs(t, err, errors.ErrPackageNotFound)
}

func TestRepoList(t *testing.T) {
	testEnv(t, testConfig)

	out, err := execute(t, NewRepoCmd(), "list")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "repo_list", []byte(out))
}

func TestRepoAddEnableDisable(t *testing.T) {
	cfg := testEnv(t, testConfig)

	_, err := execute(t, NewRepoCmd(), "add", "local", "https://mirror.example.com/local", "--priority", "70")
	require.NoError(t, err)
	out, err := execute(t, NewRepoCmd(), "disable", "main")
	require.NoError(t, err)
	assert.Equal(t, "Repository main disabled\n", out)

	st, err := store.Open(cfg.DatabasePath())
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	repos, err := st.ListRepositories(context.Background())
	require.NoError(t, err)
	var names []string
	for _, r := range repos {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"local", "updates"}, names)
	assert.Equal(t, 70, repos[0].Priority)
}

func TestRepoAdd_InvalidURL(t *testing.T) {
	testEnv(t, testConfig)

	_, err := execute(t, NewRepoCmd(), "add", "local", "not a url")
	assert.ErrorIs(t, err, errors.ErrConfigValidation)
}

func TestRepoEnable_Unknown(t *testing.T) {
	testEnv(t, testConfig)

	_, err := execute(t, NewRepoCmd(), "enable", "ghost")
	assert.ErrorIs(t, err, errors.ErrRepositoryNotFound)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, NewVersionCmd())
	require.NoError(t, err)
	newGoldie(t).Assert(t, "version", []byte(out))
}

func TestConfigShow(t *testing.T) {
	testEnv(t, testConfig)
	verbose := true
	Verbose = &verbose

	out, err := execute(t, NewConfigCmd(), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "log_level: debug")
	assert.Contains(t, out, "name: testing")
}

func TestConfigShow_InvalidLogFormatFlag(t *testing.T) {
	testEnv(t, testConfig)
	format := "xml"
	LogFormat = &format

	_, err := execute(t, NewConfigCmd(), "show")
	assert.ErrorIs(t, err, errors.ErrConfigValidation)
}

func TestConfigInit(t *testing.T) {
	cfg := testEnv(t, testConfig)

	_, err := execute(t, NewConfigCmd(), "init")
	require.Error(t, err, "an existing file is not overwritten without --force")

	_, err = execute(t, NewConfigCmd(), "init", "--force")
	require.NoError(t, err)

	written, err := config.LoadConfig(config.ConfigPath(cfg.Root))
	require.NoError(t, err)
	assert.Equal(t, cfg.Root, written.Root)
	assert.Equal(t, config.DefaultRepositories(), written.Repositories)
}

func TestConfigPath_Precedence(t *testing.T) {
	cfg := testEnv(t, testConfig)

	assert.Equal(t, config.ConfigPath(cfg.Root), getConfigPath(config.Env{}))
	assert.Equal(t, "/env/mrpkg.yaml", getConfigPath(config.Env{Config: "/env/mrpkg.yaml"}))

	flag := "/flag/mrpkg.yaml"
	ConfigPath = &flag
	assert.Equal(t, flag, getConfigPath(config.Env{Config: "/env/mrpkg.yaml"}))
}

func TestInstall_MissingDependency(t *testing.T) {
	cfg := testEnv(t, testConfig)
	require.NoError(t, catalog.New(cfg.CacheDir()).Replace("main", []*model.Package{
		catalogPkg("libfoo", "1.0", "foo library", "libbar"),
	}))

	_, err := execute(t, NewInstallCmd(), "libfoo")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDependencyMissing)
	assert.Contains(t, err.Error(), "libbar")
}

func TestRemove_NotInstalled(t *testing.T) {
	testEnv(t, testConfig)

	_, err := execute(t, NewRemoveCmd(), "ghost")
	assert.ErrorIs(t, err, errors.ErrNotInstalled)
}

// TestUpdateInstallRemove drives the commands against a repository served over HTTP.
func TestUpdateInstallRemove(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.AddPackage(t, "hello", "1.0", nil, map[string]string{"usr/bin/hello": "hello\n"})
	repo.WriteCatalog(t)

	cfg := testEnv(t, strings.Join([]string{
		"repositories:",
		"  - {name: main, url: '" + repo.URL + "', enabled: true, priority: 100}",
		"  - {name: broken, url: '" + repo.URL + "/missing', enabled: true, priority: 90}",
		"",
	}, "\n"))

	out, err := execute(t, NewUpdateCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "  main: 1 packages\n")
	assert.Contains(t, out, "  broken: failed:")
	assert.Contains(t, out, "Updated 1 of 2 repositories\n")

	out, err = execute(t, NewInstallCmd(), "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "hello 1.0 installed (1 files)\n")
	assert.FileExists(t, filepath.Join(cfg.Root, "usr", "bin", "hello"))

	out, err = execute(t, NewRemoveCmd(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Removing hello...\nhello 1.0 removed (1 files deleted)\n", out)
	assert.NoFileExists(t, filepath.Join(cfg.Root, "usr", "bin", "hello"))
}

func TestUpdate_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	testEnv(t, "repositories:\n  - {name: main, url: '"+srv.URL+"/main', enabled: true}\n")

	_, err := execute(t, NewUpdateCmd())
	assert.ErrorIs(t, err, errors.ErrNetworkFailure)
}

func TestPack(t *testing.T) {
	testEnv(t, testConfig)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "README"), []byte("docs\n"), 0o644))
	out := filepath.Join(t.TempDir(), "docs-1.0.tar.xz")

	stdout, err := execute(t, NewPackCmd(), src, out)
	require.NoError(t, err)

	digest, err := integrity.ReadSidecar(out)
	require.NoError(t, err)
	ok, err := integrity.Verify(out, digest)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, stdout, "SHA-256: "+digest+"\n")
}
