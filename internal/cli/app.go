package cli

import (
	"context"
	"fmt"

	"github.com/cperrin88/mrpkg/internal/logger"
	"github.com/cperrin88/mrpkg/pkg/archive"
	"github.com/cperrin88/mrpkg/pkg/catalog"
	"github.com/cperrin88/mrpkg/pkg/config"
	"github.com/cperrin88/mrpkg/pkg/deps"
	"github.com/cperrin88/mrpkg/pkg/download"
	"github.com/cperrin88/mrpkg/pkg/hook"
	"github.com/cperrin88/mrpkg/pkg/integrity"
	"github.com/cperrin88/mrpkg/pkg/orchestrator"
	"github.com/cperrin88/mrpkg/pkg/store"
)

// app holds the components one invocation works with. The store is closed by Close.
type app struct {
	cfg   *config.Config
	store *store.Store
	cache *catalog.Cache
}

// openApp loads the configuration, opens the package database, registers the configured
// repositories and loads the catalog snapshots.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger.Debug("Opening package database", logger.Fields{"path": cfg.DatabasePath()})
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	for _, repo := range cfg.Repositories {
		if err := st.UpsertRepository(ctx, repo); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to register repository %s: %w", repo.Name, err)
		}
	}

	cache := catalog.New(cfg.CacheDir())
	if err := cache.Load(); err != nil {
		_ = st.Close()
		return nil, err
	}

	return &app{cfg: cfg, store: st, cache: cache}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("Failed to close package database", logger.Fields{"error": err})
	}
}

func (a *app) downloadClient() *download.Client {
	return download.NewClient(download.Options{
		CatalogTimeout: a.cfg.Settings.CatalogTimeout,
		PackageTimeout: a.cfg.Settings.PackageTimeout,
		Retries:        a.cfg.Settings.HTTPRetries,
		UserAgent:      a.cfg.Settings.UserAgent,
	})
}

// orchestrator wires the install pipeline against the real components.
func (a *app) orchestrator(hooks orchestrator.Hooks) (*orchestrator.Orchestrator, error) {
	hookManager := hook.NewManager()
	if err := hookManager.LoadDir(a.cfg.HooksDir()); err != nil {
		return nil, err
	}

	return &orchestrator.Orchestrator{
		Catalog:    a.cache,
		Store:      a.store,
		Deps:       deps.NewPresenceChecker(a.store),
		DL:         a.downloadClient(),
		Verifier:   integrity.NewVerifier(),
		Extractor:  archive.NewInstaller(a.cfg.Settings.RejectPathTraversal),
		HookRunner: hookManager,
		Hooks:      hooks,
		Root:       a.cfg.Root,
		CacheDir:   a.cfg.CacheDir(),
	}, nil
}

// progressHooks logs pipeline events: stages at debug level, warnings and errors as such.
func progressHooks() orchestrator.Hooks {
	return orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		fields := logger.Fields{"package": e.Package, "operation": e.ID}
		switch e.Phase {
		case orchestrator.PhaseWarning:
			logger.Warn(e.Msg, fields)
		case orchestrator.PhaseError, orchestrator.PhaseDone:
			logger.Debug(e.Msg, fields)
		default:
			logger.DebugfWithFields(fields, "%s: %s", e.Phase, e.Msg)
		}
	}}
}
