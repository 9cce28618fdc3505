//go:generate mockgen -destination=./mocks/orchestrator.go . Catalog,Store,DependencyChecker,Downloader,Verifier,Extractor,HookRunner

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/cperrin88/mrpkg/pkg/hook"
	"github.com/cperrin88/mrpkg/pkg/model"
)

// Catalog is the subset of the catalog cache used to locate packages.
type Catalog interface {
	FindExact(name, version string) (*model.Package, error)
}

// Store is the subset of the package database used by the orchestrator.
type Store interface {
	UpsertInstalled(ctx context.Context, rec *model.InstalledPackage) error
	GetInstalled(ctx context.Context, name string) (*model.InstalledPackage, error)
	DeleteInstalled(ctx context.Context, name string) error
}

// DependencyChecker returns the dependency names that are not satisfied.
type DependencyChecker interface {
	Check(ctx context.Context, names []string) ([]string, error)
}

// Downloader fetches a package archive to a local path.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Verifier hashes downloaded archives and records their checksums.
type Verifier interface {
	Digest(path string) (string, error)
	WriteSidecar(path, digest string) error
}

// Extractor writes an archive into a root and returns the manifest of written paths.
type Extractor interface {
	Install(ctx context.Context, archivePath, targetRoot string) ([]string, error)
}

// HookRunner executes lifecycle scripts.
type HookRunner interface {
	Run(ctx context.Context, hookType hook.HookType, hctx hook.Context) error
}

// Stage names a step of the install or remove pipeline.
type Stage string

// Install stages, in order, followed by the remove stages.
const (
	StageLocate       Stage = "locate"
	StageDependencies Stage = "dependencies"
	StageDownload     Stage = "download"
	StageVerify       Stage = "verify"
	StageExtract      Stage = "extract"
	StageRegister     Stage = "register"

	StageLookup     Stage = "lookup"
	StageDelete     Stage = "delete"
	StageUnregister Stage = "unregister"
)

// StageError reports the pipeline stage at which an operation stopped.
// errors.Is on a StageError reaches the underlying failure class.
type StageError struct {
	Stage   Stage
	Package string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Package, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Event phases besides the stage names.
const (
	PhaseDone    = "done"
	PhaseWarning = "warning"
	PhaseError   = "error"
)

// Event represents a simple progress notification.
type Event struct {
	Phase   string // stage name|done|warning|error
	ID      string // operation ID, shared by every event of one Install or Remove call
	Package string
	Msg     string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// FileError is a manifest path that could not be deleted.
type FileError struct {
	Path string
	Err  error
}

// RemoveReport describes what a removal did on disk.
type RemoveReport struct {
	Package string
	Version string
	Removed []string
	Missing []string
	Failed  []FileError
}

// Orchestrator ties the catalog, the dependency checker, the transport, the verifier,
// the installer and the store together for installs and removals.
// Operations are sequential and not transactional: a failure leaves completed steps in place.
type Orchestrator struct {
	Catalog   Catalog
	Store     Store
	Deps      DependencyChecker
	DL        Downloader
	Verifier  Verifier
	Extractor Extractor
	// HookRunner is optional.
	HookRunner HookRunner
	Hooks      Hooks // Hooks for progress and event notifications

	// Root is the filesystem root packages are installed into.
	Root string
	// CacheDir receives downloaded archives.
	CacheDir string
	// Now defaults to time.Now.
	Now func() time.Time
}
