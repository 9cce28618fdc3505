package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cperrin88/mrpkg/pkg/deps"
	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/fsutil"
	"github.com/cperrin88/mrpkg/pkg/hook"
	"github.com/cperrin88/mrpkg/pkg/integrity"
	"github.com/cperrin88/mrpkg/pkg/model"
)

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// operation scopes events to one Install or Remove call.
type operation struct {
	hooks Hooks
	id    string
	pkg   string
}

func (o *Orchestrator) begin(name string) *operation {
	return &operation{hooks: o.Hooks, id: uuid.NewString(), pkg: name}
}

func (op *operation) event(phase, msg string) {
	emit(op.hooks, Event{Phase: phase, ID: op.id, Package: op.pkg, Msg: msg})
}

func (op *operation) fail(stage Stage, err error) error {
	op.event(PhaseError, err.Error())
	return &StageError{Stage: stage, Package: op.pkg, Err: err}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// ArchivePath returns the cache location of a package's archive.
func (o *Orchestrator) ArchivePath(pkg *model.Package) string {
	return filepath.Join(o.CacheDir, filepath.Base(pkg.Filename))
}

// Install runs locate, dependencies, download, verify, extract and register for the named
// package. An empty version or model.LatestVersion selects the first catalog match.
// The archive is always downloaded and extracted again, even when the package is installed.
// A failure returns a *StageError and leaves earlier steps' effects in place.
func (o *Orchestrator) Install(ctx context.Context, name, version string) (*model.InstalledPackage, error) {
	op := o.begin(name)

	op.event(string(StageLocate), "locating "+name)
	pkg, err := o.Catalog.FindExact(name, version)
	if err != nil {
		return nil, op.fail(StageLocate, err)
	}
	op.pkg = pkg.ID()

	op.event(string(StageDependencies), fmt.Sprintf("checking %d dependencies", len(pkg.Dependencies)))
	if err := deps.Require(ctx, o.Deps, pkg.Dependencies); err != nil {
		return nil, op.fail(StageDependencies, err)
	}

	archivePath := o.ArchivePath(pkg)
	op.event(string(StageDownload), pkg.DownloadURL)
	if err := o.DL.Download(ctx, pkg.DownloadURL, archivePath); err != nil {
		return nil, op.fail(StageDownload, errors.Classify(errors.ErrNetworkFailure, err))
	}

	op.event(string(StageVerify), archivePath)
	digest, err := o.Verifier.Digest(archivePath)
	if err != nil {
		return nil, op.fail(StageVerify, errors.Classify(errors.ErrIntegrityFailure, err))
	}
	if !integrity.Equal(digest, pkg.Checksum) {
		return nil, op.fail(StageVerify, errors.NewChecksumMismatchError(archivePath, pkg.Checksum, digest))
	}
	if err := o.Verifier.WriteSidecar(archivePath, digest); err != nil {
		op.event(PhaseWarning, fmt.Sprintf("could not write checksum file: %v", err))
	}

	op.event(string(StageExtract), o.Root)
	files, err := o.Extractor.Install(ctx, archivePath, o.Root)
	if err != nil {
		return nil, op.fail(StageExtract, errors.Classify(errors.ErrExtractionFailure, err))
	}

	op.event(string(StageRegister), fmt.Sprintf("recording %d files", len(files)))
	rec := model.NewInstalledPackage(pkg, files, o.now())
	if err := o.Store.UpsertInstalled(ctx, rec); err != nil {
		return nil, op.fail(StageRegister, errors.Classify(errors.ErrStorageUnavailable, err))
	}

	o.runHook(ctx, op, hook.PostInstall, hook.Context{
		PackageName:    pkg.Name,
		PackageVersion: pkg.Version,
		ArchivePath:    archivePath,
		Root:           o.Root,
		Files:          files,
	})
	op.event(PhaseDone, "installed "+pkg.ID())
	return rec, nil
}

// Remove deletes every manifest path of the named package and then its record.
// Paths that are already gone or cannot be deleted are reported, not fatal; the record is
// deleted regardless. Without a record nothing on disk is touched and the error wraps
// errors.ErrNotInstalled.
func (o *Orchestrator) Remove(ctx context.Context, name string) (*RemoveReport, error) {
	op := o.begin(name)

	op.event(string(StageLookup), "looking up "+name)
	rec, err := o.Store.GetInstalled(ctx, name)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) && !errors.Is(err, errors.ErrNotInstalled) {
			err = fmt.Errorf("%s: %w", name, errors.ErrNotInstalled)
		}
		return nil, op.fail(StageLookup, err)
	}

	hctx := hook.Context{
		PackageName:    rec.Name,
		PackageVersion: rec.Version,
		Root:           o.Root,
		Files:          rec.Files,
	}
	o.runHook(ctx, op, hook.PreRemove, hctx)

	op.event(string(StageDelete), fmt.Sprintf("deleting %d files", len(rec.Files)))
	report := &RemoveReport{Package: rec.Name, Version: rec.Version}
	for _, path := range rec.Files {
		target := fsutil.UnderRoot(o.Root, path)
		err := os.Remove(target)
		switch {
		case err == nil:
			report.Removed = append(report.Removed, path)
		case os.IsNotExist(err):
			report.Missing = append(report.Missing, path)
			op.event(PhaseWarning, "already missing: "+target)
		default:
			report.Failed = append(report.Failed, FileError{Path: path, Err: err})
			op.event(PhaseWarning, fmt.Sprintf("could not delete %s: %v", target, err))
		}
	}

	op.event(string(StageUnregister), "removing record")
	if err := o.Store.DeleteInstalled(ctx, name); err != nil {
		return report, op.fail(StageUnregister, err)
	}

	o.runHook(ctx, op, hook.PostRemove, hctx)
	op.event(PhaseDone, "removed "+name)
	return report, nil
}

// runHook reports script failures as warnings; they never change the outcome.
func (o *Orchestrator) runHook(ctx context.Context, op *operation, hookType hook.HookType, hctx hook.Context) {
	if o.HookRunner == nil {
		return
	}
	if err := o.HookRunner.Run(ctx, hookType, hctx); err != nil {
		op.event(PhaseWarning, fmt.Sprintf("%s hook failed: %v", hookType, err))
	}
}
