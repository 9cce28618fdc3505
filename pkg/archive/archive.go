// Package archive installs tar.xz package archives into a root filesystem and builds them from directories.
package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/fsutil"
)

// Format is the container format of every package archive: tar compressed with xz.
var Format = archives.CompressedArchive{
	Compression: archives.Xz{},
	Archival:    archives.Tar{},
	Extraction:  archives.Tar{},
}

// Installer extracts package archives.
type Installer struct {
	// RejectTraversal turns entries that would land outside the target root into errors:
	// escaping entry names, link targets pointing outside the root and writes through
	// directory symlinks that resolve outside it. When false, entry paths are joined to
	// the root as they are.
	RejectTraversal bool
}

// NewInstaller creates a new Installer instance.
func NewInstaller(rejectTraversal bool) *Installer {
	return &Installer{RejectTraversal: rejectTraversal}
}

// Install writes every entry of the archive under targetRoot, overwriting existing files,
// and returns the root-relative paths of the files and symlinks written in archive order.
// Any failure is reported as ErrExtractionFailure; files written before the failure stay on disk.
func (in *Installer) Install(ctx context.Context, archivePath, targetRoot string) ([]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, errors.Classify(errors.ErrExtractionFailure, fmt.Errorf("failed to open archive file: %w", err))
	}
	defer func() { _ = f.Close() }()

	if err := fsutil.EnsureDir(targetRoot); err != nil {
		return nil, errors.Classify(errors.ErrExtractionFailure, fmt.Errorf("failed to create target root: %w", err))
	}

	var written []string
	handler := func(ctx context.Context, entry archives.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, ok, err := in.entryPath(entry.NameInArchive, targetRoot)
		if err != nil || !ok {
			return err
		}
		if err := in.extractEntry(entry, rel, targetRoot); err != nil {
			return err
		}
		if !entry.IsDir() {
			written = append(written, rel)
		}
		return nil
	}

	if err := Format.Extract(ctx, f, handler); err != nil {
		return written, errors.Classify(errors.ErrExtractionFailure, fmt.Errorf("extracting %s: %w", archivePath, err))
	}
	return written, nil
}

// entryPath normalizes an entry name to a root-relative path. ok is false for the archive root.
func (in *Installer) entryPath(name, targetRoot string) (string, bool, error) {
	rel := path.Clean(strings.TrimPrefix(filepath.ToSlash(name), "./"))
	if in.RejectTraversal && escapes(rel) {
		return "", false, fmt.Errorf("entry %q escapes %s", name, targetRoot)
	}
	rel = strings.TrimPrefix(rel, "/")
	if rel == "." || rel == "" {
		return "", false, nil
	}
	return rel, true, nil
}

// escapes reports whether a cleaned slash path leaves the directory it is relative to.
func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, "../") || path.IsAbs(rel)
}

func (in *Installer) extractEntry(entry archives.FileInfo, rel, targetRoot string) error {
	target := filepath.Join(targetRoot, filepath.FromSlash(rel))
	hdr, _ := entry.Header.(*tar.Header)
	hardLink := hdr != nil && hdr.Typeflag == tar.TypeLink

	if in.RejectTraversal {
		if err := in.checkEntry(entry, hdr, hardLink, rel, targetRoot); err != nil {
			return err
		}
	}

	if entry.IsDir() {
		return os.MkdirAll(target, fsutil.DirModeDefault)
	}
	if err := fsutil.EnsureFileDir(target); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", rel, err)
	}

	if hardLink {
		return writeHardLink(hdr.Linkname, target, targetRoot)
	}
	if entry.Mode()&fs.ModeSymlink != 0 {
		return writeSymlink(entry.LinkTarget, target)
	}
	return writeRegularFile(entry, target)
}

// checkEntry rejects link targets outside targetRoot and writes that would pass
// through a directory symlink resolving outside targetRoot.
func (in *Installer) checkEntry(entry archives.FileInfo, hdr *tar.Header, hardLink bool, rel, targetRoot string) error {
	switch {
	case hardLink:
		source := path.Clean(strings.TrimPrefix(filepath.ToSlash(hdr.Linkname), "./"))
		if escapes(source) {
			return fmt.Errorf("hard link %s -> %s escapes %s", rel, hdr.Linkname, targetRoot)
		}
		if err := containedParents(targetRoot, source); err != nil {
			return err
		}
	case entry.Mode()&fs.ModeSymlink != 0:
		linkTarget := filepath.ToSlash(entry.LinkTarget)
		if path.IsAbs(linkTarget) || escapes(path.Join(path.Dir(rel), linkTarget)) {
			return fmt.Errorf("symlink %s -> %s escapes %s", rel, entry.LinkTarget, targetRoot)
		}
	}

	dir := rel
	if !entry.IsDir() {
		dir = path.Dir(rel)
	}
	return containedParents(targetRoot, path.Join(dir, "."))
}

// containedParents walks the existing components of dir below targetRoot and fails when
// one of them is a symlink that resolves outside targetRoot.
func containedParents(targetRoot, dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	realRoot, err := filepath.EvalSymlinks(targetRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve target root %s: %w", targetRoot, err)
	}

	current := targetRoot
	for _, part := range strings.Split(dir, "/") {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", current, err)
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			continue
		}
		resolved, err := filepath.EvalSymlinks(current)
		if err != nil {
			return fmt.Errorf("failed to resolve symlink %s: %w", current, err)
		}
		if !within(realRoot, resolved) {
			return fmt.Errorf("path %s leaves %s through symlink %s", dir, targetRoot, current)
		}
	}
	return nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && !escapes(filepath.ToSlash(rel))
}

// writeSymlink replaces whatever is at target with a symlink.
func writeSymlink(linkTarget, target string) error {
	_ = os.Remove(target)
	if err := os.Symlink(linkTarget, target); err != nil {
		return fmt.Errorf("failed to create symlink %s: %w", target, err)
	}
	return nil
}

func writeHardLink(linkName, target, targetRoot string) error {
	source := filepath.Join(targetRoot, filepath.FromSlash(strings.TrimPrefix(linkName, "./")))
	_ = os.Remove(target)
	if err := os.Link(source, target); err != nil {
		return fmt.Errorf("failed to create hard link %s: %w", target, err)
	}
	return nil
}

func writeRegularFile(entry archives.FileInfo, target string) error {
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", entry.NameInArchive, err)
	}
	defer func() { _ = src.Close() }()

	// A symlink left by an earlier install must not redirect the write.
	if st, err := os.Lstat(target); err == nil && st.Mode()&fs.ModeSymlink != 0 {
		_ = os.Remove(target)
	}

	perm := entry.Mode().Perm()
	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to copy file %s: %w", entry.NameInArchive, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", target, err)
	}
	if err := os.Chmod(target, perm); err != nil {
		return fmt.Errorf("failed to set permissions for %s: %w", target, err)
	}
	if err := os.Chtimes(target, entry.ModTime(), entry.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time for %s: %w", target, err)
	}
	return nil
}

// Create builds a tar.xz archive at archivePath from the contents of sourceDir.
// Entry names are relative to sourceDir.
func Create(ctx context.Context, sourceDir, archivePath string) error {
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for source directory: %w", err)
	}

	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath + string(os.PathSeparator): "",
	})
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}
	return Write(ctx, archivePath, files)
}

// Write encodes files as a tar.xz archive at archivePath.
func Write(ctx context.Context, archivePath string, files []archives.FileInfo) error {
	if err := fsutil.EnsureFileDir(archivePath); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", archivePath, err)
	}
	defer func() {
		_ = file.Sync()
		_ = file.Close()
	}()

	if err := Format.Archive(ctx, file, files); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}
