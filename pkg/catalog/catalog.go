// Package catalog holds the per-repository package snapshots fetched by the synchronizer
// and answers search and lookup queries against them.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/cperrin88/mrpkg/internal/logger"
	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/fsutil"
	"github.com/cperrin88/mrpkg/pkg/model"
)

// FileSuffix is appended to a repository name to form its snapshot file name.
const FileSuffix = "_packages.json"

var validate = validator.New()

// Cache is the in-memory view of every repository snapshot, backed by one JSON file per
// repository in dir. Snapshots are ordered by repository name.
type Cache struct {
	dir string

	mu        sync.RWMutex
	snapshots map[string][]*model.Package
}

// New creates an empty cache rooted at dir. Call Load to read existing snapshots.
func New(dir string) *Cache {
	return &Cache{
		dir:       dir,
		snapshots: make(map[string][]*model.Package),
	}
}

// Dir returns the directory holding the snapshot files.
func (c *Cache) Dir() string {
	return c.dir
}

// SnapshotPath returns the file that stores the snapshot of repo.
func (c *Cache) SnapshotPath(repo string) string {
	return filepath.Join(c.dir, repo+FileSuffix)
}

// Load reads every snapshot file in the cache directory. A missing directory yields an
// empty cache; files that cannot be parsed are skipped with a warning.
func (c *Cache) Load() error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+FileSuffix))
	if err != nil {
		return errors.Wrap(err, "listing catalog snapshots")
	}

	loaded := make(map[string][]*model.Package, len(matches))
	for _, path := range matches {
		repo := strings.TrimSuffix(filepath.Base(path), FileSuffix)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable catalog snapshot", logger.Fields{"file": path, "error": err})
			continue
		}
		pkgs, err := Parse(data)
		if err != nil {
			logger.Warn("Skipping invalid catalog snapshot", logger.Fields{"file": path, "error": err})
			continue
		}
		tagRepository(pkgs, repo)
		loaded[repo] = pkgs
	}

	c.mu.Lock()
	c.snapshots = loaded
	c.mu.Unlock()
	return nil
}

// Replace rewrites the snapshot file of repo and swaps the in-memory snapshot.
// The previous snapshot is discarded, not merged.
func (c *Cache) Replace(repo string, pkgs []*model.Package) error {
	data, err := json.MarshalIndent(pkgs, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding catalog for %s", repo)
	}
	if err := fsutil.WriteFileAtomic(c.SnapshotPath(repo), append(data, '\n'), fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "writing catalog for %s", repo)
	}

	snapshot := make([]*model.Package, len(pkgs))
	copy(snapshot, pkgs)
	tagRepository(snapshot, repo)

	c.mu.Lock()
	c.snapshots[repo] = snapshot
	c.mu.Unlock()
	return nil
}

func (c *Cache) orderLocked() []string {
	names := make([]string, 0, len(c.snapshots))
	for name := range c.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Packages returns every catalog entry in encounter order.
func (c *Cache) Packages() []*model.Package {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*model.Package
	for _, repo := range c.orderLocked() {
		out = append(out, c.snapshots[repo]...)
	}
	return out
}

// Search returns the entries whose name or description contains query, case-insensitively.
// Duplicates across repositories are all returned.
func (c *Cache) Search(query string) []*model.Package {
	var out []*model.Package
	for _, pkg := range c.Packages() {
		if pkg.MatchesQuery(query) {
			out = append(out, pkg)
		}
	}
	return out
}

// FindExact returns the first entry named name whose version equals version.
// An empty version or model.LatestVersion matches the first entry with that name
// without comparing versions.
func (c *Cache) FindExact(name, version string) (*model.Package, error) {
	latest := version == "" || version == model.LatestVersion
	for _, pkg := range c.Packages() {
		if pkg.Name != name {
			continue
		}
		if latest || pkg.Version == version {
			return pkg, nil
		}
	}
	if latest {
		return nil, fmt.Errorf("%s: %w", name, errors.ErrPackageNotFound)
	}
	return nil, fmt.Errorf("%s@%s: %w", name, version, errors.ErrPackageNotFound)
}

// Parse decodes a catalog document (a JSON array of package objects) and validates every
// entry. One invalid entry fails the whole document.
func Parse(data []byte) ([]*model.Package, error) {
	var pkgs []*model.Package
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&pkgs); err != nil {
		return nil, errors.Classify(errors.ErrNetworkFailure, fmt.Errorf("malformed catalog: %w", err))
	}
	for i, pkg := range pkgs {
		if pkg == nil {
			return nil, fmt.Errorf("%w: malformed catalog: entry %d is null", errors.ErrNetworkFailure, i)
		}
		if err := validate.Struct(pkg); err != nil {
			return nil, fmt.Errorf("%w: malformed catalog: entry %d (%s): %w", errors.ErrNetworkFailure, i, pkg.Name, err)
		}
	}
	return pkgs, nil
}

func tagRepository(pkgs []*model.Package, repo string) {
	for _, pkg := range pkgs {
		pkg.Repository = repo
	}
}
