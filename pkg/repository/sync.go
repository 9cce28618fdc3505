// Package repository refreshes the catalog cache from the configured repositories.
package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cperrin88/mrpkg/pkg/catalog"
	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/model"
)

// CatalogFile is the name of the catalog document below a repository URL.
const CatalogFile = "Packages.json"

// Fetcher retrieves a document over the network.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SnapshotStore receives a repository's freshly fetched catalog.
type SnapshotStore interface {
	Replace(repo string, pkgs []*model.Package) error
}

// Result is the outcome of syncing one repository.
type Result struct {
	Repository string
	Packages   int
	Err        error
}

// Summary aggregates the results of a sync run.
type Summary struct {
	Attempted int
	Succeeded int
	Results   []Result
}

// Failed returns the results that carry an error.
func (s Summary) Failed() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Synchronizer fetches each repository's catalog and replaces its snapshot.
type Synchronizer struct {
	fetcher Fetcher
	cache   SnapshotStore

	// OnResult, when set, is called after each repository is processed.
	OnResult func(Result)
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(fetcher Fetcher, cache SnapshotStore) *Synchronizer {
	return &Synchronizer{fetcher: fetcher, cache: cache}
}

// CatalogURL returns the catalog document location for repo.
func CatalogURL(repo model.Repository) (string, error) {
	u, err := url.JoinPath(repo.URL, CatalogFile)
	if err != nil {
		return "", fmt.Errorf("invalid repository URL %q: %w", repo.URL, err)
	}
	return u, nil
}

// SyncAll syncs every enabled repository in order. A failing repository is recorded in the
// summary and leaves its previous snapshot in place; the others are still processed.
func (s *Synchronizer) SyncAll(ctx context.Context, repos []model.Repository) Summary {
	var summary Summary
	for _, repo := range repos {
		if !repo.Enabled {
			continue
		}
		summary.Attempted++
		res := s.Sync(ctx, repo)
		if res.Err == nil {
			summary.Succeeded++
		}
		summary.Results = append(summary.Results, res)
		if s.OnResult != nil {
			s.OnResult(res)
		}
	}
	return summary
}

// Sync fetches, validates and stores the catalog of a single repository.
func (s *Synchronizer) Sync(ctx context.Context, repo model.Repository) Result {
	res := Result{Repository: repo.Name}

	catalogURL, err := CatalogURL(repo)
	if err != nil {
		res.Err = errors.Classify(errors.ErrNetworkFailure, err)
		return res
	}
	data, err := s.fetcher.Fetch(ctx, catalogURL)
	if err != nil {
		res.Err = errors.Wrapf(err, "sync %s", repo.Name)
		return res
	}
	pkgs, err := catalog.Parse(data)
	if err != nil {
		res.Err = errors.Wrapf(err, "sync %s", repo.Name)
		return res
	}
	if err := s.cache.Replace(repo.Name, pkgs); err != nil {
		res.Err = errors.Wrapf(err, "sync %s", repo.Name)
		return res
	}
	res.Packages = len(pkgs)
	return res
}
