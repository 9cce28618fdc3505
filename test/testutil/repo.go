// Package testutil serves package repositories over HTTP for tests.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cperrin88/mrpkg/pkg/archive"
	"github.com/cperrin88/mrpkg/pkg/integrity"
	"github.com/cperrin88/mrpkg/pkg/model"
	"github.com/cperrin88/mrpkg/pkg/repository"
)

// Repo is a repository directory served by an httptest server.
// The catalog is published at <URL>/Packages.json once WriteCatalog is called.
type Repo struct {
	Dir      string
	URL      string
	Packages []*model.Package

	server *httptest.Server
	mu     sync.Mutex
	hits   map[string]int
}

// NewRepo starts a file server over a fresh directory. It is stopped when the test ends.
func NewRepo(t *testing.T) *Repo {
	t.Helper()
	r := &Repo{Dir: t.TempDir(), hits: make(map[string]int)}

	files := http.FileServer(http.Dir(r.Dir))
	r.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.hits[path.Clean(req.URL.Path)]++
		r.mu.Unlock()
		files.ServeHTTP(w, req)
	}))
	t.Cleanup(r.server.Close)

	r.URL = r.server.URL
	return r
}

// Repository returns an enabled repository definition pointing at the server.
func (r *Repo) Repository(name string) model.Repository {
	return model.Repository{Name: name, URL: r.URL, Enabled: true, Priority: 100}
}

// AddPackage packs files (root-relative path to content) into an archive below the
// repository and records its catalog entry.
func (r *Repo) AddPackage(t *testing.T, name, version string, deps []string, files map[string]string) *model.Package {
	t.Helper()

	src := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(src, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("creating %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", rel, err)
		}
	}

	filename := name + "-" + version + ".tar.xz"
	archivePath := filepath.Join(r.Dir, filename)
	if err := archive.Create(context.Background(), src, archivePath); err != nil {
		t.Fatalf("packing %s: %v", name, err)
	}
	digest, err := integrity.Digest(archivePath)
	if err != nil {
		t.Fatalf("hashing %s: %v", archivePath, err)
	}
	info, err := os.Stat(archivePath)
	if err != nil {
		t.Fatalf("stat %s: %v", archivePath, err)
	}

	pkg := &model.Package{
		Name:         name,
		Version:      version,
		Description:  name + " package",
		Dependencies: deps,
		Size:         info.Size(),
		Checksum:     digest,
		DownloadURL:  r.URL + "/" + filename,
		Filename:     filename,
	}
	r.Packages = append(r.Packages, pkg)
	return pkg
}

// WriteCatalog publishes the recorded entries as the repository catalog.
func (r *Repo) WriteCatalog(t *testing.T) {
	t.Helper()
	data, err := json.Marshal(r.Packages)
	if err != nil {
		t.Fatalf("encoding catalog: %v", err)
	}
	if err := os.WriteFile(filepath.Join(r.Dir, repository.CatalogFile), data, 0o644); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}
}

// Hits returns how many requests were made for the given URL path, e.g. "/hello-1.0.tar.xz".
func (r *Repo) Hits(urlPath string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits[path.Clean(urlPath)]
}
