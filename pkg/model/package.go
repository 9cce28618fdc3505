// Package model provides the data structures shared by the catalog, the package
// database and the install pipeline.
package model

import (
	"strings"
	"time"
)

// LatestVersion is the version sentinel that matches the first catalog entry with a given name.
const LatestVersion = "latest"

// Package is one entry of a repository catalog.
type Package struct {
	Name         string   `json:"name" validate:"required"`
	Version      string   `json:"version" validate:"required"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies,omitempty"`
	Size         int64    `json:"size" validate:"gte=0"`
	Checksum     string   `json:"checksum" validate:"required,len=64,hexadecimal"`
	DownloadURL  string   `json:"download_url" validate:"required,url"`
	Filename     string   `json:"filename" validate:"required"`
	InstallPath  string   `json:"install_path,omitempty"`
	Files        []string `json:"files,omitempty"`

	// Repository is the name of the repository snapshot the entry was read from.
	Repository string `json:"-"`
}

// ID returns name@version.
func (p *Package) ID() string {
	return p.Name + "@" + p.Version
}

// MatchesQuery reports whether the lowercase query is contained in the name or description.
func (p *Package) MatchesQuery(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// Status is the lifecycle state of an installed record.
type Status string

const (
	// StatusInstalled is the only state written by the install pipeline.
	StatusInstalled Status = "installed"
	// StatusHalfInstalled is reserved.
	StatusHalfInstalled Status = "half-installed"
	// StatusConfigFiles is reserved.
	StatusConfigFiles Status = "config-files"
)

// InstalledPackage is the persisted record of an installed package.
// Files holds the manifest: root-relative paths written at install time.
type InstalledPackage struct {
	Name         string
	Version      string
	Description  string
	Dependencies []string
	Size         int64
	Checksum     string
	InstallPath  string
	Files        []string
	DownloadURL  string
	Filename     string
	InstalledAt  time.Time
	Status       Status
}

// NewInstalledPackage builds a record from a catalog entry and the manifest that was written.
func NewInstalledPackage(pkg *Package, files []string, installedAt time.Time) *InstalledPackage {
	installPath := pkg.InstallPath
	if installPath == "" {
		installPath = DefaultInstallPath
	}
	return &InstalledPackage{
		Name:         pkg.Name,
		Version:      pkg.Version,
		Description:  pkg.Description,
		Dependencies: append([]string(nil), pkg.Dependencies...),
		Size:         pkg.Size,
		Checksum:     pkg.Checksum,
		InstallPath:  installPath,
		Files:        append([]string(nil), files...),
		DownloadURL:  pkg.DownloadURL,
		Filename:     pkg.Filename,
		InstalledAt:  installedAt,
		Status:       StatusInstalled,
	}
}

// DefaultInstallPath is recorded when a catalog entry declares no install path.
const DefaultInstallPath = "/usr"

// InstalledSummary is one row of the installed package listing.
type InstalledSummary struct {
	Name        string
	Version     string
	Description string
}

// Repository is a named, URL-addressed source of a catalog.
type Repository struct {
	Name     string `yaml:"name" validate:"required"`
	URL      string `yaml:"url" validate:"required,url"`
	Enabled  bool   `yaml:"enabled"`
	Priority int    `yaml:"priority"`
}
