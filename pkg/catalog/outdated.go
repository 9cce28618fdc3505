package catalog

import (
	"github.com/hashicorp/go-version"

	"github.com/cperrin88/mrpkg/pkg/model"
)

// Upgrade describes an installed package that has a newer catalog entry.
type Upgrade struct {
	Name       string
	Installed  string
	Available  string
	Repository string
}

// Outdated reports, for each installed record, the first catalog entry with the same name
// and a newer version. It is informational only; install resolution never consults it.
func (c *Cache) Outdated(installed []*model.InstalledPackage) []Upgrade {
	pkgs := c.Packages()
	var out []Upgrade
	for _, rec := range installed {
		for _, pkg := range pkgs {
			if pkg.Name != rec.Name || !Newer(pkg.Version, rec.Version) {
				continue
			}
			out = append(out, Upgrade{
				Name:       rec.Name,
				Installed:  rec.Version,
				Available:  pkg.Version,
				Repository: pkg.Repository,
			})
			break
		}
	}
	return out
}

// Newer reports whether candidate is a newer version than current.
// When either version does not parse there is no ordering, and Newer returns false.
func Newer(candidate, current string) bool {
	cv, err := version.NewVersion(candidate)
	if err != nil {
		return false
	}
	iv, err := version.NewVersion(current)
	if err != nil {
		return false
	}
	return cv.GreaterThan(iv)
}
