// Package deps decides whether a package's declared dependencies are satisfied.
package deps

import (
	"context"

	"github.com/cperrin88/mrpkg/pkg/errors"
)

// Checker reports which of the given dependency names are not satisfied.
// Implementations may be swapped for a version-aware solver.
type Checker interface {
	Check(ctx context.Context, names []string) ([]string, error)
}

// InstalledLookup answers whether an installed record exists for a name.
type InstalledLookup interface {
	IsInstalled(ctx context.Context, name string) (bool, error)
}

// PresenceChecker treats a dependency as satisfied when a record with exactly that name
// is installed. Names are compared literally, so "lib>=2.0" never matches "lib".
type PresenceChecker struct {
	store InstalledLookup
}

// NewPresenceChecker creates a checker backed by store.
func NewPresenceChecker(store InstalledLookup) *PresenceChecker {
	return &PresenceChecker{store: store}
}

// Check returns every missing name in declaration order. Storage errors abort the check.
func (c *PresenceChecker) Check(ctx context.Context, names []string) ([]string, error) {
	var missing []string
	for _, name := range names {
		ok, err := c.store.IsInstalled(ctx, name)
		if err != nil {
			return nil, errors.Wrapf(err, "checking dependency %s", name)
		}
		if !ok {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// Require runs checker and converts a non-empty result into a *errors.MissingDependenciesError.
func Require(ctx context.Context, checker Checker, names []string) error {
	missing, err := checker.Check(ctx, names)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return errors.NewMissingDependenciesError(missing)
	}
	return nil
}
