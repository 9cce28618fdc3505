package deps

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/model"
	"github.com/cperrin88/mrpkg/pkg/store"
)

type fakeLookup struct {
	installed map[string]bool
	err       error
}

func (f *fakeLookup) IsInstalled(_ context.Context, name string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.installed[name], nil
}

func TestPresenceChecker_Check(t *testing.T) {
	lookup := &fakeLookup{installed: map[string]bool{"libc": true, "ncurses": true}}
	checker := NewPresenceChecker(lookup)

	tests := []struct {
		name    string
		deps    []string
		missing []string
	}{
		{name: "no dependencies", deps: nil, missing: nil},
		{name: "all installed", deps: []string{"libc", "ncurses"}, missing: nil},
		{name: "one missing", deps: []string{"libc", "libbar"}, missing: []string{"libbar"}},
		{name: "declaration order kept", deps: []string{"zlib", "libc", "abc"}, missing: []string{"zlib", "abc"}},
		{name: "constraints are literal names", deps: []string{"libc>=2.0"}, missing: []string{"libc>=2.0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missing, err := checker.Check(context.Background(), tt.deps)
			require.NoError(t, err)
			assert.Equal(t, tt.missing, missing)
		})
	}
}

func TestPresenceChecker_StorageError(t *testing.T) {
	boom := stderrors.New("disk gone")
	checker := NewPresenceChecker(&fakeLookup{err: errors.Classify(errors.ErrStorageUnavailable, boom)})

	_, err := checker.Check(context.Background(), []string{"libc"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStorageUnavailable)
	assert.ErrorIs(t, err, boom)
}

func TestRequire(t *testing.T) {
	checker := NewPresenceChecker(&fakeLookup{installed: map[string]bool{"libc": true}})

	require.NoError(t, Require(context.Background(), checker, []string{"libc"}))

	err := Require(context.Background(), checker, []string{"libc", "libbar", "libbaz"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDependencyMissing)
	var missing *errors.MissingDependenciesError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"libbar", "libbaz"}, missing.Names)
}

func TestPresenceChecker_WithStore(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "packages.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.UpsertInstalled(ctx, &model.InstalledPackage{
		Name: "libbar", Version: "1.0", InstalledAt: time.Now(), Status: model.StatusInstalled,
	}))

	missing, err := NewPresenceChecker(s).Check(ctx, []string{"libbar", "libfoo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"libfoo"}, missing)
}
