package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "main_packages.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), FileModeDefault))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), FileModeDefault))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FileModeDefault), info.Mode().Perm())
}

func TestMove_File_SameFilesystem(t *testing.T) {
	tempDir := t.TempDir()

	srcFile := filepath.Join(tempDir, "source.txt")
	dstFile := filepath.Join(tempDir, "sub", "destination.txt")

	require.NoError(t, os.WriteFile(srcFile, []byte("Hello, World!"), 0o644))
	require.NoError(t, Move(srcFile, dstFile))

	moved, err := os.ReadFile(dstFile)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", string(moved))

	_, err = os.Stat(srcFile)
	assert.True(t, os.IsNotExist(err))
}

func TestMove_ReplacesDestination(t *testing.T) {
	tempDir := t.TempDir()
	srcFile := filepath.Join(tempDir, "new")
	dstFile := filepath.Join(tempDir, "stale")

	require.NoError(t, os.WriteFile(srcFile, []byte("fresh"), 0o644))
	require.NoError(t, os.WriteFile(dstFile, []byte("stale content"), 0o644))
	require.NoError(t, Move(srcFile, dstFile))

	data, err := os.ReadFile(dstFile)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestMove_EmptyPaths(t *testing.T) {
	assert.Error(t, Move("", "dst"))
	assert.Error(t, Move("src", ""))
}

func TestUnderRoot(t *testing.T) {
	tests := []struct {
		name     string
		root     string
		path     string
		expected string
	}{
		{name: "relative", root: "/srv/root", path: "usr/bin/editor", expected: "/srv/root/usr/bin/editor"},
		{name: "absolute manifest entry", root: "/srv/root", path: "/usr/bin/editor", expected: "/srv/root/usr/bin/editor"},
		{name: "system root", root: "/", path: "/etc/editor.conf", expected: "/etc/editor.conf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UnderRoot(tt.root, tt.path))
		})
	}
}

func TestEnsureFileDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "file.txt")
	require.NoError(t, EnsureFileDir(target))

	info, err := os.Stat(filepath.Join(dir, "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
