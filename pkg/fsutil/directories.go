// Package fsutil provides file system helpers shared by the store, catalog and installer.
package fsutil

import (
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates a directory and all necessary parents with DirModeDefault.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirModeDefault)
}

// EnsureFileDir creates the parent directory of a file path if it doesn't exist.
func EnsureFileDir(filePath string) error {
	return EnsureDir(filepath.Dir(filePath))
}

// UnderRoot joins a manifest path to root. Leading separators are stripped so
// absolute manifest entries stay relative to root.
func UnderRoot(root, path string) string {
	return filepath.Join(root, strings.TrimLeft(filepath.FromSlash(path), string(os.PathSeparator)))
}
