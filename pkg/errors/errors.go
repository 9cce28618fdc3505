// Package errors holds the error taxonomy shared by the mrpkg packages.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Failure classes. Every error returned by the core wraps exactly one of these.
var (
	ErrNotFound           = fmt.Errorf("not found")
	ErrDependencyMissing  = fmt.Errorf("missing dependencies")
	ErrIntegrityFailure   = fmt.Errorf("integrity check failed")
	ErrExtractionFailure  = fmt.Errorf("extraction failed")
	ErrStorageUnavailable = fmt.Errorf("package database unavailable")
	ErrNetworkFailure     = fmt.Errorf("network failure")
)

// Specialised not-found errors.
var (
	ErrPackageNotFound    = fmt.Errorf("package %w", ErrNotFound)
	ErrNotInstalled       = fmt.Errorf("package is not installed: %w", ErrNotFound)
	ErrRepositoryNotFound = fmt.Errorf("repository %w", ErrNotFound)
)

// Config errors.
var (
	ErrEmptyConfigPath  = fmt.Errorf("config file path cannot be empty")
	ErrConfigParse      = fmt.Errorf("failed to parse config")
	ErrConfigValidation = fmt.Errorf("invalid configuration")
	ErrConfigEncode     = fmt.Errorf("failed to encode config")
	ErrConfigDirectory  = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate = fmt.Errorf("failed to create config file")
	ErrConfigFileRename = fmt.Errorf("failed to rename temporary config file")
)

// MissingDependenciesError lists the dependency names that have no installed record.
type MissingDependenciesError struct {
	Names []string
}

func (e *MissingDependenciesError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDependencyMissing, strings.Join(e.Names, ", "))
}

func (e *MissingDependenciesError) Unwrap() error {
	return ErrDependencyMissing
}

// ChecksumMismatchError is returned when a file digest differs from the declared one.
type ChecksumMismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("%s: %s: expected %s, got %s", ErrIntegrityFailure, e.Path, e.Expected, e.Actual)
}

func (e *ChecksumMismatchError) Unwrap() error {
	return ErrIntegrityFailure
}

// NewMissingDependenciesError creates a MissingDependenciesError.
func NewMissingDependenciesError(names []string) error {
	return &MissingDependenciesError{Names: names}
}

// NewChecksumMismatchError creates a ChecksumMismatchError.
func NewChecksumMismatchError(path, expected, actual string) error {
	return &ChecksumMismatchError{Path: path, Expected: expected, Actual: actual}
}

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Classify attaches a failure class to err while keeping err in the chain.
// The result matches both class and err with errors.Is.
func Classify(class, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, class) {
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
