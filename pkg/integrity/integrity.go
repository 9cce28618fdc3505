// Package integrity computes and compares SHA-256 digests of downloaded archives.
package integrity

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/fsutil"
)

// ChunkSize is the read size used while hashing.
const ChunkSize = 32 * 1024

// SidecarExt is appended to an artifact path to name its checksum file.
const SidecarExt = ".sha256"

// Verifier checks artifacts against expected checksums.
type Verifier struct{}

// NewVerifier creates a new Verifier instance.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Digest returns the lowercase hex SHA-256 of the file at path.
func (v *Verifier) Digest(path string) (string, error) {
	return Digest(path)
}

// Verify reports whether the file at path hashes to expectedHex.
func (v *Verifier) Verify(path, expectedHex string) (bool, error) {
	return Verify(path, expectedHex)
}

// WriteSidecar records digest next to the artifact at path.
func (v *Verifier) WriteSidecar(path, digest string) error {
	return WriteSidecar(path, digest)
}

// Digest streams the file through SHA-256 in ChunkSize reads.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{f}, buf); err != nil {
		return "", errors.Wrap(err, "hashing")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify compares the whole-file digest with expectedHex after trimming and lowercasing it.
// A mismatch is reported as false with a nil error; I/O problems are returned as errors.
func Verify(path, expectedHex string) (bool, error) {
	got, err := Digest(path)
	if err != nil {
		return false, err
	}
	return Equal(got, expectedHex), nil
}

// Equal compares two hex digests ignoring case and surrounding whitespace.
func Equal(digest, expectedHex string) bool {
	return normalizeHex(digest) == normalizeHex(expectedHex)
}

// SidecarPath returns the checksum file path for an artifact.
func SidecarPath(path string) string {
	return path + SidecarExt
}

// WriteSidecar writes "<digest>  <basename>\n" to <path>.sha256.
func WriteSidecar(path, digest string) error {
	line := fmt.Sprintf("%s  %s\n", normalizeHex(digest), filepath.Base(path))
	if err := fsutil.WriteFileAtomic(SidecarPath(path), []byte(line), fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "writing checksum file for %s", path)
	}
	return nil
}

// ReadSidecar returns the digest recorded for the artifact at path.
func ReadSidecar(path string) (string, error) {
	f, err := os.Open(SidecarPath(path))
	if err != nil {
		return "", errors.Wrap(err, "open checksum file")
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", errors.Wrap(err, "read checksum file")
		}
		return "", fmt.Errorf("empty checksum file %s: %w", SidecarPath(path), errors.ErrIntegrityFailure)
	}
	fields := strings.Fields(sc.Text())
	if len(fields) == 0 || len(fields[0]) != sha256.Size*2 {
		return "", fmt.Errorf("malformed checksum file %s: %w", SidecarPath(path), errors.ErrIntegrityFailure)
	}
	if _, err := hex.DecodeString(fields[0]); err != nil {
		return "", fmt.Errorf("malformed checksum file %s: %w", SidecarPath(path), errors.ErrIntegrityFailure)
	}
	return normalizeHex(fields[0]), nil
}

func normalizeHex(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
