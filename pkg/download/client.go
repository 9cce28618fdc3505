// Package download is the HTTP transport used to fetch repository catalogs and package archives.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/fsutil"
)

const (
	// DefaultCatalogTimeout bounds one catalog fetch.
	DefaultCatalogTimeout = 30 * time.Second
	// DefaultPackageTimeout bounds one archive download.
	DefaultPackageTimeout = 60 * time.Second
	// DefaultUserAgent is sent when Options.UserAgent is empty.
	DefaultUserAgent = "mrpkg/1.0"

	// maxCatalogSize caps the size of a catalog document held in memory.
	maxCatalogSize = 64 << 20
)

// Options configure a Client.
type Options struct {
	CatalogTimeout time.Duration
	PackageTimeout time.Duration
	// Retries is the number of extra attempts after a failed request. Zero disables retrying.
	Retries   int
	UserAgent string
}

// Client performs bounded GET requests. A timeout fails only the request it applies to.
type Client struct {
	http           *retryablehttp.Client
	userAgent      string
	catalogTimeout time.Duration
	packageTimeout time.Duration
}

// NewClient creates a Client, filling unset options with defaults.
func NewClient(opts Options) *Client {
	if opts.CatalogTimeout <= 0 {
		opts.CatalogTimeout = DefaultCatalogTimeout
	}
	if opts.PackageTimeout <= 0 {
		opts.PackageTimeout = DefaultPackageTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil
	// Hand the final response back so the status code can be reported.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		http:           retryClient,
		userAgent:      opts.UserAgent,
		catalogTimeout: opts.CatalogTimeout,
		packageTimeout: opts.PackageTimeout,
	}
}

// Fetch returns the body of url, bounded by the catalog timeout.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.catalogTimeout)
	defer cancel()

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, errors.Classify(errors.ErrNetworkFailure, fmt.Errorf("reading %s: %w", url, err))
	}
	return data, nil
}

// Download streams url into dest, bounded by the package timeout. An existing file at dest
// is replaced only after the body has been received completely.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	ctx, cancel := context.WithTimeout(ctx, c.packageTimeout)
	defer cancel()

	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	tmpPath, err := writeBodyToTemp(resp.Body, dest)
	if err != nil {
		return errors.Classify(errors.ErrNetworkFailure, fmt.Errorf("downloading %s: %w", url, err))
	}
	if err := fsutil.Move(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "could not finalize download")
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Classify(errors.ErrNetworkFailure, fmt.Errorf("failed to create request for %s: %w", url, err))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Classify(errors.ErrNetworkFailure, fmt.Errorf("GET %s: %w", url, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: unexpected status %s", errors.ErrNetworkFailure, url, resp.Status)
	}
	return resp, nil
}

func writeBodyToTemp(body io.Reader, dest string) (string, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, fsutil.DirModeDefault); err != nil {
		return "", errors.Wrap(err, "could not create download dir")
	}
	tmp, err := os.CreateTemp(dir, "dl-*.tmp")
	if err != nil {
		return "", errors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(err, "could not write file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}
