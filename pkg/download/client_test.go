package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/mrpkg/pkg/errors"
)

func TestNewClient_Defaults(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		expectedUA string
		catalog    time.Duration
		pkg        time.Duration
		retries    int
	}{
		{
			name:       "zero options",
			expectedUA: DefaultUserAgent,
			catalog:    DefaultCatalogTimeout,
			pkg:        DefaultPackageTimeout,
		},
		{
			name:       "custom options",
			opts:       Options{CatalogTimeout: time.Second, PackageTimeout: 2 * time.Second, Retries: 3, UserAgent: "test-agent/1.0"},
			expectedUA: "test-agent/1.0",
			catalog:    time.Second,
			pkg:        2 * time.Second,
			retries:    3,
		},
		{
			name:       "negative retries",
			opts:       Options{Retries: -1},
			expectedUA: DefaultUserAgent,
			catalog:    DefaultCatalogTimeout,
			pkg:        DefaultPackageTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.opts)
			require.NotNil(t, c)
			assert.Equal(t, tt.expectedUA, c.userAgent)
			assert.Equal(t, tt.catalog, c.catalogTimeout)
			assert.Equal(t, tt.pkg, c.packageTimeout)
			assert.Equal(t, tt.retries, c.http.RetryMax)
		})
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mrpkg-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	data, err := NewClient(Options{UserAgent: "mrpkg-test"}).Fetch(context.Background(), server.URL+"/Packages.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		opts    Options
	}{
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) { http.NotFound(w, nil) },
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			opts: Options{CatalogTimeout: 50 * time.Millisecond},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewClient(tt.opts).Fetch(context.Background(), server.URL)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrNetworkFailure)
		})
	}
}

func TestFetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(Options{}).Fetch(context.Background(), url)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNetworkFailure)
}

func TestFetch_RetriesWhenEnabled(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := NewClient(Options{Retries: 1})
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = time.Millisecond

	data, err := c.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(Options{}).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDownload(t *testing.T) {
	payload := []byte("archive bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "cache", "editor-1.0.tar.xz")
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0o644))

	require.NoError(t, NewClient(Options{}).Download(context.Background(), server.URL+"/editor-1.0.tar.xz", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestDownload_FailureKeepsExistingFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "editor.tar.xz")
	require.NoError(t, os.WriteFile(dest, []byte("previous"), 0o644))

	err := NewClient(Options{}).Download(context.Background(), server.URL, dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNetworkFailure)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}
