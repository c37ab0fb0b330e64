package pypi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pybook/pybook-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return log
}

func TestCheckPackageValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pypi/pandas/json", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(testLogger(t), WithBaseURL(srv.URL))
	result, err := c.CheckPackage(context.Background(), "pandas")
	require.NoError(t, err)
	assert.Equal(t, ResultValid, result)
}

func TestCheckPackageNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testLogger(t), WithBaseURL(srv.URL))
	result, err := c.CheckPackage(context.Background(), "definitely-not-a-package-xyz")
	require.NoError(t, err)
	assert.Equal(t, ResultInvalid, result)
}

func TestCheckPackageServerErrorIsUnknown(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(testLogger(t), WithBaseURL(srv.URL))
	result, err := c.CheckPackage(context.Background(), "pandas")
	assert.Equal(t, ResultUnknown, result, "index outage is not the same as not-found")
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "one retry on retryable status")
}

func TestCheckPackageRetryRecovers(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(testLogger(t), WithBaseURL(srv.URL))
	result, err := c.CheckPackage(context.Background(), "numpy")
	require.NoError(t, err)
	assert.Equal(t, ResultValid, result)
}

func TestCheckPackageHonorsRetryAfter(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(testLogger(t), WithBaseURL(srv.URL))
	start := time.Now()
	result, err := c.CheckPackage(context.Background(), "numpy")
	require.NoError(t, err)
	assert.Equal(t, ResultValid, result)
	// Jitter is +/-20%, so a honored Retry-After of 1s waits at least 800ms.
	assert.GreaterOrEqual(t, time.Since(start), 700*time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCheckPackageNormalizesName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(testLogger(t), WithBaseURL(srv.URL))
	_, err := c.CheckPackage(context.Background(), "Scikit_Learn")
	require.NoError(t, err)
	assert.Equal(t, "/pypi/scikit-learn/json", gotPath)
}

func TestCheckPackageEmptyNameInvalid(t *testing.T) {
	c := New(testLogger(t), WithBaseURL("http://127.0.0.1:0"))
	result, err := c.CheckPackage(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, ResultInvalid, result)
}
