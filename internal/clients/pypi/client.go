package pypi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pybook/pybook-backend/internal/normalization"
	"github.com/pybook/pybook-backend/internal/pkg/httpx"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/utils"
)

// CheckResult is the three-state outcome of a package-existence check.
// Unknown means the check itself failed (network, timeout, index outage) and
// must not be treated as either valid or invalid: the caller blocks the add
// with a retryable error instead of guessing.
type CheckResult string

const (
	ResultValid   CheckResult = "valid"
	ResultInvalid CheckResult = "invalid"
	ResultUnknown CheckResult = "unknown"
)

type Client interface {
	// CheckPackage looks a package name up on the index. The error is non-nil
	// only for ResultUnknown and describes why the check could not complete.
	CheckPackage(ctx context.Context, name string) (CheckResult, error)
}

type client struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
	cache      *redis.Client
	validTTL   time.Duration
	invalidTTL time.Duration
}

// Option overrides client defaults; used by tests to point at an httptest
// server and by wiring to attach the redis cache.
type Option func(*client)

func WithBaseURL(url string) Option {
	return func(c *client) { c.baseURL = url }
}

func WithCache(cache *redis.Client) Option {
	return func(c *client) { c.cache = cache }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *client) { c.httpClient = h }
}

func New(log *logger.Logger, opts ...Option) Client {
	c := &client{
		log:        log.With("client", "PyPIClient"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    utils.GetEnv("PYPI_BASE_URL", "https://pypi.org", log),
		validTTL:   24 * time.Hour,
		invalidTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) CheckPackage(ctx context.Context, name string) (CheckResult, error) {
	normalized := normalization.NormalizePackageName(name)
	if normalized == "" {
		return ResultInvalid, nil
	}

	if cached, ok := c.cacheGet(ctx, normalized); ok {
		return cached, nil
	}

	result, err := c.lookup(ctx, normalized)
	if result == ResultUnknown && httpx.IsRetryableError(err) {
		// One retry with jitter covers transient index hiccups; a second
		// failure is surfaced as Unknown for the caller to retry manually.
		// When the index sent Retry-After, that delay wins over the default.
		delay := 500 * time.Millisecond
		var sErr *statusError
		if errors.As(err, &sErr) && sErr.retryAfter > 0 {
			delay = sErr.retryAfter
		}
		select {
		case <-ctx.Done():
			return ResultUnknown, ctx.Err()
		case <-time.After(httpx.JitterSleep(delay)):
		}
		result, err = c.lookup(ctx, normalized)
	}

	// Unknown results are never cached.
	if result == ResultValid || result == ResultInvalid {
		c.cacheSet(ctx, normalized, result)
		return result, nil
	}
	return ResultUnknown, err
}

type statusError struct {
	code       int
	retryAfter time.Duration
}

func (e *statusError) Error() string       { return fmt.Sprintf("pypi returned status %d", e.code) }
func (e *statusError) HTTPStatusCode() int { return e.code }

func (c *client) lookup(ctx context.Context, name string) (CheckResult, error) {
	url := fmt.Sprintf("%s/pypi/%s/json", c.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ResultUnknown, fmt.Errorf("build pypi request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ResultUnknown, fmt.Errorf("pypi request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return ResultValid, nil
	case resp.StatusCode == http.StatusNotFound:
		return ResultInvalid, nil
	default:
		return ResultUnknown, &statusError{
			code:       resp.StatusCode,
			retryAfter: httpx.RetryAfterDuration(resp, 0, 30*time.Second),
		}
	}
}

func (c *client) cacheKey(name string) string {
	return "pypi:pkg:" + name
}

func (c *client) cacheGet(ctx context.Context, name string) (CheckResult, bool) {
	if c.cache == nil {
		return "", false
	}
	val, err := c.cache.Get(ctx, c.cacheKey(name)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("pypi cache read failed", "package", name, "error", err)
		}
		return "", false
	}
	switch CheckResult(val) {
	case ResultValid:
		return ResultValid, true
	case ResultInvalid:
		return ResultInvalid, true
	}
	return "", false
}

func (c *client) cacheSet(ctx context.Context, name string, result CheckResult) {
	if c.cache == nil {
		return
	}
	ttl := c.validTTL
	if result == ResultInvalid {
		ttl = c.invalidTTL
	}
	if err := c.cache.Set(ctx, c.cacheKey(name), string(result), ttl).Err(); err != nil {
		c.log.Debug("pypi cache write failed", "package", name, "error", err)
	}
}
