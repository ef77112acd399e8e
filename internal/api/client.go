// Package api is the client for the PaaS deployment-management
// (lifecycle) REST API: environments, applications, deployments and
// database exports. Retries, rate limiting and read caching live here,
// wrapped around plain HTTP calls; the storage core stays policy-free.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/paasops/paas-mcp/internal/cache"
	"github.com/paasops/paas-mcp/internal/config"
	"github.com/paasops/paas-mcp/internal/constants"
	internalhttp "github.com/paasops/paas-mcp/internal/http"
	"github.com/paasops/paas-mcp/internal/logging"
	"github.com/paasops/paas-mcp/internal/ratelimit"
)

// retryLogger adapts our logger to the retryablehttp.LeveledLogger
// interface. Only warnings and errors are surfaced; per-attempt debug
// chatter stays off.
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(fieldMap(keysAndValues)).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(fieldMap(keysAndValues)).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

func fieldMap(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}

// Client talks to the lifecycle API.
type Client struct {
	httpClient   *nethttp.Client
	baseURL      string
	apiKey       string
	readLimiter  *ratelimit.RateLimiter
	writeLimiter *ratelimit.RateLimiter
	readCache    *cache.Cache
	log          *logging.Logger
}

// NewClient creates a lifecycle API client from cfg.
func NewClient(cfg *config.Config, log *logging.Logger) (*Client, error) {
	if err := cfg.ValidateAPI(); err != nil {
		return nil, err
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = internalhttp.NewAPIClient()
	retryClient.RetryMax = constants.MaxRetries
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = &retryLogger{log: log}

	return &Client{
		httpClient:   retryClient.StandardClient(),
		baseURL:      strings.TrimSuffix(cfg.APIBaseURL, "/"),
		apiKey:       cfg.APIKey,
		readLimiter:  ratelimit.NewReadScopeLimiter(),
		writeLimiter: ratelimit.NewWriteScopeLimiter(),
		readCache:    cache.New(constants.EnvironmentCacheTTL, constants.CacheSweepInterval),
		log:          log,
	}, nil
}

// Close releases background resources.
func (c *Client) Close() {
	c.readCache.Stop()
}

// get issues a rate-limited GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.readLimiter.Wait(ctx); err != nil {
		return err
	}
	return c.do(ctx, nethttp.MethodGet, path, nil, out)
}

// post issues a rate-limited POST with a JSON body.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if err := c.writeLimiter.Wait(ctx); err != nil {
		return err
	}
	return c.do(ctx, nethttp.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debugf("%s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// cachedGet serves path from the read cache when possible, fetching
// and storing on a miss.
func cachedGet[T any](ctx context.Context, c *Client, path string, ttl time.Duration) (T, error) {
	var zero T
	if value, ok := c.readCache.Get(path); ok {
		if typed, ok := value.(T); ok {
			c.log.Debugf("cache hit: %s", path)
			return typed, nil
		}
	}

	var result T
	if err := c.get(ctx, path, &result); err != nil {
		return zero, err
	}
	c.readCache.SetWithTTL(path, result, ttl)
	return result, nil
}
