// Package client provides the Cronofy HTTP client that fetches API pages,
// with optional Redis-backed response caching.
package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/cronofy-client/pkg/cache"
	"github.com/Sternrassler/cronofy-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBaseURL is the Cronofy API endpoint for the US data center.
const DefaultBaseURL = "https://api.cronofy.com"

// Prometheus metrics for API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cronofy_requests_total",
		Help: "Total Cronofy API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cronofy_request_duration_seconds",
		Help:    "Cronofy API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cronofy_errors_total",
		Help: "Total Cronofy API errors by class",
	}, []string{"class"})
)

// Client fetches Cronofy API resources.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	cache      *cache.Manager
	cacheScope string
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root; relative paths are resolved against it.
	BaseURL string

	// UserAgent header sent with every request (REQUIRED).
	UserAgent string

	// Header holds static headers added to every request, e.g. Authorization.
	Header http.Header

	// Timeout for a single HTTP request. Ignored when HTTPClient is set.
	Timeout time.Duration

	// Redis enables response caching when non-nil.
	Redis redis.UniversalClient

	// CacheTTL applies to cached responses without an Expires header.
	CacheTTL time.Duration

	// HTTPClient replaces the default instrumented client.
	HTTPClient *http.Client
}

// DefaultConfig returns a configuration with safe defaults and caching disabled.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Header:    http.Header{},
		Timeout:   30 * time.Second,
		CacheTTL:  cache.DefaultTTL,
	}
}

// New creates a new Cronofy client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (baseURL.Scheme != "http" && baseURL.Scheme != "https") || baseURL.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) url (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	logger := logging.NewLogger("cronofy-client")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		config:     cfg,
		logger:     logger,
	}

	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis, cfg.CacheTTL)
		c.cacheScope = credentialScope(cfg.Header)
	}

	return c, nil
}

// credentialScope derives a cache scope from the Authorization header so that
// responses cached for one account are never served to another.
func credentialScope(header http.Header) string {
	auth := header.Get("Authorization")
	if auth == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(auth))
	return hex.EncodeToString(sum[:8])
}

// pageTokenLabel replaces the opaque token of a next_page path in metric labels.
const pageTokenLabel = ":token"

// metricRoute maps a request path to a bounded metric label. next_page links
// carry a unique token per page (/v1/events/pages/08a07b034306679e), which
// collapses to /v1/events/pages/:token.
func metricRoute(path string) string {
	prefix, token, found := strings.Cut(path, "/pages/")
	if !found || token == "" {
		return path
	}
	return prefix + "/pages/" + pageTokenLabel
}

// Do performs an HTTP request with caching and error classification.
// Responses with error statuses are returned to the caller, not converted to errors.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path
	route := metricRoute(endpoint)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(route).Observe(time.Since(startTime).Seconds())
	}()

	for key, values := range c.config.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	// Conditional request when a cached copy exists
	var cacheKey cache.Key
	var cachedEntry *cache.Entry
	if c.cache != nil {
		cacheKey = cache.Key{
			Host:     req.URL.Host,
			Endpoint: endpoint,
			Query:    req.URL.Query(),
			Scope:    c.cacheScope,
		}

		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		if entry != nil && cache.ShouldMakeConditionalRequest(entry) {
			cachedEntry = entry
			cache.AddConditionalHeaders(req, entry)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("etag", entry.ETag).
				Msg("Making conditional request")
		} else if entry != nil {
			c.logger.Debug().Str("endpoint", endpoint).Bool("cache_hit", true).Msg("Serving cached response")
			requestsTotal.WithLabelValues(route, "cached").Inc()
			return cache.EntryToResponse(entry), nil
		}
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing Cronofy request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(route, "network_error").Inc()
		return nil, &APIError{
			ErrorClass: ErrorClassNetwork,
			Message:    req.Method + " " + endpoint,
			Err:        err,
		}
	}

	requestsTotal.WithLabelValues(route, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
				}
			}
		}

		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry), nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		errClass := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Cronofy request error")
		return resp, nil
	}

	if resp.StatusCode == http.StatusOK && c.cache != nil {
		entry, err := cache.ResponseToEntry(resp, c.cache.DefaultTTL())
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Dur("ttl", entry.TTL()).
				Msg("Cached response")
		}
	}

	return resp, nil
}

// Get performs a GET request. ref is either a path relative to the base URL
// or an absolute URL such as a next_page link.
func (c *Client) Get(ctx context.Context, ref string) (*http.Response, error) {
	target, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

func (c *Client) resolve(ref string) (string, error) {
	u, err := c.baseURL.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", ref, err)
	}
	return u.String(), nil
}

// Close releases idle connections held by the HTTP client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// BaseURL returns the API root the client resolves paths against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cache returns the cache manager, or nil when caching is disabled.
func (c *Client) Cache() *cache.Manager {
	return c.cache
}
