// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/ytnews-tui/internal/cache"
	"github.com/jeranaias/ytnews-tui/internal/config"
)

// Configuration constants for the YTNews API.
const (
	// DefaultBaseURL is the API root of a local development backend.
	DefaultBaseURL = "http://localhost:8000/api/v1"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of attempts for idempotent requests.
	DefaultMaxRetries = 3

	// DefaultCacheTTL is how long GET responses stay cached.
	DefaultCacheTTL = time.Minute

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024
)

// =============================================================================
// TOKEN SOURCE
// =============================================================================

// TokenSource supplies the bearer token for each request. An empty token
// sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns itself.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// TokenFunc adapts a function to TokenSource. It lets a client be built
// before the session holder that will supply its tokens.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// =============================================================================
// CLIENT
// =============================================================================

// Options configures a Client. Zero values take the package defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string

	// RateLimit is requests per second; zero disables client-side limiting.
	RateLimit float64
	RateBurst int

	Tokens   TokenSource
	Cache    cache.Cache
	CacheTTL time.Duration

	HTTPClient *http.Client
}

// OptionsFromConfig maps the [api] and [cache] config sections to Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.Timeout(),
		MaxRetries: cfg.API.MaxRetries,
		UserAgent:  cfg.API.UserAgent,
		RateLimit:  cfg.API.RateLimitRPS,
		RateBurst:  cfg.API.RateBurst,
		CacheTTL:   cfg.CacheTTL(),
	}
}

// Client talks to the YTNews API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxRetries int
	limiter    *rate.Limiter
	tokens     TokenSource
	cache      cache.Cache
	cacheTTL   time.Duration
	backoff    func(attempt int) time.Duration

	Auth          *AuthService
	Users         *UsersService
	Announcements *AnnouncementsService
	Categories    *CategoriesService
	Events        *EventsService
	Organizations *OrganizationsService
	Employees     *EmployeesService
	JoinRequests  *JoinRequestsService
	Upload        *UploadService
}

// NewClient creates a client from opts.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ytnews-tui"
	}
	if opts.Tokens == nil {
		opts.Tokens = StaticToken("")
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: httpClient,
		userAgent:  opts.UserAgent,
		maxRetries: opts.MaxRetries,
		tokens:     opts.Tokens,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		backoff:    calculateBackoff,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	c.Auth = &AuthService{c}
	c.Users = &UsersService{c}
	c.Announcements = &AnnouncementsService{c}
	c.Categories = &CategoriesService{c}
	c.Events = &EventsService{c}
	c.Organizations = &OrganizationsService{c}
	c.Employees = &EmployeesService{c}
	c.JoinRequests = &JoinRequestsService{c}
	c.Upload = &UploadService{c}
	return c
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Cache returns the response cache (never nil).
func (c *Client) Cache() cache.Cache { return c.cache }

// ClearCache drops every cached response.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

// ClaimCache hands the cache to owner, dropping responses fetched for
// anyone else. A persistent cache keeps its owner between runs.
func (c *Client) ClaimCache(ctx context.Context, owner string) (bool, error) {
	return cache.Claim(ctx, c.cache, owner)
}

// Ping checks that the API root answers at all. Any HTTP response counts
// as reachable.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/categories/?limit=1", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	resp.Body.Close()
	return time.Since(start), nil
}

// =============================================================================
// REQUESTS
// =============================================================================

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values

	// body is JSON-encoded unless raw is set.
	body        any
	raw         []byte
	contentType string

	// token overrides the TokenSource when non-empty.
	token string
}

// do sends req and decodes a 2xx JSON body into out (which may be nil).
// Idempotent requests are retried on 5xx, 429 and transport errors.
func (c *Client) do(ctx context.Context, req request, out any) error {
	body, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	payload := req.raw
	contentType := req.contentType
	if payload == nil && req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		payload = b
		contentType = "application/json"
	}

	attempts := 1
	if idempotent(req.method) {
		attempts = c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		body, err := c.attempt(ctx, req, payload, contentType)
		if err == nil {
			return body, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	if attempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) attempt(ctx context.Context, req request, payload []byte, contentType string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	token := req.token
	if token == "" {
		token = c.tokens.Token()
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	logRequest(httpReq, requestID)
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()
	logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Status:    resp.StatusCode,
			Detail:    parseDetail(body),
			Method:    req.method,
			Path:      req.path,
			RequestID: requestID,
		}
	}
	return body, nil
}

// getCached serves a GET from the cache when possible and stores the
// response body under key otherwise.
func (c *Client) getCached(ctx context.Context, key cache.Key, req request, out any) error {
	if !bypassCache(ctx) {
		if data, err := c.cache.Get(ctx, key); err == nil {
			if err := decode(data, out); err == nil {
				return nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Printf("API cache read %s: %v", key, err)
		}
	}

	req.method = http.MethodGet
	body, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if err := decode(body, out); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
		log.Printf("API cache write %s: %v", key, err)
	}
	return nil
}

// invalidate drops cached keys after a successful mutation. The mutation
// already happened, so failures are logged rather than returned.
func (c *Client) invalidate(ctx context.Context, keys ...cache.Key) {
	if err := c.cache.Invalidate(ctx, keys...); err != nil {
		log.Printf("API cache invalidate: %v", err)
	}
}

// =============================================================================
// CACHE BYPASS
// =============================================================================

type noCacheKey struct{}

// NoCache returns a context whose GETs skip the cache read. The fresh
// response still replaces the cached one.
func NoCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, noCacheKey{}, true)
}

func bypassCache(ctx context.Context) bool {
	v, _ := ctx.Value(noCacheKey{}).(bool)
	return v
}

// =============================================================================
// HELPERS
// =============================================================================

// transportError marks a failure before any HTTP response arrived.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "request failed: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// isRetryable determines if an error should trigger a retry.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServer) {
		return true
	}
	var te *transportError
	return errors.As(err, &te)
}

// calculateBackoff returns the delay to wait before the next retry.
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// logRequest never logs headers (they carry the token) or bodies
// (they carry passwords).
func logRequest(req *http.Request, requestID string) {
	log.Printf("API Request: %s %s [%s]", req.Method, req.URL.Path, requestID)
}

func logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %s (%v)", resp.Status, duration)
}

// pageQuery builds skip/limit parameters.
func pageQuery(skip, limit int) url.Values {
	q := url.Values{}
	q.Set("skip", fmt.Sprint(skip))
	q.Set("limit", fmt.Sprint(limit))
	return q
}
