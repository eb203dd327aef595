package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"sc2monitor/ingestion/internal/metrics"

	"github.com/rs/zerolog/log"
)

const (
	defaultAPIBaseURL  = "https://eu.api.blizzard.com"
	defaultAuthBaseURL = "https://eu.battle.net"

	// maxAttempts bounds the retry loop of apiRequest. Only gateway timeouts
	// and undecodable bodies are retried; everything else is terminal.
	maxAttempts = 10
)

// ConfigStore is the key/value configuration collaborator. The client reads
// api_key, api_secret and access_token from it and writes access_token back
// after a refresh.
type ConfigStore interface {
	// Get returns the value for key. A missing key is an error only when
	// required is true; otherwise the empty string is returned.
	Get(ctx context.Context, key string, required bool) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Config holds client configuration.
type Config struct {
	// APIBaseURL and AuthBaseURL override the upstream hosts, mainly for tests.
	APIBaseURL  string
	AuthBaseURL string
	Timeout     time.Duration
}

// Client is the Battle.net SC2 API client: OAuth token lifecycle, the retrying
// request primitive and the typed fetchers built on top of it.
type Client struct {
	httpClient  *http.Client
	store       ConfigStore
	apiBaseURL  string
	authBaseURL string

	// Token state. The mutex serializes the check-then-refresh sequence so
	// that concurrent fetches with a stale token collapse into one refresh.
	mu           sync.Mutex
	key          string
	secret       string
	accessToken  string
	tokenChecked bool

	requestCount atomic.Int64
	retryCount   atomic.Int64
}

// NewClient creates a new API client backed by the given config store.
func NewClient(store ConfigStore, cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = defaultAuthBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		store:       store,
		apiBaseURL:  cfg.APIBaseURL,
		authBaseURL: cfg.AuthBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// RequestCount returns the number of HTTP requests issued so far, retries
// included.
func (c *Client) RequestCount() int64 {
	return c.requestCount.Load()
}

// RetryCount returns the number of transient failures that were retried.
func (c *Client) RetryCount() int64 {
	return c.retryCount.Load()
}

type requestOption func(*http.Request)

func withBasicAuth(user, pass string) requestOption {
	return func(req *http.Request) {
		req.SetBasicAuth(user, pass)
	}
}

// apiRequest performs a GET with bounded retry over transient failures.
//
// A 504 response or a body that does not decode as a JSON object is treated
// as transient and retried, up to maxAttempts in total. Any other response is
// terminal: the decoded payload is stamped with the completion time and
// returned together with the status, success or not. If every attempt fails
// on a transient error the call degrades to an empty payload and status 0
// with a warning log; callers must check the status before using the payload.
//
// A transport-level failure (connection error, context cancellation) is
// returned as an error and is not retried here.
func (c *Client) apiRequest(ctx context.Context, rawURL string, params url.Values, opts ...requestOption) (map[string]any, int, error) {
	var lastTransient string
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		if params != nil {
			req.URL.RawQuery = params.Encode()
		}
		for _, opt := range opts {
			opt(req)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		c.requestCount.Add(1)
		if err != nil {
			metrics.RecordAPIRequest("transport_error", time.Since(start).Seconds())
			return nil, 0, fmt.Errorf("api request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			metrics.RecordAPIRequest("read_error", time.Since(start).Seconds())
			return nil, 0, fmt.Errorf("failed to read response body: %w", err)
		}
		metrics.RecordAPIRequest(fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())

		if resp.StatusCode == http.StatusGatewayTimeout {
			lastTransient = "API timeout"
			c.retryCount.Add(1)
			metrics.RecordAPIRetry("timeout")
			continue
		}

		payload := make(map[string]any)
		if err := json.Unmarshal(body, &payload); err != nil {
			lastTransient = "unable to decode JSON response"
			c.retryCount.Add(1)
			metrics.RecordAPIRetry("decode")
			continue
		}

		payload["request_datetime"] = time.Now()
		return payload, resp.StatusCode, nil
	}

	log.Warn().
		Str("url", rawURL).
		Int("attempts", maxAttempts).
		Msg(lastTransient)
	return map[string]any{}, 0, nil
}
