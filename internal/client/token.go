package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"sc2monitor/ingestion/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Configuration keys read from and written to the ConfigStore.
const (
	configKeyAPIKey      = "api_key"
	configKeyAPISecret   = "api_secret"
	configKeyAccessToken = "access_token"
)

// ReadConfig re-reads credentials and the cached access token from the config
// store. A token value that differs from the cached one resets the checked
// flag, forcing revalidation on the next GetAccessToken call.
func (c *Client) ReadConfig(ctx context.Context) error {
	key, err := c.store.Get(ctx, configKeyAPIKey, false)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", configKeyAPIKey, err)
	}
	secret, err := c.store.Get(ctx, configKeyAPISecret, false)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", configKeyAPISecret, err)
	}
	token, err := c.store.Get(ctx, configKeyAccessToken, false)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", configKeyAccessToken, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
	c.secret = secret
	if c.accessToken != token {
		c.accessToken = token
		c.tokenChecked = false
	}
	return nil
}

// GetAccessToken returns a validated access token, refreshing it if needed.
// This is the single entry point used by the fetchers. The whole
// check-then-refresh sequence runs under the token mutex, so N concurrent
// callers with a stale or absent token trigger exactly one refresh.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken == "" || (!c.tokenChecked && !c.checkAccessToken(ctx, c.accessToken)) {
		if err := c.refreshAccessToken(ctx); err != nil {
			return "", err
		}
	}
	return c.accessToken, nil
}

// CheckAccessToken validates a token against the OAuth check endpoint and
// records the outcome in the checked flag.
func (c *Client) CheckAccessToken(ctx context.Context, token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkAccessToken(ctx, token)
}

// checkAccessToken is the unlocked one-shot validation call. Callers must
// hold c.mu. Unlike apiRequest it performs a single attempt; a token that
// fails to validate is simply refreshed.
func (c *Client) checkAccessToken(ctx context.Context, token string) bool {
	checkURL := c.authBaseURL + "/oauth/check_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
	if err != nil {
		c.tokenChecked = false
		return false
	}
	req.URL.RawQuery = url.Values{"token": {token}}.Encode()

	resp, err := c.httpClient.Do(req)
	c.requestCount.Add(1)
	if err != nil {
		c.tokenChecked = false
		return false
	}
	resp.Body.Close()

	c.tokenChecked = resp.StatusCode == http.StatusOK
	return c.tokenChecked
}

// refreshAccessToken requests a brand-new token via the OAuth client
// credentials grant and persists it to the config store. Callers must hold
// c.mu; the lock is intentionally held across this one network call to keep
// the refresh single-flight.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	payload, status, err := c.apiRequest(ctx,
		c.authBaseURL+"/oauth/token",
		url.Values{"grant_type": {"client_credentials"}},
		withBasicAuth(c.key, c.secret))
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	if status != http.StatusOK {
		return &AuthError{Status: status}
	}

	token, _ := payload["access_token"].(string)
	c.accessToken = token
	c.tokenChecked = true
	metrics.RecordTokenRefresh()

	if err := c.store.Set(ctx, configKeyAccessToken, token); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	log.Info().Msg("New access token received")
	return nil
}
