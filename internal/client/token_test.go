package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authServer fakes the OAuth endpoints: token issuance counts its hits and
// the check endpoint accepts only tokens in validTokens.
type authServer struct {
	srv         *httptest.Server
	tokenHits   atomic.Int64
	checkHits   atomic.Int64
	tokenStatus int
	issued      string
	validTokens map[string]bool
}

func newAuthServer(t *testing.T) *authServer {
	a := &authServer{
		tokenStatus: http.StatusOK,
		issued:      "fresh-token",
		validTokens: make(map[string]bool),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		a.tokenHits.Add(1)
		if user, pass, ok := r.BasicAuth(); !ok || user != "test-key" || pass != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if a.tokenStatus != http.StatusOK {
			w.WriteHeader(a.tokenStatus)
			w.Write([]byte(`{}`))
			return
		}
		fmt.Fprintf(w, `{"access_token":%q}`, a.issued)
	})
	mux.HandleFunc("/oauth/check_token", func(w http.ResponseWriter, r *http.Request) {
		a.checkHits.Add(1)
		if !a.validTokens[r.URL.Query().Get("token")] {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	})
	a.srv = httptest.NewServer(mux)
	t.Cleanup(a.srv.Close)
	return a
}

func credStore() *memStore {
	return newMemStore(map[string]string{
		"api_key":    "test-key",
		"api_secret": "test-secret",
	})
}

func TestGetAccessToken_SingleFlight(t *testing.T) {
	auth := newAuthServer(t)
	store := credStore()
	c := newTestClient(auth.srv, store)
	require.NoError(t, c.ReadConfig(context.Background()))

	const callers = 8
	tokens := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := c.GetAccessToken(context.Background())
			assert.NoError(t, err)
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), auth.tokenHits.Load(),
		"Concurrent callers must collapse into a single refresh")
	for _, token := range tokens {
		assert.Equal(t, "fresh-token", token)
	}
	assert.Equal(t, "fresh-token", store.get("access_token"),
		"New token must be persisted to the config store")
}

func TestGetAccessToken_ValidCachedTokenIsKept(t *testing.T) {
	auth := newAuthServer(t)
	auth.validTokens["cached-token"] = true
	store := credStore()
	store.m["access_token"] = "cached-token"

	c := newTestClient(auth.srv, store)
	require.NoError(t, c.ReadConfig(context.Background()))

	token, err := c.GetAccessToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "cached-token", token)
	assert.Equal(t, int64(1), auth.checkHits.Load(), "Unchecked token is validated once")
	assert.Zero(t, auth.tokenHits.Load(), "Valid token must not trigger a refresh")

	// Second call: the token is now checked, no further validation.
	_, err = c.GetAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), auth.checkHits.Load())
}

func TestGetAccessToken_RefreshesRejectedToken(t *testing.T) {
	auth := newAuthServer(t)
	store := credStore()
	store.m["access_token"] = "stale-token" // not in validTokens

	c := newTestClient(auth.srv, store)
	require.NoError(t, c.ReadConfig(context.Background()))

	token, err := c.GetAccessToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, int64(1), auth.tokenHits.Load())
	assert.Equal(t, "fresh-token", store.get("access_token"))
}

func TestGetAccessToken_AuthError(t *testing.T) {
	auth := newAuthServer(t)
	auth.tokenStatus = http.StatusForbidden

	c := newTestClient(auth.srv, credStore())
	require.NoError(t, c.ReadConfig(context.Background()))

	_, err := c.GetAccessToken(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusForbidden, authErr.Status)
}

func TestReadConfig_TokenChangeResetsChecked(t *testing.T) {
	auth := newAuthServer(t)
	auth.validTokens["first-token"] = true
	auth.validTokens["rotated-token"] = true
	store := credStore()
	store.m["access_token"] = "first-token"

	c := newTestClient(auth.srv, store)
	require.NoError(t, c.ReadConfig(context.Background()))

	_, err := c.GetAccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), auth.checkHits.Load())

	// Token rotated out-of-band: re-reading config forces revalidation.
	store.m["access_token"] = "rotated-token"
	require.NoError(t, c.ReadConfig(context.Background()))

	token, err := c.GetAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated-token", token)
	assert.Equal(t, int64(2), auth.checkHits.Load(), "Changed token must be validated again")
	assert.Zero(t, auth.tokenHits.Load())
}

func TestCheckAccessToken(t *testing.T) {
	auth := newAuthServer(t)
	auth.validTokens["good"] = true

	c := newTestClient(auth.srv, credStore())

	assert.True(t, c.CheckAccessToken(context.Background(), "good"))
	assert.False(t, c.CheckAccessToken(context.Background(), "bad"))
	assert.Equal(t, int64(2), c.RequestCount(), "Validation calls count toward the request counter")
}
