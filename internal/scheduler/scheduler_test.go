package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sc2monitor/ingestion/internal/client"
	"sc2monitor/ingestion/internal/config"
	"sc2monitor/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory client.ConfigStore.
type fakeStore struct {
	m map[string]string
}

func (s *fakeStore) Get(_ context.Context, key string, _ bool) (string, error) {
	return s.m[key], nil
}

func (s *fakeStore) Set(_ context.Context, key, value string) error {
	s.m[key] = value
	return nil
}

func TestStopJoinsPollLoop(t *testing.T) {
	cfg := &config.Config{
		PollInterval:      time.Hour,
		SeasonRefreshCron: "0 3 * * *",
	}
	s := NewScheduler(cfg, nil, nil, nil)
	require.NoError(t, s.Start(context.Background()))

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	select {
	case <-s.pollDone:
	default:
		t.Fatal("Poll loop still running after Stop returned")
	}
}

func TestProfileDisplayName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"test-token"}`))
	})
	mux.HandleFunc("/sc2/metadata/profile/2/1/42", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "TestPlayer", "clanTag": "CLAN"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := &fakeStore{m: map[string]string{"api_key": "k", "api_secret": "s"}}
	apiClient := client.NewClient(store, client.Config{
		APIBaseURL:  srv.URL,
		AuthBaseURL: srv.URL,
	})
	require.NoError(t, apiClient.ReadConfig(context.Background()))

	cfg := &config.Config{CacheTTLMetadata: time.Hour}
	s := NewScheduler(cfg, apiClient, nil, nil)

	profile := models.ProfileRef{Server: models.ServerEurope, Realm: 1, ProfileID: 42}
	name, err := s.profileDisplayName(context.Background(), profile)
	require.NoError(t, err)
	assert.Equal(t, "[CLAN] TestPlayer", name)
}

func TestProfileDisplayName_LookupFailureIsNotFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"test-token"}`))
	})
	mux.HandleFunc("/sc2/metadata/profile/2/1/42", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := &fakeStore{m: map[string]string{"api_key": "k", "api_secret": "s"}}
	apiClient := client.NewClient(store, client.Config{
		APIBaseURL:  srv.URL,
		AuthBaseURL: srv.URL,
	})
	require.NoError(t, apiClient.ReadConfig(context.Background()))

	s := NewScheduler(&config.Config{}, apiClient, nil, nil)

	profile := models.ProfileRef{Server: models.ServerEurope, Realm: 1, ProfileID: 42}
	name, err := s.profileDisplayName(context.Background(), profile)
	require.NoError(t, err, "A failed metadata lookup falls back to the ladder name")
	assert.Empty(t, name)
}

func TestMetadataName(t *testing.T) {
	assert.Equal(t, "[CLAN] Name", metadataName(map[string]any{"name": "Name", "clanTag": "CLAN"}))
	assert.Equal(t, "Name", metadataName(map[string]any{"name": "Name"}))
	assert.Equal(t, "", metadataName(map[string]any{"clanTag": "CLAN"}))
	assert.Equal(t, "", metadataName(map[string]any{}))
}
