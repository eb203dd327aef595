package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ConfigRepository is the key/value configuration store backing the API
// client: api_key, api_secret and the cached access_token live here so they
// survive restarts and can be rotated out-of-band.
type ConfigRepository struct {
	db *Database
}

// Get returns the value stored under key. When the key is absent, a missing
// value is an error only if required is true; otherwise the empty string is
// returned.
func (r *ConfigRepository) Get(ctx context.Context, key string, required bool) (string, error) {
	query := `SELECT value FROM config WHERE key = $1`

	var value string
	err := r.db.Pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		if required {
			return "", fmt.Errorf("config key not found: %s", key)
		}
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get config %s: %w", key, err)
	}

	return value, nil
}

// Set stores value under key, overwriting any previous value.
func (r *ConfigRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO config (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`

	if _, err := r.db.Pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}

	log.Debug().Str("key", key).Msg("Config value stored")
	return nil
}
