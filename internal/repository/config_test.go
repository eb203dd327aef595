//go:build integration

package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigRepository_SetGet(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err := db.Config.Set(ctx, "api_key", "test-key")
	require.NoError(t, err, "Should store config value")

	value, err := db.Config.Get(ctx, "api_key", true)
	require.NoError(t, err, "Should read back config value")
	assert.Equal(t, "test-key", value)

	// Overwrite
	err = db.Config.Set(ctx, "api_key", "rotated-key")
	require.NoError(t, err, "Should overwrite config value")

	value, err = db.Config.Get(ctx, "api_key", true)
	require.NoError(t, err)
	assert.Equal(t, "rotated-key", value)
}

func TestConfigRepository_Missing(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// Optional keys read as empty
	value, err := db.Config.Get(ctx, "no_such_key", false)
	require.NoError(t, err, "Optional missing key should not error")
	assert.Empty(t, value)

	// Required keys error
	_, err = db.Config.Get(ctx, "no_such_key", true)
	assert.Error(t, err, "Required missing key should error")
}
