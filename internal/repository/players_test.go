//go:build integration

package repository

import (
	"testing"

	"sc2monitor/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerRepository_Upsert(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	player := &models.Player{
		PlayerID: 1234567,
		Realm:    1,
		Server:   models.ServerEurope,
		Name:     "TestPlayer",
		Race:     models.RaceProtoss,
		LadderID: 300001,
		League:   models.LeagueDiamond,
		MMR:      3500,
		Wins:     10,
		Losses:   5,
	}

	err := db.Players.Upsert(ctx, player)
	require.NoError(t, err, "Should insert player")
	assert.NotZero(t, player.ID, "Should assign database id")

	// Same profile, same race: update in place
	player.MMR = 3550
	player.Wins = 11
	err = db.Players.Upsert(ctx, player)
	require.NoError(t, err, "Should update player")

	retrieved, err := db.Players.GetByID(ctx, player.ID)
	require.NoError(t, err, "Should retrieve player")
	assert.Equal(t, 3550, retrieved.MMR)
	assert.Equal(t, 11, retrieved.Wins)

	// Same profile, different race: separate row
	zergRow := &models.Player{
		PlayerID: player.PlayerID,
		Realm:    player.Realm,
		Server:   player.Server,
		Name:     player.Name,
		Race:     models.RaceZerg,
		LadderID: 300002,
		League:   models.LeaguePlatinum,
		MMR:      3100,
	}
	err = db.Players.Upsert(ctx, zergRow)
	require.NoError(t, err, "Should insert second race row")
	assert.NotEqual(t, player.ID, zergRow.ID, "Race rows should be distinct")
}

func TestPlayerRepository_ListProfiles(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	rows := []*models.Player{
		{PlayerID: 777, Realm: 1, Server: models.ServerEurope, Race: models.RaceProtoss},
		{PlayerID: 777, Realm: 1, Server: models.ServerEurope, Race: models.RaceZerg},
		{PlayerID: 888, Realm: 2, Server: models.ServerAmerica, Race: models.RaceTerran},
	}
	for _, row := range rows {
		require.NoError(t, db.Players.Upsert(ctx, row))
	}

	profiles, err := db.Players.ListProfiles(ctx)
	require.NoError(t, err, "Should list profiles")

	// Both race rows of profile 777 collapse into one entry
	count := make(map[models.ProfileRef]int)
	for _, p := range profiles {
		count[p]++
	}
	assert.Equal(t, 1, count[models.ProfileRef{Server: models.ServerEurope, Realm: 1, ProfileID: 777}])
	assert.Equal(t, 1, count[models.ProfileRef{Server: models.ServerAmerica, Realm: 2, ProfileID: 888}])
}
