package client

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"sc2monitor/ingestion/internal/models"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProfile = models.ProfileRef{Server: models.ServerEurope, Realm: 1, ProfileID: 42}

func team(memberID, realm int, race string, wins, losses, mmr int, joined int64) ladderTeam {
	return ladderTeam{
		TeamMembers: []teamMember{{
			ID:           memberID,
			Realm:        realm,
			DisplayName:  "Player",
			FavoriteRace: race,
		}},
		Wins:          wins,
		Losses:        losses,
		MMR:           mmr,
		JoinTimestamp: joined,
	}
}

func newTestScan(snap ladderSnapshot) *LadderScan {
	return &LadderScan{
		profile:  testProfile,
		ladderID: 300123,
		league:   models.ParseLeague(snap.League),
		snap:     snap,
		rec:      newReconciler(testProfile),
	}
}

// captureLogs redirects the global logger into a buffer for the duration of
// the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	old := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = old })
	return &buf
}

func TestLadderScan_DirectHit(t *testing.T) {
	snap := ladderSnapshot{
		League:        "diamond",
		RanksAndPools: []rankEntry{{Rank: 1, MMR: 3500}},
		LadderTeams:   []ladderTeam{team(42, 1, "Prot", 10, 5, 3500, 1000)},
	}

	scan := newTestScan(snap)
	require.True(t, scan.Next())
	entry := scan.Entry()

	assert.Equal(t, 3500, entry.MMR)
	assert.Equal(t, models.RaceProtoss, entry.Race)
	assert.Equal(t, 15, entry.Games)
	assert.Equal(t, 10, entry.Wins)
	assert.Equal(t, 5, entry.Losses)
	assert.Equal(t, time.Unix(1000, 0), entry.Joined)
	assert.Equal(t, 300123, entry.LadderID)
	assert.Equal(t, models.LeagueDiamond, entry.League)

	assert.False(t, scan.Next())
	assert.NoError(t, scan.Err())
}

func TestLadderScan_MMRMismatchPrefersTeamValue(t *testing.T) {
	logs := captureLogs(t)

	snap := ladderSnapshot{
		League:        "diamond",
		RanksAndPools: []rankEntry{{Rank: 1, MMR: 3500}},
		LadderTeams:   []ladderTeam{team(42, 1, "Prot", 10, 5, 3600, 1000)},
	}

	scan := newTestScan(snap)
	require.True(t, scan.Next())

	assert.Equal(t, 3600, scan.Entry().MMR, "Team record is ground truth")
	assert.Contains(t, logs.String(), "does not match", "Mismatch must be logged")
}

func TestReconciler_ForwardScanOnWrongClaim(t *testing.T) {
	// Rank claims index 0, but that team belongs to someone else; the target
	// sits at index 2.
	teams := []ladderTeam{
		team(7, 1, "Zerg", 1, 1, 3000, 0),
		team(8, 1, "Terran", 2, 2, 3100, 0),
		team(42, 1, "Prot", 3, 3, 3200, 0),
	}

	rec := newReconciler(testProfile)
	idx, ok := rec.matchTeam(teams, 1)
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestReconciler_ConsumedIndexForcesScan(t *testing.T) {
	// Both rank entries claim rank 1. The first consumes index 0; the second
	// must fall through to the scan and take index 1.
	teams := []ladderTeam{
		team(42, 1, "Prot", 1, 1, 3000, 0),
		team(42, 1, "Zerg", 2, 2, 3100, 0),
	}

	rec := newReconciler(testProfile)
	first, ok := rec.matchTeam(teams, 1)
	require.True(t, ok)
	assert.Equal(t, 0, first)

	second, ok := rec.matchTeam(teams, 1)
	require.True(t, ok)
	assert.Equal(t, 1, second, "A consumed index must never be reassigned")
}

func TestReconciler_OutOfBoundsClaim(t *testing.T) {
	teams := []ladderTeam{team(42, 1, "Prot", 1, 1, 3000, 0)}

	rec := newReconciler(testProfile)
	idx, ok := rec.matchTeam(teams, 9)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestReconciler_FirstMatchTieBreak(t *testing.T) {
	// Two unconsumed teams past the watermark match the target; the first
	// one wins.
	teams := []ladderTeam{
		team(7, 1, "Zerg", 1, 1, 3000, 0),
		team(42, 1, "Prot", 2, 2, 3100, 0),
		team(42, 1, "Terran", 3, 3, 3200, 0),
	}

	rec := newReconciler(testProfile)
	idx, ok := rec.matchTeam(teams, 1)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestReconciler_RealmMustMatch(t *testing.T) {
	teams := []ladderTeam{team(42, 2, "Prot", 1, 1, 3000, 0)}

	rec := newReconciler(testProfile)
	_, ok := rec.matchTeam(teams, 1)
	assert.False(t, ok, "Same id on a different realm is a different player")
}

func TestLadderScan_NoMatchFails(t *testing.T) {
	snap := ladderSnapshot{
		League:        "gold",
		RanksAndPools: []rankEntry{{Rank: 1, MMR: 2800}},
		LadderTeams:   []ladderTeam{team(7, 1, "Zerg", 1, 1, 2800, 0)},
	}

	scan := newTestScan(snap)
	assert.False(t, scan.Next())

	var recErr *ReconcileError
	require.True(t, errors.As(scan.Err(), &recErr))
	assert.Equal(t, 300123, recErr.LadderID)
	assert.Equal(t, testProfile, recErr.Profile)
}

func TestLadderScan_OrderAndEarlyTermination(t *testing.T) {
	captureLogs(t)

	// Three rank entries; the third one cannot be placed. The first two
	// must still come out, in input order.
	snap := ladderSnapshot{
		League: "master",
		RanksAndPools: []rankEntry{
			{Rank: 1, MMR: 4000},
			{Rank: 2, MMR: 3900},
			{Rank: 3, MMR: 3800},
		},
		LadderTeams: []ladderTeam{
			team(42, 1, "Prot", 10, 1, 4000, 0),
			team(42, 1, "Zerg", 8, 3, 3900, 0),
			team(7, 1, "Terran", 6, 5, 3800, 0),
		},
	}

	scan := newTestScan(snap)
	var mmrs []int
	for scan.Next() {
		mmrs = append(mmrs, scan.Entry().MMR)
	}

	assert.Equal(t, []int{4000, 3900}, mmrs)
	var recErr *ReconcileError
	require.True(t, errors.As(scan.Err(), &recErr))
	assert.Equal(t, 3, recErr.Rank)

	assert.False(t, scan.Next(), "A failed scan stays terminated")
}
