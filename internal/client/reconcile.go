package client

import (
	"time"

	"sc2monitor/ingestion/internal/metrics"
	"sc2monitor/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// The ladder detail endpoint returns two parallel arrays: per-rank MMR
// entries (ranksAndPools) and per-team records (ladderTeams). Each rank entry
// claims, through its 1-based rank, which team it belongs to, but the claim
// can be off-by-ordering or duplicated. The reconciler finds, for each rank
// entry, the team actually containing the target profile.

// reconciler tracks which team indices have been consumed and the watermark
// of the highest index matched by a forward scan. The watermark keeps the
// fallback scan linear overall when entries are mostly in order; the consumed
// set prevents double-assignment when ranks collide.
type reconciler struct {
	profileID int
	realm     int
	used      map[int]bool
	watermark int
}

func newReconciler(profile models.ProfileRef) *reconciler {
	return &reconciler{
		profileID: profile.ProfileID,
		realm:     profile.Realm,
		used:      make(map[int]bool),
		watermark: -1,
	}
}

// owns reports whether the team's first member is the target profile.
func (r *reconciler) owns(team ladderTeam) bool {
	if len(team.TeamMembers) == 0 {
		return false
	}
	member := team.TeamMembers[0]
	return member.ID == r.profileID && member.Realm == r.realm
}

// matchTeam resolves the team index for a rank entry. The claimed index
// (rank - 1) is accepted when it is in bounds, unconsumed and owned by the
// target profile. Otherwise the teams past the watermark are scanned forward
// and the first unconsumed owned team wins. Returns false when no team
// matches; that response is unusable for this player.
func (r *reconciler) matchTeam(teams []ladderTeam, rank int) (int, bool) {
	claimed := rank - 1
	if claimed >= 0 && claimed < len(teams) && !r.used[claimed] && r.owns(teams[claimed]) {
		r.used[claimed] = true
		return claimed, true
	}

	for idx := r.watermark + 1; idx < len(teams); idx++ {
		if r.used[idx] || !r.owns(teams[idx]) {
			continue
		}
		r.used[idx] = true
		r.watermark = idx
		return idx, true
	}

	return 0, false
}

// LadderScan is a finite, non-restartable iterator over the reconciled
// entries of one ladder snapshot, one per upstream rank entry in input order.
// Usage follows the usual scan pattern:
//
//	scan, err := c.GetLadderData(ctx, profile, ladderID)
//	...
//	for scan.Next() {
//	    entry := scan.Entry()
//	    ...
//	}
//	if err := scan.Err(); err != nil { ... }
//
// A reconciliation failure terminates the scan; entries produced before the
// failure remain valid.
type LadderScan struct {
	profile  models.ProfileRef
	ladderID int
	league   models.League
	snap     ladderSnapshot
	rec      *reconciler
	pos      int
	cur      models.LadderEntry
	err      error
}

// Next advances to the next reconciled entry. It returns false when the
// snapshot is exhausted or reconciliation fails; check Err afterwards.
func (s *LadderScan) Next() bool {
	if s.err != nil || s.pos >= len(s.snap.RanksAndPools) {
		return false
	}

	entry := s.snap.RanksAndPools[s.pos]
	idx, ok := s.rec.matchTeam(s.snap.LadderTeams, entry.Rank)
	if !ok {
		metrics.RecordReconcileFailure()
		s.err = &ReconcileError{
			LadderID: s.ladderID,
			Profile:  s.profile,
			Rank:     entry.Rank,
		}
		return false
	}

	team := s.snap.LadderTeams[idx]
	member := team.TeamMembers[0]

	mmr := entry.MMR
	if mmr != team.MMR {
		// The team record is ground truth when the two disagree.
		log.Warn().
			Int("ladder_id", s.ladderID).
			Str("profile", s.profile.String()).
			Int("rank_mmr", mmr).
			Int("team_mmr", team.MMR).
			Msg("MMR in ladder request does not match team record")
		metrics.RecordReconcileMismatch()
		mmr = team.MMR
	}

	s.cur = models.LadderEntry{
		MMR:      mmr,
		Race:     models.ParseRace(member.FavoriteRace),
		Games:    team.Wins + team.Losses,
		Wins:     team.Wins,
		Losses:   team.Losses,
		Name:     member.DisplayName,
		Joined:   time.Unix(team.JoinTimestamp, 0),
		LadderID: s.ladderID,
		League:   s.league,
	}
	s.pos++
	return true
}

// Entry returns the entry produced by the last successful Next call.
func (s *LadderScan) Entry() models.LadderEntry {
	return s.cur
}

// Err returns the terminal error of the scan, if any.
func (s *LadderScan) Err() error {
	return s.err
}
