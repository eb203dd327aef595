package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Season is one ladder season on a regional server.
type Season struct {
	ID       int       `db:"id"`
	SeasonID int       `db:"season_id"`
	Server   Server    `db:"server"`
	Year     int       `db:"year"`
	Number   int       `db:"number"`
	Start    time.Time `db:"start_time"`
	End      time.Time `db:"end_time"`
}

// Player is one monitored profile/race combination. A profile that plays
// multiple races on the same ladder shows up as multiple rows, which is why
// the unique key is (player_id, realm, server, race).
type Player struct {
	ID               int           `db:"id"`
	PlayerID         int           `db:"player_id"`
	Realm            int           `db:"realm"`
	Server           Server        `db:"server"`
	Name             string        `db:"name"`
	Race             Race          `db:"race"`
	LadderID         int           `db:"ladder_id"`
	League           League        `db:"league"`
	MMR              int           `db:"mmr"`
	Wins             int           `db:"wins"`
	Losses           int           `db:"losses"`
	Refreshed        time.Time     `db:"refreshed"`
	LastPlayed       sql.NullTime  `db:"last_played"`
	LadderJoined     sql.NullTime  `db:"ladder_joined"`
	LastActiveSeason sql.NullInt32 `db:"last_active_season"`
}

// Profile returns the upstream identity of the player, independent of race.
func (p *Player) Profile() ProfileRef {
	return ProfileRef{Server: p.Server, Realm: p.Realm, ProfileID: p.PlayerID}
}

// ProfileRef uniquely identifies a player profile on the upstream service.
type ProfileRef struct {
	Server    Server
	Realm     int
	ProfileID int
}

func (p ProfileRef) String() string {
	return fmt.Sprintf("%s/%d/%d", p.Server.Short(), p.Realm, p.ProfileID)
}

// Match is one stored ladder game for a player.
type Match struct {
	ID        int       `db:"id"`
	PlayerID  int       `db:"player_id"`
	Result    Result    `db:"result"`
	PlayedAt  time.Time `db:"played_at"`
	MMR       int       `db:"mmr"`
	MMRChange int       `db:"mmr_change"`
	Guess     bool      `db:"guess"`
}

// MatchResult is one entry of the upstream legacy match history:
// just an outcome and when it happened.
type MatchResult struct {
	Result   Result
	PlayedAt time.Time
}

// LadderEntry is the reconciled per-player record for one ladder: the rank
// entry's MMR joined with the owning team's statistics. Produced by the
// ladder reconciliation in internal/client and handed to storage as-is.
type LadderEntry struct {
	MMR      int
	Race     Race
	Games    int
	Wins     int
	Losses   int
	Name     string
	Joined   time.Time
	LadderID int
	League   League
}

// LogEntry is one row of the database log sink.
type LogEntry struct {
	ID       int       `db:"id"`
	Logger   string    `db:"logger"`
	Level    string    `db:"level"`
	Trace    string    `db:"trace"`
	Message  string    `db:"msg"`
	LoggedAt time.Time `db:"logged_at"`
}
