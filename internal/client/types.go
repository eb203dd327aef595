package client

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Typed shapes of the upstream ladder detail response. The executor returns a
// generic map; fetchers re-marshal it into these when the structure matters.

type ladderSnapshot struct {
	League        string       `json:"league"`
	RanksAndPools []rankEntry  `json:"ranksAndPools"`
	LadderTeams   []ladderTeam `json:"ladderTeams"`
}

// rankEntry claims, via its 1-based rank, which ladderTeam it belongs to.
// The claim is sometimes wrong; see reconcile.go.
type rankEntry struct {
	Rank int `json:"rank"`
	MMR  int `json:"mmr"`
}

type ladderTeam struct {
	TeamMembers   []teamMember `json:"teamMembers"`
	Wins          int          `json:"wins"`
	Losses        int          `json:"losses"`
	MMR           int          `json:"mmr"`
	JoinTimestamp int64        `json:"joinTimestamp"`
}

type teamMember struct {
	ID           int    `json:"id"`
	Realm        int    `json:"realm"`
	DisplayName  string `json:"displayName"`
	FavoriteRace string `json:"favoriteRace"`
}

// decodePayload re-marshals a generic payload map into a typed struct.
// Unknown keys (including the request_datetime stamp) are dropped.
func decodePayload(payload map[string]any, dst any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to re-marshal payload: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// intField reads a numeric field from a generic payload map. The API is
// inconsistent about number encoding (seasons carry startDate/endDate as
// strings), so both forms are accepted. Missing or malformed fields read as 0.
func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

// strField reads a string field from a generic payload map.
func strField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
