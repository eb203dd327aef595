package models

// Enumerated values used by the Battle.net SC2 API. The upstream vocabulary is
// extensible, so every parser here is total: codes we do not recognize map to
// the documented sentinel (Unknown, Random, Unranked) instead of failing.

// Result is the outcome of a single ladder match.
type Result int

const (
	ResultUnknown Result = 0
	ResultWin     Result = 1
	ResultLoss    Result = 2
	ResultTie     Result = 3
)

// ParseResult maps an upstream decision string ("Win", "Loss", "Tie") to a
// Result using the first-letter rule. Anything else is ResultUnknown.
func ParseResult(s string) Result {
	if s == "" {
		return ResultUnknown
	}
	switch s[0] {
	case 'W', 'w':
		return ResultWin
	case 'L', 'l':
		return ResultLoss
	case 'T', 't':
		return ResultTie
	}
	return ResultUnknown
}

// ResultFromCode maps the legacy integer decision code (1 win, -1 loss, 0 tie).
func ResultFromCode(code int) Result {
	switch code {
	case 1:
		return ResultWin
	case -1:
		return ResultLoss
	case 0:
		return ResultTie
	}
	return ResultUnknown
}

// Change returns the win/loss contribution of the result (+1, -1 or 0).
func (r Result) Change() float64 {
	switch r {
	case ResultWin:
		return 1.0
	case ResultLoss:
		return -1.0
	}
	return 0.0
}

func (r Result) String() string {
	switch r {
	case ResultWin:
		return "Win"
	case ResultLoss:
		return "Loss"
	case ResultTie:
		return "Tie"
	}
	return "Unknown"
}

// Short returns the single-letter form (W/L/D/U).
func (r Result) Short() string {
	switch r {
	case ResultWin:
		return "W"
	case ResultLoss:
		return "L"
	case ResultTie:
		return "D"
	}
	return "U"
}

// Race is a player's favorite race on a ladder.
type Race int

const (
	RaceRandom  Race = 0
	RaceProtoss Race = 1
	RaceTerran  Race = 2
	RaceZerg    Race = 3
)

// ParseRace maps an upstream race string ("Protoss", "Prot", "terran", ...)
// using the first-letter rule. Empty or unrecognized values fall back to
// RaceRandom, the API's default.
func ParseRace(s string) Race {
	if s == "" {
		return RaceRandom
	}
	switch s[0] {
	case 'P', 'p':
		return RaceProtoss
	case 'T', 't':
		return RaceTerran
	case 'Z', 'z':
		return RaceZerg
	}
	return RaceRandom
}

func (r Race) String() string {
	switch r {
	case RaceProtoss:
		return "Protoss"
	case RaceTerran:
		return "Terran"
	case RaceZerg:
		return "Zerg"
	}
	return "Random"
}

// Short returns the single-letter form (P/T/Z/R).
func (r Race) Short() string {
	switch r {
	case RaceProtoss:
		return "P"
	case RaceTerran:
		return "T"
	case RaceZerg:
		return "Z"
	}
	return "R"
}

// Server is a Battle.net regional server.
type Server int

const (
	ServerUnknown Server = 0
	ServerAmerica Server = 1
	ServerEurope  Server = 2
	ServerKorea   Server = 3
)

// ServerFromID maps the numeric region id used in profile URLs and API paths.
// Ids outside the known set map to ServerUnknown.
func ServerFromID(id int) Server {
	switch id {
	case 1:
		return ServerAmerica
	case 2:
		return ServerEurope
	case 3:
		return ServerKorea
	}
	return ServerUnknown
}

// ID returns the numeric region id used in API URLs.
func (s Server) ID() int {
	return int(s)
}

func (s Server) String() string {
	switch s {
	case ServerAmerica:
		return "America"
	case ServerEurope:
		return "Europe"
	case ServerKorea:
		return "Korea"
	}
	return "Unknown"
}

// Short returns the region code (us/eu/kr).
func (s Server) Short() string {
	switch s {
	case ServerAmerica:
		return "us"
	case ServerEurope:
		return "eu"
	case ServerKorea:
		return "kr"
	}
	return ""
}

// League is a ranked ladder league tier.
type League int

const (
	LeagueUnranked    League = -1
	LeagueBronze      League = 0
	LeagueSilver      League = 1
	LeagueGold        League = 2
	LeaguePlatinum    League = 3
	LeagueDiamond     League = 4
	LeagueMaster      League = 5
	LeagueGrandmaster League = 6
)

// ParseLeague maps an upstream league string ("bronze", "Grandmaster", ...)
// using the first-letter rule. Empty or unrecognized values fall back to
// LeagueUnranked. Note "gold" vs "grandmaster" share a first letter; the
// second letter disambiguates.
func ParseLeague(s string) League {
	if s == "" {
		return LeagueUnranked
	}
	switch s[0] {
	case 'B', 'b':
		return LeagueBronze
	case 'S', 's':
		return LeagueSilver
	case 'G', 'g':
		if len(s) > 1 && (s[1] == 'r' || s[1] == 'R') {
			return LeagueGrandmaster
		}
		return LeagueGold
	case 'P', 'p':
		return LeaguePlatinum
	case 'D', 'd':
		return LeagueDiamond
	case 'M', 'm':
		return LeagueMaster
	case 'U', 'u':
		return LeagueUnranked
	}
	return LeagueUnranked
}

func (l League) String() string {
	switch l {
	case LeagueBronze:
		return "Bronze"
	case LeagueSilver:
		return "Silver"
	case LeagueGold:
		return "Gold"
	case LeaguePlatinum:
		return "Platinum"
	case LeagueDiamond:
		return "Diamond"
	case LeagueMaster:
		return "Master"
	case LeagueGrandmaster:
		return "Grandmaster"
	}
	return "Unranked"
}
