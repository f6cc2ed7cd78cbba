package store

import "time"

// Player is a crawled profile. Pid is globally unique across regions.
type Player struct {
	Pid            string
	SummonerID     string
	AccountID      string
	DisplayName    string
	ProfileIconID  int
	Level          int
	Region         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Match is a single game. Presence of a Match row implies all of its teams
// and participants were written in the same transaction.
type Match struct {
	MatchID         string
	GameCreation    int64
	GameEndTimestamp int64
	GameDuration    int
	QueueID         int
	GameMode        string
	MapID           int
	PlatformID      string
	GameVersion     string
	Region          string
}

// Participant is one player's performance in one match.
type Participant struct {
	MatchID           string
	Pid               string
	DisplayName       string
	ChampionID        int
	ChampionName      string
	TeamID            int
	Position          string
	Kills             int
	Deaths            int
	Assists           int
	DamageDealt       int
	DamageToChampions int
	DamageTaken       int
	GoldEarned        int
	GoldSpent         int
	TurretKills       int
	InhibitorKills    int
	MinionsKilled     int
	NeutralMinions    int
	ChampionLevel     int
	Items             [7]int
	SummonerSpells    [2]int
	RuneTrees         [2]int
	Win               bool
	FirstBloodKill    bool
	FirstTowerKill    bool
}

// Team is one side's outcome and objective counters for a match.
type Team struct {
	MatchID         string
	TeamID          int
	Win             bool
	FirstBaron      bool
	FirstDragon     bool
	FirstInhibitor  bool
	FirstRiftHerald bool
	FirstTower      bool
	BaronKills      int
	DragonKills     int
	InhibitorKills  int
	RiftHeraldKills int
	TowerKills      int
}

// Ban is a per-pick-turn champion ban. ChampionID <= 0 means "no ban" and
// must be filtered out before persisting.
type Ban struct {
	MatchID    string
	TeamID     int
	ChampionID int
	PickTurn   int
}

// CrawlerState is a singleton row (id=1) tracking overall progress.
type CrawlerState struct {
	LastProcessedPid string
	TotalPlayers     int64
	TotalMatches     int64
	QueueDepth       int
	LastUpdate       time.Time
}

// ApiCall is an append-only audit row for one outbound request.
type ApiCall struct {
	Endpoint            string
	Region              string
	Timestamp           time.Time
	ResponseCode        int
	RateLimitRemaining  int
}
