package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "crawler.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertPlayerIdempotent(t *testing.T) {
	s := openTestStore(t)
	p := Player{Pid: "p1", DisplayName: "Alice", Level: 30, Region: "na1"}

	if err := s.UpsertPlayer(p); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertPlayer(p); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	exists, err := s.PlayerExists("p1")
	if err != nil || !exists {
		t.Fatalf("expected player to exist, err=%v exists=%v", err, exists)
	}
	count, err := s.CountPlayers()
	if err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d (err=%v)", count, err)
	}
}

func TestUpsertMatchUniqueness(t *testing.T) {
	s := openTestStore(t)
	m := Match{MatchID: "NA1_1", QueueID: 420, Region: "na1"}
	teams := []Team{{MatchID: "NA1_1", TeamID: 100, Win: true}, {MatchID: "NA1_1", TeamID: 200, Win: false}}
	bans := []Ban{
		{MatchID: "NA1_1", TeamID: 100, ChampionID: 55, PickTurn: 1},
		{MatchID: "NA1_1", TeamID: 100, ChampionID: 0, PickTurn: 2},
		{MatchID: "NA1_1", TeamID: 100, ChampionID: -1, PickTurn: 3},
	}
	participants := []Participant{
		{MatchID: "NA1_1", Pid: "p1", TeamID: 100, ChampionID: 1, Win: true},
	}

	if err := s.UpsertMatch(m, teams, bans, participants); err != nil {
		t.Fatalf("upsert match: %v", err)
	}
	if err := s.UpsertMatch(m, teams, bans, participants); err != nil {
		t.Fatalf("second upsert match: %v", err)
	}

	exists, err := s.MatchExists("NA1_1")
	if err != nil || !exists {
		t.Fatalf("expected match to exist, err=%v exists=%v", err, exists)
	}

	var banCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM bans WHERE champion_id > 0").Scan(&banCount); err != nil {
		t.Fatalf("query bans: %v", err)
	}
	if banCount != 2 {
		t.Fatalf("expected 2 bans surviving two upserts (no-ban rows filtered), got %d", banCount)
	}

	var teamCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM teams WHERE match_id = ?", "NA1_1").Scan(&teamCount); err != nil {
		t.Fatalf("query teams: %v", err)
	}
	if teamCount != 2 {
		t.Fatalf("expected 2 teams after two upserts, got %d", teamCount)
	}
}

func TestGetUniqueNewPidsFromParticipants(t *testing.T) {
	s := openTestStore(t)
	m := Match{MatchID: "NA1_2", Region: "na1"}
	participants := []Participant{
		{MatchID: "NA1_2", Pid: "known", TeamID: 100},
		{MatchID: "NA1_2", Pid: "unknown", TeamID: 200},
	}
	if err := s.UpsertMatch(m, nil, nil, participants); err != nil {
		t.Fatalf("upsert match: %v", err)
	}
	if err := s.UpsertPlayer(Player{Pid: "known", Region: "na1"}); err != nil {
		t.Fatalf("upsert player: %v", err)
	}

	pids, err := s.GetUniqueNewPidsFromParticipants(10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(pids) != 1 || pids[0] != "unknown" {
		t.Fatalf("expected only 'unknown', got %v", pids)
	}
}

func TestCrawlerStateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	st, err := s.GetCrawlerState()
	if err != nil || st == nil {
		t.Fatalf("expected seeded crawler state row, err=%v st=%v", err, st)
	}
	if st.TotalPlayers != 0 {
		t.Fatalf("expected zero seed, got %d", st.TotalPlayers)
	}

	st.TotalPlayers = 5
	st.TotalMatches = 2
	st.QueueDepth = 7
	st.LastProcessedPid = "p1"
	if err := s.UpdateCrawlerState(*st); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetCrawlerState()
	if err != nil {
		t.Fatalf("reget: %v", err)
	}
	if got.TotalPlayers != 5 || got.TotalMatches != 2 || got.QueueDepth != 7 || got.LastProcessedPid != "p1" {
		t.Fatalf("unexpected state after update: %+v", got)
	}
}
