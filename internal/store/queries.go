package store

import (
	"database/sql"
	"fmt"
	"time"
)

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// UpsertPlayer inserts or replaces a player row keyed by pid.
func (s *Store) UpsertPlayer(p Player) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO players (pid, summoner_id, account_id, display_name, profile_icon_id, level, region, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(pid) DO UPDATE SET
			summoner_id=excluded.summoner_id,
			account_id=excluded.account_id,
			display_name=excluded.display_name,
			profile_icon_id=excluded.profile_icon_id,
			level=excluded.level,
			region=excluded.region,
			updated_at=CURRENT_TIMESTAMP
	`, p.Pid, nullableString(p.SummonerID), nullableString(p.AccountID), p.DisplayName, p.ProfileIconID, p.Level, p.Region)
	return err
}

func (s *Store) PlayerExists(pid string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM players WHERE pid = ?", pid).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) MatchExists(matchID string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM matches WHERE match_id = ?", matchID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) CountPlayers() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM players").Scan(&n)
	return n, err
}

func (s *Store) CountMatches() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&n)
	return n, err
}

func (s *Store) CountParticipants() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM participants").Scan(&n)
	return n, err
}

type PlayerRef struct {
	Pid    string
	Region string
}

// GetExistingPlayersForUpdate returns the least-recently-refreshed players,
// powering refresh seeding.
func (s *Store) GetExistingPlayersForUpdate(limit int) ([]PlayerRef, error) {
	rows, err := s.db.Query("SELECT pid, region FROM players ORDER BY updated_at ASC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PlayerRef
	for rows.Next() {
		var p PlayerRef
		if err := rows.Scan(&p.Pid, &p.Region); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetUniqueNewPidsFromParticipants returns participant pids that are not
// yet rows in players, powering discovery backfill.
func (s *Store) GetUniqueNewPidsFromParticipants(limit int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT participants.pid
		FROM participants
		LEFT JOIN players ON players.pid = participants.pid
		WHERE players.pid IS NULL
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, err
		}
		out = append(out, pid)
	}
	return out, rows.Err()
}

func (s *Store) LogApiCall(c ApiCall) error {
	_, err := s.db.Exec(`
		INSERT INTO api_calls (endpoint, region, timestamp, response_code, rate_limit_remaining)
		VALUES (?, ?, CURRENT_TIMESTAMP, ?, ?)
	`, c.Endpoint, c.Region, c.ResponseCode, c.RateLimitRemaining)
	return err
}

func (s *Store) GetRecentApiCallCount(endpoint, region string, minutes int) (int64, error) {
	var n int64
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM api_calls
		WHERE endpoint = ? AND region = ?
		AND timestamp >= datetime('now', ?)
	`, endpoint, region, fmt.Sprintf("-%d minutes", minutes)).Scan(&n)
	return n, err
}

func (s *Store) UpdateCrawlerState(st CrawlerState) error {
	_, err := s.db.Exec(`
		UPDATE crawler_state SET
			last_processed_pid = ?,
			total_players_processed = ?,
			total_matches_processed = ?,
			queue_size = ?,
			last_update = CURRENT_TIMESTAMP
		WHERE id = 1
	`, nullableString(st.LastProcessedPid), st.TotalPlayers, st.TotalMatches, st.QueueDepth)
	return err
}

func (s *Store) GetCrawlerState() (*CrawlerState, error) {
	var st CrawlerState
	var lastProcessed sql.NullString
	var lastUpdate string
	err := s.db.QueryRow(`
		SELECT last_processed_pid, total_players_processed, total_matches_processed, queue_size, last_update
		FROM crawler_state WHERE id = 1
	`).Scan(&lastProcessed, &st.TotalPlayers, &st.TotalMatches, &st.QueueDepth, &lastUpdate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st.LastProcessedPid = lastProcessed.String
	if t, perr := time.Parse("2006-01-02 15:04:05", lastUpdate); perr == nil {
		st.LastUpdate = t
	}
	return &st, nil
}

// UpsertMatch writes a match and all of its teams/bans/participants in a
// single transaction. Ban rows with ChampionID <= 0 ("no ban") are dropped.
func (s *Store) UpsertMatch(m Match, teams []Team, bans []Ban, participants []Participant) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO matches (match_id, game_creation, game_duration, game_end_timestamp, queue_id, game_mode, map_id, platform_id, game_version, region, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(match_id) DO UPDATE SET
			game_creation=excluded.game_creation,
			game_duration=excluded.game_duration,
			game_end_timestamp=excluded.game_end_timestamp,
			queue_id=excluded.queue_id,
			game_mode=excluded.game_mode,
			map_id=excluded.map_id,
			platform_id=excluded.platform_id,
			game_version=excluded.game_version,
			region=excluded.region
	`, m.MatchID, m.GameCreation, m.GameDuration, m.GameEndTimestamp, m.QueueID, m.GameMode, m.MapID, m.PlatformID, m.GameVersion, m.Region)
	if err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}

	for _, t := range teams {
		_, err = tx.Exec(`
			INSERT INTO teams (match_id, team_id, win, first_baron, first_dragon, first_inhibitor, first_rift_herald, first_tower, baron_kills, dragon_kills, inhibitor_kills, rift_herald_kills, tower_kills)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(match_id, team_id) DO UPDATE SET
				win=excluded.win,
				first_baron=excluded.first_baron,
				first_dragon=excluded.first_dragon,
				first_inhibitor=excluded.first_inhibitor,
				first_rift_herald=excluded.first_rift_herald,
				first_tower=excluded.first_tower,
				baron_kills=excluded.baron_kills,
				dragon_kills=excluded.dragon_kills,
				inhibitor_kills=excluded.inhibitor_kills,
				rift_herald_kills=excluded.rift_herald_kills,
				tower_kills=excluded.tower_kills
		`, t.MatchID, t.TeamID, boolToInt(t.Win), boolToInt(t.FirstBaron), boolToInt(t.FirstDragon), boolToInt(t.FirstInhibitor), boolToInt(t.FirstRiftHerald), boolToInt(t.FirstTower), t.BaronKills, t.DragonKills, t.InhibitorKills, t.RiftHeraldKills, t.TowerKills)
		if err != nil {
			return fmt.Errorf("upsert team: %w", err)
		}
	}

	for _, b := range bans {
		if b.ChampionID <= 0 {
			continue
		}
		_, err = tx.Exec(`
			INSERT INTO bans (match_id, team_id, champion_id, pick_turn) VALUES (?, ?, ?, ?)
		`, b.MatchID, b.TeamID, b.ChampionID, b.PickTurn)
		if err != nil {
			return fmt.Errorf("insert ban: %w", err)
		}
	}

	for _, p := range participants {
		_, err = tx.Exec(`
			INSERT INTO participants (match_id, pid, display_name, champion_id, champion_name, team_id, position,
				kills, deaths, assists, damage_dealt, damage_to_champions, damage_taken, gold_earned, gold_spent,
				turret_kills, inhibitor_kills, minions_killed, neutral_minions, champion_level,
				item_0, item_1, item_2, item_3, item_4, item_5, item_6,
				summoner_spell_1, summoner_spell_2, primary_rune_tree, secondary_rune_tree,
				win, first_blood_kill, first_tower_kill)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(match_id, pid) DO UPDATE SET
				champion_id=excluded.champion_id,
				champion_name=excluded.champion_name,
				team_id=excluded.team_id,
				win=excluded.win
		`, p.MatchID, p.Pid, p.DisplayName, p.ChampionID, p.ChampionName, p.TeamID, p.Position,
			p.Kills, p.Deaths, p.Assists, p.DamageDealt, p.DamageToChampions, p.DamageTaken, p.GoldEarned, p.GoldSpent,
			p.TurretKills, p.InhibitorKills, p.MinionsKilled, p.NeutralMinions, p.ChampionLevel,
			p.Items[0], p.Items[1], p.Items[2], p.Items[3], p.Items[4], p.Items[5], p.Items[6],
			p.SummonerSpells[0], p.SummonerSpells[1], p.RuneTrees[0], p.RuneTrees[1],
			boolToInt(p.Win), boolToInt(p.FirstBloodKill), boolToInt(p.FirstTowerKill))
		if err != nil {
			return fmt.Errorf("upsert participant: %w", err)
		}
	}

	return tx.Commit()
}
