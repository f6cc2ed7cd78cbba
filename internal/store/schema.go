package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS players (
    pid TEXT PRIMARY KEY,
    summoner_id TEXT,
    account_id TEXT,
    display_name TEXT,
    profile_icon_id INTEGER,
    level INTEGER,
    region TEXT,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP,
    updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS matches (
    match_id TEXT PRIMARY KEY,
    game_creation INTEGER,
    game_duration INTEGER,
    game_end_timestamp INTEGER,
    queue_id INTEGER,
    game_mode TEXT,
    map_id INTEGER,
    platform_id TEXT,
    game_version TEXT,
    region TEXT,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS participants (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    match_id TEXT NOT NULL,
    pid TEXT NOT NULL,
    display_name TEXT,
    champion_id INTEGER,
    champion_name TEXT,
    team_id INTEGER,
    position TEXT,
    kills INTEGER,
    deaths INTEGER,
    assists INTEGER,
    damage_dealt INTEGER,
    damage_to_champions INTEGER,
    damage_taken INTEGER,
    gold_earned INTEGER,
    gold_spent INTEGER,
    turret_kills INTEGER,
    inhibitor_kills INTEGER,
    minions_killed INTEGER,
    neutral_minions INTEGER,
    champion_level INTEGER,
    item_0 INTEGER, item_1 INTEGER, item_2 INTEGER, item_3 INTEGER,
    item_4 INTEGER, item_5 INTEGER, item_6 INTEGER,
    summoner_spell_1 INTEGER,
    summoner_spell_2 INTEGER,
    primary_rune_tree INTEGER,
    secondary_rune_tree INTEGER,
    win INTEGER,
    first_blood_kill INTEGER,
    first_tower_kill INTEGER,
    UNIQUE(match_id, pid)
);

CREATE TABLE IF NOT EXISTS teams (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    match_id TEXT NOT NULL,
    team_id INTEGER NOT NULL,
    win INTEGER,
    first_baron INTEGER,
    first_dragon INTEGER,
    first_inhibitor INTEGER,
    first_rift_herald INTEGER,
    first_tower INTEGER,
    baron_kills INTEGER,
    dragon_kills INTEGER,
    inhibitor_kills INTEGER,
    rift_herald_kills INTEGER,
    tower_kills INTEGER,
    UNIQUE(match_id, team_id)
);

CREATE TABLE IF NOT EXISTS bans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    match_id TEXT NOT NULL,
    team_id INTEGER,
    champion_id INTEGER,
    pick_turn INTEGER
);

CREATE TABLE IF NOT EXISTS crawler_state (
    id INTEGER PRIMARY KEY,
    last_processed_pid TEXT,
    total_players_processed INTEGER,
    total_matches_processed INTEGER,
    queue_size INTEGER,
    last_update TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS api_calls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    endpoint TEXT,
    region TEXT,
    timestamp TEXT DEFAULT CURRENT_TIMESTAMP,
    response_code INTEGER,
    rate_limit_remaining INTEGER
);

CREATE TABLE IF NOT EXISTS active_games (
    game_id INTEGER PRIMARY KEY,
    game_type TEXT,
    game_start_time INTEGER,
    map_id INTEGER,
    queue_id INTEGER,
    platform_id TEXT,
    game_mode TEXT,
    participants TEXT,
    discovered_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS timeline_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    match_id TEXT,
    timestamp INTEGER,
    event_type TEXT,
    participant_id INTEGER,
    item_id INTEGER,
    killer_id INTEGER,
    victim_id INTEGER,
    team_id INTEGER
);

CREATE INDEX IF NOT EXISTS idx_participants_match_id ON participants(match_id);
CREATE INDEX IF NOT EXISTS idx_participants_pid ON participants(pid);
CREATE INDEX IF NOT EXISTS idx_matches_game_creation ON matches(game_creation);
CREATE INDEX IF NOT EXISTS idx_matches_queue_id ON matches(queue_id);
CREATE INDEX IF NOT EXISTS idx_players_region ON players(region);

INSERT OR IGNORE INTO crawler_state (id, total_players_processed, total_matches_processed, queue_size)
VALUES (1, 0, 0, 0);
`
