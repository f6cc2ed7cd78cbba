package crawler

import (
	"context"

	"github.com/openlane/matchcrawler/internal/apiclient"
	"github.com/openlane/matchcrawler/internal/dedup"
	"github.com/openlane/matchcrawler/internal/events"
	"github.com/openlane/matchcrawler/internal/obs"
	"github.com/openlane/matchcrawler/internal/queue"
	"github.com/openlane/matchcrawler/internal/store"
	"go.uber.org/zap"
)

const recentMatchCount = 20

// Worker turns one dequeued player into persisted rows plus freshly
// discovered players.
type Worker struct {
	gateway *apiclient.Gateway
	store   *store.Store
	dedup   *dedup.Cache
	events  *events.Publisher
	log     *zap.Logger
}

func NewWorker(gateway *apiclient.Gateway, st *store.Store, dc *dedup.Cache, ep *events.Publisher, log *zap.Logger) *Worker {
	return &Worker{gateway: gateway, store: st, dedup: dc, events: ep, log: log}
}

// ProcessPlayer fetches the player's profile and recent matches, persists
// everything new, and returns freshly discovered players as Low-priority
// tasks.
func (w *Worker) ProcessPlayer(ctx context.Context, task queue.SummonerTask) ([]queue.SummonerTask, error) {
	ctx, span := obs.StartProcessPlayerSpan(ctx, task.Pid, task.Region)
	defer span.End()

	w.fetchAndStoreSummoner(ctx, task)

	matchIDs, err := w.gateway.GetMatchIDsByPuuid(ctx, task.Region, task.Pid, 0, recentMatchCount)
	if err != nil {
		return nil, err
	}

	discoveries := make(map[string]string)
	for _, matchID := range matchIDs {
		exists, err := w.store.MatchExists(matchID)
		if err != nil {
			w.log.Warn("match existence check failed", obs.String("match_id", matchID), obs.Err(err))
			continue
		}
		if exists {
			continue
		}
		w.fetchAndStoreMatch(ctx, task.Region, matchID, discoveries)
	}

	return w.newTasksFromDiscoveries(task.Region, discoveries), nil
}

func (w *Worker) fetchAndStoreSummoner(ctx context.Context, task queue.SummonerTask) {
	summoner, err := w.gateway.GetSummonerByPuuid(ctx, task.Region, task.Pid)
	if err != nil {
		w.log.Debug("profile fetch failed, continuing with match history", obs.String("pid", task.Pid), obs.Err(err))
		return
	}
	p := store.Player{
		Pid:           task.Pid,
		SummonerID:    summoner.ID,
		AccountID:     summoner.AccountID,
		DisplayName:   summoner.Name,
		ProfileIconID: summoner.ProfileIconID,
		Level:         summoner.SummonerLevel,
		Region:        task.Region,
	}
	if p.DisplayName == "" {
		p.DisplayName = task.DisplayName
	}
	if err := w.store.UpsertPlayer(p); err != nil {
		w.log.Warn("upsert player failed", obs.String("pid", task.Pid), obs.Err(err))
	}
}

func (w *Worker) fetchAndStoreMatch(ctx context.Context, region, matchID string, discoveries map[string]string) {
	match, err := w.gateway.GetMatch(ctx, region, matchID)
	if err != nil {
		w.log.Debug("match fetch failed, skipping", obs.String("match_id", matchID), obs.Err(err))
		return
	}

	m := store.Match{
		MatchID:          match.Metadata.MatchID,
		GameCreation:     match.Info.GameCreation,
		GameDuration:     int(match.Info.GameDuration),
		GameEndTimestamp: match.Info.GameEndTimestamp,
		QueueID:          match.Info.QueueID,
		GameMode:         match.Info.GameMode,
		MapID:            match.Info.MapID,
		PlatformID:       match.Info.PlatformID,
		GameVersion:      match.Info.GameVersion,
		Region:           region,
	}

	var teams []store.Team
	var bans []store.Ban
	for _, t := range match.Info.Teams {
		teams = append(teams, store.Team{
			MatchID:         m.MatchID,
			TeamID:          t.TeamID,
			Win:             t.Win,
			FirstBaron:      t.Objectives.Baron.First,
			FirstDragon:     t.Objectives.Dragon.First,
			FirstInhibitor:  t.Objectives.Inhibitor.First,
			FirstRiftHerald: t.Objectives.RiftHerald.First,
			FirstTower:      t.Objectives.Tower.First,
			BaronKills:      t.Objectives.Baron.Kills,
			DragonKills:     t.Objectives.Dragon.Kills,
			InhibitorKills:  t.Objectives.Inhibitor.Kills,
			RiftHeraldKills: t.Objectives.RiftHerald.Kills,
			TowerKills:      t.Objectives.Tower.Kills,
		})
		for _, b := range t.Bans {
			bans = append(bans, store.Ban{MatchID: m.MatchID, TeamID: t.TeamID, ChampionID: b.ChampionID, PickTurn: b.PickTurn})
		}
	}

	var participants []store.Participant
	for _, p := range match.Info.Participants {
		participants = append(participants, store.Participant{
			MatchID:           m.MatchID,
			Pid:               p.Puuid,
			DisplayName:       p.SummonerName,
			ChampionID:        p.ChampionID,
			ChampionName:      p.ChampionName,
			TeamID:            p.TeamID,
			Position:          p.TeamPosition,
			Kills:             p.Kills,
			Deaths:            p.Deaths,
			Assists:           p.Assists,
			DamageDealt:       p.TotalDamageDealt,
			DamageToChampions: p.TotalDamageToChamps,
			DamageTaken:       p.TotalDamageTaken,
			GoldEarned:        p.GoldEarned,
			GoldSpent:         p.GoldSpent,
			TurretKills:       p.TurretKills,
			InhibitorKills:    p.InhibitorKills,
			MinionsKilled:     p.TotalMinionsKilled,
			NeutralMinions:    p.NeutralMinionsKilled,
			ChampionLevel:     p.ChampLevel,
			Items:             [7]int{p.Item0, p.Item1, p.Item2, p.Item3, p.Item4, p.Item5, p.Item6},
			SummonerSpells:    [2]int{p.Summoner1ID, p.Summoner2ID},
			RuneTrees:         runeTrees(p.Perks),
			Win:               p.Win,
			FirstBloodKill:    p.FirstBloodKill,
			FirstTowerKill:    p.FirstTowerKill,
		})
		discoveries[p.Puuid] = p.SummonerName
	}

	if err := w.store.UpsertMatch(m, teams, bans, participants); err != nil {
		w.log.Warn("upsert match failed", obs.String("match_id", matchID), obs.Err(err))
		return
	}
	obs.MatchesIngested.Inc()
	if w.events != nil {
		w.events.PublishMatchIngested(ctx, m.MatchID)
	}
}

// runeTrees extracts the primary and secondary rune style ids from a
// participant's perks. Missing styles default to 0.
func runeTrees(perks apiclient.PerksDTO) [2]int {
	var out [2]int
	for i := 0; i < 2 && i < len(perks.Styles); i++ {
		out[i] = perks.Styles[i].Style
	}
	return out
}

func (w *Worker) newTasksFromDiscoveries(region string, discoveries map[string]string) []queue.SummonerTask {
	var out []queue.SummonerTask
	for pid, name := range discoveries {
		exists, err := w.store.PlayerExists(pid)
		if err != nil {
			w.log.Warn("player existence check failed during discovery filter", obs.String("pid", pid), obs.Err(err))
			continue
		}
		if exists {
			continue
		}
		if w.dedup != nil && w.dedup.SeenRecently(pid) {
			obs.DedupSuppressedTotal.Inc()
			continue
		}
		out = append(out, queue.NewTask(pid, name, region, queue.Low))
		obs.DiscoveriesTotal.Inc()
		if w.events != nil {
			w.events.PublishPlayerDiscovered(context.Background(), pid)
		}
	}
	return out
}
