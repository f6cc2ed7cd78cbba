package crawler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openlane/matchcrawler/internal/backfill"
	"github.com/openlane/matchcrawler/internal/obs"
	"github.com/openlane/matchcrawler/internal/queue"
	"github.com/openlane/matchcrawler/internal/ratelimit"
	"github.com/openlane/matchcrawler/internal/store"
	"go.uber.org/zap"
)

const (
	seedExistingLimit  = 1000
	seedQueueThreshold = 100
	masterLeagueCap    = 50
	dedupEvery         = 100
	emptyQueueSleep    = 30 * time.Second
	busyLoopSleep      = 100 * time.Millisecond
)

// Engine owns the lifecycle flag and the PriorityQueue (the backfill
// Scheduler, when configured, also pushes into that queue), and coordinates
// the worker loop, health reporter and state checkpointer.
type Engine struct {
	queue    *queue.PriorityQueue
	worker   *Worker
	store    *store.Store
	limiter  *ratelimit.RateLimiter
	backfill *backfill.Scheduler
	log      *zap.Logger

	regions               []string
	healthCheckInterval   time.Duration
	stateSaveInterval     time.Duration

	runningMu sync.RWMutex
	running   bool

	processed int64
}

func New(q *queue.PriorityQueue, w *Worker, st *store.Store, rl *ratelimit.RateLimiter, bf *backfill.Scheduler, log *zap.Logger, regions []string, healthCheckInterval, stateSaveInterval time.Duration) *Engine {
	return &Engine{
		queue:               q,
		worker:              w,
		store:               st,
		limiter:             rl,
		backfill:            bf,
		log:                 log,
		regions:             regions,
		healthCheckInterval: healthCheckInterval,
		stateSaveInterval:   stateSaveInterval,
	}
}

func (e *Engine) isRunning() bool {
	e.runningMu.RLock()
	defer e.runningMu.RUnlock()
	return e.running
}

// Start performs the seed sequence then blocks, running the worker, health
// and state loops until Stop is called or ctx is canceled.
func (e *Engine) Start(ctx context.Context) error {
	e.runningMu.Lock()
	if e.running {
		e.runningMu.Unlock()
		e.log.Info("engine already running")
		return nil
	}
	e.running = true
	e.runningMu.Unlock()

	e.seedFromStore()
	if e.queue.TotalSize() < seedQueueThreshold {
		e.seedFromMasterLeague(ctx)
	}

	if e.backfill != nil {
		e.backfill.Start()
		defer e.backfill.Stop()
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); e.runWorkerLoop(ctx) }()
	go func() { defer wg.Done(); e.runHealthLoop(ctx) }()
	go func() { defer wg.Done(); e.runStateLoop(ctx) }()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-ctx.Done():
		e.Stop()
		<-done
	case <-done:
	}
	return nil
}

// Stop signals all loops to exit on their next tick.
func (e *Engine) Stop() {
	e.runningMu.Lock()
	e.running = false
	e.runningMu.Unlock()
}

func (e *Engine) seedFromStore() {
	refs, err := e.store.GetExistingPlayersForUpdate(seedExistingLimit)
	if err != nil {
		e.log.Warn("seed from store failed", obs.Err(err))
		return
	}
	for _, ref := range refs {
		name := fmt.Sprintf("Existing_Player_%s", shortPid(ref.Pid))
		e.queue.Push(queue.NewTask(ref.Pid, name, ref.Region, queue.Medium))
	}
	e.log.Info("seeded queue from store", obs.Int("count", len(refs)))
}

func (e *Engine) seedFromMasterLeague(ctx context.Context) {
	for _, region := range e.regions {
		league, err := e.worker.gateway.GetLeague(ctx, region, "master", "RANKED_SOLO_5x5")
		if err != nil {
			e.log.Warn("master league seed failed", obs.String("region", region), obs.Err(err))
			continue
		}
		added := 0
		for _, entry := range league.Entries {
			if added >= masterLeagueCap {
				break
			}
			exists, err := e.store.PlayerExists(entry.Puuid)
			if err != nil || exists {
				continue
			}
			name := fmt.Sprintf("Master_Player_%s", shortPid(entry.Puuid))
			e.queue.Push(queue.NewTask(entry.Puuid, name, region, queue.High))
			added++
		}
		e.log.Info("seeded queue from master league", obs.String("region", region), obs.Int("count", added))
	}
}

func shortPid(pid string) string {
	if len(pid) <= 8 {
		return pid
	}
	return pid[:8]
}

func (e *Engine) runWorkerLoop(ctx context.Context) {
	for e.isRunning() {
		task, ok := e.queue.Pop()
		if !ok {
			sleepOrDone(ctx, emptyQueueSleep)
			continue
		}

		discoveries, err := e.worker.ProcessPlayer(ctx, task)
		if err != nil {
			e.handleTaskFailure(task)
		} else {
			e.queue.PushBatch(discoveries)
		}

		n := atomic.AddInt64(&e.processed, 1)
		obs.PlayersProcessed.Inc()
		if n%dedupEvery == 0 {
			e.queue.RemoveDuplicates()
			h, m, l := e.queue.Size()
			e.log.Info("removed duplicates", obs.Int("high", h), obs.Int("medium", m), obs.Int("low", l))
		}

		sleepOrDone(ctx, busyLoopSleep)
	}
}

func (e *Engine) handleTaskFailure(task queue.SummonerTask) {
	if task.Retries >= 3 {
		e.log.Warn("dropping task after 3 retries", obs.String("pid", task.Pid))
		return
	}
	task.Retries++
	task.Priority = queue.Low
	e.queue.Push(task)
}

func (e *Engine) runHealthLoop(ctx context.Context) {
	ticker := time.NewTicker(e.healthCheckInterval)
	defer ticker.Stop()
	for e.isRunning() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.reportHealth()
		}
	}
}

func (e *Engine) reportHealth() {
	h, m, l := e.queue.Size()
	obs.QueueDepth.WithLabelValues("high").Set(float64(h))
	obs.QueueDepth.WithLabelValues("medium").Set(float64(m))
	obs.QueueDepth.WithLabelValues("low").Set(float64(l))

	players, _ := e.store.CountPlayers()
	matches, _ := e.store.CountMatches()
	status := e.limiter.Status()

	e.log.Info("health check",
		obs.Int("queue_high", h), obs.Int("queue_medium", m), obs.Int("queue_low", l),
		obs.Int64("total_players", players), obs.Int64("total_matches", matches),
		obs.Int("app_per_second_available", status.AppPerSecondAvailable),
		obs.Int("app_per_two_minutes_available", status.AppPerTwoMinutesAvailable),
	)
}

func (e *Engine) runStateLoop(ctx context.Context) {
	ticker := time.NewTicker(e.stateSaveInterval)
	defer ticker.Stop()
	for e.isRunning() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.saveState()
		}
	}
}

func (e *Engine) saveState() {
	players, err := e.store.CountPlayers()
	if err != nil {
		e.log.Warn("state save: count players failed", obs.Err(err))
		return
	}
	matches, err := e.store.CountMatches()
	if err != nil {
		e.log.Warn("state save: count matches failed", obs.Err(err))
		return
	}
	st := store.CrawlerState{
		TotalPlayers: players,
		TotalMatches: matches,
		QueueDepth:   e.queue.TotalSize(),
	}
	if err := e.store.UpdateCrawlerState(st); err != nil {
		e.log.Warn("state save failed", obs.Err(err))
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// GetStatus returns a point-in-time snapshot of queue sizes, store counters
// and rate-limit levels.
func (e *Engine) GetStatus() Status {
	h, m, l := e.queue.Size()
	players, _ := e.store.CountPlayers()
	matches, _ := e.store.CountMatches()
	return Status{
		QueueHigh:      h,
		QueueMedium:    m,
		QueueLow:       l,
		TotalPlayers:   players,
		TotalMatches:   matches,
		RateLimit:      e.limiter.Status(),
		ProcessedTasks: atomic.LoadInt64(&e.processed),
	}
}
