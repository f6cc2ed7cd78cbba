package backfill

import (
	"github.com/openlane/matchcrawler/internal/obs"
	"github.com/openlane/matchcrawler/internal/queue"
	"github.com/openlane/matchcrawler/internal/store"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler periodically enqueues participants that appear only as match
// rows and have never been crawled as a player in their own right, at Low
// priority.
type Scheduler struct {
	cron      *cron.Cron
	store     *store.Store
	queue     *queue.PriorityQueue
	batchSize int
	region    string
	log       *zap.Logger
}

func New(schedule string, batchSize int, defaultRegion string, st *store.Store, q *queue.PriorityQueue, log *zap.Logger) (*Scheduler, error) {
	if schedule == "" {
		return nil, nil
	}
	s := &Scheduler{
		cron:      cron.New(),
		store:     st,
		queue:     q,
		batchSize: batchSize,
		region:    defaultRegion,
		log:       log,
	}
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	s.cron.Stop()
}

func (s *Scheduler) runOnce() {
	pids, err := s.store.GetUniqueNewPidsFromParticipants(s.batchSize)
	if err != nil {
		s.log.Warn("backfill query failed", obs.Err(err))
		return
	}
	tasks := make([]queue.SummonerTask, 0, len(pids))
	for _, pid := range pids {
		tasks = append(tasks, queue.NewTask(pid, "", s.region, queue.Low))
	}
	s.queue.PushBatch(tasks)
	if s.log != nil {
		s.log.Info("backfill enqueued participants missing a player row", obs.Int("count", len(tasks)))
	}
}
