package crawler

import "github.com/openlane/matchcrawler/internal/ratelimit"

// Status is a point-in-time snapshot returned by Engine.GetStatus. The
// health loop and the /readyz probe do not use it.
type Status struct {
	QueueHigh      int
	QueueMedium    int
	QueueLow       int
	TotalPlayers   int64
	TotalMatches   int64
	RateLimit      ratelimit.Status
	ProcessedTasks int64
}
