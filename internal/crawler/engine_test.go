package crawler

import (
	"testing"

	"github.com/openlane/matchcrawler/internal/queue"
	"go.uber.org/zap"
)

func TestHandleTaskFailureDemotesAndRetries(t *testing.T) {
	q := queue.New()
	e := &Engine{queue: q, log: zap.NewNop()}

	task := queue.NewTask("p1", "", "na1", queue.High)
	task.Retries = 1

	e.handleTaskFailure(task)

	got, ok := q.Pop()
	if !ok {
		t.Fatal("expected requeued task")
	}
	if got.Priority != queue.Low {
		t.Fatalf("expected demotion to Low, got %v", got.Priority)
	}
	if got.Retries != 2 {
		t.Fatalf("expected retries incremented to 2, got %d", got.Retries)
	}
}

func TestHandleTaskFailureDropsAfterThreeRetries(t *testing.T) {
	q := queue.New()
	e := &Engine{queue: q, log: zap.NewNop()}

	task := queue.NewTask("p1", "", "na1", queue.High)
	task.Retries = 3

	e.handleTaskFailure(task)

	if !q.IsEmpty() {
		t.Fatal("expected task to be dropped, not requeued")
	}
}

func TestShortPid(t *testing.T) {
	if got := shortPid("abc"); got != "abc" {
		t.Fatalf("expected short pid unchanged, got %q", got)
	}
	if got := shortPid("abcdefghijklmnop"); got != "abcdefgh" {
		t.Fatalf("expected truncation to 8 chars, got %q", got)
	}
}
