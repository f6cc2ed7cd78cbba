package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestExtractService(t *testing.T) {
	if got := ExtractService("/lol/match/v5/matches/NA1_123"); got != "match" {
		t.Fatalf("expected service 'match', got %q", got)
	}
	if got := ExtractService("/lol/summoner/v4/summoners/abc"); got != "summoner" {
		t.Fatalf("expected service 'summoner', got %q", got)
	}
}

func TestHeaderDrivenTightening(t *testing.T) {
	rl := New(nil, 20, 100, 3, 10*time.Millisecond)

	if err := rl.AcquirePermit("/lol/summoner/v4/summoners/x", "na1"); err != nil {
		t.Fatalf("expected first acquire to succeed: %v", err)
	}

	h := http.Header{}
	h.Set("X-App-Rate-Limit", "10:1,50:120")
	rl.UpdateFromHeaders("/lol/summoner/v4/summoners/x", "na1", h)

	if got := rl.AppPerSecondAvailable(); got != 10 {
		t.Fatalf("expected app-per-second bucket replaced at full capacity 10, got %d", got)
	}

	successes := 0
	for i := 0; i < 11; i++ {
		if err := rl.AcquirePermit("/lol/summoner/v4/summoners/x", "na1"); err == nil {
			successes++
		}
	}
	if successes != 10 {
		t.Fatalf("expected exactly 10 successes out of 11, got %d", successes)
	}
}

func TestTryAcquireAllNoRefundOnShortCircuit(t *testing.T) {
	rl := New(nil, 1, 100, 1, time.Millisecond)
	if !rl.tryAcquireAll("/lol/league/v4/challengerleagues/by-queue/q", "na1") {
		t.Fatal("expected first call to succeed")
	}
	if rl.tryAcquireAll("/lol/league/v4/challengerleagues/by-queue/q", "na1") {
		t.Fatal("expected second call to fail: app-per-second exhausted")
	}

	// A failure later in the chain keeps the tokens already taken from the
	// application buckets.
	rl = New(nil, 10, 100, 1, time.Millisecond)
	h := http.Header{}
	h.Set("X-Method-Rate-Limit", "1:1")
	rl.UpdateFromHeaders("/lol/league/v4/challengerleagues/by-queue/q", "na1", h)
	if !rl.tryAcquireAll("/lol/league/v4/challengerleagues/by-queue/q", "na1") {
		t.Fatal("expected first call to succeed")
	}
	if rl.tryAcquireAll("/lol/league/v4/challengerleagues/by-queue/q", "na1") {
		t.Fatal("expected second call to fail: method bucket exhausted")
	}
	if got := rl.AppPerSecondAvailable(); got != 8 {
		t.Fatalf("expected app-per-second tokens not refunded (8 left), got %d", got)
	}
}
