package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openlane/matchcrawler/internal/breaker"
	"github.com/openlane/matchcrawler/internal/ratelimit"
)

func newTestGateway(t *testing.T, maxRetries int, retryDelay time.Duration) *Gateway {
	t.Helper()
	rl := ratelimit.New(nil, 1000, 1000, maxRetries+1, time.Millisecond)
	reg := breaker.NewRegistry(time.Minute, 10*time.Millisecond, 0.99, 1000)
	return NewGateway("RGAPI-test", rl, reg, nil, nil, maxRetries, retryDelay)
}

func TestNotFoundIsPermanent(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := newTestGateway(t, 2, time.Millisecond)
	_, err := requestDecode[SummonerDTO](context.Background(), g, srv.URL+"/lol/summoner/v4/summoners/by-puuid/X", "na1")
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*ApiError)
	if !ok || apiErr.Kind != KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected exactly 1 request, got %d", hits)
	}
}

func TestRetryAfter429ThenSuccess(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"puuid":"p1"}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, 2, 100*time.Millisecond)
	start := time.Now()
	out, err := requestDecode[SummonerDTO](context.Background(), g, srv.URL+"/lol/summoner/v4/summoners/by-puuid/p1", "na1")
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if out.Puuid != "p1" {
		t.Fatalf("expected decoded payload, got %+v", out)
	}
	if hits != 2 {
		t.Fatalf("expected exactly 2 upstream hits, got %d", hits)
	}
	if elapsed < 90*time.Millisecond {
		t.Fatalf("expected at least one retry delay elapsed, got %v", elapsed)
	}
}

func TestExponentialBackoffOn500(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := newTestGateway(t, 3, 10*time.Millisecond)
	start := time.Now()
	_, err := requestDecode[SummonerDTO](context.Background(), g, srv.URL+"/lol/summoner/v4/summoners/by-puuid/p1", "na1")
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected final error")
	}
	apiErr, ok := err.(*ApiError)
	if !ok || apiErr.Kind != KindServiceUnavailable {
		t.Fatalf("expected ServiceUnavailable, got %v", err)
	}
	if hits != 4 {
		t.Fatalf("expected 4 upstream hits (initial + 3 retries), got %d", hits)
	}
	if elapsed < 70*time.Millisecond {
		t.Fatalf("expected at least 70ms of backoff, got %v", elapsed)
	}
}

func TestCircuitBreakerShortCircuits(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rl := ratelimit.New(nil, 1000, 1000, 1, time.Millisecond)
	reg := breaker.NewRegistry(time.Minute, time.Hour, 0.5, 2)
	g := NewGateway("RGAPI-test", rl, reg, nil, nil, 0, time.Millisecond)

	endpoint := srv.URL + "/lol/summoner/v4/summoners/by-puuid/p1"
	for i := 0; i < 2; i++ {
		requestDecode[SummonerDTO](context.Background(), g, endpoint, "na1")
	}
	hitsAfterTrip := hits

	_, err := requestDecode[SummonerDTO](context.Background(), g, endpoint, "na1")
	if err == nil {
		t.Fatal("expected circuit-open error")
	}
	apiErr, ok := err.(*ApiError)
	if !ok || !apiErr.CircuitOpen {
		t.Fatalf("expected circuit-open error, got %v", err)
	}
	if hits != hitsAfterTrip {
		t.Fatalf("expected zero additional HTTP round trips once open, got %d more", hits-hitsAfterTrip)
	}
	if !strings.Contains(err.Error(), "circuit open") {
		t.Fatalf("expected error message to mention circuit open, got %q", err.Error())
	}
}
