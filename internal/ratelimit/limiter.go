package ratelimit

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/openlane/matchcrawler/internal/obs"
	"go.uber.org/zap"
)

const (
	defaultMethodCapacity  = 20
	defaultServiceCapacity = 100
)

type bucketKey struct {
	key    string
	region string
}

// RateLimiter composes four independent limit classes and keeps them
// self-tuned from upstream rate-limit headers.
type RateLimiter struct {
	log *zap.Logger

	mu                sync.Mutex
	appPerSecond      *TokenBucket
	appPerTwoMinutes  *TokenBucket
	methodBuckets     map[bucketKey]*TokenBucket
	serviceBuckets    map[bucketKey]*TokenBucket

	maxRetries   int
	retryDelay   time.Duration
}

// New builds a RateLimiter seeded with the application-level bucket sizes.
func New(log *zap.Logger, appPerSecond, appPerTwoMinutes, maxRetries int, retryDelay time.Duration) *RateLimiter {
	return &RateLimiter{
		log:              log,
		appPerSecond:     PerSecond(appPerSecond),
		appPerTwoMinutes: PerTwoMinutes(appPerTwoMinutes),
		methodBuckets:    make(map[bucketKey]*TokenBucket),
		serviceBuckets:   make(map[bucketKey]*TokenBucket),
		maxRetries:       maxRetries,
		retryDelay:       retryDelay,
	}
}

// ExtractService returns the 3rd path segment of an endpoint, e.g.
// "/lol/match/v5/matches/123" -> "match".
func ExtractService(endpoint string) string {
	parts := strings.Split(strings.TrimPrefix(endpoint, "/"), "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "unknown"
}

func (rl *RateLimiter) methodBucket(endpoint, region string) *TokenBucket {
	k := bucketKey{key: endpoint, region: region}
	b, ok := rl.methodBuckets[k]
	if !ok {
		b = PerSecond(defaultMethodCapacity)
		rl.methodBuckets[k] = b
	}
	return b
}

func (rl *RateLimiter) serviceBucket(endpoint, region string) *TokenBucket {
	svc := ExtractService(endpoint)
	k := bucketKey{key: svc, region: region}
	b, ok := rl.serviceBuckets[k]
	if !ok {
		b = PerSecond(defaultServiceCapacity)
		rl.serviceBuckets[k] = b
	}
	return b
}

// tryAcquireAll consumes one token from each of the four classes in order.
// The first failure short-circuits; tokens already taken earlier in the
// chain are never refunded.
func (rl *RateLimiter) tryAcquireAll(endpoint, region string) bool {
	rl.mu.Lock()
	method := rl.methodBucket(endpoint, region)
	service := rl.serviceBucket(endpoint, region)
	appSec := rl.appPerSecond
	appTwoMin := rl.appPerTwoMinutes
	rl.mu.Unlock()

	if !appSec.TryAcquire(1) {
		obs.RateLimitDenied.WithLabelValues("app_per_second").Inc()
		return false
	}
	if !appTwoMin.TryAcquire(1) {
		obs.RateLimitDenied.WithLabelValues("app_per_two_minutes").Inc()
		return false
	}
	if !method.TryAcquire(1) {
		obs.RateLimitDenied.WithLabelValues("method").Inc()
		return false
	}
	if !service.TryAcquire(1) {
		obs.RateLimitDenied.WithLabelValues("service").Inc()
		return false
	}
	return true
}

// AcquirePermit retries tryAcquireAll with exponential backoff, up to
// maxRetries times total.
func (rl *RateLimiter) AcquirePermit(endpoint, region string) error {
	for attempt := 0; attempt < rl.maxRetries; attempt++ {
		if rl.tryAcquireAll(endpoint, region) {
			return nil
		}
		if attempt == rl.maxRetries-1 {
			break
		}
		delay := rl.retryDelay * time.Duration(1<<uint(attempt))
		if rl.log != nil {
			rl.log.Debug("rate limit exhausted, backing off",
				obs.String("endpoint", endpoint), obs.String("region", region),
				zap.Duration("delay", delay))
		}
		obs.RateLimitRetries.Inc()
		time.Sleep(delay)
	}
	return fmt.Errorf("rate limiter exhausted for %s (%s) after %d attempts", endpoint, region, rl.maxRetries)
}

// UpdateFromHeaders parses X-App-Rate-Limit, X-Method-Rate-Limit and
// X-Service-Rate-Limit and replaces buckets wholesale (resetting them to
// full) to track the upstream's just-reported limits.
func (rl *RateLimiter) UpdateFromHeaders(endpoint, region string, h http.Header) {
	rl.applyAppHeader(h.Get("X-App-Rate-Limit"))
	rl.applyMethodHeader(endpoint, region, h.Get("X-Method-Rate-Limit"))
	rl.applyServiceHeader(endpoint, region, h.Get("X-Service-Rate-Limit"))
}

func parsePairs(header string) map[int]int {
	out := make(map[int]int)
	if header == "" {
		return out
	}
	for _, pair := range strings.Split(header, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			continue
		}
		var count, window int
		if _, err := fmt.Sscanf(parts[0], "%d", &count); err != nil {
			continue
		}
		if _, err := fmt.Sscanf(parts[1], "%d", &window); err != nil {
			continue
		}
		out[window] = count
	}
	return out
}

func (rl *RateLimiter) applyAppHeader(header string) {
	pairs := parsePairs(header)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if count, ok := pairs[1]; ok {
		rl.appPerSecond = PerSecond(count)
	}
	if count, ok := pairs[120]; ok {
		rl.appPerTwoMinutes = PerTwoMinutes(count)
	}
}

func (rl *RateLimiter) applyMethodHeader(endpoint, region, header string) {
	pairs := parsePairs(header)
	count, ok := pairs[1]
	if !ok {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.methodBuckets[bucketKey{key: endpoint, region: region}] = PerSecond(count)
}

func (rl *RateLimiter) applyServiceHeader(endpoint, region, header string) {
	pairs := parsePairs(header)
	count, ok := pairs[1]
	if !ok {
		return
	}
	svc := ExtractService(endpoint)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.serviceBuckets[bucketKey{key: svc, region: region}] = PerSecond(count)
}

// Handle429 sleeps for retryAfter seconds if present, otherwise the
// configured retry delay. It does not retry itself; the caller decides.
func (rl *RateLimiter) Handle429(retryAfter time.Duration) {
	if retryAfter > 0 {
		time.Sleep(retryAfter)
		return
	}
	time.Sleep(rl.retryDelay)
}

// AppPerSecondAvailable exposes the app-per-second bucket's current token
// count, used by tests and the health reporter.
func (rl *RateLimiter) AppPerSecondAvailable() int {
	rl.mu.Lock()
	b := rl.appPerSecond
	rl.mu.Unlock()
	return b.Available()
}

// Status summarizes current bucket levels for the health loop.
type Status struct {
	AppPerSecondAvailable     int
	AppPerTwoMinutesAvailable int
}

func (rl *RateLimiter) Status() Status {
	rl.mu.Lock()
	sec, twoMin := rl.appPerSecond, rl.appPerTwoMinutes
	rl.mu.Unlock()
	return Status{
		AppPerSecondAvailable:     sec.Available(),
		AppPerTwoMinutesAvailable: twoMin.Available(),
	}
}
