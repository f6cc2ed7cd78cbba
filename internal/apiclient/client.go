package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openlane/matchcrawler/internal/breaker"
	"github.com/openlane/matchcrawler/internal/obs"
	"github.com/openlane/matchcrawler/internal/ratelimit"
	"github.com/openlane/matchcrawler/internal/store"
	"go.uber.org/zap"
)

// Gateway issues authenticated, rate-limited GET requests against the
// upstream API and records audit rows for every call.
type Gateway struct {
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
	breakers   *breaker.Registry
	store      *store.Store
	log        *zap.Logger
	maxRetries int
	retryDelay time.Duration
}

func NewGateway(apiKey string, limiter *ratelimit.RateLimiter, breakers *breaker.Registry, st *store.Store, log *zap.Logger, maxRetries int, retryDelay time.Duration) *Gateway {
	return &Gateway{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		breakers:   breakers,
		store:      st,
		log:        log,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// endpointKey strips whichever base URL (platform or regional) prefixes the
// given url and any query string, leaving the bare path as the rate-limit /
// metrics key. Query parameters (e.g. start/count on the match-ids listing)
// must not fragment one endpoint into many per-method buckets.
func endpointKey(rawURL, region string) string {
	path := rawURL
	for _, base := range []string{PlatformHost(region), RegionalHost(region)} {
		if strings.HasPrefix(rawURL, base) {
			path = strings.TrimPrefix(rawURL, base)
			break
		}
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}

// request performs one GET, feeding the breaker, rate limiter and audit
// store, and mapping the response to the error taxonomy.
func (g *Gateway) request(ctx context.Context, rawURL, region string) ([]byte, *http.Response, error) {
	endpoint := endpointKey(rawURL, region)
	host := hostOf(rawURL)
	cb := g.breakers.For(host)
	ctx, span := obs.StartRequestSpan(ctx, endpoint, region)
	defer span.End()

	if !cb.Allow() {
		return nil, nil, newCircuitOpenErr(host)
	}

	if err := g.limiter.AcquirePermit(endpoint, region); err != nil {
		cb.Record(false)
		return nil, nil, newRateLimiterExhaustedErr(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cb.Record(false)
		return nil, nil, newTransportErr(err)
	}
	req.Header.Set("X-Riot-Token", g.apiKey)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		cb.Record(false)
		obs.ApiCallsTotal.WithLabelValues(endpoint, region, "transport_error").Inc()
		return nil, nil, newTransportErr(err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		cb.Record(false)
		return nil, nil, newTransportErr(readErr)
	}

	obs.ApiCallDuration.WithLabelValues(endpoint, region).Observe(duration.Seconds())
	obs.ApiCallsTotal.WithLabelValues(endpoint, region, strconv.Itoa(resp.StatusCode)).Inc()
	obs.AddSpanAttributes(ctx, obs.KeyValue("status", resp.StatusCode))

	remaining := 0
	if v := resp.Header.Get("X-App-Rate-Limit-Count"); v != "" {
		if parts := strings.SplitN(v, ",", 2); len(parts) > 0 {
			if n, perr := strconv.Atoi(strings.SplitN(parts[0], ":", 2)[0]); perr == nil {
				remaining = n
			}
		}
	}
	if g.store != nil {
		_ = g.store.LogApiCall(store.ApiCall{
			Endpoint:           endpoint,
			Region:             region,
			Timestamp:          time.Now(),
			ResponseCode:       resp.StatusCode,
			RateLimitRemaining: remaining,
		})
	}

	g.limiter.UpdateFromHeaders(endpoint, region, resp.Header)

	success := resp.StatusCode < 500 && resp.StatusCode != 429
	cb.Record(success)

	switch {
	case resp.StatusCode == 200:
		return body, resp, nil
	case resp.StatusCode == 400:
		return nil, resp, newBadRequestErr(string(body))
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return nil, resp, newAuthErr(resp.StatusCode)
	case resp.StatusCode == 404:
		return nil, resp, newNotFoundErr()
	case resp.StatusCode == 429:
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, perr := strconv.Atoi(v); perr == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		g.limiter.Handle429(retryAfter)
		return nil, resp, newRateLimitErr(resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, resp, newServiceUnavailableErr(resp.StatusCode, string(body))
	default:
		return nil, resp, newApiErr(resp.StatusCode, string(body))
	}
}

// requestDecode wraps request with JSON decoding and a retry loop: retries
// while the error is retryable and attempts < maxRetries, sleeping
// retryDelay*2^attempt between attempts. Decode failures are permanent.
func requestDecode[T any](ctx context.Context, g *Gateway, rawURL, region string) (*T, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		body, _, err := g.request(ctx, rawURL, region)
		if err == nil {
			var out T
			if decErr := json.Unmarshal(body, &out); decErr != nil {
				return nil, newDecodeErr(decErr)
			}
			return &out, nil
		}
		apiErr, ok := err.(*ApiError)
		if !ok || !apiErr.Retryable() || attempt == g.maxRetries {
			return nil, err
		}
		lastErr = err
		delay := g.retryDelay * time.Duration(1<<uint(attempt))
		if g.log != nil {
			g.log.Debug("retrying request", obs.String("url", rawURL), zap.Int("attempt", attempt), zap.Duration("delay", delay))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}
