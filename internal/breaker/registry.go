package breaker

import (
	"sync"
	"time"
)

// Registry lazily creates and hands out one CircuitBreaker per host, all
// configured with the same parameters.
type Registry struct {
	mu            sync.Mutex
	window        time.Duration
	cooldown      time.Duration
	failureThresh float64
	minSamples    int
	breakers      map[string]*CircuitBreaker
}

func NewRegistry(window, cooldown time.Duration, failureThresh float64, minSamples int) *Registry {
	return &Registry{
		window:        window,
		cooldown:      cooldown,
		failureThresh: failureThresh,
		minSamples:    minSamples,
		breakers:      make(map[string]*CircuitBreaker),
	}
}

func (r *Registry) For(host string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, ok := r.breakers[host]
	if !ok {
		cb = New(r.window, r.cooldown, r.failureThresh, r.minSamples)
		r.breakers[host] = cb
	}
	return cb
}

// States returns a snapshot of every host's current state. The health loop
// does not report it and the circuit_breaker_state gauge is not set from it.
func (r *Registry) States() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]State, len(r.breakers))
	for host, cb := range r.breakers {
		out[host] = cb.State()
	}
	return out
}
