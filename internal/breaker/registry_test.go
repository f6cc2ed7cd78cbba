package breaker

import (
	"testing"
	"time"
)

func TestRegistryIsolatesHosts(t *testing.T) {
	reg := NewRegistry(time.Minute, time.Hour, 0.5, 2)

	na1 := reg.For("na1.api.riotgames.com")
	na1.Record(false)
	na1.Record(false)

	euw1 := reg.For("euw1.api.riotgames.com")

	if na1.State() != Open {
		t.Fatalf("expected na1 breaker to trip open, got %v", na1.State())
	}
	if euw1.State() != Closed {
		t.Fatalf("expected euw1 breaker to remain closed, got %v", euw1.State())
	}
	if !euw1.Allow() {
		t.Fatal("expected euw1 breaker to still allow requests")
	}
}

func TestRegistryForReturnsSameInstancePerHost(t *testing.T) {
	reg := NewRegistry(time.Minute, time.Hour, 0.5, 2)
	a := reg.For("na1.api.riotgames.com")
	b := reg.For("na1.api.riotgames.com")
	if a != b {
		t.Fatal("expected the same breaker instance for repeated lookups of the same host")
	}
}

func TestRegistryStatesSnapshot(t *testing.T) {
	reg := NewRegistry(time.Minute, time.Hour, 0.5, 2)
	reg.For("na1.api.riotgames.com").Record(false)
	reg.For("na1.api.riotgames.com").Record(false)
	reg.For("euw1.api.riotgames.com")

	states := reg.States()
	if len(states) != 2 {
		t.Fatalf("expected 2 tracked hosts, got %d", len(states))
	}
	if states["na1.api.riotgames.com"] != Open {
		t.Fatalf("expected na1 to be open in snapshot, got %v", states["na1.api.riotgames.com"])
	}
	if states["euw1.api.riotgames.com"] != Closed {
		t.Fatalf("expected euw1 to be closed in snapshot, got %v", states["euw1.api.riotgames.com"])
	}
}
