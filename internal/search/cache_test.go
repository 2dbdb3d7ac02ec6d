package search

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestResultCache_ExpiresWithClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newResultCache(clock, 10*time.Minute)

	c.Put("dune", recs("Dune 2021"))
	if _, ok := c.Get("dune"); !ok {
		t.Fatal("fresh entry should be present")
	}

	clock.Advance(9 * time.Minute)
	if _, ok := c.Get("dune"); !ok {
		t.Fatal("entry should survive inside the TTL")
	}

	clock.Advance(2 * time.Minute)
	if _, ok := c.Get("dune"); ok {
		t.Fatal("entry should expire after the TTL")
	}
}

func TestResultCache_SweepRemovesExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newResultCache(clock, time.Minute)

	c.Put("a", recs("A"))
	c.Put("b", recs("B"))
	clock.Advance(2 * time.Minute)
	c.Put("c", recs("C"))

	// Put sweeps on write, so the expired pair is already gone.
	if n := c.Len(); n != 1 {
		t.Fatalf("expected 1 live entry after write-sweep, got %d", n)
	}

	clock.Advance(2 * time.Minute)
	if n := c.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d entries, want 1", n)
	}
	if n := c.Len(); n != 0 {
		t.Fatalf("expected empty cache, got %d entries", n)
	}
}
