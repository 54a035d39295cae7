package cache

import (
	"testing"
	"time"

	"github.com/fleetwatch/fleetwatch/internal/metrics"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := New(30 * time.Second)
	now := time.Now()

	snap := metrics.Snapshot{
		Timestamp:       now,
		CPUUsagePercent: 42.5,
		MemUsedMB:       1024,
		MemTotalMB:      2048,
		Cores:           2,
	}

	c.Set("host-1", snap, now, SourcePush)

	e, ok := c.Get("host-1")
	if !ok {
		t.Fatal("Expected entry to exist")
	}
	if e.Metrics != snap {
		t.Errorf("Expected metrics unchanged, got %+v", e.Metrics)
	}
	if !e.CachedAt.Equal(now) {
		t.Errorf("Expected cachedAt %v, got %v", now, e.CachedAt)
	}
	if e.Source != SourcePush {
		t.Errorf("Expected source push, got %s", e.Source)
	}
}

func TestGetMissing(t *testing.T) {
	c := New(30 * time.Second)
	if _, ok := c.Get("nope"); ok {
		t.Error("Expected no entry for unknown host")
	}
	if c.Online("nope", time.Now()) {
		t.Error("Expected unknown host to be offline")
	}
}

func TestLastWriteWinsAcrossSources(t *testing.T) {
	c := New(30 * time.Second)
	t1 := time.Now()
	t2 := t1.Add(5 * time.Second)

	c.Set("host-1", metrics.Snapshot{CPUUsagePercent: 10}, t1, SourcePush)
	c.Set("host-1", metrics.Snapshot{CPUUsagePercent: 20}, t2, SourceProbe)

	e, _ := c.Get("host-1")
	if !e.CachedAt.Equal(t2) {
		t.Errorf("Expected cachedAt of second write, got %v", e.CachedAt)
	}
	if e.Metrics.CPUUsagePercent != 20 {
		t.Errorf("Expected second write to win, got cpu %f", e.Metrics.CPUUsagePercent)
	}
	if e.Source != SourceProbe {
		t.Errorf("Expected source probe after overwrite, got %s", e.Source)
	}

	// And back the other way: push after probe also wins
	t3 := t2.Add(time.Second)
	c.Set("host-1", metrics.Snapshot{CPUUsagePercent: 30}, t3, SourcePush)
	e, _ = c.Get("host-1")
	if e.Metrics.CPUUsagePercent != 30 || e.Source != SourcePush {
		t.Errorf("Expected push overwrite to win, got %+v", e)
	}
}

func TestOnlineThreshold(t *testing.T) {
	c := New(30 * time.Second)
	now := time.Now()

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"fresh", 1 * time.Second, true},
		{"just inside", 29 * time.Second, true},
		{"at threshold", 30 * time.Second, false},
		{"just outside", 31 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.Set("host-1", metrics.Snapshot{}, now.Add(-tt.age), SourcePush)
			if got := c.Online("host-1", now); got != tt.want {
				t.Errorf("age %v: expected online=%v, got %v", tt.age, tt.want, got)
			}
		})
	}
}

func TestStaleEntryIsKept(t *testing.T) {
	c := New(30 * time.Second)
	old := time.Now().Add(-time.Hour)

	c.Set("host-1", metrics.Snapshot{CPUUsagePercent: 77}, old, SourceProbe)

	// Stale entries are surfaced with their age, never silently dropped
	e, ok := c.Get("host-1")
	if !ok {
		t.Fatal("Expected stale entry to remain readable")
	}
	if e.Metrics.CPUUsagePercent != 77 {
		t.Errorf("Expected last known metrics, got %+v", e.Metrics)
	}
	if c.Online("host-1", time.Now()) {
		t.Error("Expected stale host to be offline")
	}
}
