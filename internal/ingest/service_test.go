package ingest

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/fleetwatch/fleetwatch/internal/agent"
	"github.com/fleetwatch/fleetwatch/internal/cache"
	"github.com/fleetwatch/fleetwatch/internal/metrics"
)

type recordingPublisher struct {
	published []cache.Entry
	err       error
}

func (p *recordingPublisher) Publish(hostID string, entry cache.Entry) error {
	p.published = append(p.published, entry)
	return p.err
}

func newTestService(t *testing.T) (*Service, *agent.Registry, *cache.Cache, *recordingPublisher) {
	t.Helper()
	registry := agent.NewRegistry()
	c := cache.New(30 * time.Second)
	pub := &recordingPublisher{}
	svc := New(registry, c, pub, slog.Default())
	return svc, registry, c, pub
}

func TestIngestSuccess(t *testing.T) {
	svc, registry, c, pub := newTestService(t)
	key, _ := registry.GetOrCreateKey("host-1")

	raw := metrics.Report{CPU: "55.2", Mem: "1024/4096", Cores: "4"}
	snap, err := svc.Ingest("host-1", key, raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if snap.CPUUsagePercent != 55.2 {
		t.Errorf("Expected cpu 55.2, got %f", snap.CPUUsagePercent)
	}

	e, ok := c.Get("host-1")
	if !ok {
		t.Fatal("Expected cache entry after ingest")
	}
	if e.Source != cache.SourcePush {
		t.Errorf("Expected source push, got %s", e.Source)
	}
	if e.Metrics != snap {
		t.Error("Expected cached metrics to match returned snapshot")
	}
	if !c.Online("host-1", time.Now()) {
		t.Error("Expected host online right after ingest")
	}

	if len(pub.published) != 1 {
		t.Fatalf("Expected exactly one publish, got %d", len(pub.published))
	}
	if pub.published[0].HostID != "host-1" {
		t.Errorf("Expected publish for host-1, got %s", pub.published[0].HostID)
	}
}

func TestIngestWrongKeyMutatesNothing(t *testing.T) {
	svc, registry, c, pub := newTestService(t)
	registry.GetOrCreateKey("host-1")

	_, err := svc.Ingest("host-1", "wrong-key", metrics.Report{CPU: "50"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got: %v", err)
	}

	if _, ok := c.Get("host-1"); ok {
		t.Error("Expected no cache entry after rejected submission")
	}
	if len(pub.published) != 0 {
		t.Error("Expected no publish after rejected submission")
	}
}

func TestIngestWrongKeyPreservesPriorEntry(t *testing.T) {
	svc, registry, c, _ := newTestService(t)
	key, _ := registry.GetOrCreateKey("host-1")

	if _, err := svc.Ingest("host-1", key, metrics.Report{CPU: "10"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	before, _ := c.Get("host-1")

	if _, err := svc.Ingest("host-1", "bogus", metrics.Report{CPU: "99"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got: %v", err)
	}

	after, _ := c.Get("host-1")
	if after != before {
		t.Error("Expected prior cache entry to survive rejected submission")
	}
}

func TestIngestUnknownHost(t *testing.T) {
	svc, _, c, _ := newTestService(t)

	_, err := svc.Ingest("ghost", "whatever", metrics.Report{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got: %v", err)
	}
	if c.Len() != 0 {
		t.Error("Expected empty cache")
	}
}

func TestIngestSurvivesPublishFailure(t *testing.T) {
	svc, registry, c, pub := newTestService(t)
	pub.err = errors.New("stream down")
	key, _ := registry.GetOrCreateKey("host-1")

	snap, err := svc.Ingest("host-1", key, metrics.Report{CPU: "33"})
	if err != nil {
		t.Fatalf("Expected ingest to succeed despite publish failure, got: %v", err)
	}
	if snap.CPUUsagePercent != 33 {
		t.Errorf("Expected cpu 33, got %f", snap.CPUUsagePercent)
	}
	if _, ok := c.Get("host-1"); !ok {
		t.Error("Expected cache write to stand despite publish failure")
	}
}

func TestIngestLastWriteWins(t *testing.T) {
	svc, registry, c, _ := newTestService(t)
	key, _ := registry.GetOrCreateKey("host-1")

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Second)}
	i := 0
	svc.now = func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}

	svc.Ingest("host-1", key, metrics.Report{CPU: "10"})
	svc.Ingest("host-1", key, metrics.Report{CPU: "20"})

	e, _ := c.Get("host-1")
	if !e.CachedAt.Equal(base.Add(time.Second)) {
		t.Errorf("Expected cachedAt of latest write, got %v", e.CachedAt)
	}
	if e.Metrics.CPUUsagePercent != 20 {
		t.Errorf("Expected latest metrics, got %f", e.Metrics.CPUUsagePercent)
	}
}
