// Package ingest accepts metrics pushed by host agents.
package ingest

import (
	"errors"
	"log/slog"
	"time"

	"github.com/fleetwatch/fleetwatch/internal/agent"
	"github.com/fleetwatch/fleetwatch/internal/cache"
	"github.com/fleetwatch/fleetwatch/internal/metrics"
)

// ErrUnauthorized is returned when the host is unknown or the agent key
// does not match. The submission is rejected with no state mutated.
var ErrUnauthorized = errors.New("unknown host or invalid agent key")

// Publisher delivers a cache update to subscribed dashboard clients.
type Publisher interface {
	Publish(hostID string, entry cache.Entry) error
}

// Service handles the push data path: authenticate, normalize, cache,
// publish. A submission is accepted or rejected atomically; there are no
// retries, the agent resends on its own timer.
type Service struct {
	registry *agent.Registry
	cache    *cache.Cache
	pub      Publisher
	log      *slog.Logger
	now      func() time.Time
}

func New(registry *agent.Registry, c *cache.Cache, pub Publisher, log *slog.Logger) *Service {
	return &Service{
		registry: registry,
		cache:    c,
		pub:      pub,
		log:      log,
		now:      time.Now,
	}
}

// Ingest processes one agent submission. On auth failure it returns
// ErrUnauthorized and leaves the cache untouched. Fan-out failures are
// logged and swallowed; they never fail an accepted submission.
func (s *Service) Ingest(hostID, agentKey string, raw metrics.Report) (metrics.Snapshot, error) {
	if !s.registry.Verify(hostID, agentKey) {
		return metrics.Snapshot{}, ErrUnauthorized
	}

	now := s.now()
	snap := metrics.Normalize(raw, now)

	s.cache.Set(hostID, snap, now, cache.SourcePush)

	entry, _ := s.cache.Get(hostID)
	if s.pub != nil {
		if err := s.pub.Publish(hostID, entry); err != nil {
			s.log.Warn("metrics fan-out failed", "host_id", hostID, "error", err)
		}
	}

	return snap, nil
}
