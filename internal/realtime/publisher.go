package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/fleetwatch/fleetwatch/internal/cache"
	"github.com/fleetwatch/fleetwatch/internal/valkey"
)

// MetricsStreamKey is the Valkey stream external consumers subscribe to.
const MetricsStreamKey = "fleetwatch:metrics:stream"

// Publisher fans a cache update out to dashboard clients: locally over the
// WebSocket hub and, when a Valkey client is configured, onto a stream for
// consumers in other processes. Publishing is best-effort by contract;
// callers log the returned error and move on.
type Publisher struct {
	hub    *Hub
	valkey *valkey.Client
	log    *slog.Logger
}

func NewPublisher(hub *Hub, valkeyClient *valkey.Client, log *slog.Logger) *Publisher {
	return &Publisher{
		hub:    hub,
		valkey: valkeyClient,
		log:    log,
	}
}

// Publish broadcasts one cache entry. Each leg fails independently; a
// Valkey outage does not stop local WebSocket delivery or vice versa.
func (p *Publisher) Publish(hostID string, entry cache.Entry) error {
	var errs []error

	if p.hub != nil {
		if err := p.hub.Broadcast(entry); err != nil {
			errs = append(errs, err)
		}
	}

	if p.valkey != nil {
		payload, err := json.Marshal(entry)
		if err != nil {
			errs = append(errs, err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			fields := map[string]string{
				"host_id":   hostID,
				"payload":   string(payload),
				"timestamp": entry.CachedAt.UTC().Format(time.RFC3339),
			}
			if _, err := p.valkey.XAdd(ctx, MetricsStreamKey, fields); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}
