package probe

import (
	"context"
	"time"

	"github.com/fleetwatch/fleetwatch/internal/cache"
	"github.com/fleetwatch/fleetwatch/internal/metrics"
	"github.com/fleetwatch/fleetwatch/internal/models"
)

// Prober is the remote-exec transport boundary. An implementation connects
// to the host, collects current metrics, and returns them as a snapshot.
// A returned error means the host could not be reached or the collection
// failed; the scheduler records it as an offline observation.
type Prober interface {
	Probe(ctx context.Context, host models.Host) (metrics.Snapshot, error)
}

// Inventory supplies the host roster to probe. Owned by the external
// host-management layer; the scheduler only snapshots it per tick.
type Inventory interface {
	ListHosts(ctx context.Context) ([]models.Host, error)
}

// StatusStore persists per-host probe state: a status row upserted on
// every check and an append-only probe log with retention.
type StatusStore interface {
	UpsertStatus(ctx context.Context, st models.HostStatus) error
	AppendLog(ctx context.Context, r models.ProbeResult) error
	DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Publisher delivers a cache update to subscribed dashboard clients.
type Publisher interface {
	Publish(hostID string, entry cache.Entry) error
}
