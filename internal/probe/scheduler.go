package probe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fleetwatch/fleetwatch/internal/cache"
	"github.com/fleetwatch/fleetwatch/internal/models"
)

// Scheduler actively probes every registered host on a fixed interval.
// Each tick snapshots the roster, fans out one probe per host
// concurrently, and commits every host's result independently: a hung or
// failing host never delays or discards the others' results. Probe
// failures are routine data (the host is marked offline), not errors.
type Scheduler struct {
	inv    Inventory
	prober Prober
	store  StatusStore
	cache  *cache.Cache
	pub    Publisher
	log    *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	cfg     models.MonitorConfig
	running bool
	stop    chan struct{}
}

func NewScheduler(cfg models.MonitorConfig, inv Inventory, prober Prober, store StatusStore, c *cache.Cache, pub Publisher, log *slog.Logger) *Scheduler {
	return &Scheduler{
		inv:    inv,
		prober: prober,
		store:  store,
		cache:  c,
		pub:    pub,
		log:    log,
		now:    time.Now,
		cfg:    cfg,
	}
}

// Start launches the probe loop: one immediate sweep, then one per
// interval. It is a no-op when already running or when auto-start is
// disabled. A misconfigured interval is the only error it propagates.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("probe scheduler already running")
		return nil
	}
	if !s.cfg.AutoStart {
		s.log.Info("probe scheduler disabled (auto_start off)")
		return nil
	}
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid monitor config: %w", err)
	}

	s.stop = make(chan struct{})
	s.running = true
	go s.run(s.stop, s.cfg.ProbeInterval())

	s.log.Info("probe scheduler started", "interval_seconds", s.cfg.ProbeIntervalSeconds)
	return nil
}

// Stop cancels future ticks. Probes already dispatched in the current tick
// run to completion and their results still land in the cache and log.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stop)
	s.stop = nil
	s.running = false
	s.log.Info("probe scheduler stopped")
}

// Restart applies a new configuration by stopping, reconfiguring and
// starting again. A running timer is never mutated in place.
func (s *Scheduler) Restart(cfg models.MonitorConfig) error {
	s.Stop()

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	return s.Start()
}

// Running reports whether the probe loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Config returns the current monitor configuration.
func (s *Scheduler) Config() models.MonitorConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *Scheduler) run(stop chan struct{}, interval time.Duration) {
	// Deliberately not tied to the stop channel: stopping the scheduler
	// lets the in-flight sweep finish and commit its results.
	s.tick(context.Background())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick(context.Background())
		}
	}
}

// tick runs one probe sweep over the current roster followed by log
// retention cleanup. Nothing in here may panic or return an error: a
// broken roster read or cleanup failure only costs this tick.
func (s *Scheduler) tick(ctx context.Context) {
	cfg := s.Config()

	hosts, err := s.inv.ListHosts(ctx)
	if err != nil {
		s.log.Error("failed to list hosts for probing", "error", err)
		return
	}
	if len(hosts) == 0 {
		return
	}

	s.log.Info("probing hosts", "count", len(hosts))
	outcomes := s.fanOut(ctx, cfg, hosts)

	success := 0
	for _, o := range outcomes {
		if o.Success {
			success++
		}
	}
	s.log.Info("probe sweep complete", "success", success, "failed", len(outcomes)-success)

	s.cleanupLogs(ctx, cfg)
}

// fanOut probes all hosts concurrently and waits for every result,
// regardless of individual outcome. Each host's result is committed
// inside its own goroutine, so a slow host cannot hold back the rest.
func (s *Scheduler) fanOut(ctx context.Context, cfg models.MonitorConfig, hosts []models.Host) []models.ProbeOutcome {
	outcomes := make([]models.ProbeOutcome, len(hosts))

	var wg sync.WaitGroup
	for i, host := range hosts {
		wg.Add(1)
		go func(i int, host models.Host) {
			defer wg.Done()
			outcomes[i] = s.probeHost(ctx, cfg, host)
		}(i, host)
	}
	wg.Wait()

	return outcomes
}

// probeHost performs one probe attempt and commits its result. On success
// the cache, status row and log row are all updated; on failure only
// status and log change, so the last known metrics stay visible while the
// status flips to offline.
func (s *Scheduler) probeHost(ctx context.Context, cfg models.MonitorConfig, host models.Host) models.ProbeOutcome {
	start := s.now()

	probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout())
	defer cancel()

	snap, err := s.prober.Probe(probeCtx, host)
	captured := s.now()
	responseMs := captured.Sub(start).Milliseconds()

	if err != nil {
		st := models.HostStatus{
			HostID:          host.ID,
			Status:          models.StatusOffline,
			LastCheckTime:   captured,
			LastCheckStatus: models.CheckFailed,
			ResponseTimeMs:  responseMs,
		}
		if err2 := s.store.UpsertStatus(ctx, st); err2 != nil {
			s.log.Error("failed to upsert host status", "host_id", host.ID, "error", err2)
		}
		if err2 := s.store.AppendLog(ctx, models.ProbeResult{
			HostID:         host.ID,
			Success:        false,
			ResponseTimeMs: responseMs,
			ErrorMessage:   err.Error(),
			CapturedAt:     captured,
		}); err2 != nil {
			s.log.Error("failed to append probe log", "host_id", host.ID, "error", err2)
		}

		return models.ProbeOutcome{
			HostID:         host.ID,
			Success:        false,
			ResponseTimeMs: responseMs,
			Error:          err.Error(),
		}
	}

	s.cache.Set(host.ID, snap, captured, cache.SourceProbe)

	if s.pub != nil {
		if entry, ok := s.cache.Get(host.ID); ok {
			if err2 := s.pub.Publish(host.ID, entry); err2 != nil {
				s.log.Warn("metrics fan-out failed", "host_id", host.ID, "error", err2)
			}
		}
	}

	st := models.HostStatus{
		HostID:          host.ID,
		Status:          models.StatusOnline,
		LastCheckTime:   captured,
		LastCheckStatus: models.CheckSuccess,
		ResponseTimeMs:  responseMs,
	}
	if err2 := s.store.UpsertStatus(ctx, st); err2 != nil {
		s.log.Error("failed to upsert host status", "host_id", host.ID, "error", err2)
	}
	if err2 := s.store.AppendLog(ctx, models.ProbeResult{
		HostID:         host.ID,
		Success:        true,
		ResponseTimeMs: responseMs,
		CapturedAt:     captured,
	}); err2 != nil {
		s.log.Error("failed to append probe log", "host_id", host.ID, "error", err2)
	}

	return models.ProbeOutcome{
		HostID:         host.ID,
		Success:        true,
		ResponseTimeMs: responseMs,
	}
}

// ProbeAllNow runs one sweep outside the timer and returns a summary to
// the caller synchronously. It works whether or not the loop is running.
func (s *Scheduler) ProbeAllNow(ctx context.Context) models.ProbeSummary {
	cfg := s.Config()

	hosts, err := s.inv.ListHosts(ctx)
	if err != nil {
		return models.ProbeSummary{
			Success: false,
			Message: fmt.Sprintf("failed to list hosts: %v", err),
			Results: []models.ProbeOutcome{},
		}
	}
	if len(hosts) == 0 {
		return models.ProbeSummary{
			Success: true,
			Message: "no hosts to probe",
			Results: []models.ProbeOutcome{},
		}
	}

	outcomes := s.fanOut(ctx, cfg, hosts)

	success := 0
	for _, o := range outcomes {
		if o.Success {
			success++
		}
	}

	return models.ProbeSummary{
		Success:      true,
		Message:      fmt.Sprintf("probe complete: %d succeeded, %d failed", success, len(outcomes)-success),
		Total:        len(hosts),
		SuccessCount: success,
		FailedCount:  len(outcomes) - success,
		Results:      outcomes,
	}
}

// cleanupLogs deletes probe log rows past the retention window. Failures
// are logged and swallowed; retention runs again next tick.
func (s *Scheduler) cleanupLogs(ctx context.Context, cfg models.MonitorConfig) {
	cutoff := s.now().Add(-cfg.LogRetention())

	deleted, err := s.store.DeleteLogsBefore(ctx, cutoff)
	if err != nil {
		s.log.Warn("probe log cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		s.log.Info("cleaned up old probe logs", "deleted", deleted)
	}
}
