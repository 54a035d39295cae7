package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fleetwatch/fleetwatch/internal/cache"
	"github.com/fleetwatch/fleetwatch/internal/models"
	"github.com/fleetwatch/fleetwatch/internal/probe"
	"github.com/fleetwatch/fleetwatch/internal/store"
)

// MonitorHandler serves the dashboard-facing monitoring endpoints.
type MonitorHandler struct {
	store  *store.Store
	cache  *cache.Cache
	sched  *probe.Scheduler
	prober probe.Prober
	pub    probe.Publisher
	log    *slog.Logger
}

func NewMonitorHandler(st *store.Store, c *cache.Cache, sched *probe.Scheduler, prober probe.Prober, pub probe.Publisher, log *slog.Logger) *MonitorHandler {
	return &MonitorHandler{
		store:  st,
		cache:  c,
		sched:  sched,
		prober: prober,
		pub:    pub,
		log:    log,
	}
}

// CheckAll triggers one probe sweep over all hosts and returns the
// summary synchronously.
func (h *MonitorHandler) CheckAll(c *gin.Context) {
	summary := h.sched.ProbeAllNow(c.Request.Context())
	c.JSON(http.StatusOK, summary)
}

type infoRequest struct {
	HostID string `json:"host_id" binding:"required"`
	Force  bool   `json:"force"`
}

// Info returns current metrics for one host, preferring the cache. On a
// miss, or with force set, it probes the host directly and repopulates
// the cache.
func (h *MonitorHandler) Info(c *gin.Context) {
	var req infoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "host_id is required"})
		return
	}

	if !req.Force {
		if entry, ok := h.cache.Get(req.HostID); ok {
			c.JSON(http.StatusOK, gin.H{
				"success":     true,
				"is_cached":   true,
				"age_seconds": int64(time.Since(entry.CachedAt).Seconds()),
				"data":        entry,
			})
			return
		}
	}

	host, err := h.store.GetHost(c.Request.Context(), req.HostID)
	if err != nil {
		if errors.Is(err, store.ErrHostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "host not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to look up host"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.sched.Config().ProbeTimeout())
	defer cancel()

	snap, err := h.prober.Probe(ctx, host)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	now := time.Now()
	h.cache.Set(host.ID, snap, now, cache.SourceProbe)
	if h.pub != nil {
		if entry, ok := h.cache.Get(host.ID); ok {
			if err := h.pub.Publish(host.ID, entry); err != nil {
				h.log.Warn("metrics fan-out failed", "host_id", host.ID, "error", err)
			}
		}
	}

	entry, _ := h.cache.Get(host.ID)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"is_cached": false,
		"data":      entry,
	})
}

// Hosts lists the roster joined with durable status and push liveness.
func (h *MonitorHandler) Hosts(c *gin.Context) {
	ctx := c.Request.Context()

	hosts, err := h.store.ListHosts(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list hosts"})
		return
	}

	statuses, err := h.store.ListStatuses(ctx)
	if err != nil {
		h.log.Warn("failed to list host statuses", "error", err)
		statuses = map[string]models.HostStatus{}
	}

	now := time.Now()
	out := make([]gin.H, 0, len(hosts))
	for _, host := range hosts {
		item := gin.H{
			"host":         host,
			"agent_online": h.cache.Online(host.ID, now),
		}
		if st, ok := statuses[host.ID]; ok {
			item["status"] = st
		}
		if seen, source, ok := h.cache.LastSeen(host.ID); ok {
			item["last_report_at"] = seen
			item["last_report_source"] = source
		}
		out = append(out, item)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

// Logs returns a page of the probe log, filterable by host and outcome.
func (h *MonitorHandler) Logs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))

	q := store.LogQuery{
		HostID:  c.Query("host_id"),
		Status:  c.Query("status"),
		Page:    page,
		PerPage: perPage,
	}

	logs, total, err := h.store.ListLogs(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list probe logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"total":   total,
		"page":    q.Page,
		"data":    logs,
	})
}

// Status reports the scheduler state, its configuration and fleet totals.
func (h *MonitorHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	hosts, err := h.store.ListHosts(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list hosts"})
		return
	}

	online, offline, err := h.store.CountByStatus(ctx)
	if err != nil {
		h.log.Warn("failed to count host statuses", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"running": h.sched.Running(),
		"config":  h.sched.Config(),
		"hosts": gin.H{
			"total":   len(hosts),
			"online":  online,
			"offline": offline,
		},
	})
}

// GetConfig returns the persisted monitor configuration.
func (h *MonitorHandler) GetConfig(c *gin.Context) {
	cfg, err := h.store.GetMonitorConfig(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to read monitor config"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cfg})
}

// UpdateConfig validates and persists a new monitor configuration, then
// restarts the scheduler with it. The running timer is never mutated in
// place.
func (h *MonitorHandler) UpdateConfig(c *gin.Context) {
	var cfg models.MonitorConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid config payload"})
		return
	}
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.store.SaveMonitorConfig(c.Request.Context(), cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to save monitor config"})
		return
	}

	if err := h.sched.Restart(cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "monitor config updated", "data": cfg})
}
