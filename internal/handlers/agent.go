package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fleetwatch/fleetwatch/internal/agent"
	"github.com/fleetwatch/fleetwatch/internal/ingest"
	"github.com/fleetwatch/fleetwatch/internal/metrics"
	"github.com/fleetwatch/fleetwatch/internal/store"
)

// Request headers set by the push agent.
const (
	HeaderHostID   = "X-Host-ID"
	HeaderAgentKey = "X-Agent-Key"
)

// AgentHandler serves the agent-facing endpoints: metrics push and
// credential issuance.
type AgentHandler struct {
	svc      *ingest.Service
	registry *agent.Registry
	store    *store.Store
	log      *slog.Logger
}

func NewAgentHandler(svc *ingest.Service, registry *agent.Registry, st *store.Store, log *slog.Logger) *AgentHandler {
	return &AgentHandler{
		svc:      svc,
		registry: registry,
		store:    st,
		log:      log,
	}
}

// Push handles incoming metrics from host agents.
func (h *AgentHandler) Push(c *gin.Context) {
	hostID := c.GetHeader(HeaderHostID)
	agentKey := c.GetHeader(HeaderAgentKey)

	if hostID == "" || agentKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing host id or agent key"})
		return
	}
	if _, err := uuid.Parse(hostID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid host id"})
		return
	}

	var raw metrics.Report
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON payload"})
		return
	}

	snap, err := h.svc.Ingest(hostID, agentKey, raw)
	if errors.Is(err, ingest.ErrUnauthorized) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "access denied"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	// Durable last-seen is advisory; the cache already carries liveness
	if err := h.store.TouchHostLastSeen(c.Request.Context(), hostID, time.Now()); err != nil {
		h.log.Warn("failed to update host last_seen", "host_id", hostID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": snap})
}

// Credential returns the agent key for a host, generating one on first
// request.
func (h *AgentHandler) Credential(c *gin.Context) {
	hostID := c.Param("id")

	if _, err := h.store.GetHost(c.Request.Context(), hostID); err != nil {
		if errors.Is(err, store.ErrHostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "host not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to look up host"})
		return
	}

	key, err := h.registry.GetOrCreateKey(hostID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to issue agent key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"host_id":   hostID,
		"agent_key": key,
	})
}

// RegenerateCredential replaces the host's agent key, invalidating the
// old one immediately.
func (h *AgentHandler) RegenerateCredential(c *gin.Context) {
	hostID := c.Param("id")

	if _, err := h.store.GetHost(c.Request.Context(), hostID); err != nil {
		if errors.Is(err, store.ErrHostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "host not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to look up host"})
		return
	}

	key, err := h.registry.RegenerateKey(hostID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to regenerate agent key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"host_id":   hostID,
		"agent_key": key,
	})
}
