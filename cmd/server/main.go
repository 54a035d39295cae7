package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fleetwatch/fleetwatch/internal/agent"
	"github.com/fleetwatch/fleetwatch/internal/cache"
	"github.com/fleetwatch/fleetwatch/internal/config"
	"github.com/fleetwatch/fleetwatch/internal/database"
	"github.com/fleetwatch/fleetwatch/internal/handlers"
	"github.com/fleetwatch/fleetwatch/internal/health"
	"github.com/fleetwatch/fleetwatch/internal/ingest"
	"github.com/fleetwatch/fleetwatch/internal/logger"
	"github.com/fleetwatch/fleetwatch/internal/models"
	"github.com/fleetwatch/fleetwatch/internal/probe"
	"github.com/fleetwatch/fleetwatch/internal/realtime"
	"github.com/fleetwatch/fleetwatch/internal/retry"
	"github.com/fleetwatch/fleetwatch/internal/store"
	"github.com/fleetwatch/fleetwatch/internal/valkey"
)

const version = "1.2.0"

func main() {
	cfg := config.Load()
	slogger := logger.New()

	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	// Initialize database (the DB may come up after us in compose setups)
	var db *database.DB
	err := retry.WithLinearBackoff(ctx, slogger, 10, 3*time.Second, "connect postgres", func() error {
		var err error
		db, err = database.New(cfg)
		return err
	})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	slogger.Info("connected to postgres", "host", cfg.DBHost, "db", cfg.DBName)

	// Initialize Valkey
	var valkeyClient *valkey.Client
	err = retry.WithLinearBackoff(ctx, slogger, 10, 3*time.Second, "connect valkey", func() error {
		var err error
		valkeyClient, err = valkey.New(cfg)
		return err
	})
	if err != nil {
		log.Fatalf("Failed to initialize Valkey: %v", err)
	}
	defer valkeyClient.Close()
	slogger.Info("connected to valkey", "addr", cfg.GetValkeyAddress())

	st := store.New(db, cfg.DBSchema)

	monitorCfg, err := st.GetMonitorConfig(ctx)
	if err != nil {
		slogger.Warn("failed to load monitor config, using defaults", "error", err)
		monitorCfg = models.DefaultMonitorConfig()
	}

	// Core monitoring state
	metricsCache := cache.New(cfg.AgentStaleThreshold)
	registry := agent.NewRegistry()
	hub := realtime.NewHub(slogger)
	publisher := realtime.NewPublisher(hub, valkeyClient, slogger)

	ingestSvc := ingest.New(registry, metricsCache, publisher, slogger)
	prober := probe.NewSSHProber(slogger)
	scheduler := probe.NewScheduler(monitorCfg, st, prober, st, metricsCache, publisher, slogger)

	// Configuration errors are the one thing allowed to kill startup
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start probe scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Initialize router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", handlers.HeaderHostID, handlers.HeaderAgentKey},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	router.GET("/health", gin.WrapF(health.Handler(db, valkeyClient, version)))

	agentHandler := handlers.NewAgentHandler(ingestSvc, registry, st, slogger)
	monitorHandler := handlers.NewMonitorHandler(st, metricsCache, scheduler, prober, publisher, slogger)

	// Agent routes (for push agents)
	router.POST("/agent/push", agentHandler.Push)

	// API routes (for the dashboard)
	api := router.Group("/api")
	{
		api.GET("/agent/credential/:id", agentHandler.Credential)
		api.POST("/agent/credential/:id/regenerate", agentHandler.RegenerateCredential)

		api.GET("/hosts", monitorHandler.Hosts)
		api.POST("/hosts/info", monitorHandler.Info)
		api.POST("/hosts/check-all", monitorHandler.CheckAll)

		api.GET("/monitor/status", monitorHandler.Status)
		api.GET("/monitor/config", monitorHandler.GetConfig)
		api.PUT("/monitor/config", monitorHandler.UpdateConfig)
		api.GET("/monitor/logs", monitorHandler.Logs)
	}

	// Realtime stream for dashboard clients
	router.GET("/ws/metrics", hub.HandleWebSocket)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slogger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown: stop the scheduler first so no new sweeps start,
	// then drain HTTP
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	slogger.Info("shutting down", "signal", sig.String())

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slogger.Error("server shutdown failed", "error", err)
	}
}
