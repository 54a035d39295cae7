package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetwatch/fleetwatch/internal/config"
	"github.com/fleetwatch/fleetwatch/internal/database"
	"github.com/fleetwatch/fleetwatch/internal/store"
)

// One-shot probe log retention purge. The scheduler already cleans up
// after every sweep; this binary exists for cron-driven deployments that
// run the server with auto_start off.
func main() {
	log.Println("FleetWatch Cleaner")
	log.Println("==================")

	// Load configuration
	cfg := config.Load()

	// Validate required configuration
	if cfg.DBHost == "" || cfg.DBName == "" {
		log.Fatal("Database configuration is required (DB_HOST, DB_NAME)")
	}

	// Log configuration (without sensitive data)
	log.Printf("Database: %s:%s/%s (schema: %s)", cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSchema)
	if cfg.DryRun {
		log.Println("DRY RUN MODE: No data will be deleted")
	}

	// Connect to database
	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to PostgreSQL")

	// Setup context with timeout (max 10 minutes for cleanup)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, canceling operations...", sig)
		cancel()
	}()

	st := store.New(db, cfg.DBSchema)

	// Retention comes from the persisted monitor config, same window the
	// scheduler uses
	monitorCfg, err := st.GetMonitorConfig(ctx)
	if err != nil {
		log.Fatalf("Failed to load monitor config: %v", err)
	}
	cutoff := time.Now().Add(-monitorCfg.LogRetention())
	log.Printf("Retention: %d days (cutoff: %s)", monitorCfg.LogRetentionDays, cutoff.Format(time.RFC3339))

	if cfg.DryRun {
		count, err := st.CountLogsBefore(ctx, cutoff)
		if err != nil {
			log.Printf("Cleanup failed: %v", err)
			os.Exit(1)
		}
		log.Printf("Would delete %d probe log rows", count)
		return
	}

	deleted, err := st.DeleteLogsBefore(ctx, cutoff)
	if err != nil {
		log.Printf("Cleanup failed: %v", err)
		os.Exit(1)
	}

	log.Printf("Deleted %d probe log rows", deleted)
	log.Println("Cleanup completed successfully")
}
