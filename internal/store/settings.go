package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fleetwatch/fleetwatch/internal/models"
)

// GetMonitorConfig reads the scheduler configuration from the settings
// row, falling back to defaults when none has been saved yet.
func (s *Store) GetMonitorConfig(ctx context.Context) (models.MonitorConfig, error) {
	query := fmt.Sprintf(`
		SELECT probe_interval_seconds, probe_timeout_seconds, log_retention_days, auto_start
		FROM %s.monitor_config
		WHERE id = 1
	`, s.schema)

	var cfg models.MonitorConfig
	err := s.db.QueryRowContext(ctx, query).Scan(
		&cfg.ProbeIntervalSeconds, &cfg.ProbeTimeoutSeconds, &cfg.LogRetentionDays, &cfg.AutoStart)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultMonitorConfig(), nil
	}
	if err != nil {
		return models.MonitorConfig{}, fmt.Errorf("failed to read monitor config: %w", err)
	}
	return cfg, nil
}

// SaveMonitorConfig persists the scheduler configuration.
func (s *Store) SaveMonitorConfig(ctx context.Context, cfg models.MonitorConfig) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.monitor_config (id, probe_interval_seconds, probe_timeout_seconds, log_retention_days, auto_start)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			probe_interval_seconds = EXCLUDED.probe_interval_seconds,
			probe_timeout_seconds = EXCLUDED.probe_timeout_seconds,
			log_retention_days = EXCLUDED.log_retention_days,
			auto_start = EXCLUDED.auto_start
	`, s.schema)

	_, err := s.db.ExecContext(ctx, query,
		cfg.ProbeIntervalSeconds, cfg.ProbeTimeoutSeconds, cfg.LogRetentionDays, cfg.AutoStart)
	if err != nil {
		return fmt.Errorf("failed to save monitor config: %w", err)
	}
	return nil
}
