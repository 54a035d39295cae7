package models

import (
	"fmt"
	"time"
)

// MonitorConfig is the runtime configuration of the probe scheduler.
// It is persisted in the settings table and editable over the API;
// changing it restarts the scheduler rather than mutating a live timer.
type MonitorConfig struct {
	ProbeIntervalSeconds int  `json:"probe_interval"`
	ProbeTimeoutSeconds  int  `json:"probe_timeout"`
	LogRetentionDays     int  `json:"log_retention_days"`
	AutoStart            bool `json:"auto_start"`
}

const (
	MinProbeIntervalSeconds = 5
	MaxProbeIntervalSeconds = 3600
)

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		ProbeIntervalSeconds: 60,
		ProbeTimeoutSeconds:  10,
		LogRetentionDays:     7,
		AutoStart:            true,
	}
}

// Validate rejects values the scheduler cannot safely run with.
func (c MonitorConfig) Validate() error {
	if c.ProbeIntervalSeconds < MinProbeIntervalSeconds || c.ProbeIntervalSeconds > MaxProbeIntervalSeconds {
		return fmt.Errorf("probe_interval must be between %d and %d seconds",
			MinProbeIntervalSeconds, MaxProbeIntervalSeconds)
	}
	if c.ProbeTimeoutSeconds < 1 || c.ProbeTimeoutSeconds > 300 {
		return fmt.Errorf("probe_timeout must be between 1 and 300 seconds")
	}
	if c.LogRetentionDays < 1 || c.LogRetentionDays > 365 {
		return fmt.Errorf("log_retention_days must be between 1 and 365")
	}
	return nil
}

func (c MonitorConfig) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalSeconds) * time.Second
}

func (c MonitorConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

func (c MonitorConfig) LogRetention() time.Duration {
	return time.Duration(c.LogRetentionDays) * 24 * time.Hour
}
