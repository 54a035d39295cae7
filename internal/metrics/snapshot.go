package metrics

import (
	"time"
)

// DockerInfo summarizes container state on a host.
type DockerInfo struct {
	Installed bool `json:"installed"`
	Running   int  `json:"running"`
	Stopped   int  `json:"stopped"`
}

// Snapshot is the canonical per-host metrics record, one per observation.
// Disk and network values stay as the human-unit tokens the agent sent
// ("38G", "1.2 MB/s"); the dashboard renders them verbatim.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	CPUUsagePercent float64 `json:"cpu_usage_percent"`

	MemUsedMB       int64 `json:"memory_used_mb"`
	MemTotalMB      int64 `json:"memory_total_mb"`
	MemUsagePercent int   `json:"memory_usage_percent"`

	DiskUsed         string `json:"disk_used"`
	DiskTotal        string `json:"disk_total"`
	DiskUsagePercent string `json:"disk_usage_percent"`

	LoadAverage string `json:"load_average"`
	Cores       int    `json:"cores"`

	NetworkRxRate  string `json:"network_rx_rate"`
	NetworkTxRate  string `json:"network_tx_rate"`
	NetworkRxTotal string `json:"network_rx_total"`
	NetworkTxTotal string `json:"network_tx_total"`

	Connections int `json:"connections"`

	Docker DockerInfo `json:"docker"`

	AgentVersion string `json:"agent_version,omitempty"`
}
