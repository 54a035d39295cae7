package metrics

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalizeTypicalReport(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	raw := Report{
		CPU:   "55.2",
		Mem:   "1024/4096",
		Disk:  "20G/50G (40%)",
		Load:  "0.52 0.48 0.45",
		Cores: "4",
	}

	snap := Normalize(raw, now)

	if snap.CPUUsagePercent != 55.2 {
		t.Errorf("Expected cpu 55.2, got %f", snap.CPUUsagePercent)
	}
	if snap.MemUsedMB != 1024 || snap.MemTotalMB != 4096 {
		t.Errorf("Expected mem 1024/4096, got %d/%d", snap.MemUsedMB, snap.MemTotalMB)
	}
	if snap.MemUsagePercent != 25 {
		t.Errorf("Expected mem usage 25, got %d", snap.MemUsagePercent)
	}
	if snap.DiskUsed != "20G" || snap.DiskTotal != "50G" {
		t.Errorf("Expected disk 20G/50G, got %q/%q", snap.DiskUsed, snap.DiskTotal)
	}
	if snap.DiskUsagePercent != "40%" {
		t.Errorf("Expected disk usage '40%%', got %q", snap.DiskUsagePercent)
	}
	if snap.Cores != 4 {
		t.Errorf("Expected 4 cores, got %d", snap.Cores)
	}
	if snap.LoadAverage != "0.52 0.48 0.45" {
		t.Errorf("Expected load passthrough, got %q", snap.LoadAverage)
	}
	if !snap.Timestamp.Equal(now) {
		t.Errorf("Expected timestamp %v, got %v", now, snap.Timestamp)
	}
}

func TestNormalizeEmptyReport(t *testing.T) {
	snap := Normalize(Report{}, time.Now())

	if snap.CPUUsagePercent != 0 {
		t.Errorf("Expected cpu 0, got %f", snap.CPUUsagePercent)
	}
	if snap.MemUsedMB != 0 || snap.MemTotalMB != 0 || snap.MemUsagePercent != 0 {
		t.Error("Expected zeroed memory fields")
	}
	if snap.DiskUsed != "" || snap.DiskTotal != "" || snap.DiskUsagePercent != "" {
		t.Error("Expected empty disk tokens")
	}
	if snap.Cores != 1 {
		t.Errorf("Expected default 1 core, got %d", snap.Cores)
	}
	if snap.LoadAverage != "0 0 0" {
		t.Errorf("Expected default load, got %q", snap.LoadAverage)
	}
	if snap.NetworkRxRate != "0 B/s" || snap.NetworkTxRate != "0 B/s" {
		t.Error("Expected default network rates")
	}
	if snap.NetworkRxTotal != "0 B" || snap.NetworkTxTotal != "0 B" {
		t.Error("Expected default network totals")
	}
	if snap.Connections != 0 {
		t.Errorf("Expected 0 connections, got %d", snap.Connections)
	}
	if snap.Docker.Installed || snap.Docker.Running != 0 || snap.Docker.Stopped != 0 {
		t.Error("Expected zeroed docker info")
	}
}

func TestNormalizeMalformedFields(t *testing.T) {
	tests := []struct {
		name string
		raw  Report
		want func(Snapshot) bool
		desc string
	}{
		{
			name: "garbage cpu",
			raw:  Report{CPU: "not-a-number"},
			want: func(s Snapshot) bool { return s.CPUUsagePercent == 0 },
			desc: "cpu should default to 0",
		},
		{
			name: "mem without slash",
			raw:  Report{Mem: "4096MB"},
			want: func(s Snapshot) bool { return s.MemUsedMB == 0 && s.MemTotalMB == 0 && s.MemUsagePercent == 0 },
			desc: "memory should zero out",
		},
		{
			name: "mem with zero total",
			raw:  Report{Mem: "100/0"},
			want: func(s Snapshot) bool { return s.MemUsagePercent == 0 },
			desc: "usage should be 0 when total is 0",
		},
		{
			name: "mem with unit suffix",
			raw:  Report{Mem: "1024/2048MB"},
			want: func(s Snapshot) bool { return s.MemUsedMB == 1024 && s.MemTotalMB == 2048 && s.MemUsagePercent == 50 },
			desc: "unit suffix should not break extraction",
		},
		{
			name: "disk without percent",
			raw:  Report{Disk: "38G/40G"},
			want: func(s Snapshot) bool { return s.DiskUsed == "38G" && s.DiskTotal == "40G" && s.DiskUsagePercent == "" },
			desc: "percent group is optional",
		},
		{
			name: "zero cores",
			raw:  Report{Cores: "0"},
			want: func(s Snapshot) bool { return s.Cores == 1 },
			desc: "cores should clamp to 1",
		},
		{
			name: "negative connections",
			raw:  Report{Connections: "-3"},
			want: func(s Snapshot) bool { return s.Connections == 0 },
			desc: "connections should clamp to 0",
		},
		{
			name: "docker string booleans",
			raw:  Report{DockerInstalled: "true", DockerRunning: "3", DockerStopped: "1"},
			want: func(s Snapshot) bool {
				return s.Docker.Installed && s.Docker.Running == 3 && s.Docker.Stopped == 1
			},
			desc: "string 'true' should count as installed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Normalize(tt.raw, time.Now())
			if !tt.want(snap) {
				t.Errorf("%s: %+v", tt.desc, snap)
			}
		})
	}
}

func TestNormalizeMemUsageBounds(t *testing.T) {
	// Usage must land in [0,100] whenever total > 0
	inputs := []string{"0/100", "50/100", "100/100", "1/3", "999/1000"}
	for _, in := range inputs {
		snap := Normalize(Report{Mem: Field(in)}, time.Now())
		if snap.MemUsagePercent < 0 || snap.MemUsagePercent > 100 {
			t.Errorf("mem %q: usage %d out of range", in, snap.MemUsagePercent)
		}
	}
}

func TestReportUnmarshalMixedTypes(t *testing.T) {
	// Agents are inconsistent about types: cores and connections arrive as
	// numbers, docker_installed as a native boolean, the rest as strings.
	body := `{
		"cpu": "12.5",
		"mem": "512/2048",
		"cores": 8,
		"connections": 42,
		"docker_installed": true,
		"docker_running": "2"
	}`

	var raw Report
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	snap := Normalize(raw, time.Now())
	if snap.Cores != 8 {
		t.Errorf("Expected 8 cores, got %d", snap.Cores)
	}
	if snap.Connections != 42 {
		t.Errorf("Expected 42 connections, got %d", snap.Connections)
	}
	if !snap.Docker.Installed {
		t.Error("Expected docker installed")
	}
	if snap.Docker.Running != 2 {
		t.Errorf("Expected 2 running containers, got %d", snap.Docker.Running)
	}
}
