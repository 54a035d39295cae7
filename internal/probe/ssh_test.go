package probe

import (
	"testing"
	"time"

	"github.com/fleetwatch/fleetwatch/internal/metrics"
)

func TestParseProbeOutput(t *testing.T) {
	out := []byte(`cpu=23.4
mem=1847/3936
disk=38G/40G (95%)
load=0.12 0.08 0.05
cores=2
connections=17
docker_installed=true
docker_running=3
docker_stopped=1
`)

	snap := metrics.Normalize(parseProbeOutput(out), time.Now())

	if snap.CPUUsagePercent != 23.4 {
		t.Errorf("Expected cpu 23.4, got %f", snap.CPUUsagePercent)
	}
	if snap.MemUsedMB != 1847 || snap.MemTotalMB != 3936 {
		t.Errorf("Expected mem 1847/3936, got %d/%d", snap.MemUsedMB, snap.MemTotalMB)
	}
	if snap.DiskUsed != "38G" || snap.DiskTotal != "40G" || snap.DiskUsagePercent != "95%" {
		t.Errorf("Expected disk 38G/40G 95%%, got %q/%q %q", snap.DiskUsed, snap.DiskTotal, snap.DiskUsagePercent)
	}
	if snap.LoadAverage != "0.12 0.08 0.05" {
		t.Errorf("Expected load passthrough, got %q", snap.LoadAverage)
	}
	if snap.Cores != 2 {
		t.Errorf("Expected 2 cores, got %d", snap.Cores)
	}
	if snap.Connections != 17 {
		t.Errorf("Expected 17 connections, got %d", snap.Connections)
	}
	if !snap.Docker.Installed || snap.Docker.Running != 3 || snap.Docker.Stopped != 1 {
		t.Errorf("Expected docker 3 running / 1 stopped, got %+v", snap.Docker)
	}
}

func TestParseProbeOutputPartial(t *testing.T) {
	// A busybox host without ss or docker produces fewer lines; the rest
	// fall back to defaults
	out := []byte(`cpu=5.0
mem=100/200
garbage line without equals
unknown_key=whatever
`)

	snap := metrics.Normalize(parseProbeOutput(out), time.Now())

	if snap.CPUUsagePercent != 5.0 {
		t.Errorf("Expected cpu 5.0, got %f", snap.CPUUsagePercent)
	}
	if snap.MemUsagePercent != 50 {
		t.Errorf("Expected mem usage 50, got %d", snap.MemUsagePercent)
	}
	if snap.Cores != 1 {
		t.Errorf("Expected default 1 core, got %d", snap.Cores)
	}
	if snap.Docker.Installed {
		t.Error("Expected docker not installed by default")
	}
}

func TestParseProbeOutputEmpty(t *testing.T) {
	snap := metrics.Normalize(parseProbeOutput(nil), time.Now())
	if snap.Cores != 1 || snap.LoadAverage != "0 0 0" {
		t.Errorf("Expected defaulted snapshot, got %+v", snap)
	}
}
