package metrics

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// "1024/2048" or "1024/2048MB"
	memPattern = regexp.MustCompile(`(\d+)/(\d+)`)

	// "38G/40G (95%)" - the percentage group is optional
	diskPattern = regexp.MustCompile(`([^/]+)/(\S+)\s*\(?([\d.]+%?)?\)?`)
)

// Normalize converts a raw agent report into a canonical snapshot captured
// at the given instant. It is total: any unparseable field falls back to
// its default instead of producing an error.
func Normalize(raw Report, at time.Time) Snapshot {
	snap := Snapshot{
		Timestamp:       at,
		CPUUsagePercent: parseFloat(raw.CPU.String(), 0),
		LoadAverage:     defaultString(raw.Load.String(), "0 0 0"),
		Cores:           parseIntMin(raw.Cores.String(), 1, 1),
		NetworkRxRate:   defaultString(raw.RxSpeed.String(), "0 B/s"),
		NetworkTxRate:   defaultString(raw.TxSpeed.String(), "0 B/s"),
		NetworkRxTotal:  defaultString(raw.RxTotal.String(), "0 B"),
		NetworkTxTotal:  defaultString(raw.TxTotal.String(), "0 B"),
		Connections:     parseIntMin(raw.Connections.String(), 0, 0),
		Docker: DockerInfo{
			Installed: parseBool(raw.DockerInstalled.String()),
			Running:   parseIntMin(raw.DockerRunning.String(), 0, 0),
			Stopped:   parseIntMin(raw.DockerStopped.String(), 0, 0),
		},
		AgentVersion: raw.AgentVersion.String(),
	}

	if m := memPattern.FindStringSubmatch(raw.Mem.String()); m != nil {
		used, _ := strconv.ParseInt(m[1], 10, 64)
		total, _ := strconv.ParseInt(m[2], 10, 64)
		snap.MemUsedMB = used
		snap.MemTotalMB = total
		if total > 0 {
			snap.MemUsagePercent = int(math.Round(float64(used) / float64(total) * 100))
		}
	}

	if m := diskPattern.FindStringSubmatch(raw.Disk.String()); m != nil {
		snap.DiskUsed = strings.TrimSpace(m[1])
		snap.DiskTotal = strings.TrimSpace(m[2])
		snap.DiskUsagePercent = m[3]
	}

	return snap
}

func parseFloat(s string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// parseIntMin parses s as an integer, falling back to def when it does not
// parse and clamping to min when it does.
func parseIntMin(s string, def, min int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	return v
}

func parseBool(s string) bool {
	return strings.TrimSpace(s) == "true"
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
