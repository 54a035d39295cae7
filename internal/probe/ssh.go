package probe

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/fleetwatch/fleetwatch/internal/metrics"
	"github.com/fleetwatch/fleetwatch/internal/models"
)

// probeScript collects the same fields the push agent reports, emitted as
// key=value lines. It must stay POSIX-sh compatible; hosts run anything
// from busybox to full coreutils.
const probeScript = `
CPU=$(grep 'cpu ' /proc/stat | awk '{u=($2+$4)*100/($2+$4+$5)} END {printf "%.1f", u}')
MEM=$(free -m | awk 'NR==2{printf "%d/%d", $3, $2}')
DISK=$(df -h / | awk 'NR==2{printf "%s/%s (%s)", $3, $2, $5}')
LOAD=$(cat /proc/loadavg | awk '{print $1,$2,$3}')
CORES=$(nproc 2>/dev/null || grep -c ^processor /proc/cpuinfo)
CONNS=$(ss -ant 2>/dev/null | grep -c ESTAB || echo 0)
if command -v docker >/dev/null 2>&1; then
  DOCKER_INSTALLED=true
  DOCKER_RUNNING=$(docker ps -q 2>/dev/null | wc -l | tr -d ' ')
  DOCKER_TOTAL=$(docker ps -aq 2>/dev/null | wc -l | tr -d ' ')
  DOCKER_STOPPED=$((DOCKER_TOTAL - DOCKER_RUNNING))
else
  DOCKER_INSTALLED=false
  DOCKER_RUNNING=0
  DOCKER_STOPPED=0
fi
printf 'cpu=%s\n' "$CPU"
printf 'mem=%s\n' "$MEM"
printf 'disk=%s\n' "$DISK"
printf 'load=%s\n' "$LOAD"
printf 'cores=%s\n' "$CORES"
printf 'connections=%s\n' "$CONNS"
printf 'docker_installed=%s\n' "$DOCKER_INSTALLED"
printf 'docker_running=%s\n' "$DOCKER_RUNNING"
printf 'docker_stopped=%s\n' "$DOCKER_STOPPED"
`

// SSHProber collects metrics over an SSH session. It authenticates with
// the host's stored password or private key and runs a short collection
// script, so monitored machines need no agent installed for the pull path.
type SSHProber struct {
	log *slog.Logger
	now func() time.Time
}

func NewSSHProber(log *slog.Logger) *SSHProber {
	return &SSHProber{
		log: log,
		now: time.Now,
	}
}

func (p *SSHProber) Probe(ctx context.Context, host models.Host) (metrics.Snapshot, error) {
	clientCfg, err := p.clientConfig(ctx, host)
	if err != nil {
		return metrics.Snapshot{}, err
	}

	port := host.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(host.Addr, strconv.Itoa(port))

	client, err := ssh.Dial("tcp", addr, clientCfg)
	if err != nil {
		return metrics.Snapshot{}, fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return metrics.Snapshot{}, fmt.Errorf("ssh session: %w", err)
	}
	defer session.Close()

	type execResult struct {
		out []byte
		err error
	}
	done := make(chan execResult, 1)
	go func() {
		out, err := session.Output(probeScript)
		done <- execResult{out, err}
	}()

	select {
	case <-ctx.Done():
		// Tear the session down so the goroutine unblocks
		session.Close()
		client.Close()
		return metrics.Snapshot{}, fmt.Errorf("probe timed out: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return metrics.Snapshot{}, fmt.Errorf("probe command failed: %w", r.err)
		}
		return metrics.Normalize(parseProbeOutput(r.out), p.now()), nil
	}
}

func (p *SSHProber) clientConfig(ctx context.Context, host models.Host) (*ssh.ClientConfig, error) {
	cfg := &ssh.ClientConfig{
		User: host.Username,
		// Fleet hosts are provisioned out-of-band; host keys are not
		// pinned here
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	if deadline, ok := ctx.Deadline(); ok {
		cfg.Timeout = time.Until(deadline)
	}

	switch host.AuthType {
	case "key":
		signer, err := ssh.ParsePrivateKey([]byte(host.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("parse private key for %s: %w", host.ID, err)
		}
		cfg.Auth = []ssh.AuthMethod{ssh.PublicKeys(signer)}
	case "password", "":
		cfg.Auth = []ssh.AuthMethod{ssh.Password(host.Password)}
	default:
		return nil, fmt.Errorf("unsupported auth type %q for host %s", host.AuthType, host.ID)
	}

	return cfg, nil
}

// parseProbeOutput turns key=value lines from the probe script into a raw
// report. Unknown keys are ignored; missing keys normalize to defaults.
func parseProbeOutput(out []byte) metrics.Report {
	var raw metrics.Report

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		field := metrics.Field(value)
		switch key {
		case "cpu":
			raw.CPU = field
		case "mem":
			raw.Mem = field
		case "disk":
			raw.Disk = field
		case "load":
			raw.Load = field
		case "cores":
			raw.Cores = field
		case "connections":
			raw.Connections = field
		case "docker_installed":
			raw.DockerInstalled = field
		case "docker_running":
			raw.DockerRunning = field
		case "docker_stopped":
			raw.DockerStopped = field
		}
	}

	return raw
}
