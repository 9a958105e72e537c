package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is one point-in-time sample of host utilization. Immutable once
// produced; never persisted.
type Snapshot struct {
	CPUPercent float64 `json:"cpuPercent"`
	Memory     Usage   `json:"memory"`
	Disk       Usage   `json:"disk"`
}

type Usage struct {
	UsedBytes  uint64  `json:"usedBytes"`
	TotalBytes uint64  `json:"totalBytes"`
	Percent    float64 `json:"percent"`
}

// HostStats abstracts raw host counters so the provider stays
// platform-agnostic and unit-testable with a fake.
type HostStats interface {
	CPUPercent() (float64, error)
	Memory() (used, total uint64, err error)
	Disk() (used, total uint64, err error)
	Uptime() (time.Duration, error)
}

// GopsutilStats reads host counters via gopsutil. diskPath is the mount point
// whose usage the panel reports, normally "/".
type GopsutilStats struct {
	DiskPath string
}

func (GopsutilStats) CPUPercent() (float64, error) {
	// interval 0 samples against the previous call, non-blocking
	pcts, err := cpu.Percent(0, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, fmt.Errorf("cpu: no samples")
	}
	return pcts[0], nil
}

func (GopsutilStats) Memory() (uint64, uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return vm.Used, vm.Total, nil
}

func (g GopsutilStats) Disk() (uint64, uint64, error) {
	path := g.DiskPath
	if path == "" {
		path = "/"
	}
	du, err := disk.Usage(path)
	if err != nil {
		return 0, 0, err
	}
	return du.Used, du.Total, nil
}

func (GopsutilStats) Uptime() (time.Duration, error) {
	sec, err := host.Uptime()
	if err != nil {
		return 0, err
	}
	return time.Duration(sec) * time.Second, nil
}

// Provider produces snapshots from a HostStats backend. Sampling never
// returns an error: a failed read degrades to the last good snapshot, or an
// all-zero one before any sample has succeeded. Stats failure must never
// break the status endpoint or a broadcast loop.
type Provider struct {
	host   HostStats
	logger zerolog.Logger

	mu       sync.Mutex
	last     Snapshot
	haveLast bool
}

func NewProvider(host HostStats, logger zerolog.Logger) *Provider {
	return &Provider{
		host:   host,
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Sample reads the host counters and returns a fresh snapshot.
func (p *Provider) Sample() Snapshot {
	snap, err := p.read()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.logger.Warn().Err(err).Msg("host stats read failed, serving degraded snapshot")
		if p.haveLast {
			return p.last
		}
		return Snapshot{}
	}
	p.last = snap
	p.haveLast = true
	return snap
}

func (p *Provider) read() (Snapshot, error) {
	cpuPct, err := p.host.CPUPercent()
	if err != nil {
		return Snapshot{}, err
	}
	memUsed, memTotal, err := p.host.Memory()
	if err != nil {
		return Snapshot{}, err
	}
	diskUsed, diskTotal, err := p.host.Disk()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		CPUPercent: clamp(cpuPct),
		Memory:     usage(memUsed, memTotal),
		Disk:       usage(diskUsed, diskTotal),
	}, nil
}

// Uptime returns host uptime, zero when the counter is unreadable.
func (p *Provider) Uptime() time.Duration {
	d, err := p.host.Uptime()
	if err != nil {
		return 0
	}
	return d
}

// FormatUptime renders a duration the way the panel UI shows it: "3d 4h 7m".
func FormatUptime(d time.Duration) string {
	sec := int64(d.Seconds())
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%dd %dh %dm", sec/86400, (sec%86400)/3600, (sec%3600)/60)
}

func usage(used, total uint64) Usage {
	u := Usage{UsedBytes: used, TotalBytes: total}
	if total > 0 {
		u.Percent = clamp(float64(used) / float64(total) * 100)
	}
	return u
}

func clamp(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
