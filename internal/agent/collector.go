// Package agent implements the alertdesk threshold agent.
// It samples host telemetry with gopsutil and reports an alert to the server
// whenever a metric crosses its configured threshold.
package agent

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Sample holds a single collection cycle's data. Usage values are percentages (0-100).
type Sample struct {
	Hostname    string
	CPUUsage    float64
	MemUsage    float64
	DiskUsage   float64 // largest used percentage across mounted partitions
	CollectedAt time.Time
}

// Sampler produces host samples.
type Sampler interface {
	Sample(ctx context.Context) (*Sample, error)
}

// Collector is the gopsutil-backed Sampler.
type Collector struct {
	// cpuWindow is how long CPU usage is measured for.
	cpuWindow time.Duration
}

// NewCollector creates a ready-to-use Collector.
func NewCollector() *Collector {
	return &Collector{cpuWindow: 500 * time.Millisecond}
}

// Sample gathers the current host snapshot. Individual probe failures leave
// their field at zero; only a failure of every probe is an error.
func (c *Collector) Sample(ctx context.Context) (*Sample, error) {
	s := &Sample{CollectedAt: time.Now()}

	if h, err := os.Hostname(); err == nil {
		s.Hostname = h
	}

	var errs int
	if pcts, err := cpu.PercentWithContext(ctx, c.cpuWindow, false); err == nil && len(pcts) > 0 {
		s.CPUUsage = pcts[0]
	} else {
		errs++
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemUsage = vm.UsedPercent
	} else {
		errs++
	}

	if pct, err := maxDiskUsage(ctx); err == nil {
		s.DiskUsage = pct
	} else {
		errs++
	}

	if errs == 3 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errNoProbes
	}
	return s, nil
}

// maxDiskUsage returns the used percentage of the partition with highest usage.
func maxDiskUsage(ctx context.Context) (float64, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return 0, err
	}
	var max float64
	for _, p := range partitions {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		if usage.UsedPercent > max {
			max = usage.UsedPercent
		}
	}
	return max, nil
}
