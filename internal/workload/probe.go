package workload

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// ResourceSample is a point-in-time view of the current process.
type ResourceSample struct {
	Time          time.Time `json:"time"`
	RSSBytes      uint64    `json:"rss_bytes"`
	CPUPercent    float64   `json:"cpu_percent"`
	Threads       int32     `json:"threads"`
	LogicalCPUs   int       `json:"logical_cpus"`
	HostMemTotal  uint64    `json:"host_mem_total"`
	HostMemUsedPc float64   `json:"host_mem_used_percent"`
}

// Probe samples the resource usage of the current process.
type Probe struct {
	proc *process.Process
}

// NewProbe opens the current process for sampling.
func NewProbe() (*Probe, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to open process: %w", err)
	}
	return &Probe{proc: proc}, nil
}

// Sample collects one sample. Host figures are best effort and left zero
// when unavailable.
func (p *Probe) Sample(ctx context.Context) (ResourceSample, error) {
	s := ResourceSample{Time: time.Now()}

	memInfo, err := p.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("failed to read process memory: %w", err)
	}
	s.RSSBytes = memInfo.RSS

	if pct, err := p.proc.CPUPercentWithContext(ctx); err == nil {
		s.CPUPercent = pct
	}
	if threads, err := p.proc.NumThreadsWithContext(ctx); err == nil {
		s.Threads = threads
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		s.LogicalCPUs = n
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.HostMemTotal = vm.Total
		s.HostMemUsedPc = vm.UsedPercent
	}

	return s, nil
}
