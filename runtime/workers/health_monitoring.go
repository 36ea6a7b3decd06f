package workers

import (
	"context"
	"log/slog"
	"os"
	"presence-lab/contract"
	"time"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*HealthMonitoringWorker)(nil)

// HealthMonitoringWorker periodically logs the room occupancy and the
// resource usage of the server process.
type HealthMonitoringWorker struct {
	log            *slog.Logger
	registry       contract.IRegistry
	backlog        func() (length, capacity int)
	metricInterval time.Duration
	pid            int32
}

func NewHealthMonitoringWorker(log *slog.Logger, registry contract.IRegistry, metricInterval time.Duration) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{
		log:            log,
		registry:       registry,
		metricInterval: metricInterval,
		pid:            int32(os.Getpid()),
	}
}

// WithBacklog samples a command queue on every report.
// Reading len and cap of a channel does not block its users.
func (w *HealthMonitoringWorker) WithBacklog(backlog func() (length, capacity int)) *HealthMonitoringWorker {
	w.backlog = backlog
	return w
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			w.Report()
		}
	}
}

// Report logs one health sample. Process metrics are best-effort.
func (w *HealthMonitoringWorker) Report() Health {
	health := Health{
		Connections:  w.registry.Len(),
		Participants: len(w.registry.List()),
	}
	if w.backlog != nil {
		health.Backlog, health.BacklogCapacity = w.backlog()
	}
	p, err := process.NewProcess(w.pid)
	if err != nil {
		w.log.Debug("Error while retrieving process", "pid", w.pid, "err", err)
	} else {
		if cpu, err := p.CPUPercent(); err == nil {
			health.CPU = cpu
		}
		if mem, err := p.MemoryInfo(); err == nil {
			health.RSS = mem.RSS
		}
	}
	w.log.Info("Room health",
		"connections", health.Connections,
		"participants", health.Participants,
		"backlog", health.Backlog,
		"backlog_capacity", health.BacklogCapacity,
		"cpu", health.CPU,
		"rss", health.RSS)
	return health
}

type Health struct {
	Connections     int
	Participants    int
	Backlog         int
	BacklogCapacity int
	CPU             float64
	RSS             uint64
}
