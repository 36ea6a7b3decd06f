// Package runtime handles event production and propagation for the room.
// It orchestrates the system without containing transport logic.
package runtime

import (
	"context"
	"log/slog"
	"presence-lab/contract"
	"presence-lab/runtime/workers"
	"sync"
	"time"
)

type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	registry       *Registry
	sinks          *SinkDirectory
	room           *Room
	metricInterval time.Duration
	cancel         context.CancelFunc
	done           chan struct{}
}

func NewOrchestrator(log *slog.Logger, supervisor *workers.Supervisor,
	registry *Registry, sinks *SinkDirectory, clock contract.IClock,
	bufferSize int, typingQuiet, metricInterval time.Duration) *Orchestrator {
	return &Orchestrator{
		log:            log,
		supervisor:     supervisor,
		registry:       registry,
		sinks:          sinks,
		room:           NewRoom(log, registry, sinks, clock, bufferSize, typingQuiet),
		metricInterval: metricInterval,
	}
}

func (o *Orchestrator) Room() *Room           { return o.room }
func (o *Orchestrator) Registry() *Registry   { return o.registry }
func (o *Orchestrator) Sinks() *SinkDirectory { return o.sinks }

// Start registers the room loop and the health worker and runs them
// under supervision in the background.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done != nil {
		return nil
	}

	o.supervisor.Add(o.room)
	if o.metricInterval > 0 {
		o.supervisor.Add(workers.NewHealthMonitoringWorker(o.log, o.registry, o.metricInterval).
			WithBacklog(o.room.Backlog))
	}

	ctx, o.cancel = context.WithCancel(ctx)
	o.done = make(chan struct{})
	go func() {
		defer close(o.done)
		o.log.Info("Starting orchestrator and all supervised workers")
		o.supervisor.Run(ctx)
	}()
	return nil
}

// Stop cancels the supervised workers and waits for them to return.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()

	o.mu.Lock()
	done, cancel := o.done, o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	o.log.Debug("Orchestrator stopped")
}
