package sink

import (
	"context"
	"log/slog"
	"presence-lab/contract"
	"presence-lab/domain/event"
	"presence-lab/errors"
	"sync"
)

var _ contract.EventSink = (*ConnectionSink)(nil)

// ConnectionSink is the outbound queue of one connection.
// The room enqueues without ever blocking; the transport drains Events().
type ConnectionSink struct {
	mu     sync.RWMutex
	log    *slog.Logger
	events chan event.DomainEvent
	closed bool
}

func NewConnectionSink(log *slog.Logger, bufferSize int) *ConnectionSink {
	return &ConnectionSink{log: log, events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by the relay.
// A full buffer drops the event for this connection only.
func (s *ConnectionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ErrSinkClosed
	}
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Debug("Backpressure on connection sink", "event", e.Name(), "capacity", cap(s.events))
		return errors.ErrSinkFull
	}
}

// Events is closed once the connection has been removed from the room.
func (s *ConnectionSink) Events() <-chan event.DomainEvent {
	return s.events
}

func (s *ConnectionSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}
