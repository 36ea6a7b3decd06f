package runtime

import (
	"presence-lab/contract"
	"presence-lab/domain/chat"
	"sync"
)

var _ contract.ISinkDirectory = (*SinkDirectory)(nil)

// SinkDirectory holds the outbound sink of every live connection.
type SinkDirectory struct {
	mu    sync.RWMutex
	sinks map[chat.ConnectionID]contract.EventSink
}

func NewSinkDirectory() *SinkDirectory {
	return &SinkDirectory{sinks: make(map[chat.ConnectionID]contract.EventSink)}
}

func (d *SinkDirectory) Sink(id chat.ConnectionID) (contract.EventSink, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sinks[id]
	return s, ok
}

func (d *SinkDirectory) Attach(id chat.ConnectionID, sink contract.EventSink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks[id] = sink
}

// Detach forgets the sink and closes it when it supports closing,
// which lets the transport writer of that connection terminate.
func (d *SinkDirectory) Detach(id chat.ConnectionID) {
	d.mu.Lock()
	s, ok := d.sinks[id]
	delete(d.sinks, id)
	d.mu.Unlock()

	if closer, isCloser := s.(interface{ Close() }); ok && isCloser {
		closer.Close()
	}
}
