package runtime

import (
	"presence-lab/contract"
	"presence-lab/domain/chat"
	"slices"
	"sync"

	"github.com/samber/lo"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry maps live connections to display names.
// It is the single source of truth for "who is online" and never exposes its map.
type Registry struct {
	mu          sync.RWMutex
	connections map[chat.ConnectionID]string // connection -> display name, empty until join
	connected   []chat.ConnectionID          // connection order, fanout targets
	joined      []chat.ConnectionID          // first join order, participant list
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[chat.ConnectionID]string),
	}
}

// Connect records a live connection that has not joined yet.
// Connecting twice is a no-op.
func (r *Registry) Connect(id chat.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connect(id)
}

func (r *Registry) connect(id chat.ConnectionID) {
	if _, ok := r.connections[id]; ok {
		return
	}
	r.connections[id] = ""
	r.connected = append(r.connected, id)
}

// Add sets the display name of a live connection, last write wins.
// A re-join keeps the original position in the participant list.
// It returns false for a connection that is unknown or already removed.
func (r *Registry) Add(id chat.ConnectionID, displayName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.connections[id]
	if !ok {
		return false
	}
	if displayName == "" {
		return true
	}
	if current == "" {
		r.joined = append(r.joined, id)
	}
	r.connections[id] = displayName
	return true
}

// Remove deletes the connection and returns its display name
// when the connection had joined. Removing an unknown connection is a no-op.
func (r *Registry) Remove(id chat.ConnectionID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.connections[id]
	if !ok {
		return "", false
	}
	delete(r.connections, id)
	r.connected = slices.DeleteFunc(r.connected, func(c chat.ConnectionID) bool { return c == id })
	r.joined = slices.DeleteFunc(r.joined, func(c chat.ConnectionID) bool { return c == id })
	return name, name != ""
}

// Get returns the display name of a joined connection.
func (r *Registry) Get(id chat.ConnectionID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.connections[id]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// List returns the participant list in join order.
// Two connections sharing a display name both appear.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.joined, func(id chat.ConnectionID, _ int) string {
		return r.connections[id]
	})
}

// Connections returns every live connection, joined or not, in connection order.
func (r *Registry) Connections() []chat.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.connected)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}
