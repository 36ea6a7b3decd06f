package runtime

import (
	"context"
	"log/slog"
	"presence-lab/domain/chat"
	"presence-lab/domain/event"
	"time"
)

// ExpireFunc hands a timer firing back to the room loop.
type ExpireFunc func(cmd chat.TypingExpiredCommand)

type pendingTyping struct {
	name       string
	generation uint64
	timer      *time.Timer
}

// TypingCoordinator forwards typing signals to every connection but the sender
// and owns the expiry timer of each typing connection.
//
// Every signal is forwarded immediately, without debouncing. A typing=true
// signal arms a timer; when it fires without a newer signal, a synthetic
// typing=false is broadcast on behalf of the sender.
//
// Not safe for concurrent use: only the room loop calls it.
type TypingCoordinator struct {
	log        *slog.Logger
	relay      *MessageRelay
	quiet      time.Duration
	expire     ExpireFunc
	generation uint64
	pending    map[chat.ConnectionID]*pendingTyping
}

func NewTypingCoordinator(log *slog.Logger, relay *MessageRelay, quiet time.Duration, expire ExpireFunc) *TypingCoordinator {
	if quiet <= 0 {
		quiet = chat.TypingQuietPeriod
	}
	return &TypingCoordinator{
		log:     log,
		relay:   relay,
		quiet:   quiet,
		expire:  expire,
		pending: make(map[chat.ConnectionID]*pendingTyping),
	}
}

// Signal forwards the state to every other connection and arms or clears the expiry.
func (c *TypingCoordinator) Signal(ctx context.Context, from chat.ConnectionID, state chat.TypingState) {
	c.relay.Broadcast(ctx, event.TypingBroadcast{State: state}, from)
	if state.IsTyping {
		c.arm(from, state.DisplayName)
		return
	}
	c.disarm(from)
}

// Expired broadcasts the synthetic stop for a timer that is still current.
// Stale firings return false.
func (c *TypingCoordinator) Expired(ctx context.Context, cmd chat.TypingExpiredCommand) bool {
	p, ok := c.pending[cmd.ID]
	if !ok || p.generation != cmd.Generation {
		return false
	}
	delete(c.pending, cmd.ID)
	c.log.Debug("Typing expired", "connection", cmd.ID, "user", p.name)
	c.relay.Broadcast(ctx, event.TypingBroadcast{State: chat.Stopped(p.name)}, cmd.ID)
	return true
}

// Forget stops the pending timer of a disconnecting connection and tells
// the others it stopped typing, so nobody keeps a stuck indicator.
func (c *TypingCoordinator) Forget(ctx context.Context, id chat.ConnectionID) bool {
	p := c.disarm(id)
	if p == nil {
		return false
	}
	c.relay.Broadcast(ctx, event.TypingBroadcast{State: chat.Stopped(p.name)}, id)
	return true
}

// Typing reports whether the connection has a pending expiry.
func (c *TypingCoordinator) Typing(id chat.ConnectionID) bool {
	_, ok := c.pending[id]
	return ok
}

func (c *TypingCoordinator) arm(id chat.ConnectionID, name string) {
	c.disarm(id)
	c.generation++
	cmd := chat.TypingExpiredCommand{ID: id, Generation: c.generation}
	c.pending[id] = &pendingTyping{
		name:       name,
		generation: cmd.Generation,
		timer: time.AfterFunc(c.quiet, func() {
			if c.expire != nil {
				c.expire(cmd)
			}
		}),
	}
}

func (c *TypingCoordinator) disarm(id chat.ConnectionID) *pendingTyping {
	p, ok := c.pending[id]
	if !ok {
		return nil
	}
	p.timer.Stop()
	delete(c.pending, id)
	return p
}
