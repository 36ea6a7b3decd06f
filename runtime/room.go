package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"presence-lab/contract"
	"presence-lab/domain/chat"
	"presence-lab/errors"
	"sync"
	"time"
)

var (
	_ contract.Worker = (*Room)(nil)
	_ contract.IRoom  = (*Room)(nil)
)

// Room is the single event-processing loop of the server.
// Commands from every connection are applied one at a time in arrival order,
// so a connection's own join, chat and typing events keep their order.
type Room struct {
	log       *slog.Logger
	registry  contract.IRegistry
	sinks     contract.ISinkDirectory
	relay     *MessageRelay
	publisher *PresencePublisher
	typing    *TypingCoordinator
	commands  chan chat.Command
	stopped   chan struct{}
	stopOnce  sync.Once
}

func NewRoom(log *slog.Logger, registry contract.IRegistry, sinks contract.ISinkDirectory,
	clock contract.IClock, bufferSize int, typingQuiet time.Duration) *Room {
	relay := NewMessageRelay(log, registry, sinks)
	r := &Room{
		log:       log,
		registry:  registry,
		sinks:     sinks,
		relay:     relay,
		publisher: NewPresencePublisher(relay, registry, clock),
		commands:  make(chan chat.Command, bufferSize),
		stopped:   make(chan struct{}),
	}
	r.typing = NewTypingCoordinator(log, relay, typingQuiet, r.expire)
	return r
}

// Dispatch enqueues a command, blocking until there is room in the buffer.
// Commands are never dropped: losing a join or a disconnect would corrupt the registry.
func (r *Room) Dispatch(ctx context.Context, cmd chat.Command) error {
	select {
	case <-r.stopped:
		return errors.ErrRoomStopped
	default:
	}
	select {
	case r.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.stopped:
		return errors.ErrRoomStopped
	}
}

func (r *Room) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("Stopping room")
			r.stopOnce.Do(func() { close(r.stopped) })
			return nil
		case cmd := <-r.commands:
			if err := r.Handle(ctx, cmd); err != nil {
				r.log.Debug("Command dropped", "connection", cmd.Connection(), "error", err)
			}
		}
	}
}

// Handle applies one command. Exposed for the loop and for tests.
func (r *Room) Handle(ctx context.Context, cmd chat.Command) error {
	switch c := cmd.(type) {
	case chat.ConnectCommand:
		r.registry.Connect(c.ID)
		r.log.Debug("Connection opened", "connection", c.ID, "connections", r.registry.Len())
	case chat.JoinCommand:
		if !r.registry.Add(c.ID, c.DisplayName) {
			return fmt.Errorf("join: %w", errors.ErrUnknownConn)
		}
		r.log.Info("Participant joined", "connection", c.ID, "user", c.DisplayName)
		r.publisher.Joined(ctx, c.DisplayName)
	case chat.SendCommand:
		if _, ok := r.registry.Get(c.ID); !ok {
			return fmt.Errorf("chat message: %w", errors.ErrNotJoined)
		}
		r.relay.Relay(ctx, c.Message)
	case chat.TypingCommand:
		if _, ok := r.registry.Get(c.ID); !ok {
			return fmt.Errorf("typing signal: %w", errors.ErrNotJoined)
		}
		r.typing.Signal(ctx, c.ID, c.State)
	case chat.TypingExpiredCommand:
		r.typing.Expired(ctx, c)
	case chat.DisconnectCommand:
		r.typing.Forget(ctx, c.ID)
		name, joined := r.registry.Remove(c.ID)
		r.sinks.Detach(c.ID)
		r.log.Debug("Connection closed", "connection", c.ID, "connections", r.registry.Len())
		if joined {
			r.log.Info("Participant left", "connection", c.ID, "user", name)
			r.publisher.Left(ctx, name)
		}
	default:
		return fmt.Errorf("%T: %w", cmd, errors.ErrUnknownEvent)
	}
	return nil
}

// Backlog reports how many commands wait in the queue and its capacity.
func (r *Room) Backlog() (int, int) { return len(r.commands), cap(r.commands) }

// Registry exposes the read side of the registry, for stats.
func (r *Room) Registry() contract.IRegistry { return r.registry }

// expire runs on the timer goroutine and must not touch room state.
func (r *Room) expire(cmd chat.TypingExpiredCommand) {
	if err := r.Dispatch(context.Background(), cmd); err != nil {
		r.log.Debug("Typing expiry lost", "connection", cmd.ID, "error", err)
	}
}
