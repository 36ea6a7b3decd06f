package runtime

import (
	"context"
	"presence-lab/domain/chat"
	"presence-lab/domain/event"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testQuiet = 50 * time.Millisecond

func newTestCoordinator() (*TypingCoordinator, *Registry, *SinkDirectory, chan chat.TypingExpiredCommand) {
	registry, sinks := NewRegistry(), NewSinkDirectory()
	expired := make(chan chat.TypingExpiredCommand, 8)
	coordinator := NewTypingCoordinator(discardLogger(), NewMessageRelay(discardLogger(), registry, sinks), testQuiet,
		func(cmd chat.TypingExpiredCommand) { expired <- cmd })
	return coordinator, registry, sinks, expired
}

func waitExpiry(t *testing.T, expired chan chat.TypingExpiredCommand) chat.TypingExpiredCommand {
	t.Helper()
	select {
	case cmd := <-expired:
		return cmd
	case <-time.After(time.Second):
		require.Fail(t, "typing timer did not fire")
		return chat.TypingExpiredCommand{}
	}
}

func TestTypingCoordinator_Signal_Forwarded_To_Others_Only(t *testing.T) {
	req := require.New(t)
	coordinator, registry, sinks, _ := newTestCoordinator()
	alice, aliceSink := connect(registry, sinks)
	_, bobSink := connect(registry, sinks)
	_, carolSink := connect(registry, sinks)

	// When alice starts typing
	coordinator.Signal(context.Background(), alice, chat.TypingState{DisplayName: "alice", IsTyping: true})

	// Then the others see it immediately, alice never does
	req.Empty(aliceSink.Events())
	req.Equal([]event.DomainEvent{typing("alice", true)}, bobSink.Events())
	req.Equal([]event.DomainEvent{typing("alice", true)}, carolSink.Events())
	req.True(coordinator.Typing(alice))
}

func TestTypingCoordinator_Every_Signal_Is_Forwarded(t *testing.T) {
	req := require.New(t)
	coordinator, registry, sinks, _ := newTestCoordinator()
	alice, _ := connect(registry, sinks)
	_, bobSink := connect(registry, sinks)
	ctx := context.Background()

	// When several signals arrive in a burst
	coordinator.Signal(ctx, alice, chat.TypingState{DisplayName: "alice", IsTyping: true})
	coordinator.Signal(ctx, alice, chat.TypingState{DisplayName: "alice", IsTyping: true})
	coordinator.Signal(ctx, alice, chat.TypingState{DisplayName: "alice", IsTyping: false})

	// Then none of them is coalesced
	req.Equal([]event.DomainEvent{
		typing("alice", true), typing("alice", true), typing("alice", false),
	}, bobSink.Events())
	req.False(coordinator.Typing(alice))
}

func TestTypingCoordinator_Expiry_Broadcasts_Synthetic_Stop(t *testing.T) {
	req := require.New(t)
	coordinator, registry, sinks, expired := newTestCoordinator()
	alice, aliceSink := connect(registry, sinks)
	_, bobSink := connect(registry, sinks)
	ctx := context.Background()

	// Given alice started typing
	coordinator.Signal(ctx, alice, chat.TypingState{DisplayName: "alice", IsTyping: true})

	// When the quiet period elapses
	cmd := waitExpiry(t, expired)
	req.Equal(alice, cmd.ID)
	req.True(coordinator.Expired(ctx, cmd))

	// Then bob sees alice stop, alice sees nothing
	req.Equal([]event.DomainEvent{typing("alice", true), typing("alice", false)}, bobSink.Events())
	req.Empty(aliceSink.Events())
	req.False(coordinator.Typing(alice))
}

func TestTypingCoordinator_New_Signal_Supersedes_Pending_Expiry(t *testing.T) {
	req := require.New(t)
	coordinator, registry, sinks, expired := newTestCoordinator()
	alice, _ := connect(registry, sinks)
	_, bobSink := connect(registry, sinks)
	ctx := context.Background()
	coordinator.Signal(ctx, alice, chat.TypingState{DisplayName: "alice", IsTyping: true})

	// Given a firing from the first timer that was already queued
	stale := chat.TypingExpiredCommand{ID: alice, Generation: 1}

	// When alice keeps typing
	coordinator.Signal(ctx, alice, chat.TypingState{DisplayName: "alice", IsTyping: true})

	// Then the stale firing is ignored
	req.False(coordinator.Expired(ctx, stale))
	req.True(coordinator.Typing(alice))

	// And only the current timer stops the indicator
	cmd := waitExpiry(t, expired)
	for cmd.Generation == stale.Generation {
		cmd = waitExpiry(t, expired)
	}
	req.Equal(uint64(2), cmd.Generation)
	req.True(coordinator.Expired(ctx, cmd))
	req.Equal([]event.DomainEvent{
		typing("alice", true), typing("alice", true), typing("alice", false),
	}, bobSink.Events())
}

func TestTypingCoordinator_Explicit_Stop_Cancels_Timer(t *testing.T) {
	req := require.New(t)
	coordinator, registry, sinks, expired := newTestCoordinator()
	alice, _ := connect(registry, sinks)
	connect(registry, sinks)
	ctx := context.Background()

	coordinator.Signal(ctx, alice, chat.TypingState{DisplayName: "alice", IsTyping: true})
	coordinator.Signal(ctx, alice, chat.TypingState{DisplayName: "alice", IsTyping: false})

	select {
	case cmd := <-expired:
		req.Failf("unexpected expiry", "%+v", cmd)
	case <-time.After(3 * testQuiet):
	}
}

func TestTypingCoordinator_Forget_Stops_Timer_And_Clears_Indicator(t *testing.T) {
	req := require.New(t)
	coordinator, registry, sinks, expired := newTestCoordinator()
	alice, _ := connect(registry, sinks)
	_, bobSink := connect(registry, sinks)
	ctx := context.Background()
	coordinator.Signal(ctx, alice, chat.TypingState{DisplayName: "alice", IsTyping: true})

	// When alice disconnects within the quiet period
	req.True(coordinator.Forget(ctx, alice))

	// Then bob is told she stopped, and the timer never fires
	req.Equal([]event.DomainEvent{typing("alice", true), typing("alice", false)}, bobSink.Events())
	select {
	case cmd := <-expired:
		req.Failf("unexpected expiry", "%+v", cmd)
	case <-time.After(3 * testQuiet):
	}

	// And forgetting an idle connection broadcasts nothing
	req.False(coordinator.Forget(ctx, alice))
	req.Len(bobSink.Events(), 2)
}
