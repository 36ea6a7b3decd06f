package runtime

import (
	"context"
	"presence-lab/contract"
	"presence-lab/domain/chat"
	"presence-lab/domain/event"
	"time"
)

// PresencePublisher turns registry mutations into visible system events.
// It must be called after the registry mutation completed: the notice
// goes out first, then the participant list snapshot.
type PresencePublisher struct {
	relay    *MessageRelay
	registry contract.IRegistry
	clock    contract.IClock
}

func NewPresencePublisher(relay *MessageRelay, registry contract.IRegistry, clock contract.IClock) *PresencePublisher {
	if clock == nil {
		clock = SystemClock{}
	}
	return &PresencePublisher{relay: relay, registry: registry, clock: clock}
}

func (p *PresencePublisher) Joined(ctx context.Context, name string) {
	p.relay.Broadcast(ctx, event.ChatBroadcast{Message: chat.JoinedNotice(name, p.clock.Now())}, "")
	p.PublishList(ctx)
}

func (p *PresencePublisher) Left(ctx context.Context, name string) {
	p.relay.Broadcast(ctx, event.ChatBroadcast{Message: chat.LeftNotice(name, p.clock.Now())}, "")
	p.PublishList(ctx)
}

func (p *PresencePublisher) PublishList(ctx context.Context) {
	p.relay.Broadcast(ctx, event.ParticipantList{Names: p.registry.List()}, "")
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
