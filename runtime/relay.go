package runtime

import (
	"context"
	"log/slog"
	"presence-lab/contract"
	"presence-lab/domain/chat"
	"presence-lab/domain/event"
	"slices"
)

// MessageRelay fans out events to connections.
//
// Delivery is best-effort: a failing sink is logged and skipped,
// the remaining connections still receive the event, nothing is retried.
type MessageRelay struct {
	log      *slog.Logger
	registry contract.IRegistry
	sinks    contract.ISinkDirectory
}

func NewMessageRelay(log *slog.Logger, registry contract.IRegistry, sinks contract.ISinkDirectory) *MessageRelay {
	return &MessageRelay{log: log, registry: registry, sinks: sinks}
}

// Relay delivers a chat message verbatim to every connection, sender included.
func (r *MessageRelay) Relay(ctx context.Context, msg chat.Message) int {
	return r.Broadcast(ctx, event.ChatBroadcast{Message: msg}, "")
}

// Broadcast delivers evt to every live connection except exclude
// and returns the number of successful deliveries.
func (r *MessageRelay) Broadcast(ctx context.Context, evt event.DomainEvent, exclude chat.ConnectionID) int {
	delivered := 0
	for _, id := range r.registry.Connections() {
		if id == exclude {
			continue
		}
		sink, ok := r.sinks.Sink(id)
		if !ok {
			r.log.Debug("No sink for connection", "connection", id)
			continue
		}
		if err := sink.Consume(ctx, copyOf(evt)); err != nil {
			r.log.Warn("Delivery failed",
				"connection", id,
				"event", evt.Name(),
				"error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// copyOf gives each recipient its own participant slice.
func copyOf(evt event.DomainEvent) event.DomainEvent {
	if list, ok := evt.(event.ParticipantList); ok {
		return event.ParticipantList{Names: slices.Clone(list.Names)}
	}
	return evt
}
