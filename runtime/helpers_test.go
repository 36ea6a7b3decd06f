package runtime

import (
	"context"
	"io"
	"log/slog"
	"presence-lab/domain/chat"
	"presence-lab/domain/event"
	"sync"
	"time"
)

var fixedTime = time.Date(2024, 5, 1, 15, 4, 5, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return fixedTime }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSink keeps every event it receives, in order.
type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Events() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

func (s *recordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func notice(text string) event.ChatBroadcast {
	return event.ChatBroadcast{Message: chat.Message{
		Text:       text,
		AuthorName: chat.SystemAuthor,
		Timestamp:  "3:04:05 PM",
	}}
}

func participants(names ...string) event.ParticipantList {
	if names == nil {
		names = []string{}
	}
	return event.ParticipantList{Names: names}
}

func typing(name string, isTyping bool) event.TypingBroadcast {
	return event.TypingBroadcast{State: chat.TypingState{DisplayName: name, IsTyping: isTyping}}
}

// connect registers a connection with a recording sink.
func connect(registry *Registry, sinks *SinkDirectory) (chat.ConnectionID, *recordingSink) {
	id := chat.NewConnectionID()
	sink := &recordingSink{}
	sinks.Attach(id, sink)
	registry.Connect(id)
	return id, sink
}
