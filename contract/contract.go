//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"presence-lab/domain/chat"
	"presence-lab/domain/event"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives the outbound events of one connection.
// Consume must not block the caller.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry is the authoritative connection → display name mapping.
type IRegistry interface {
	Connect(id chat.ConnectionID)
	Add(id chat.ConnectionID, displayName string) bool
	Remove(id chat.ConnectionID) (string, bool)
	Get(id chat.ConnectionID) (string, bool)
	List() []string
	Connections() []chat.ConnectionID
	Len() int
}

// ISinkDirectory resolves a connection to the sink delivering its events.
type ISinkDirectory interface {
	Sink(id chat.ConnectionID) (EventSink, bool)
	Attach(id chat.ConnectionID, sink EventSink)
	Detach(id chat.ConnectionID)
}

// IClock lets tests pin the timestamps of system notices.
type IClock interface {
	Now() time.Time
}

type IRoom interface {
	Dispatch(ctx context.Context, cmd chat.Command) error
}
