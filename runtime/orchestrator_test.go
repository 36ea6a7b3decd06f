package runtime

import (
	"context"
	"presence-lab/domain/chat"
	"presence-lab/errors"
	"presence-lab/runtime/workers"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOrchestrator_Start_Serves_Room_Until_Stop(t *testing.T) {
	req := require.New(t)
	log := discardLogger()
	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond),
		NewRegistry(), NewSinkDirectory(), fixedClock{}, 8, time.Second, time.Hour)

	req.NoError(orchestrator.Start(context.Background()))

	// When a connection joins through the running room
	id := chat.NewConnectionID()
	sink := &recordingSink{}
	orchestrator.Sinks().Attach(id, sink)
	req.NoError(orchestrator.Room().Dispatch(context.Background(), chat.ConnectCommand{ID: id}))
	req.NoError(orchestrator.Room().Dispatch(context.Background(), chat.JoinCommand{ID: id, DisplayName: "alice"}))

	// Then the registry reflects it
	req.Eventually(func() bool {
		return len(orchestrator.Registry().List()) == 1
	}, time.Second, 5*time.Millisecond)
	req.Eventually(func() bool { return len(sink.Events()) == 2 }, time.Second, 5*time.Millisecond)

	// When the orchestrator stops
	orchestrator.Stop()

	// Then the room refuses new commands
	err := orchestrator.Room().Dispatch(context.Background(), chat.ConnectCommand{ID: chat.NewConnectionID()})
	req.ErrorIs(err, errors.ErrRoomStopped)
}
