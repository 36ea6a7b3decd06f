package sink

import (
	"context"
	"log/slog"
	"presence-lab/domain/event"
	"presence-lab/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnectionSink_Consume_Keeps_Order(t *testing.T) {
	req := require.New(t)
	sink := NewConnectionSink(slog.Default(), 4)
	ctx := context.Background()

	req.NoError(sink.Consume(ctx, event.ParticipantList{Names: []string{"alice"}}))
	req.NoError(sink.Consume(ctx, event.Rejected{Reason: "nope"}))

	req.Equal(event.ParticipantList{Names: []string{"alice"}}, <-sink.Events())
	req.Equal(event.Rejected{Reason: "nope"}, <-sink.Events())
}

func TestConnectionSink_Full_Buffer_Never_Blocks(t *testing.T) {
	req := require.New(t)
	sink := NewConnectionSink(slog.Default(), 1)
	ctx := context.Background()

	// Given a buffer already full
	req.NoError(sink.Consume(ctx, event.Rejected{Reason: "first"}))

	// When another event arrives
	err := sink.Consume(ctx, event.Rejected{Reason: "second"})

	// Then it is dropped for this connection only
	req.ErrorIs(err, errors.ErrSinkFull)
	req.Len(sink.Events(), 1)
}

func TestConnectionSink_Close(t *testing.T) {
	req := require.New(t)
	sink := NewConnectionSink(slog.Default(), 1)

	sink.Close()
	sink.Close()

	_, open := <-sink.Events()
	req.False(open)
	req.ErrorIs(sink.Consume(context.Background(), event.Rejected{}), errors.ErrSinkClosed)
}
