package server

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"presence-lab/domain/chat"
	"presence-lab/domain/event"
	"presence-lab/errors"
	"presence-lab/infrastructure/wire"
	pb "presence-lab/proto/presence"
	"presence-lab/services"
	"presence-lab/sink"
)

var _ pb.PresenceServiceServer = (*PresenceServer)(nil)

type PresenceServer struct {
	log     *slog.Logger
	service services.IPresenceService
}

func NewPresenceServer(log *slog.Logger, service services.IPresenceService) *PresenceServer {
	return &PresenceServer{log: log, service: service}
}

// Connect is one participant session on a bidirectional stream.
// Inbound envelopes are read on a dedicated goroutine and dispatched in order;
// this goroutine is the only writer of the stream.
//
// The reader dispatches the disconnect itself once it stopped, so it is always
// the last command of the connection, even when the writer returns first.
// Recv unblocks at the latest when Connect returns and the stream is torn down.
func (s *PresenceServer) Connect(stream pb.PresenceService_ConnectServer) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	id, out, err := s.service.Connect(ctx)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	log := s.log.With("connection", id)

	recvErr := make(chan error, 1)
	go func() {
		err := s.receive(ctx, stream, id, out, log)
		if derr := s.service.Disconnect(ctx, id); derr != nil {
			log.Warn("Disconnect not dispatched", "error", derr)
		}
		recvErr <- err
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Client disconnected", "reason", ctx.Err())
			return nil
		case err := <-recvErr:
			if err == nil || stderrors.Is(err, io.EOF) {
				log.Info("Client closed the stream")
				return nil
			}
			return errors.MapToGRPCError(err)
		case evt, ok := <-out.Events():
			if !ok {
				return nil
			}
			env, err := wire.Encode(evt)
			if err != nil {
				log.Error("Encode event failed", "event", evt.Name(), "error", err)
				continue
			}
			if err := stream.Send(&env); err != nil {
				log.Error("Failed to push event to stream", "error", err)
				return err
			}
		}
	}
}

func (s *PresenceServer) receive(ctx context.Context, stream pb.PresenceService_ConnectServer,
	id chat.ConnectionID, out *sink.ConnectionSink, log *slog.Logger) error {
	for {
		env, err := stream.Recv()
		if err != nil {
			return err
		}
		if err := wire.Dispatch(ctx, s.service, id, *env); err != nil {
			if stderrors.Is(err, errors.ErrRoomStopped) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("Inbound event dropped", "error", err)
			if err := out.Consume(ctx, event.Rejected{Reason: err.Error()}); err != nil {
				log.Debug("Rejection not delivered", "error", err)
			}
		}
	}
}
