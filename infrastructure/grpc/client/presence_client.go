package client

import (
	"context"
	"fmt"
	"presence-lab/domain/chat"
	"presence-lab/infrastructure/wire"
	pb "presence-lab/proto/presence"

	"google.golang.org/grpc"
)

// PresenceClient is one participant session over gRPC.
// Send methods are not safe for concurrent use, Recv may run on its own goroutine.
type PresenceClient struct {
	stream pb.PresenceService_ConnectClient
}

func Connect(ctx context.Context, conn grpc.ClientConnInterface) (*PresenceClient, error) {
	stream, err := pb.NewPresenceServiceClient(conn).Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("open presence stream: %w", err)
	}
	return &PresenceClient{stream: stream}, nil
}

func (c *PresenceClient) Join(displayName string) error {
	return c.send(wire.JoinEvent, displayName)
}

func (c *PresenceClient) Send(msg chat.Message) error {
	return c.send(wire.ChatSendEvent, msg)
}

func (c *PresenceClient) Typing(state chat.TypingState) error {
	return c.send(wire.TypingEvent, state)
}

// Recv blocks until the next outbound event of the room.
func (c *PresenceClient) Recv() (wire.Envelope, error) {
	env, err := c.stream.Recv()
	if err != nil {
		return wire.Envelope{}, err
	}
	return *env, nil
}

// Close ends the session; the server removes the connection from the room.
func (c *PresenceClient) Close() error {
	return c.stream.CloseSend()
}

func (c *PresenceClient) send(name string, payload any) error {
	env, err := wire.NewEnvelope(name, payload)
	if err != nil {
		return err
	}
	if err := c.stream.Send(&env); err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}
	return nil
}
