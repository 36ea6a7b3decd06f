package services

import (
	"context"
	"fmt"
	"log/slog"
	"presence-lab/contract"
	"presence-lab/domain/chat"
	"presence-lab/errors"
	"presence-lab/sink"
	"strings"

	"github.com/go-playground/validator/v10"
)

type IPresenceService interface {
	Connect(ctx context.Context) (chat.ConnectionID, *sink.ConnectionSink, error)
	Join(ctx context.Context, id chat.ConnectionID, displayName string) error
	Send(ctx context.Context, id chat.ConnectionID, msg chat.Message) error
	Typing(ctx context.Context, id chat.ConnectionID, state chat.TypingState) error
	Disconnect(ctx context.Context, id chat.ConnectionID) error
	Stats() Stats
}

type Stats struct {
	Connections  int      `json:"connections"`
	Participants []string `json:"participants"`
}

var _ IPresenceService = (*PresenceService)(nil)

// PresenceService is the only entry point transports use.
// It validates inbound payloads, then hands commands to the room.
type PresenceService struct {
	log                  *slog.Logger
	room                 contract.IRoom
	registry             contract.IRegistry
	sinks                contract.ISinkDirectory
	validate             *validator.Validate
	connectionBufferSize int
}

func NewPresenceService(log *slog.Logger, room contract.IRoom, registry contract.IRegistry,
	sinks contract.ISinkDirectory, connectionBufferSize int) *PresenceService {
	return &PresenceService{
		log:                  log,
		room:                 room,
		registry:             registry,
		sinks:                sinks,
		validate:             validator.New(),
		connectionBufferSize: connectionBufferSize,
	}
}

// Connect allocates a connection id and its outbound sink.
// The sink is attached before the room learns about the connection,
// so no broadcast can miss it.
func (s *PresenceService) Connect(ctx context.Context) (chat.ConnectionID, *sink.ConnectionSink, error) {
	id := chat.NewConnectionID()
	out := sink.NewConnectionSink(s.log, s.connectionBufferSize)
	s.sinks.Attach(id, out)
	if err := s.room.Dispatch(ctx, chat.ConnectCommand{ID: id}); err != nil {
		s.sinks.Detach(id)
		return "", nil, fmt.Errorf("connect: %w", err)
	}
	return id, out, nil
}

func (s *PresenceService) Join(ctx context.Context, id chat.ConnectionID, displayName string) error {
	name := strings.TrimSpace(displayName)
	if err := s.validate.Var(name, "required"); err != nil {
		return fmt.Errorf("join: %w: display name is required", errors.ErrMalformedEvent)
	}
	return s.room.Dispatch(ctx, chat.JoinCommand{ID: id, DisplayName: name})
}

// Send relays the message verbatim once its required fields are present.
func (s *PresenceService) Send(ctx context.Context, id chat.ConnectionID, msg chat.Message) error {
	if err := s.validate.Struct(msg); err != nil {
		return fmt.Errorf("chat message: %w: %v", errors.ErrMalformedEvent, err)
	}
	return s.room.Dispatch(ctx, chat.SendCommand{ID: id, Message: msg})
}

func (s *PresenceService) Typing(ctx context.Context, id chat.ConnectionID, state chat.TypingState) error {
	if err := s.validate.Struct(state); err != nil {
		return fmt.Errorf("typing signal: %w: %v", errors.ErrMalformedEvent, err)
	}
	return s.room.Dispatch(ctx, chat.TypingCommand{ID: id, State: state})
}

// Disconnect is dispatched even when ctx is already canceled,
// which is the usual case when a transport stream ends.
func (s *PresenceService) Disconnect(ctx context.Context, id chat.ConnectionID) error {
	return s.room.Dispatch(context.WithoutCancel(ctx), chat.DisconnectCommand{ID: id})
}

func (s *PresenceService) Stats() Stats {
	return Stats{
		Connections:  s.registry.Len(),
		Participants: s.registry.List(),
	}
}
