// Package wire is the JSON event format shared by every transport.
package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"presence-lab/domain/chat"
	"presence-lab/domain/event"
	"presence-lab/errors"
)

// Inbound event names.
const (
	JoinEvent     = "join"
	ChatSendEvent = "chat-send"
	TypingEvent   = "typing"
)

// Envelope is one event on the wire: {"event": "...", "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Rejection is the payload of an error event.
type Rejection struct {
	Error string `json:"error"`
}

// Inbound is what a transport needs from the presence service.
type Inbound interface {
	Join(ctx context.Context, id chat.ConnectionID, displayName string) error
	Send(ctx context.Context, id chat.ConnectionID, msg chat.Message) error
	Typing(ctx context.Context, id chat.ConnectionID, state chat.TypingState) error
}

// Encode turns an outbound domain event into an envelope.
func Encode(e event.DomainEvent) (Envelope, error) {
	var payload any
	switch evt := e.(type) {
	case event.ChatBroadcast:
		payload = evt.Message
	case event.ParticipantList:
		names := evt.Names
		if names == nil {
			names = []string{}
		}
		payload = names
	case event.TypingBroadcast:
		payload = evt.State
	case event.Rejected:
		payload = Rejection{Error: evt.Reason}
	default:
		return Envelope{}, fmt.Errorf("encode %T: %w", e, errors.ErrUnknownEvent)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", e.Name(), err)
	}
	return Envelope{Event: string(e.Name()), Data: data}, nil
}

func Marshal(e event.DomainEvent) ([]byte, error) {
	env, err := Encode(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// NewEnvelope builds an inbound envelope, used by clients.
func NewEnvelope(name string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return Envelope{Event: name, Data: data}, nil
}

// Dispatch decodes an inbound envelope and hands it to the service.
func Dispatch(ctx context.Context, in Inbound, id chat.ConnectionID, env Envelope) error {
	switch env.Event {
	case JoinEvent:
		var name string
		if err := decode(env, &name); err != nil {
			return err
		}
		return in.Join(ctx, id, name)
	case ChatSendEvent:
		var msg chat.Message
		if err := decode(env, &msg); err != nil {
			return err
		}
		return in.Send(ctx, id, msg)
	case TypingEvent:
		var state chat.TypingState
		if err := decode(env, &state); err != nil {
			return err
		}
		return in.Typing(ctx, id, state)
	default:
		return fmt.Errorf("%q: %w", env.Event, errors.ErrUnknownEvent)
	}
}

func decode(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%s without payload: %w", env.Event, errors.ErrMalformedEvent)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%s: %w: %v", env.Event, errors.ErrMalformedEvent, err)
	}
	return nil
}

// Decode reads the payload of an outbound envelope, used by clients.
func Decode[T any](env Envelope) (T, error) {
	var v T
	err := decode(env, &v)
	return v, err
}
