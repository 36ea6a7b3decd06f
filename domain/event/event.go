// Package event defines the outbound events fanned out to connections.
package event

import "presence-lab/domain/chat"

type Name string

const (
	ChatBroadcastName   Name = "chat-broadcast"
	ParticipantListName Name = "participant-list"
	TypingBroadcastName Name = "typing-broadcast"
	ErrorName           Name = "error"
)

type DomainEvent interface {
	Name() Name
}

// ChatBroadcast carries a chat message, either relayed or generated by the server.
type ChatBroadcast struct {
	Message chat.Message
}

func (ChatBroadcast) Name() Name { return ChatBroadcastName }

// ParticipantList is the ordered snapshot of joined display names.
type ParticipantList struct {
	Names []string
}

func (ParticipantList) Name() Name { return ParticipantListName }

type TypingBroadcast struct {
	State chat.TypingState
}

func (TypingBroadcast) Name() Name { return TypingBroadcastName }

// Rejected is only sent back to the connection whose inbound event was dropped.
type Rejected struct {
	Reason string
}

func (Rejected) Name() Name { return ErrorName }
