// Package chat contains the core concepts of the presence room.
// No runtime, network, or UI logic should be added here.
package chat

import "github.com/google/uuid"

// ConnectionID identifies one live transport session.
// It is only valid for the lifetime of that session.
type ConnectionID string

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.NewString())
}

func (id ConnectionID) String() string { return string(id) }

// Connection is one live session, with a display name once the participant joined.
type Connection struct {
	ID          ConnectionID
	DisplayName string
}

func (c Connection) Joined() bool {
	return c.DisplayName != ""
}
