package chat

// Command is an inbound intent processed by the room, one at a time.
type Command interface {
	Connection() ConnectionID
}

type ConnectCommand struct {
	ID ConnectionID
}

func (c ConnectCommand) Connection() ConnectionID { return c.ID }

type JoinCommand struct {
	ID          ConnectionID
	DisplayName string
}

func (c JoinCommand) Connection() ConnectionID { return c.ID }

type SendCommand struct {
	ID      ConnectionID
	Message Message
}

func (c SendCommand) Connection() ConnectionID { return c.ID }

type TypingCommand struct {
	ID    ConnectionID
	State TypingState
}

func (c TypingCommand) Connection() ConnectionID { return c.ID }

// TypingExpiredCommand is emitted by the typing timer of a connection.
// Generation lets the room discard firings superseded by a newer signal.
type TypingExpiredCommand struct {
	ID         ConnectionID
	Generation uint64
}

func (c TypingExpiredCommand) Connection() ConnectionID { return c.ID }

type DisconnectCommand struct {
	ID ConnectionID
}

func (c DisconnectCommand) Connection() ConnectionID { return c.ID }
