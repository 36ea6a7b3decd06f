package chat

import "time"

// TypingQuietPeriod is how long a typing signal stays valid without a follow-up.
const TypingQuietPeriod = time.Second

// TypingState is the ephemeral composition signal of one participant.
type TypingState struct {
	DisplayName string `json:"user" validate:"required"`
	IsTyping    bool   `json:"isTyping"`
}

func Stopped(name string) TypingState {
	return TypingState{DisplayName: name, IsTyping: false}
}
