package chat

import (
	"fmt"
	"time"
)

// SystemAuthor is the author of every notice generated by the server.
const SystemAuthor = "System"

// TimeLayout renders timestamps the way browsers print a local time.
const TimeLayout = "3:04:05 PM"

// Message represents an immutable chat event.
// Recipients always receive a copy, never a shared pointer.
type Message struct {
	Text       string `json:"text" validate:"required_without=ImageData"`
	ImageData  string `json:"imageUrl,omitempty"`
	AuthorName string `json:"username" validate:"required"`
	Timestamp  string `json:"time"`
}

func (m Message) IsSystem() bool {
	return m.AuthorName == SystemAuthor
}

func (m Message) HasImage() bool {
	return m.ImageData != ""
}

func FormatTimestamp(at time.Time) string {
	return at.Format(TimeLayout)
}

func NewSystemMessage(text string, at time.Time) Message {
	return Message{
		Text:       text,
		AuthorName: SystemAuthor,
		Timestamp:  FormatTimestamp(at),
	}
}

func JoinedNotice(name string, at time.Time) Message {
	return NewSystemMessage(fmt.Sprintf("%s joined the chat", name), at)
}

func LeftNotice(name string, at time.Time) Message {
	return NewSystemMessage(fmt.Sprintf("%s left the chat", name), at)
}
