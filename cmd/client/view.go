package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"presence-lab/domain/chat"
	"presence-lab/domain/event"
	"presence-lab/infrastructure/wire"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

const imagePlaceholder = "📷 Image"

// view renders room events on a terminal.
type view struct {
	mu           sync.Mutex
	out          io.Writer
	self         string
	colours      bool
	participants []string
}

func newView(out io.Writer, self string, colours bool) *view {
	return &view{out: out, self: self, colours: colours}
}

func (v *view) Render(env wire.Envelope) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch event.Name(env.Event) {
	case event.ChatBroadcastName:
		msg, err := wire.Decode[chat.Message](env)
		if err != nil {
			return err
		}
		fmt.Fprintln(v.out, v.formatMessage(msg))
	case event.ParticipantListName:
		names, err := wire.Decode[[]string](env)
		if err != nil {
			return err
		}
		v.participants = names
	case event.TypingBroadcastName:
		state, err := wire.Decode[chat.TypingState](env)
		if err != nil {
			return err
		}
		if state.IsTyping && state.DisplayName != v.self {
			fmt.Fprintln(v.out, v.paint(color.FgGray, state.DisplayName+" is typing..."))
		}
	case event.ErrorName:
		rejection, err := wire.Decode[wire.Rejection](env)
		if err != nil {
			return err
		}
		fmt.Fprintln(v.out, v.paint(color.FgRed, "[error] "+rejection.Error))
	default:
		return fmt.Errorf("unknown event %q", env.Event)
	}
	return nil
}

func (v *view) formatMessage(msg chat.Message) string {
	text := msg.Text
	if msg.HasImage() {
		text = fmt.Sprintf("%s (%d bytes inline)", text, len(msg.ImageData))
	}
	switch {
	case msg.IsSystem():
		return v.paint(color.FgYellow, fmt.Sprintf("[%s] %s", msg.Timestamp, text))
	case msg.AuthorName == v.self:
		return fmt.Sprintf("[%s] %s: %s", msg.Timestamp, v.paint(color.FgGreen, msg.AuthorName), text)
	default:
		return fmt.Sprintf("[%s] %s: %s", msg.Timestamp, v.paint(color.FgCyan, msg.AuthorName), text)
	}
}

// Participants prints the last received participant list as a table.
func (v *view) Participants() {
	v.mu.Lock()
	defer v.mu.Unlock()

	table := tablewriter.NewWriter(v.out)
	table.SetHeader([]string{"#", "Participant"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, name := range v.participants {
		table.Append([]string{strconv.Itoa(i + 1), name})
	}
	table.Render()
}

func (v *view) paint(c color.Color, s string) string {
	if !v.colours {
		return s
	}
	return c.Render(s)
}

// imageMessage reads an image file into an inline data URI message.
func imageMessage(author, path string, at time.Time) (chat.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return chat.Message{}, fmt.Errorf("read image: %w", err)
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return chat.Message{}, fmt.Errorf("%s is %s, not an image", path, mime.String())
	}
	return chat.Message{
		Text:       imagePlaceholder,
		ImageData:  "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data),
		AuthorName: author,
		Timestamp:  chat.FormatTimestamp(at),
	}, nil
}
