package main

import (
	"bytes"
	"os"
	"path/filepath"
	"presence-lab/domain/chat"
	"presence-lab/domain/event"
	"presence-lab/infrastructure/wire"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, e event.DomainEvent) wire.Envelope {
	env, err := wire.Encode(e)
	require.NoError(t, err)
	return env
}

func TestView_Render_Messages_Without_Colours(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	v := newView(&out, "alice", false)

	req.NoError(v.Render(envelope(t, event.ChatBroadcast{Message: chat.Message{
		Text: "bob joined the chat", AuthorName: chat.SystemAuthor, Timestamp: "3:04:05 PM",
	}})))
	req.NoError(v.Render(envelope(t, event.ChatBroadcast{Message: chat.Message{
		Text: "hi", AuthorName: "bob", Timestamp: "3:04:06 PM",
	}})))
	req.NoError(v.Render(envelope(t, event.TypingBroadcast{State: chat.TypingState{DisplayName: "bob", IsTyping: true}})))
	req.NoError(v.Render(envelope(t, event.TypingBroadcast{State: chat.TypingState{DisplayName: "bob", IsTyping: false}})))
	req.NoError(v.Render(envelope(t, event.Rejected{Reason: "malformed event"})))

	req.Equal(strings.Join([]string{
		"[3:04:05 PM] bob joined the chat",
		"[3:04:06 PM] bob: hi",
		"bob is typing...",
		"[error] malformed event",
		"",
	}, "\n"), out.String())
}

func TestView_Participants_Table(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	v := newView(&out, "alice", false)

	req.NoError(v.Render(envelope(t, event.ParticipantList{Names: []string{"alice", "bob"}})))
	req.Empty(out.String())

	v.Participants()

	table := out.String()
	req.Contains(table, "PARTICIPANT")
	req.Contains(table, "alice")
	req.Contains(table, "bob")
}

func TestView_Render_Unknown_Event(t *testing.T) {
	v := newView(&bytes.Buffer{}, "alice", false)
	require.Error(t, v.Render(wire.Envelope{Event: "dance"}))
}

func TestImageMessage(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	png := filepath.Join(dir, "pixel.png")
	// PNG signature followed by an IHDR chunk header
	req.NoError(os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))
	text := filepath.Join(dir, "notes.txt")
	req.NoError(os.WriteFile(text, []byte("hello"), 0o600))

	msg, err := imageMessage("alice", png, time.Date(2024, 5, 1, 9, 5, 0, 0, time.UTC))
	req.NoError(err)
	req.Equal(imagePlaceholder, msg.Text)
	req.Equal("alice", msg.AuthorName)
	req.Equal("9:05:00 AM", msg.Timestamp)
	req.True(strings.HasPrefix(msg.ImageData, "data:image/png;base64,"))

	_, err = imageMessage("alice", text, time.Now())
	req.ErrorContains(err, "not an image")
}
