package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"presence-lab/domain/chat"
	"presence-lab/infrastructure/wire"
	"presence-lab/runtime"
	"presence-lab/runtime/workers"
	"presence-lab/services"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server  *httptest.Server
	service *services.PresenceService
}

func newFixture(t *testing.T) *fixture {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry, sinks := runtime.NewRegistry(), runtime.NewSinkDirectory()
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond),
		registry, sinks, runtime.SystemClock{}, 64, time.Second, 0)
	require.NoError(t, orchestrator.Start(context.Background()))

	service := services.NewPresenceService(log, orchestrator.Room(), registry, sinks, 64)
	origins := []string{"*"}
	server := httptest.NewServer(NewRouter(NewHandler(log, service, origins, 1<<20), origins))
	t.Cleanup(func() {
		server.Close()
		orchestrator.Stop()
	})
	return &fixture{server: server, service: service}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, name string, payload any) {
	env, err := wire.NewEnvelope(name, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(env))
}

func next(t *testing.T, conn *websocket.Conn) wire.Envelope {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env wire.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func decode[T any](t *testing.T, env wire.Envelope, name string) T {
	require.Equal(t, name, env.Event)
	v, err := wire.Decode[T](env)
	require.NoError(t, err)
	return v
}

// join sends a join and drains the notice and list that follow.
func join(t *testing.T, conn *websocket.Conn, name string) []string {
	send(t, conn, wire.JoinEvent, name)
	notice := decode[chat.Message](t, next(t, conn), "chat-broadcast")
	require.Equal(t, name+" joined the chat", notice.Text)
	return decode[[]string](t, next(t, conn), "participant-list")
}

func TestHandler_Join_Chat_And_Leave(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	alice := f.dial(t)
	req.Equal([]string{"alice"}, join(t, alice, "alice"))

	// Given bob joins after alice
	bob := f.dial(t)
	req.Equal([]string{"alice", "bob"}, join(t, bob, "bob"))

	// Then alice sees bob arrive
	req.Equal("bob joined the chat", decode[chat.Message](t, next(t, alice), "chat-broadcast").Text)
	req.Equal([]string{"alice", "bob"}, decode[[]string](t, next(t, alice), "participant-list"))

	// When alice sends a message, everyone receives it verbatim, sender included
	msg := chat.Message{Text: "hi", AuthorName: "alice", Timestamp: "3:00:00 PM"}
	send(t, alice, wire.ChatSendEvent, msg)
	req.Equal(msg, decode[chat.Message](t, next(t, alice), "chat-broadcast"))
	req.Equal(msg, decode[chat.Message](t, next(t, bob), "chat-broadcast"))

	// When bob starts typing, only alice is told
	send(t, bob, wire.TypingEvent, chat.TypingState{DisplayName: "bob", IsTyping: true})
	req.Equal(chat.TypingState{DisplayName: "bob", IsTyping: true},
		decode[chat.TypingState](t, next(t, alice), "typing-broadcast"))

	// When bob disconnects while typing
	req.NoError(bob.Close())

	// Then alice sees the indicator cleared, the notice and the new list
	req.Equal(chat.TypingState{DisplayName: "bob", IsTyping: false},
		decode[chat.TypingState](t, next(t, alice), "typing-broadcast"))
	left := decode[chat.Message](t, next(t, alice), "chat-broadcast")
	req.Equal("bob left the chat", left.Text)
	req.Equal(chat.SystemAuthor, left.AuthorName)
	req.Equal([]string{"alice"}, decode[[]string](t, next(t, alice), "participant-list"))
}

func TestHandler_Malformed_Event_Keeps_Connection(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	conn := f.dial(t)

	// When garbage, an unknown event and an empty join arrive
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	req.Equal("error", next(t, conn).Event)
	send(t, conn, "dance", nil)
	req.Equal("error", next(t, conn).Event)
	send(t, conn, wire.JoinEvent, "  ")
	rejection := decode[wire.Rejection](t, next(t, conn), "error")
	req.Contains(rejection.Error, "malformed event")

	// Then the connection still works
	req.Equal([]string{"carol"}, join(t, conn, "carol"))
}

func TestHandler_Health_Reports_Stats(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	conn := f.dial(t)
	join(t, conn, "dave")

	resp, err := http.Get(f.server.URL + "/healthz")
	req.NoError(err)
	defer resp.Body.Close()

	var stats services.Stats
	req.NoError(json.NewDecoder(resp.Body).Decode(&stats))
	req.Equal(1, stats.Connections)
	req.Equal([]string{"dave"}, stats.Participants)
}

func TestCheckOrigin(t *testing.T) {
	req := require.New(t)
	request := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	restricted := CheckOrigin([]string{"http://localhost:3000/"})
	req.True(restricted(request("")))
	req.True(restricted(request("http://localhost:3000")))
	req.False(restricted(request("http://evil.example")))

	open := CheckOrigin([]string{"*"})
	req.True(open(request("http://evil.example")))
}
