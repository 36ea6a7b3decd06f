package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"presence-lab/domain/chat"
	"presence-lab/domain/event"
	"presence-lab/errors"
	"presence-lab/infrastructure/wire"
	"presence-lab/services"
	"presence-lab/sink"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client represents a single WebSocket participant.
type Client struct {
	conn           *websocket.Conn
	service        services.IPresenceService
	log            *slog.Logger
	maxMessageSize int64
}

func NewClient(conn *websocket.Conn, service services.IPresenceService, log *slog.Logger, maxMessageSize int64) *Client {
	return &Client{conn: conn, service: service, log: log, maxMessageSize: maxMessageSize}
}

// Serve handles the lifecycle of the client connection.
// The connection is announced to the room first and removed from it
// before Serve returns.
func (c *Client) Serve(ctx context.Context) {
	defer c.conn.Close()

	id, out, err := c.service.Connect(ctx)
	if err != nil {
		c.log.Warn("Connection refused", "error", err)
		return
	}
	log := c.log.With("connection", id)
	defer func() {
		if err := c.service.Disconnect(ctx, id); err != nil {
			log.Warn("Disconnect not dispatched", "error", err)
		}
	}()

	if c.maxMessageSize > 0 {
		c.conn.SetReadLimit(c.maxMessageSize)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writeLoop(ctx, out, log)
	c.readLoop(ctx, id, out, log)
}

func (c *Client) readLoop(ctx context.Context, id chat.ConnectionID, out *sink.ConnectionSink, log *slog.Logger) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("Client disconnected", "reason", err)
			} else {
				log.Warn("Read error", "error", err)
			}
			return
		}

		var env wire.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.reject(ctx, out, log, err)
			continue
		}
		if err := wire.Dispatch(ctx, c.service, id, env); err != nil {
			if stderrors.Is(err, errors.ErrRoomStopped) || ctx.Err() != nil {
				return
			}
			c.reject(ctx, out, log, err)
		}
	}
}

// reject drops a malformed event; the connection stays open.
func (c *Client) reject(ctx context.Context, out *sink.ConnectionSink, log *slog.Logger, err error) {
	log.Warn("Inbound event dropped", "error", err)
	if err := out.Consume(ctx, event.Rejected{Reason: err.Error()}); err != nil {
		log.Debug("Rejection not delivered", "error", err)
	}
}

func (c *Client) writeLoop(ctx context.Context, out *sink.ConnectionSink, log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-out.Events():
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := wire.Marshal(evt)
			if err != nil {
				log.Error("Marshal event failed", "event", evt.Name(), "error", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Warn("Write error", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn("Ping failed", "error", err)
				return
			}
		}
	}
}
