// Package websocket is the browser-facing transport of the room.
package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"presence-lab/services"
	"slices"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
)

// Handler upgrades HTTP requests and serves one client per connection.
type Handler struct {
	log            *slog.Logger
	service        services.IPresenceService
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

func NewHandler(log *slog.Logger, service services.IPresenceService, allowedOrigins []string, maxMessageSize int64) *Handler {
	return &Handler{
		log:            log,
		service:        service,
		maxMessageSize: maxMessageSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     CheckOrigin(allowedOrigins),
		},
	}
}

// NewRouter exposes the websocket endpoint and a health probe behind the CORS policy.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Handle("/ws", h).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(r)
}

// ServeHTTP blocks while the client session is active.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	client := NewClient(conn, h.service, h.log, h.maxMessageSize)
	client.Serve(r.Context())
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.service.Stats()); err != nil {
		h.log.Warn("Health response failed", "error", err)
	}
}

// CheckOrigin accepts requests without an Origin header (non-browser clients),
// any origin when "*" is allowed, or an exact match otherwise.
func CheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, "*") {
			return true
		}
		return slices.ContainsFunc(allowedOrigins, func(allowed string) bool {
			return strings.EqualFold(strings.TrimRight(allowed, "/"), origin)
		})
	}
}
