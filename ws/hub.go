package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"pokematch-server/auth"
	"pokematch-server/config"
	"pokematch-server/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SessionManager defines what the Hub needs from the session manager.
type SessionManager interface {
	Create(onUpdate session.UpdateFunc, onExpire func()) *session.Session
	Remove(id string)
}

// PlayerNames stores the display name shared by all rounds.
type PlayerNames interface {
	SetPlayerName(ctx context.Context, name string) (string, error)
	SeedPlayerName(ctx context.Context, name string) (string, error)
}

// TokenValidator validates auth tokens.
type TokenValidator interface {
	Validate(token string) (auth.Identity, error)
}

// Hub maintains the set of active clients and routes messages.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan []byte

	Sessions SessionManager
	Names    PlayerNames
	Auth     TokenValidator // nil disables the auth message
	Config   *config.Config
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, sessions SessionManager, names PlayerNames, validator TokenValidator) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		Sessions:   sessions,
		Names:      names,
		Auth:       validator,
		Config:     cfg,
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run returns and no longer accepts new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "hub")
			return
		case client := <-h.Register:
			h.Clients[client] = true
			slog.Info("client connected", "tag", "hub", "total", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				if client.Session != nil {
					h.Sessions.Remove(client.Session.ID)
				}
				close(client.Send)
				slog.Info("client disconnected", "tag", "hub", "total", len(h.Clients))
			}

		case msg := <-h.broadcast:
			for client := range h.Clients {
				client.send(msg)
			}
		}
	}
}

// BroadcastLeaderboardUpdated tells every connected client to refetch the
// leaderboard. Notifications are coalesced when the hub is busy.
func (h *Hub) BroadcastLeaderboardUpdated() {
	data, _ := json.Marshal(LeaderboardUpdatedMsg{Type: "leaderboard_updated"})
	select {
	case h.broadcast <- data:
	default:
	}
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "hub", "err", err)
		return
	}

	client := newClient(h, conn)
	client.Session = h.Sessions.Create(client.handleUpdate, client.expire)

	h.Register <- client

	go client.WritePump()
	go client.ReadPump()

	client.sendRoundState(client.Session.Engine.Snapshot())
}
