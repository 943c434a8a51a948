package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"pokematch-server/game"
	"pokematch-server/matcherrors"
	"pokematch-server/session"
	"pokematch-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between the websocket connection and the hub.
// Each client owns one session.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Session *session.Session
	UserID  string

	ctx    context.Context
	cancel context.CancelFunc
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		Hub:    h,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ReadPump pumps messages from the websocket connection to the hub.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.cancel()
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "tag", "ws", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}
	if c.Session != nil {
		c.Session.Touch()
	}

	switch envelope.Type {
	case "start_round":
		c.handleStartRound(envelope.Raw)
	case "select_card":
		c.handleSelectCard(envelope.Raw)
	case "reset_round":
		c.handleResetRound()
	case "set_name":
		c.handleSetName(envelope.Raw)
	case "auth":
		c.handleAuth(envelope.Raw)
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

// handleStartRound deals asynchronously so a reset sent while creatures
// are loading is still read and supersedes the pending deal.
func (c *Client) handleStartRound(raw json.RawMessage) {
	var msg StartRoundMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid start_round message.")
		return
	}
	d, err := game.ParseDifficulty(msg.Difficulty)
	if err != nil {
		c.sendError("Unknown difficulty: " + msg.Difficulty)
		return
	}
	go c.runRound(func(ctx context.Context) error {
		return c.Session.Engine.StartRound(ctx, d)
	})
}

func (c *Client) handleResetRound() {
	go c.runRound(c.Session.Engine.ResetRound)
}

func (c *Client) runRound(start func(context.Context) error) {
	err := start(c.ctx)
	switch {
	case err == nil:
	case errors.Is(err, matcherrors.ErrRoundSuperseded), errors.Is(err, matcherrors.ErrEngineClosed):
		slog.Debug("deal discarded", "tag", "ws", "session", c.Session.ID, "err", err)
	default:
		slog.Error("starting round", "tag", "ws", "session", c.Session.ID, "err", err)
		c.sendError("Could not start the round.")
	}
}

func (c *Client) handleSelectCard(raw json.RawMessage) {
	var msg SelectCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid select_card message.")
		return
	}
	// Rejected selections are silent no-ops; the client's view is already current.
	c.Session.Engine.SelectCard(msg.UniqueID)
}

func (c *Client) handleSetName(raw json.RawMessage) {
	var msg SetNameMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid set_name message.")
		return
	}
	name, err := c.Hub.Names.SetPlayerName(c.ctx, msg.Name)
	if errors.Is(err, matcherrors.ErrEmptyPlayerName) {
		c.sendError("Name must not be empty.")
		return
	}
	if err != nil {
		slog.Error("saving player name", "tag", "ws", "err", err)
		c.sendError("Could not save the name.")
		return
	}
	wsutil.SendJSON(c.Send, PlayerNameMsg{Type: "player_name", PlayerName: name})
}

func (c *Client) handleAuth(raw json.RawMessage) {
	if c.Hub.Auth == nil {
		c.sendError("Server auth not configured.")
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Token == "" {
		c.sendError("Invalid auth message.")
		return
	}
	id, err := c.Hub.Auth.Validate(msg.Token)
	if err != nil {
		slog.Info("auth rejected", "tag", "ws", "err", err)
		c.sendError("Invalid or expired token.")
		return
	}
	c.UserID = id.UserID

	name, err := c.Hub.Names.SeedPlayerName(c.ctx, id.FirstName)
	if err != nil {
		slog.Error("seeding player name", "tag", "ws", "err", err)
		c.sendError("Could not load the player name.")
		return
	}
	slog.Info("client authenticated", "tag", "ws", "user", id.UserID)
	wsutil.SendJSON(c.Send, PlayerNameMsg{Type: "player_name", PlayerName: name})
}

// handleUpdate forwards engine snapshots to the connection.
func (c *Client) handleUpdate(snap game.Snapshot, won bool) {
	c.sendRoundState(snap)
	if won {
		wsutil.SendJSON(c.Send, game.BuildRoundWon(snap))
	}
}

// expire runs when the session is reaped; closing the connection ends the pumps.
func (c *Client) expire() {
	c.sendError("Session expired.")
	if c.Conn != nil {
		c.Conn.Close()
	}
}

func (c *Client) sendRoundState(snap game.Snapshot) {
	wsutil.SendJSON(c.Send, game.BuildRoundState(snap))
}

func (c *Client) send(data []byte) {
	wsutil.SafeSend(c.Send, data)
}

func (c *Client) sendError(message string) {
	wsutil.SendJSON(c.Send, ErrorMsg{Type: "error", Message: message})
}
