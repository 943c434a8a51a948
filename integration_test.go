package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pokematch-server/config"
	"pokematch-server/creature"
	"pokematch-server/storage"
)

type cardMsg struct {
	UniqueID string `json:"uniqueId"`
	State    string `json:"state"`
	PairID   *int   `json:"pairId"`
}

type serverMsg struct {
	Type       string    `json:"type"`
	Version    uint64    `json:"version"`
	Phase      string    `json:"phase"`
	Cards      []cardMsg `json:"cards"`
	Moves      int       `json:"moves"`
	PairsFound int       `json:"pairsFound"`
	TotalPairs int       `json:"totalPairs"`
	Won        bool      `json:"won"`
	Time       int       `json:"time"`
	PlayerName string    `json:"playerName"`
	Message    string    `json:"message"`
}

// setupTestServer creates a test HTTP server with the full server stack on an
// in-memory store and the built-in creature table.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Defaults()
	cfg.MismatchDelayMS = 50
	cfg.TickIntervalMS = 0
	cfg.Store.Backend = config.BackendMemory

	a, err := newApp(cfg, storage.NewMemoryKV(), creature.NewPool(nil, cfg.Creature.MaxID))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := a.start(ctx); err != nil {
		cancel()
		t.Fatal(err)
	}

	server := httptest.NewServer(a.handler)
	t.Cleanup(func() {
		server.Close()
		cancel()
		a.shutdown()
	})
	return server
}

// connectWS creates a WebSocket connection to the test server and consumes
// the initial round_state.
func connectWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	first := readMsg(t, conn)
	if first.Type != "round_state" || first.Phase != "loading" {
		t.Fatalf("expected initial loading round_state, got %+v", first)
	}
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) serverMsg {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var msg serverMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to parse message: %v", err)
	}
	return msg
}

// readUntil reads messages until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(serverMsg) bool) serverMsg {
	t.Helper()
	for i := 0; i < 50; i++ {
		msg := readMsg(t, conn)
		if match(msg) {
			return msg
		}
	}
	t.Fatal("expected message never arrived")
	return serverMsg{}
}

func sendMsg(t *testing.T, conn *websocket.Conn, msg map[string]interface{}) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to send message: %v", err)
	}
}

func startRound(t *testing.T, conn *websocket.Conn, difficulty string) serverMsg {
	t.Helper()
	sendMsg(t, conn, map[string]interface{}{"type": "start_round", "difficulty": difficulty})
	return readUntil(t, conn, func(m serverMsg) bool {
		return m.Type == "round_state" && m.Phase == "playing"
	})
}

// pairsOf groups the dealt cards by the creature part of their identifier.
func pairsOf(cards []cardMsg) [][2]string {
	byPair := map[string][]string{}
	var order []string
	for _, c := range cards {
		prefix := c.UniqueID[:strings.LastIndex(c.UniqueID, "-")]
		if _, ok := byPair[prefix]; !ok {
			order = append(order, prefix)
		}
		byPair[prefix] = append(byPair[prefix], c.UniqueID)
	}
	out := make([][2]string, 0, len(order))
	for _, p := range order {
		out = append(out, [2]string{byPair[p][0], byPair[p][1]})
	}
	return out
}

func TestStartRoundDealsHiddenDeck(t *testing.T) {
	server := setupTestServer(t)
	conn := connectWS(t, server)

	state := startRound(t, conn, "medium")
	if len(state.Cards) != 12 || state.TotalPairs != 6 {
		t.Fatalf("expected 12 cards in 6 pairs, got %d cards, %d pairs", len(state.Cards), state.TotalPairs)
	}
	for _, c := range state.Cards {
		if c.State != "hidden" || c.PairID != nil {
			t.Errorf("expected hidden card without pairId, got %+v", c)
		}
	}
}

func TestMismatchFlipsBack(t *testing.T) {
	server := setupTestServer(t)
	conn := connectWS(t, server)

	state := startRound(t, conn, "easy")
	pairs := pairsOf(state.Cards)
	a, b := pairs[0][0], pairs[1][0]

	sendMsg(t, conn, map[string]interface{}{"type": "select_card", "uniqueId": a})
	sendMsg(t, conn, map[string]interface{}{"type": "select_card", "uniqueId": b})

	revealed := readUntil(t, conn, func(m serverMsg) bool { return m.Type == "round_state" && m.Moves == 1 })
	count := 0
	for _, c := range revealed.Cards {
		if c.State == "revealed" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 revealed cards, got %d", count)
	}

	hidden := readUntil(t, conn, func(m serverMsg) bool {
		if m.Type != "round_state" || m.Version <= revealed.Version {
			return false
		}
		for _, c := range m.Cards {
			if c.State != "hidden" {
				return false
			}
		}
		return true
	})
	if hidden.Moves != 1 || hidden.PairsFound != 0 {
		t.Errorf("expected 1 move and no pairs after flip back, got %d moves, %d pairs", hidden.Moves, hidden.PairsFound)
	}
}

func TestWinIsRecordedOnLeaderboard(t *testing.T) {
	server := setupTestServer(t)
	conn := connectWS(t, server)

	state := startRound(t, conn, "easy")
	pairs := pairsOf(state.Cards)
	for i, p := range pairs[:len(pairs)-1] {
		sendMsg(t, conn, map[string]interface{}{"type": "select_card", "uniqueId": p[0]})
		sendMsg(t, conn, map[string]interface{}{"type": "select_card", "uniqueId": p[1]})
		found := i + 1
		readUntil(t, conn, func(m serverMsg) bool { return m.Type == "round_state" && m.PairsFound == found })
	}
	last := pairs[len(pairs)-1]
	sendMsg(t, conn, map[string]interface{}{"type": "select_card", "uniqueId": last[0]})
	sendMsg(t, conn, map[string]interface{}{"type": "select_card", "uniqueId": last[1]})

	// The leaderboard broadcast and round_won may arrive in either order.
	var won serverMsg
	updated := false
	readUntil(t, conn, func(m serverMsg) bool {
		switch m.Type {
		case "round_won":
			won = m
		case "leaderboard_updated":
			updated = true
		}
		return won.Type != "" && updated
	})
	if won.Moves != 4 {
		t.Errorf("expected 4 moves, got %d", won.Moves)
	}

	resp, err := http.Get(server.URL + "/api/leaderboard")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var lb struct {
		Entries []struct {
			PlayerName string `json:"playerName"`
			Moves      int    `json:"moves"`
			Difficulty string `json:"difficulty"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&lb); err != nil {
		t.Fatal(err)
	}
	if len(lb.Entries) != 9 {
		t.Fatalf("expected 8 samples plus the win, got %d entries", len(lb.Entries))
	}
	found := false
	for _, e := range lb.Entries {
		if e.PlayerName == config.Defaults().DefaultName && e.Moves == 4 && e.Difficulty == "easy" {
			found = true
		}
	}
	if !found {
		t.Error("won round should be on the leaderboard under the default name")
	}
}

func TestSetNameOverWebSocket(t *testing.T) {
	server := setupTestServer(t)
	conn := connectWS(t, server)

	sendMsg(t, conn, map[string]interface{}{"type": "set_name", "name": "  Misty  "})
	msg := readUntil(t, conn, func(m serverMsg) bool { return m.Type == "player_name" })
	if msg.PlayerName != "Misty" {
		t.Errorf("expected Misty, got %q", msg.PlayerName)
	}

	resp, err := http.Get(server.URL + "/api/profile")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var p struct {
		PlayerName string `json:"playerName"`
	}
	json.NewDecoder(resp.Body).Decode(&p)
	if p.PlayerName != "Misty" {
		t.Errorf("expected profile name Misty, got %q", p.PlayerName)
	}
}

func TestProtocolErrors(t *testing.T) {
	server := setupTestServer(t)
	conn := connectWS(t, server)

	tests := []struct {
		name string
		msg  map[string]interface{}
	}{
		{"unknown type", map[string]interface{}{"type": "flip_everything"}},
		{"unknown difficulty", map[string]interface{}{"type": "start_round", "difficulty": "expert"}},
		{"auth without validator", map[string]interface{}{"type": "auth", "token": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sendMsg(t, conn, tt.msg)
			msg := readUntil(t, conn, func(m serverMsg) bool { return m.Type == "error" })
			if msg.Message == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
