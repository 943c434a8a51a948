package ws

import "encoding/json"

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// AuthMsg carries an optional Neon Auth JWT.
type AuthMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// StartRoundMsg starts a new round. An empty difficulty means easy.
type StartRoundMsg struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
}

// SelectCardMsg turns a card face-up.
type SelectCardMsg struct {
	Type     string `json:"type"`
	UniqueID string `json:"uniqueId"`
}

// SetNameMsg changes the stored player name.
type SetNameMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// --- Server-to-Client messages ---

// ErrorMsg is sent when a client message cannot be handled.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// LeaderboardUpdatedMsg tells clients to refetch the leaderboard.
type LeaderboardUpdatedMsg struct {
	Type string `json:"type"`
}

// PlayerNameMsg reports the player name in effect after auth or set_name.
type PlayerNameMsg struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName"`
}
