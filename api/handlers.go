package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"pokematch-server/game"
	"pokematch-server/matcherrors"
	"pokematch-server/score"
)

// Banner texts returned alongside data when the stored scores could not be read.
const (
	leaderboardReadBanner = "Failed to load leaderboard data"
	profileReadBanner     = "Failed to load profile data"
)

// Scoreboard is the subset of scoreboard.Service the REST handlers use.
type Scoreboard interface {
	Leaderboard(ctx context.Context) ([]score.Record, error)
	AddScore(ctx context.Context, playerName string, elapsed, moves int, difficulty string) (score.Record, error)
	ClearScores(ctx context.Context) error
	Profile(ctx context.Context) (score.ProfileView, error)
	SetPlayerName(ctx context.Context, name string) (string, error)
	ClearAll(ctx context.Context) error
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Board Scoreboard
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(board Scoreboard) *Handler {
	return &Handler{Board: board}
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/leaderboard", h.Leaderboard)
	mux.HandleFunc("/api/scores", h.Scores)
	mux.HandleFunc("/api/profile", h.Profile)
	mux.HandleFunc("/api/profile/name", h.ProfileName)
	mux.HandleFunc("/api/profile/chart", h.ProfileChart)
	mux.HandleFunc("/api/difficulties", h.Difficulties)
	mux.HandleFunc("/healthz", Healthz)
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "tag", "api", "err", err)
	}
}

// LeaderboardResponse is the JSON structure for /api/leaderboard.
type LeaderboardResponse struct {
	Entries []score.LeaderboardEntry `json:"entries"`
	Error   string                   `json:"error,omitempty"`
}

// Leaderboard returns the ranked score list. An optional limit query
// parameter caps the number of rows.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := h.Board.Leaderboard(r.Context())
	resp := LeaderboardResponse{}
	if err != nil {
		if !errors.Is(err, matcherrors.ErrStorageRead) {
			slog.Error("load leaderboard", "tag", "api", "err", err)
			http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
			return
		}
		resp.Error = leaderboardReadBanner
	}

	if limit, _ := strconv.Atoi(r.URL.Query().Get("limit")); limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	resp.Entries = score.BuildLeaderboard(records)
	writeJSON(w, http.StatusOK, resp)
}

// NewScoreRequest is the body of POST /api/scores.
type NewScoreRequest struct {
	PlayerName string `json:"playerName"`
	Time       int    `json:"time"`
	Moves      int    `json:"moves"`
	Difficulty string `json:"difficulty"`
}

// Scores adds a record (POST) or clears the list (DELETE).
func (h *Handler) Scores(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req NewScoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		rec, err := h.Board.AddScore(r.Context(), req.PlayerName, req.Time, req.Moves, req.Difficulty)
		if errors.Is(err, matcherrors.ErrInvalidScore) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			slog.Error("add score", "tag", "api", "err", err)
			http.Error(w, "failed to save score", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	case http.MethodDelete:
		if err := h.Board.ClearScores(r.Context()); err != nil {
			slog.Error("clear scores", "tag", "api", "err", err)
			http.Error(w, "failed to clear scores", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ProfileResponse is the JSON structure for GET /api/profile.
type ProfileResponse struct {
	score.ProfileView
	Error string `json:"error,omitempty"`
}

// Profile returns the profile view (GET) or clears all stored data (DELETE).
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		view, err := h.Board.Profile(r.Context())
		resp := ProfileResponse{ProfileView: view}
		if err != nil {
			if !errors.Is(err, matcherrors.ErrStorageRead) {
				slog.Error("load profile", "tag", "api", "err", err)
				http.Error(w, "failed to load profile", http.StatusInternalServerError)
				return
			}
			resp.Error = profileReadBanner
		}
		writeJSON(w, http.StatusOK, resp)
	case http.MethodDelete:
		if err := h.Board.ClearAll(r.Context()); err != nil {
			slog.Error("clear profile", "tag", "api", "err", err)
			http.Error(w, "failed to clear data", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// PlayerNameBody is the body of PUT /api/profile/name and its response.
type PlayerNameBody struct {
	Name string `json:"name"`
}

// ProfileName stores a new player name.
func (h *Handler) ProfileName(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PlayerNameBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	name, err := h.Board.SetPlayerName(r.Context(), req.Name)
	if errors.Is(err, matcherrors.ErrEmptyPlayerName) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("set player name", "tag", "api", "err", err)
		http.Error(w, "failed to save name", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, PlayerNameBody{Name: name})
}

// DifficultyInfo describes one tier for the home view.
type DifficultyInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Pairs int    `json:"pairs"`
	Cards int    `json:"cards"`
}

// Difficulties lists the available tiers.
func (h *Handler) Difficulties(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tiers := game.Difficulties()
	out := make([]DifficultyInfo, len(tiers))
	for i, d := range tiers {
		out[i] = DifficultyInfo{
			ID:    string(d),
			Label: score.DifficultyLabel(string(d)),
			Pairs: d.Pairs(),
			Cards: d.Pairs() * 2,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
