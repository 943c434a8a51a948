package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"pokematch-server/matcherrors"
	"pokematch-server/score"
)

// Keys under which the score list and the player name are stored.
const (
	ScoresKey     = "pokematch-scores"
	PlayerNameKey = "pokematch-player-name"
)

// ScoreStore is the typed layer over a KV holding the score list and the
// player's display name.
type ScoreStore struct {
	kv KV
}

// NewScoreStore wraps kv.
func NewScoreStore(kv KV) *ScoreStore {
	return &ScoreStore{kv: kv}
}

// Load returns the stored score list. It returns ErrNoScores if nothing has
// been saved and an error wrapping matcherrors.ErrStorageRead if the stored
// value cannot be decoded. Backend failures are returned as they are.
func (s *ScoreStore) Load(ctx context.Context) ([]score.Record, error) {
	raw, ok, err := s.kv.Get(ctx, ScoresKey)
	if err != nil {
		return nil, fmt.Errorf("reading scores: %w", err)
	}
	if !ok {
		return nil, ErrNoScores
	}
	var records []score.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", matcherrors.ErrStorageRead, err)
	}
	if records == nil {
		records = []score.Record{}
	}
	return records, nil
}

// Save replaces the stored score list.
func (s *ScoreStore) Save(ctx context.Context, records []score.Record) error {
	if records == nil {
		records = []score.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, ScoresKey, string(data))
}

// Clear removes the score list.
func (s *ScoreStore) Clear(ctx context.Context) error {
	return s.kv.Remove(ctx, ScoresKey)
}

// PlayerName returns the stored display name; ok is false if none is set.
func (s *ScoreStore) PlayerName(ctx context.Context) (name string, ok bool, err error) {
	return s.kv.Get(ctx, PlayerNameKey)
}

// SetPlayerName stores the display name as given.
func (s *ScoreStore) SetPlayerName(ctx context.Context, name string) error {
	return s.kv.Set(ctx, PlayerNameKey, name)
}

// ClearPlayerName removes the display name.
func (s *ScoreStore) ClearPlayerName(ctx context.Context) error {
	return s.kv.Remove(ctx, PlayerNameKey)
}
