// Package scoreboard implements the leaderboard and player profile
// operations on top of a storage.ScoreStore.
package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"pokematch-server/config"
	"pokematch-server/game"
	"pokematch-server/matcherrors"
	"pokematch-server/score"
	"pokematch-server/storage"
)

// Service owns the score list and the player name.
type Service struct {
	store         *storage.ScoreStore
	clock         clockwork.Clock
	maxNameLength int
	defaultName   string

	mu        sync.Mutex
	listeners []func()
}

// NewService creates a Service. A nil clock means the real clock.
func NewService(store *storage.ScoreStore, cfg *config.Config, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		store:         store,
		clock:         clock,
		maxNameLength: cfg.MaxNameLength,
		defaultName:   cfg.DefaultName,
	}
}

// OnChange registers fn to run after every write to the score list.
func (s *Service) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// NotifyChanged runs the change listeners. Writes made through the Service
// call it themselves; it is exported for changes noticed in the backend.
func (s *Service) NotifyChanged() {
	s.mu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Leaderboard returns the score list in leaderboard order. If nothing is
// stored the sample records are seeded and returned. If the stored list
// cannot be decoded the samples are seeded too, and the read error is
// returned alongside them. Backend failures leave the stored list untouched
// and are returned with no records.
func (s *Service) Leaderboard(ctx context.Context) ([]score.Record, error) {
	records, err := s.store.Load(ctx)
	if err == nil {
		score.Sort(records)
		return records, nil
	}

	var readErr error
	switch {
	case errors.Is(err, storage.ErrNoScores):
	case errors.Is(err, matcherrors.ErrStorageRead):
		slog.Warn("stored scores are corrupt, seeding samples", "tag", "scoreboard", "err", err)
		readErr = err
	default:
		return nil, err
	}

	samples := score.Samples()
	if err := s.store.Save(ctx, samples); err != nil {
		return nil, fmt.Errorf("seeding sample scores: %w", err)
	}
	s.NotifyChanged()
	score.Sort(samples)
	return samples, readErr
}

// AddScore appends a record for a finished round and returns it. An empty
// playerName falls back to the stored player name.
func (s *Service) AddScore(ctx context.Context, playerName string, elapsed, moves int, difficulty string) (score.Record, error) {
	d, err := game.ParseDifficulty(difficulty)
	if err != nil || difficulty == "" {
		return score.Record{}, fmt.Errorf("%w: difficulty %q", matcherrors.ErrInvalidScore, difficulty)
	}
	if elapsed < 0 || moves < 0 {
		return score.Record{}, fmt.Errorf("%w: negative time or moves", matcherrors.ErrInvalidScore)
	}

	name := strings.TrimSpace(playerName)
	if name == "" {
		name, err = s.PlayerName(ctx)
		if err != nil {
			return score.Record{}, err
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return score.Record{}, err
	}
	rec := score.Record{
		ID:         score.RecordID(id.String()),
		PlayerName: s.truncate(name),
		Time:       elapsed,
		Moves:      moves,
		Difficulty: string(d),
		Date:       s.clock.Now().Format("2006-01-02"),
	}

	// An unreadable list has already been replaced by the samples.
	records, err := s.Leaderboard(ctx)
	if err != nil && !errors.Is(err, matcherrors.ErrStorageRead) {
		return score.Record{}, err
	}
	records = append(records, rec)
	score.Sort(records)
	if err := s.store.Save(ctx, records); err != nil {
		return score.Record{}, err
	}

	slog.Info("score added", "tag", "scoreboard", "player", rec.PlayerName, "time", rec.Time, "moves", rec.Moves, "difficulty", rec.Difficulty)
	s.NotifyChanged()
	return rec, nil
}

// RecordWin stores a won round under the stored player name.
func (s *Service) RecordWin(ctx context.Context, difficulty game.Difficulty, elapsed, moves int) (score.Record, error) {
	return s.AddScore(ctx, "", elapsed, moves, string(difficulty))
}

// ClearScores removes every record. The next Leaderboard call re-seeds the samples.
func (s *Service) ClearScores(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.NotifyChanged()
	return nil
}

// Profile returns the player's profile view. Unlike Leaderboard it never
// seeds samples; an unreadable list yields an empty profile and the read error.
func (s *Service) Profile(ctx context.Context) (score.ProfileView, error) {
	name, err := s.PlayerName(ctx)
	if err != nil {
		return score.ProfileView{}, err
	}

	records, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNoScores):
		return score.BuildProfile(name, nil), nil
	case err != nil:
		return score.BuildProfile(name, nil), err
	}
	return score.BuildProfile(name, records), nil
}

// PlayerName returns the stored player name or the configured default.
func (s *Service) PlayerName(ctx context.Context) (string, error) {
	name, ok, err := s.store.PlayerName(ctx)
	if err != nil {
		return "", fmt.Errorf("reading player name: %w", err)
	}
	if !ok || strings.TrimSpace(name) == "" {
		return s.defaultName, nil
	}
	return name, nil
}

// SetPlayerName trims and stores name, truncating it to the configured
// maximum length. An empty name is rejected and nothing is stored.
func (s *Service) SetPlayerName(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", matcherrors.ErrEmptyPlayerName
	}
	name = s.truncate(name)
	if err := s.store.SetPlayerName(ctx, name); err != nil {
		return "", err
	}
	return name, nil
}

// SeedPlayerName stores name only if no player name is stored yet, and
// returns the name now in effect.
func (s *Service) SeedPlayerName(ctx context.Context, name string) (string, error) {
	_, ok, err := s.store.PlayerName(ctx)
	if err != nil {
		return "", fmt.Errorf("reading player name: %w", err)
	}
	if ok || strings.TrimSpace(name) == "" {
		return s.PlayerName(ctx)
	}
	return s.SetPlayerName(ctx, name)
}

// ClearAll removes the score list and the player name.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	if err := s.store.ClearPlayerName(ctx); err != nil {
		return err
	}
	s.NotifyChanged()
	return nil
}

func (s *Service) truncate(name string) string {
	if s.maxNameLength <= 0 || utf8.RuneCountInString(name) <= s.maxNameLength {
		return name
	}
	return string([]rune(name)[:s.maxNameLength])
}
