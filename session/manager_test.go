package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"pokematch-server/config"
	"pokematch-server/creature"
	"pokematch-server/game"
	"pokematch-server/matcherrors"
	"pokematch-server/score"
)

type fakeRecorder struct {
	mu   sync.Mutex
	wins []score.Record
}

func (f *fakeRecorder) RecordWin(_ context.Context, d game.Difficulty, elapsed, moves int) (score.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := score.Record{Difficulty: string(d), Time: elapsed, Moves: moves}
	f.wins = append(f.wins, rec)
	return rec, nil
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.wins)
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.TickIntervalMS = 0
	return cfg
}

func newTestManager(cfg *config.Config) (*Manager, *fakeRecorder, *clockwork.FakeClock) {
	rec := &fakeRecorder{}
	fc := clockwork.NewFakeClock()
	return NewManager(cfg, creature.NewPool(nil, 151), rec, fc), rec, fc
}

// winRound plays every pair of the current round in order.
func winRound(t *testing.T, e *game.Engine) {
	t.Helper()
	s := e.Snapshot()
	byPair := make(map[int][]string)
	for _, c := range s.Deck {
		byPair[c.PairID] = append(byPair[c.PairID], c.UniqueID)
	}
	for _, ids := range byPair {
		if !e.SelectCard(ids[0]) || !e.SelectCard(ids[1]) {
			t.Fatalf("pair %v rejected", ids)
		}
	}
	if !e.Snapshot().Won() {
		t.Fatal("round not won")
	}
}

func TestManagerCreateGetRemove(t *testing.T) {
	m, _, _ := newTestManager(testConfig())

	s := m.Create(nil, nil)
	if s.ID == "" {
		t.Fatal("expected session id")
	}
	if got, err := m.Get(s.ID); err != nil || got != s {
		t.Errorf("expected to find session, got %v err=%v", got, err)
	}
	if m.Count() != 1 {
		t.Errorf("expected 1 session, got %d", m.Count())
	}

	m.Remove(s.ID)
	if _, err := m.Get(s.ID); !errors.Is(err, matcherrors.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := s.Engine.StartRound(context.Background(), game.Easy); !errors.Is(err, matcherrors.ErrEngineClosed) {
		t.Errorf("expected removed session's engine closed, got %v", err)
	}
	m.Remove(s.ID)
}

func TestWinRecordedOncePerRound(t *testing.T) {
	m, rec, _ := newTestManager(testConfig())

	var mu sync.Mutex
	wonEvents := 0
	updates := 0
	s := m.Create(func(snap game.Snapshot, won bool) {
		mu.Lock()
		defer mu.Unlock()
		updates++
		if won {
			wonEvents++
		}
	}, nil)
	ctx := context.Background()

	if err := s.Engine.StartRound(ctx, game.Easy); err != nil {
		t.Fatal(err)
	}
	s.Engine.Tick()
	winRound(t, s.Engine)
	s.Engine.Tick()
	s.Engine.SelectCard("1-1")

	if rec.count() != 1 {
		t.Fatalf("expected 1 recorded win, got %d", rec.count())
	}
	if rec.wins[0].Difficulty != "easy" || rec.wins[0].Moves != 4 || rec.wins[0].Time != 1 {
		t.Errorf("unexpected recorded win %+v", rec.wins[0])
	}

	if err := s.Engine.ResetRound(ctx); err != nil {
		t.Fatal(err)
	}
	winRound(t, s.Engine)
	if rec.count() != 2 {
		t.Errorf("expected a second win after reset, got %d", rec.count())
	}

	mu.Lock()
	defer mu.Unlock()
	if wonEvents != 2 {
		t.Errorf("expected 2 won updates, got %d", wonEvents)
	}
	if updates == 0 {
		t.Error("expected snapshot updates")
	}
}

func TestWinNotRecordedWhenDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.RecordWins = false
	m, rec, _ := newTestManager(cfg)

	s := m.Create(nil, nil)
	s.Engine.StartRound(context.Background(), game.Easy)
	winRound(t, s.Engine)

	if rec.count() != 0 {
		t.Errorf("expected no recorded wins, got %d", rec.count())
	}
}

func TestObserveDropsStaleSnapshots(t *testing.T) {
	s := &Session{}
	if fresh, _ := s.observe(game.Snapshot{Version: 2, Phase: game.Playing}); !fresh {
		t.Error("expected version 2 fresh")
	}
	if fresh, _ := s.observe(game.Snapshot{Version: 1, Phase: game.Loading}); fresh {
		t.Error("expected version 1 stale")
	}
	if _, won := s.observe(game.Snapshot{Version: 3, Phase: game.Won}); !won {
		t.Error("expected first won snapshot to report a win")
	}
	if _, won := s.observe(game.Snapshot{Version: 4, Phase: game.Won}); won {
		t.Error("expected later won snapshot not to report a win")
	}
}

func TestReapIdleSessions(t *testing.T) {
	m, _, fc := newTestManager(testConfig())

	expired := make(chan struct{}, 1)
	idle := m.Create(nil, func() { expired <- struct{}{} })
	active := m.Create(nil, nil)

	fc.Advance(20 * time.Minute)
	active.Touch()
	fc.Advance(11 * time.Minute)

	if n := m.Reap(); n != 1 {
		t.Fatalf("expected 1 reaped session, got %d", n)
	}
	select {
	case <-expired:
	default:
		t.Error("expected onExpire to run")
	}
	if _, err := m.Get(idle.ID); err == nil {
		t.Error("idle session should be gone")
	}
	if _, err := m.Get(active.ID); err != nil {
		t.Error("active session should remain")
	}
	if err := idle.Engine.StartRound(context.Background(), game.Easy); !errors.Is(err, matcherrors.ErrEngineClosed) {
		t.Errorf("expected reaped engine closed, got %v", err)
	}
}

func TestJanitorReaps(t *testing.T) {
	cfg := testConfig()
	cfg.SessionIdleTimeoutSec = 120
	cfg.JanitorIntervalSec = 60
	m, _, fc := newTestManager(cfg)
	defer m.Shutdown()

	m.Create(nil, nil)
	if err := m.StartJanitor(); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.Count() > 0 && time.Now().Before(deadline) {
		fc.Advance(time.Minute)
		time.Sleep(10 * time.Millisecond)
	}
	if m.Count() != 0 {
		t.Errorf("expected janitor to reap the idle session, %d left", m.Count())
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	m, _, _ := newTestManager(testConfig())
	s := m.Create(nil, nil)
	m.Shutdown()

	if m.Count() != 0 {
		t.Errorf("expected no sessions after shutdown, got %d", m.Count())
	}
	if err := s.Engine.ResetRound(context.Background()); !errors.Is(err, matcherrors.ErrEngineClosed) {
		t.Errorf("expected closed engine, got %v", err)
	}
}
