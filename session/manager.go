package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"pokematch-server/config"
	"pokematch-server/game"
	"pokematch-server/matcherrors"
	"pokematch-server/score"
)

// WinRecorder persists a won round.
type WinRecorder interface {
	RecordWin(ctx context.Context, difficulty game.Difficulty, elapsed, moves int) (score.Record, error)
}

// Manager tracks live sessions.
type Manager struct {
	config   *config.Config
	source   game.CreatureSource
	clock    clockwork.Clock
	recorder WinRecorder

	mu       sync.Mutex
	sessions map[string]*Session

	scheduler gocron.Scheduler
}

// NewManager creates a Manager. recorder may be nil, in which case won
// rounds are not persisted. A nil clock means the real clock.
func NewManager(cfg *config.Config, source game.CreatureSource, recorder WinRecorder, clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		config:   cfg,
		source:   source,
		clock:    clock,
		recorder: recorder,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session whose engine reports to onUpdate. onExpire runs
// if the session is reaped for inactivity; either callback may be nil.
func (m *Manager) Create(onUpdate UpdateFunc, onExpire func()) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		Engine:     game.NewEngine(m.config, m.source, m.clock),
		onUpdate:   onUpdate,
		onExpire:   onExpire,
		clock:      m.clock,
		lastActive: m.clock.Now(),
	}
	s.unsubscribe = s.Engine.Subscribe(func(snap game.Snapshot) {
		m.handleSnapshot(s, snap)
	})

	m.mu.Lock()
	m.sessions[s.ID] = s
	total := len(m.sessions)
	m.mu.Unlock()

	slog.Info("session created", "tag", "session", "id", s.ID, "total", total)
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, matcherrors.ErrSessionNotFound
	}
	return s, nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Remove closes and forgets the session with id. Unknown ids are ignored.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	total := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return
	}
	s.unsubscribe()
	s.Engine.Close()
	slog.Info("session closed", "tag", "session", "id", id, "total", total)
}

// Reap closes every session idle for longer than the configured timeout and
// returns how many were closed.
func (m *Manager) Reap() int {
	timeout := m.config.SessionIdleTimeout()
	if timeout <= 0 {
		return 0
	}
	now := m.clock.Now()

	m.mu.Lock()
	var idle []*Session
	for _, s := range m.sessions {
		if now.Sub(s.LastActive()) > timeout {
			idle = append(idle, s)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		m.Remove(s.ID)
		if s.onExpire != nil {
			s.onExpire()
		}
	}
	if len(idle) > 0 {
		slog.Info("reaped idle sessions", "tag", "session", "count", len(idle))
	}
	return len(idle)
}

// StartJanitor schedules Reap every janitor interval until Shutdown.
func (m *Manager) StartJanitor() error {
	if m.config.JanitorInterval() <= 0 {
		return nil
	}
	sched, err := gocron.NewScheduler(gocron.WithClock(m.clock))
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(m.config.JanitorInterval()),
		gocron.NewTask(func() { m.Reap() }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		sched.Shutdown()
		return err
	}
	sched.Start()
	m.scheduler = sched
	return nil
}

// Shutdown stops the janitor and closes every session.
func (m *Manager) Shutdown() {
	if m.scheduler != nil {
		if err := m.scheduler.Shutdown(); err != nil {
			slog.Warn("janitor shutdown", "tag", "session", "err", err)
		}
	}

	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Remove(id)
	}
}

func (m *Manager) handleSnapshot(s *Session, snap game.Snapshot) {
	fresh, won := s.observe(snap)
	if !fresh {
		return
	}
	if won {
		slog.Info("round won", "tag", "session", "id", s.ID, "difficulty", string(snap.Difficulty), "time", snap.ElapsedSeconds, "moves", snap.Moves)
		if m.config.RecordWins && m.recorder != nil {
			if _, err := m.recorder.RecordWin(context.Background(), snap.Difficulty, snap.ElapsedSeconds, snap.Moves); err != nil {
				slog.Error("failed to record win", "tag", "session", "id", s.ID, "err", err)
			}
		}
	}
	if s.onUpdate != nil {
		s.onUpdate(snap, won)
	}
}
