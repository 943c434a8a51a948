// Package session owns the per-client round engines: it creates them,
// records won rounds on the scoreboard and reaps sessions left idle.
package session

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"pokematch-server/game"
)

// UpdateFunc receives every engine snapshot in version order. won is true
// exactly once per round, on the first Won snapshot.
type UpdateFunc func(snap game.Snapshot, won bool)

// Session is one client's game.
type Session struct {
	ID     string
	Engine *game.Engine

	onUpdate    UpdateFunc
	onExpire    func()
	unsubscribe func()
	clock       clockwork.Clock

	mu          sync.Mutex
	lastVersion uint64
	wonRecorded bool
	lastActive  time.Time
}

// Touch marks the session as active.
func (s *Session) Touch() {
	now := s.clock.Now()
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

// LastActive returns the time of the last Touch.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// observe filters stale snapshots and detects the win transition.
// It reports whether snap is new and whether it is the round's first win.
func (s *Session) observe(snap game.Snapshot) (fresh, won bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Version <= s.lastVersion {
		return false, false
	}
	s.lastVersion = snap.Version

	switch snap.Phase {
	case game.Loading:
		s.wonRecorded = false
	case game.Won:
		if !s.wonRecorded {
			s.wonRecorded = true
			return true, true
		}
	}
	return true, false
}
