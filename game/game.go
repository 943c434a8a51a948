package game

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"pokematch-server/config"
	"pokematch-server/creature"
	"pokematch-server/matcherrors"
)

// Phase is the lifecycle stage of a round.
type Phase int

const (
	Loading Phase = iota
	Playing
	Won
)

// String returns the protocol string for a Phase.
func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Won:
		return "won"
	default:
		return "unknown"
	}
}

// CreatureSource supplies the creatures dealt into a round. Draw never
// fails; it degrades to a fallback set instead.
type CreatureSource interface {
	Draw(ctx context.Context, n int) []creature.Creature
}

// Snapshot is an immutable copy of a round's state. Version increases on
// every observable change, so equal versions mean equal state.
type Snapshot struct {
	Version        uint64
	Difficulty     Difficulty
	Phase          Phase
	Deck           []Card
	Selected       []string
	Matched        []string
	Moves          int
	ElapsedSeconds int
}

// Won reports whether every pair has been matched.
func (s Snapshot) Won() bool {
	return s.Phase == Won
}

// IsMatched reports whether the card with uniqueID is matched.
func (s Snapshot) IsMatched(uniqueID string) bool {
	return slices.Contains(s.Matched, uniqueID)
}

// IsSelected reports whether the card with uniqueID is currently face-up and unresolved.
func (s Snapshot) IsSelected(uniqueID string) bool {
	return slices.Contains(s.Selected, uniqueID)
}

// Engine runs one player's round: dealing, selection, match resolution,
// the mismatch hide delay and the elapsed-time clock. Every operation is
// serialized by mu and runs to completion; subscribers are notified after
// the lock is released.
type Engine struct {
	mu sync.Mutex

	source        CreatureSource
	clock         clockwork.Clock
	mismatchDelay time.Duration
	tickInterval  time.Duration

	difficulty Difficulty
	phase      Phase
	deck       []Card
	byID       map[string]int // uniqueId -> deck index
	selected   []string
	matched    []string
	moves      int
	elapsed    int
	version    uint64

	// roundGen changes whenever a round starts or the engine closes, so a
	// deal that finishes after being superseded is discarded.
	roundGen uint64
	// timerGen changes whenever timers are cancelled, so a callback that
	// already fired cannot act on a newer round.
	timerGen      uint64
	mismatchTimer clockwork.Timer
	tickerStop    chan struct{}
	closed        bool

	subs    map[int]func(Snapshot)
	nextSub int
}

// NewEngine creates an idle engine. A nil clock means the real clock.
func NewEngine(cfg *config.Config, source CreatureSource, clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		source:        source,
		clock:         clock,
		mismatchDelay: cfg.MismatchDelay(),
		tickInterval:  cfg.TickInterval(),
		byID:          make(map[string]int),
		subs:          make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function unregisters it.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return func() {}
	}
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// StartRound discards any current round and deals a new one at difficulty d.
// The engine is in Loading while creatures are drawn. If another round is
// started or the engine is closed before the draw finishes, the drawn deck
// is dropped and ErrRoundSuperseded (or ErrEngineClosed) is returned. If the
// source yields no creatures the engine stays in Loading and ErrNoCreatures
// is returned.
func (e *Engine) StartRound(ctx context.Context, d Difficulty) error {
	pairs := d.Pairs()
	if pairs == 0 {
		return matcherrors.ErrUnknownDifficulty
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return matcherrors.ErrEngineClosed
	}
	e.cancelTimersLocked()
	e.roundGen++
	gen := e.roundGen
	e.difficulty = d
	e.phase = Loading
	e.deck = nil
	e.byID = make(map[string]int)
	e.selected = nil
	e.matched = nil
	e.moves = 0
	e.elapsed = 0
	e.commitLocked()

	creatures := e.source.Draw(ctx, pairs)
	if len(creatures) < pairs {
		slog.Warn("short deal", "tag", "game", "difficulty", string(d), "want", pairs, "got", len(creatures))
	}
	deck := NewDeck(creatures)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return matcherrors.ErrEngineClosed
	}
	if e.roundGen != gen {
		e.mu.Unlock()
		return matcherrors.ErrRoundSuperseded
	}
	if len(deck) == 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: difficulty %s", matcherrors.ErrNoCreatures, d)
	}
	e.deck = deck
	for i, c := range deck {
		e.byID[c.UniqueID] = i
	}
	e.phase = Playing
	e.startTickerLocked()
	e.commitLocked()

	slog.Debug("round dealt", "tag", "game", "difficulty", string(d), "cards", len(deck))
	return nil
}

// ResetRound starts a new round at the current difficulty, or Easy if no
// round has been started.
func (e *Engine) ResetRound(ctx context.Context) error {
	e.mu.Lock()
	d := e.difficulty
	e.mu.Unlock()
	if d == "" {
		d = Easy
	}
	return e.StartRound(ctx, d)
}

// CancelPendingTimers stops the mismatch timer and the round clock without
// otherwise changing state. A pending mismatch stays face-up.
func (e *Engine) CancelPendingTimers() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTimersLocked()
}

// Close cancels timers, supersedes any in-flight deal and drops all
// subscribers. Close is idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.cancelTimersLocked()
	e.roundGen++
	clear(e.subs)
}

// commitLocked bumps the version, snapshots state and unlocks mu before
// notifying subscribers.
func (e *Engine) commitLocked() {
	e.version++
	snap := e.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Version:        e.version,
		Difficulty:     e.difficulty,
		Phase:          e.phase,
		Deck:           slices.Clone(e.deck),
		Selected:       slices.Clone(e.selected),
		Matched:        slices.Clone(e.matched),
		Moves:          e.moves,
		ElapsedSeconds: e.elapsed,
	}
}

func (e *Engine) cancelTimersLocked() {
	if e.mismatchTimer != nil {
		e.mismatchTimer.Stop()
		e.mismatchTimer = nil
	}
	e.stopTickerLocked()
	e.timerGen++
}

func (e *Engine) startTickerLocked() {
	if e.tickInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	e.tickerStop = stop
	ticker := e.clock.NewTicker(e.tickInterval)
	token := e.timerGen

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				e.tick(token)
			case <-stop:
				return
			}
		}
	}()
}

func (e *Engine) stopTickerLocked() {
	if e.tickerStop != nil {
		close(e.tickerStop)
		e.tickerStop = nil
	}
}
