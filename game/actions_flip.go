package game

import "slices"

// SelectCard turns the card with uniqueID face-up. It reports whether the
// selection was accepted; a rejected selection leaves state untouched.
//
// A selection is rejected when no round is playing, two cards are already
// face-up, or the card is unknown, already selected or already matched.
// The second selection counts a move and resolves the pair: a match is
// recorded immediately, a mismatch stays face-up until the mismatch delay
// elapses.
func (e *Engine) SelectCard(uniqueID string) bool {
	e.mu.Lock()
	if !e.canSelectLocked(uniqueID) {
		e.mu.Unlock()
		return false
	}

	e.selected = append(e.selected, uniqueID)
	if len(e.selected) == 2 {
		e.moves++
		first := e.deck[e.byID[e.selected[0]]]
		second := e.deck[e.byID[e.selected[1]]]
		if first.PairID == second.PairID {
			e.matched = append(e.matched, e.selected...)
			e.selected = nil
			if len(e.matched) == len(e.deck) {
				e.phase = Won
				e.stopTickerLocked()
			}
		} else {
			e.scheduleMismatchLocked()
		}
	}

	e.commitLocked()
	return true
}

// Tick advances the round clock by one second while a round is playing.
// It reports whether the clock advanced.
func (e *Engine) Tick() bool {
	e.mu.Lock()
	return e.tickLocked()
}

func (e *Engine) canSelectLocked(uniqueID string) bool {
	if e.phase != Playing || len(e.selected) >= 2 {
		return false
	}
	if _, ok := e.byID[uniqueID]; !ok {
		return false
	}
	return !slices.Contains(e.selected, uniqueID) && !slices.Contains(e.matched, uniqueID)
}

func (e *Engine) scheduleMismatchLocked() {
	token := e.timerGen
	e.mismatchTimer = e.clock.AfterFunc(e.mismatchDelay, func() {
		e.resolveMismatch(token)
	})
}

// resolveMismatch turns a mismatched pair face-down. Callbacks from a
// cancelled timer carry a stale token and are ignored.
func (e *Engine) resolveMismatch(token uint64) {
	e.mu.Lock()
	if token != e.timerGen || len(e.selected) != 2 {
		e.mu.Unlock()
		return
	}
	e.selected = nil
	e.mismatchTimer = nil
	e.commitLocked()
}

// tick is Tick for the engine's own ticker goroutine.
func (e *Engine) tick(token uint64) {
	e.mu.Lock()
	if token != e.timerGen {
		e.mu.Unlock()
		return
	}
	e.tickLocked()
}

// tickLocked must be called with mu held; it always releases it.
func (e *Engine) tickLocked() bool {
	if e.phase != Playing {
		e.mu.Unlock()
		return false
	}
	e.elapsed++
	e.commitLocked()
	return true
}
