package creature

import (
	"context"
	"log/slog"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves a single creature by identifier.
type Fetcher interface {
	Fetch(ctx context.Context, id int) (Creature, error)
}

// Pool draws random creatures from a Fetcher, falling back to the built-in
// table when any fetch of a batch fails.
type Pool struct {
	fetcher Fetcher
	maxID   int
}

// NewPool creates a Pool drawing identifiers from [1, maxID].
// A nil fetcher makes every draw use the built-in table.
func NewPool(fetcher Fetcher, maxID int) *Pool {
	if maxID < 1 {
		maxID = 1
	}
	return &Pool{fetcher: fetcher, maxID: maxID}
}

// Draw returns n creatures with distinct identifiers. The fetches of one
// batch run concurrently; the first failure cancels the rest and the whole
// batch is replaced by Fallback(n), which may hold fewer than n creatures.
func (p *Pool) Draw(ctx context.Context, n int) []Creature {
	if n <= 0 {
		return nil
	}
	if p.fetcher == nil {
		return Fallback(n)
	}

	ids := p.drawIDs(n)
	out := make([]Creature, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			c, err := p.fetcher.Fetch(gctx, id)
			if err != nil {
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("creature fetch failed, using fallback", "tag", "creature", "requested", n, "err", err)
		return Fallback(n)
	}
	if dup, ok := firstDuplicate(out); ok {
		slog.Warn("creature source returned duplicate ids, using fallback", "tag", "creature", "id", dup)
		return Fallback(n)
	}
	if len(out) < n {
		slog.Warn("creature id range smaller than request", "tag", "creature", "requested", n, "max_id", p.maxID)
	}
	return out
}

// drawIDs picks min(n, maxID) distinct identifiers in [1, maxID].
func (p *Pool) drawIDs(n int) []int {
	if n > p.maxID {
		n = p.maxID
	}
	perm := rand.Perm(p.maxID)[:n]
	for i := range perm {
		perm[i]++
	}
	return perm
}

func firstDuplicate(cs []Creature) (int, bool) {
	seen := make(map[int]struct{}, len(cs))
	for _, c := range cs {
		if _, ok := seen[c.ID]; ok {
			return c.ID, true
		}
		seen[c.ID] = struct{}{}
	}
	return 0, false
}
