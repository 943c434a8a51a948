package game

import (
	"fmt"
	"math/rand"
	"strings"

	"pokematch-server/creature"
	"pokematch-server/matcherrors"
)

// Difficulty selects how many pairs a round deals.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var difficultyPairs = map[Difficulty]int{
	Easy:   4,
	Medium: 6,
	Hard:   8,
}

// Difficulties lists every difficulty in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// ParseDifficulty accepts a difficulty name case-insensitively. An empty
// string means Easy.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Easy, nil
	}
	d := Difficulty(s)
	if _, ok := difficultyPairs[d]; !ok {
		return "", fmt.Errorf("%w: %q", matcherrors.ErrUnknownDifficulty, s)
	}
	return d, nil
}

// Pairs returns the number of pairs dealt for d, or 0 if d is unknown.
func (d Difficulty) Pairs() int {
	return difficultyPairs[d]
}

// CardState is the client-visible state of a card.
type CardState int

const (
	Hidden CardState = iota
	Revealed
	Matched
)

// String returns the protocol string for a CardState.
func (cs CardState) String() string {
	switch cs {
	case Hidden:
		return "hidden"
	case Revealed:
		return "revealed"
	case Matched:
		return "matched"
	default:
		return "unknown"
	}
}

// Card is one face of a pair. Both cards of a pair share PairID, Name and
// ImageURL and differ only in UniqueID.
type Card struct {
	UniqueID string
	PairID   int
	Name     string
	ImageURL string
}

// NewDeck deals two cards per creature in random order.
func NewDeck(creatures []creature.Creature) []Card {
	deck := make([]Card, 0, len(creatures)*2)
	for _, c := range creatures {
		for copyNo := 1; copyNo <= 2; copyNo++ {
			deck = append(deck, Card{
				UniqueID: fmt.Sprintf("%d-%d", c.ID, copyNo),
				PairID:   c.ID,
				Name:     c.Name,
				ImageURL: c.ImageURL,
			})
		}
	}

	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}
