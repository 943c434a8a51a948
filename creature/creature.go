// Package creature supplies the creature records a round's deck is built from:
// a PokeAPI client, a pool that draws random creatures through it, and the
// built-in table used when the API cannot be reached.
package creature

import "fmt"

const spriteURLFormat = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/%d.png"

// Creature is one creature a pair of cards depicts.
type Creature struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// SpriteURL returns the default front sprite URL for a creature id.
func SpriteURL(id int) string {
	return fmt.Sprintf(spriteURLFormat, id)
}

var fallback = []Creature{
	{ID: 1, Name: "bulbasaur", ImageURL: SpriteURL(1)},
	{ID: 4, Name: "charmander", ImageURL: SpriteURL(4)},
	{ID: 7, Name: "squirtle", ImageURL: SpriteURL(7)},
	{ID: 25, Name: "pikachu", ImageURL: SpriteURL(25)},
	{ID: 39, Name: "jigglypuff", ImageURL: SpriteURL(39)},
	{ID: 143, Name: "snorlax", ImageURL: SpriteURL(143)},
	{ID: 150, Name: "mewtwo", ImageURL: SpriteURL(150)},
	{ID: 151, Name: "mew", ImageURL: SpriteURL(151)},
}

// FallbackSize is the number of built-in creatures.
const FallbackSize = 8

// Fallback returns the first n built-in creatures. Requests beyond the table
// size are capped; the caller gets every built-in creature exactly once.
func Fallback(n int) []Creature {
	if n > len(fallback) {
		n = len(fallback)
	}
	if n < 0 {
		n = 0
	}
	out := make([]Creature, n)
	copy(out, fallback[:n])
	return out
}
