// Package score holds the persisted score record, the leaderboard ordering,
// profile aggregation and the view-models built from them. Everything here
// is pure; persistence lives in package storage.
package score

import (
	"cmp"
	"encoding/json"
	"slices"
)

// RecordID is an opaque record identifier. Older data stored numeric ids, so
// both JSON numbers and strings are accepted.
type RecordID string

// UnmarshalJSON accepts a JSON string or number.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = RecordID(n.String())
	return nil
}

// Record is one completed round.
type Record struct {
	ID         RecordID `json:"id"`
	PlayerName string   `json:"playerName"`
	Time       int      `json:"time"` // elapsed seconds
	Moves      int      `json:"moves"`
	Difficulty string   `json:"difficulty"`
	Date       string   `json:"date"` // YYYY-MM-DD
}

// Compare orders records by time, then moves, both ascending.
func Compare(a, b Record) int {
	if c := cmp.Compare(a.Time, b.Time); c != 0 {
		return c
	}
	return cmp.Compare(a.Moves, b.Moves)
}

// Sort orders records in place for the leaderboard. The sort is stable so
// equal records keep their insertion order.
func Sort(records []Record) {
	slices.SortStableFunc(records, Compare)
}

// Samples returns the records seeded into an empty or unreadable leaderboard.
func Samples() []Record {
	return []Record{
		{ID: "1", PlayerName: "Ash Ketchum", Time: 45, Moves: 12, Difficulty: "easy", Date: "2024-01-15"},
		{ID: "2", PlayerName: "Misty", Time: 52, Moves: 14, Difficulty: "easy", Date: "2024-01-14"},
		{ID: "3", PlayerName: "Brock", Time: 38, Moves: 10, Difficulty: "medium", Date: "2024-01-13"},
		{ID: "4", PlayerName: "Gary Oak", Time: 67, Moves: 18, Difficulty: "medium", Date: "2024-01-12"},
		{ID: "5", PlayerName: "Professor Oak", Time: 29, Moves: 8, Difficulty: "hard", Date: "2024-01-11"},
		{ID: "6", PlayerName: "Team Rocket", Time: 89, Moves: 22, Difficulty: "hard", Date: "2024-01-10"},
		{ID: "7", PlayerName: "Pikachu", Time: 41, Moves: 11, Difficulty: "easy", Date: "2024-01-09"},
		{ID: "8", PlayerName: "Charizard", Time: 55, Moves: 15, Difficulty: "medium", Date: "2024-01-08"},
	}
}
