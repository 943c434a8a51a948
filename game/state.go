package game

import "pokematch-server/score"

// CardView is the client-facing representation of a card.
// Hidden cards expose only their uniqueId and position.
type CardView struct {
	UniqueID string `json:"uniqueId"`
	State    string `json:"state"`
	PairID   *int   `json:"pairId,omitempty"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// RoundStateMsg is the full round state sent to the owning client.
type RoundStateMsg struct {
	Type            string     `json:"type"`
	Version         uint64     `json:"version"`
	Difficulty      string     `json:"difficulty"`
	DifficultyLabel string     `json:"difficultyLabel"`
	Phase           string     `json:"phase"`
	Cards           []CardView `json:"cards"`
	Moves           int        `json:"moves"`
	ElapsedSeconds  int        `json:"elapsedSeconds"`
	FormattedTime   string     `json:"formattedTime"`
	PairsFound      int        `json:"pairsFound"`
	TotalPairs      int        `json:"totalPairs"`
	Won             bool       `json:"won"`
}

// RoundWonMsg announces a completed round once.
type RoundWonMsg struct {
	Type          string `json:"type"`
	Difficulty    string `json:"difficulty"`
	Time          int    `json:"time"`
	Moves         int    `json:"moves"`
	FormattedTime string `json:"formattedTime"`
}

// CardStateOf classifies the card with uniqueID within s.
func CardStateOf(s Snapshot, uniqueID string) CardState {
	switch {
	case s.IsMatched(uniqueID):
		return Matched
	case s.IsSelected(uniqueID):
		return Revealed
	default:
		return Hidden
	}
}

// BuildCardViews constructs the client-facing card list in deck order.
func BuildCardViews(s Snapshot) []CardView {
	views := make([]CardView, len(s.Deck))
	for i, card := range s.Deck {
		state := CardStateOf(s, card.UniqueID)
		cv := CardView{
			UniqueID: card.UniqueID,
			State:    state.String(),
		}
		if state != Hidden {
			pairID := card.PairID
			cv.PairID = &pairID
			cv.Name = card.Name
			cv.ImageURL = card.ImageURL
		}
		views[i] = cv
	}
	return views
}

// BuildRoundState builds the round_state message for s.
func BuildRoundState(s Snapshot) RoundStateMsg {
	return RoundStateMsg{
		Type:            "round_state",
		Version:         s.Version,
		Difficulty:      string(s.Difficulty),
		DifficultyLabel: score.DifficultyLabel(string(s.Difficulty)),
		Phase:           s.Phase.String(),
		Cards:           BuildCardViews(s),
		Moves:           s.Moves,
		ElapsedSeconds:  s.ElapsedSeconds,
		FormattedTime:   score.FormatTime(s.ElapsedSeconds),
		PairsFound:      len(s.Matched) / 2,
		TotalPairs:      len(s.Deck) / 2,
		Won:             s.Won(),
	}
}

// BuildRoundWon builds the round_won message for a won snapshot.
func BuildRoundWon(s Snapshot) RoundWonMsg {
	return RoundWonMsg{
		Type:          "round_won",
		Difficulty:    string(s.Difficulty),
		Time:          s.ElapsedSeconds,
		Moves:         s.Moves,
		FormattedTime: score.FormatTime(s.ElapsedSeconds),
	}
}
