package score

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatTime renders seconds as m:ss.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatOptionalTime renders a possibly missing time, using "N/A" when nil.
func FormatOptionalTime(seconds *int) string {
	if seconds == nil {
		return "N/A"
	}
	return FormatTime(*seconds)
}

// Medal returns the leaderboard badge for a zero-based rank.
func Medal(index int) string {
	switch index {
	case 0:
		return "🥇"
	case 1:
		return "🥈"
	case 2:
		return "🥉"
	default:
		return fmt.Sprintf("#%d", index+1)
	}
}

// DifficultyLabel capitalises a difficulty name for display. A Caser holds
// state, so each call builds its own.
func DifficultyLabel(difficulty string) string {
	return cases.Title(language.English).String(difficulty)
}
