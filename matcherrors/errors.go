package matcherrors

import "errors"

// Sentinel errors shared by the game, scoreboard, session and transport
// packages. Wrap with %w and test with errors.Is.
var (
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrRoundSuperseded   = errors.New("round superseded by a newer start")
	ErrEngineClosed      = errors.New("round engine closed")
	ErrSessionNotFound   = errors.New("session not found")

	// ErrStorageRead marks persisted data that is present but unreadable.
	ErrStorageRead     = errors.New("stored data is unreadable")
	ErrEmptyPlayerName = errors.New("player name must not be empty")
	ErrInvalidScore    = errors.New("invalid score")

	ErrCreatureFetch = errors.New("creature fetch failed")
	ErrNoCreatures   = errors.New("creature source returned no creatures")
)
