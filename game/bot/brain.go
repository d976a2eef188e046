package bot

import (
	"errors"

	"cardtable-lite/game"
	"cardtable-lite/inference"
)

// ErrNoMove is returned when the seat has nothing to decide.
var ErrNoMove = errors.New("bot has no move")

// Decider is the interface all bot types implement.
type Decider interface {
	// Decide is called when it's the bot's turn. view is the bot's own
	// ownership view of s and may be nil for trick-taking games.
	Decide(s *game.State, seat string, view *inference.View) (game.Command, error)
	// Name returns a human-readable identifier for debugging.
	Name() string
}
