package bot

import (
	"fmt"
	"math/rand"

	"cardtable-lite/game"
	"cardtable-lite/inference"
	"cardtable-lite/rules"
)

// Advisor proposes one legal command per turn. Ties are broken with its own
// seeded random source, so a fixed seed replays the same game.
type Advisor struct {
	rng *rand.Rand
}

func NewAdvisor(seed int64) *Advisor {
	return &Advisor{rng: rand.New(rand.NewSource(seed))}
}

func (a *Advisor) Name() string { return "advisor" }

// Decide implements Decider.
func (a *Advisor) Decide(s *game.State, seat string, view *inference.View) (game.Command, error) {
	if s == nil || s.Status != game.StatusInProgress || s.CurrentTurn != seat {
		return nil, ErrNoMove
	}
	if s.Variant == rules.Judgement {
		return a.decideJudgement(s, seat)
	}
	if view == nil {
		view = inference.FromState(s, seat)
	}
	return a.decideTeamed(s, seat, view)
}

// pick returns one element of xs uniformly.
func pick[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.Intn(len(xs))]
}

func noMove(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNoMove}, args...)...)
}
