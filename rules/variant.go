package rules

import (
	"fmt"

	"cardtable-lite/card"
)

type Variant string

const (
	Judgement  Variant = "judgement"
	Literature Variant = "literature"
	Fish       Variant = "fish"
)

// Ruleset holds the fixed, per-variant parameters of a game.
type Ruleset struct {
	Variant Variant
	// Teamed variants split seats into two equal teams and play by asking.
	Teamed     bool
	MinSeats   int
	MaxSeats   int
	GroupSize  int
	ClaimEvent string
}

var rulesets = map[Variant]Ruleset{
	Judgement:  {Variant: Judgement, MinSeats: 2, MaxSeats: 8},
	Literature: {Variant: Literature, Teamed: true, MinSeats: 4, MaxSeats: 8, GroupSize: 6, ClaimEvent: "SET_DECLARED"},
	Fish:       {Variant: Fish, Teamed: true, MinSeats: 4, MaxSeats: 8, GroupSize: 4, ClaimEvent: "BOOK_DECLARED"},
}

func For(v Variant) (Ruleset, error) {
	rs, ok := rulesets[v]
	if !ok {
		return Ruleset{}, fmt.Errorf("unknown variant %q", v)
	}
	return rs, nil
}

// CheckSeats validates a seat count for the variant, including deck
// divisibility and even teams.
func (r Ruleset) CheckSeats(seats int) error {
	if seats < r.MinSeats || seats > r.MaxSeats {
		return fmt.Errorf("%s needs %d-%d seats, got %d", r.Variant, r.MinSeats, r.MaxSeats, seats)
	}
	if r.Teamed && seats%2 != 0 {
		return fmt.Errorf("%s needs an even seat count, got %d", r.Variant, seats)
	}
	if _, err := r.WithoutSevens(seats); err != nil {
		return err
	}
	return nil
}

// WithoutSevens reports which deck the variant deals at this seat count.
func (r Ruleset) WithoutSevens(seats int) (bool, error) {
	if r.Variant == Literature {
		if card.NoSevenDeckSize%seats != 0 {
			return false, fmt.Errorf("48 cards do not split across %d seats", seats)
		}
		return true, nil
	}
	noSevens, ok := card.DeckFor(seats)
	if !ok {
		return false, fmt.Errorf("no deck splits evenly across %d seats", seats)
	}
	return noSevens, nil
}

// Groups is the claimable group catalogue; empty for trick-taking.
func (r Ruleset) Groups(withoutSevens bool) []Group {
	switch r.Variant {
	case Literature:
		return LiteratureGroups()
	case Fish:
		return FishGroups(withoutSevens)
	}
	return nil
}

// Tricks is the trick count per deal.
func (r Ruleset) Tricks(seats int) int {
	noSevens, err := r.WithoutSevens(seats)
	if err != nil || seats == 0 {
		return 0
	}
	if noSevens {
		return card.NoSevenDeckSize / seats
	}
	return card.FullDeckSize / seats
}
