package rules

import (
	"fmt"

	"cardtable-lite/card"
)

// Group is a fixed set of distinct cards claimed as one unit: a literature
// half-suit or a fish book.
type Group struct {
	ID    string    `json:"id"`
	Cards card.List `json:"cards"`
}

func (g Group) Contains(c card.Card) bool {
	return g.Cards.Contains(c)
}

// LiteratureGroups returns the eight half-suits of the 48 card deck: low is
// A-6 and high is 8-K of each suit.
func LiteratureGroups() []Group {
	groups := make([]Group, 0, 8)
	for _, s := range []card.Suit{card.Spade, card.Heart, card.Club, card.Diamond} {
		low := Group{ID: s.Letter() + "-low"}
		high := Group{ID: s.Letter() + "-high"}
		for r := byte(1); r <= 13; r++ {
			switch {
			case r < 7:
				low.Cards = append(low.Cards, card.New(r, s))
			case r > 7:
				high.Cards = append(high.Cards, card.New(r, s))
			}
		}
		groups = append(groups, low, high)
	}
	return groups
}

// FishGroups returns one book of four per rank.
func FishGroups(withoutSevens bool) []Group {
	groups := make([]Group, 0, 13)
	for r := byte(1); r <= 13; r++ {
		if withoutSevens && r == 7 {
			continue
		}
		g := Group{ID: fmt.Sprintf("book-%s", card.New(r, card.Spade).ID()[:1])}
		for _, s := range []card.Suit{card.Spade, card.Heart, card.Club, card.Diamond} {
			g.Cards = append(g.Cards, card.New(r, s))
		}
		groups = append(groups, g)
	}
	return groups
}

// GroupOf finds the group containing c.
func GroupOf(groups []Group, c card.Card) (Group, bool) {
	for _, g := range groups {
		if g.Contains(c) {
			return g, true
		}
	}
	return Group{}, false
}

// GroupByID finds a group by id.
func GroupByID(groups []Group, id string) (Group, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}
