package bot

import (
	"cardtable-lite/card"
	"cardtable-lite/game"
	"cardtable-lite/rules"
)

func (a *Advisor) decideJudgement(s *game.State, seat string) (game.Command, error) {
	d := s.CurrentDeal()
	if d == nil {
		return nil, noMove("no deal")
	}
	switch d.Status {
	case game.DealCreated:
		return game.DeclareExpectedWins{Player: seat, Wins: EstimateWins(s.Hands[seat], d.Trump, d.Tricks)}, nil
	case game.DealRoundInProgress:
		return game.PlayCard{Player: seat, Card: a.chooseCard(s, seat, d)}, nil
	}
	return nil, noMove("deal is %s", d.Status)
}

// EstimateWins counts aces and trumps of jack or higher, capped at tricks.
func EstimateWins(hand card.List, trump card.Suit, tricks int) int {
	n := 0
	for _, c := range hand {
		if c.IsAce() || (c.Suit() == trump && c.Order() >= 11) {
			n++
		}
	}
	if n > tricks {
		return tricks
	}
	return n
}

// chooseCard plays a legal card nobody can beat in its suit when there is
// one, else any legal card.
func (a *Advisor) chooseCard(s *game.State, seat string, d *game.Deal) card.Card {
	hand := s.Hands[seat]
	r := d.CurrentRound()
	best := r.Best(d.Trump)
	legal := rules.LegalPlays(hand, d.Trump, best, r.LedSuit)

	outstanding := unseen(s, hand)
	var winners card.List
	for _, c := range legal {
		if best != card.CardInvalid && !card.Beats(c, best, d.Trump) {
			continue
		}
		if !higherOutstanding(c, outstanding) {
			winners = append(winners, c)
		}
	}
	if len(winners) > 0 {
		return pick(a.rng, winners)
	}
	return pick(a.rng, legal)
}

// unseen is every card of the deal's deck that is neither played nor in hand.
func unseen(s *game.State, hand card.List) card.List {
	played := s.PlayedCards()
	var out card.List
	for _, c := range card.NewDeck(s.WithoutSevens) {
		if !hand.Contains(c) && !played.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

func higherOutstanding(c card.Card, outstanding card.List) bool {
	for _, o := range outstanding {
		if o.Suit() == c.Suit() && o.Order() > c.Order() {
			return true
		}
	}
	return false
}
