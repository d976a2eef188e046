package bot

import (
	"cardtable-lite/card"
	"cardtable-lite/game"
	"cardtable-lite/inference"
	"cardtable-lite/rules"
)

// decideTeamed prefers, in order: passing the turn to a teammate who can
// claim more, declaring the heaviest declarable group, asking the likeliest
// opponent for a missing card, and a best-guess declaration.
func (a *Advisor) decideTeamed(s *game.State, seat string, view *inference.View) (game.Command, error) {
	if cmd, ok := a.transfer(s, seat, view); ok {
		return cmd, nil
	}
	if cmd, ok := a.declareKnown(seat, view); ok {
		return cmd, nil
	}
	if cmd, ok := a.ask(s, seat, view); ok {
		return cmd, nil
	}
	return a.guess(s, seat, view)
}

// transfer is only legal straight after the bot's own correct declaration.
func (a *Advisor) transfer(s *game.State, seat string, view *inference.View) (game.Command, bool) {
	if len(s.Moves) == 0 {
		return nil, false
	}
	last := s.Moves[len(s.Moves)-1]
	if last.Kind != game.MoveDeclare || last.Player != seat || !last.Success {
		return nil, false
	}
	own := 0
	for _, g := range s.OpenGroups() {
		if n := countHeld(view, g, seat); n > own {
			own = n
		}
	}
	best := own
	var mates []string
	for _, mate := range s.Teammates(seat) {
		if s.CardCount(mate) == 0 {
			continue
		}
		for _, g := range s.OpenGroups() {
			n := countHeld(view, g, mate)
			switch {
			case n > best:
				best = n
				mates = []string{mate}
			case n == best && n > own && !contains(mates, mate):
				mates = append(mates, mate)
			}
		}
	}
	if len(mates) == 0 {
		return nil, false
	}
	return game.TransferTurn{Player: seat, Target: pick(a.rng, mates)}, true
}

// countHeld is how many cards of g are Known or Inferred to be with player.
func countHeld(view *inference.View, g rules.Group, player string) int {
	n := 0
	for _, c := range g.Cards {
		if owner, ok := view.Owner(c); ok && owner == player {
			n++
		}
	}
	return n
}

func (a *Advisor) declareKnown(seat string, view *inference.View) (game.Command, bool) {
	var top []inference.GroupWeight
	for _, gw := range view.WeightedGroups() {
		if !gw.Declarable {
			continue
		}
		if len(top) > 0 && gw.Weight < top[0].Weight {
			break
		}
		top = append(top, gw)
	}
	for len(top) > 0 {
		i := a.rng.Intn(len(top))
		gw := top[i]
		top = append(top[:i], top[i+1:]...)
		claim, ok := view.Claim(gw.Group)
		if !ok || !includes(claim, seat) {
			continue
		}
		return game.Declare{Player: seat, Group: gw.Group.ID, Claim: claim}, true
	}
	return nil, false
}

type askOption struct {
	card   card.Card
	target string
}

// ask walks the groups the bot holds from heaviest to lightest and asks the
// opponent most likely to hold one of the missing cards.
func (a *Advisor) ask(s *game.State, seat string, view *inference.View) (game.Command, bool) {
	hand := s.Hands[seat]
	var targets []string
	for _, o := range s.Opponents(seat) {
		if s.CardCount(o) > 0 {
			targets = append(targets, o)
		}
	}
	if len(targets) == 0 {
		return nil, false
	}

	var fallback []askOption
	for _, gw := range view.WeightedGroups() {
		if !holdsAny(hand, gw.Group) {
			continue
		}
		bestWeight := 0
		var best []askOption
		for _, c := range gw.Group.Cards {
			if hand.Contains(c) || !view.InPlay(c) {
				continue
			}
			for _, o := range targets {
				fallback = append(fallback, askOption{card: c, target: o})
				w := view.OwnerWeight(c, o)
				switch {
				case w > bestWeight:
					bestWeight = w
					best = []askOption{{card: c, target: o}}
				case w == bestWeight && w > 0:
					best = append(best, askOption{card: c, target: o})
				}
			}
		}
		if len(best) > 0 {
			opt := pick(a.rng, best)
			return game.Ask{Player: seat, Target: opt.target, Card: opt.card}, true
		}
		// Nothing left to learn from opponents: the team has it all.
		if gw.FullyOwnedByOwnTeam {
			return a.guessGroup(s, seat, view, gw.Group), true
		}
	}
	if len(fallback) == 0 {
		return nil, false
	}
	opt := pick(a.rng, fallback)
	return game.Ask{Player: seat, Target: opt.target, Card: opt.card}, true
}

// guess declares the heaviest group the bot holds a card of, naming for each
// card the teammate most likely to hold it.
func (a *Advisor) guess(s *game.State, seat string, view *inference.View) (game.Command, error) {
	hand := s.Hands[seat]
	for _, gw := range view.WeightedGroups() {
		if holdsAny(hand, gw.Group) {
			return a.guessGroup(s, seat, view, gw.Group), nil
		}
	}
	return nil, noMove("%s holds no open group", seat)
}

func (a *Advisor) guessGroup(s *game.State, seat string, view *inference.View, g rules.Group) game.Command {
	hand := s.Hands[seat]
	team := append([]string{seat}, s.Teammates(seat)...)
	claim := make(rules.Claim, len(g.Cards))
	for _, c := range g.Cards {
		if hand.Contains(c) {
			claim[c] = seat
			continue
		}
		best := 0
		var owners []string
		for _, p := range team {
			w := view.OwnerWeight(c, p)
			switch {
			case w > best:
				best = w
				owners = []string{p}
			case w == best && w > 0:
				owners = append(owners, p)
			}
		}
		if len(owners) == 0 {
			owners = team
		}
		claim[c] = pick(a.rng, owners)
	}
	return game.Declare{Player: seat, Group: g.ID, Claim: claim}
}

func holdsAny(hand card.List, g rules.Group) bool {
	for _, c := range hand {
		if g.Contains(c) {
			return true
		}
	}
	return false
}

func includes(claim rules.Claim, player string) bool {
	for _, p := range claim {
		if p == player {
			return true
		}
	}
	return false
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
