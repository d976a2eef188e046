package game

import (
	"fmt"
	"math/rand"

	"cardtable-lite/card"
	"cardtable-lite/rules"
)

// startJudgementDeal opens deal k: trump rotates through card.Suits and the
// seat order is rotated by k.
func (s *State) startJudgementDeal(rng *rand.Rand) ([]Event, error) {
	switch s.Status {
	case StatusPlayersReady:
	case StatusInProgress:
		if d := s.CurrentDeal(); d != nil && !d.Complete() {
			return nil, errorf(KindInvalidPhase, "deal %d is still in progress", d.Index)
		}
	default:
		return nil, errorf(KindInvalidPhase, "cannot start a deal in %s", s.Status)
	}
	if len(s.Deals) >= s.Config.Deals {
		return nil, errorf(KindInvalidPhase, "all %d deals are played", s.Config.Deals)
	}

	k := len(s.Deals)
	order := rotate(s.PlayerOrder, k%len(s.PlayerOrder))
	hands, dealt, err := s.dealHands(rng, order)
	if err != nil {
		return nil, err
	}
	deal := &Deal{
		Index:         k,
		Status:        DealCreated,
		PlayerOrder:   order,
		Trump:         card.Suits[k%len(card.Suits)],
		Tricks:        s.Ruleset().Tricks(len(order)),
		StartingHands: cloneHands(hands),
		Declared:      make(map[string]int, len(order)),
		Won:           make(map[string]int, len(order)),
	}
	for _, id := range order {
		s.Hands[id] = hands[id]
		deal.Won[id] = 0
	}
	s.Deals = append(s.Deals, deal)
	if s.Scores == nil {
		s.Scores = make(map[string]int, len(order))
	}
	s.Status = StatusInProgress
	s.CurrentTurn = order[0]

	events := []Event{newEvent(EventDealCreated, map[string]any{
		"deal":         k,
		"trump":        deal.Trump.Letter(),
		"tricks":       deal.Tricks,
		"player_order": stringsToAny(order),
	})}
	return append(events, dealt...), nil
}

func (s *State) activeDeal(want DealStatus) (*Deal, error) {
	if s.Variant != rules.Judgement {
		return nil, errorf(KindIllegalMove, "%s has no trick play", s.Variant)
	}
	if s.Status != StatusInProgress {
		return nil, errorf(KindInvalidPhase, "game is %s", s.Status)
	}
	d := s.CurrentDeal()
	if d == nil || d.Status != want {
		return nil, errorf(KindInvalidPhase, "deal is not in %s", want)
	}
	return d, nil
}

func (s *State) declareExpectedWins(player string, wins int) ([]Event, error) {
	d, err := s.activeDeal(DealCreated)
	if err != nil {
		return nil, err
	}
	if player != s.CurrentTurn {
		return nil, errorf(KindOutOfTurn, "%s declares after %s", player, s.CurrentTurn)
	}
	if wins < 0 || wins > d.Tricks {
		return nil, errorf(KindIllegalMove, "expected wins must be within 0..%d", d.Tricks)
	}
	d.Declared[player] = wins
	s.appendMove(Move{
		Kind:        MoveDeclareWins,
		Player:      player,
		Wins:        wins,
		Success:     true,
		Description: fmt.Sprintf("%s expects to win %d", s.Players[player].Name, wins),
	})
	events := []Event{newEvent(EventDealWinDeclared, map[string]any{
		"deal":   d.Index,
		"player": player,
		"wins":   wins,
	})}

	if len(d.Declared) < len(d.PlayerOrder) {
		s.CurrentTurn = d.PlayerOrder[len(d.Declared)]
		return events, nil
	}
	d.Status = DealDeclarationsIn
	return append(events, s.openRound(d, d.PlayerOrder[0])), nil
}

// openRound starts the next trick led by leader.
func (s *State) openRound(d *Deal, leader string) Event {
	idx := 0
	for i, id := range d.PlayerOrder {
		if id == leader {
			idx = i
			break
		}
	}
	r := &Round{
		Index:       len(d.Rounds),
		PlayerOrder: rotate(d.PlayerOrder, idx),
		Cards:       make(map[string]card.Card, len(d.PlayerOrder)),
	}
	d.Rounds = append(d.Rounds, r)
	d.Status = DealRoundInProgress
	s.CurrentTurn = leader
	return newEvent(EventRoundCreated, map[string]any{
		"deal":         d.Index,
		"round":        r.Index,
		"player_order": stringsToAny(r.PlayerOrder),
	})
}

func (s *State) playCard(player string, c card.Card) ([]Event, error) {
	d, err := s.activeDeal(DealRoundInProgress)
	if err != nil {
		return nil, err
	}
	if player != s.CurrentTurn {
		return nil, errorf(KindOutOfTurn, "%s plays after %s", player, s.CurrentTurn)
	}
	r := d.CurrentRound()
	hand := s.Hands[player]
	if !hand.Contains(c) {
		return nil, errorf(KindIllegalMove, "%s does not hold %s", player, c.ID())
	}
	best := r.Best(d.Trump)
	if !rules.CanPlay(c, hand, d.Trump, best, r.LedSuit) {
		return nil, errorf(KindIllegalMove, "%s cannot be played onto %s", c.ID(), best.ID())
	}

	s.Hands[player], _ = hand.Remove(c)
	if len(r.Cards) == 0 {
		r.LedSuit = c.Suit()
	}
	r.Cards[player] = c
	s.appendMove(Move{
		Kind:        MovePlayCard,
		Player:      player,
		Card:        c,
		Success:     true,
		Description: fmt.Sprintf("%s plays %s", s.Players[player].Name, c.ID()),
	})
	events := []Event{newEvent(EventCardPlayed, map[string]any{
		"deal":   d.Index,
		"round":  r.Index,
		"player": player,
		"card":   c.ID(),
	})}

	if !r.Complete() {
		s.CurrentTurn = r.PlayerOrder[len(r.Cards)]
		return events, nil
	}

	played := r.played()
	r.Winner = r.PlayerOrder[card.Winner(played, d.Trump)]
	d.Won[r.Winner]++
	d.Status = DealRoundComplete
	events = append(events, newEvent(EventRoundCompleted, map[string]any{
		"deal":   d.Index,
		"round":  r.Index,
		"winner": r.Winner,
	}))

	if len(d.Rounds) < d.Tricks {
		return append(events, s.openRound(d, r.Winner)), nil
	}
	return append(events, s.completeDeal(d)...), nil
}

func (s *State) completeDeal(d *Deal) []Event {
	d.Status = DealComplete
	d.Scores = make(map[string]int, len(d.PlayerOrder))
	scores := make(map[string]any, len(d.PlayerOrder))
	for _, id := range d.PlayerOrder {
		score := rules.Score(d.Declared[id], d.Won[id])
		d.Scores[id] = score
		s.Scores[id] += score
		scores[id] = score
	}
	s.CurrentTurn = ""
	events := []Event{newEvent(EventDealCompleted, map[string]any{
		"deal":   d.Index,
		"scores": scores,
	})}
	if len(s.Deals) >= s.Config.Deals {
		events = append(events, s.complete())
	}
	return events
}

// complete marks the game finished and reports the final standings.
func (s *State) complete() Event {
	s.Status = StatusCompleted
	s.CurrentTurn = ""
	totals := make(map[string]any)
	if s.Ruleset().Teamed {
		for id, t := range s.Teams {
			totals[id] = t.Score
		}
	} else {
		for id, v := range s.Scores {
			totals[id] = v
		}
	}
	return newEvent(EventGameCompleted, map[string]any{
		"scores":  totals,
		"winners": stringsToAny(s.Winners()),
	})
}

// Winners lists the top scoring players (judgement) or teams. Ties list
// every leader.
func (s *State) Winners() []string {
	totals := make(map[string]int)
	var order []string
	if s.Ruleset().Teamed {
		for _, id := range []string{"team-1", "team-2"} {
			if t := s.Teams[id]; t != nil {
				totals[id] = t.Score
				order = append(order, id)
			}
		}
	} else {
		for _, id := range s.PlayerOrder {
			totals[id] = s.Scores[id]
			order = append(order, id)
		}
	}
	var winners []string
	best := 0
	for i, id := range order {
		switch {
		case i == 0 || totals[id] > best:
			best = totals[id]
			winners = []string{id}
		case totals[id] == best:
			winners = append(winners, id)
		}
	}
	return winners
}
