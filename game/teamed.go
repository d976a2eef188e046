package game

import (
	"fmt"
	"math/rand"
	"sort"

	"cardtable-lite/card"
	"cardtable-lite/rules"
)

func (s *State) startTeamedDeal(rng *rand.Rand) ([]Event, error) {
	if s.Status != StatusTeamsCreated {
		return nil, errorf(KindInvalidPhase, "cards are dealt once teams are formed (%s)", s.Status)
	}
	hands, dealt, err := s.dealHands(rng, s.PlayerOrder)
	if err != nil {
		return nil, err
	}
	for id, h := range hands {
		s.Hands[id] = h
	}
	groups := s.Groups()
	s.Books = make(map[string]*BookState, len(groups))
	for _, g := range groups {
		s.Books[g.ID] = &BookState{Group: g}
	}
	s.Status = StatusInProgress
	s.CurrentTurn = s.PlayerOrder[0]

	events := []Event{newEvent(EventDealCreated, map[string]any{
		"deal":         0,
		"groups":       len(groups),
		"player_order": stringsToAny(s.PlayerOrder),
	})}
	return append(events, dealt...), nil
}

func (s *State) teamedTurn(player string) error {
	if !s.Ruleset().Teamed {
		return errorf(KindIllegalMove, "%s has no asking or declaring", s.Variant)
	}
	if s.Status != StatusInProgress {
		return errorf(KindInvalidPhase, "game is %s", s.Status)
	}
	if player != s.CurrentTurn {
		return errorf(KindOutOfTurn, "it is %s's turn", s.CurrentTurn)
	}
	return nil
}

// openBook returns the undeclared group holding c.
func (s *State) openBook(c card.Card) (*BookState, error) {
	for _, b := range s.Books {
		if b.Group.Contains(c) {
			if b.Declared {
				return nil, errorf(KindIllegalMove, "%s is already declared", b.Group.ID)
			}
			return b, nil
		}
	}
	return nil, errorf(KindIllegalMove, "%s is not in play", c.ID())
}

// ask moves c from target to player when target holds it. A hit keeps the
// turn, a miss passes it to target.
func (s *State) ask(player, target string, c card.Card) ([]Event, error) {
	if err := s.teamedTurn(player); err != nil {
		return nil, err
	}
	if _, ok := s.Players[target]; !ok {
		return nil, errorf(KindNotFound, "player %s is not in game", target)
	}
	if target == player || s.SameTeam(player, target) {
		return nil, errorf(KindIllegalMove, "%s can only ask an opponent", player)
	}
	if s.CardCount(target) == 0 {
		return nil, errorf(KindIllegalMove, "%s has no cards", target)
	}
	if !c.Valid() {
		return nil, errorf(KindIllegalMove, "invalid card")
	}
	book, err := s.openBook(c)
	if err != nil {
		return nil, err
	}
	hand := s.Hands[player]
	if hand.Contains(c) {
		return nil, errorf(KindIllegalMove, "%s already holds %s", player, c.ID())
	}
	if !holdsAnyOf(hand, book.Group) {
		return nil, errorf(KindIllegalMove, "%s must hold a card of %s to ask for it", player, book.Group.ID)
	}

	rest, success := s.Hands[target].Remove(c)
	if success {
		s.Hands[target] = rest
		s.Hands[player] = append(hand.Clone(), c)
		s.Hands[player].Sort()
	} else {
		s.CurrentTurn = target
	}
	verb := "misses"
	if success {
		verb = "takes"
	}
	s.appendMove(Move{
		Kind:        MoveAsk,
		Player:      player,
		Target:      target,
		Card:        c,
		Group:       book.Group.ID,
		Success:     success,
		Description: fmt.Sprintf("%s asks %s for %s and %s", s.Players[player].Name, s.Players[target].Name, c.ID(), verb),
	})
	return []Event{newEvent(EventCardAsked, map[string]any{
		"player":  player,
		"target":  target,
		"card":    c.ID(),
		"success": success,
	})}, nil
}

func holdsAnyOf(hand card.List, g rules.Group) bool {
	for _, c := range hand {
		if g.Contains(c) {
			return true
		}
	}
	return false
}

// declare settles a group. A correct claim scores for the declarer's team,
// a wrong one for the opponents; either way the group leaves play.
func (s *State) declare(player, groupID string, claim rules.Claim) ([]Event, error) {
	if err := s.teamedTurn(player); err != nil {
		return nil, err
	}
	book, ok := s.Books[groupID]
	if !ok {
		return nil, errorf(KindNotFound, "no group %s", groupID)
	}
	if book.Declared {
		return nil, errorf(KindIllegalMove, "%s is already declared", groupID)
	}
	if err := rules.LegalDeclaration(claim, book.Group, player, s.TeamOf()); err != nil {
		return nil, errorf(KindIllegalMove, "%v", err)
	}

	actual := make(map[string]any, len(book.Group.Cards))
	correct := true
	for _, c := range book.Group.Cards {
		holder := s.Holder(c)
		actual[c.ID()] = holder
		if holder != claim[c] {
			correct = false
		}
		if holder != "" {
			s.Hands[holder], _ = s.Hands[holder].Remove(c)
		}
	}

	team := s.Players[player].TeamID
	winner := team
	if !correct {
		winner = s.opponentTeam(team)
	}
	book.Declared = true
	book.DeclaredBy = player
	book.Correct = correct
	book.WinningTeam = winner
	s.Teams[winner].Score++

	claimed := make(rules.Claim, len(claim))
	claimPayload := make(map[string]any, len(claim))
	for c, owner := range claim {
		claimed[c] = owner
		claimPayload[c.ID()] = owner
	}
	s.appendMove(Move{
		Kind:        MoveDeclare,
		Player:      player,
		Group:       groupID,
		Claim:       claimed,
		Success:     correct,
		Description: fmt.Sprintf("%s declares %s: %s", s.Players[player].Name, groupID, outcome(correct)),
	})
	events := []Event{newEvent(EventKind(s.Ruleset().ClaimEvent), map[string]any{
		"player":       player,
		"group":        groupID,
		"correct":      correct,
		"winning_team": winner,
		"claim":        claimPayload,
		"actual":       actual,
	})}

	if s.allDeclared() {
		return append(events, s.complete()), nil
	}
	s.CurrentTurn = s.turnAfterDeclaration(player, correct)
	return events, nil
}

func outcome(correct bool) string {
	if correct {
		return "correct"
	}
	return "wrong"
}

func (s *State) opponentTeam(team string) string {
	for id := range s.Teams {
		if id != team {
			return id
		}
	}
	return ""
}

func (s *State) allDeclared() bool {
	for _, b := range s.Books {
		if !b.Declared {
			return false
		}
	}
	return true
}

// turnAfterDeclaration: a correct declarer keeps the turn while holding
// cards, else a teammate with cards takes it, else an opponent. A wrong
// declaration passes to the next opponent with cards.
func (s *State) turnAfterDeclaration(player string, correct bool) string {
	hasCards := func(id string) bool { return s.CardCount(id) > 0 }
	teammate := func(id string) bool { return id != player && s.SameTeam(id, player) && hasCards(id) }
	opponent := func(id string) bool { return !s.SameTeam(id, player) && hasCards(id) }

	if correct {
		if hasCards(player) {
			return player
		}
		if next := s.nextAfter(player, teammate); next != "" {
			return next
		}
		return s.nextAfter(player, opponent)
	}
	if next := s.nextAfter(player, opponent); next != "" {
		return next
	}
	return s.nextAfter(player, hasCards)
}

// transferTurn hands the turn to a teammate right after the player's own
// correct declaration.
func (s *State) transferTurn(player, target string) ([]Event, error) {
	if err := s.teamedTurn(player); err != nil {
		return nil, err
	}
	if _, ok := s.Players[target]; !ok {
		return nil, errorf(KindNotFound, "player %s is not in game", target)
	}
	if len(s.Moves) == 0 {
		return nil, errorf(KindIllegalMove, "turn can only be passed after a correct declaration")
	}
	last := s.Moves[len(s.Moves)-1]
	if last.Kind != MoveDeclare || last.Player != player || !last.Success {
		return nil, errorf(KindIllegalMove, "turn can only be passed after a correct declaration")
	}
	if target == player || !s.SameTeam(player, target) {
		return nil, errorf(KindIllegalMove, "%s is not a teammate", target)
	}
	if s.CardCount(target) == 0 {
		return nil, errorf(KindIllegalMove, "%s has no cards", target)
	}
	s.CurrentTurn = target
	s.appendMove(Move{
		Kind:        MoveTransfer,
		Player:      player,
		Target:      target,
		Success:     true,
		Description: fmt.Sprintf("%s passes the turn to %s", s.Players[player].Name, s.Players[target].Name),
	})
	return nil, nil
}

// OpenGroups lists the undeclared groups in catalogue order.
func (s *State) OpenGroups() []rules.Group {
	var out []rules.Group
	for _, g := range s.Groups() {
		if b := s.Books[g.ID]; b != nil && !b.Declared {
			out = append(out, g)
		}
	}
	return out
}

// Opponents of player, in seat order.
func (s *State) Opponents(player string) []string {
	var out []string
	for _, id := range s.PlayerOrder {
		if id != player && !s.SameTeam(id, player) {
			out = append(out, id)
		}
	}
	return out
}

// Teammates of player excluding player, in seat order.
func (s *State) Teammates(player string) []string {
	var out []string
	for _, id := range s.PlayerOrder {
		if id != player && s.SameTeam(id, player) {
			out = append(out, id)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
