package game

import (
	"fmt"
	"math/rand"
	"strings"

	"cardtable-lite/card"

	"github.com/google/uuid"
)

func (s *State) addPlayer(id, name string, bot bool) ([]Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errorf(KindIllegalMove, "player id is required")
	}
	if s.Status != StatusCreated {
		return nil, errorf(KindInvalidPhase, "game %s is not accepting players (%s)", s.ID, s.Status)
	}
	if _, exists := s.Players[id]; exists {
		return nil, errorf(KindIllegalMove, "player %s already joined", id)
	}
	if len(s.PlayerOrder) >= s.Config.Seats {
		return nil, errorf(KindCapacityExceeded, "game %s is full (%d seats)", s.ID, s.Config.Seats)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = id
	}
	s.Players[id] = &Player{ID: id, Name: name, IsBot: bot}
	s.PlayerOrder = append(s.PlayerOrder, id)
	s.Hands[id] = nil

	events := []Event{newEvent(EventPlayerJoined, map[string]any{
		"player": id,
		"name":   name,
		"is_bot": bot,
		"seat":   len(s.PlayerOrder) - 1,
	})}
	if len(s.PlayerOrder) == s.Config.Seats {
		s.Status = StatusPlayersReady
		events = append(events, newEvent(EventAllPlayersJoined, map[string]any{
			"players": stringsToAny(s.PlayerOrder),
		}))
	}
	return events, nil
}

func (s *State) addBots(count int) ([]Event, error) {
	if s.Status != StatusCreated {
		return nil, errorf(KindInvalidPhase, "game %s is not accepting players (%s)", s.ID, s.Status)
	}
	open := s.Config.Seats - len(s.PlayerOrder)
	if count == 0 {
		count = open
	}
	if count < 0 || count > open {
		return nil, errorf(KindCapacityExceeded, "cannot seat %d bots, %d seats open", count, open)
	}
	var events []Event
	for i := 0; i < count; i++ {
		id := "bot-" + uuid.NewString()[:8]
		name := fmt.Sprintf("Bot %d", len(s.PlayerOrder)+1)
		evs, err := s.addPlayer(id, name, true)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}
	return events, nil
}

// formTeams splits the seats into two teams by alternating seat, so turn
// order alternates between teams.
func (s *State) formTeams() ([]Event, error) {
	if !s.Ruleset().Teamed {
		return nil, errorf(KindIllegalMove, "%s has no teams", s.Variant)
	}
	if s.Status != StatusPlayersReady {
		return nil, errorf(KindInvalidPhase, "teams are formed once all players joined (%s)", s.Status)
	}
	s.Teams = map[string]*Team{
		"team-1": {ID: "team-1"},
		"team-2": {ID: "team-2"},
	}
	for i, id := range s.PlayerOrder {
		team := s.Teams["team-1"]
		if i%2 == 1 {
			team = s.Teams["team-2"]
		}
		team.Players = append(team.Players, id)
		s.Players[id].TeamID = team.ID
	}
	s.Status = StatusTeamsCreated
	return []Event{newEvent(EventTeamsFormed, map[string]any{
		"team-1": stringsToAny(s.Teams["team-1"].Players),
		"team-2": stringsToAny(s.Teams["team-2"].Players),
	})}, nil
}

func (s *State) startDeal(rng *rand.Rand) ([]Event, error) {
	if rng == nil {
		return nil, errorf(KindIllegalMove, "dealing needs a random source")
	}
	if s.Ruleset().Teamed {
		return s.startTeamedDeal(rng)
	}
	return s.startJudgementDeal(rng)
}

// dealHands shuffles and partitions a deck over order, one CARDS_DEALT event
// per player.
func (s *State) dealHands(rng *rand.Rand, order []string) (map[string]card.List, []Event, error) {
	hands := card.Partition(card.Deal(rng, s.WithoutSevens), len(order))
	if hands == nil {
		return nil, nil, errorf(KindIllegalMove, "deck does not split across %d seats", len(order))
	}
	out := make(map[string]card.List, len(order))
	events := make([]Event, 0, len(order))
	for i, id := range order {
		hands[i].Sort()
		out[id] = hands[i]
		events = append(events, newEvent(EventCardsDealt, map[string]any{
			"player": id,
			"cards":  stringsToAny(hands[i].IDs()),
		}, id))
	}
	return out, events, nil
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
