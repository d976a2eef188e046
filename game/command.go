package game

import (
	"math/rand"

	"cardtable-lite/card"
	"cardtable-lite/rules"
)

// Command is one requested transition. Player is the acting seat; system
// commands (dealing, team forming) may leave it empty.
type Command interface {
	Name() string
	Actor() string
	apply(s *State, rng *rand.Rand) ([]Event, error)
}

// Apply validates cmd against s and returns the next state with the events
// it produced. s is never modified; on error it is returned as is.
func Apply(s *State, cmd Command, rng *rand.Rand) (*State, []Event, error) {
	if s == nil {
		return nil, nil, errorf(KindNotFound, "no such game")
	}
	if cmd == nil {
		return s, nil, errorf(KindIllegalMove, "empty command")
	}
	if s.Status == StatusCompleted {
		return s, nil, errorf(KindInvalidPhase, "game %s is completed", s.ID)
	}
	if actor := cmd.Actor(); actor != "" {
		if _, ok := s.Players[actor]; !ok && !joins(cmd) {
			return s, nil, errorf(KindNotFound, "player %s is not in game %s", actor, s.ID)
		}
	}

	next := s.Clone()
	events, err := cmd.apply(next, rng)
	if err != nil {
		return s, nil, err
	}
	if next.CurrentTurn != s.CurrentTurn && next.Status != StatusCompleted {
		events = append(events, newEvent(EventTurnUpdated, map[string]any{"player": next.CurrentTurn}))
	}
	next.Version++
	for i := range events {
		events[i].GameID = next.ID
		events[i].Version = next.Version
	}
	return next, events, nil
}

func joins(cmd Command) bool {
	_, ok := cmd.(AddPlayer)
	return ok
}

type AddPlayer struct {
	Player      string
	DisplayName string
}

// AddBots and FormTeams may be issued by a seated player or, with Player
// empty, by the table itself.
type AddBots struct {
	Player string
	// Count of bots to seat; 0 fills every open seat.
	Count int
}

type FormTeams struct {
	Player string
}

type StartDeal struct {
	Player string
}

type DeclareExpectedWins struct {
	Player string
	Wins   int
}

type PlayCard struct {
	Player string
	Card   card.Card
}

type Ask struct {
	Player string
	Target string
	Card   card.Card
}

// Declare claims a whole group for the declarer's team. It is declareSet in
// literature and claimBook in fish.
type Declare struct {
	Player string
	Group  string
	Claim  rules.Claim
}

type TransferTurn struct {
	Player string
	Target string
}

func (AddPlayer) Name() string           { return "addPlayer" }
func (AddBots) Name() string             { return "addBots" }
func (FormTeams) Name() string           { return "formTeams" }
func (StartDeal) Name() string           { return "startDeal" }
func (DeclareExpectedWins) Name() string { return "declareExpectedWins" }
func (PlayCard) Name() string            { return "playCard" }
func (Ask) Name() string                 { return "ask" }
func (Declare) Name() string             { return "declare" }
func (TransferTurn) Name() string        { return "transferTurn" }

func (c AddPlayer) Actor() string           { return c.Player }
func (c AddBots) Actor() string             { return c.Player }
func (c FormTeams) Actor() string           { return c.Player }
func (c StartDeal) Actor() string           { return c.Player }
func (c DeclareExpectedWins) Actor() string { return c.Player }
func (c PlayCard) Actor() string            { return c.Player }
func (c Ask) Actor() string                 { return c.Player }
func (c Declare) Actor() string             { return c.Player }
func (c TransferTurn) Actor() string        { return c.Player }

func (c AddPlayer) apply(s *State, _ *rand.Rand) ([]Event, error) {
	return s.addPlayer(c.Player, c.DisplayName, false)
}

func (c AddBots) apply(s *State, _ *rand.Rand) ([]Event, error) { return s.addBots(c.Count) }

func (FormTeams) apply(s *State, _ *rand.Rand) ([]Event, error) { return s.formTeams() }

func (c StartDeal) apply(s *State, rng *rand.Rand) ([]Event, error) { return s.startDeal(rng) }

func (c DeclareExpectedWins) apply(s *State, _ *rand.Rand) ([]Event, error) {
	return s.declareExpectedWins(c.Player, c.Wins)
}

func (c PlayCard) apply(s *State, _ *rand.Rand) ([]Event, error) {
	return s.playCard(c.Player, c.Card)
}

func (c Ask) apply(s *State, _ *rand.Rand) ([]Event, error) {
	return s.ask(c.Player, c.Target, c.Card)
}

func (c Declare) apply(s *State, _ *rand.Rand) ([]Event, error) {
	return s.declare(c.Player, c.Group, c.Claim)
}

func (c TransferTurn) apply(s *State, _ *rand.Rand) ([]Event, error) {
	return s.transferTurn(c.Player, c.Target)
}
