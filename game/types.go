package game

import (
	"cardtable-lite/card"
	"cardtable-lite/rules"
)

type Status string

const (
	StatusCreated      Status = "CREATED"
	StatusPlayersReady Status = "PLAYERS_READY"
	StatusTeamsCreated Status = "TEAMS_CREATED"
	StatusInProgress   Status = "IN_PROGRESS"
	StatusCompleted    Status = "COMPLETED"
)

type DealStatus string

const (
	DealCreated         DealStatus = "DEAL_CREATED"
	DealDeclarationsIn  DealStatus = "DECLARATIONS_IN"
	DealRoundInProgress DealStatus = "ROUND_IN_PROGRESS"
	DealRoundComplete   DealStatus = "ROUND_COMPLETE"
	DealComplete        DealStatus = "DEAL_COMPLETE"
)

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsBot  bool   `json:"is_bot"`
	TeamID string `json:"team_id,omitempty"`
}

type Team struct {
	ID      string   `json:"id"`
	Players []string `json:"players"`
	Score   int      `json:"score"`
}

// Round is one trick. PlayerOrder starts with the leader.
type Round struct {
	Index       int                  `json:"index"`
	PlayerOrder []string             `json:"player_order"`
	Cards       map[string]card.Card `json:"cards"`
	LedSuit     card.Suit            `json:"led_suit"`
	Winner      string               `json:"winner,omitempty"`
}

func (r *Round) Complete() bool {
	return len(r.Cards) == len(r.PlayerOrder)
}

// played returns the cards in play order.
func (r *Round) played() card.List {
	out := make(card.List, 0, len(r.Cards))
	for _, p := range r.PlayerOrder {
		c, ok := r.Cards[p]
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out
}

// Best is the card currently winning the trick, or card.CardInvalid when
// nothing has been played.
func (r *Round) Best(trump card.Suit) card.Card {
	played := r.played()
	i := card.Winner(played, trump)
	if i < 0 {
		return card.CardInvalid
	}
	return played[i]
}

// Deal is one judgement hand, from dealing through its last trick.
type Deal struct {
	Index         int                  `json:"index"`
	Status        DealStatus           `json:"status"`
	PlayerOrder   []string             `json:"player_order"`
	Trump         card.Suit            `json:"trump"`
	Tricks        int                  `json:"tricks"`
	StartingHands map[string]card.List `json:"starting_hands"`
	Declared      map[string]int       `json:"declared"`
	Won           map[string]int       `json:"won"`
	Scores        map[string]int       `json:"scores,omitempty"`
	Rounds        []*Round             `json:"rounds"`
}

func (d *Deal) Complete() bool {
	return d.Status == DealComplete
}

// CurrentRound is the last round, or nil before declarations are in.
func (d *Deal) CurrentRound() *Round {
	if len(d.Rounds) == 0 {
		return nil
	}
	return d.Rounds[len(d.Rounds)-1]
}

// BookState tracks one claimable group of a teamed game.
type BookState struct {
	Group       rules.Group `json:"group"`
	Declared    bool        `json:"declared"`
	DeclaredBy  string      `json:"declared_by,omitempty"`
	WinningTeam string      `json:"winning_team,omitempty"`
	Correct     bool        `json:"correct"`
}

type MoveKind string

const (
	MoveAsk         MoveKind = "ASK"
	MoveDeclare     MoveKind = "DECLARE"
	MoveTransfer    MoveKind = "TRANSFER"
	MovePlayCard    MoveKind = "PLAY_CARD"
	MoveDeclareWins MoveKind = "DECLARE_WINS"
)

// Move is one entry of the append-only game history. It carries what is
// needed to replay the transition.
type Move struct {
	Seq         int         `json:"seq"`
	Kind        MoveKind    `json:"kind"`
	Player      string      `json:"player"`
	Target      string      `json:"target,omitempty"`
	Card        card.Card   `json:"card,omitempty"`
	Success     bool        `json:"success"`
	Group       string      `json:"group,omitempty"`
	Claim       rules.Claim `json:"claim,omitempty"`
	Wins        int         `json:"wins,omitempty"`
	Description string      `json:"description"`
}
