package game

import (
	"cardtable-lite/card"
	"cardtable-lite/rules"
)

type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsBot     bool   `json:"is_bot"`
	TeamID    string `json:"team_id,omitempty"`
	CardCount int    `json:"card_count"`
}

// DealView is the public part of a judgement deal.
type DealView struct {
	Index       int            `json:"index"`
	Status      DealStatus     `json:"status"`
	Trump       card.Suit      `json:"trump"`
	Tricks      int            `json:"tricks"`
	PlayerOrder []string       `json:"player_order"`
	Declared    map[string]int `json:"declared"`
	Won         map[string]int `json:"won"`
	Scores      map[string]int `json:"scores,omitempty"`
	Round       *Round         `json:"round,omitempty"`
	Legal       card.List      `json:"legal,omitempty"`
}

// View is what one player may see: their own hand and public state.
type View struct {
	ID          string                `json:"id"`
	Code        string                `json:"code"`
	Variant     rules.Variant         `json:"variant"`
	Status      Status                `json:"status"`
	Version     int64                 `json:"version"`
	Seats       int                   `json:"seats"`
	Me          string                `json:"me"`
	CurrentTurn string                `json:"current_turn,omitempty"`
	Players     []PlayerInfo          `json:"players"`
	Teams       map[string]*Team      `json:"teams,omitempty"`
	Hand        card.List             `json:"hand"`
	Deal        *DealView             `json:"deal,omitempty"`
	Books       map[string]*BookState `json:"books,omitempty"`
	Scores      map[string]int        `json:"scores,omitempty"`
	Moves       []Move                `json:"moves"`
}

// ViewFor projects s for player. Other hands are reduced to counts and
// starting hands are never included.
func ViewFor(s *State, player string) View {
	c := s.Clone()
	v := View{
		ID:          c.ID,
		Code:        c.Code,
		Variant:     c.Variant,
		Status:      c.Status,
		Version:     c.Version,
		Seats:       c.Config.Seats,
		Me:          player,
		CurrentTurn: c.CurrentTurn,
		Teams:       c.Teams,
		Hand:        c.Hands[player],
		Books:       c.Books,
		Scores:      c.Scores,
		Moves:       append([]Move{}, c.Moves...),
	}
	for _, id := range c.PlayerOrder {
		p := c.Players[id]
		v.Players = append(v.Players, PlayerInfo{
			ID:        p.ID,
			Name:      p.Name,
			IsBot:     p.IsBot,
			TeamID:    p.TeamID,
			CardCount: len(c.Hands[id]),
		})
	}
	if d := c.CurrentDeal(); d != nil {
		v.Deal = &DealView{
			Index:       d.Index,
			Status:      d.Status,
			Trump:       d.Trump,
			Tricks:      d.Tricks,
			PlayerOrder: d.PlayerOrder,
			Declared:    d.Declared,
			Won:         d.Won,
			Scores:      d.Scores,
			Round:       d.CurrentRound(),
		}
		if d.Status == DealRoundInProgress && c.CurrentTurn == player {
			r := d.CurrentRound()
			v.Deal.Legal = rules.LegalPlays(v.Hand, d.Trump, r.Best(d.Trump), r.LedSuit)
		}
	}
	return v
}

// PlayedCards lists every card played in the current judgement deal,
// including the trick in progress.
func (s *State) PlayedCards() card.List {
	d := s.CurrentDeal()
	if d == nil {
		return nil
	}
	var out card.List
	for _, r := range d.Rounds {
		out = append(out, r.played()...)
	}
	return out
}
