package game

import (
	"strings"

	"cardtable-lite/card"
	"cardtable-lite/rules"

	"github.com/google/uuid"
)

// State is one game. A committed State is never mutated: Apply works on a
// clone and hands back a new value.
type State struct {
	ID            string                `json:"id"`
	Code          string                `json:"code"`
	Variant       rules.Variant         `json:"variant"`
	Status        Status                `json:"status"`
	Config        Config                `json:"config"`
	WithoutSevens bool                  `json:"without_sevens"`
	PlayerOrder   []string              `json:"player_order"`
	CurrentTurn   string                `json:"current_turn,omitempty"`
	Players       map[string]*Player    `json:"players"`
	Teams         map[string]*Team      `json:"teams,omitempty"`
	Hands         map[string]card.List  `json:"hands"`
	Deals         []*Deal               `json:"deals,omitempty"`
	Books         map[string]*BookState `json:"books,omitempty"`
	Scores        map[string]int        `json:"scores,omitempty"`
	Moves         []Move                `json:"moves"`
	Version       int64                 `json:"version"`
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewGame creates a game in CREATED with no players.
func NewGame(cfg Config) (*State, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errorf(KindIllegalMove, "%v", err)
	}
	rs, _ := rules.For(cfg.Variant)
	noSevens, _ := rs.WithoutSevens(cfg.Seats)
	id := uuid.New()
	return &State{
		ID:            id.String(),
		Code:          joinCode(id),
		Variant:       cfg.Variant,
		Status:        StatusCreated,
		Config:        cfg,
		WithoutSevens: noSevens,
		Players:       make(map[string]*Player, cfg.Seats),
		Hands:         make(map[string]card.List, cfg.Seats),
	}, nil
}

// joinCode derives the six character join token from the game id.
func joinCode(id uuid.UUID) string {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		b.WriteByte(codeAlphabet[int(id[i])%len(codeAlphabet)])
	}
	return b.String()
}

func (s *State) Ruleset() rules.Ruleset {
	rs, _ := rules.For(s.Variant)
	return rs
}

// Groups is the claimable group catalogue of the game, nil for judgement.
func (s *State) Groups() []rules.Group {
	return s.Ruleset().Groups(s.WithoutSevens)
}

func (s *State) CardCount(player string) int {
	return len(s.Hands[player])
}

// TeamOf maps every seated player to their team id.
func (s *State) TeamOf() map[string]string {
	out := make(map[string]string, len(s.Players))
	for id, p := range s.Players {
		out[id] = p.TeamID
	}
	return out
}

func (s *State) SameTeam(a, b string) bool {
	pa, pb := s.Players[a], s.Players[b]
	return pa != nil && pb != nil && pa.TeamID != "" && pa.TeamID == pb.TeamID
}

// CurrentDeal is the last judgement deal, or nil.
func (s *State) CurrentDeal() *Deal {
	if len(s.Deals) == 0 {
		return nil
	}
	return s.Deals[len(s.Deals)-1]
}

// Holder returns the player holding c, or "".
func (s *State) Holder(c card.Card) string {
	for _, id := range s.PlayerOrder {
		if s.Hands[id].Contains(c) {
			return id
		}
	}
	return ""
}

// BotToAct reports whether the game is waiting on a bot seat.
func (s *State) BotToAct() (string, bool) {
	if s.Status != StatusInProgress || s.CurrentTurn == "" {
		return "", false
	}
	p := s.Players[s.CurrentTurn]
	if p == nil || !p.IsBot {
		return "", false
	}
	return p.ID, true
}

// seatIndex is the position of player in PlayerOrder, -1 when absent.
func (s *State) seatIndex(player string) int {
	for i, id := range s.PlayerOrder {
		if id == player {
			return i
		}
	}
	return -1
}

// nextAfter walks PlayerOrder clockwise from player and returns the first
// seat accepted by ok.
func (s *State) nextAfter(player string, ok func(id string) bool) string {
	start := s.seatIndex(player)
	n := len(s.PlayerOrder)
	for step := 1; step <= n; step++ {
		id := s.PlayerOrder[(start+step+n)%n]
		if ok(id) {
			return id
		}
	}
	return ""
}

func (s *State) appendMove(m Move) {
	m.Seq = len(s.Moves) + 1
	s.Moves = append(s.Moves, m)
}

// Clone deep-copies the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.PlayerOrder = append([]string(nil), s.PlayerOrder...)
	c.Players = make(map[string]*Player, len(s.Players))
	for id, p := range s.Players {
		cp := *p
		c.Players[id] = &cp
	}
	if s.Teams != nil {
		c.Teams = make(map[string]*Team, len(s.Teams))
		for id, t := range s.Teams {
			ct := *t
			ct.Players = append([]string(nil), t.Players...)
			c.Teams[id] = &ct
		}
	}
	c.Hands = cloneHands(s.Hands)
	if s.Deals != nil {
		c.Deals = make([]*Deal, len(s.Deals))
		for i, d := range s.Deals {
			c.Deals[i] = d.clone()
		}
	}
	if s.Books != nil {
		c.Books = make(map[string]*BookState, len(s.Books))
		for id, b := range s.Books {
			cb := *b
			cb.Group.Cards = b.Group.Cards.Clone()
			c.Books[id] = &cb
		}
	}
	c.Scores = cloneInts(s.Scores)
	if s.Moves != nil {
		c.Moves = make([]Move, len(s.Moves))
	}
	for i, m := range s.Moves {
		if m.Claim != nil {
			claim := make(rules.Claim, len(m.Claim))
			for k, v := range m.Claim {
				claim[k] = v
			}
			m.Claim = claim
		}
		c.Moves[i] = m
	}
	return &c
}

func (d *Deal) clone() *Deal {
	c := *d
	c.PlayerOrder = append([]string(nil), d.PlayerOrder...)
	c.StartingHands = cloneHands(d.StartingHands)
	c.Declared = cloneInts(d.Declared)
	c.Won = cloneInts(d.Won)
	c.Scores = cloneInts(d.Scores)
	if d.Rounds != nil {
		c.Rounds = make([]*Round, len(d.Rounds))
	}
	for i, r := range d.Rounds {
		cr := *r
		cr.PlayerOrder = append([]string(nil), r.PlayerOrder...)
		cr.Cards = make(map[string]card.Card, len(r.Cards))
		for k, v := range r.Cards {
			cr.Cards[k] = v
		}
		c.Rounds[i] = &cr
	}
	return &c
}

func cloneHands(in map[string]card.List) map[string]card.List {
	if in == nil {
		return nil
	}
	out := make(map[string]card.List, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func cloneInts(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// rotate returns order starting at index k.
func rotate(order []string, k int) []string {
	n := len(order)
	out := make([]string, n)
	for i := range order {
		out[i] = order[(i+k)%n]
	}
	return out
}
