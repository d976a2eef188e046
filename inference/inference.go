// Package inference derives, for one observer, who may hold each card still
// in play from the observer's hand and the public move history.
package inference

import (
	"sort"

	"cardtable-lite/card"
	"cardtable-lite/game"
	"cardtable-lite/rules"
)

// MaxWeight is the weight of a certain ownership. Inferred owners weigh
// half of it and a Possible set splits it evenly.
const MaxWeight = 720

type Kind uint8

const (
	Possible Kind = iota
	Inferred
	Known
)

func (k Kind) String() string {
	switch k {
	case Known:
		return "KNOWN"
	case Inferred:
		return "INFERRED"
	}
	return "POSSIBLE"
}

// Record is the ownership belief about one card. Owner is set for Known and
// Inferred, Candidates for Possible.
type Record struct {
	Kind       Kind
	Owner      string
	Candidates []string
	Weight     int
}

type entry struct {
	kind  Kind
	owner string
	cands map[string]struct{}
}

// View is an immutable projection for one observer. Build a new one for
// every state version.
type View struct {
	observer string
	hand     card.List
	teamOf   map[string]string
	groups   []rules.Group
	declared map[string]bool
	cards    map[card.Card]*entry
}

type options struct {
	counts map[string]int
}

type Option func(*options)

// WithCardCounts drops players holding no cards from every candidate set.
func WithCardCounts(counts map[string]int) Option {
	return func(o *options) { o.counts = counts }
}

// Build replays moves for observer. teamOf maps each player to a team id and
// may be empty when there are no teams; groups is the claimable catalogue.
func Build(observer string, hand card.List, players []string, teamOf map[string]string, groups []rules.Group, moves []game.Move, opts ...Option) *View {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	v := &View{
		observer: observer,
		hand:     hand.Clone(),
		teamOf:   teamOf,
		groups:   groups,
		declared: make(map[string]bool),
		cards:    make(map[card.Card]*entry),
	}

	others := make(map[string]struct{}, len(players))
	for _, p := range players {
		if p != observer {
			others[p] = struct{}{}
		}
	}
	for _, g := range groups {
		for _, c := range g.Cards {
			v.cards[c] = &entry{kind: Possible, cands: copySet(others)}
		}
	}

	for _, m := range moves {
		switch m.Kind {
		case game.MoveAsk:
			v.applyAsk(m)
		case game.MoveDeclare:
			v.applyDeclare(m)
		}
	}

	// Own hand last: it is ground truth and rules the observer out
	// everywhere else.
	own := make(map[card.Card]bool, len(hand))
	for _, c := range hand {
		own[c] = true
	}
	for c, e := range v.cards {
		if own[c] {
			*e = entry{kind: Known, owner: observer}
			continue
		}
		if e.kind != Possible && e.owner == observer {
			*e = entry{kind: Possible, cands: copySet(others)}
		}
		v.eliminate(e, observer)
	}
	if o.counts != nil {
		for p, n := range o.counts {
			if n > 0 || p == observer {
				continue
			}
			for _, e := range v.cards {
				v.eliminate(e, p)
			}
		}
	}
	return v
}

func (v *View) applyAsk(m game.Move) {
	e, ok := v.cards[m.Card]
	if !ok {
		return
	}
	if m.Success {
		*e = entry{kind: Known, owner: m.Player}
		return
	}
	v.eliminate(e, m.Player)
	v.eliminate(e, m.Target)
}

func (v *View) applyDeclare(m game.Move) {
	v.declared[m.Group] = true
	for _, g := range v.groups {
		if g.ID != m.Group {
			continue
		}
		for _, c := range g.Cards {
			delete(v.cards, c)
		}
	}
}

// eliminate removes p from a Possible set. A set of one becomes Inferred. A
// removal that would empty the set contradicts the history and is ignored.
func (v *View) eliminate(e *entry, p string) {
	if e.kind != Possible {
		return
	}
	if _, ok := e.cands[p]; !ok || len(e.cands) == 1 {
		return
	}
	delete(e.cands, p)
	if len(e.cands) == 1 {
		for only := range e.cands {
			*e = entry{kind: Inferred, owner: only}
		}
	}
}

func copySet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func (v *View) Observer() string { return v.observer }

// InPlay reports whether c is tracked, i.e. belongs to an undeclared group.
func (v *View) InPlay(c card.Card) bool {
	_, ok := v.cards[c]
	return ok
}

// Record returns the belief about c; ok is false for cards out of play.
func (v *View) Record(c card.Card) (Record, bool) {
	e, ok := v.cards[c]
	if !ok {
		return Record{}, false
	}
	r := Record{Kind: e.kind, Owner: e.owner, Weight: weightOf(e)}
	if e.kind == Possible {
		for p := range e.cands {
			r.Candidates = append(r.Candidates, p)
		}
		sort.Strings(r.Candidates)
	}
	return r, true
}

// Weight is the confidence of the record for c, 0 for cards out of play.
func (v *View) Weight(c card.Card) int {
	e, ok := v.cards[c]
	if !ok {
		return 0
	}
	return weightOf(e)
}

func weightOf(e *entry) int {
	switch e.kind {
	case Known:
		return MaxWeight
	case Inferred:
		return MaxWeight / 2
	}
	if len(e.cands) == 0 {
		return 0
	}
	return MaxWeight / len(e.cands)
}

// OwnerWeight is the confidence that player holds c.
func (v *View) OwnerWeight(c card.Card, player string) int {
	e, ok := v.cards[c]
	if !ok {
		return 0
	}
	if e.kind != Possible {
		if e.owner == player {
			return weightOf(e)
		}
		return 0
	}
	if _, ok := e.cands[player]; ok {
		return weightOf(e)
	}
	return 0
}

// Owner returns the Known or Inferred owner of c.
func (v *View) Owner(c card.Card) (string, bool) {
	e, ok := v.cards[c]
	if !ok || e.kind == Possible {
		return "", false
	}
	return e.owner, true
}

// GroupWeight scores one open group from the observer team's perspective.
type GroupWeight struct {
	Group  rules.Group
	Weight int
	// FullyOwnedByOwnTeam: every card is held, or can only be held, by the
	// observer's team.
	FullyOwnedByOwnTeam bool
	// Declarable: every card has a Known or Inferred owner on the team.
	Declarable bool
	// FullyKnown: every card has a Known or Inferred owner.
	FullyKnown bool
}

func (v *View) sameTeam(p string) bool {
	if p == v.observer {
		return true
	}
	t, ok := v.teamOf[p]
	return ok && t != "" && t == v.teamOf[v.observer]
}

// WeightedGroups ranks the open groups by how much of each the observer's
// team is believed to hold, heaviest first. Ties keep catalogue order.
func (v *View) WeightedGroups() []GroupWeight {
	var out []GroupWeight
	for _, g := range v.groups {
		if v.declared[g.ID] {
			continue
		}
		gw := GroupWeight{Group: g, FullyOwnedByOwnTeam: true, Declarable: true, FullyKnown: true}
		for _, c := range g.Cards {
			e, ok := v.cards[c]
			if !ok {
				gw.FullyOwnedByOwnTeam, gw.Declarable, gw.FullyKnown = false, false, false
				continue
			}
			if e.kind == Possible {
				gw.Declarable, gw.FullyKnown = false, false
				share := weightOf(e)
				for p := range e.cands {
					if v.sameTeam(p) {
						gw.Weight += share
					} else {
						gw.FullyOwnedByOwnTeam = false
					}
				}
				continue
			}
			if v.sameTeam(e.owner) {
				gw.Weight += weightOf(e)
			} else {
				gw.FullyOwnedByOwnTeam, gw.Declarable = false, false
			}
		}
		out = append(out, gw)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

// Claim returns the owner of every card of g when all are Known or Inferred.
func (v *View) Claim(g rules.Group) (rules.Claim, bool) {
	claim := make(rules.Claim, len(g.Cards))
	for _, c := range g.Cards {
		owner, ok := v.Owner(c)
		if !ok {
			return nil, false
		}
		claim[c] = owner
	}
	return claim, true
}

// FromState builds the view of observer over a committed game state.
func FromState(s *game.State, observer string) *View {
	counts := make(map[string]int, len(s.PlayerOrder))
	for _, p := range s.PlayerOrder {
		counts[p] = s.CardCount(p)
	}
	return Build(observer, s.Hands[observer], s.PlayerOrder, s.TeamOf(), s.Groups(), s.Moves, WithCardCounts(counts))
}
