package card

import (
	"math/rand"
	"sort"
)

type List []Card

// Count 获取总牌数
func (l List) Count() int {
	return len(l)
}

func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

func (l List) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(l), func(i, j int) {
		l[i], l[j] = l[j], l[i]
	})
}

func (l List) Contains(c Card) bool {
	for _, cc := range l {
		if cc == c {
			return true
		}
	}
	return false
}

// Remove returns l without the first occurrence of c and whether c was found.
func (l List) Remove(c Card) (List, bool) {
	for i, cc := range l {
		if cc == c {
			out := make(List, 0, len(l)-1)
			out = append(out, l[:i]...)
			return append(out, l[i+1:]...), true
		}
	}
	return l, false
}

func (l *List) Add(cards ...Card) {
	*l = append(*l, cards...)
}

func (l List) OfSuit(s Suit) List {
	var out List
	for _, c := range l {
		if c.Suit() == s {
			out = append(out, c)
		}
	}
	return out
}

// Sort orders by suit, then A-high rank.
func (l List) Sort() {
	sort.Slice(l, func(i, j int) bool {
		if l[i].Suit() != l[j].Suit() {
			return l[i].Suit() < l[j].Suit()
		}
		return l[i].Order() < l[j].Order()
	})
}

func (l List) IDs() []string {
	out := make([]string, 0, len(l))
	for _, c := range l {
		out = append(out, c.ID())
	}
	return out
}
