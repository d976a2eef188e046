package card

import "math/rand"

const (
	FullDeckSize    = 52
	NoSevenDeckSize = 48
)

// NewDeck returns an ordered deck, suit by suit, A..K. withoutSevens drops the
// four sevens (48 cards).
func NewDeck(withoutSevens bool) List {
	deck := make(List, 0, FullDeckSize)
	for _, s := range []Suit{Spade, Heart, Club, Diamond} {
		for r := byte(1); r <= 13; r++ {
			if withoutSevens && r == 7 {
				continue
			}
			deck = append(deck, New(r, s))
		}
	}
	return deck
}

// Deal returns a freshly shuffled deck.
func Deal(rng *rand.Rand, withoutSevens bool) List {
	deck := NewDeck(withoutSevens)
	deck.Shuffle(rng)
	return deck
}

// Partition splits deck into n equal hands in deal order. It returns nil when
// the deck cannot be split evenly.
func Partition(deck List, n int) []List {
	if n <= 0 || len(deck)%n != 0 {
		return nil
	}
	size := len(deck) / n
	hands := make([]List, n)
	for i := range hands {
		hands[i] = make(List, 0, size)
	}
	for i, c := range deck {
		hands[i%n] = append(hands[i%n], c)
	}
	return hands
}

// DeckFor picks the deck a seat count can split evenly: the full deck when
// possible, else the deck without sevens. ok is false when neither divides.
func DeckFor(seats int) (withoutSevens bool, ok bool) {
	if seats <= 0 {
		return false, false
	}
	if FullDeckSize%seats == 0 {
		return false, true
	}
	if NoSevenDeckSize%seats == 0 {
		return true, true
	}
	return false, false
}
