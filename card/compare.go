package card

// Compare orders a against b when b is the best card so far. Same suit compares
// by rank with the Ace on top; a trump beats any non-trump; any other cross-suit
// pair never compares as greater.
func Compare(a, b Card, trump Suit) int {
	if a.Suit() == b.Suit() {
		switch {
		case a.Order() > b.Order():
			return 1
		case a.Order() < b.Order():
			return -1
		}
		return 0
	}
	if a.Suit() == trump {
		return 1
	}
	return -1
}

// Beats reports whether a played onto b takes over the trick.
func Beats(a, b Card, trump Suit) bool {
	return Compare(a, b, trump) > 0
}

// Winner returns the index of the winning card, cards given in play order.
// The first card sets the led suit. Returns -1 for an empty trick.
func Winner(cards []Card, trump Suit) int {
	if len(cards) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(cards); i++ {
		if Beats(cards[i], cards[best], trump) {
			best = i
		}
	}
	return best
}
