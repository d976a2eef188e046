package rules

import "cardtable-lite/card"

// LegalPlays returns the cards of hand that may be played onto the current
// trick. best is the best card in play so far (card.CardInvalid when the
// player leads) and led is the suit of the first card.
//
// Precedence when following:
//   - led suit is trump: trumps beating best, else any trump, else any card
//   - otherwise: led-suit cards beating best, else any led-suit card,
//     else trumps beating the best trump in play, else any trump, else any card
func LegalPlays(hand card.List, trump card.Suit, best card.Card, led card.Suit) card.List {
	if best == card.CardInvalid || len(hand) == 0 {
		return hand.Clone()
	}
	if led == trump {
		trumps := hand.OfSuit(trump)
		if beat := beating(trumps, best, trump); len(beat) > 0 {
			return beat
		}
		if len(trumps) > 0 {
			return trumps
		}
		return hand.Clone()
	}

	following := hand.OfSuit(led)
	if len(following) > 0 {
		if beat := beating(following, best, trump); len(beat) > 0 {
			return beat
		}
		return following
	}

	trumps := hand.OfSuit(trump)
	if len(trumps) > 0 {
		if beat := beating(trumps, best, trump); len(beat) > 0 {
			return beat
		}
		return trumps
	}
	return hand.Clone()
}

// CanPlay reports whether c is among LegalPlays.
func CanPlay(c card.Card, hand card.List, trump card.Suit, best card.Card, led card.Suit) bool {
	return LegalPlays(hand, trump, best, led).Contains(c)
}

func beating(cards card.List, best card.Card, trump card.Suit) card.List {
	var out card.List
	for _, c := range cards {
		if card.Beats(c, best, trump) {
			out = append(out, c)
		}
	}
	return out
}

// Score is the judgement deal score for one player. Missing the declared
// count costs ten per declared trick; making it earns ten per declared trick
// plus two per overtrick.
func Score(declared, won int) int {
	if declared > won {
		return -10 * declared
	}
	return 10*declared + 2*(won-declared)
}
