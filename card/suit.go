package card

import (
	"encoding/json"
	"fmt"
)

type Suit byte

const (
	Spade   Suit = iota // ♠️
	Heart               // ♥️
	Club                // ♣️
	Diamond             // ♦️
)

// Suits in the order trump rotates through them.
var Suits = []Suit{Spade, Heart, Diamond, Club}

func (s Suit) String() string {
	switch s {
	case Diamond:
		return "♦"
	case Club:
		return "♣"
	case Heart:
		return "♥"
	case Spade:
		return "♠"
	}
	return "?"
}

func (s Suit) Letter() string {
	switch s {
	case Diamond:
		return "D"
	case Club:
		return "C"
	case Heart:
		return "H"
	case Spade:
		return "S"
	}
	return "?"
}

func (s Suit) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Letter())
}

func (s *Suit) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("invalid suit: %q", raw)
	}
	parsed, err := ParseSuit(raw[0])
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseSuit(ch byte) (Suit, error) {
	switch ch {
	case 's', 'S':
		return Spade, nil
	case 'h', 'H':
		return Heart, nil
	case 'c', 'C':
		return Club, nil
	case 'd', 'D':
		return Diamond, nil
	}
	return 0, fmt.Errorf("invalid suit: %c", ch)
}
