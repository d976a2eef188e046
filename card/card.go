package card

import (
	"fmt"
	"strings"
)

// Card 牌枚举
//
// 编码规则:
// - 高4位: 花色 (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - 低4位: 点数 (1:A, 2..9, 10:T, 11:J, 12:Q, 13:K)
type Card byte

const CardInvalid Card = 0

// New builds a card from rank (1=A .. 13=K) and suit.
func New(rank byte, suit Suit) Card {
	return Card(byte(suit)<<4 | rank&0x0F)
}

func (c Card) String() string {
	if !c.Valid() {
		return "Invalid"
	}
	return rankName(c.Rank()) + c.Suit().String()
}

// ID is the stable rank+suit key, e.g. "AS", "TH", "7D".
func (c Card) ID() string {
	if !c.Valid() {
		return ""
	}
	return rankName(c.Rank()) + c.Suit().Letter()
}

// Rank 获取牌面值 1-13 (A=1, K=13)
func (c Card) Rank() byte {
	return byte(c & 0x0F)
}

// Suit 花色 (0:Spades, 1:Hearts, 2:Clubs, 3:Diamonds)
func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) IsAce() bool {
	return c.Rank() == 1
}

func (c Card) Valid() bool {
	r := c.Rank()
	return r >= 1 && r <= 13 && c.Suit() <= Diamond
}

// Order 返回用于比较大小的点数: A 视为 14, 其它为原始点数
func (c Card) Order() int {
	r := int(c.Rank())
	if r == 1 {
		return 14
	}
	return r
}

func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card %#x", byte(c))
	}
	return []byte(c.ID()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func rankName(rank byte) string {
	switch rank {
	case 1:
		return "A"
	case 10:
		return "T"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return fmt.Sprintf("%d", rank)
	}
}

// ParseID 将字符串 (如 "AS", "Td", "10h") 转换为 Card
func ParseID(id string) (Card, error) {
	id = strings.TrimSpace(id)
	if len(id) < 2 {
		return CardInvalid, fmt.Errorf("invalid card id: %q", id)
	}

	suit, err := ParseSuit(id[len(id)-1])
	if err != nil {
		return CardInvalid, err
	}

	var rank byte
	switch rankStr := strings.ToUpper(id[:len(id)-1]); rankStr {
	case "A":
		rank = 1
	case "2", "3", "4", "5", "6", "7", "8", "9":
		rank = rankStr[0] - '0'
	case "T", "10":
		rank = 10
	case "J":
		rank = 11
	case "Q":
		rank = 12
	case "K":
		rank = 13
	default:
		return CardInvalid, fmt.Errorf("invalid rank: %s", rankStr)
	}
	return New(rank, suit), nil
}

// MustParse is ParseID for literals in tests and tables.
func MustParse(id string) Card {
	c, err := ParseID(id)
	if err != nil {
		panic(err)
	}
	return c
}
