package game

import (
	"fmt"

	"cardtable-lite/rules"
)

type Config struct {
	Variant rules.Variant `json:"variant"`
	Seats   int           `json:"seats"`

	// Deals is the judgement game length (0 => one deal per seat).
	Deals int `json:"deals,omitempty"`

	// RNG seed (0 => time-based), used by the owner of the game to deal.
	Seed int64 `json:"seed,omitempty"`
}

// MaxSeed bounds Seed so it survives snapshot encodings that carry numbers
// as float64.
const MaxSeed = 1<<53 - 1

func (c Config) withDefaults() Config {
	if c.Variant == rules.Judgement && c.Deals == 0 {
		c.Deals = c.Seats
	}
	return c
}

// Validate checks the variant, the seat count and the deal count.
func (c Config) Validate() error {
	rs, err := rules.For(c.Variant)
	if err != nil {
		return err
	}
	if err := rs.CheckSeats(c.Seats); err != nil {
		return err
	}
	if c.Deals < 0 {
		return fmt.Errorf("Deals must be >= 0")
	}
	if c.Seed > MaxSeed || c.Seed < -MaxSeed {
		return fmt.Errorf("Seed must be within ±%d", int64(MaxSeed))
	}
	if rs.Teamed && c.Deals > 1 {
		return fmt.Errorf("%s is played as a single deal", c.Variant)
	}
	return nil
}
