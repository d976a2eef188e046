package codec

import (
	"math/rand"
	"reflect"
	"testing"

	"cardtable-lite/game"
	"cardtable-lite/rules"
)

func playedLiterature(t *testing.T) *game.State {
	t.Helper()
	rng := rand.New(rand.NewSource(4))
	s, err := game.NewGame(game.Config{Variant: rules.Literature, Seats: 4})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	steps := []game.Command{
		game.AddPlayer{Player: "a", DisplayName: "Ann"},
		game.AddBots{},
		game.FormTeams{},
		game.StartDeal{},
	}
	for _, cmd := range steps {
		if s, _, err = game.Apply(s, cmd, rng); err != nil {
			t.Fatalf("%s: %v", cmd.Name(), err)
		}
	}
	// One ask so the history is not empty.
	hand := s.Hands["a"]
	g, _ := rules.GroupOf(s.Groups(), hand[0])
	for _, c := range g.Cards {
		if !hand.Contains(c) {
			target := s.Opponents("a")[0]
			if s, _, err = game.Apply(s, game.Ask{Player: "a", Target: target, Card: c}, rng); err != nil {
				t.Fatalf("ask: %v", err)
			}
			break
		}
	}
	return s
}

func TestState_StructRoundTrip(t *testing.T) {
	s := playedLiterature(t)
	st, err := ToStruct(s)
	if err != nil {
		t.Fatalf("ToStruct: %v", err)
	}
	got, err := FromStruct(st)
	if err != nil {
		t.Fatalf("FromStruct: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Fatalf("round trip changed the state\nwant %+v\ngot  %+v", s, got)
	}
}

func TestState_BinarySnapshot(t *testing.T) {
	s := playedLiterature(t)
	data, err := MarshalState(s)
	if err != nil {
		t.Fatalf("MarshalState: %v", err)
	}
	got, err := UnmarshalState(data)
	if err != nil {
		t.Fatalf("UnmarshalState: %v", err)
	}
	if got.Version != s.Version || got.CurrentTurn != s.CurrentTurn || len(got.Moves) != len(s.Moves) {
		t.Fatalf("snapshot mismatch")
	}
	for id, h := range s.Hands {
		if !reflect.DeepEqual(got.Hands[id], h) {
			t.Fatalf("hand %s: %v != %v", id, got.Hands[id].IDs(), h.IDs())
		}
	}
	if _, err := UnmarshalState([]byte{0xff, 0x01}); err == nil {
		t.Fatalf("garbage decoded")
	}
}

func TestEnvelope_BothFramings(t *testing.T) {
	env := map[string]any{"type": "ask", "game_id": "g1", "card": "QH", "claim": map[string]any{"AS": "p1"}}
	for _, binary := range []bool{true, false} {
		data, err := EncodeEnvelope(env, binary)
		if err != nil {
			t.Fatalf("encode(binary=%v): %v", binary, err)
		}
		got, err := DecodeEnvelope(data, binary)
		if err != nil {
			t.Fatalf("decode(binary=%v): %v", binary, err)
		}
		if !reflect.DeepEqual(got, env) {
			t.Fatalf("binary=%v: %v != %v", binary, got, env)
		}
	}
}

func TestState_LargeSeedSurvivesSnapshot(t *testing.T) {
	for _, seed := range []int64{game.MaxSeed, -game.MaxSeed, 1<<53 - 12345} {
		s, err := game.NewGame(game.Config{Variant: rules.Judgement, Seats: 4, Seed: seed})
		if err != nil {
			t.Fatalf("NewGame(seed %d): %v", seed, err)
		}
		data, err := MarshalState(s)
		if err != nil {
			t.Fatalf("MarshalState: %v", err)
		}
		got, err := UnmarshalState(data)
		if err != nil {
			t.Fatalf("UnmarshalState: %v", err)
		}
		if got.Config.Seed != seed {
			t.Fatalf("seed %d round-tripped as %d", seed, got.Config.Seed)
		}
	}
	if _, err := game.NewGame(game.Config{Variant: rules.Judgement, Seats: 4, Seed: 1<<60 + 1}); err == nil {
		t.Fatalf("a seed beyond float64 precision should be rejected")
	}
}
