package bot

import (
	"math/rand"
	"testing"
	"time"

	"cardtable-lite/card"
	"cardtable-lite/game"
	"cardtable-lite/inference"
	"cardtable-lite/rules"
)

func apply(t *testing.T, s *game.State, cmd game.Command, rng *rand.Rand) *game.State {
	t.Helper()
	next, _, err := game.Apply(s, cmd, rng)
	if err != nil {
		t.Fatalf("%s %+v: %v", cmd.Name(), cmd, err)
	}
	return next
}

func ids(list ...string) card.List {
	out := card.List{}
	for _, id := range list {
		out = append(out, card.MustParse(id))
	}
	return out
}

// literature seats p1..p4 (p1,p3 vs p2,p4), deals, then replaces the hands.
// Cards not listed go to p4.
func literature(t *testing.T, hands map[string]card.List) *game.State {
	t.Helper()
	s, err := game.NewGame(game.Config{Variant: rules.Literature, Seats: 4})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	for _, p := range []string{"p1", "p2", "p3", "p4"} {
		s = apply(t, s, game.AddPlayer{Player: p}, nil)
	}
	s = apply(t, s, game.FormTeams{}, nil)
	s = apply(t, s, game.StartDeal{}, rand.New(rand.NewSource(1)))

	seen := map[card.Card]bool{}
	for _, p := range s.PlayerOrder {
		s.Hands[p] = hands[p].Clone()
		for _, c := range hands[p] {
			seen[c] = true
		}
	}
	for _, c := range card.NewDeck(true) {
		if !seen[c] {
			s.Hands["p4"] = append(s.Hands["p4"], c)
		}
	}
	return s
}

func TestEstimateWins(t *testing.T) {
	hand := ids("AS", "KH", "JH", "TH", "2C", "AC")
	if got := EstimateWins(hand, card.Heart, 13); got != 4 {
		t.Fatalf("EstimateWins = %d, want 4", got)
	}
	if got := EstimateWins(hand, card.Heart, 3); got != 3 {
		t.Fatalf("capped EstimateWins = %d, want 3", got)
	}
	if got := EstimateWins(ids("AH", "KH"), card.Heart, 13); got != 2 {
		t.Fatalf("trump ace counted twice: %d", got)
	}
}

func TestAdvisor_PlaysUnbeatableCard(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	s, _ := game.NewGame(game.Config{Variant: rules.Judgement, Seats: 2, Deals: 1})
	s = apply(t, s, game.AddPlayer{Player: "a"}, nil)
	s = apply(t, s, game.AddPlayer{Player: "b"}, nil)
	s = apply(t, s, game.StartDeal{}, rng)

	adv := NewAdvisor(1)
	cmd, err := adv.Decide(s, "a", nil)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	want := EstimateWins(s.Hands["a"], s.CurrentDeal().Trump, s.CurrentDeal().Tricks)
	if dw, ok := cmd.(game.DeclareExpectedWins); !ok || dw.Wins != want {
		t.Fatalf("cmd = %+v, want %d wins", cmd, want)
	}
	s = apply(t, s, cmd, rng)
	if _, err := adv.Decide(s, "a", nil); err == nil {
		t.Fatalf("bot decided out of turn")
	}
	s = apply(t, s, game.DeclareExpectedWins{Player: "b", Wins: 0}, rng)

	s.Hands["a"] = ids("AD", "2D", "3H")
	for i := 0; i < 20; i++ {
		cmd, err := NewAdvisor(int64(i)).Decide(s, "a", nil)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if pc := cmd.(game.PlayCard); pc.Card != card.MustParse("AD") {
			t.Fatalf("played %s, want the unbeatable AD", pc.Card.ID())
		}
	}
}

func TestAdvisor_DeclaresKnownGroup(t *testing.T) {
	s := literature(t, map[string]card.List{
		"p1": ids("AS", "2S", "3S", "9D"),
		"p2": ids("2D", "3D"),
		"p3": ids("4S", "5S", "6S", "4D"),
	})
	moves := []game.Move{
		{Kind: game.MoveAsk, Player: "p3", Target: "p2", Card: card.MustParse("4S"), Success: true},
		{Kind: game.MoveAsk, Player: "p3", Target: "p4", Card: card.MustParse("5S"), Success: true},
		{Kind: game.MoveAsk, Player: "p3", Target: "p4", Card: card.MustParse("6S"), Success: true},
	}
	view := inference.Build("p1", s.Hands["p1"], s.PlayerOrder, s.TeamOf(), s.Groups(), moves)

	cmd, err := NewAdvisor(1).Decide(s, "p1", view)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	d, ok := cmd.(game.Declare)
	if !ok || d.Group != "S-low" {
		t.Fatalf("cmd = %+v, want S-low declaration", cmd)
	}
	s = apply(t, s, d, nil)
	if !s.Books["S-low"].Correct {
		t.Fatalf("declaration was wrong: %+v", d.Claim)
	}
}

func TestAdvisor_AsksLikeliestOpponent(t *testing.T) {
	s := literature(t, map[string]card.List{
		"p1": ids("AS"),
		"p2": ids("8H", "9H"),
		"p3": ids("3S", "8D"),
	})
	moves := []game.Move{
		{Kind: game.MoveAsk, Player: "p3", Target: "p2", Card: card.MustParse("2S"), Success: false},
	}
	view := inference.Build("p1", s.Hands["p1"], s.PlayerOrder, s.TeamOf(), s.Groups(), moves)

	for seed := int64(0); seed < 10; seed++ {
		cmd, err := NewAdvisor(seed).Decide(s, "p1", view)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		ask, ok := cmd.(game.Ask)
		if !ok || ask.Target != "p4" || ask.Card != card.MustParse("2S") {
			t.Fatalf("cmd = %+v, want ask p4 for 2S", cmd)
		}
	}
}

func TestAdvisor_AskTiesStayWithinBestSet(t *testing.T) {
	s := literature(t, map[string]card.List{
		"p1": ids("AS"),
		"p2": ids("8H", "9H"),
		"p3": ids("8D"),
	})
	view := inference.FromState(s, "p1")
	allowed := map[string]bool{"p2": true, "p4": true}
	for seed := int64(0); seed < 20; seed++ {
		cmd, err := NewAdvisor(seed).Decide(s, "p1", view)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		ask, ok := cmd.(game.Ask)
		if !ok || !allowed[ask.Target] || ask.Card.Suit() != card.Spade || ask.Card.Order() > 6 || ask.Card == card.MustParse("AS") {
			t.Fatalf("cmd = %+v outside the tie set", cmd)
		}
	}
}

func TestAdvisor_TransfersAfterDeclaring(t *testing.T) {
	s := literature(t, map[string]card.List{
		"p1": ids("AS", "2S", "3S", "4S", "5S", "6S", "8D"),
		"p2": ids("9D"),
		"p3": ids("2H", "3H", "4H"),
	})
	claim := rules.Claim{}
	for _, c := range ids("AS", "2S", "3S", "4S", "5S", "6S") {
		claim[c] = "p1"
	}
	s = apply(t, s, game.Declare{Player: "p1", Group: "S-low", Claim: claim}, nil)
	if s.CurrentTurn != "p1" {
		t.Fatalf("turn = %s", s.CurrentTurn)
	}

	moves := []game.Move{
		{Kind: game.MoveAsk, Player: "p3", Target: "p2", Card: card.MustParse("2H"), Success: true},
		{Kind: game.MoveAsk, Player: "p3", Target: "p4", Card: card.MustParse("3H"), Success: true},
		{Kind: game.MoveAsk, Player: "p3", Target: "p4", Card: card.MustParse("4H"), Success: true},
	}
	moves = append(moves, s.Moves...)
	view := inference.Build("p1", s.Hands["p1"], s.PlayerOrder, s.TeamOf(), s.Groups(), moves)

	cmd, err := NewAdvisor(1).Decide(s, "p1", view)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	tr, ok := cmd.(game.TransferTurn)
	if !ok || tr.Target != "p3" {
		t.Fatalf("cmd = %+v, want transfer to p3", cmd)
	}
	apply(t, s, tr, nil)
}

func TestAdvisor_GuessesWhenOpponentsAreEmpty(t *testing.T) {
	s := literature(t, map[string]card.List{
		"p1": ids("AS", "2S"),
		"p2": ids(),
		"p3": ids("3S"),
	})
	// p4 gets the rest; empty it too by moving everything to p3.
	s.Hands["p3"] = append(s.Hands["p3"], s.Hands["p4"]...)
	s.Hands["p4"] = nil

	cmd, err := NewAdvisor(3).Decide(s, "p1", inference.FromState(s, "p1"))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if _, ok := cmd.(game.Declare); !ok {
		t.Fatalf("cmd = %+v, want a declaration", cmd)
	}
	apply(t, s, cmd, nil)
}

// Every command a bot proposes is accepted by the state machine.
func TestBots_LiteratureAlwaysLegal(t *testing.T) {
	for _, variant := range []rules.Variant{rules.Literature, rules.Fish} {
		rng := rand.New(rand.NewSource(8))
		s, _ := game.NewGame(game.Config{Variant: variant, Seats: 6})
		s = apply(t, s, game.AddBots{}, nil)
		s = apply(t, s, game.FormTeams{}, nil)
		s = apply(t, s, game.StartDeal{}, rng)

		m := NewManager(99, 0, 0, nil)
		for step := 0; step < 4000 && s.Status == game.StatusInProgress; step++ {
			seat, ok := s.BotToAct()
			if !ok {
				t.Fatalf("no bot to act in %s", s.Status)
			}
			cmd, err := m.Decide(s, seat, inference.FromState(s, seat))
			if err != nil {
				t.Fatalf("%s step %d: Decide: %v", variant, step, err)
			}
			s = apply(t, s, cmd, rng)
		}
		t.Logf("%s after %d moves: %s", variant, len(s.Moves), s.Status)
	}
}

func TestBots_JudgementCompletes(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	s, _ := game.NewGame(game.Config{Variant: rules.Judgement, Seats: 3, Deals: 2})
	s = apply(t, s, game.AddBots{}, nil)
	m := NewManager(5, 0, 0, nil)

	for s.Status != game.StatusCompleted {
		if d := s.CurrentDeal(); d == nil || d.Complete() {
			s = apply(t, s, game.StartDeal{}, rng)
			continue
		}
		seat, ok := s.BotToAct()
		if !ok {
			t.Fatalf("no bot to act")
		}
		cmd, err := m.Decide(s, seat, nil)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		s = apply(t, s, cmd, rng)
	}
	if len(s.Deals) != 2 || len(s.Winners()) == 0 {
		t.Fatalf("deals = %d winners = %v", len(s.Deals), s.Winners())
	}
}

func TestManager_StableInstances(t *testing.T) {
	m := NewManager(1, 100*time.Millisecond, 50*time.Millisecond, nil)
	a := m.Instance("bot-a")
	if m.Instance("bot-a") != a {
		t.Fatalf("instance not reused")
	}
	d := m.ThinkDelay("bot-a")
	if d < 100*time.Millisecond || d >= 150*time.Millisecond {
		t.Fatalf("think delay = %v", d)
	}
	m.Forget("bot-a")
	if m.Instance("bot-a") == a {
		t.Fatalf("forgotten instance reused")
	}
}
