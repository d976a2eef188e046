package rules

import (
	"errors"
	"testing"

	"cardtable-lite/card"
)

func TestLiteratureGroups(t *testing.T) {
	groups := LiteratureGroups()
	if len(groups) != 8 {
		t.Fatalf("groups = %d, want 8", len(groups))
	}
	seen := map[card.Card]bool{}
	for _, g := range groups {
		if len(g.Cards) != 6 {
			t.Fatalf("%s has %d cards", g.ID, len(g.Cards))
		}
		for _, c := range g.Cards {
			if seen[c] || c.Rank() == 7 {
				t.Fatalf("bad card %v in %s", c, g.ID)
			}
			seen[c] = true
		}
	}
	if len(seen) != card.NoSevenDeckSize {
		t.Fatalf("groups cover %d cards", len(seen))
	}
}

func TestFishGroups(t *testing.T) {
	if n := len(FishGroups(false)); n != 13 {
		t.Fatalf("full deck books = %d", n)
	}
	books := FishGroups(true)
	if len(books) != 12 {
		t.Fatalf("no-seven books = %d", len(books))
	}
	g, ok := GroupOf(books, card.MustParse("TD"))
	if !ok || g.ID != "book-T" || len(g.Cards) != 4 {
		t.Fatalf("GroupOf(TD) = %+v, %v", g, ok)
	}
}

func TestLegalDeclaration(t *testing.T) {
	group, _ := GroupByID(LiteratureGroups(), "S-low")
	teamOf := map[string]string{"a": "t1", "b": "t1", "c": "t2", "d": "t2"}
	valid := Claim{}
	for i, c := range group.Cards {
		if i%2 == 0 {
			valid[c] = "a"
		} else {
			valid[c] = "b"
		}
	}
	if err := LegalDeclaration(valid, group, "a", teamOf); err != nil {
		t.Fatalf("valid claim rejected: %v", err)
	}

	short := Claim{}
	for c, p := range valid {
		short[c] = p
	}
	delete(short, group.Cards[0])
	wrongCard := Claim{}
	for c, p := range short {
		wrongCard[c] = p
	}
	wrongCard[card.MustParse("KH")] = "a"
	opponent := Claim{}
	for c, p := range valid {
		opponent[c] = p
	}
	opponent[group.Cards[1]] = "c"
	stranger := Claim{}
	for c, p := range valid {
		stranger[c] = p
	}
	stranger[group.Cards[1]] = "zed"
	withoutDeclarer := Claim{}
	for _, c := range group.Cards {
		withoutDeclarer[c] = "b"
	}

	for name, claim := range map[string]Claim{
		"short":            short,
		"wrong card":       wrongCard,
		"opponent named":   opponent,
		"stranger named":   stranger,
		"declarer missing": withoutDeclarer,
	} {
		err := LegalDeclaration(claim, group, "a", teamOf)
		if !errors.Is(err, ErrMalformedDeclaration) {
			t.Fatalf("%s: err = %v, want ErrMalformedDeclaration", name, err)
		}
		if IsLegalDeclaration(claim, group, "a", teamOf) {
			t.Fatalf("%s: IsLegalDeclaration true", name)
		}
	}
}

func TestRuleset_CheckSeats(t *testing.T) {
	lit, _ := For(Literature)
	for _, n := range []int{4, 6, 8} {
		if err := lit.CheckSeats(n); err != nil {
			t.Fatalf("literature %d seats: %v", n, err)
		}
	}
	if lit.CheckSeats(5) == nil || lit.CheckSeats(3) == nil {
		t.Fatalf("literature accepted odd seats")
	}
	judge, _ := For(Judgement)
	if judge.CheckSeats(5) == nil {
		t.Fatalf("judgement accepted 5 seats")
	}
	if got := judge.Tricks(4); got != 13 {
		t.Fatalf("judgement tricks(4) = %d", got)
	}
	if got := judge.Tricks(3); got != 16 {
		t.Fatalf("judgement tricks(3) = %d", got)
	}
	if _, err := For("poker"); err == nil {
		t.Fatalf("unknown variant accepted")
	}
}
