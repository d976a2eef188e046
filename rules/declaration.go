package rules

import (
	"errors"
	"fmt"

	"cardtable-lite/card"
)

var ErrMalformedDeclaration = errors.New("malformed declaration")

// Claim assigns every card of a group to the player believed to hold it.
type Claim map[card.Card]string

// LegalDeclaration checks the shape of a claim, not its truth: it must name
// exactly the cards of group, include the declarer, and only name players of
// the game who sit on the declarer's team. teamOf maps every seated player to
// their team.
func LegalDeclaration(claim Claim, group Group, declarer string, teamOf map[string]string) error {
	if len(claim) != len(group.Cards) {
		return fmt.Errorf("%w: %s needs %d cards, got %d", ErrMalformedDeclaration, group.ID, len(group.Cards), len(claim))
	}
	declarerTeam, ok := teamOf[declarer]
	if !ok {
		return fmt.Errorf("%w: declarer %s not in game", ErrMalformedDeclaration, declarer)
	}
	includesDeclarer := false
	for _, c := range group.Cards {
		owner, ok := claim[c]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrMalformedDeclaration, c.ID())
		}
		team, ok := teamOf[owner]
		if !ok {
			return fmt.Errorf("%w: player %s not in game", ErrMalformedDeclaration, owner)
		}
		if team != declarerTeam {
			return fmt.Errorf("%w: player %s is not a teammate", ErrMalformedDeclaration, owner)
		}
		if owner == declarer {
			includesDeclarer = true
		}
	}
	if !includesDeclarer {
		return fmt.Errorf("%w: declarer must hold a card of %s", ErrMalformedDeclaration, group.ID)
	}
	return nil
}

func IsLegalDeclaration(claim Claim, group Group, declarer string, teamOf map[string]string) bool {
	return LegalDeclaration(claim, group, declarer, teamOf) == nil
}
