package game

type EventKind string

const (
	EventPlayerJoined     EventKind = "PLAYER_JOINED"
	EventAllPlayersJoined EventKind = "ALL_PLAYERS_JOINED"
	EventTeamsFormed      EventKind = "TEAMS_FORMED"
	EventDealCreated      EventKind = "DEAL_CREATED"
	EventCardsDealt       EventKind = "CARDS_DEALT"
	EventDealWinDeclared  EventKind = "DEAL_WIN_DECLARED"
	EventRoundCreated     EventKind = "ROUND_CREATED"
	EventCardPlayed       EventKind = "CARD_PLAYED"
	EventRoundCompleted   EventKind = "ROUND_COMPLETED"
	EventDealCompleted    EventKind = "DEAL_COMPLETED"
	EventCardAsked        EventKind = "CARD_ASKED"
	EventSetDeclared      EventKind = "SET_DECLARED"
	EventBookDeclared     EventKind = "BOOK_DECLARED"
	EventTurnUpdated      EventKind = "TURN_UPDATED"
	EventGameCompleted    EventKind = "GAME_COMPLETED"
)

// Event is a notification produced by a committed command. Empty Recipients
// means every player of the game.
type Event struct {
	Kind       EventKind      `json:"kind"`
	GameID     string         `json:"game_id"`
	Version    int64          `json:"version"`
	Payload    map[string]any `json:"payload,omitempty"`
	Recipients []string       `json:"recipients,omitempty"`
}

// Broadcast reports whether every player receives the event.
func (e Event) Broadcast() bool {
	return len(e.Recipients) == 0
}

// For reports whether player should receive the event.
func (e Event) For(player string) bool {
	if e.Broadcast() {
		return true
	}
	for _, r := range e.Recipients {
		if r == player {
			return true
		}
	}
	return false
}

func newEvent(kind EventKind, payload map[string]any, recipients ...string) Event {
	return Event{Kind: kind, Payload: payload, Recipients: recipients}
}
