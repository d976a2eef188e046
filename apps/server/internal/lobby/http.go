package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cardtable-lite/apps/server/internal/store"
	"cardtable-lite/game"
)

// HTTPHandler serves read-only game listings and move histories.
type HTTPHandler struct {
	lobby *Lobby
}

type errorResponse struct {
	Error string `json:"error"`
}

type gameSummary struct {
	ID          string      `json:"id"`
	Code        string      `json:"code"`
	Variant     string      `json:"variant"`
	Status      game.Status `json:"status"`
	Version     int64       `json:"version"`
	Seats       int         `json:"seats"`
	Players     int         `json:"players"`
	CurrentTurn string      `json:"current_turn,omitempty"`
}

func NewHTTPHandler(lby *Lobby) *HTTPHandler {
	return &HTTPHandler{lobby: lby}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/games", h.handleList)
	mux.HandleFunc("/api/games/", h.handleGame)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ids := h.lobby.ListTables()
	items := make([]gameSummary, 0, len(ids))
	for _, id := range ids {
		if t := h.lobby.GetTable(id); t != nil {
			items = append(items, summarize(t.State()))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleGame serves /api/games/{id} (the player's view) and
// /api/games/{id}/moves (the public move log).
func (h *HTTPHandler) handleGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/games/"))
	parts := strings.Split(path, "/")
	gameID := strings.TrimSpace(parts[0])
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	s, err := h.lobby.snapshot(ctx, gameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "load game failed")
		return
	}

	switch {
	case len(parts) == 1:
		player := strings.TrimSpace(r.URL.Query().Get("player"))
		if _, ok := s.Players[player]; !ok {
			writeError(w, http.StatusForbidden, "not a player of this game")
			return
		}
		writeJSON(w, http.StatusOK, game.ViewFor(s, player))
	case len(parts) == 2 && parts[1] == "moves":
		moves := s.Moves
		if limit := parseLimit(r.URL.Query().Get("limit")); len(moves) > limit {
			moves = moves[len(moves)-limit:]
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"game":  summarize(s),
			"moves": moves,
		})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// snapshot prefers the running table and falls back to the store, which
// also holds finished games.
func (l *Lobby) snapshot(ctx context.Context, gameID string) (*game.State, error) {
	if t := l.GetTable(gameID); t != nil {
		return t.State(), nil
	}
	return l.store.Load(ctx, gameID)
}

func summarize(s *game.State) gameSummary {
	return gameSummary{
		ID:          s.ID,
		Code:        s.Code,
		Variant:     string(s.Variant),
		Status:      s.Status,
		Version:     s.Version,
		Seats:       s.Config.Seats,
		Players:     len(s.PlayerOrder),
		CurrentTurn: s.CurrentTurn,
	}
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 100
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 100
	}
	if n > 1000 {
		return 1000
	}
	return n
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
