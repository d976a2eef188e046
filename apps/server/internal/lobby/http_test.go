package lobby

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cardtable-lite/apps/server/internal/table"
	"cardtable-lite/game"
	"cardtable-lite/rules"
)

func TestHTTPViewAndMoves(t *testing.T) {
	ctx := context.Background()
	l := testLobby(t, nil, table.Config{AutoStart: true, StrictBots: true})
	tbl, err := l.CreateGame(ctx, game.Config{Variant: rules.Judgement, Seats: 2, Deals: 1}, "alice", "Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tbl.Submit(game.AddBots{}); err != nil {
		t.Fatalf("add bots: %v", err)
	}
	if err := tbl.Submit(game.DeclareExpectedWins{Player: "alice", Wins: 1}); err != nil {
		t.Fatalf("declare: %v", err)
	}

	mux := http.NewServeMux()
	NewHTTPHandler(l).RegisterRoutes(mux)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/api/games")
	var list struct {
		Items []gameSummary `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil || len(list.Items) != 1 {
		t.Fatalf("list: %v, %d items", err, len(list.Items))
	}

	rec = get("/api/games/" + tbl.ID + "?player=alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("view status = %d", rec.Code)
	}
	var view game.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Me != "alice" || len(view.Hand) != 26 {
		t.Fatalf("view for %q with %d cards", view.Me, len(view.Hand))
	}

	if rec := get("/api/games/" + tbl.ID + "?player=eve"); rec.Code != http.StatusForbidden {
		t.Fatalf("stranger status = %d, want 403", rec.Code)
	}

	rec = get("/api/games/" + tbl.ID + "/moves?limit=1")
	var moves struct {
		Moves []game.Move `json:"moves"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&moves); err != nil || len(moves.Moves) != 1 {
		t.Fatalf("moves: %v, %d", err, len(moves.Moves))
	}

	if rec := get("/api/games/missing"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", rec.Code)
	}
}
