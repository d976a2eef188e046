package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cardtable-lite/apps/server/internal/codec"
	"cardtable-lite/apps/server/internal/lobby"
	"cardtable-lite/apps/server/internal/table"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *Gateway) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lby := lobby.New(nil, table.Config{AutoStart: true, StrictBots: true, TickInterval: time.Hour}, logger)
	gw := New(lby, logger)
	lby.SetPublisher(gw)
	srv := httptest.NewServer(http.HandlerFunc(gw.HandleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		lby.Close()
	})
	return srv, gw
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type reply struct {
	Type   string         `json:"type"`
	GameID string         `json:"game_id"`
	View   map[string]any `json:"view"`
	Event  map[string]any `json:"event"`
	Error  struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func readUntil(t *testing.T, conn *websocket.Conn, want string) (reply, []reply) {
	t.Helper()
	var seen []reply
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read waiting for %s: %v", want, err)
		}
		var r reply
		if err := json.Unmarshal(data, &r); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		if r.Type == want {
			return r, seen
		}
		seen = append(seen, r)
	}
}

func TestCreateAddBotsAndPlay(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "player=alice&name=Alice")

	send := func(msg string) {
		t.Helper()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	send(`{"type":"create_game","config":{"variant":"judgement","seats":2,"deals":1}}`)
	created, _ := readUntil(t, conn, "view")
	if created.View["status"] != "CREATED" || created.View["me"] != "alice" {
		t.Fatalf("unexpected view after create: %v", created.View)
	}

	send(`{"type":"add_bots","count":1}`)
	dealt, events := readUntil(t, conn, "view")
	if dealt.View["status"] != "IN_PROGRESS" {
		t.Fatalf("status = %v, want IN_PROGRESS", dealt.View["status"])
	}
	privateHands := 0
	for _, e := range events {
		if e.Type == "event" && e.Event["kind"] == "CARDS_DEALT" {
			privateHands++
		}
	}
	if privateHands != 1 {
		t.Fatalf("received %d CARDS_DEALT events, want only alice's", privateHands)
	}
	hand, _ := dealt.View["hand"].([]any)
	if len(hand) != 26 {
		t.Fatalf("hand size = %d, want 26", len(hand))
	}

	send(`{"type":"play_card","card":"` + hand[0].(string) + `"}`)
	failed, _ := readUntil(t, conn, "error")
	if failed.Error.Kind != "INVALID_PHASE" {
		t.Fatalf("error kind = %q, want INVALID_PHASE", failed.Error.Kind)
	}

	send(`{"type":"declare_wins","wins":3}`)
	declared, _ := readUntil(t, conn, "view")
	deal, _ := declared.View["deal"].(map[string]any)
	if deal == nil || deal["status"] != "ROUND_IN_PROGRESS" {
		t.Fatalf("deal after declarations: %v", deal)
	}
}

func TestErrorsCarryKinds(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "player=bob")

	for msg, kind := range map[string]string{
		`not json`:                                 KindBadRequest,
		`{"type":"play_card","card":"AS"}`:         KindBadRequest,
		`{"type":"join_game","code":"NOPE42"}`:     "NOT_FOUND",
		`{"type":"dance"}`:                         KindBadRequest,
		`{"type":"view","game_id":"missing-game"}`: "NOT_FOUND",
	} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
		r, _ := readUntil(t, conn, "error")
		if r.Error.Kind != kind {
			t.Fatalf("%s: kind = %q, want %q", msg, r.Error.Kind, kind)
		}
	}
}

func TestBinaryFrames(t *testing.T) {
	srv, gw := newTestServer(t)
	conn := dial(t, srv, "player=carol&format=binary")

	data, err := codec.EncodeEnvelope(map[string]any{
		"type":   "create_game",
		"config": map[string]any{"variant": "literature", "seats": 4},
	}, true)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	frame, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame != websocket.BinaryMessage {
		t.Fatalf("frame type = %d, want binary", frame)
	}
	env, err := codec.DecodeEnvelope(raw, true)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env["type"] != "view" {
		t.Fatalf("reply type = %v", env["type"])
	}
	if gw.Connections() != 1 {
		t.Fatalf("connections = %d", gw.Connections())
	}
}

func TestPlayerIsRequired(t *testing.T) {
	srv, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("dial without player should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 response")
	}
}

func TestOutsiderCannotFillAnotherGame(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := dial(t, srv, "player=alice")
	if err := alice.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"create_game","config":{"variant":"literature","seats":6}}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	created, _ := readUntil(t, alice, "view")

	mallory := dial(t, srv, "player=mallory")
	for _, msgType := range []string{"add_bots", "form_teams"} {
		msg := `{"type":"` + msgType + `","game_id":"` + created.GameID + `"}`
		if err := mallory.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
		r, _ := readUntil(t, mallory, "error")
		if r.Error.Kind != "NOT_FOUND" {
			t.Fatalf("%s by outsider: kind = %q, want NOT_FOUND", msgType, r.Error.Kind)
		}
	}

	if err := alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"view"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	view, _ := readUntil(t, alice, "view")
	players, _ := view.View["players"].([]any)
	if len(players) != 1 || view.View["status"] != "CREATED" {
		t.Fatalf("outsider changed the game: %d players, status %v", len(players), view.View["status"])
	}
}
