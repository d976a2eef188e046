package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"cardtable-lite/apps/server/internal/codec"
	"cardtable-lite/apps/server/internal/lobby"
	"cardtable-lite/apps/server/internal/table"
	"cardtable-lite/card"
	"cardtable-lite/game"
	"cardtable-lite/rules"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	requestTimeout = 5 * time.Second

	KindBadRequest = "BAD_REQUEST"
	KindBotFault   = "BOT_FAULT"
	KindInternal   = "INTERNAL"
)

// Connection represents a WebSocket client connection
type Connection struct {
	ID       string
	PlayerID string
	Name     string
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway
	LastPing time.Time
	Binary   bool

	// Current game association, guarded by Gateway.mu.
	gameID string
	table  *table.Table
}

// Gateway manages WebSocket connections and publishes table events to them.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	userConns   map[string]*Connection // player id -> connection
	nextConnID  uint64
	lobby       *lobby.Lobby
	logger      *slog.Logger
}

// New creates a new Gateway instance
func New(lby *lobby.Lobby, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		connections: make(map[string]*Connection),
		userConns:   make(map[string]*Connection),
		lobby:       lby,
		logger:      logger,
	}
}

// HandleWebSocket upgrades the request. The caller names itself with the
// player query parameter; format=binary selects protobuf frames.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	playerID := strings.TrimSpace(q.Get("player"))
	if playerID == "" {
		http.Error(w, "player is required", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	c := &Connection{
		ID:       fmt.Sprintf("conn_%d", g.nextConnID),
		PlayerID: playerID,
		Name:     strings.TrimSpace(q.Get("name")),
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Gateway:  g,
		LastPing: time.Now(),
		Binary:   q.Get("format") == "binary",
	}
	g.connections[c.ID] = c
	g.userConns[playerID] = c
	total := len(g.connections)
	g.mu.Unlock()

	g.logger.Info("client connected", "conn", c.ID, "player", playerID, "total", total)

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(65536)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Gateway.logger.Warn("websocket read failed", "conn", c.ID, "err", err)
			}
			break
		}
		c.handleMessage(message, messageType == websocket.BinaryMessage)
	}
}

// request is the client envelope. Fields unused by a type are ignored.
type request struct {
	Type   string       `json:"type"`
	GameID string       `json:"game_id"`
	Code   string       `json:"code"`
	Config *game.Config `json:"config"`
	Count  int          `json:"count"`
	Wins   int          `json:"wins"`
	Card   string       `json:"card"`
	Target string       `json:"target"`
	Group  string       `json:"group"`
	Claim  rules.Claim  `json:"claim"`
}

func (c *Connection) handleMessage(data []byte, binary bool) {
	env, err := codec.DecodeEnvelope(data, binary)
	if err != nil {
		c.sendError("", KindBadRequest, "invalid message format")
		return
	}
	var req request
	if err := codec.FromMap(env, &req); err != nil {
		c.sendError("", KindBadRequest, err.Error())
		return
	}
	c.Gateway.logger.Debug("request", "conn", c.ID, "player", c.PlayerID, "type", req.Type, "game", req.GameID)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch req.Type {
	case "create_game":
		if req.Config == nil {
			c.sendError("", KindBadRequest, "config is required")
			return
		}
		t, err := c.Gateway.lobby.CreateGame(ctx, *req.Config, c.PlayerID, c.Name)
		if err != nil {
			c.sendError("", errorKind(err), err.Error())
			return
		}
		c.Gateway.attach(c, t)
		c.sendView(t)
	case "join_game":
		t, err := c.Gateway.lobby.JoinGame(ctx, req.Code, c.PlayerID, c.Name)
		if err != nil {
			c.sendError("", errorKind(err), err.Error())
			return
		}
		c.Gateway.attach(c, t)
		c.sendView(t)
	case "view":
		t, err := c.Gateway.tableFor(c, req.GameID)
		if err != nil {
			c.sendError(req.GameID, errorKind(err), err.Error())
			return
		}
		c.sendView(t)
	default:
		cmd, err := c.command(req)
		if err != nil {
			c.sendError(req.GameID, errorKind(err), err.Error())
			return
		}
		t, err := c.Gateway.tableFor(c, req.GameID)
		if err != nil {
			c.sendError(req.GameID, errorKind(err), err.Error())
			return
		}
		if err := t.Submit(cmd); err != nil {
			c.sendError(t.ID, errorKind(err), err.Error())
			return
		}
		c.sendView(t)
	}
}

// command maps a request onto a game command issued by this connection's
// player.
func (c *Connection) command(req request) (game.Command, error) {
	parseCard := func() (card.Card, error) {
		cd, err := card.ParseID(req.Card)
		if err != nil {
			return card.CardInvalid, &game.Error{Kind: game.KindIllegalMove, Message: err.Error()}
		}
		return cd, nil
	}
	switch req.Type {
	case "add_bots":
		return game.AddBots{Player: c.PlayerID, Count: req.Count}, nil
	case "form_teams":
		return game.FormTeams{Player: c.PlayerID}, nil
	case "start_deal":
		return game.StartDeal{Player: c.PlayerID}, nil
	case "declare_wins":
		return game.DeclareExpectedWins{Player: c.PlayerID, Wins: req.Wins}, nil
	case "play_card":
		cd, err := parseCard()
		if err != nil {
			return nil, err
		}
		return game.PlayCard{Player: c.PlayerID, Card: cd}, nil
	case "ask":
		cd, err := parseCard()
		if err != nil {
			return nil, err
		}
		return game.Ask{Player: c.PlayerID, Target: req.Target, Card: cd}, nil
	case "declare", "declare_set", "claim_book":
		return game.Declare{Player: c.PlayerID, Group: req.Group, Claim: req.Claim}, nil
	case "transfer_turn":
		return game.TransferTurn{Player: c.PlayerID, Target: req.Target}, nil
	default:
		return nil, badRequest(fmt.Sprintf("unknown message type %q", req.Type))
	}
}

type requestError string

func (e requestError) Error() string { return string(e) }

func badRequest(msg string) error { return requestError(msg) }

// errorKind maps an error onto the kind reported to clients.
func errorKind(err error) string {
	var gerr *game.Error
	var rerr requestError
	switch {
	case errors.As(err, &gerr):
		return string(gerr.Kind)
	case errors.As(err, &rerr):
		return KindBadRequest
	case errors.Is(err, table.ErrBotFault):
		return KindBotFault
	case errors.Is(err, table.ErrTableClosed):
		return string(game.KindInvalidPhase)
	default:
		return KindInternal
	}
}

func (g *Gateway) attach(c *Connection, t *table.Table) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c.gameID = t.ID
	c.table = t
}

// tableFor resolves the game a request targets: gameID when set, else the
// connection's current game.
func (g *Gateway) tableFor(c *Connection, gameID string) (*table.Table, error) {
	g.mu.RLock()
	t := c.table
	g.mu.RUnlock()
	if gameID != "" && (t == nil || t.ID != gameID) {
		t = g.lobby.GetTable(gameID)
		if t == nil {
			return nil, &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("no game %s", gameID)}
		}
		g.attach(c, t)
	}
	if t == nil {
		return nil, badRequest("not in a game")
	}
	return t, nil
}

func (c *Connection) sendView(t *table.Table) {
	view, err := t.View(c.PlayerID)
	if err != nil {
		c.sendError(t.ID, errorKind(err), err.Error())
		return
	}
	m, err := codec.ToMap(view)
	if err != nil {
		c.sendError(t.ID, KindInternal, err.Error())
		return
	}
	c.send(map[string]any{"type": "view", "game_id": t.ID, "view": m})
}

func (c *Connection) sendError(gameID, kind, msg string) {
	c.send(map[string]any{
		"type":    "error",
		"game_id": gameID,
		"error":   map[string]any{"kind": kind, "message": msg},
	})
}

func (c *Connection) send(env map[string]any) {
	data, err := codec.EncodeEnvelope(env, c.Binary)
	if err != nil {
		c.Gateway.logger.Error("encode envelope", "conn", c.ID, "err", err)
		return
	}
	select {
	case c.Send <- data:
	default:
		// Drop if buffer full
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	frame := websocket.TextMessage
	if c.Binary {
		frame = websocket.BinaryMessage
	}
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(frame, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.connections, c.ID)
	if g.userConns[c.PlayerID] == c {
		delete(g.userConns, c.PlayerID)
	}
	g.logger.Info("client disconnected", "conn", c.ID, "player", c.PlayerID, "total", len(g.connections))
}

// Publish implements table.Publisher: each event goes to the connected
// recipients that are looking at the game.
func (g *Gateway) Publish(gameID string, events []game.Event) {
	g.mu.RLock()
	var conns []*Connection
	for _, c := range g.userConns {
		if c.gameID == gameID {
			conns = append(conns, c)
		}
	}
	g.mu.RUnlock()

	for _, e := range events {
		payload, err := codec.ToMap(e)
		if err != nil {
			g.logger.Error("encode event", "game", gameID, "kind", e.Kind, "err", err)
			continue
		}
		for _, c := range conns {
			if e.For(c.PlayerID) {
				c.send(map[string]any{"type": "event", "game_id": gameID, "event": payload})
			}
		}
	}
}

// Connections returns the number of open connections.
func (g *Gateway) Connections() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}
