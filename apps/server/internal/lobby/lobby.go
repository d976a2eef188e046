package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"cardtable-lite/apps/server/internal/store"
	"cardtable-lite/apps/server/internal/table"
	"cardtable-lite/game"
)

const createAttempts = 3

// Lobby manages all running tables and resolves join codes.
type Lobby struct {
	mu     sync.RWMutex
	tables map[string]*table.Table // game id -> table
	codes  map[string]string       // join code -> game id

	store     store.Service
	cfg       table.Config
	publisher table.Publisher
	logger    *slog.Logger
}

// New creates a lobby whose tables persist through svc.
func New(svc store.Service, cfg table.Config, logger *slog.Logger) *Lobby {
	if svc == nil {
		svc = store.NewMemoryService()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lobby{
		tables: make(map[string]*table.Table),
		codes:  make(map[string]string),
		store:  svc,
		cfg:    cfg,
		logger: logger,
	}
}

// SetPublisher routes the events of every current and future table to p.
func (l *Lobby) SetPublisher(p table.Publisher) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.publisher = p
	for _, t := range l.tables {
		t.SetPublisher(p)
	}
}

// CreateGame opens a new game and seats creator in it when creator is set.
func (l *Lobby) CreateGame(ctx context.Context, cfg game.Config, creator, name string) (*table.Table, error) {
	var s *game.State
	for attempt := 0; ; attempt++ {
		var err error
		s, err = game.NewGame(cfg)
		if err != nil {
			return nil, err
		}
		err = l.store.Save(ctx, s)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrCodeTaken) || attempt+1 >= createAttempts {
			return nil, fmt.Errorf("create game: %w", err)
		}
	}

	t := l.open(s)
	l.logger.Info("game created", "game", s.ID, "code", s.Code, "variant", s.Variant, "seats", s.Config.Seats)
	if creator == "" {
		return t, nil
	}
	if err := t.Submit(game.AddPlayer{Player: creator, DisplayName: name}); err != nil {
		return t, err
	}
	return t, nil
}

// JoinGame seats player in the game behind code. A player already seated
// simply gets the table back.
func (l *Lobby) JoinGame(ctx context.Context, code, player, name string) (*table.Table, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	t, err := l.tableByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if _, seated := t.State().Players[player]; seated {
		return t, nil
	}
	if err := t.Submit(game.AddPlayer{Player: player, DisplayName: name}); err != nil {
		return nil, err
	}
	l.logger.Info("player joined", "game", t.ID, "player", player)
	return t, nil
}

func (l *Lobby) tableByCode(ctx context.Context, code string) (*table.Table, error) {
	l.mu.RLock()
	id, ok := l.codes[code]
	t := l.tables[id]
	l.mu.RUnlock()
	if ok && t != nil {
		return t, nil
	}

	s, err := l.store.FindByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("no game with code %s", code)}
	}
	if err != nil {
		return nil, err
	}
	if s.Status == game.StatusCompleted {
		return nil, &game.Error{Kind: game.KindInvalidPhase, Message: fmt.Sprintf("game %s is completed", code)}
	}
	return l.open(s), nil
}

// open registers a table for s unless one is already running.
func (l *Lobby) open(s *game.State) *table.Table {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t := l.tables[s.ID]; t != nil {
		return t
	}
	t := table.New(s, l.cfg, table.Deps{
		Saver:     l.store,
		Publisher: l.publisher,
		Logger:    l.logger,

		GameEndHooks: []table.GameEndHook{l.handleGameEnd},
	})
	l.tables[s.ID] = t
	l.codes[s.Code] = s.ID
	return t
}

// handleGameEnd retires the join code of a finished game. The table stays
// so seated players can still fetch the final view.
func (l *Lobby) handleGameEnd(info table.GameEndInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.codes, info.State.Code)
}

// GetTable returns a table by game ID
func (l *Lobby) GetTable(gameID string) *table.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tables[gameID]
}

// ListTables returns all running game IDs
func (l *Lobby) ListTables() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.tables))
	for id := range l.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Recover restarts every unfinished game found in the store. Each table
// drives its game forward as soon as it starts.
func (l *Lobby) Recover(ctx context.Context) (int, error) {
	states, err := l.store.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("recover games: %w", err)
	}
	for _, s := range states {
		l.open(s)
	}
	if len(states) > 0 {
		l.logger.Info("games recovered", "count", len(states))
	}
	return len(states), nil
}

// Close stops every table.
func (l *Lobby) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, t := range l.tables {
		t.Stop()
		delete(l.tables, id)
	}
	l.codes = make(map[string]string)
}
