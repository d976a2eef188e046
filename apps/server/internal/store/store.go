// Package store persists committed game snapshots.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cardtable-lite/game"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

var (
	ErrNotFound  = errors.New("game not found")
	ErrCodeTaken = errors.New("join code already in use")
)

// Service stores the latest snapshot of every game. Save never moves a game
// back to an older version.
type Service interface {
	Close() error
	Save(ctx context.Context, s *game.State) error
	Load(ctx context.Context, id string) (*game.State, error)
	FindByCode(ctx context.Context, code string) (*game.State, error)
	// ListActive returns every game that is not completed.
	ListActive(ctx context.Context) ([]*game.State, error)
}

// Options selects and configures a backend.
type Options struct {
	Mode        string
	SQLitePath  string
	DatabaseURL string
}

func normalizeMode(raw string) string {
	switch mode := strings.ToLower(strings.TrimSpace(raw)); mode {
	case "", "mem", ModeMemory:
		return ModeMemory
	case "local", ModeSQLite:
		return ModeSQLite
	case "db", "postgresql", ModePostgres:
		return ModePostgres
	default:
		return mode
	}
}

// Open returns the backend named by opts.Mode and the resolved mode name.
func Open(opts Options) (Service, string, error) {
	mode := normalizeMode(opts.Mode)
	switch mode {
	case ModeMemory:
		return NewMemoryService(), mode, nil
	case ModeSQLite:
		svc, err := NewSQLiteService(opts.SQLitePath)
		return svc, mode, err
	case ModePostgres:
		svc, err := NewPostgresService(opts.DatabaseURL)
		return svc, mode, err
	default:
		return nil, mode, fmt.Errorf("invalid STORE_MODE %q (supported: %s, %s, %s)", mode, ModeMemory, ModeSQLite, ModePostgres)
	}
}

type memoryService struct {
	mu    sync.RWMutex
	games map[string]*game.State
	codes map[string]string
}

func NewMemoryService() Service {
	return &memoryService{
		games: make(map[string]*game.State),
		codes: make(map[string]string),
	}
}

func (m *memoryService) Close() error { return nil }

func (m *memoryService) Save(_ context.Context, s *game.State) error {
	if s == nil {
		return fmt.Errorf("nil state")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.codes[s.Code]; ok && owner != s.ID {
		return ErrCodeTaken
	}
	if cur, ok := m.games[s.ID]; ok && cur.Version > s.Version {
		return nil
	}
	m.games[s.ID] = s.Clone()
	m.codes[s.Code] = s.ID
	return nil
}

func (m *memoryService) Load(_ context.Context, id string) (*game.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *memoryService) FindByCode(ctx context.Context, code string) (*game.State, error) {
	m.mu.RLock()
	id, ok := m.codes[strings.ToUpper(strings.TrimSpace(code))]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.Load(ctx, id)
}

func (m *memoryService) ListActive(_ context.Context) ([]*game.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*game.State
	for _, s := range m.games {
		if s.Status != game.StatusCompleted {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
