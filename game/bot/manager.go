package bot

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"cardtable-lite/game"
	"cardtable-lite/inference"
)

// Instance is one bot seat with its own decider.
type Instance struct {
	PlayerID   string
	Brain      Decider
	ThinkDelay time.Duration
}

// Manager hands out a Decider per bot seat and paces their moves.
type Manager struct {
	instances map[string]*Instance // keyed by PlayerID
	mu        sync.RWMutex
	rng       *rand.Rand
	delay     time.Duration
	jitter    time.Duration
	logger    *slog.Logger
}

// NewManager seeds every bot from seed. delay is the base think time and
// jitter adds up to that much on top; both zero makes bots move at once.
func NewManager(seed int64, delay, jitter time.Duration, logger *slog.Logger) *Manager {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		instances: make(map[string]*Instance),
		rng:       rand.New(rand.NewSource(seed)),
		delay:     delay,
		jitter:    jitter,
		logger:    logger,
	}
}

// Instance returns the bot seated as playerID, creating it on first use.
func (m *Manager) Instance(playerID string) *Instance {
	m.mu.RLock()
	inst := m.instances[playerID]
	m.mu.RUnlock()
	if inst != nil {
		return inst
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if inst := m.instances[playerID]; inst != nil {
		return inst
	}
	think := m.delay
	if m.jitter > 0 {
		think += time.Duration(m.rng.Int63n(int64(m.jitter)))
	}
	inst = &Instance{
		PlayerID:   playerID,
		Brain:      NewAdvisor(m.rng.Int63()),
		ThinkDelay: think,
	}
	m.instances[playerID] = inst
	m.logger.Debug("bot spawned", "player", playerID, "think", think)
	return inst
}

// Decide asks the bot seated as playerID for its move.
func (m *Manager) Decide(s *game.State, playerID string, view *inference.View) (game.Command, error) {
	inst := m.Instance(playerID)
	cmd, err := inst.Brain.Decide(s, playerID, view)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("bot decides", "game", s.ID, "player", playerID, "command", cmd.Name())
	return cmd, nil
}

// ThinkDelay returns the pacing delay for a bot.
func (m *Manager) ThinkDelay(playerID string) time.Duration {
	return m.Instance(playerID).ThinkDelay
}

// Forget drops the bots of a finished game.
func (m *Manager) Forget(playerIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range playerIDs {
		delete(m.instances, id)
	}
}
