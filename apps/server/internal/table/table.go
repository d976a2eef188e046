package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"cardtable-lite/game"
	"cardtable-lite/game/bot"
	"cardtable-lite/inference"
	"cardtable-lite/rules"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Table owns one game. Every write goes through the actor goroutine; reads
// load the last committed state without blocking it.
type Table struct {
	ID     string
	Config Config

	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once

	state atomic.Pointer[game.State]

	// Event channel for actor pattern
	events chan Event
	done   chan struct{}

	// Actor-owned scheduling state.
	rng        *rand.Rand
	nextDealAt time.Time
	botVersion int64
	botDueAt   time.Time
	stalledAt  int64
	ended      bool

	bots      BotDriver
	saver     Saver
	publisher Publisher
	views     *lru.Cache[viewKey, *inference.View]
	logger    *slog.Logger
	faults    atomic.Int64

	gameEndHooks []GameEndHook
}

// Config contains the pacing knobs of a table.
type Config struct {
	// BotDelay is the base think time of a bot; 0 plays bots synchronously
	// inside the actor turn that handed them the move.
	BotDelay  time.Duration
	BotJitter time.Duration
	// DealDelay separates two judgement deals.
	DealDelay    time.Duration
	TickInterval time.Duration
	// AutoStart deals as soon as every seat is filled.
	AutoStart bool
	// StrictBots panics on a bot fault instead of logging it.
	StrictBots         bool
	Seed               int64
	InferenceCacheSize int
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = 500 * time.Millisecond
	}
	if c.InferenceCacheSize <= 0 {
		c.InferenceCacheSize = 64
	}
	return c
}

// Saver persists a state before it becomes visible.
type Saver interface {
	Save(ctx context.Context, s *game.State) error
}

// Publisher fans committed events out to players.
type Publisher interface {
	Publish(gameID string, events []game.Event)
}

// BotDriver picks moves for bot seats. *bot.Manager implements it.
type BotDriver interface {
	Decide(s *game.State, playerID string, view *inference.View) (game.Command, error)
	ThinkDelay(playerID string) time.Duration
	Forget(playerIDs ...string)
}

type Deps struct {
	Saver     Saver
	Publisher Publisher
	Bots      BotDriver
	Logger    *slog.Logger
	// Hooks registered before the actor starts, so a recovered game that
	// finishes at once still reports.
	GameEndHooks []GameEndHook
}

// Event types for the actor message queue
type EventType int

const (
	EventCommand EventType = iota
	EventDrive
)

// Event represents a message to the table actor
type Event struct {
	Type      EventType
	Command   game.Command
	Timestamp time.Time
	Response  chan error
}

// GameEndInfo is emitted once when the game completes.
type GameEndInfo struct {
	GameID  string
	State   *game.State
	Winners []string
}

// GameEndHook is a post-game callback.
type GameEndHook func(info GameEndInfo)

type viewKey struct {
	observer string
	version  int64
}

var (
	ErrTableClosed = errors.New("table closed")
	// ErrBotFault marks a bot move the rules rejected. It means the advisor
	// and the rules disagree.
	ErrBotFault = errors.New("bot fault")
	// ErrPersist marks a command the store failed to save. The state is
	// unchanged and automatic steps retry on the next tick.
	ErrPersist = errors.New("persist failed")
)

const (
	saveTimeout = 3 * time.Second
	// Bound on automatic commits per actor turn; the next tick resumes.
	maxAutoSteps = 4096
)

// New starts the actor for s, which must be the last committed state.
func New(s *game.State, cfg Config, deps Deps) *Table {
	cfg = cfg.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	seed := s.Config.Seed
	if seed == 0 {
		seed = cfg.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	bots := deps.Bots
	if bots == nil {
		bots = bot.NewManager(seed, cfg.BotDelay, cfg.BotJitter, logger)
	}
	views, err := lru.New[viewKey, *inference.View](cfg.InferenceCacheSize)
	if err != nil {
		panic(err)
	}

	t := &Table{
		ID:        s.ID,
		Config:    cfg,
		events:    make(chan Event, 256),
		done:      make(chan struct{}),
		rng:       rand.New(rand.NewSource(seed + s.Version)),
		stalledAt: -1,
		bots:      bots,
		saver:     deps.Saver,
		publisher: deps.Publisher,
		views:     views,
		logger:    logger.With("game", s.ID),

		gameEndHooks: append([]GameEndHook(nil), deps.GameEndHooks...),
	}
	t.state.Store(s)

	go t.run()

	t.logger.Info("table created", "variant", s.Variant, "seats", s.Config.Seats, "version", s.Version)
	return t
}

// run is the main actor loop
func (t *Table) run() {
	ticker := time.NewTicker(t.Config.TickInterval)
	defer ticker.Stop()

	// A recovered game may be waiting on a bot or a deal.
	t.advance(time.Now())

	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			t.advance(time.Now())
		case <-t.done:
			t.logger.Debug("actor stopped")
			return
		}
	}
}

func (t *Table) handleEvent(e Event) error {
	// Overdue bots move before the new command is judged.
	t.advance(e.Timestamp)
	switch e.Type {
	case EventCommand:
		if err := t.commit(e.Command); err != nil {
			return err
		}
		t.advance(time.Now())
		return nil
	case EventDrive:
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

// advance commits every automatic step that is due: forming teams, dealing,
// the next judgement deal and bot moves.
func (t *Table) advance(now time.Time) {
	for step := 0; step < maxAutoSteps; step++ {
		s := t.state.Load()
		cmd, botID := t.nextAutomatic(s, now)
		if cmd == nil {
			return
		}
		if err := t.commit(cmd); err != nil {
			if errors.Is(err, ErrPersist) {
				t.logger.Warn("automatic step not saved, retrying", "command", cmd.Name(), "err", err)
				return
			}
			if botID != "" {
				t.botFault(s, botID, cmd, err)
			} else {
				t.logger.Error("automatic step failed", "command", cmd.Name(), "err", err)
				t.stalledAt = s.Version
			}
			return
		}
		now = time.Now()
	}
}

// nextAutomatic returns the command the table should issue on its own, and
// the bot seat issuing it when there is one.
func (t *Table) nextAutomatic(s *game.State, now time.Time) (game.Command, string) {
	if s.Version == t.stalledAt {
		return nil, ""
	}
	teamed := s.Ruleset().Teamed
	switch s.Status {
	case game.StatusPlayersReady:
		if teamed {
			return game.FormTeams{}, ""
		}
		if t.Config.AutoStart {
			return game.StartDeal{}, ""
		}
		return nil, ""
	case game.StatusTeamsCreated:
		if t.Config.AutoStart {
			return game.StartDeal{}, ""
		}
		return nil, ""
	case game.StatusInProgress:
	default:
		return nil, ""
	}

	if s.Variant == rules.Judgement {
		if d := s.CurrentDeal(); d != nil && d.Complete() && len(s.Deals) < s.Config.Deals {
			if t.nextDealAt.IsZero() {
				t.nextDealAt = now.Add(t.Config.DealDelay)
			}
			if now.Before(t.nextDealAt) {
				return nil, ""
			}
			t.nextDealAt = time.Time{}
			return game.StartDeal{}, ""
		}
	}

	playerID, ok := s.BotToAct()
	if !ok {
		return nil, ""
	}
	if t.botVersion != s.Version || t.botDueAt.IsZero() {
		t.botVersion = s.Version
		t.botDueAt = now.Add(t.bots.ThinkDelay(playerID))
	}
	if now.Before(t.botDueAt) {
		return nil, ""
	}
	t.botDueAt = time.Time{}

	var view *inference.View
	if teamed {
		view = t.inferenceView(s, playerID)
	}
	cmd, err := t.bots.Decide(s, playerID, view)
	if err != nil {
		t.botFault(s, playerID, nil, err)
		return nil, ""
	}
	return cmd, playerID
}

func (t *Table) botFault(s *game.State, playerID string, cmd game.Command, cause error) {
	t.faults.Add(1)
	t.stalledAt = s.Version
	err := fmt.Errorf("%w: %s at version %d: %v", ErrBotFault, playerID, s.Version, cause)
	name := ""
	if cmd != nil {
		name = cmd.Name()
	}
	t.logger.Error("bot move rejected", "player", playerID, "command", name, "err", err)
	if t.Config.StrictBots {
		panic(err)
	}
}

// commit applies cmd, persists the result and only then makes it visible.
func (t *Table) commit(cmd game.Command) error {
	prev := t.state.Load()
	next, events, err := game.Apply(prev, cmd, t.rng)
	if err != nil {
		return err
	}
	if t.saver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		err := t.saver.Save(ctx, next)
		cancel()
		if err != nil {
			return fmt.Errorf("%w: game %s version %d: %w", ErrPersist, next.ID, next.Version, err)
		}
	}
	t.state.Store(next)
	t.stalledAt = -1

	t.mu.RLock()
	pub := t.publisher
	t.mu.RUnlock()
	if pub != nil && len(events) > 0 {
		pub.Publish(next.ID, events)
	}
	if next.Status == game.StatusCompleted && !t.ended {
		t.ended = true
		t.handleGameEnd(next)
	}
	return nil
}

func (t *Table) handleGameEnd(s *game.State) {
	var botIDs []string
	for _, id := range s.PlayerOrder {
		if p := s.Players[id]; p != nil && p.IsBot {
			botIDs = append(botIDs, id)
		}
	}
	t.bots.Forget(botIDs...)
	winners := s.Winners()
	t.logger.Info("game completed", "version", s.Version, "winners", winners)

	t.mu.RLock()
	hooks := append([]GameEndHook(nil), t.gameEndHooks...)
	t.mu.RUnlock()
	info := GameEndInfo{GameID: s.ID, State: s, Winners: winners}
	for _, hook := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Error("game end hook panicked", "panic", r)
				}
			}()
			hook(info)
		}()
	}
}

func (t *Table) inferenceView(s *game.State, observer string) *inference.View {
	key := viewKey{observer: observer, version: s.Version}
	if v, ok := t.views.Get(key); ok {
		return v
	}
	v := inference.FromState(s, observer)
	t.views.Add(key, v)
	return v
}

// Submit queues cmd and waits for the actor to commit or reject it.
func (t *Table) Submit(cmd game.Command) error {
	return t.SubmitEvent(Event{Type: EventCommand, Command: cmd})
}

// Drive asks the actor to run any automatic steps that are due.
func (t *Table) Drive() error {
	return t.SubmitEvent(Event{Type: EventDrive})
}

func (t *Table) SubmitEvent(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	}
}

// Stop terminates the actor. Queued events are answered with ErrTableClosed.
func (t *Table) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopOnce.Do(func() {
		t.closed = true
		close(t.done)
	})
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// State returns the last committed state. Callers must not modify it.
func (t *Table) State() *game.State {
	return t.state.Load()
}

// View projects the committed state for player.
func (t *Table) View(player string) (game.View, error) {
	s := t.state.Load()
	if _, ok := s.Players[player]; !ok {
		return game.View{}, &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("player %s is not in game %s", player, s.ID)}
	}
	return game.ViewFor(s, player), nil
}

// InferenceView returns observer's ownership view of the committed state.
func (t *Table) InferenceView(observer string) *inference.View {
	return t.inferenceView(t.state.Load(), observer)
}

// BotFaults counts rejected bot moves.
func (t *Table) BotFaults() int64 {
	return t.faults.Load()
}

func (t *Table) SetPublisher(p Publisher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.publisher = p
}

func (t *Table) AddGameEndHook(hook GameEndHook) {
	if hook == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gameEndHooks = append(t.gameEndHooks, hook)
}
