package store

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"cardtable-lite/game"
	"cardtable-lite/rules"
)

func dealtGame(t *testing.T) *game.State {
	t.Helper()
	s, err := game.NewGame(game.Config{Variant: rules.Literature, Seats: 4})
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	rng := rand.New(rand.NewSource(1))
	for _, cmd := range []game.Command{
		game.AddPlayer{Player: "alice"},
		game.AddBots{},
		game.FormTeams{},
		game.StartDeal{},
	} {
		s, _, err = game.Apply(s, cmd, rng)
		if err != nil {
			t.Fatalf("%s: %v", cmd.Name(), err)
		}
	}
	return s
}

func backends(t *testing.T) map[string]Service {
	t.Helper()
	sqliteMem, err := NewSQLiteService(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqliteFile, err := NewSQLiteService(filepath.Join(t.TempDir(), "data", "games.db"))
	if err != nil {
		t.Fatalf("open sqlite file: %v", err)
	}
	out := map[string]Service{
		"memory":        NewMemoryService(),
		"sqlite-memory": sqliteMem,
		"sqlite-file":   sqliteFile,
	}
	t.Cleanup(func() {
		for _, svc := range out {
			_ = svc.Close()
		}
	})
	return out
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, svc := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := dealtGame(t)
			if err := svc.Save(ctx, s); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := svc.Load(ctx, s.ID)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got.Version != s.Version || got.Status != s.Status || got.CurrentTurn != s.CurrentTurn {
				t.Fatalf("loaded %s v%d turn %s, saved %s v%d turn %s",
					got.Status, got.Version, got.CurrentTurn, s.Status, s.Version, s.CurrentTurn)
			}
			for _, id := range s.PlayerOrder {
				if len(got.Hands[id]) != len(s.Hands[id]) {
					t.Fatalf("hand of %s: %d cards, want %d", id, len(got.Hands[id]), len(s.Hands[id]))
				}
			}

			byCode, err := svc.FindByCode(ctx, " "+s.Code+" ")
			if err != nil || byCode.ID != s.ID {
				t.Fatalf("find by code: %v", err)
			}
			if _, err := svc.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("missing id: got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSaveNeverRewindsVersion(t *testing.T) {
	ctx := context.Background()
	for name, svc := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := dealtGame(t)
			older := s.Clone()
			older.Version--
			if err := svc.Save(ctx, s); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := svc.Save(ctx, older); err != nil {
				t.Fatalf("save older: %v", err)
			}
			got, err := svc.Load(ctx, s.ID)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got.Version != s.Version {
				t.Fatalf("version = %d, want %d", got.Version, s.Version)
			}
		})
	}
}

func TestListActiveSkipsCompleted(t *testing.T) {
	ctx := context.Background()
	for name, svc := range backends(t) {
		t.Run(name, func(t *testing.T) {
			active := dealtGame(t)
			done := dealtGame(t)
			done.Status = game.StatusCompleted
			for _, s := range []*game.State{active, done} {
				if err := svc.Save(ctx, s); err != nil {
					t.Fatalf("save: %v", err)
				}
			}
			list, err := svc.ListActive(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 1 || list[0].ID != active.ID {
				t.Fatalf("active games = %d, want only %s", len(list), active.ID)
			}
		})
	}
}

func TestCodeCollision(t *testing.T) {
	ctx := context.Background()
	for name, svc := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a := dealtGame(t)
			b := dealtGame(t)
			b.Code = a.Code
			if err := svc.Save(ctx, a); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := svc.Save(ctx, b); !errors.Is(err, ErrCodeTaken) {
				t.Fatalf("got %v, want ErrCodeTaken", err)
			}
		})
	}
}

func TestOpenModes(t *testing.T) {
	svc, mode, err := Open(Options{Mode: ""})
	if err != nil || mode != ModeMemory {
		t.Fatalf("default mode = %q, err %v", mode, err)
	}
	_ = svc.Close()

	svc, mode, err = Open(Options{Mode: "local", SQLitePath: filepath.Join(t.TempDir(), "g.db")})
	if err != nil || mode != ModeSQLite {
		t.Fatalf("local mode = %q, err %v", mode, err)
	}
	_ = svc.Close()

	if _, _, err := Open(Options{Mode: "redis"}); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}
