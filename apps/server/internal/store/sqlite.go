package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cardtable-lite/apps/server/internal/codec"
	"cardtable-lite/game"

	_ "modernc.org/sqlite"
)

type sqliteService struct {
	db *sql.DB
}

func NewSQLiteService(dbPath string) (Service, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteService{db: db}, nil
}

func ensureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS games (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    variant TEXT NOT NULL,
    status TEXT NOT NULL,
    version INTEGER NOT NULL,
    snapshot BLOB NOT NULL,
    updated_at_ms INTEGER NOT NULL
)`)
	return err
}

func (s *sqliteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteService) Save(ctx context.Context, st *game.State) error {
	data, err := codec.MarshalState(st)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx, `SELECT id FROM games WHERE code = ?`, st.Code).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	case owner != st.ID:
		return ErrCodeTaken
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO games (id, code, variant, status, version, snapshot, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    status = excluded.status,
    version = excluded.version,
    snapshot = excluded.snapshot,
    updated_at_ms = excluded.updated_at_ms
WHERE excluded.version >= games.version
`, st.ID, st.Code, string(st.Variant), string(st.Status), st.Version, data, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("save game %s: %w", st.ID, err)
	}
	return tx.Commit()
}

func (s *sqliteService) Load(ctx context.Context, id string) (*game.State, error) {
	return s.loadWhere(ctx, `id = ?`, id)
}

func (s *sqliteService) FindByCode(ctx context.Context, code string) (*game.State, error) {
	return s.loadWhere(ctx, `code = ?`, strings.ToUpper(strings.TrimSpace(code)))
}

func (s *sqliteService) loadWhere(ctx context.Context, where string, arg any) (*game.State, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM games WHERE `+where, arg).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return codec.UnmarshalState(data)
}

func (s *sqliteService) ListActive(ctx context.Context) ([]*game.State, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT snapshot FROM games WHERE status <> ? ORDER BY id`, string(game.StatusCompleted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func scanSnapshots(rows *sql.Rows) ([]*game.State, error) {
	var out []*game.State
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		st, err := codec.UnmarshalState(data)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 3*time.Second)
}
