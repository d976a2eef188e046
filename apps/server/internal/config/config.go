// Package config reads the server settings from the environment. A .env
// file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"cardtable-lite/apps/server/internal/store"
	"cardtable-lite/apps/server/internal/table"

	"github.com/joho/godotenv"
)

const (
	defaultListenAddr = ":8080"
	defaultSQLitePath = "data/cardtable.db"
)

type Config struct {
	ListenAddr string
	Store      store.Options
	Table      table.Config
	LogLevel   slog.Level
}

// Load reads .env (if any) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		ListenAddr: envOrDefault("LISTEN_ADDR", defaultListenAddr),
		Store: store.Options{
			Mode:        envOrDefault("STORE_MODE", store.ModeMemory),
			SQLitePath:  envOrDefault("SQLITE_PATH", defaultSQLitePath),
			DatabaseURL: databaseURLFromEnv(),
		},
	}

	var err error
	if cfg.Table.BotDelay, err = envDuration("BOT_DELAY", 800*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.Table.BotJitter, err = envDuration("BOT_JITTER", 400*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.Table.DealDelay, err = envDuration("DEAL_DELAY", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Table.TickInterval, err = envDuration("TICK_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.Table.InferenceCacheSize, err = envInt("INFERENCE_CACHE_SIZE", 64); err != nil {
		return Config{}, err
	}
	if cfg.Table.AutoStart, err = envBool("AUTO_START", true); err != nil {
		return Config{}, err
	}
	if cfg.Table.StrictBots, err = envBool("STRICT_BOTS", false); err != nil {
		return Config{}, err
	}
	seed, err := envInt("SEED", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.Table.Seed = int64(seed)

	if err := cfg.LogLevel.UnmarshalText([]byte(envOrDefault("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

func databaseURLFromEnv() string {
	for _, key := range []string{"DATABASE_URL", "POSTGRES_DSN"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	// Bare numbers are milliseconds.
	if ms, err := strconv.Atoi(raw); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("%s: negative duration %q", key, raw)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return v, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, raw)
	}
	return v, nil
}
