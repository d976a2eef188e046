package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardtable-lite/apps/server/internal/config"
	"cardtable-lite/apps/server/internal/gateway"
	"cardtable-lite/apps/server/internal/lobby"
	"cardtable-lite/apps/server/internal/store"

	"github.com/lmittmann/tint"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	storeService, storeMode, err := store.Open(cfg.Store)
	if err != nil {
		logger.Error("failed to init store", "mode", storeMode, "err", err)
		os.Exit(1)
	}
	defer storeService.Close()

	lby := lobby.New(storeService, cfg.Table, logger)
	defer lby.Close()
	gw := gateway.New(lby, logger)
	lby.SetPublisher(gw)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recovered, err := lby.Recover(ctx)
	if err != nil {
		logger.Error("failed to recover games", "err", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	lobby.NewHTTPHandler(lby).RegisterRoutes(mux)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting",
		"addr", cfg.ListenAddr,
		"store", storeMode,
		"recovered", recovered,
		"bot_delay", cfg.Table.BotDelay,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
