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

	"github.com/modularwolf/impostergame.io/internal/config"
	"github.com/modularwolf/impostergame.io/internal/domain"
	"github.com/modularwolf/impostergame.io/internal/engine"
	"github.com/modularwolf/impostergame.io/internal/replication"
	"github.com/modularwolf/impostergame.io/internal/session"
	httpTransport "github.com/modularwolf/impostergame.io/internal/transport/http"
	"github.com/modularwolf/impostergame.io/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting imposter game server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	rng := domain.NewLockedRand(time.Now().UnixNano())
	catalog := words.NewCatalog(rng)
	eng := engine.New(catalog, rng, engine.Settings{MaxPlayers: cfg.Game.MaxPlayers})
	codes := domain.NewCodeGenerator(cfg.Game.RoomCodeLength, rng)

	channel := replication.NewMemory(logger)
	hub := session.NewHub(channel, logger, cfg.Game.StaleRoomTimeout)
	defer hub.Close()

	server := httpTransport.NewServer(cfg, eng, codes, channel, hub, catalog, logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
