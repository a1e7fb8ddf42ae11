package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/winnerx0/jille-client/internal/config"
	"github.com/winnerx0/jille-client/internal/logging"
	"github.com/winnerx0/jille-client/internal/stub"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, "jille-stub")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := stub.New(ctx, cfg)

	go func() {
		<-ctx.Done()
		logging.Logger.Info().Msg("shutting down")
		app.Shutdown()
	}()

	logging.Logger.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("stub backend starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logging.Logger.Fatal().Err(err).Msg("server stopped")
	}
}
