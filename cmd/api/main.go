package main

import (
	"context"
	"fmt"
	"os"

	"github.com/user/dsnval-service/internal/bootstrap"
	"github.com/user/dsnval-service/internal/delivery/http/server"
	"github.com/user/dsnval-service/pkg/config"
	"github.com/user/dsnval-service/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("logger initialized", zap.String("level", cfg.LogLevel))

	// --- Service ---
	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("could not build service", zap.Error(err))
	}
	defer app.Close()

	// --- HTTP Server ---
	srv := server.New(cfg.ServerPort(), app.Handler(), log)
	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		app.Close()
		_ = log.Sync()
		os.Exit(1)
	}
}
