package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/VerseVault/internal/app"
	"github.com/dharsanguruparan/VerseVault/internal/config"
	"github.com/dharsanguruparan/VerseVault/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		app.NewLogger("info", true).Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg.LogLevel, true)
	if err := cfg.Validate(config.NeedDatabase, config.NeedRedis, config.NeedLLM); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	store, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer closeStore()

	p, err := app.NewPipeline(cfg, store, app.SharedLLM(cfg), logger)
	if err != nil {
		logger.Fatalf("init pipeline: %v", err)
	}

	server := asynq.NewServer(app.RedisOpt(cfg), asynq.Config{
		Concurrency: cfg.ProcessingPool,
		Logger:      logger,
	})
	processor := worker.NewProcessor(p, logger)
	mux := processor.Handler()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	if err := server.Run(mux); err != nil {
		logger.WithError(err).Error("worker stopped")
		os.Exit(1)
	}
}
