// Command server exposes the VerseVault HTTP API: registering documents,
// triggering processing and reading status and logs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/VerseVault/internal/api"
	"github.com/dharsanguruparan/VerseVault/internal/app"
	"github.com/dharsanguruparan/VerseVault/internal/config"
	"github.com/dharsanguruparan/VerseVault/internal/processing"
	"github.com/dharsanguruparan/VerseVault/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		app.NewLogger("info", true).Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg.LogLevel, true)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer closeStore()

	// With Redis configured, processing runs in cmd/worker; otherwise it runs
	// here on an in-process pool.
	var submitter api.Submitter
	if cfg.RedisAddr != "" {
		client := asynq.NewClient(app.RedisOpt(cfg))
		defer client.Close()
		submitter = queue.NewSubmitter(client, cfg.TaskUniqueTTL)
	} else {
		if err := cfg.Validate(config.NeedLLM); err != nil {
			logger.Fatalf("invalid config: %v", err)
		}
		p, err := app.NewPipeline(cfg, store, app.SharedLLM(cfg), logger)
		if err != nil {
			logger.Fatalf("init pipeline: %v", err)
		}
		pool := processing.New(p, cfg.ProcessingPool, logger)
		pool.Start(ctx)
		submitter = pool
		logger.Warn("REDIS_ADDR not set, processing in-process")
	}

	srv := api.New(cfg.Address, store, submitter, logger)
	if err := srv.Run(ctx); err != nil {
		logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}
