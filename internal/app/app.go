// Package app wires configuration into the concrete stores, clients and
// pipeline used by the server, the worker and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/VerseVault/internal/acquire"
	"github.com/dharsanguruparan/VerseVault/internal/api"
	"github.com/dharsanguruparan/VerseVault/internal/config"
	"github.com/dharsanguruparan/VerseVault/internal/database"
	"github.com/dharsanguruparan/VerseVault/internal/extract"
	"github.com/dharsanguruparan/VerseVault/internal/llm"
	"github.com/dharsanguruparan/VerseVault/internal/pipeline"
	"github.com/dharsanguruparan/VerseVault/internal/repository"
	"github.com/dharsanguruparan/VerseVault/internal/s3storage"
	"github.com/dharsanguruparan/VerseVault/internal/storage"
)

// Store is the union of every record contract the binaries use.
type Store interface {
	pipeline.Store
	api.Store
}

// NewLogger builds the operator logger. jsonOutput selects the JSON
// formatter used by the long-running binaries.
func NewLogger(level string, jsonOutput bool) *logrus.Logger {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	if jsonOutput {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// OpenStore returns the Postgres repository when DATABASE_URL is set and an
// in-memory store otherwise. The returned close func is never nil.
func OpenStore(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, records are kept in memory")
		return storage.NewMemoryStore(), func() {}, nil
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.New(pool), pool.Close, nil
}

// SharedLLM returns the process-wide Gemini client holder. The client is
// created on first use.
func SharedLLM(cfg *config.Config) *llm.Shared {
	return llm.NewShared(func(ctx context.Context) (llm.Completer, error) {
		return llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GenModel, cfg.LLMTimeout)
	})
}

// NewAcquirer builds the text acquirer, enabling s3:// references when
// object storage is configured.
func NewAcquirer(cfg *config.Config, store acquire.DocumentStore) (*acquire.Acquirer, error) {
	opts := []acquire.Option{acquire.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout})}
	if cfg.ObjectStorageEnabled() {
		objects, err := s3storage.New(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, acquire.WithObjectStore(objects))
	}
	return acquire.New(store, opts...), nil
}

// NewPipeline assembles the ingestion pipeline from configuration.
func NewPipeline(cfg *config.Config, store pipeline.Store, completer llm.Completer, logger logrus.FieldLogger) (*pipeline.Pipeline, error) {
	prompt, err := cfg.SystemPrompt()
	if err != nil {
		return nil, fmt.Errorf("read system prompt: %w", err)
	}
	acq, err := NewAcquirer(cfg, store)
	if err != nil {
		return nil, err
	}
	ext := extract.New(completer, extract.Config{
		SystemPrompt:      prompt,
		MaxTokens:         cfg.LLMMaxTokens,
		Temperature:       cfg.LLMTemperature,
		RequestsPerMinute: cfg.LLMRequestsPerMin,
	})
	return pipeline.New(store, acq, ext, pipeline.Options{
		ChunkSize: cfg.ChunkSize,
		Logger:    logger,
	}), nil
}

// RedisOpt returns the asynq connection options.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}
