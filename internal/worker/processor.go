package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/VerseVault/internal/model"
	"github.com/dharsanguruparan/VerseVault/internal/pipeline"
	"github.com/dharsanguruparan/VerseVault/internal/progress"
	"github.com/dharsanguruparan/VerseVault/internal/queue"
)

// Runner runs the pipeline for one document.
type Runner interface {
	Run(ctx context.Context, documentID string, observers ...progress.Observer) (*pipeline.Result, error)
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	runner Runner
	logger logrus.FieldLogger
}

// NewProcessor constructs a worker processor.
func NewProcessor(runner Runner, logger logrus.FieldLogger) *Processor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Processor{runner: runner, logger: logger}
}

// Handler registers the structure job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.StructureDocumentTask, p.HandleStructure)
	return mux
}

// HandleStructure runs one document. Failures are already recorded on the
// document by the pipeline, so they are never retried by asynq.
func (p *Processor) HandleStructure(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParseStructurePayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	log := p.logger.WithField("document_id", payload.DocumentID)
	log.Info("structure task started")

	res, err := p.runner.Run(ctx, payload.DocumentID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			log.WithError(err).Warn("document not found")
		} else {
			log.WithError(err).Error("structure task failed")
		}
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	log.WithFields(logrus.Fields{
		"chunks":        res.Chunks,
		"failed_chunks": len(res.FailedChunks),
		"chapters":      res.Chapters,
		"verses":        res.Verses,
	}).Info("document structured")
	return nil
}
