// Package processing runs structure jobs on an in-process worker pool. It is
// used when no Redis queue is configured.
package processing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/VerseVault/internal/pipeline"
	"github.com/dharsanguruparan/VerseVault/internal/progress"
	"github.com/dharsanguruparan/VerseVault/internal/queue"
)

// ErrQueueFull is returned when the job buffer has no room.
var ErrQueueFull = errors.New("processing queue full")

// Runner runs the pipeline for one document.
type Runner interface {
	Run(ctx context.Context, documentID string, observers ...progress.Observer) (*pipeline.Result, error)
}

// Job represents one document waiting to be processed.
type Job struct {
	DocumentID string
}

// Processor consumes Jobs with a fixed number of goroutines.
type Processor struct {
	runner  Runner
	queue   chan Job
	workers int
	logger  logrus.FieldLogger

	mu      sync.Mutex
	pending map[string]struct{}
	wg      sync.WaitGroup
}

// New builds a Processor with queue capacity tied to worker count.
func New(runner Runner, workers int, logger logrus.FieldLogger) *Processor {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Processor{
		runner:  runner,
		queue:   make(chan Job, workers*4),
		workers: workers,
		logger:  logger,
		pending: make(map[string]struct{}),
	}
}

// Start launches worker goroutines. They exit when ctx is done.
func (p *Processor) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Wait blocks until all workers have exited.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// Submit queues a document. A document already waiting or running is
// rejected with queue.ErrAlreadyQueued.
func (p *Processor) Submit(_ context.Context, documentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[documentID]; ok {
		return fmt.Errorf("document %s: %w", documentID, queue.ErrAlreadyQueued)
	}
	select {
	case p.queue <- Job{DocumentID: documentID}:
		p.pending[documentID] = struct{}{}
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Processor) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.queue:
			p.process(ctx, job)
		}
	}
}

func (p *Processor) process(ctx context.Context, job Job) {
	defer func() {
		p.mu.Lock()
		delete(p.pending, job.DocumentID)
		p.mu.Unlock()
	}()
	log := p.logger.WithField("document_id", job.DocumentID)
	res, err := p.runner.Run(ctx, job.DocumentID)
	if err != nil {
		log.WithError(err).Error("processing failed")
		return
	}
	log.WithFields(logrus.Fields{
		"chapters": res.Chapters,
		"verses":   res.Verses,
	}).Info("processing finished")
}
