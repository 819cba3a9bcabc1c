package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// StructureDocumentTask is scheduled each time processing of a document is
	// requested.
	StructureDocumentTask = "document:structure"
)

// ErrAlreadyQueued is returned when a task for the same document is still
// pending or running.
var ErrAlreadyQueued = errors.New("document already queued")

// StructurePayload tells the worker which document to process.
type StructurePayload struct {
	DocumentID string `json:"document_id"`
}

// NewStructureTask builds the task for one document. Retries are disabled:
// retrying a failed run is the caller's decision. uniqueTTL keeps a second
// task for the same document out of the queue while one is pending.
func NewStructureTask(documentID string, uniqueTTL time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(StructurePayload{DocumentID: documentID})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	opts := []asynq.Option{asynq.MaxRetry(0)}
	if uniqueTTL > 0 {
		opts = append(opts, asynq.Unique(uniqueTTL))
	}
	return asynq.NewTask(StructureDocumentTask, data, opts...), nil
}

// ParseStructurePayload decodes a task payload.
func ParseStructurePayload(task *asynq.Task) (StructurePayload, error) {
	var payload StructurePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode payload: %w", err)
	}
	if payload.DocumentID == "" {
		return payload, errors.New("payload has no document_id")
	}
	return payload, nil
}

// Enqueuer is the subset of *asynq.Client used to submit tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueStructure enqueues a structure extraction job.
func EnqueueStructure(ctx context.Context, client Enqueuer, documentID string, uniqueTTL time.Duration) error {
	task, err := NewStructureTask(documentID, uniqueTTL)
	if err != nil {
		return err
	}
	if _, err := client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return fmt.Errorf("document %s: %w", documentID, ErrAlreadyQueued)
		}
		return fmt.Errorf("enqueue structure task: %w", err)
	}
	return nil
}

// Submitter enqueues structure tasks through asynq.
type Submitter struct {
	client    Enqueuer
	uniqueTTL time.Duration
}

func NewSubmitter(client Enqueuer, uniqueTTL time.Duration) *Submitter {
	return &Submitter{client: client, uniqueTTL: uniqueTTL}
}

// Submit enqueues processing for one document.
func (s *Submitter) Submit(ctx context.Context, documentID string) error {
	return EnqueueStructure(ctx, s.client, documentID, s.uniqueTTL)
}
