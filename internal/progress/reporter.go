// Package progress records the per-document processing log. Entries are
// append-only and feed both operator diagnostics and the status endpoint.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/VerseVault/internal/model"
	pdfutil "github.com/dharsanguruparan/VerseVault/internal/pdf"
)

// Sink persists log entries.
type Sink interface {
	InsertLog(ctx context.Context, entry *model.LogEntry) error
}

// Observer is notified of every entry after it has been recorded.
type Observer func(model.LogEntry)

// Reporter writes log entries for one document. Log never fails: an entry
// the sink rejects is written to the operator logger instead.
type Reporter struct {
	sink       Sink
	documentID string
	logger     logrus.FieldLogger

	mu        sync.RWMutex
	observers []Observer
}

// New builds a Reporter. A nil logger uses the logrus standard logger.
func New(sink Sink, documentID string, logger logrus.FieldLogger) *Reporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Reporter{
		sink:       sink,
		documentID: documentID,
		logger:     logger.WithField("document_id", documentID),
	}
}

// Observe registers fn to receive every subsequent entry.
func (r *Reporter) Observe(fn Observer) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Log records one entry. The write is detached from ctx cancellation so the
// reason a cancelled run stopped still reaches the log.
func (r *Reporter) Log(ctx context.Context, level model.LogLevel, message string, metadata map[string]any) {
	entry := model.LogEntry{
		ID:         uuid.NewString(),
		DocumentID: r.documentID,
		Level:      level,
		Message:    message,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}

	fields := r.logger.WithFields(logrus.Fields(metadata))
	if r.sink == nil {
		r.mirror(fields, level, message)
	} else if err := r.sink.InsertLog(context.WithoutCancel(ctx), &entry); err != nil {
		fields.WithError(err).WithField("level", string(level)).Warn("processing log not persisted: " + message)
	} else {
		r.mirror(fields, level, message)
	}

	r.mu.RLock()
	observers := r.observers
	r.mu.RUnlock()
	for _, fn := range observers {
		fn(entry)
	}
}

func (r *Reporter) mirror(fields logrus.FieldLogger, level model.LogLevel, message string) {
	switch level {
	case model.LevelError:
		fields.Error(message)
	case model.LevelWarn:
		fields.Warn(message)
	case model.LevelDebug:
		fields.Debug(message)
	default:
		fields.Info(message)
	}
}

func (r *Reporter) Info(ctx context.Context, message string, metadata map[string]any) {
	r.Log(ctx, model.LevelInfo, message, metadata)
}

func (r *Reporter) Debug(ctx context.Context, message string, metadata map[string]any) {
	r.Log(ctx, model.LevelDebug, message, metadata)
}

func (r *Reporter) Warn(ctx context.Context, message string, metadata map[string]any) {
	r.Log(ctx, model.LevelWarn, message, metadata)
}

// LLMRequest records that a completion request was issued for unit.
func (r *Reporter) LLMRequest(ctx context.Context, unit string, promptChars int) {
	r.Debug(ctx, fmt.Sprintf("LLM request sent for %s", unit), map[string]any{
		"unit":        unit,
		"promptChars": promptChars,
	})
}

// LLMResponse records a completion response and how long it took.
func (r *Reporter) LLMResponse(ctx context.Context, unit string, latency time.Duration, responseChars int) {
	r.Debug(ctx, fmt.Sprintf("LLM response received for %s in %s", unit, latency.Round(time.Millisecond)), map[string]any{
		"unit":          unit,
		"latencyMs":     latency.Milliseconds(),
		"responseChars": responseChars,
	})
}

// ChunkStarted records the start of one chunk. Chunk numbers in messages are
// 1-based.
func (r *Reporter) ChunkStarted(ctx context.Context, c model.TextChunk) {
	r.Info(ctx, fmt.Sprintf("Processing chunk %d of %d", c.Index+1, c.Total), map[string]any{
		"chunk": c.Index + 1,
		"total": c.Total,
		"start": c.Start,
		"end":   c.End,
	})
}

// ChapterStored records a persisted chapter.
func (r *Reporter) ChapterStored(ctx context.Context, number int, title string, verses int) {
	r.Info(ctx, fmt.Sprintf("Stored chapter %d (%d verses)", number, verses), map[string]any{
		"chapter": number,
		"title":   title,
		"verses":  verses,
	})
}

// ExtractionSummary records what one unit produced. Unit failures go through
// Error instead.
func (r *Reporter) ExtractionSummary(ctx context.Context, unit string, doc *model.ParsedDocument) {
	r.Info(ctx, fmt.Sprintf("Extracted %d chapters and %d verses from %s", len(doc.Chapters), doc.VerseCount(), unit), map[string]any{
		"unit":     unit,
		"title":    doc.Title,
		"chapters": len(doc.Chapters),
		"verses":   doc.VerseCount(),
	})
}

// Error records a failure. Terminal failures are recorded before the run
// returns so the log and the document status agree.
func (r *Reporter) Error(ctx context.Context, message string, err error, metadata map[string]any) {
	meta := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		meta[k] = v
	}
	if err != nil {
		meta["error"] = err.Error()
		meta["kind"] = ErrorKind(err)
		message = message + ": " + err.Error()
	}
	r.Log(ctx, model.LevelError, message, meta)
}

// PDFProgress forwards one PDF extraction notification.
func (r *Reporter) PDFProgress(ctx context.Context, p pdfutil.Progress) {
	meta := map[string]any{"stage": p.Stage}
	for k, v := range p.Details {
		meta[k] = v
	}
	level := model.LevelDebug
	if p.Stage == pdfutil.StageComplete || p.Stage == pdfutil.StageParsing {
		level = model.LevelInfo
	}
	r.Log(ctx, level, p.Message, meta)
}

// ErrorKind names the error class used in log metadata.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrFetch):
		return "fetch"
	case errors.Is(err, model.ErrDecode):
		return "decode"
	case errors.Is(err, model.ErrExtraction):
		return "extraction"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	default:
		return "unknown"
	}
}
