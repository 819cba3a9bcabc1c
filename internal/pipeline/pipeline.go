// Package pipeline runs the ingestion flow for one document: acquire text,
// split it, extract structure unit by unit, persist as results arrive and
// finalize the book.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/dharsanguruparan/VerseVault/internal/acquire"
	"github.com/dharsanguruparan/VerseVault/internal/chunk"
	"github.com/dharsanguruparan/VerseVault/internal/extract"
	"github.com/dharsanguruparan/VerseVault/internal/merge"
	"github.com/dharsanguruparan/VerseVault/internal/model"
	pdfutil "github.com/dharsanguruparan/VerseVault/internal/pdf"
	"github.com/dharsanguruparan/VerseVault/internal/persist"
	"github.com/dharsanguruparan/VerseVault/internal/progress"
)

// Store is everything a run reads and writes.
type Store interface {
	persist.Store
	progress.Sink
	UpdateDocumentStatus(ctx context.Context, id string, status model.DocumentStatus, errMsg *string) error
}

// Extractor turns one unit into a ParsedDocument.
type Extractor interface {
	Extract(ctx context.Context, c model.TextChunk, rec extract.Recorder) (*model.ParsedDocument, error)
}

// Options tunes a Pipeline.
type Options struct {
	ChunkSize int
	Logger    logrus.FieldLogger
}

// Result summarizes a finished run.
type Result struct {
	DocumentID string
	Book       *model.Book
	Chunks     int
	// FailedChunks holds 1-based numbers of units that contributed nothing.
	FailedChunks []int
	Chapters     int
	Verses       int
}

// Pipeline is safe for concurrent use. Runs for the same document within
// one process are collapsed into one.
type Pipeline struct {
	store     Store
	acquirer  *acquire.Acquirer
	extractor Extractor
	chunkSize int
	logger    logrus.FieldLogger
	group     singleflight.Group
}

func New(store Store, acquirer *acquire.Acquirer, extractor Extractor, opts Options) *Pipeline {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = chunk.DefaultMaxSize
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Pipeline{
		store:     store,
		acquirer:  acquirer,
		extractor: extractor,
		chunkSize: opts.ChunkSize,
		logger:    opts.Logger,
	}
}

// Run processes one document. Observers receive every log entry of the run.
// A caller that joins a run already in flight gets that run's outcome and
// its observers are not attached.
//
// Cancelling ctx stops the run before the next unit starts; a unit already
// in flight completes.
func (p *Pipeline) Run(ctx context.Context, documentID string, observers ...progress.Observer) (*Result, error) {
	v, err, shared := p.group.Do(documentID, func() (any, error) {
		return p.run(ctx, documentID, observers)
	})
	if shared {
		p.logger.WithField("document_id", documentID).Info("joined in-flight run")
	}
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (p *Pipeline) run(ctx context.Context, documentID string, observers []progress.Observer) (*Result, error) {
	rep := progress.New(p.store, documentID, p.logger)
	for _, o := range observers {
		rep.Observe(o)
	}

	res, err := p.process(ctx, documentID, rep)
	if errors.Is(err, model.ErrInvalidTransition) {
		rep.Warn(ctx, "Document is already completed; run skipped", map[string]any{"error": err.Error()})
		return nil, err
	}
	if err != nil {
		rep.Error(ctx, "Processing failed", err, nil)
		msg := err.Error()
		if uerr := p.store.UpdateDocumentStatus(context.WithoutCancel(ctx), documentID, model.StatusFailed, &msg); uerr != nil {
			p.logger.WithError(uerr).WithField("document_id", documentID).Error("could not mark document failed")
		}
		return nil, err
	}

	if err := p.store.UpdateDocumentStatus(context.WithoutCancel(ctx), documentID, model.StatusCompleted, nil); err != nil {
		rep.Error(ctx, "Could not mark document completed", err, nil)
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	rep.Info(ctx, "Processing completed", map[string]any{
		"chunks":       res.Chunks,
		"failedChunks": len(res.FailedChunks),
		"chapters":     res.Chapters,
		"verses":       res.Verses,
	})
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, documentID string, rep *progress.Reporter) (*Result, error) {
	if err := p.store.UpdateDocumentStatus(ctx, documentID, model.StatusProcessing, nil); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}
	rep.Info(ctx, "Processing started", nil)

	raw, err := p.acquirer.Acquire(ctx, documentID, func(pr pdfutil.Progress) {
		rep.PDFProgress(ctx, pr)
	})
	if err != nil {
		return nil, err
	}
	length := utf8.RuneCountInString(raw.Text)
	rep.Info(ctx, fmt.Sprintf("Acquired %d characters of %s", length, raw.MediaType), map[string]any{
		"chars":     length,
		"mediaType": raw.MediaType,
	})

	persister := persist.New(p.store, rep)
	book, err := persister.CreateBookShell(ctx, documentID)
	if err != nil {
		return nil, err
	}

	res := &Result{DocumentID: documentID, Book: book}
	acc := merge.NewAccumulator()

	total := chunk.Count(raw.Text, p.chunkSize)
	res.Chunks = total
	switch {
	case total == 0:
		rep.Warn(ctx, "Document has no text; finalizing an empty book", nil)
	case total == 1:
		unit := model.TextChunk{Text: raw.Text, End: length, Total: 1}
		doc, err := p.extractor.Extract(context.WithoutCancel(ctx), unit, rep)
		if err != nil {
			rep.Error(ctx, "Extraction failed for document", err, nil)
			res.FailedChunks = append(res.FailedChunks, 1)
			doc = model.EmptyParsedDocument()
		} else {
			rep.ExtractionSummary(ctx, extract.UnitLabel(unit), doc)
		}
		acc.Add(doc)
		if err := persister.StoreUnit(context.WithoutCancel(ctx), book.ID, doc); err != nil {
			return nil, err
		}
	default:
		rep.Info(ctx, fmt.Sprintf("Document split into %d chunks of up to %d characters", total, p.chunkSize), map[string]any{
			"chunks":    total,
			"chunkSize": p.chunkSize,
		})
		for c := range chunk.Chunks(raw.Text, p.chunkSize) {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("stopped before chunk %d of %d: %w", c.Index+1, c.Total, err)
			}
			doc, err := p.runChunk(ctx, c, rep, persister, book.ID)
			if err != nil {
				if errors.Is(err, errUnitFailed) {
					res.FailedChunks = append(res.FailedChunks, c.Index+1)
					continue
				}
				return nil, err
			}
			acc.Add(doc)
		}
	}

	merged := acc.Result()
	if err := persister.FinalizeBook(context.WithoutCancel(ctx), book, merged, len(res.FailedChunks) > 0); err != nil {
		return nil, err
	}
	res.Chapters = book.TotalChapters
	res.Verses = book.TotalVerses
	return res, nil
}

var errUnitFailed = errors.New("unit failed")

// runChunk extracts and stores one chunk. An extraction failure only fails
// the chunk; store errors are returned as they are.
func (p *Pipeline) runChunk(ctx context.Context, c model.TextChunk, rep *progress.Reporter, persister *persist.Persister, bookID string) (*model.ParsedDocument, error) {
	unitCtx := context.WithoutCancel(ctx)
	rep.ChunkStarted(ctx, c)

	doc, err := p.extractor.Extract(unitCtx, c, rep)
	if err != nil {
		rep.Error(ctx, fmt.Sprintf("Extraction failed for chunk %d of %d", c.Index+1, c.Total), err, map[string]any{
			"chunk": c.Index + 1,
			"total": c.Total,
		})
		return nil, errUnitFailed
	}
	rep.ExtractionSummary(ctx, extract.UnitLabel(c), doc)

	if err := persister.StoreUnit(unitCtx, bookID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
