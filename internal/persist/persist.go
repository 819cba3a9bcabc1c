// Package persist writes extracted structure to the record store as it
// arrives. Inserts are safe to repeat: duplicate chapters and verses left by
// an earlier run are skipped, not treated as failures.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/VerseVault/internal/model"
)

// Store is the record contract the persister needs.
type Store interface {
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	BookByDocument(ctx context.Context, documentID string) (*model.Book, error)
	InsertBook(ctx context.Context, book *model.Book) error
	UpdateBook(ctx context.Context, book *model.Book) error
	InsertChapter(ctx context.Context, ch *model.Chapter) error
	UpdateChapterVerseCount(ctx context.Context, bookID string, number, count int) error
	ListChapters(ctx context.Context, bookID string) ([]model.Chapter, error)
	InsertVerse(ctx context.Context, v *model.Verse) error
	VerseCounts(ctx context.Context, bookID string) (map[int]int, error)
}

// Events receives persistence diagnostics.
type Events interface {
	Log(ctx context.Context, level model.LogLevel, message string, metadata map[string]any)
	ChapterStored(ctx context.Context, number int, title string, verses int)
}

// Persister is scoped to one pipeline run. It remembers which chapters the
// run has already written so repeated mentions across chunks are no-ops.
type Persister struct {
	store  Store
	events Events
	seen   map[int]struct{}
}

// New returns a Persister for one run. events may be nil.
func New(store Store, events Events) *Persister {
	if events == nil {
		events = discard{}
	}
	return &Persister{store: store, events: events}
}

// CreateBookShell returns the document's book, inserting a placeholder titled
// after the file name when none exists. A book left by an earlier partial run
// is reused.
func (p *Persister) CreateBookShell(ctx context.Context, documentID string) (*model.Book, error) {
	doc, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	book, err := p.store.BookByDocument(ctx, documentID)
	switch {
	case err == nil:
		p.events.Log(ctx, model.LevelInfo, "Reusing book from a previous run", map[string]any{"bookId": book.ID})
		return book, nil
	case !errors.Is(err, model.ErrNotFound):
		return nil, fmt.Errorf("load book: %w", err)
	}

	book = &model.Book{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Title:      doc.FileName,
	}
	if err := p.store.InsertBook(ctx, book); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return p.store.BookByDocument(ctx, documentID)
		}
		return nil, fmt.Errorf("insert book: %w", err)
	}
	p.events.Log(ctx, model.LevelInfo, "Created book placeholder", map[string]any{"bookId": book.ID})
	return book, nil
}

// AppendChapter inserts the chapter once per run. A chapter already present
// from an earlier run counts as inserted.
func (p *Persister) AppendChapter(ctx context.Context, bookID string, ch model.ParsedChapter) error {
	n := int(ch.Number)
	if p.seen == nil {
		p.seen = make(map[int]struct{})
	}
	if _, ok := p.seen[n]; ok {
		return nil
	}
	err := p.store.InsertChapter(ctx, &model.Chapter{
		ID:     uuid.NewString(),
		BookID: bookID,
		Number: n,
		Title:  ch.Title,
	})
	switch {
	case err == nil:
	case errors.Is(err, model.ErrConflict):
		p.events.Log(ctx, model.LevelDebug, fmt.Sprintf("Chapter %d already stored", n), map[string]any{"chapter": n})
	default:
		return fmt.Errorf("insert chapter %d: %w", n, err)
	}
	p.seen[n] = struct{}{}
	return nil
}

// AppendVerse inserts one verse. It reports whether a new row was written; a
// duplicate key is logged as a warning and swallowed.
func (p *Persister) AppendVerse(ctx context.Context, bookID string, chapter int, v model.ParsedVerse) (bool, error) {
	err := p.store.InsertVerse(ctx, &model.Verse{
		ID:            uuid.NewString(),
		BookID:        bookID,
		ChapterNumber: chapter,
		Number:        int(v.Number),
		Text:          v.Text,
		Translation:   v.Translation,
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, model.ErrConflict):
		p.events.Log(ctx, model.LevelWarn, fmt.Sprintf("Verse %d:%d already stored, skipping", chapter, int(v.Number)), map[string]any{
			"chapter": chapter,
			"verse":   int(v.Number),
		})
		return false, nil
	default:
		return false, fmt.Errorf("insert verse %d:%d: %w", chapter, int(v.Number), err)
	}
}

// StoreUnit writes every chapter and verse of one extraction result.
func (p *Persister) StoreUnit(ctx context.Context, bookID string, doc *model.ParsedDocument) error {
	if doc == nil {
		return nil
	}
	for _, ch := range doc.Chapters {
		if err := p.AppendChapter(ctx, bookID, ch); err != nil {
			return err
		}
		stored := 0
		for _, v := range ch.Verses {
			ok, err := p.AppendVerse(ctx, bookID, int(ch.Number), v)
			if err != nil {
				return err
			}
			if ok {
				stored++
			}
		}
		p.events.ChapterStored(ctx, int(ch.Number), ch.Title, stored)
	}
	return nil
}

// FinalizeBook writes the merged metadata and the totals. Totals are counted
// from the stored rows, so they include what earlier runs wrote to a reused
// book. partial marks a run in which some unit produced nothing: it may fill
// missing metadata of an already finalized book but never replaces it.
func (p *Persister) FinalizeBook(ctx context.Context, book *model.Book, merged *model.ParsedDocument, partial bool) error {
	if merged == nil {
		merged = model.EmptyParsedDocument()
	}
	chapters, err := p.store.ListChapters(ctx, book.ID)
	if err != nil {
		return fmt.Errorf("list chapters: %w", err)
	}
	counts, err := p.store.VerseCounts(ctx, book.ID)
	if err != nil {
		return fmt.Errorf("count verses: %w", err)
	}
	total := 0
	for _, ch := range chapters {
		n := counts[ch.Number]
		total += n
		if n == ch.VerseCount {
			continue
		}
		if err := p.store.UpdateChapterVerseCount(ctx, book.ID, ch.Number, n); err != nil {
			return fmt.Errorf("update chapter %d: %w", ch.Number, err)
		}
	}

	replace := !partial || !book.Finalized()
	if !replace {
		p.events.Log(ctx, model.LevelInfo, "Some units failed; keeping metadata from the earlier run", map[string]any{"bookId": book.ID})
	}
	if merged.Title != "" && (replace || book.Title == model.UnknownTitle) {
		book.Title = merged.Title
	}
	book.Description = pickMeta(book.Description, merged.Description, model.DefaultDescription, replace)
	book.Language = pickMeta(book.Language, merged.Language, model.UnknownLanguage, replace)
	book.TotalChapters = len(chapters)
	book.TotalVerses = total
	now := time.Now().UTC()
	book.FinalizedAt = &now
	if err := p.store.UpdateBook(ctx, book); err != nil {
		return fmt.Errorf("finalize book: %w", err)
	}
	p.events.Log(ctx, model.LevelInfo, fmt.Sprintf("Finalized book %q: %d chapters, %d verses", book.Title, book.TotalChapters, book.TotalVerses), map[string]any{
		"bookId":   book.ID,
		"chapters": book.TotalChapters,
		"verses":   book.TotalVerses,
	})
	return nil
}

// pickMeta chooses between a stored metadata value and a newly merged one.
// A default never overwrites a real value.
func pickMeta(current, next, def string, replace bool) string {
	if next == def {
		next = ""
	}
	switch {
	case next != "" && (replace || current == "" || current == def):
		return next
	case current == "":
		return def
	}
	return current
}

type discard struct{}

func (discard) Log(context.Context, model.LogLevel, string, map[string]any) {}
func (discard) ChapterStored(context.Context, int, string, int)             {}
