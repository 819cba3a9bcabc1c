// Package storage contains the in-memory record store. It satisfies the same
// narrow contracts as the Postgres repository and backs the CLI's dry runs
// and the tests.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/VerseVault/internal/model"
)

type chapterKey struct {
	book   string
	number int
}

type verseKey struct {
	book    string
	chapter int
	number  int
}

// MemoryStore keeps documents, books, chapters, verses and processing logs in
// maps guarded by one RWMutex.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]*model.Document
	books     map[string]*model.Book // keyed by document ID
	chapters  map[chapterKey]*model.Chapter
	verses    map[verseKey]*model.Verse
	logs      map[string][]model.LogEntry

	// FailLogs makes InsertLog fail, for exercising fallback paths.
	FailLogs bool
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]*model.Document),
		books:     make(map[string]*model.Book),
		chapters:  make(map[chapterKey]*model.Chapter),
		verses:    make(map[verseKey]*model.Verse),
		logs:      make(map[string][]model.LogEntry),
	}
}

// CreateDocument inserts a document in the uploaded state.
func (m *MemoryStore) CreateDocument(_ context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, ok := m.documents[doc.ID]; ok {
		return fmt.Errorf("document %s: %w", doc.ID, model.ErrConflict)
	}
	now := time.Now().UTC()
	if doc.Status == "" {
		doc.Status = model.StatusUploaded
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now
	stored := *doc
	m.documents[doc.ID] = &stored
	return nil
}

// GetDocument returns a copy of the document.
func (m *MemoryStore) GetDocument(_ context.Context, id string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, model.ErrNotFound)
	}
	out := *doc
	return &out, nil
}

// UpdateDocumentStatus sets status and error message. A nil message clears it.
// Backward moves fail with model.ErrInvalidTransition.
func (m *MemoryStore) UpdateDocumentStatus(_ context.Context, id string, status model.DocumentStatus, errMsg *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, model.ErrNotFound)
	}
	if !doc.Status.CanTransition(status) {
		return fmt.Errorf("document %s %s -> %s: %w", id, doc.Status, status, model.ErrInvalidTransition)
	}
	doc.Status = status
	doc.ErrorMessage = errMsg
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// InsertBook stores a book. Only one book may exist per document.
func (m *MemoryStore) InsertBook(_ context.Context, book *model.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[book.DocumentID]; ok {
		return fmt.Errorf("book for document %s: %w", book.DocumentID, model.ErrConflict)
	}
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now
	stored := *book
	m.books[book.DocumentID] = &stored
	return nil
}

// BookByDocument returns the book attached to a document.
func (m *MemoryStore) BookByDocument(_ context.Context, documentID string) (*model.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	book, ok := m.books[documentID]
	if !ok {
		return nil, fmt.Errorf("book for document %s: %w", documentID, model.ErrNotFound)
	}
	out := *book
	return &out, nil
}

// UpdateBook overwrites the book's metadata, totals and finalization time.
func (m *MemoryStore) UpdateBook(_ context.Context, book *model.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stored := range m.books {
		if stored.ID != book.ID {
			continue
		}
		book.UpdatedAt = time.Now().UTC()
		book.CreatedAt = stored.CreatedAt
		*stored = *book
		return nil
	}
	return fmt.Errorf("book %s: %w", book.ID, model.ErrNotFound)
}

// InsertChapter stores a chapter, unique per (book, number).
func (m *MemoryStore) InsertChapter(_ context.Context, ch *model.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := chapterKey{ch.BookID, ch.Number}
	if _, ok := m.chapters[key]; ok {
		return fmt.Errorf("chapter %d: %w", ch.Number, model.ErrConflict)
	}
	ch.CreatedAt = time.Now().UTC()
	stored := *ch
	m.chapters[key] = &stored
	return nil
}

// UpdateChapterVerseCount sets the verse count of one chapter.
func (m *MemoryStore) UpdateChapterVerseCount(_ context.Context, bookID string, number, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.chapters[chapterKey{bookID, number}]
	if !ok {
		return fmt.Errorf("chapter %d: %w", number, model.ErrNotFound)
	}
	ch.VerseCount = count
	return nil
}

// ListChapters returns the book's chapters ordered by number.
func (m *MemoryStore) ListChapters(_ context.Context, bookID string) ([]model.Chapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Chapter
	for key, ch := range m.chapters {
		if key.book == bookID {
			out = append(out, *ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// VerseCounts returns the number of stored verses per chapter number.
func (m *MemoryStore) VerseCounts(_ context.Context, bookID string) (map[int]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]int)
	for key := range m.verses {
		if key.book == bookID {
			out[key.chapter]++
		}
	}
	return out, nil
}

// InsertVerse stores a verse, unique per (book, chapter, number).
func (m *MemoryStore) InsertVerse(_ context.Context, v *model.Verse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := verseKey{v.BookID, v.ChapterNumber, v.Number}
	if _, ok := m.verses[key]; ok {
		return fmt.Errorf("verse %d:%d: %w", v.ChapterNumber, v.Number, model.ErrConflict)
	}
	v.CreatedAt = time.Now().UTC()
	stored := *v
	m.verses[key] = &stored
	return nil
}

// ListVerses returns one chapter's verses ordered by number.
func (m *MemoryStore) ListVerses(_ context.Context, bookID string, chapter int) ([]model.Verse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Verse
	for key, v := range m.verses {
		if key.book == bookID && key.chapter == chapter {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// VerseStats returns the number of stored verses and how many are analyzed.
func (m *MemoryStore) VerseStats(_ context.Context, bookID string) (total, analyzed int, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, v := range m.verses {
		if key.book != bookID {
			continue
		}
		total++
		if v.Analyzed {
			analyzed++
		}
	}
	return total, analyzed, nil
}

// InsertLog appends a processing log entry.
func (m *MemoryStore) InsertLog(_ context.Context, entry *model.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailLogs {
		return fmt.Errorf("insert log: store unavailable")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.logs[entry.DocumentID] = append(m.logs[entry.DocumentID], *entry)
	return nil
}

// ListLogs returns a document's log entries in ascending creation order.
func (m *MemoryStore) ListLogs(_ context.Context, documentID string) ([]model.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.LogEntry, len(m.logs[documentID]))
	copy(out, m.logs[documentID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
