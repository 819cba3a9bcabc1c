// Package status assembles the externally visible processing state of a
// document from its record, its book and its log stream.
package status

import (
	"context"
	"errors"
	"fmt"

	"github.com/dharsanguruparan/VerseVault/internal/model"
)

// Store is the read contract the status service needs.
type Store interface {
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	BookByDocument(ctx context.Context, documentID string) (*model.Book, error)
	ListChapters(ctx context.Context, bookID string) ([]model.Chapter, error)
	VerseStats(ctx context.Context, bookID string) (total, analyzed int, err error)
	ListLogs(ctx context.Context, documentID string) ([]model.LogEntry, error)
}

// Analyses counts stored verses and how many have been analyzed.
type Analyses struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Payload is the status response returned to callers.
type Payload struct {
	DocumentID string                 `json:"documentId"`
	Status     model.ProcessingStatus `json:"status"`
	Document   *model.Document        `json:"document,omitempty"`
	Book       *model.Book            `json:"book,omitempty"`
	Chapters   []model.Chapter        `json:"chapters"`
	Analyses   Analyses               `json:"analyses"`
	Logs       []model.LogEntry       `json:"logs"`
	Error      *string                `json:"error,omitempty"`
}

// Service reads status payloads.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the payload for a document. A missing document yields
// model.ErrNotFound.
//
// A book counts as existing for status purposes only once it is finalized:
// the placeholder written at the start of a run must not read as completed.
func (s *Service) Get(ctx context.Context, documentID string) (*Payload, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	p := &Payload{
		DocumentID: documentID,
		Document:   doc,
		Chapters:   []model.Chapter{},
		Logs:       []model.LogEntry{},
		Error:      doc.ErrorMessage,
	}

	book, err := s.store.BookByDocument(ctx, documentID)
	switch {
	case err == nil:
		p.Book = book
		chapters, err := s.store.ListChapters(ctx, book.ID)
		if err != nil {
			return nil, fmt.Errorf("list chapters: %w", err)
		}
		if chapters != nil {
			p.Chapters = chapters
		}
		total, analyzed, err := s.store.VerseStats(ctx, book.ID)
		if err != nil {
			return nil, fmt.Errorf("verse stats: %w", err)
		}
		p.Analyses = Analyses{Total: total, Completed: analyzed}
	case !errors.Is(err, model.ErrNotFound):
		return nil, fmt.Errorf("load book: %w", err)
	}

	logs, err := s.store.ListLogs(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	if logs != nil {
		p.Logs = logs
	}

	p.Status = model.DeriveStatus(doc.Status, book.Finalized())
	return p, nil
}
