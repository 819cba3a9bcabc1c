package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/VerseVault/internal/model"
	"github.com/dharsanguruparan/VerseVault/internal/storage"
)

func TestGet_Uploaded(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.CreateDocument(ctx, &model.Document{ID: "doc-1", FileName: "a.txt"}))

	p, err := NewService(store).Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProcessingUploaded, p.Status)
	assert.Nil(t, p.Book)
	assert.NotNil(t, p.Chapters)
	assert.NotNil(t, p.Logs)
}

func TestGet_ProcessingWithPlaceholderBook(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.CreateDocument(ctx, &model.Document{ID: "doc-1", FileName: "a.txt"}))
	require.NoError(t, store.UpdateDocumentStatus(ctx, "doc-1", model.StatusProcessing, nil))
	require.NoError(t, store.InsertBook(ctx, &model.Book{ID: "b1", DocumentID: "doc-1"}))
	require.NoError(t, store.InsertLog(ctx, &model.LogEntry{DocumentID: "doc-1", Level: model.LevelInfo, Message: "Processing chunk 1 of 2"}))

	p, err := NewService(store).Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProcessingActive, p.Status)
	require.NotNil(t, p.Book)
	require.Len(t, p.Logs, 1)
}

func TestGet_CompletedWithCounts(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.CreateDocument(ctx, &model.Document{ID: "doc-1", FileName: "a.txt"}))
	require.NoError(t, store.UpdateDocumentStatus(ctx, "doc-1", model.StatusCompleted, nil))
	now := time.Now()
	require.NoError(t, store.InsertBook(ctx, &model.Book{ID: "b1", DocumentID: "doc-1", FinalizedAt: &now}))
	require.NoError(t, store.InsertChapter(ctx, &model.Chapter{ID: "c1", BookID: "b1", Number: 1}))
	require.NoError(t, store.InsertVerse(ctx, &model.Verse{ID: "v1", BookID: "b1", ChapterNumber: 1, Number: 1, Analyzed: true}))
	require.NoError(t, store.InsertVerse(ctx, &model.Verse{ID: "v2", BookID: "b1", ChapterNumber: 1, Number: 2}))

	p, err := NewService(store).Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProcessingCompleted, p.Status)
	assert.Len(t, p.Chapters, 1)
	assert.Equal(t, Analyses{Total: 2, Completed: 1}, p.Analyses)
}

func TestGet_FailedWinsOverBook(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.CreateDocument(ctx, &model.Document{ID: "doc-1", FileName: "a.txt"}))
	now := time.Now()
	require.NoError(t, store.InsertBook(ctx, &model.Book{ID: "b1", DocumentID: "doc-1", FinalizedAt: &now}))
	msg := "fetch failed"
	require.NoError(t, store.UpdateDocumentStatus(ctx, "doc-1", model.StatusFailed, &msg))

	p, err := NewService(store).Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProcessingFailed, p.Status)
	require.NotNil(t, p.Error)
	assert.Equal(t, "fetch failed", *p.Error)
}

func TestGet_NotFound(t *testing.T) {
	_, err := NewService(storage.NewMemoryStore()).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
