package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/VerseVault/internal/model"
	"github.com/dharsanguruparan/VerseVault/internal/processing"
	"github.com/dharsanguruparan/VerseVault/internal/queue"
	"github.com/dharsanguruparan/VerseVault/internal/storage"
)

type fakeSubmitter struct {
	ids []string
	err error
}

func (f *fakeSubmitter) Submit(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.ids = append(f.ids, id)
	return nil
}

func newTestServer(t *testing.T) (*storage.MemoryStore, *fakeSubmitter, http.Handler) {
	t.Helper()
	store := storage.NewMemoryStore()
	sub := &fakeSubmitter{}
	logger, _ := test.NewNullLogger()
	return store, sub, New(":0", store, sub, logger).Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, _, h := newTestServer(t)
	rec := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRegisterAndProcess(t *testing.T) {
	store, sub, h := newTestServer(t)

	rec := do(h, http.MethodPost, "/documents", `{"fileName":"psalms.txt","contentType":"text/plain","storageRef":"https://files.example.com/psalms.txt"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc model.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.NotEmpty(t, doc.ID)
	assert.Equal(t, model.StatusUploaded, doc.Status)
	assert.NotContains(t, rec.Body.String(), "files.example.com")

	stored, err := store.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/psalms.txt", stored.StorageRef)

	rec = do(h, http.MethodPost, "/documents/"+doc.ID+"/process", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{doc.ID}, sub.ids)

	sub.err = queue.ErrAlreadyQueued
	rec = do(h, http.MethodPost, "/documents/"+doc.ID+"/process", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	sub.err = processing.ErrQueueFull
	rec = do(h, http.MethodPost, "/documents/"+doc.ID+"/process", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRegister_Validation(t *testing.T) {
	_, _, h := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/documents", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/documents", `{"fileName":"a.txt"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/documents", `{"fileName":"a.txt","storageRef":"/etc/passwd"}`).Code)
}

func TestProcess_UnknownDocument(t *testing.T) {
	_, sub, h := newTestServer(t)
	rec := do(h, http.MethodPost, "/documents/nope/process", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, sub.ids)
}

func TestStatusLogsAndVerses(t *testing.T) {
	store, _, h := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, store.CreateDocument(ctx, &model.Document{ID: "doc-1", FileName: "a.txt"}))
	require.NoError(t, store.InsertLog(ctx, &model.LogEntry{DocumentID: "doc-1", Level: model.LevelInfo, Message: "Processing started"}))

	rec := do(h, http.MethodGet, "/documents/doc-1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "uploaded", payload["status"])
	assert.Equal(t, "doc-1", payload["documentId"])
	assert.Len(t, payload["logs"], 1)
	assert.Equal(t, []any{}, payload["chapters"])

	rec = do(h, http.MethodGet, "/documents/doc-1/logs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Processing started")

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/documents/doc-1/chapters/1/verses", "").Code)

	now := time.Now()
	require.NoError(t, store.InsertBook(ctx, &model.Book{ID: "b1", DocumentID: "doc-1", FinalizedAt: &now}))
	require.NoError(t, store.InsertVerse(ctx, &model.Verse{ID: "v1", BookID: "b1", ChapterNumber: 1, Number: 1, Text: "Blessed"}))

	rec = do(h, http.MethodGet, "/documents/doc-1/chapters/1/verses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Blessed")
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/documents/doc-1/chapters/one/verses", "").Code)

	rec = do(h, http.MethodGet, "/documents/doc-1/status", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "completed", payload["status"])

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/documents/missing/status", "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/documents/missing/logs", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	_, _, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/documents/doc-1/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProcess_CompletedDocumentConflicts(t *testing.T) {
	store, sub, h := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, store.CreateDocument(ctx, &model.Document{ID: "doc-1", FileName: "a.txt"}))
	require.NoError(t, store.UpdateDocumentStatus(ctx, "doc-1", model.StatusProcessing, nil))
	require.NoError(t, store.UpdateDocumentStatus(ctx, "doc-1", model.StatusCompleted, nil))

	rec := do(h, http.MethodPost, "/documents/doc-1/process", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already completed")
	assert.Empty(t, sub.ids)

	msg := "boom"
	require.NoError(t, store.UpdateDocumentStatus(ctx, "doc-1", model.StatusFailed, &msg))
	rec = do(h, http.MethodPost, "/documents/doc-1/process", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"doc-1"}, sub.ids)
}
