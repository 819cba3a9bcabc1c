package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name    string
		doc     DocumentStatus
		hasBook bool
		want    ProcessingStatus
	}{
		{"failed without book", StatusFailed, false, ProcessingFailed},
		{"failed wins over book", StatusFailed, true, ProcessingFailed},
		{"book means completed", StatusUploaded, true, ProcessingCompleted},
		{"book while processing", StatusProcessing, true, ProcessingCompleted},
		{"processing without book", StatusProcessing, false, ProcessingActive},
		{"uploaded without book", StatusUploaded, false, ProcessingUploaded},
		{"unknown status", DocumentStatus(""), false, ProcessingUploaded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.doc, tt.hasBook))
		})
	}
}

func TestDocumentStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to DocumentStatus
		want     bool
	}{
		{StatusUploaded, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusProcessing, true},
		{StatusCompleted, StatusFailed, true},
		{StatusFailed, StatusProcessing, true},
		{StatusCompleted, StatusProcessing, false},
		{StatusCompleted, StatusUploaded, false},
		{StatusProcessing, StatusUploaded, false},
		{StatusFailed, StatusCompleted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}

	assert.ElementsMatch(t, []string{"uploaded", "processing", "failed"}, TransitionSources(StatusProcessing))
	assert.ErrorIs(t, ErrInvalidTransition, ErrConflict)
}

func TestFlexInt(t *testing.T) {
	var ch ParsedChapter
	require.NoError(t, json.Unmarshal([]byte(`{"number":"12","verses":[{"number":3},{"number":"4.0"},{"number":null}]}`), &ch))
	assert.Equal(t, FlexInt(12), ch.Number)
	require.Len(t, ch.Verses, 3)
	assert.Equal(t, FlexInt(3), ch.Verses[0].Number)
	assert.Equal(t, FlexInt(4), ch.Verses[1].Number)
	assert.Equal(t, FlexInt(0), ch.Verses[2].Number)

	err := json.Unmarshal([]byte(`{"number":"one"}`), &ch)
	assert.Error(t, err)
}

func TestParsedDocumentVerseCount(t *testing.T) {
	var nilDoc *ParsedDocument
	assert.Equal(t, 0, nilDoc.VerseCount())

	doc := &ParsedDocument{Chapters: []ParsedChapter{
		{Number: 1, Verses: []ParsedVerse{{Number: 1}, {Number: 2}}},
		{Number: 2, Verses: []ParsedVerse{{Number: 1}}},
	}}
	assert.Equal(t, 3, doc.VerseCount())
}

func TestEmptyParsedDocument(t *testing.T) {
	doc := EmptyParsedDocument()
	assert.Equal(t, UnknownTitle, doc.Title)
	assert.Empty(t, doc.Chapters)
}

func TestDocumentIsPDF(t *testing.T) {
	tests := []struct {
		contentType string
		fileName    string
		want        bool
	}{
		{"application/pdf", "a.bin", true},
		{"Application/PDF; charset=binary", "a", true},
		{"application/octet-stream", "scroll.PDF", true},
		{"", "scroll.pdf", true},
		{"text/plain", "scroll.pdf", false},
		{"application/json", "book.json", false},
	}
	for _, tt := range tests {
		d := &Document{ContentType: tt.contentType, FileName: tt.fileName}
		assert.Equal(t, tt.want, d.IsPDF(), "%s %s", tt.contentType, tt.fileName)
	}
}

func TestFetchError(t *testing.T) {
	body := []byte(strings.Repeat("x", 2000))
	err := NewFetchError("https://files.example/doc", 503, body, nil)

	assert.True(t, errors.Is(err, ErrFetch))
	assert.Equal(t, 503, err.StatusCode)
	assert.Len(t, err.Body, maxErrorBody+3)
	assert.Contains(t, err.Error(), "status 503")

	cause := errors.New("connection reset")
	err = NewFetchError("https://files.example/doc", 0, nil, cause)
	assert.True(t, errors.Is(err, ErrFetch))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestBookFinalized(t *testing.T) {
	var b *Book
	assert.False(t, b.Finalized())
	assert.False(t, (&Book{}).Finalized())
}
