package model

import (
	"bytes"
	"fmt"
	"strconv"
)

// Metadata used when no extraction unit produced a usable result.
const (
	UnknownTitle       = "Unknown"
	DefaultDescription = "No description"
	UnknownLanguage    = "Unknown"
)

// TextChunk is a bounded slice of a document's raw text. Start and End are
// character (code point) offsets into the full text; Index is zero-based.
type TextChunk struct {
	Text  string
	Start int
	End   int
	Index int
	Total int
}

// ParsedDocument is one extraction result, for a single chunk or for the
// whole text. A nil *ParsedDocument marks a failed unit.
type ParsedDocument struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Language    string          `json:"language"`
	Chapters    []ParsedChapter `json:"chapters"`
}

// ParsedChapter is keyed by Number when results are merged.
type ParsedChapter struct {
	Number FlexInt       `json:"number"`
	Title  string        `json:"title"`
	Verses []ParsedVerse `json:"verses"`
}

type ParsedVerse struct {
	Number      FlexInt `json:"number"`
	Text        string  `json:"text"`
	Translation string  `json:"translation"`
}

// EmptyParsedDocument is the result used when a whole-document parse fails.
func EmptyParsedDocument() *ParsedDocument {
	return &ParsedDocument{
		Title:       UnknownTitle,
		Description: DefaultDescription,
		Language:    UnknownLanguage,
	}
}

// VerseCount returns the number of verses across all chapters.
func (d *ParsedDocument) VerseCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, ch := range d.Chapters {
		n += len(ch.Verses)
	}
	return n
}

// FlexInt decodes JSON numbers as well as numeric strings ("3", "3.0").
// Models are not consistent about quoting chapter and verse numbers.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	if s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("flexint: %q is not a number", s)
	}
	*n = FlexInt(f)
	return nil
}
