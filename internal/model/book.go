package model

import "time"

// Book is the persisted structured form of a Document. It is created as a
// placeholder before parsing starts; the totals are only meaningful once
// FinalizedAt is set.
type Book struct {
	ID            string     `json:"id"`
	DocumentID    string     `json:"documentId"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Language      string     `json:"language"`
	TotalChapters int        `json:"totalChapters"`
	TotalVerses   int        `json:"totalVerses"`
	FinalizedAt   *time.Time `json:"finalizedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Finalized reports whether the book totals have been written.
func (b *Book) Finalized() bool {
	return b != nil && b.FinalizedAt != nil
}

// Chapter is unique per (BookID, Number).
type Chapter struct {
	ID         string    `json:"id"`
	BookID     string    `json:"bookId"`
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	VerseCount int       `json:"verseCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Verse is unique per (BookID, ChapterNumber, Number).
type Verse struct {
	ID            string    `json:"id"`
	BookID        string    `json:"bookId"`
	ChapterNumber int       `json:"chapterNumber"`
	Number        int       `json:"number"`
	Text          string    `json:"text"`
	Translation   string    `json:"translation"`
	Analyzed      bool      `json:"analyzed"`
	CreatedAt     time.Time `json:"createdAt"`
}
