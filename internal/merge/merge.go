// Package merge combines per-unit extraction results into one document.
package merge

import (
	"sort"

	"github.com/dharsanguruparan/VerseVault/internal/model"
)

// Accumulator merges units one at a time, in chunk order. Metadata comes
// from the first non-nil unit. Chapters are keyed by number; verses of a
// repeated chapter are appended in arrival order and never re-sorted.
type Accumulator struct {
	meta     *model.ParsedDocument
	order    []int
	chapters map[int]*model.ParsedChapter
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{chapters: make(map[int]*model.ParsedChapter)}
}

// Add folds one unit into the result. A nil unit is ignored.
func (a *Accumulator) Add(doc *model.ParsedDocument) {
	if doc == nil {
		return
	}
	if a.meta == nil {
		a.meta = &model.ParsedDocument{
			Title:       doc.Title,
			Description: doc.Description,
			Language:    doc.Language,
		}
	}
	for _, ch := range doc.Chapters {
		n := int(ch.Number)
		existing, ok := a.chapters[n]
		if !ok {
			c := model.ParsedChapter{
				Number: ch.Number,
				Title:  ch.Title,
				Verses: append([]model.ParsedVerse(nil), ch.Verses...),
			}
			a.chapters[n] = &c
			a.order = append(a.order, n)
			continue
		}
		if existing.Title == "" {
			existing.Title = ch.Title
		}
		existing.Verses = append(existing.Verses, ch.Verses...)
	}
}

// Result returns the merged document with chapters sorted by number. It can
// be called at any point; later Adds are reflected in later Results.
func (a *Accumulator) Result() *model.ParsedDocument {
	out := model.EmptyParsedDocument()
	if a.meta != nil {
		out.Title = a.meta.Title
		out.Description = a.meta.Description
		out.Language = a.meta.Language
	}
	out.Chapters = make([]model.ParsedChapter, 0, len(a.order))
	for _, n := range a.order {
		ch := *a.chapters[n]
		ch.Verses = append([]model.ParsedVerse(nil), ch.Verses...)
		out.Chapters = append(out.Chapters, ch)
	}
	sort.SliceStable(out.Chapters, func(i, j int) bool {
		return out.Chapters[i].Number < out.Chapters[j].Number
	})
	return out
}

// Merge combines an ordered sequence of units, any of which may be nil.
func Merge(units []*model.ParsedDocument) *model.ParsedDocument {
	a := NewAccumulator()
	for _, u := range units {
		a.Add(u)
	}
	return a.Result()
}
