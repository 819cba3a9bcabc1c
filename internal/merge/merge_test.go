package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/VerseVault/internal/model"
)

func verse(n int, text string) model.ParsedVerse {
	return model.ParsedVerse{Number: model.FlexInt(n), Text: text}
}

func chapter(n int, verses ...model.ParsedVerse) model.ParsedChapter {
	return model.ParsedChapter{Number: model.FlexInt(n), Verses: verses}
}

func numbers(doc *model.ParsedDocument) []int {
	var out []int
	for _, ch := range doc.Chapters {
		out = append(out, int(ch.Number))
	}
	return out
}

func TestMerge_DisjointChapters(t *testing.T) {
	a := &model.ParsedDocument{Title: "A", Chapters: []model.ParsedChapter{chapter(2, verse(1, "b1")), chapter(1, verse(1, "a1"))}}
	b := &model.ParsedDocument{Title: "B", Chapters: []model.ParsedChapter{chapter(4, verse(1, "d1")), chapter(3, verse(1, "c1"), verse(2, "c2"))}}

	out := Merge([]*model.ParsedDocument{a, b})
	assert.Equal(t, []int{1, 2, 3, 4}, numbers(out))
	assert.Equal(t, []model.ParsedVerse{verse(1, "c1"), verse(2, "c2")}, out.Chapters[2].Verses)
	assert.Equal(t, "A", out.Title)
}

func TestMerge_SharedChapterAccumulates(t *testing.T) {
	a := &model.ParsedDocument{Chapters: []model.ParsedChapter{chapter(1, verse(1, "v1"))}}
	b := &model.ParsedDocument{Chapters: []model.ParsedChapter{chapter(1, verse(2, "v2"))}}

	out := Merge([]*model.ParsedDocument{a, b})
	require.Len(t, out.Chapters, 1)
	assert.Equal(t, []model.ParsedVerse{verse(1, "v1"), verse(2, "v2")}, out.Chapters[0].Verses)
}

func TestMerge_NullTolerant(t *testing.T) {
	x := &model.ParsedDocument{Title: "X", Description: "d", Language: "Latin", Chapters: []model.ParsedChapter{chapter(1)}}

	out := Merge([]*model.ParsedDocument{nil, x, nil})
	assert.Equal(t, "X", out.Title)
	assert.Equal(t, "d", out.Description)
	assert.Equal(t, "Latin", out.Language)
	assert.Equal(t, []int{1}, numbers(out))
}

func TestMerge_AllNullUsesDefaults(t *testing.T) {
	out := Merge([]*model.ParsedDocument{nil, nil})
	assert.Equal(t, model.UnknownTitle, out.Title)
	assert.Equal(t, model.DefaultDescription, out.Description)
	assert.Equal(t, model.UnknownLanguage, out.Language)
	assert.Empty(t, out.Chapters)

	out = Merge(nil)
	assert.Equal(t, model.UnknownTitle, out.Title)
}

func TestMerge_RepeatedChapterKeepsArrivalOrder(t *testing.T) {
	a := &model.ParsedDocument{Chapters: []model.ParsedChapter{chapter(1, verse(5, "late"))}}
	b := &model.ParsedDocument{Chapters: []model.ParsedChapter{chapter(2, verse(1, "two"))}}
	c := &model.ParsedDocument{Chapters: []model.ParsedChapter{chapter(1, verse(1, "early"))}}

	out := Merge([]*model.ParsedDocument{a, b, c})
	assert.Equal(t, []int{1, 2}, numbers(out))
	assert.Equal(t, []model.ParsedVerse{verse(5, "late"), verse(1, "early")}, out.Chapters[0].Verses)
}

func TestAccumulator_ResultDoesNotAlias(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(&model.ParsedDocument{Title: "T", Chapters: []model.ParsedChapter{chapter(1, verse(1, "a"))}})
	first := acc.Result()

	acc.Add(&model.ParsedDocument{Title: "ignored", Chapters: []model.ParsedChapter{chapter(1, verse(2, "b"))}})
	second := acc.Result()

	assert.Len(t, first.Chapters[0].Verses, 1)
	assert.Len(t, second.Chapters[0].Verses, 2)
	assert.Equal(t, "T", second.Title)
}

func TestAccumulator_FillsMissingChapterTitle(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(&model.ParsedDocument{Chapters: []model.ParsedChapter{{Number: 3}}})
	acc.Add(&model.ParsedDocument{Chapters: []model.ParsedChapter{{Number: 3, Title: "Third"}}})
	assert.Equal(t, "Third", acc.Result().Chapters[0].Title)
}
