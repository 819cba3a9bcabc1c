package chunk

import (
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/VerseVault/internal/model"
)

func join(chunks []model.TextChunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

func TestChunks_Totality(t *testing.T) {
	texts := []string{
		"a",
		"In the beginning",
		strings.Repeat("abcdefghij", 97),
		strings.Repeat("ἐν ἀρχῇ ἦν ὁ λόγος ", 40),
		strings.Repeat("בְּרֵאשִׁית", 33),
	}
	for _, text := range texts {
		for _, size := range []int{1, 3, 7, 10, 64, 1000, 5000} {
			chunks := slices.Collect(Chunks(text, size))
			length := utf8.RuneCountInString(text)
			want := (length + size - 1) / size

			require.Len(t, chunks, want, "size %d", size)
			assert.Equal(t, text, join(chunks), "size %d", size)
			assert.Equal(t, want, Count(text, size))

			prevEnd := 0
			for i, c := range chunks {
				assert.Equal(t, i, c.Index)
				assert.Equal(t, want, c.Total)
				assert.Equal(t, prevEnd, c.Start, "chunks must be contiguous")
				assert.Equal(t, c.End-c.Start, utf8.RuneCountInString(c.Text))
				assert.LessOrEqual(t, c.End-c.Start, size)
				prevEnd = c.End
			}
			assert.Equal(t, length, prevEnd)
		}
	}
}

func TestChunks_SingleUnit(t *testing.T) {
	text := strings.Repeat("x", 25000)
	chunks := slices.Collect(Chunks(text, 25000))
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 25000, chunks[0].End)
	assert.Equal(t, 1, chunks[0].Total)
}

func TestChunks_SixtyThousand(t *testing.T) {
	text := strings.Repeat("0123456789", 6000)
	chunks := slices.Collect(Chunks(text, 25000))
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Text, 25000)
	assert.Len(t, chunks[1].Text, 25000)
	assert.Len(t, chunks[2].Text, 10000)
	assert.Equal(t, 50000, chunks[2].Start)
	assert.Equal(t, 60000, chunks[2].End)
}

func TestChunks_Empty(t *testing.T) {
	assert.Empty(t, slices.Collect(Chunks("", 10)))
	assert.Equal(t, 0, Count("", 10))
}

func TestChunks_DefaultSize(t *testing.T) {
	text := strings.Repeat("y", DefaultMaxSize+1)
	chunks := slices.Collect(Chunks(text, 0))
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[1].Text, 1)
	assert.Equal(t, 2, Count(text, -5))
}

func TestChunks_Restartable(t *testing.T) {
	seq := Chunks(strings.Repeat("abc", 10), 4)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
}

func TestChunks_EarlyStop(t *testing.T) {
	seen := 0
	for c := range Chunks(strings.Repeat("z", 100), 10) {
		seen++
		if c.Index == 2 {
			break
		}
	}
	assert.Equal(t, 3, seen)
}
