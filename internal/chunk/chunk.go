// Package chunk splits raw document text into bounded, contiguous,
// non-overlapping segments. Boundaries are placed every maxSize characters
// with no attempt to respect paragraphs or verses; structures cut in half
// are put back together when the per-chunk results are merged.
package chunk

import (
	"iter"
	"unicode/utf8"

	"github.com/dharsanguruparan/VerseVault/internal/model"
)

// DefaultMaxSize is the chunk size, in characters, used when none is configured.
const DefaultMaxSize = 25000

// Chunks returns the chunks of text in order. The sequence is lazy and can
// be ranged over any number of times. Text no longer than maxSize yields a
// single chunk equal to text; empty text yields nothing. A non-positive
// maxSize selects DefaultMaxSize.
func Chunks(text string, maxSize int) iter.Seq[model.TextChunk] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return func(yield func(model.TextChunk) bool) {
		length := utf8.RuneCountInString(text)
		total := count(length, maxSize)
		rest := text
		for i, start := 0, 0; rest != ""; i++ {
			cut := byteOffset(rest, maxSize)
			end := min(start+maxSize, length)
			c := model.TextChunk{
				Text:  rest[:cut],
				Start: start,
				End:   end,
				Index: i,
				Total: total,
			}
			if !yield(c) {
				return
			}
			rest = rest[cut:]
			start = end
		}
	}
}

// Count returns the number of chunks Chunks yields for text.
func Count(text string, maxSize int) int {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return count(utf8.RuneCountInString(text), maxSize)
}

func count(length, maxSize int) int {
	return (length + maxSize - 1) / maxSize
}

// byteOffset returns the byte index just past the first n characters of s.
func byteOffset(s string, n int) int {
	for i := range s {
		if n == 0 {
			return i
		}
		n--
	}
	return len(s)
}
