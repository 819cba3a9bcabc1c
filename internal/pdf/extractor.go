package pdfutil

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	pdf "github.com/ledongthuc/pdf"
)

// Stage names reported through ProgressFunc.
const (
	StageLoading    = "loading"
	StageParsing    = "parsing"
	StageExtracting = "extracting"
	StageComplete   = "complete"
)

// Progress is one notification emitted while extracting a PDF.
type Progress struct {
	Stage   string
	Message string
	Details map[string]any
}

// ProgressFunc receives extraction progress. It must not block for long;
// extraction waits for it to return.
type ProgressFunc func(Progress)

// progressEvery controls how often per-page progress is emitted.
const progressEvery = 10

// ExtractText reads PDF bytes and returns plain text using ledongthuc/pdf.
// onProgress may be nil.
func ExtractText(data []byte, onProgress ProgressFunc) (string, error) {
	emit := func(stage, msg string, details map[string]any) {
		if onProgress != nil {
			onProgress(Progress{Stage: stage, Message: msg, Details: details})
		}
	}
	start := time.Now()
	emit(StageLoading, "loading PDF", map[string]any{"bytes": len(data)})

	reader := bytes.NewReader(data)
	doc, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("new pdf reader: %w", err)
	}
	total := doc.NumPage()
	emit(StageParsing, fmt.Sprintf("PDF has %d pages", total), map[string]any{"pages": total})

	var builder strings.Builder
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		builder.WriteString(content)
		builder.WriteString("\n")
		if page%progressEvery == 0 && page < total {
			emit(StageExtracting, fmt.Sprintf("extracted page %d of %d", page, total),
				map[string]any{"page": page, "pages": total})
		}
	}
	text := builder.String()
	emit(StageComplete, fmt.Sprintf("extracted %d characters from %d pages", len(text), total), map[string]any{
		"pages":      total,
		"chars":      len(text),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return text, nil
}

// ExtractFromReader drains the reader before passing along to ExtractText.
func ExtractFromReader(r io.Reader, onProgress ProgressFunc) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	return ExtractText(data, onProgress)
}
