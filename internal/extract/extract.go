// Package extract asks the completion model for the structure of a text unit
// and turns its reply into a ParsedDocument.
package extract

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dharsanguruparan/VerseVault/internal/llm"
	"github.com/dharsanguruparan/VerseVault/internal/model"
)

//go:embed system_prompt.txt
var defaultSystemPrompt string

// DefaultSystemPrompt describes the JSON shape the model must return.
func DefaultSystemPrompt() string { return defaultSystemPrompt }

const (
	DefaultMaxTokens   = 16000
	DefaultTemperature = 0.1
)

// Config tunes the requests an Extractor issues.
type Config struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	// RequestsPerMinute paces completion calls. Zero means unlimited.
	RequestsPerMinute int
}

// DefaultConfig returns the 16k token budget and 0.1 temperature.
func DefaultConfig() Config {
	return Config{
		SystemPrompt: defaultSystemPrompt,
		MaxTokens:    DefaultMaxTokens,
		Temperature:  DefaultTemperature,
	}
}

// Recorder receives request and response events.
type Recorder interface {
	LLMRequest(ctx context.Context, unit string, promptChars int)
	LLMResponse(ctx context.Context, unit string, latency time.Duration, responseChars int)
}

// Extractor issues one completion per unit.
type Extractor struct {
	llm     llm.Completer
	cfg     Config
	limiter *rate.Limiter
}

// New builds an Extractor. Empty fields of cfg take their defaults.
func New(c llm.Completer, cfg Config) *Extractor {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	e := &Extractor{llm: c, cfg: cfg}
	if cfg.RequestsPerMinute > 0 {
		e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return e
}

// UnitLabel names a unit in log messages. Chunk numbers are 1-based.
func UnitLabel(c model.TextChunk) string {
	if c.Total > 1 {
		return fmt.Sprintf("chunk %d/%d", c.Index+1, c.Total)
	}
	return "document"
}

// UserPrompt builds the prompt for one unit. Parts of a chunked document are
// told their position so the model can continue chapters across parts.
func UserPrompt(c model.TextChunk) string {
	var b strings.Builder
	if c.Total > 1 {
		fmt.Fprintf(&b, "This is part %d of %d of a larger document. ", c.Index+1, c.Total)
		b.WriteString("Chapters may begin in an earlier part or continue into a later one; keep their numbers as written.\n\n")
		b.WriteString("Parse this part into the JSON structure described in your instructions.\n\n")
	} else {
		b.WriteString("Parse the following text into the JSON structure described in your instructions.\n\n")
	}
	b.WriteString("TEXT:\n")
	b.WriteString(c.Text)
	return b.String()
}

// Extract sends one unit to the model and parses the reply. Any failure is
// returned as is; callers decide whether it is fatal. rec may be nil.
func (e *Extractor) Extract(ctx context.Context, c model.TextChunk, rec Recorder) (*model.ParsedDocument, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	unit := UnitLabel(c)
	prompt := UserPrompt(c)
	if rec != nil {
		rec.LLMRequest(ctx, unit, len(prompt))
	}
	start := time.Now()
	out, err := e.llm.Complete(ctx, e.cfg.SystemPrompt, prompt, llm.Options{
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: completion: %w", unit, err)
	}
	if rec != nil {
		rec.LLMResponse(ctx, unit, time.Since(start), len(out))
	}

	doc, err := Parse(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", unit, err)
	}
	return doc, nil
}

// Parse locates the JSON object in a model reply, repairs its escapes and
// decodes it.
func Parse(response string) (*model.ParsedDocument, error) {
	span, ok := findObject(response)
	if !ok {
		return nil, fmt.Errorf("no JSON object in response: %w", model.ErrExtraction)
	}
	var doc model.ParsedDocument
	if err := json.Unmarshal([]byte(sanitize(span)), &doc); err != nil {
		return nil, fmt.Errorf("decode response: %v: %w", err, model.ErrExtraction)
	}
	return &doc, nil
}
