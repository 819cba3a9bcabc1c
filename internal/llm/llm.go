// Package llm wraps the text completion API used for structure extraction.
package llm

import (
	"context"
	"errors"
	"sync"
)

// ErrNoContent is returned when the provider answers without any text.
var ErrNoContent = errors.New("llm returned no content")

// Options bounds one completion request.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Completer turns a system and user prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
}

// Shared holds one Completer for the lifetime of the process. It is built on
// first use; a failed build is retried by the next caller. There is no
// teardown.
type Shared struct {
	build func(ctx context.Context) (Completer, error)

	mu     sync.Mutex
	client Completer
}

// NewShared returns a holder that calls build lazily.
func NewShared(build func(ctx context.Context) (Completer, error)) *Shared {
	return &Shared{build: build}
}

// Get returns the shared client, building it if needed.
func (s *Shared) Get(ctx context.Context) (Completer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	c, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	s.client = c
	return c, nil
}

// Complete lets a Shared stand in for a Completer.
func (s *Shared) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	c, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	return c.Complete(ctx, systemPrompt, userPrompt, opts)
}
