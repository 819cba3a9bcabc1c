package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct{}

func (echo) Complete(_ context.Context, _, user string, _ Options) (string, error) {
	return user, nil
}

func TestShared_BuildsOnceAndRetriesFailures(t *testing.T) {
	calls := 0
	s := NewShared(func(context.Context) (Completer, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("no credentials yet")
		}
		return echo{}, nil
	})

	_, err := s.Complete(context.Background(), "", "hi", Options{})
	require.Error(t, err)

	out, err := s.Complete(context.Background(), "", "hi", Options{})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	_, err = s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "", 0)
	assert.Error(t, err)
}

func TestResponseText(t *testing.T) {
	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"title":`), genai.Text(`"X"}`)}},
		}},
	}
	assert.Equal(t, `{"title":"X"}`, responseText(resp))
}
