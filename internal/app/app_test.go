package app

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/VerseVault/internal/config"
	"github.com/dharsanguruparan/VerseVault/internal/llm"
	"github.com/dharsanguruparan/VerseVault/internal/model"
	"github.com/dharsanguruparan/VerseVault/internal/storage"
)

type constCompleter struct{ system string }

func (c *constCompleter) Complete(_ context.Context, system, _ string, _ llm.Options) (string, error) {
	c.system = system
	return `{"title":"Wired","chapters":[{"number":1,"verses":[{"number":1,"text":"ok"}]}]}`, nil
}

func TestNewLogger(t *testing.T) {
	l := NewLogger("debug", true)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	l = NewLogger("loud", false)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestOpenStore_MemoryFallback(t *testing.T) {
	logger, hook := test.NewNullLogger()
	store, closeFn, err := OpenStore(context.Background(), &config.Config{}, logger)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &storage.MemoryStore{}, store)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestNewPipeline_UsesPromptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("custom prompt"), 0o600))
	cfg := &config.Config{ChunkSize: 100, LLMMaxTokens: 16000, LLMTemperature: 0.1, SystemPromptFile: path}

	store := storage.NewMemoryStore()
	doc := &model.Document{FileName: "a.txt", ContentType: "text/plain", StorageRef: "base64:" + base64.StdEncoding.EncodeToString([]byte("short"))}
	require.NoError(t, store.CreateDocument(ctx, doc))

	c := &constCompleter{}
	logger, _ := test.NewNullLogger()
	p, err := NewPipeline(cfg, store, c, logger)
	require.NoError(t, err)

	res, err := p.Run(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wired", res.Book.Title)
	assert.Equal(t, "custom prompt", c.system)
}

func TestNewAcquirer_ObjectStorage(t *testing.T) {
	store := storage.NewMemoryStore()
	_, err := NewAcquirer(&config.Config{S3Endpoint: "localhost:9000"}, store)
	require.NoError(t, err)

	_, err = NewPipeline(&config.Config{SystemPromptFile: filepath.Join(t.TempDir(), "missing")}, store, &constCompleter{}, nil)
	assert.Error(t, err)
}

func TestSharedLLM_ReportsMissingKey(t *testing.T) {
	shared := SharedLLM(&config.Config{})
	_, err := shared.Get(context.Background())
	assert.Error(t, err)
}
