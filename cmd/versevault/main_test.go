package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/VerseVault/internal/model"
)

func init() {
	color.NoColor = true
}

func TestFilterLogs(t *testing.T) {
	logs := []model.LogEntry{
		{Level: model.LevelDebug, Message: "d"},
		{Level: model.LevelInfo, Message: "i"},
		{Level: model.LevelWarn, Message: "w"},
		{Level: model.LevelError, Message: "e"},
	}

	got := filterLogs(logs, model.LevelWarn)
	require.Len(t, got, 2)
	assert.Equal(t, "w", got[0].Message)
	assert.Equal(t, "e", got[1].Message)

	assert.Len(t, filterLogs(logs, ""), 4)
}

func TestPrintChunks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printChunks(&buf, strings.Repeat("a", 25), 10))

	out := buf.String()
	assert.Contains(t, out, "1/3")
	assert.Contains(t, out, "3/3")
	assert.Contains(t, out, "3 chunks of up to 10 characters")
}

func TestChunkProgressPrintsWarnings(t *testing.T) {
	var buf bytes.Buffer
	p := newChunkProgress(&buf, false)

	p.observe(model.LogEntry{Level: model.LevelInfo, Message: "Starting"})
	p.observe(model.LogEntry{Level: model.LevelWarn, Message: "Verse 1:1 already stored, skipping"})
	p.finish()

	assert.NotContains(t, buf.String(), "Starting")
	assert.Contains(t, buf.String(), "WARN  Verse 1:1 already stored, skipping")
}

func TestLevelTag(t *testing.T) {
	assert.Equal(t, "ERROR", levelTag(model.LevelError))
	assert.Equal(t, "INFO ", levelTag(model.LevelInfo))
}
