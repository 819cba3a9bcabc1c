package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dharsanguruparan/VerseVault/internal/model"
	"github.com/dharsanguruparan/VerseVault/internal/persist"
	"github.com/dharsanguruparan/VerseVault/internal/pipeline"
	"github.com/dharsanguruparan/VerseVault/internal/status"
)

var (
	_ pipeline.Store = (*Repository)(nil)
	_ persist.Store  = (*Repository)(nil)
	_ status.Store   = (*Repository)(nil)
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("op", nil))
	assert.ErrorIs(t, mapError("select", pgx.ErrNoRows), model.ErrNotFound)

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "verses_book_id_chapter_number_number_key"}
	err := mapError("insert verse", fmt.Errorf("exec: %w", dup))
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Contains(t, err.Error(), "verses_book_id_chapter_number_number_key")

	other := mapError("insert verse", &pgconn.PgError{Code: "23503"})
	assert.False(t, errors.Is(other, model.ErrConflict))
	assert.False(t, errors.Is(other, model.ErrNotFound))
}

func TestRequireRow(t *testing.T) {
	assert.ErrorIs(t, requireRow("update", pgconn.NewCommandTag("UPDATE 0")), model.ErrNotFound)
	assert.NoError(t, requireRow("update", pgconn.NewCommandTag("UPDATE 1")))
}

func TestListLogsQuery_OrdersByInsertionSequence(t *testing.T) {
	assert.Contains(t, listLogsQuery, "ORDER BY seq")
	assert.NotContains(t, listLogsQuery, "created_at, id")
}
