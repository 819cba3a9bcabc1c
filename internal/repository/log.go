package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/VerseVault/internal/model"
)

// InsertLog appends a processing log entry.
func (r *Repository) InsertLog(ctx context.Context, entry *model.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	var meta []byte
	if len(entry.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(entry.Metadata); err != nil {
			return fmt.Errorf("encode log metadata: %w", err)
		}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO processing_logs (id, document_id, level, message, metadata, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.DocumentID, entry.Level, entry.Message, meta, entry.CreatedAt)
	return mapError("insert log", err)
}

// listLogsQuery orders by the insertion sequence; timestamps only keep
// microseconds and can tie.
const listLogsQuery = `
	SELECT id, document_id, level, message, metadata, created_at
	FROM processing_logs WHERE document_id=$1 ORDER BY seq
`

// ListLogs returns a document's log entries in insertion order.
func (r *Repository) ListLogs(ctx context.Context, documentID string) ([]model.LogEntry, error) {
	rows, err := r.pool.Query(ctx, listLogsQuery, documentID)
	if err != nil {
		return nil, mapError("list logs", err)
	}
	defer rows.Close()
	var out []model.LogEntry
	for rows.Next() {
		var (
			e    model.LogEntry
			meta []byte
		)
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Level, &e.Message, &meta, &e.CreatedAt); err != nil {
			return nil, mapError("scan log", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode log metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, mapError("list logs", rows.Err())
}
