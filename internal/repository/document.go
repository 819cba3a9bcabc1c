package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/VerseVault/internal/model"
)

// CreateDocument inserts a document in the uploaded state.
func (r *Repository) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.Status == "" {
		doc.Status = model.StatusUploaded
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (id, file_name, content_type, size, storage_ref, status, error_message, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, doc.ID, doc.FileName, doc.ContentType, doc.Size, doc.StorageRef, doc.Status, doc.ErrorMessage, doc.CreatedAt, doc.UpdatedAt)
	return mapError("insert document", err)
}

// GetDocument returns a document by id.
func (r *Repository) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var (
		doc      model.Document
		errorMsg sql.NullString
	)
	row := r.pool.QueryRow(ctx, `
		SELECT id, file_name, content_type, size, storage_ref, status, error_message, created_at, updated_at
		FROM documents WHERE id=$1
	`, id)
	if err := row.Scan(&doc.ID, &doc.FileName, &doc.ContentType, &doc.Size, &doc.StorageRef, &doc.Status, &errorMsg, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, mapError("select document "+id, err)
	}
	if errorMsg.Valid {
		msg := errorMsg.String
		doc.ErrorMessage = &msg
	}
	return &doc, nil
}

// UpdateDocumentStatus sets status and error message. A nil message clears it.
// The WHERE clause only matches rows whose current status may move to the new
// one; backward moves fail with model.ErrInvalidTransition.
func (r *Repository) UpdateDocumentStatus(ctx context.Context, id string, status model.DocumentStatus, errMsg *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status=$1, error_message=$2, updated_at=$3
		WHERE id=$4 AND status = ANY($5::text[])
	`, status, errMsg, time.Now().UTC(), id, model.TransitionSources(status))
	if err != nil {
		return mapError("update document", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var current string
	if err := r.pool.QueryRow(ctx, `SELECT status FROM documents WHERE id=$1`, id).Scan(&current); err != nil {
		return mapError("update document "+id, err)
	}
	return fmt.Errorf("update document %s %s -> %s: %w", id, current, status, model.ErrInvalidTransition)
}
