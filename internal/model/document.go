// Package model contains the struct definitions shared across packages.
package model

import (
	"path/filepath"
	"strings"
	"time"
)

// DocumentStatus describes the lifecycle of an uploaded source file.
type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

var statusOrder = map[DocumentStatus]int{
	StatusUploaded:   0,
	StatusProcessing: 1,
	StatusCompleted:  2,
}

// CanTransition reports whether a document in status s may move to next.
// Statuses only move forward and any status may fail. A failed document may
// go back to processing so a caller can retry it.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	if next == StatusFailed || next == s {
		return true
	}
	if s == StatusFailed {
		return next == StatusProcessing
	}
	from, ok := statusOrder[s]
	to, ok2 := statusOrder[next]
	return ok && ok2 && to > from
}

// TransitionSources lists the statuses from which a document may move to next.
func TransitionSources(next DocumentStatus) []string {
	var out []string
	for _, s := range []DocumentStatus{StatusUploaded, StatusProcessing, StatusCompleted, StatusFailed} {
		if s.CanTransition(next) {
			out = append(out, string(s))
		}
	}
	return out
}

// Document is an uploaded source file. StorageRef is either an inline
// base64 payload, an http(s) URL or an s3://bucket/key reference, and is
// never rewritten once set.
type Document struct {
	ID           string         `json:"id"`
	FileName     string         `json:"fileName"`
	ContentType  string         `json:"contentType"`
	Size         int64          `json:"size"`
	StorageRef   string         `json:"-"`
	Status       DocumentStatus `json:"status"`
	ErrorMessage *string        `json:"errorMessage,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// MediaType returns the content type without parameters, lower-cased.
func (d *Document) MediaType() string {
	mt := d.ContentType
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// IsPDF reports whether the document bytes should go through the PDF
// extractor. Generic binary content types fall back to the file extension.
func (d *Document) IsPDF() bool {
	switch d.MediaType() {
	case "application/pdf", "application/x-pdf":
		return true
	case "", "application/octet-stream", "binary/octet-stream":
		return strings.EqualFold(filepath.Ext(d.FileName), ".pdf")
	}
	return false
}
