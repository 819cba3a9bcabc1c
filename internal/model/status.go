package model

// ProcessingStatus is the coarse state exposed to callers. It is always
// derived and never stored.
type ProcessingStatus string

const (
	ProcessingUploaded  ProcessingStatus = "uploaded"
	ProcessingActive    ProcessingStatus = "processing"
	ProcessingCompleted ProcessingStatus = "completed"
	ProcessingFailed    ProcessingStatus = "failed"
)

// DeriveStatus maps the document status and the existence of a book to the
// externally visible status. A failed document wins over an existing book.
func DeriveStatus(doc DocumentStatus, hasBook bool) ProcessingStatus {
	switch {
	case doc == StatusFailed:
		return ProcessingFailed
	case hasBook:
		return ProcessingCompleted
	case doc == StatusProcessing:
		return ProcessingActive
	default:
		return ProcessingUploaded
	}
}
