package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document, book or storage reference is absent.
	ErrNotFound = errors.New("not found")

	// ErrFetch wraps failures retrieving source bytes from remote storage.
	ErrFetch = errors.New("fetch failed")

	// ErrDecode is returned when content cannot be decoded to text.
	ErrDecode = errors.New("decode failed")

	// ErrExtraction is returned when the model output holds no usable JSON.
	// It only fails the unit that produced it.
	ErrExtraction = errors.New("extraction failed")

	// ErrConflict is returned by stores on a duplicate natural key. It is an
	// expected condition when a run is repeated.
	ErrConflict = errors.New("duplicate key")

	// ErrInvalidTransition is returned when a document status would move
	// backwards. It wraps ErrConflict.
	ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", ErrConflict)
)

// maxErrorBody bounds how much of an upstream error body is kept.
const maxErrorBody = 512

// FetchError carries the upstream status and a truncated body of a failed
// remote fetch.
type FetchError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

// NewFetchError builds a FetchError, truncating body.
func NewFetchError(url string, status int, body []byte, err error) *FetchError {
	if len(body) > maxErrorBody {
		body = append(body[:maxErrorBody:maxErrorBody], "..."...)
	}
	return &FetchError{URL: url, StatusCode: status, Body: string(body), Err: err}
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap exposes both ErrFetch and the underlying cause to errors.Is.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}
