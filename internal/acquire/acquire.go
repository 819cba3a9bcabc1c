// Package acquire resolves a document's storage reference to raw text.
package acquire

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dharsanguruparan/VerseVault/internal/model"
	pdfutil "github.com/dharsanguruparan/VerseVault/internal/pdf"
	"github.com/dharsanguruparan/VerseVault/internal/s3storage"
)

// DocumentStore loads document records.
type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (*model.Document, error)
}

// ObjectStore fetches objects referenced as s3://bucket/key.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key string) ([]byte, string, error)
}

// RawText is the decoded content of a document. It is never persisted.
type RawText struct {
	Text      string
	MediaType string
}

// Acquirer fetches and decodes document content.
type Acquirer struct {
	docs    DocumentStore
	objects ObjectStore
	client  *http.Client
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithHTTPClient replaces the client used for http(s) references.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Acquirer) { a.client = c }
}

// WithObjectStore enables s3:// references.
func WithObjectStore(s ObjectStore) Option {
	return func(a *Acquirer) { a.objects = s }
}

// New builds an Acquirer with a 60 second HTTP timeout unless overridden.
func New(docs DocumentStore, opts ...Option) *Acquirer {
	a := &Acquirer{
		docs:   docs,
		client: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire loads the document and returns its text. PDF progress is passed to
// onProgress, which may be nil.
func (a *Acquirer) Acquire(ctx context.Context, documentID string, onProgress pdfutil.ProgressFunc) (*RawText, error) {
	doc, err := a.docs.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.StorageRef) == "" {
		return nil, fmt.Errorf("document %s has no content reference: %w", documentID, model.ErrNotFound)
	}

	data, fetchedType, err := a.fetch(ctx, doc.StorageRef)
	if err != nil {
		return nil, err
	}
	if doc.ContentType == "" && fetchedType != "" {
		doc.ContentType = fetchedType
	}
	return Decode(doc, data, onProgress)
}

// Decode turns fetched bytes into text according to the document's media type.
func Decode(doc *model.Document, data []byte, onProgress pdfutil.ProgressFunc) (*RawText, error) {
	if doc.IsPDF() {
		text, err := pdfutil.ExtractText(data, onProgress)
		if err != nil {
			return nil, fmt.Errorf("pdf %s: %v: %w", doc.FileName, err, model.ErrDecode)
		}
		return &RawText{Text: text, MediaType: "application/pdf"}, nil
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s is not valid UTF-8: %w", doc.FileName, model.ErrDecode)
	}
	mt := doc.MediaType()
	if mt == "" {
		mt = "text/plain"
	}
	return &RawText{Text: string(data), MediaType: mt}, nil
}

func (a *Acquirer) fetch(ctx context.Context, ref string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(ref, "data:"), strings.HasPrefix(ref, "base64:"):
		return decodeInline(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return a.fetchURL(ctx, ref)
	case strings.HasPrefix(ref, "s3://"):
		return a.fetchObject(ctx, ref)
	default:
		return nil, "", fmt.Errorf("unsupported storage reference %q: %w", truncate(ref, 32), model.ErrNotFound)
	}
}

// decodeInline handles data:<media>;base64,<payload> and base64:<payload>.
func decodeInline(ref string) ([]byte, string, error) {
	var mediaType, payload string
	if rest, ok := strings.CutPrefix(ref, "data:"); ok {
		header, body, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("inline payload is not base64 encoded: %w", model.ErrDecode)
		}
		mediaType = strings.TrimSuffix(header, ";base64")
		payload = body
	} else {
		payload = strings.TrimPrefix(ref, "base64:")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, "", fmt.Errorf("inline payload: %v: %w", err, model.ErrDecode)
	}
	return data, mediaType, nil
}

func (a *Acquirer) fetchURL(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", model.NewFetchError(url, 0, nil, err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", model.NewFetchError(url, 0, nil, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", model.NewFetchError(url, resp.StatusCode, body, nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", model.NewFetchError(url, resp.StatusCode, nil, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (a *Acquirer) fetchObject(ctx context.Context, ref string) ([]byte, string, error) {
	bucket, key, err := s3storage.ParseRef(ref)
	if err != nil {
		return nil, "", fmt.Errorf("%v: %w", err, model.ErrNotFound)
	}
	if a.objects == nil {
		return nil, "", model.NewFetchError(ref, 0, nil, fmt.Errorf("object storage not configured"))
	}
	data, contentType, err := a.objects.Download(ctx, bucket, key)
	if err != nil {
		return nil, "", model.NewFetchError(ref, 0, nil, err)
	}
	return data, contentType, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
