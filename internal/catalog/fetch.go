package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const maxCatalogBytes = 64 << 20

// ErrDocumentTooLarge is returned when the catalog body exceeds the read limit.
var ErrDocumentTooLarge = errors.New("catalog document too large")

// Fetcher retrieves the raw catalog document.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// StatusError reports a non-success response from the catalog host.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog fetch returned status %d", e.StatusCode)
}

type HTTPFetcher struct {
	url      string
	client   *http.Client
	maxBytes int64
}

func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{
		url:      url,
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: maxCatalogBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read catalog body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrDocumentTooLarge, f.maxBytes)
	}
	return body, nil
}

// ObjectReader is the slice of object storage the catalog needs.
type ObjectReader interface {
	ReadObject(ctx context.Context, key string) ([]byte, error)
}

type ObjectFetcher struct {
	reader ObjectReader
	key    string
}

func NewObjectFetcher(reader ObjectReader, key string) *ObjectFetcher {
	return &ObjectFetcher{reader: reader, key: key}
}

func (f *ObjectFetcher) Fetch(ctx context.Context) ([]byte, error) {
	data, err := f.reader.ReadObject(ctx, f.key)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog object %s: %w", f.key, err)
	}
	return data, nil
}

type FileFetcher struct {
	path string
}

func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

func (f *FileFetcher) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return data, nil
}
