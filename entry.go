package cachestorage

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"time"
)

// Entry is the durable unit of the cache: one stored response variant.
//
// Entries are created when an origin response is first cached and are
// mutated only through Storage.Update, never by overwriting in place.
// An entry disappearing between reads is normal (backend-side eviction)
// and is not an error.
type Entry struct {
	// StatusCode is the HTTP status of the stored response.
	StatusCode int
	// Header holds the stored response headers. Values for a single name
	// keep their original order, including duplicates.
	Header http.Header
	// Body is a handle to the response body.
	Body *Resource
	// RequestTime is the value of the clock when the request that
	// resulted in the stored response was sent.
	// Needed for age calculation.
	RequestTime time.Time
	// ResponseTime is the value of the clock when the response was
	// received. Needed for age calculation.
	ResponseTime time.Time
	// VariantNames holds the request header names this response varied
	// on, as captured from the Vary response header.
	VariantNames []string
}

// Resource is a handle to a stored response body. The bytes live either
// on the heap or in a spill file on disk; both are read through Open.
type Resource struct {
	data   []byte
	path   string
	length int64
}

// NewResource returns a heap-backed resource wrapping b.
func NewResource(b []byte) *Resource {
	return &Resource{data: b, length: int64(len(b))}
}

// NewFileResource returns a resource whose bytes live in the file at path.
// The length must match the file size; it is reported without touching
// the file.
func NewFileResource(path string, length int64) *Resource {
	return &Resource{path: path, length: length}
}

// Len returns the body length in bytes. A nil resource has length zero.
func (r *Resource) Len() int64 {
	if r == nil {
		return 0
	}
	return r.length
}

// Open returns a reader over the body bytes.
// Opening a nil resource yields an empty reader.
func (r *Resource) Open() (io.ReadCloser, error) {
	if r == nil {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	if r.path != "" {
		return os.Open(r.path)
	}
	return io.NopCloser(bytes.NewReader(r.data)), nil
}

// Bytes reads the whole body into memory.
func (r *Resource) Bytes() ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	if r.path == "" {
		return r.data, nil
	}
	rc, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
