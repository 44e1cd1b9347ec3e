// Package serializer converts cache entries to and from their stored
// byte form. Entries are rendered as HTTP/1.1 response messages, with
// the storage metadata (request and response times, variant header
// names) carried in synthetic headers that are stripped again on load.
// This keeps the stored blobs inspectable with any HTTP tooling.
//
// The "Acache-" header prefix is reserved for that metadata. Entries
// whose own headers use a reserved name are rejected rather than
// silently rewritten, since the round trip could not preserve them.
package serializer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	cachestorage "github.com/always-cache/cache-storage"
)

const (
	requestTimeHeaderName  = "Acache-Request-Time"
	responseTimeHeaderName = "Acache-Response-Time"
	variantHeaderName      = "Acache-Variant"
)

var reservedHeaderNames = []string{
	requestTimeHeaderName,
	responseTimeHeaderName,
	variantHeaderName,
}

// HTTPMessage is the cachestorage.Serializer that stores entries in
// HTTP/1.1 wire form. Message framing headers (Content-Length,
// Transfer-Encoding) are owned by the serializer and reconstructed from
// the body resource, not taken from the entry.
type HTTPMessage struct{}

func New() HTTPMessage {
	return HTTPMessage{}
}

func (HTTPMessage) Serialize(entry *cachestorage.Entry) ([]byte, error) {
	return EntryToBytes(entry)
}

func (HTTPMessage) Deserialize(b []byte) (*cachestorage.Entry, error) {
	return BytesToEntry(b)
}

// EntryToBytes converts an entry to its stored HTTP/1.1 representation.
func EntryToBytes(entry *cachestorage.Entry) ([]byte, error) {
	if entry == nil {
		return nil, fmt.Errorf("cannot serialize nil entry")
	}
	body, err := entry.Body.Bytes()
	if err != nil {
		return nil, fmt.Errorf("could not read body resource: %w", err)
	}
	header := make(http.Header, len(entry.Header)+3)
	for name, values := range entry.Header {
		for _, reserved := range reservedHeaderNames {
			if http.CanonicalHeaderKey(name) == reserved {
				return nil, fmt.Errorf("entry header %s collides with a reserved storage header", name)
			}
		}
		header[name] = append([]string(nil), values...)
	}
	// framing is reconstructed from the resource
	header.Del("Content-Length")
	header.Del("Transfer-Encoding")
	header.Set(requestTimeHeaderName, strconv.FormatInt(entry.RequestTime.UnixNano(), 10))
	header.Set(responseTimeHeaderName, strconv.FormatInt(entry.ResponseTime.UnixNano(), 10))
	for _, name := range entry.VariantNames {
		header.Add(variantHeaderName, name)
	}
	res := http.Response{
		StatusCode:    entry.StatusCode,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          http.NoBody,
		ContentLength: int64(len(body)),
	}
	if len(body) > 0 {
		res.Body = io.NopCloser(bytes.NewReader(body))
	}
	buf := &bytes.Buffer{}
	if err := res.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BytesToEntry parses a stored blob back into an entry. It fails on any
// blob that is not a well-formed serialized entry; a partially readable
// blob is never returned as a partial entry.
func BytesToEntry(b []byte) (*cachestorage.Entry, error) {
	res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), nil)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		return nil, err
	}
	requestTime, err := timeHeader(res.Header, requestTimeHeaderName)
	if err != nil {
		return nil, err
	}
	responseTime, err := timeHeader(res.Header, responseTimeHeaderName)
	if err != nil {
		return nil, err
	}
	variants := append([]string(nil), res.Header.Values(variantHeaderName)...)
	res.Header.Del(requestTimeHeaderName)
	res.Header.Del(responseTimeHeaderName)
	res.Header.Del(variantHeaderName)
	res.Header.Del("Content-Length")
	res.Header.Del("Transfer-Encoding")
	return &cachestorage.Entry{
		StatusCode:   res.StatusCode,
		Header:       res.Header,
		Body:         cachestorage.NewResource(body),
		RequestTime:  requestTime,
		ResponseTime: responseTime,
		VariantNames: variants,
	}, nil
}

func timeHeader(header http.Header, name string) (time.Time, error) {
	value := header.Get(name)
	if value == "" {
		return time.Time{}, fmt.Errorf("stored entry missing %s header", name)
	}
	nanos, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored entry has malformed %s header: %w", name, err)
	}
	return time.Unix(0, nanos), nil
}
