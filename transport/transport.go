// Package transport provides the HTTP transport used by arangorest.
package transport

import (
	"context"
	"net/http"
)

// Transport sends a fully built request to the server.
type Transport interface {
	// Name returns the transport name (e.g., "http").
	Name() string

	// Do sends the request and returns the raw response.
	// A non-nil error means no response was received.
	Do(ctx context.Context, req *Request) (*Response, error)

	// IsEncrypted returns true if the transport talks TLS.
	IsEncrypted() bool

	// Close releases idle connections held by the transport.
	Close() error
}

// Request is a resolved HTTP request.
type Request struct {
	Method string      // HTTP method
	URL    string      // Absolute URL including the query string
	Header http.Header // Final header set, auth included
	Body   []byte      // Encoded body, nil for none
}

// Response is a raw HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Content types used on the wire.
const (
	ContentTypeJSON       = "application/json"
	ContentTypeNDJSON     = "application/x-ndjson"
	ContentTypeZip        = "application/zip"
	ContentTypeJavaScript = "application/javascript"
	ContentTypeText       = "text/plain"
)
