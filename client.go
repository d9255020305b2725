package arangorest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/arangorest/arangorest-go/transport"
)

// TransactionHeader carries the stream transaction id on tagged requests.
const TransactionHeader = "x-arango-trx-id"

// Client is an ArangoDB HTTP API client.
// It is safe for concurrent use from multiple goroutines.
type Client struct {
	config    *clientConfig
	transport transport.Transport
	auth      *authenticator
	logger    *slog.Logger

	// mu guards database. Switching it gives no ordering guarantee with
	// respect to in-flight calls; use InDatabase for per-call isolation.
	mu       sync.RWMutex
	database string
}

// New creates a new client with the given options.
//
// Example:
//
//	client, err := arangorest.New(
//	    arangorest.WithEndpoint("http://localhost:8529"),
//	    arangorest.WithBasicAuth("root", "secret"),
//	    arangorest.WithDatabase("shop"),
//	)
func New(opts ...Option) (*Client, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	config.endpoint = strings.TrimRight(config.endpoint, "/")
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	auth, err := newAuthenticator(config)
	if err != nil {
		return nil, err
	}

	t := config.transport
	if t == nil {
		httpOpts := []transport.HTTPOption{
			transport.WithTimeout(config.timeout),
			transport.WithKeepAlive(config.keepAlive),
			transport.WithPoolSize(config.poolSize),
			transport.WithInsecureSkipVerify(config.insecureSkipVerify),
		}
		if config.httpClient != nil {
			httpOpts = append(httpOpts, transport.WithHTTPClient(config.httpClient))
		}
		t = transport.NewHTTP(config.endpoint, httpOpts...)
	}

	logger := config.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config:    config,
		transport: t,
		auth:      auth,
		logger:    logger,
		database:  config.database,
	}, nil
}

// MustNew creates a new client with the given options.
// Panics if the configuration is invalid.
// Use New() for error handling in production code.
func MustNew(opts ...Option) *Client {
	client, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return client
}

// validateConfig validates the client configuration.
func validateConfig(config *clientConfig) error {
	if config.endpoint == "" {
		return &ConfigError{Field: "endpoint", Message: "must not be empty", Err: ErrMissingEndpoint}
	}
	if !strings.HasPrefix(config.endpoint, "http://") && !strings.HasPrefix(config.endpoint, "https://") {
		return newConfigError("endpoint", fmt.Sprintf("%q must start with http:// or https://", config.endpoint))
	}
	if config.database == "" {
		return newConfigError("database", "must not be empty")
	}
	if config.timeout < 0 {
		return newConfigError("timeout", "cannot be negative")
	}
	if config.keepAlive < 0 {
		return newConfigError("keepalive", "cannot be negative")
	}
	if config.poolSize < 0 {
		return newConfigError("pool size", "cannot be negative")
	}
	return nil
}

// Endpoint returns the configured base URL.
func (c *Client) Endpoint() string {
	return c.config.endpoint
}

// AuthScheme returns the authentication scheme chosen at construction.
func (c *Client) AuthScheme() AuthScheme {
	return c.auth.scheme
}

// Database returns the current default database.
func (c *Client) Database() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.database
}

// UseDatabase switches the default database for subsequent calls on this
// client. It is not ordered against concurrent calls; pass InDatabase to a
// call that must target a specific database.
func (c *Client) UseDatabase(name string) error {
	if err := RequireArg("database", name); err != nil {
		return err
	}
	c.mu.Lock()
	c.database = name
	c.mu.Unlock()
	return nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, nil, opts...)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodHead, path, nil, opts...)
}

// Post issues a POST request with a JSON body (nil for none).
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, body, opts...)
}

// Put issues a PUT request with a JSON body (nil for none).
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPut, path, body, opts...)
}

// Patch issues a PATCH request with a JSON body (nil for none).
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPatch, path, body, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, opts...)
}

// Request builds and sends a request. Every other call funnels through it.
func (c *Client) Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	rc := newRequestConfig(opts)

	req, err := c.buildRequest(method, path, body, rc)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := c.transport.Do(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "arangorest request failed",
			"method", method, "path", path, "error", err)
		return nil, &ConnectionError{Method: method, URL: req.URL, Err: err}
	}

	c.logger.DebugContext(ctx, "arangorest request",
		"method", method,
		"path", path,
		"status", raw.StatusCode,
		"duration", time.Since(start),
	)

	return parseResponse(raw.StatusCode, raw.Header, raw.Body)
}

// buildRequest resolves the URL, encodes the body and merges headers.
func (c *Client) buildRequest(method, path string, body any, rc *requestConfig) (*transport.Request, error) {
	if path == "" {
		return nil, newConfigError("path", "must not be empty")
	}

	database := rc.database
	if database == "" {
		database = c.Database()
	}

	url := c.config.endpoint + resolvePath(path, database)
	if query := rc.params.Encode(); query != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + query
	}

	header := http.Header{}
	header.Set("Accept", transport.ContentTypeJSON)
	header.Set("Authorization", c.auth.header)

	var payload []byte
	switch {
	case rc.hasRawBody && body != nil:
		return nil, newConfigError("body", "structured body and raw body are mutually exclusive")
	case rc.hasRawBody:
		payload = rc.rawBody
		if rc.rawType != "" {
			header.Set("Content-Type", rc.rawType)
		}
	case body != nil:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &ConfigError{Field: "body", Message: "cannot encode as JSON", Err: err}
		}
		payload = data
		header.Set("Content-Type", transport.ContentTypeJSON)
	}

	if rc.transaction != "" {
		header.Set(TransactionHeader, rc.transaction)
	}
	for name, values := range rc.header {
		header[name] = values
	}

	return &transport.Request{
		Method: method,
		URL:    url,
		Header: header,
		Body:   payload,
	}, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	return c.transport.Close()
}
