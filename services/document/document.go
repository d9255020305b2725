// Package document provides document operations, including an ETag read
// cache and client-side sealed (encrypted) documents.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	arangorest "github.com/arangorest/arangorest-go"
	"github.com/arangorest/arangorest-go/security"
	"github.com/arangorest/arangorest-go/transport"
)

// ErrNotModified is returned by Read when IfNoneMatch matches the
// current revision.
var ErrNotModified = errors.New("document: not modified")

// ErrNoSealer is returned by sealed operations on a client created
// without WithSealer.
var ErrNoSealer = errors.New("document: no sealer configured")

// DocumentClient defines the interface for document operations.
// Implement this interface for testing with mocks.
type DocumentClient interface {
	Read(ctx context.Context, collection, key string, out any, opts *ReadOptions) error
	Head(ctx context.Context, collection, key string, opts *ReadOptions) (string, error)
	Create(ctx context.Context, collection string, doc any, opts *WriteOptions) (*Result, error)
	CreateMany(ctx context.Context, collection string, docs any, opts *WriteOptions) ([]Result, error)
	Replace(ctx context.Context, collection, key string, doc any, opts *WriteOptions) (*Result, error)
	Update(ctx context.Context, collection, key string, patch any, opts *WriteOptions) (*Result, error)
	Delete(ctx context.Context, collection, key string, opts *WriteOptions) (*Result, error)
	Exists(ctx context.Context, collection, key string) (bool, error)
	Import(ctx context.Context, collection string, docs []any, opts *ImportOptions) (*ImportResult, error)
	ReadCached(ctx context.Context, collection, key string, out any) error
	CreateSealed(ctx context.Context, collection, key string, doc any, opts *WriteOptions) (*Result, error)
	ReadSealed(ctx context.Context, collection, key string, out any) error
}

// Client is a document client.
type Client struct {
	client arangorest.Requester
	cache  arangorest.Cache
	sealer *security.Sealer
}

// Option configures a document Client.
type Option func(*Client)

// WithCache enables ReadCached revalidation against cache.
func WithCache(cache arangorest.Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithSealer enables CreateSealed and ReadSealed.
func WithSealer(sealer *security.Sealer) Option {
	return func(c *Client) {
		c.sealer = sealer
	}
}

// NewClient creates a new document client. Without WithCache, ReadCached
// uses a default in-memory cache.
func NewClient(c arangorest.Requester, opts ...Option) *Client {
	client := &Client{client: c}
	for _, opt := range opts {
		opt(client)
	}
	if client.cache == nil {
		client.cache = arangorest.NewMemoryCache(arangorest.DefaultCacheConfig())
	}
	return client
}

// Ensure Client implements DocumentClient.
var _ DocumentClient = (*Client)(nil)

// Meta is the system attributes of a stored document.
type Meta struct {
	ID     string `json:"_id"`
	Key    string `json:"_key"`
	Rev    string `json:"_rev"`
	OldRev string `json:"_oldRev,omitempty"`
}

// Result is the outcome of a document write.
type Result struct {
	Meta
	New json.RawMessage `json:"new,omitempty"`
	Old json.RawMessage `json:"old,omitempty"`

	// Err is set for a failed item of CreateMany.
	Err *arangorest.ApplicationError `json:"-"`
}

// ImportResult summarizes an Import.
type ImportResult struct {
	Created int      `json:"created"`
	Errors  int      `json:"errors"`
	Empty   int      `json:"empty"`
	Updated int      `json:"updated"`
	Ignored int      `json:"ignored"`
	Details []string `json:"details,omitempty"`
}

// NewKey returns a random document key.
func NewKey() string {
	return uuid.NewString()
}

func collectionPath(collection string) string {
	return "/_api/document/" + arangorest.PathEscape(collection)
}

func documentPath(collection, key string) string {
	return collectionPath(collection) + "/" + arangorest.PathEscape(key)
}

func requireHandle(collection, key string) error {
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return err
	}
	return arangorest.RequireArg("document key", key)
}

// Read decodes a document into out.
//
// Example:
//
//	var user User
//	if err := docs.Read(ctx, "users", "alice", &user, nil); err != nil {
//	    if arangorest.IsNotFound(err) {
//	        // Handle missing document
//	    }
//	}
func (c *Client) Read(ctx context.Context, collection, key string, out any, opts *ReadOptions) error {
	if err := requireHandle(collection, key); err != nil {
		return err
	}
	resp, err := c.client.Get(ctx, documentPath(collection, key), opts.requestOptions()...)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotModified {
		return ErrNotModified
	}
	return resp.Unmarshal(out)
}

// Head returns the current revision of a document without its body.
func (c *Client) Head(ctx context.Context, collection, key string, opts *ReadOptions) (string, error) {
	if err := requireHandle(collection, key); err != nil {
		return "", err
	}

	path := documentPath(collection, key)
	var (
		resp *arangorest.Response
		err  error
	)
	if doer, ok := c.client.(arangorest.Doer); ok {
		resp, err = doer.Request(ctx, http.MethodHead, path, nil, opts.requestOptions()...)
	} else {
		resp, err = c.client.Get(ctx, path, opts.requestOptions()...)
	}
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusNotModified {
		return "", ErrNotModified
	}
	if rev := resp.ETag(); rev != "" {
		return rev, nil
	}
	return resp.Get("_rev").String(), nil
}

// Exists reports whether a document exists.
// Only not-found errors count as false; other failures are returned.
func (c *Client) Exists(ctx context.Context, collection, key string) (bool, error) {
	_, err := c.Head(ctx, collection, key, nil)
	if err != nil {
		if arangorest.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Create stores a new document.
func (c *Client) Create(ctx context.Context, collection string, doc any, opts *WriteOptions) (*Result, error) {
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return nil, err
	}
	resp, err := c.client.Post(ctx, collectionPath(collection), doc, opts.requestOptions()...)
	if err != nil {
		return nil, err
	}
	return decodeResult(resp)
}

// CreateMany stores several documents in one request. docs must encode as
// a JSON array. Items rejected by the server carry Err; the call itself
// only fails when the whole request does.
func (c *Client) CreateMany(ctx context.Context, collection string, docs any, opts *WriteOptions) ([]Result, error) {
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return nil, err
	}
	resp, err := c.client.Post(ctx, collectionPath(collection), docs, opts.requestOptions()...)
	if err != nil {
		return nil, err
	}

	items := resp.Get("@this").Array()
	results := make([]Result, 0, len(items))
	for i, item := range items {
		var r Result
		if item.Get("error").Bool() {
			r.Err = &arangorest.ApplicationError{
				Code:         resp.StatusCode,
				ErrorNum:     int(item.Get("errorNum").Int()),
				ErrorMessage: item.Get("errorMessage").String(),
			}
		} else if err := json.Unmarshal([]byte(item.Raw), &r); err != nil {
			return nil, fmt.Errorf("decode result %d: %w", i, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// Replace overwrites a document.
func (c *Client) Replace(ctx context.Context, collection, key string, doc any, opts *WriteOptions) (*Result, error) {
	if err := requireHandle(collection, key); err != nil {
		return nil, err
	}
	resp, err := c.client.Put(ctx, documentPath(collection, key), doc, opts.requestOptions()...)
	if err != nil {
		return nil, err
	}
	c.cache.Delete(c.cacheKey(collection, key))
	return decodeResult(resp)
}

// Update merges patch into a document.
func (c *Client) Update(ctx context.Context, collection, key string, patch any, opts *WriteOptions) (*Result, error) {
	if err := requireHandle(collection, key); err != nil {
		return nil, err
	}
	resp, err := c.client.Patch(ctx, documentPath(collection, key), patch, opts.requestOptions()...)
	if err != nil {
		return nil, err
	}
	c.cache.Delete(c.cacheKey(collection, key))
	return decodeResult(resp)
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, collection, key string, opts *WriteOptions) (*Result, error) {
	if err := requireHandle(collection, key); err != nil {
		return nil, err
	}
	resp, err := c.client.Delete(ctx, documentPath(collection, key), opts.requestOptions()...)
	if err != nil {
		return nil, err
	}
	c.cache.Delete(c.cacheKey(collection, key))
	return decodeResult(resp)
}

// Import bulk-loads documents, sent as newline-delimited JSON.
//
// Example:
//
//	res, err := docs.Import(ctx, "users", []any{u1, u2}, &document.ImportOptions{
//	    OnDuplicate: "update",
//	})
func (c *Client) Import(ctx context.Context, collection string, docs []any, opts *ImportOptions) (*ImportResult, error) {
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return nil, &arangorest.ConfigError{Field: "docs", Message: fmt.Sprintf("document %d cannot be encoded", i), Err: err}
		}
	}

	resp, err := c.client.Post(ctx, "/_api/import", nil,
		arangorest.WithParams(opts.params(collection)),
		arangorest.WithRawBody(buf.Bytes(), transport.ContentTypeNDJSON),
	)
	if err != nil {
		return nil, err
	}

	var out ImportResult
	if err := resp.Unmarshal(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReadCached reads a document, revalidating a cached copy with
// If-None-Match. The server is always asked; an unchanged document costs
// a 304 without a body.
func (c *Client) ReadCached(ctx context.Context, collection, key string, out any) error {
	if err := requireHandle(collection, key); err != nil {
		return err
	}

	cacheKey := c.cacheKey(collection, key)
	var opts []arangorest.RequestOption
	cached, ok := c.cache.Get(cacheKey)
	if ok {
		opts = append(opts, arangorest.WithHeader("If-None-Match", quote(cached.ETag())))
	}

	resp, err := c.client.Get(ctx, documentPath(collection, key), opts...)
	if err != nil {
		if arangorest.IsNotFound(err) {
			c.cache.Delete(cacheKey)
		}
		return err
	}

	if resp.StatusCode == http.StatusNotModified && ok {
		return cached.Unmarshal(out)
	}
	c.cache.Set(cacheKey, resp)
	return resp.Unmarshal(out)
}

func (c *Client) cacheKey(collection, key string) string {
	return c.database() + "/" + collection + "/" + key
}

func (c *Client) database() string {
	if scoper, ok := c.client.(arangorest.DatabaseScoper); ok {
		return scoper.Database()
	}
	return arangorest.DefaultDatabase
}

// sealedDocument is the stored form of a sealed payload.
type sealedDocument struct {
	Key    string `json:"_key,omitempty"`
	Sealed []byte `json:"sealed"`
}

// CreateSealed encrypts doc on the client and stores it under key (empty
// for a server-generated key). The ciphertext is bound to the database
// and collection and cannot be opened elsewhere.
func (c *Client) CreateSealed(ctx context.Context, collection, key string, doc any, opts *WriteOptions) (*Result, error) {
	if c.sealer == nil {
		return nil, ErrNoSealer
	}
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(doc)
	if err != nil {
		return nil, &arangorest.ConfigError{Field: "document", Message: "cannot encode as JSON", Err: err}
	}
	sealed, err := c.sealer.Seal(security.Scope(c.database(), collection), plaintext)
	if err != nil {
		return nil, fmt.Errorf("seal document: %w", err)
	}

	return c.Create(ctx, collection, sealedDocument{Key: key, Sealed: sealed}, opts)
}

// ReadSealed reads a document written by CreateSealed and decrypts it
// into out.
func (c *Client) ReadSealed(ctx context.Context, collection, key string, out any) error {
	if c.sealer == nil {
		return ErrNoSealer
	}
	var stored sealedDocument
	if err := c.Read(ctx, collection, key, &stored, nil); err != nil {
		return err
	}
	if len(stored.Sealed) == 0 {
		return fmt.Errorf("document %s/%s is not sealed", collection, key)
	}

	plaintext, err := c.sealer.Open(security.Scope(c.database(), collection), stored.Sealed)
	if err != nil {
		return fmt.Errorf("open document %s/%s: %w", collection, key, err)
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("decode sealed document: %w", err)
	}
	return nil
}

func decodeResult(resp *arangorest.Response) (*Result, error) {
	var r Result
	if len(resp.Body) == 0 {
		return &r, nil
	}
	if err := resp.Unmarshal(&r); err != nil {
		return nil, err
	}
	return &r, nil
}
