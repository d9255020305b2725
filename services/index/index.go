// Package index provides index operations.
package index

import (
	"context"
	"encoding/json"
	"strings"

	arangorest "github.com/arangorest/arangorest-go"
)

// IndexClient defines the interface for index operations.
// Implement this interface for testing with mocks.
type IndexClient interface {
	List(ctx context.Context, collection string) ([]Index, error)
	Get(ctx context.Context, id string) (*Index, error)
	Create(ctx context.Context, collection string, def any) (*Index, error)
	EnsurePersistent(ctx context.Context, collection string, fields []string, opts *PersistentOptions) (*Index, error)
	EnsureTTL(ctx context.Context, collection, field string, expireAfter int, opts *TTLOptions) (*Index, error)
	EnsureGeo(ctx context.Context, collection string, fields []string, opts *GeoOptions) (*Index, error)
	EnsureInverted(ctx context.Context, collection string, fields []InvertedField, opts *InvertedOptions) (*Index, error)
	Delete(ctx context.Context, id string) error
}

// Client is an index client.
type Client struct {
	client arangorest.Requester
}

// NewClient creates a new index client.
func NewClient(c arangorest.Requester) *Client {
	return &Client{client: c}
}

// Ensure Client implements IndexClient.
var _ IndexClient = (*Client)(nil)

// Index describes an index. Type-specific attributes not modelled here are
// kept in Raw.
type Index struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Fields         []string `json:"-"`
	Unique         bool     `json:"unique"`
	Sparse         bool     `json:"sparse"`
	ExpireAfter    int      `json:"expireAfter,omitempty"`
	IsNewlyCreated bool     `json:"isNewlyCreated,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the raw definition and tolerates object-shaped
// fields (inverted indexes).
func (i *Index) UnmarshalJSON(data []byte) error {
	type plain Index
	aux := struct {
		*plain
		Fields []json.RawMessage `json:"fields"`
	}{plain: (*plain)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	i.Fields = i.Fields[:0]
	for _, f := range aux.Fields {
		var name string
		if err := json.Unmarshal(f, &name); err == nil {
			i.Fields = append(i.Fields, name)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(f, &obj); err == nil {
			i.Fields = append(i.Fields, obj.Name)
		}
	}
	i.Raw = append(i.Raw[:0], data...)
	return nil
}

// PersistentOptions configures EnsurePersistent.
type PersistentOptions struct {
	Name         string   `json:"name,omitempty"`
	Unique       bool     `json:"unique,omitempty"`
	Sparse       bool     `json:"sparse,omitempty"`
	Deduplicate  *bool    `json:"deduplicate,omitempty"`
	Estimates    *bool    `json:"estimates,omitempty"`
	CacheEnabled bool     `json:"cacheEnabled,omitempty"`
	StoredValues []string `json:"storedValues,omitempty"`
	InBackground bool     `json:"inBackground,omitempty"`
}

// TTLOptions configures EnsureTTL.
type TTLOptions struct {
	Name         string `json:"name,omitempty"`
	InBackground bool   `json:"inBackground,omitempty"`
}

// GeoOptions configures EnsureGeo.
type GeoOptions struct {
	Name           string `json:"name,omitempty"`
	GeoJSON        bool   `json:"geoJson,omitempty"`
	LegacyPolygons bool   `json:"legacyPolygons,omitempty"`
	InBackground   bool   `json:"inBackground,omitempty"`
}

// InvertedField is one field of an inverted index.
type InvertedField struct {
	Name             string   `json:"name"`
	Analyzer         string   `json:"analyzer,omitempty"`
	IncludeAllFields bool     `json:"includeAllFields,omitempty"`
	Features         []string `json:"features,omitempty"`
}

// InvertedOptions configures EnsureInverted.
type InvertedOptions struct {
	Name             string   `json:"name,omitempty"`
	Analyzer         string   `json:"analyzer,omitempty"`
	Features         []string `json:"features,omitempty"`
	IncludeAllFields bool     `json:"includeAllFields,omitempty"`
	InBackground     bool     `json:"inBackground,omitempty"`
}

// handlePath turns "collection/id" into an index path.
func handlePath(id string) string {
	col, num, ok := strings.Cut(id, "/")
	if !ok {
		return "/_api/index/" + arangorest.PathEscape(id)
	}
	return "/_api/index/" + arangorest.PathEscape(col) + "/" + arangorest.PathEscape(num)
}

// List returns the indexes of a collection.
func (c *Client) List(ctx context.Context, collection string) ([]Index, error) {
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, "/_api/index", arangorest.WithQuery("collection", collection))
	if err != nil {
		return nil, err
	}
	var out []Index
	if err := resp.UnmarshalPath("indexes", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns an index by its handle ("collection/id").
func (c *Client) Get(ctx context.Context, id string) (*Index, error) {
	if err := arangorest.RequireArg("index id", id); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, handlePath(id))
	if err != nil {
		return nil, err
	}
	return decodeIndex(resp)
}

// Create creates an index from a raw definition (any JSON-encodable value
// carrying at least "type").
func (c *Client) Create(ctx context.Context, collection string, def any) (*Index, error) {
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return nil, err
	}
	resp, err := c.client.Post(ctx, "/_api/index", def, arangorest.WithQuery("collection", collection))
	if err != nil {
		return nil, err
	}
	return decodeIndex(resp)
}

// EnsurePersistent creates a persistent index unless an identical one exists.
//
// Example:
//
//	idx, err := indexes.EnsurePersistent(ctx, "users", []string{"email"},
//	    &index.PersistentOptions{Unique: true})
func (c *Client) EnsurePersistent(ctx context.Context, collection string, fields []string, opts *PersistentOptions) (*Index, error) {
	body := struct {
		Type   string   `json:"type"`
		Fields []string `json:"fields"`
		*PersistentOptions
	}{"persistent", fields, opts}
	return c.Create(ctx, collection, body)
}

// EnsureTTL creates a TTL index removing documents expireAfter seconds
// after the timestamp in field.
func (c *Client) EnsureTTL(ctx context.Context, collection, field string, expireAfter int, opts *TTLOptions) (*Index, error) {
	if err := arangorest.RequireArg("field", field); err != nil {
		return nil, err
	}
	body := struct {
		Type        string   `json:"type"`
		Fields      []string `json:"fields"`
		ExpireAfter int      `json:"expireAfter"`
		*TTLOptions
	}{"ttl", []string{field}, expireAfter, opts}
	return c.Create(ctx, collection, body)
}

// EnsureGeo creates a geo index over one (GeoJSON or [lat, lon]) or two
// (latitude, longitude) fields.
func (c *Client) EnsureGeo(ctx context.Context, collection string, fields []string, opts *GeoOptions) (*Index, error) {
	body := struct {
		Type   string   `json:"type"`
		Fields []string `json:"fields"`
		*GeoOptions
	}{"geo", fields, opts}
	return c.Create(ctx, collection, body)
}

// EnsureInverted creates an inverted index for search.
func (c *Client) EnsureInverted(ctx context.Context, collection string, fields []InvertedField, opts *InvertedOptions) (*Index, error) {
	body := struct {
		Type   string          `json:"type"`
		Fields []InvertedField `json:"fields"`
		*InvertedOptions
	}{"inverted", fields, opts}
	return c.Create(ctx, collection, body)
}

// Delete drops an index by its handle ("collection/id").
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := arangorest.RequireArg("index id", id); err != nil {
		return err
	}
	_, err := c.client.Delete(ctx, handlePath(id))
	return err
}

func decodeIndex(resp *arangorest.Response) (*Index, error) {
	var idx Index
	if err := resp.Unmarshal(&idx); err != nil {
		return nil, err
	}
	return &idx, nil
}
