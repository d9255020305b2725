// Package collection provides collection operations.
package collection

import (
	"context"
	"encoding/json"

	arangorest "github.com/arangorest/arangorest-go"
)

// CollectionClient defines the interface for collection operations.
// Implement this interface for testing with mocks.
type CollectionClient interface {
	List(ctx context.Context, excludeSystem bool) ([]Info, error)
	Create(ctx context.Context, name string, opts *CreateOptions) (*Properties, error)
	Get(ctx context.Context, name string) (*Info, error)
	Properties(ctx context.Context, name string) (*Properties, error)
	SetProperties(ctx context.Context, name string, props SetPropertiesOptions) (*Properties, error)
	Count(ctx context.Context, name string) (int64, error)
	Figures(ctx context.Context, name string) (json.RawMessage, error)
	Revision(ctx context.Context, name string) (string, error)
	Checksum(ctx context.Context, name string, opts *ChecksumOptions) (*Checksum, error)
	Rename(ctx context.Context, name, newName string) (*Info, error)
	Truncate(ctx context.Context, name string) error
	Drop(ctx context.Context, name string, isSystem bool) error
	Exists(ctx context.Context, name string) (bool, error)
}

// Client is a collection client.
type Client struct {
	client arangorest.Requester
}

// NewClient creates a new collection client.
func NewClient(c arangorest.Requester) *Client {
	return &Client{client: c}
}

// Ensure Client implements CollectionClient.
var _ CollectionClient = (*Client)(nil)

// Type is the collection type.
type Type int

const (
	TypeDocument Type = 2
	TypeEdge     Type = 3
)

// Status is the collection status reported by the server.
type Status int

const (
	StatusLoaded  Status = 3
	StatusDeleted Status = 5
)

// Info is the short description of a collection.
type Info struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             Type   `json:"type"`
	Status           Status `json:"status"`
	IsSystem         bool   `json:"isSystem"`
	GloballyUniqueID string `json:"globallyUniqueId,omitempty"`
}

// KeyOptions configures document key generation.
type KeyOptions struct {
	Type          string `json:"type,omitempty"` // traditional, autoincrement, uuid, padded
	AllowUserKeys *bool  `json:"allowUserKeys,omitempty"`
	Increment     int    `json:"increment,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// Properties is the full description of a collection.
type Properties struct {
	Info
	WaitForSync       bool            `json:"waitForSync"`
	KeyOptions        *KeyOptions     `json:"keyOptions,omitempty"`
	Schema            json.RawMessage `json:"schema,omitempty"`
	CacheEnabled      bool            `json:"cacheEnabled"`
	NumberOfShards    int             `json:"numberOfShards,omitempty"`
	ShardKeys         []string        `json:"shardKeys,omitempty"`
	ReplicationFactor any             `json:"replicationFactor,omitempty"`
	WriteConcern      int             `json:"writeConcern,omitempty"`
	Count             *int64          `json:"count,omitempty"`
	Revision          string          `json:"revision,omitempty"`
}

// CreateOptions configures Create. Zero fields are not sent.
type CreateOptions struct {
	Type                 Type            `json:"type,omitempty"`
	WaitForSync          bool            `json:"waitForSync,omitempty"`
	IsSystem             bool            `json:"isSystem,omitempty"`
	KeyOptions           *KeyOptions     `json:"keyOptions,omitempty"`
	Schema               json.RawMessage `json:"schema,omitempty"`
	CacheEnabled         bool            `json:"cacheEnabled,omitempty"`
	NumberOfShards       int             `json:"numberOfShards,omitempty"`
	ShardKeys            []string        `json:"shardKeys,omitempty"`
	ReplicationFactor    any             `json:"replicationFactor,omitempty"`
	WriteConcern         int             `json:"writeConcern,omitempty"`
	DistributeShardsLike string          `json:"distributeShardsLike,omitempty"`
	SmartJoinAttribute   string          `json:"smartJoinAttribute,omitempty"`
}

// SetPropertiesOptions configures SetProperties. Nil fields are not sent.
type SetPropertiesOptions struct {
	WaitForSync       *bool           `json:"waitForSync,omitempty"`
	CacheEnabled      *bool           `json:"cacheEnabled,omitempty"`
	Schema            json.RawMessage `json:"schema,omitempty"`
	ReplicationFactor any             `json:"replicationFactor,omitempty"`
	WriteConcern      int             `json:"writeConcern,omitempty"`
}

// ChecksumOptions configures Checksum.
type ChecksumOptions struct {
	WithRevisions bool
	WithData      bool
}

// Checksum is a collection checksum.
type Checksum struct {
	Checksum string `json:"checksum"`
	Revision string `json:"revision"`
}

func collectionPath(name string) string {
	return "/_api/collection/" + arangorest.PathEscape(name)
}

// List returns the collections of the database.
func (c *Client) List(ctx context.Context, excludeSystem bool) ([]Info, error) {
	var opts []arangorest.RequestOption
	if excludeSystem {
		opts = append(opts, arangorest.WithQuery("excludeSystem", true))
	}
	resp, err := c.client.Get(ctx, "/_api/collection", opts...)
	if err != nil {
		return nil, err
	}
	var out []Info
	if err := resp.UnmarshalPath("result", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create creates a collection.
//
// Example:
//
//	props, err := cols.Create(ctx, "orders", &collection.CreateOptions{
//	    KeyOptions: &collection.KeyOptions{Type: "uuid"},
//	})
func (c *Client) Create(ctx context.Context, name string, opts *CreateOptions) (*Properties, error) {
	if err := arangorest.RequireArg("collection name", name); err != nil {
		return nil, err
	}
	body := struct {
		Name string `json:"name"`
		*CreateOptions
	}{name, opts}

	resp, err := c.client.Post(ctx, "/_api/collection", body)
	if err != nil {
		return nil, err
	}
	return decodeProperties(resp)
}

// Get returns the short description of a collection.
func (c *Client) Get(ctx context.Context, name string) (*Info, error) {
	if err := arangorest.RequireArg("collection name", name); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, collectionPath(name))
	if err != nil {
		return nil, err
	}
	var info Info
	if err := resp.Unmarshal(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Properties returns the full description of a collection.
func (c *Client) Properties(ctx context.Context, name string) (*Properties, error) {
	if err := arangorest.RequireArg("collection name", name); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, collectionPath(name)+"/properties")
	if err != nil {
		return nil, err
	}
	return decodeProperties(resp)
}

// SetProperties changes mutable collection properties.
func (c *Client) SetProperties(ctx context.Context, name string, props SetPropertiesOptions) (*Properties, error) {
	if err := arangorest.RequireArg("collection name", name); err != nil {
		return nil, err
	}
	resp, err := c.client.Put(ctx, collectionPath(name)+"/properties", props)
	if err != nil {
		return nil, err
	}
	return decodeProperties(resp)
}

// Count returns the number of documents in a collection.
func (c *Client) Count(ctx context.Context, name string) (int64, error) {
	if err := arangorest.RequireArg("collection name", name); err != nil {
		return 0, err
	}
	resp, err := c.client.Get(ctx, collectionPath(name)+"/count")
	if err != nil {
		return 0, err
	}
	return resp.Get("count").Int(), nil
}

// Figures returns storage statistics for a collection.
func (c *Client) Figures(ctx context.Context, name string) (json.RawMessage, error) {
	if err := arangorest.RequireArg("collection name", name); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, collectionPath(name)+"/figures")
	if err != nil {
		return nil, err
	}
	var figures json.RawMessage
	if err := resp.UnmarshalPath("figures", &figures); err != nil {
		return nil, err
	}
	return figures, nil
}

// Revision returns the collection revision id.
func (c *Client) Revision(ctx context.Context, name string) (string, error) {
	if err := arangorest.RequireArg("collection name", name); err != nil {
		return "", err
	}
	resp, err := c.client.Get(ctx, collectionPath(name)+"/revision")
	if err != nil {
		return "", err
	}
	return resp.Get("revision").String(), nil
}

// Checksum returns a checksum over the collection's keys and optionally
// revisions and data.
func (c *Client) Checksum(ctx context.Context, name string, opts *ChecksumOptions) (*Checksum, error) {
	if err := arangorest.RequireArg("collection name", name); err != nil {
		return nil, err
	}
	var reqOpts []arangorest.RequestOption
	if opts != nil {
		if opts.WithRevisions {
			reqOpts = append(reqOpts, arangorest.WithQuery("withRevisions", true))
		}
		if opts.WithData {
			reqOpts = append(reqOpts, arangorest.WithQuery("withData", true))
		}
	}
	resp, err := c.client.Get(ctx, collectionPath(name)+"/checksum", reqOpts...)
	if err != nil {
		return nil, err
	}
	var out Checksum
	if err := resp.Unmarshal(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rename renames a collection. Not supported in clusters.
func (c *Client) Rename(ctx context.Context, name, newName string) (*Info, error) {
	if err := arangorest.RequireArg("collection name", name); err != nil {
		return nil, err
	}
	if err := arangorest.RequireArg("new collection name", newName); err != nil {
		return nil, err
	}
	resp, err := c.client.Put(ctx, collectionPath(name)+"/rename", map[string]string{"name": newName})
	if err != nil {
		return nil, err
	}
	var info Info
	if err := resp.Unmarshal(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Truncate removes all documents from a collection.
func (c *Client) Truncate(ctx context.Context, name string) error {
	if err := arangorest.RequireArg("collection name", name); err != nil {
		return err
	}
	_, err := c.client.Put(ctx, collectionPath(name)+"/truncate", nil)
	return err
}

// Drop deletes a collection. System collections need isSystem.
func (c *Client) Drop(ctx context.Context, name string, isSystem bool) error {
	if err := arangorest.RequireArg("collection name", name); err != nil {
		return err
	}
	var opts []arangorest.RequestOption
	if isSystem {
		opts = append(opts, arangorest.WithQuery("isSystem", true))
	}
	_, err := c.client.Delete(ctx, collectionPath(name), opts...)
	return err
}

// Exists reports whether a collection exists.
// Only not-found errors count as false; other failures are returned.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	_, err := c.Get(ctx, name)
	if err != nil {
		if arangorest.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func decodeProperties(resp *arangorest.Response) (*Properties, error) {
	var props Properties
	if err := resp.Unmarshal(&props); err != nil {
		return nil, err
	}
	return &props, nil
}
