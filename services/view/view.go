// Package view provides search view operations.
package view

import (
	"context"
	"encoding/json"
	"fmt"

	arangorest "github.com/arangorest/arangorest-go"
)

// ViewClient defines the interface for view operations.
// Implement this interface for testing with mocks.
type ViewClient interface {
	List(ctx context.Context) ([]View, error)
	Get(ctx context.Context, name string) (*View, error)
	Properties(ctx context.Context, name string) (*Properties, error)
	Create(ctx context.Context, name string, typ Type, props any) (*Properties, error)
	UpdateProperties(ctx context.Context, name string, props any) (*Properties, error)
	ReplaceProperties(ctx context.Context, name string, props any) (*Properties, error)
	Rename(ctx context.Context, name, newName string) (*View, error)
	Drop(ctx context.Context, name string) error
}

// Client is a view client.
type Client struct {
	client arangorest.Requester
}

// NewClient creates a new view client.
func NewClient(c arangorest.Requester) *Client {
	return &Client{client: c}
}

// Ensure Client implements ViewClient.
var _ ViewClient = (*Client)(nil)

// Type is a view type.
type Type string

const (
	TypeSearch      Type = "arangosearch"
	TypeSearchAlias Type = "search-alias"
)

// View identifies a view.
type View struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             Type   `json:"type"`
	GloballyUniqueID string `json:"globallyUniqueId,omitempty"`
}

// Properties is a view with its type-specific properties. The full
// definition is kept in Raw.
type Properties struct {
	View
	Links   map[string]json.RawMessage `json:"links,omitempty"`
	Indexes []AliasIndex               `json:"indexes,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// AliasIndex is one inverted index of a search-alias view.
type AliasIndex struct {
	Collection string `json:"collection"`
	Index      string `json:"index"`
	Operation  string `json:"operation,omitempty"`
}

// SearchProperties are commonly used arangosearch properties. Any other
// JSON-encodable value is accepted where props is taken.
type SearchProperties struct {
	Links                     map[string]Link `json:"links,omitempty"`
	PrimarySort               []SortField     `json:"primarySort,omitempty"`
	StoredValues              []StoredValue   `json:"storedValues,omitempty"`
	CleanupIntervalStep       *int            `json:"cleanupIntervalStep,omitempty"`
	CommitIntervalMsec        *int            `json:"commitIntervalMsec,omitempty"`
	ConsolidationIntervalMsec *int            `json:"consolidationIntervalMsec,omitempty"`
}

// Link connects a collection to an arangosearch view.
type Link struct {
	Analyzers          []string        `json:"analyzers,omitempty"`
	Fields             map[string]Link `json:"fields,omitempty"`
	IncludeAllFields   bool            `json:"includeAllFields,omitempty"`
	StoreValues        string          `json:"storeValues,omitempty"`
	TrackListPositions bool            `json:"trackListPositions,omitempty"`
}

// SortField is one primary sort field.
type SortField struct {
	Field     string `json:"field"`
	Ascending bool   `json:"asc"`
}

// StoredValue is one stored value group.
type StoredValue struct {
	Fields      []string `json:"fields"`
	Compression string   `json:"compression,omitempty"`
}

func viewPath(name string) string {
	return "/_api/view/" + arangorest.PathEscape(name)
}

// List returns the views of the current database.
func (c *Client) List(ctx context.Context) ([]View, error) {
	resp, err := c.client.Get(ctx, "/_api/view")
	if err != nil {
		return nil, err
	}
	var out []View
	if err := resp.UnmarshalResult(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a view.
func (c *Client) Get(ctx context.Context, name string) (*View, error) {
	if err := arangorest.RequireArg("view name", name); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, viewPath(name))
	if err != nil {
		return nil, err
	}
	var v View
	if err := resp.Unmarshal(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Properties returns a view with its properties.
func (c *Client) Properties(ctx context.Context, name string) (*Properties, error) {
	if err := arangorest.RequireArg("view name", name); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, viewPath(name)+"/properties")
	if err != nil {
		return nil, err
	}
	return decodeProperties(resp)
}

// Create creates a view. props is encoded into the top level of the
// request next to name and type, and may be nil.
//
// Example:
//
//	p, err := views.Create(ctx, "products_search", view.TypeSearch, view.SearchProperties{
//	    Links: map[string]view.Link{"products": {Analyzers: []string{"text_en"}, IncludeAllFields: true}},
//	})
func (c *Client) Create(ctx context.Context, name string, typ Type, props any) (*Properties, error) {
	if err := arangorest.RequireArg("view name", name); err != nil {
		return nil, err
	}
	if err := arangorest.RequireArg("view type", string(typ)); err != nil {
		return nil, err
	}
	body, err := mergeBody(map[string]any{"name": name, "type": typ}, props)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Post(ctx, "/_api/view", body)
	if err != nil {
		return nil, err
	}
	return decodeProperties(resp)
}

// UpdateProperties merges props into the view properties.
func (c *Client) UpdateProperties(ctx context.Context, name string, props any) (*Properties, error) {
	if err := arangorest.RequireArg("view name", name); err != nil {
		return nil, err
	}
	resp, err := c.client.Patch(ctx, viewPath(name)+"/properties", props)
	if err != nil {
		return nil, err
	}
	return decodeProperties(resp)
}

// ReplaceProperties overwrites the view properties.
func (c *Client) ReplaceProperties(ctx context.Context, name string, props any) (*Properties, error) {
	if err := arangorest.RequireArg("view name", name); err != nil {
		return nil, err
	}
	resp, err := c.client.Put(ctx, viewPath(name)+"/properties", props)
	if err != nil {
		return nil, err
	}
	return decodeProperties(resp)
}

// Rename renames a view. Not supported in clusters.
func (c *Client) Rename(ctx context.Context, name, newName string) (*View, error) {
	if err := arangorest.RequireArg("view name", name); err != nil {
		return nil, err
	}
	if err := arangorest.RequireArg("new view name", newName); err != nil {
		return nil, err
	}
	resp, err := c.client.Put(ctx, viewPath(name)+"/rename", map[string]string{"name": newName})
	if err != nil {
		return nil, err
	}
	var v View
	if err := resp.Unmarshal(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Drop deletes a view.
func (c *Client) Drop(ctx context.Context, name string) error {
	if err := arangorest.RequireArg("view name", name); err != nil {
		return err
	}
	_, err := c.client.Delete(ctx, viewPath(name))
	return err
}

func decodeProperties(resp *arangorest.Response) (*Properties, error) {
	var p Properties
	if err := resp.Unmarshal(&p); err != nil {
		return nil, err
	}
	p.Raw = json.RawMessage(resp.Body)
	return &p, nil
}

// mergeBody encodes props and adds its top-level keys to base. Keys
// already in base win.
func mergeBody(base map[string]any, props any) (map[string]any, error) {
	if props == nil {
		return base, nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encode view properties: %w", err)
	}
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("view properties must encode to a JSON object: %w", err)
	}
	for k, v := range extra {
		if _, ok := base[k]; !ok {
			base[k] = v
		}
	}
	return base, nil
}
