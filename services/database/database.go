// Package database provides database management operations.
package database

import (
	"context"

	arangorest "github.com/arangorest/arangorest-go"
)

// DatabaseClient defines the interface for database operations.
// Implement this interface for testing with mocks.
type DatabaseClient interface {
	List(ctx context.Context) ([]string, error)
	ListAccessible(ctx context.Context) ([]string, error)
	Current(ctx context.Context) (*Info, error)
	Create(ctx context.Context, name string, opts *CreateOptions) error
	Drop(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// Client is a database management client.
type Client struct {
	client arangorest.Requester
}

// NewClient creates a new database client.
func NewClient(c arangorest.Requester) *Client {
	return &Client{client: c}
}

// Ensure Client implements DatabaseClient.
var _ DatabaseClient = (*Client)(nil)

// Info describes a database.
type Info struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Path              string `json:"path"`
	IsSystem          bool   `json:"isSystem"`
	Sharding          string `json:"sharding,omitempty"`
	ReplicationFactor any    `json:"replicationFactor,omitempty"`
	WriteConcern      int    `json:"writeConcern,omitempty"`
}

// User is an initial user created alongside a database.
type User struct {
	Username string         `json:"username"`
	Password string         `json:"passwd,omitempty"`
	Active   *bool          `json:"active,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// CreateOptions configures Create. Zero fields are not sent.
type CreateOptions struct {
	Users             []User `json:"-"`
	Sharding          string `json:"sharding,omitempty"`
	ReplicationFactor any    `json:"replicationFactor,omitempty"`
	WriteConcern      int    `json:"writeConcern,omitempty"`
}

// List returns the names of all databases. Requires access to _system.
func (c *Client) List(ctx context.Context) ([]string, error) {
	resp, err := c.client.Get(ctx, "/_api/database")
	if err != nil {
		return nil, err
	}
	var names []string
	if err := resp.UnmarshalPath("result", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ListAccessible returns the databases the current user can access.
func (c *Client) ListAccessible(ctx context.Context) ([]string, error) {
	resp, err := c.client.Get(ctx, "/_api/database/user")
	if err != nil {
		return nil, err
	}
	var names []string
	if err := resp.UnmarshalPath("result", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// Current describes the database the client targets.
func (c *Client) Current(ctx context.Context) (*Info, error) {
	resp, err := c.client.Get(ctx, "/_api/database/current")
	if err != nil {
		return nil, err
	}
	var info Info
	if err := resp.UnmarshalPath("result", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Create creates a database.
//
// Example:
//
//	err := dbs.Create(ctx, "shop", &database.CreateOptions{
//	    Users: []database.User{{Username: "shop", Password: "secret"}},
//	})
func (c *Client) Create(ctx context.Context, name string, opts *CreateOptions) error {
	if err := arangorest.RequireArg("database name", name); err != nil {
		return err
	}

	body := struct {
		Name    string         `json:"name"`
		Users   []User         `json:"users,omitempty"`
		Options *CreateOptions `json:"options,omitempty"`
	}{Name: name, Options: opts}
	if opts != nil {
		body.Users = opts.Users
	}

	_, err := c.client.Post(ctx, "/_api/database", body)
	return err
}

// Drop deletes a database.
func (c *Client) Drop(ctx context.Context, name string) error {
	if err := arangorest.RequireArg("database name", name); err != nil {
		return err
	}
	_, err := c.client.Delete(ctx, "/_api/database/"+arangorest.PathEscape(name))
	return err
}

// Exists reports whether a database exists and is accessible.
// Only not-found errors count as false; other failures are returned.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	if err := arangorest.RequireArg("database name", name); err != nil {
		return false, err
	}
	_, err := c.client.Get(ctx, "/_api/database/current", arangorest.InDatabase(name))
	if err != nil {
		if arangorest.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
