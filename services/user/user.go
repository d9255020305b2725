// Package user provides user and permission management.
package user

import (
	"context"

	arangorest "github.com/arangorest/arangorest-go"
)

// UserClient defines the interface for user operations.
// Implement this interface for testing with mocks.
type UserClient interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, name string) (*User, error)
	Create(ctx context.Context, name string, opts *Options) (*User, error)
	Update(ctx context.Context, name string, opts *Options) (*User, error)
	Replace(ctx context.Context, name string, opts *Options) (*User, error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)

	Databases(ctx context.Context, name string, full bool) (map[string]any, error)
	DatabaseAccess(ctx context.Context, name, database string) (Grant, error)
	SetDatabaseAccess(ctx context.Context, name, database string, grant Grant) error
	ClearDatabaseAccess(ctx context.Context, name, database string) error
	CollectionAccess(ctx context.Context, name, database, collection string) (Grant, error)
	SetCollectionAccess(ctx context.Context, name, database, collection string, grant Grant) error
	ClearCollectionAccess(ctx context.Context, name, database, collection string) error
}

// Client is a user management client. User endpoints are global and are
// never prefixed with a database.
type Client struct {
	client arangorest.Requester
}

// NewClient creates a new user client.
func NewClient(c arangorest.Requester) *Client {
	return &Client{client: c}
}

// Ensure Client implements UserClient.
var _ UserClient = (*Client)(nil)

// Grant is an access level.
type Grant string

const (
	GrantReadWrite Grant = "rw"
	GrantReadOnly  Grant = "ro"
	GrantNone      Grant = "none"
	GrantUndefined Grant = "undefined"
)

// User describes a server user.
type User struct {
	Name   string         `json:"user"`
	Active bool           `json:"active"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// Options are the writable attributes of a user. Nil fields are left
// unchanged by Update.
type Options struct {
	Password string         `json:"passwd,omitempty"`
	Active   *bool          `json:"active,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

func userPath(name string) string {
	return "/_api/user/" + arangorest.PathEscape(name)
}

func databasePath(name, database string) string {
	return userPath(name) + "/database/" + arangorest.PathEscape(database)
}

func decodeUser(resp *arangorest.Response) (*User, error) {
	var u User
	if err := resp.Unmarshal(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all users.
func (c *Client) List(ctx context.Context) ([]User, error) {
	resp, err := c.client.Get(ctx, "/_api/user")
	if err != nil {
		return nil, err
	}
	var users []User
	if err := resp.UnmarshalResult(&users); err != nil {
		return nil, err
	}
	return users, nil
}

// Get returns a user.
func (c *Client) Get(ctx context.Context, name string) (*User, error) {
	if err := arangorest.RequireArg("user name", name); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, userPath(name))
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

// Create creates a user.
//
// Example:
//
//	active := true
//	u, err := users.Create(ctx, "alice", &user.Options{Password: "s3cret", Active: &active})
func (c *Client) Create(ctx context.Context, name string, opts *Options) (*User, error) {
	if err := arangorest.RequireArg("user name", name); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}
	body := struct {
		User string `json:"user"`
		*Options
	}{name, opts}
	resp, err := c.client.Post(ctx, "/_api/user", body)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

// Update changes the given attributes of a user.
func (c *Client) Update(ctx context.Context, name string, opts *Options) (*User, error) {
	if err := arangorest.RequireArg("user name", name); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}
	resp, err := c.client.Patch(ctx, userPath(name), opts)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

// Replace overwrites all attributes of a user.
func (c *Client) Replace(ctx context.Context, name string, opts *Options) (*User, error) {
	if err := arangorest.RequireArg("user name", name); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}
	resp, err := c.client.Put(ctx, userPath(name), opts)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

// Delete removes a user.
func (c *Client) Delete(ctx context.Context, name string) error {
	if err := arangorest.RequireArg("user name", name); err != nil {
		return err
	}
	_, err := c.client.Delete(ctx, userPath(name))
	return err
}

// Exists reports whether a user exists. Errors other than not found are
// returned.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	_, err := c.Get(ctx, name)
	if err == nil {
		return true, nil
	}
	if arangorest.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Databases returns the databases the user can access with their grants.
// With full set, collection-level grants are included.
func (c *Client) Databases(ctx context.Context, name string, full bool) (map[string]any, error) {
	if err := arangorest.RequireArg("user name", name); err != nil {
		return nil, err
	}
	var opts []arangorest.RequestOption
	if full {
		opts = append(opts, arangorest.WithQuery("full", true))
	}
	resp, err := c.client.Get(ctx, userPath(name)+"/database", opts...)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := resp.UnmarshalResult(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getGrant(ctx context.Context, path string) (Grant, error) {
	resp, err := c.client.Get(ctx, path)
	if err != nil {
		return "", err
	}
	return Grant(resp.Get("result").String()), nil
}

// DatabaseAccess returns the user's grant on a database.
func (c *Client) DatabaseAccess(ctx context.Context, name, database string) (Grant, error) {
	if err := requireAccess(name, database); err != nil {
		return "", err
	}
	return c.getGrant(ctx, databasePath(name, database))
}

// SetDatabaseAccess grants access to a database. Use "*" for all databases.
func (c *Client) SetDatabaseAccess(ctx context.Context, name, database string, grant Grant) error {
	if err := requireAccess(name, database); err != nil {
		return err
	}
	_, err := c.client.Put(ctx, databasePath(name, database), map[string]Grant{"grant": grant})
	return err
}

// ClearDatabaseAccess removes an explicit database grant.
func (c *Client) ClearDatabaseAccess(ctx context.Context, name, database string) error {
	if err := requireAccess(name, database); err != nil {
		return err
	}
	_, err := c.client.Delete(ctx, databasePath(name, database))
	return err
}

// CollectionAccess returns the user's grant on a collection.
func (c *Client) CollectionAccess(ctx context.Context, name, database, collection string) (Grant, error) {
	if err := requireAccess(name, database); err != nil {
		return "", err
	}
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return "", err
	}
	return c.getGrant(ctx, databasePath(name, database)+"/"+arangorest.PathEscape(collection))
}

// SetCollectionAccess grants access to a collection. Use "*" for all
// collections of the database.
func (c *Client) SetCollectionAccess(ctx context.Context, name, database, collection string, grant Grant) error {
	if err := requireAccess(name, database); err != nil {
		return err
	}
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return err
	}
	_, err := c.client.Put(ctx, databasePath(name, database)+"/"+arangorest.PathEscape(collection), map[string]Grant{"grant": grant})
	return err
}

// ClearCollectionAccess removes an explicit collection grant.
func (c *Client) ClearCollectionAccess(ctx context.Context, name, database, collection string) error {
	if err := requireAccess(name, database); err != nil {
		return err
	}
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return err
	}
	_, err := c.client.Delete(ctx, databasePath(name, database)+"/"+arangorest.PathEscape(collection))
	return err
}

func requireAccess(name, database string) error {
	if err := arangorest.RequireArg("user name", name); err != nil {
		return err
	}
	return arangorest.RequireArg("database", database)
}
