// Package foxx provides Foxx service management.
//
// Services are addressed by their mount path, which is sent as the
// "mount" query parameter.
package foxx

import (
	"context"
	"encoding/json"
	"net/http"

	arangorest "github.com/arangorest/arangorest-go"
	"github.com/arangorest/arangorest-go/transport"
)

// FoxxClient defines the interface for Foxx service operations.
// Implement this interface for testing with mocks.
type FoxxClient interface {
	List(ctx context.Context, excludeSystem bool) ([]Summary, error)
	Get(ctx context.Context, mount string) (*Service, error)
	Install(ctx context.Context, mount string, bundle []byte, opts *InstallOptions) (*Service, error)
	Replace(ctx context.Context, mount string, bundle []byte, opts *InstallOptions) (*Service, error)
	Upgrade(ctx context.Context, mount string, bundle []byte, opts *InstallOptions) (*Service, error)
	Uninstall(ctx context.Context, mount string, teardown bool) error

	Configuration(ctx context.Context, mount string) (map[string]any, error)
	UpdateConfiguration(ctx context.Context, mount string, values map[string]any) (map[string]any, error)
	Dependencies(ctx context.Context, mount string) (map[string]any, error)

	Scripts(ctx context.Context, mount string) (map[string]string, error)
	RunScript(ctx context.Context, mount, name string, args any) (json.RawMessage, error)
	RunTests(ctx context.Context, mount string, opts *TestOptions) (json.RawMessage, error)

	EnableDevelopment(ctx context.Context, mount string) (*Service, error)
	DisableDevelopment(ctx context.Context, mount string) (*Service, error)

	Readme(ctx context.Context, mount string) (string, error)
	Swagger(ctx context.Context, mount string) (json.RawMessage, error)
	Download(ctx context.Context, mount string) ([]byte, error)
}

// Client is a Foxx service client.
type Client struct {
	client arangorest.Requester
}

// NewClient creates a new Foxx client.
func NewClient(c arangorest.Requester) *Client {
	return &Client{client: c}
}

// Ensure Client implements FoxxClient.
var _ FoxxClient = (*Client)(nil)

// Summary is a list entry of an installed service.
type Summary struct {
	Mount       string            `json:"mount"`
	Name        string            `json:"name,omitempty"`
	Version     string            `json:"version,omitempty"`
	Provides    map[string]string `json:"provides,omitempty"`
	Development bool              `json:"development"`
	Legacy      bool              `json:"legacy"`
}

// Service describes an installed service.
type Service struct {
	Mount       string          `json:"mount"`
	Path        string          `json:"path,omitempty"`
	Name        string          `json:"name,omitempty"`
	Version     string          `json:"version,omitempty"`
	Development bool            `json:"development"`
	Legacy      bool            `json:"legacy"`
	Manifest    json.RawMessage `json:"manifest,omitempty"`
	Options     json.RawMessage `json:"options,omitempty"`
	Checksum    string          `json:"checksum,omitempty"`
}

// InstallOptions configures Install, Replace and Upgrade. Nil flags are
// left to the server default.
type InstallOptions struct {
	Development *bool
	Setup       *bool
	Teardown    *bool
	Legacy      *bool
	Force       *bool
}

func (o *InstallOptions) params(mount string) arangorest.Params {
	p := arangorest.Params{"mount": mount}
	if o == nil {
		return p
	}
	flags := map[string]*bool{
		"development": o.Development,
		"setup":       o.Setup,
		"teardown":    o.Teardown,
		"legacy":      o.Legacy,
		"force":       o.Force,
	}
	for k, v := range flags {
		if v != nil {
			p[k] = *v
		}
	}
	return p
}

// TestOptions configures RunTests.
type TestOptions struct {
	Reporter  string
	Idiomatic bool
	Filter    string
}

func mount(m string) arangorest.RequestOption {
	return arangorest.WithQuery("mount", m)
}

func decodeService(resp *arangorest.Response) (*Service, error) {
	var s Service
	if err := resp.Unmarshal(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns the installed services.
func (c *Client) List(ctx context.Context, excludeSystem bool) ([]Summary, error) {
	resp, err := c.client.Get(ctx, "/_api/foxx", arangorest.WithQuery("excludeSystem", excludeSystem))
	if err != nil {
		return nil, err
	}
	var out []Summary
	if err := resp.Unmarshal(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the service mounted at mount.
func (c *Client) Get(ctx context.Context, m string) (*Service, error) {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, "/_api/foxx/service", mount(m))
	if err != nil {
		return nil, err
	}
	return decodeService(resp)
}

func (c *Client) upload(ctx context.Context, method, path, m string, bundle []byte, opts *InstallOptions) (*Service, error) {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return nil, err
	}
	if len(bundle) == 0 {
		return nil, &arangorest.ConfigError{Field: "bundle", Message: "service bundle is empty"}
	}
	resp, err := c.client.Request(ctx, method, path, nil,
		arangorest.WithParams(opts.params(m)),
		arangorest.WithRawBody(bundle, transport.ContentTypeZip),
	)
	if err != nil {
		return nil, err
	}
	return decodeService(resp)
}

// Install installs a zipped service bundle at mount.
//
// Example:
//
//	bundle, _ := os.ReadFile("service.zip")
//	svc, err := services.Install(ctx, "/hello", bundle, nil)
func (c *Client) Install(ctx context.Context, m string, bundle []byte, opts *InstallOptions) (*Service, error) {
	return c.upload(ctx, http.MethodPost, "/_api/foxx", m, bundle, opts)
}

// Replace removes the service at mount and installs bundle in its place.
func (c *Client) Replace(ctx context.Context, m string, bundle []byte, opts *InstallOptions) (*Service, error) {
	return c.upload(ctx, http.MethodPut, "/_api/foxx/service", m, bundle, opts)
}

// Upgrade installs bundle at mount keeping the service configuration.
func (c *Client) Upgrade(ctx context.Context, m string, bundle []byte, opts *InstallOptions) (*Service, error) {
	return c.upload(ctx, http.MethodPatch, "/_api/foxx/service", m, bundle, opts)
}

// Uninstall removes the service at mount. With teardown set its teardown
// script runs first.
func (c *Client) Uninstall(ctx context.Context, m string, teardown bool) error {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return err
	}
	_, err := c.client.Delete(ctx, "/_api/foxx/service", mount(m), arangorest.WithQuery("teardown", teardown))
	return err
}

func (c *Client) getObject(ctx context.Context, path, m string) (map[string]any, error) {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, path, mount(m))
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := resp.Unmarshal(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Configuration returns the configuration options of a service.
func (c *Client) Configuration(ctx context.Context, m string) (map[string]any, error) {
	return c.getObject(ctx, "/_api/foxx/configuration", m)
}

// UpdateConfiguration sets configuration values of a service and returns
// the resulting configuration.
func (c *Client) UpdateConfiguration(ctx context.Context, m string, values map[string]any) (map[string]any, error) {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return nil, err
	}
	resp, err := c.client.Patch(ctx, "/_api/foxx/configuration", values, mount(m))
	if err != nil {
		return nil, err
	}
	// Newer servers wrap the result in "values".
	path := "@this"
	if resp.Get("values").Exists() {
		path = "values"
	}
	out := map[string]any{}
	if err := resp.UnmarshalPath(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Dependencies returns the dependency options of a service.
func (c *Client) Dependencies(ctx context.Context, m string) (map[string]any, error) {
	return c.getObject(ctx, "/_api/foxx/dependencies", m)
}

// Scripts returns the scripts of a service mapped to their titles.
func (c *Client) Scripts(ctx context.Context, m string) (map[string]string, error) {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, "/_api/foxx/scripts", mount(m))
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	if err := resp.Unmarshal(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// RunScript runs a service script with args and returns its exports.
func (c *Client) RunScript(ctx context.Context, m, name string, args any) (json.RawMessage, error) {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return nil, err
	}
	if err := arangorest.RequireArg("script name", name); err != nil {
		return nil, err
	}
	resp, err := c.client.Post(ctx, "/_api/foxx/scripts/"+arangorest.PathEscape(name), args, mount(m))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// RunTests runs the tests of a service and returns the report.
func (c *Client) RunTests(ctx context.Context, m string, opts *TestOptions) (json.RawMessage, error) {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return nil, err
	}
	params := arangorest.Params{"mount": m}
	if opts != nil {
		if opts.Reporter != "" {
			params["reporter"] = opts.Reporter
		}
		if opts.Idiomatic {
			params["idiomatic"] = true
		}
		if opts.Filter != "" {
			params["filter"] = opts.Filter
		}
	}
	resp, err := c.client.Post(ctx, "/_api/foxx/tests", nil, arangorest.WithParams(params))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// EnableDevelopment puts a service into development mode.
func (c *Client) EnableDevelopment(ctx context.Context, m string) (*Service, error) {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return nil, err
	}
	resp, err := c.client.Post(ctx, "/_api/foxx/development", nil, mount(m))
	if err != nil {
		return nil, err
	}
	return decodeService(resp)
}

// DisableDevelopment puts a service back into production mode.
func (c *Client) DisableDevelopment(ctx context.Context, m string) (*Service, error) {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return nil, err
	}
	resp, err := c.client.Delete(ctx, "/_api/foxx/development", mount(m))
	if err != nil {
		return nil, err
	}
	return decodeService(resp)
}

// Readme returns the README of a service, or "" if it has none.
func (c *Client) Readme(ctx context.Context, m string) (string, error) {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return "", err
	}
	resp, err := c.client.Get(ctx, "/_api/foxx/readme", mount(m), arangorest.WithHeader("Accept", transport.ContentTypeText))
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

// Swagger returns the OpenAPI description of a service.
func (c *Client) Swagger(ctx context.Context, m string) (json.RawMessage, error) {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, "/_api/foxx/swagger", mount(m))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// Download returns the service bundle as zip bytes.
func (c *Client) Download(ctx context.Context, m string) ([]byte, error) {
	if err := arangorest.RequireArg("mount", m); err != nil {
		return nil, err
	}
	resp, err := c.client.Post(ctx, "/_api/foxx/download", nil, mount(m), arangorest.WithHeader("Accept", transport.ContentTypeZip))
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
