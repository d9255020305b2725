// Package admin provides server administration operations.
package admin

import (
	"context"
	"encoding/json"
	"math"
	"time"

	arangorest "github.com/arangorest/arangorest-go"
	"github.com/arangorest/arangorest-go/transport"
)

// AdminClient defines the interface for server administration.
// Implement this interface for testing with mocks.
type AdminClient interface {
	Version(ctx context.Context, details bool) (*Version, error)
	Engine(ctx context.Context) (*Engine, error)
	Role(ctx context.Context) (string, error)
	ServerID(ctx context.Context) (string, error)
	Status(ctx context.Context) (*Status, error)
	Time(ctx context.Context) (time.Time, error)
	Log(ctx context.Context, opts *LogOptions) (*LogEntries, error)
	LogLevel(ctx context.Context) (map[string]string, error)
	SetLogLevel(ctx context.Context, levels map[string]string) (map[string]string, error)
	Statistics(ctx context.Context) (map[string]any, error)
	Metrics(ctx context.Context) (string, error)
	ReloadRouting(ctx context.Context) error
	Execute(ctx context.Context, script string) (json.RawMessage, error)
	ClusterHealth(ctx context.Context) (*ClusterHealth, error)
}

// Client is a server administration client.
type Client struct {
	client arangorest.Requester
}

// NewClient creates a new admin client.
func NewClient(c arangorest.Requester) *Client {
	return &Client{client: c}
}

// Ensure Client implements AdminClient.
var _ AdminClient = (*Client)(nil)

// Version describes the server build.
type Version struct {
	Server  string            `json:"server"`
	Version string            `json:"version"`
	License string            `json:"license"`
	Details map[string]string `json:"details,omitempty"`
}

// Engine describes the storage engine.
type Engine struct {
	Name     string         `json:"name"`
	Supports map[string]any `json:"supports,omitempty"`
}

// Status is a summary of the server state.
type Status struct {
	Server        string         `json:"server"`
	Version       string         `json:"version"`
	PID           int            `json:"pid"`
	License       string         `json:"license"`
	Mode          string         `json:"mode"`
	OperationMode string         `json:"operationMode"`
	Host          string         `json:"host"`
	ServerInfo    map[string]any `json:"serverInfo,omitempty"`
}

// LogOptions filters Log. Zero fields are not sent.
type LogOptions struct {
	Upto   string
	Level  string
	Start  int
	Size   int
	Offset int
	Search string
	Sort   string
	Server string
}

func (o *LogOptions) params() arangorest.Params {
	p := arangorest.Params{}
	if o == nil {
		return p
	}
	set := func(k string, v any, ok bool) {
		if ok {
			p[k] = v
		}
	}
	set("upto", o.Upto, o.Upto != "")
	set("level", o.Level, o.Level != "")
	set("start", o.Start, o.Start > 0)
	set("size", o.Size, o.Size > 0)
	set("offset", o.Offset, o.Offset > 0)
	set("search", o.Search, o.Search != "")
	set("sort", o.Sort, o.Sort != "")
	set("serverId", o.Server, o.Server != "")
	return p
}

// LogEntry is one server log message.
type LogEntry struct {
	ID      int64  `json:"id"`
	Topic   string `json:"topic"`
	Level   string `json:"level"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

// LogEntries is a page of server log messages.
type LogEntries struct {
	Total    int        `json:"total"`
	Messages []LogEntry `json:"messages"`
}

// ClusterHealth reports the state of every cluster member.
type ClusterHealth struct {
	ClusterID string                  `json:"ClusterId"`
	Health    map[string]MemberHealth `json:"Health"`
}

// MemberHealth is the state of one cluster member.
type MemberHealth struct {
	Role          string `json:"Role"`
	ShortName     string `json:"ShortName"`
	Endpoint      string `json:"Endpoint"`
	Status        string `json:"Status"`
	Version       string `json:"Version,omitempty"`
	CanBeDeleted  bool   `json:"CanBeDeleted"`
	SyncStatus    string `json:"SyncStatus,omitempty"`
	LastAckedTime string `json:"LastAckedTime,omitempty"`
}

// Version returns the server version. With details set, build details
// are included.
func (c *Client) Version(ctx context.Context, details bool) (*Version, error) {
	var opts []arangorest.RequestOption
	if details {
		opts = append(opts, arangorest.WithQuery("details", true))
	}
	resp, err := c.client.Get(ctx, "/_api/version", opts...)
	if err != nil {
		return nil, err
	}
	var v Version
	if err := resp.Unmarshal(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Engine returns the storage engine.
func (c *Client) Engine(ctx context.Context) (*Engine, error) {
	resp, err := c.client.Get(ctx, "/_api/engine")
	if err != nil {
		return nil, err
	}
	var e Engine
	if err := resp.Unmarshal(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Role returns the server role: SINGLE, COORDINATOR, PRIMARY or AGENT.
func (c *Client) Role(ctx context.Context) (string, error) {
	resp, err := c.client.Get(ctx, "/_admin/server/role")
	if err != nil {
		return "", err
	}
	return resp.Get("role").String(), nil
}

// ServerID returns the id of a cluster server.
func (c *Client) ServerID(ctx context.Context) (string, error) {
	resp, err := c.client.Get(ctx, "/_admin/server/id")
	if err != nil {
		return "", err
	}
	return resp.Get("id").String(), nil
}

// Status returns a summary of the server state.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	resp, err := c.client.Get(ctx, "/_admin/status")
	if err != nil {
		return nil, err
	}
	var s Status
	if err := resp.Unmarshal(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Time returns the server clock.
func (c *Client) Time(ctx context.Context) (time.Time, error) {
	resp, err := c.client.Get(ctx, "/_admin/time")
	if err != nil {
		return time.Time{}, err
	}
	secs, frac := math.Modf(resp.Get("time").Float())
	return time.Unix(int64(secs), int64(frac*1e9)), nil
}

// Log returns server log messages.
func (c *Client) Log(ctx context.Context, opts *LogOptions) (*LogEntries, error) {
	resp, err := c.client.Get(ctx, "/_admin/log/entries", arangorest.WithParams(opts.params()))
	if err != nil {
		return nil, err
	}
	var out LogEntries
	if err := resp.Unmarshal(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LogLevel returns the log level of every topic.
func (c *Client) LogLevel(ctx context.Context) (map[string]string, error) {
	resp, err := c.client.Get(ctx, "/_admin/log/level")
	if err != nil {
		return nil, err
	}
	return decodeLevels(resp)
}

// SetLogLevel changes topic log levels and returns the resulting levels.
//
// Example:
//
//	levels, err := admin.SetLogLevel(ctx, map[string]string{"queries": "DEBUG"})
func (c *Client) SetLogLevel(ctx context.Context, levels map[string]string) (map[string]string, error) {
	resp, err := c.client.Put(ctx, "/_admin/log/level", levels)
	if err != nil {
		return nil, err
	}
	return decodeLevels(resp)
}

func decodeLevels(resp *arangorest.Response) (map[string]string, error) {
	out := map[string]string{}
	if err := resp.Unmarshal(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Statistics returns the server statistics.
func (c *Client) Statistics(ctx context.Context) (map[string]any, error) {
	resp, err := c.client.Get(ctx, "/_admin/statistics")
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := resp.Unmarshal(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Metrics returns the server metrics in Prometheus text format.
func (c *Client) Metrics(ctx context.Context) (string, error) {
	resp, err := c.client.Get(ctx, "/_admin/metrics/v2", arangorest.WithHeader("Accept", transport.ContentTypeText))
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

// ReloadRouting reloads the routing table.
func (c *Client) ReloadRouting(ctx context.Context) error {
	_, err := c.client.Post(ctx, "/_admin/routing/reload", nil)
	return err
}

// Execute runs JavaScript on the server and returns its JSON result.
// The server must be started with --javascript.allow-admin-execute.
//
// Example:
//
//	out, err := admin.Execute(ctx, "return require('@arangodb').db._version();")
func (c *Client) Execute(ctx context.Context, script string) (json.RawMessage, error) {
	if err := arangorest.RequireArg("script", script); err != nil {
		return nil, err
	}
	resp, err := c.client.Post(ctx, "/_admin/execute", nil,
		arangorest.WithRawBody([]byte(script), transport.ContentTypeJavaScript),
		arangorest.WithQuery("returnAsJSON", true),
	)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// ClusterHealth returns the health of every cluster member.
func (c *Client) ClusterHealth(ctx context.Context) (*ClusterHealth, error) {
	resp, err := c.client.Get(ctx, "/_admin/cluster/health")
	if err != nil {
		return nil, err
	}
	var h ClusterHealth
	if err := resp.Unmarshal(&h); err != nil {
		return nil, err
	}
	return &h, nil
}
